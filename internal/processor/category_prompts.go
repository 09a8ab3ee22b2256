package processor

const workExperiencePrompt = `4. Evaluation framework for professional history

4.1. Role alignment
    - Compare CV job titles and industries with the experience the job description requires.
    - Map seniority with standard tiers: Junior (0-3y) | Mid (4-6y) | Senior (7-10y) | Executive (10y+)
4.2. Tenure and progression
    - Check that cumulative experience meets any "X+ years" requirement.
    - Career trajectory: promotions vs lateral moves.
    - Unexplained employment gaps longer than 6 months.
4.3. Scope of impact
    - Individual contributor vs managing budgets or teams.
    - Quantified outcomes: revenue, cost savings, efficiency gains.
    - Specialized achievements: patents, awards, published case studies.
4.4. Context
    - Transferable skills for career changers.
    - Relevance of startup vs enterprise experience.

Guidance:
    - Required experience outweighs nice-to-have experience.
    - -1 rating when a mandatory experience tier is missing.
    - +1 rating when quantitative benchmarks are exceeded by more than 20%.

Write the evaluation of each candidate with this template:
    **Candidate Name**:
    1. Overall Evaluation: 1-5 sentences summarizing the candidate's work experience.
    2. Key Requirements Matched: bullet points linking previous work experience to the job description.
    3. Strengths: likely strengths based on their work experience.
    4. Gaps/Uncertainties: missing or unclear aspects of their work experience.
    5. Reasoning Summary: 2-3 sentences on the overall alignment of their work experience with the job description.`

const projectsPrompt = `4. Evaluation framework for personal projects

4.1. Technical alignment
    - Match project domains with the target areas of the job description.
    - Verify tools and stack: links or specific versions rather than generic claims.
4.2. Complexity
    Tier 1: proof of concept | Tier 2: department-level implementation | Tier 3: cross-functional or organization-wide deployment
4.3. Ownership
    - Solo projects: full implementation.
    - Team projects: distinguish "contributed to" from "led the architecture of".
    - Open source: accepted merge requests vs personal forks.
4.4. Business impact
    - Measured results ("improved API latency by 40%") beat vague ones ("optimized performance").
    - Shipped features beat hackathon prototypes.

Rules:
    - Count projects as a substitute for experience ONLY when the job description accepts equivalent demonstrations.
    - Ignore school projects for senior roles unless they are exceptionally relevant.

Write the evaluation of each candidate with this template:
    **Candidate Name**:
    1. Overall Evaluation: 1-5 sentences summarizing the candidate's projects.
    2. Key Requirements Matched: bullet points linking their projects to the job description.
    3. Strengths: likely strengths based on their projects.
    4. Gaps/Uncertainties: missing or unclear aspects of their projects.
    5. Reasoning Summary: 2-3 sentences on the overall alignment of their projects with the job description.`

const educationPrompt = `4. Evaluation framework for education

4.1. Core requirements
    - Degree level: PhD, Master's or Bachelor's equivalence.
    - Field strictness: "Computer Science required" vs "STEM preferred".
    - Accreditation where the region requires it.
4.2. Certifications
    - Tier 1: vendor certifications (e.g. AWS Solutions Architect)
    - Tier 2: platform certifications
    - Tier 3: online course certificates
4.3. Institutions
    - Consider prestige only when the job description asks for it explicitly.
    - Adjust for non-traditional backgrounds such as bootcamp graduates with shipped projects.

Protocol:
    - Disqualify only when an absolute requirement is missing (e.g. a mandatory degree).
    - Treat certifications as 25% experience equivalents unless stated otherwise.

Write the evaluation of each candidate with this template:
    **Candidate Name**:
    1. Overall Evaluation: 1-5 sentences summarizing the candidate's education.
    2. Key Requirements Matched: bullet points linking their education to the job description.
    3. Strengths: likely strengths based on their education.
    4. Gaps/Uncertainties: missing or unclear aspects of their education.
    5. Reasoning Summary: 2-3 sentences on the overall alignment of their education with the job description.`

const skillsPrompt = `4. Evaluation framework for skills

4.1. Hierarchy
    - Core: "expert in Python" in the job description vs years of professional usage in the CV.
    - Preferred: "familiarity with Rust" vs side projects.
    - Bonus: "nice to have Tableau" vs a basic course.
4.2. Depth
    - Surface: skill listed without context.
    - Intermediate: practical exposure such as version control or CI/CD.
    - Expert: custom tooling, plugins, conference talks.
4.3. Verification
    - "Advanced" needs evidence such as libraries or APIs built; "Intermediate" needs evidence such as fixes in existing code.
4.4. Anti-inflation
    - Demote buzzword lists without substance.
    - Flag likely overstatements, e.g. "Photoshop (Expert)" with no portfolio.

Write the evaluation of each candidate with this template:
    **Candidate Name**:
    1. Overall Evaluation: 2-5 sentences summarizing the candidate's skills.
    2. Key Requirements Matched: bullet points linking their skills to the job description.
    3. Strengths: likely strengths based on their skills.
    4. Gaps/Uncertainties: missing or unclear aspects of their skills.
    5. Reasoning Summary: 2-3 sentences on the overall alignment of their skills with the job description.`

const languagesPrompt = `4. Language requirements

4.1. Proficiency scale
    - A1/A2: basic | B1/B2: professional | C1/C2: near native
    - Match against the job description, e.g. "French (B2+ required)" vs "Spanish (nice to have)".
4.2. Evidence
    - Standardized tests and their levels.
    - Work evidence: "negotiated contracts in Mandarin" beats "conversational Chinese".
4.3. Bonuses
    - +1 rating when requirements are exceeded for client-facing global roles.
    - Never penalize additional languages.

Write the evaluation of each candidate with this template:
    **Candidate Name**:
    1. Overall Evaluation: 1-3 sentences summarizing the candidate's languages.
    2. Reasoning Summary: 2-3 sentences on the overall alignment of their languages with the job description.`

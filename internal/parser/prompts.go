package parser

// keywordSystemPrompt 从JD中抽取三组加权关键词
const keywordSystemPrompt = `You are an assistant that extracts, from the job description below, a concise list of keywords that could realistically appear on a candidate's CV.
Focus on individual skills, technologies, tools, qualifications and concepts rather than full phrases or soft descriptions.
Generalize where it makes sense: extract "Docker" instead of "Some experience with Docker", or "Project Management" instead of "Led multiple projects".

Group the keywords by their importance to the role:
- **Core Requirements**: essential to the job
- **Preferred Qualifications**: important but not mandatory
- **Nice to Have**: beneficial but optional

**Required output format**:
{
    "CoreRequirements": [],
    "PreferredQualifications": [],
    "NiceToHave": []
}
**RETURN NOTHING BUT THE JSON OBJECT**`

// cvSystemPrompt 把简历文本转换为结构化JSON
const cvSystemPrompt = `You are an assistant that extracts structured information from resumes and CVs. Read the resume text and output the data in the JSON structure below. When a field is missing or cannot be found, use null or an empty array. Copy the CV content as written, without summaries, rewording or opinions. Output JSON only.

{
  "name": "Full name of the candidate",
  "applied_role": "Role or job title the person is applying for",
  "contacts": {
    "phone": "Phone number",
    "email": "Email address",
    "links": ["LinkedIn, GitHub, portfolio, etc."],
    "location": "City, region or address if specified"
  },
  "languages": [
    {
      "name": "Language name",
      "level": "Proficiency level (fluent, intermediate, basic, C1, B2, A1, not specified, etc.)"
    }
  ],
  "summary": "Brief personal summary or career overview",
  "work_experience": [
    {
      "role": "Job title",
      "company": "Employer name",
      "dates": "Start - End or time period",
      "responsibilities": ["Duties and accomplishments"]
    }
  ],
  "education": [
    {
      "title": "Degree or certificate name",
      "institution": "School or organization name",
      "dates": "Start - End or year",
      "type": "diploma or certification"
    }
  ],
  "skills": [
    {
      "name": "Skill name",
      "level": "Proficiency level (expert, intermediate, basic, not specified, etc.)"
    }
  ],
  "projects": [
    {
      "name": "Project name",
      "description": "Short explanation of the project",
      "technologies": [
        { "name": "Technology name" }
      ]
    }
  ],
  "hobbies": ["Personal interests or activities"]
}`

// evaluationIntro 所有类别共享的评估说明
const evaluationIntro = `You are an expert recruitment evaluation assistant. Evaluate and rank several candidates by comparing their CV sections against the job description. Combine an individual evaluation of every candidate, matching CV details to job criteria explicitly, with a comparative review of the group.

1. Individual candidate analysis
  1.1. Cross-reference each CV section with the key requirements, preferred qualifications and bonus skills of the job description. Missing "must-have" criteria lower the score and must be named (e.g. "-1 for missing mandatory experience").
  1.2. Judge relevance to the core competencies, depth (duration, complexity, leadership, quantified achievements), completeness (missing certifications, tools or experience) and transferable skills.
  1.3. Build one checklist of ALL job requirements and reuse it for every candidate. Mark explicit matches, count quantified achievements, list preferred skills found and note explicit gaps only.
  1.4. Use standardized metrics where possible:
      - Years of experience: 1pt <2y, 2pt 2-5y, 3pt >5y
      - Team size: 1pt <5, 2pt 5-10, 3pt >10
      - Metrics: 1pt for mentions, 2pt for quantified impact
  1.5. Scoring framework, applied identically to all candidates:
      - Base score (0-8), 0-2 points each: key requirements met (40%), depth of experience (30%), preferred skills (20%), risk assessment (10%, subtract 0-2 for gaps)
      - Bonus (0-2): +1 for rare qualifications, +1 for clearly superior comparative performance
      - Final score = base score * 1.25, on a 1-10 scale

2. Comparative analysis
  2.1. Rank the candidates on their draft scores and highlight the key differences. When two scores are close, explain any normalization.
  2.2. Apply comparative bonus points only for clear differentiators (e.g. "Candidate A holds 3 AWS certifications vs 1 for the others" -> +1).

3. Avoid assumptions
  - Rely only on explicitly stated information.
  - Flag ambiguous claims such as "proficient in data analysis" without context.
`

// evaluationOutroText 文本协议：候选人之间以 '><' 分隔，最后一段为评分行
const evaluationOutroText = `5. Output format

5.1. Separate each candidate evaluation with: '><'
  - Do NOT put the separator before the first candidate.
5.2. After the individual evaluations add a comparative analysis section describing the key differentiators and trade-offs, separated from the previous sections with: '><'
5.3. Normalize the draft scores against the group average where needed and explain every adjustment between draft and final score.
5.4. Final ratings
  - Compute ((KeyReq * 4) + (Depth * 3) + (Preferred * 2) - Gaps) + Bonuses and convert it to a 1-10 scale.
  - After the comparative analysis output the final sorted ratings in exactly this format, with nothing appended:
    FINAL RATING:
    ><
    **Candidate Name** - X
    **Candidate Name** - Y
  - Example:
    FINAL RATING:
    ><
    **John Doe** - 8
    **Jane Smith** - 7

Follow this structure strictly.
MAKE SURE THAT NAMES OF CANDIDATES REMAIN CONSISTENT THROUGHOUT THE EVALUATION PROCESS.`

// evaluationOutroJSON 结构化输出协议
const evaluationOutroJSON = `5. Output format

Return ONLY a JSON array with one object per candidate and nothing else:
[
  {"name": "Candidate Name", "score": 8, "narrative": "**Candidate Name**:\n1. Overall Evaluation: ..."}
]
- "name" must be exactly the candidate name given in the input.
- "score" is the final 1-10 rating after comparative normalization.
- "narrative" is the full evaluation of that candidate using the template above.
MAKE SURE THAT NAMES OF CANDIDATES REMAIN CONSISTENT THROUGHOUT THE EVALUATION PROCESS.`

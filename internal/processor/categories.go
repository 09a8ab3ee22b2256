package processor

import (
	"fmt"
	"strings"

	"ats-evaluator/internal/types"
)

// 类别名称，也作为评估调用的类别标识
const (
	CategoryWorkExperience = "work_experience"
	CategoryProjects       = "projects"
	CategoryEducation      = "education"
	CategorySkills         = "skills"
	CategoryLanguages      = "languages"
)

// Category 一个评估类别的描述
type Category struct {
	Name       string
	Header     string // AIEvaluation 中使用的标题
	Prompt     string
	Weight     float64
	Checkpoint int // 该类别完成时的进度百分比
	Sections   func(cv *types.CV) []fmt.Stringer
	Score      func(s *types.ApplicantScore) *float64
}

var categories = []Category{
	{
		Name: CategoryWorkExperience, Header: "Work experience", Prompt: workExperiencePrompt,
		Weight: 1.0, Checkpoint: 50,
		Sections: (*types.CV).WorkExperienceSections,
		Score:    func(s *types.ApplicantScore) *float64 { return &s.WorkExperienceScore },
	},
	{
		Name: CategoryProjects, Header: "Projects", Prompt: projectsPrompt,
		Weight: 0.7, Checkpoint: 60,
		Sections: (*types.CV).ProjectSections,
		Score:    func(s *types.ApplicantScore) *float64 { return &s.ProjectsScore },
	},
	{
		Name: CategoryEducation, Header: "Education", Prompt: educationPrompt,
		Weight: 0.5, Checkpoint: 70,
		Sections: (*types.CV).EducationSections,
		Score:    func(s *types.ApplicantScore) *float64 { return &s.EducationScore },
	},
	{
		Name: CategorySkills, Header: "Skills", Prompt: skillsPrompt,
		Weight: 0.3, Checkpoint: 80,
		Sections: (*types.CV).SkillSections,
		Score:    func(s *types.ApplicantScore) *float64 { return &s.SkillsScore },
	},
	{
		Name: CategoryLanguages, Header: "Languages", Prompt: languagesPrompt,
		Weight: 0.1, Checkpoint: 90,
		Sections: (*types.CV).LanguageSections,
		Score:    func(s *types.ApplicantScore) *float64 { return &s.LanguagesScore },
	},
}

// Categories 按固定顺序返回类别表的副本
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// MaxCategoryScore 所有类别满分(10分)的加权和
func MaxCategoryScore() float64 {
	var total float64
	for _, c := range categories {
		total += 10 * c.Weight
	}
	return total
}

// BuildSectionBlob 拼装一个类别下所有候选人的输入文本
func BuildSectionBlob(category Category, applicants []*types.Applicant) string {
	var b strings.Builder
	for _, a := range applicants {
		fmt.Fprintf(&b, "**%s**:\n", a.CV.Name)
		entries := category.Sections(&a.CV)
		if len(entries) == 0 {
			b.WriteString("Not specified.\n")
		}
		for _, e := range entries {
			b.WriteString(e.String())
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

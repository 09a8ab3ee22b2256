package types

import (
	"fmt"
	"strings"
)

// CV 结构化简历，字段与LLM抽取时使用的JSON Schema保持一致
type CV struct {
	Name           string           `json:"name"`
	AppliedRole    string           `json:"applied_role"`
	Contacts       Contacts         `json:"contacts"`
	Languages      []Language       `json:"languages"`
	Summary        string           `json:"summary"`
	WorkExperience []WorkExperience `json:"work_experience"`
	Education      []Education      `json:"education"`
	Skills         []Skill          `json:"skills"`
	Projects       []Project        `json:"projects"`
	Hobbies        []string         `json:"hobbies"`
}

// Contacts 联系方式
type Contacts struct {
	Phone    string   `json:"phone"`
	Email    string   `json:"email"`
	Links    []string `json:"links"`
	Location string   `json:"location"`
}

func (c Contacts) String() string {
	return fmt.Sprintf("Phone: %s\nEmail: %s\nLocation: %s\nLinks: %s\n",
		c.Phone, c.Email, c.Location, strings.Join(c.Links, ", "))
}

// Language 语言及熟练程度
type Language struct {
	Name  string `json:"name"`
	Level string `json:"level"`
}

func (l Language) String() string {
	return fmt.Sprintf("%s - %s", l.Name, l.Level)
}

// Skill 技能及熟练程度
type Skill struct {
	Name  string `json:"name"`
	Level string `json:"level"`
}

func (s Skill) String() string {
	return fmt.Sprintf("%s - %s", s.Name, s.Level)
}

// Technology 项目中使用的技术
type Technology struct {
	Name string `json:"name"`
}

func (t Technology) String() string {
	return t.Name
}

// Project 项目经历
type Project struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Technologies []Technology `json:"technologies"`
}

func (p Project) String() string {
	names := make([]string, 0, len(p.Technologies))
	for _, t := range p.Technologies {
		names = append(names, t.String())
	}
	return fmt.Sprintf("Title: %s:\nUsed technologies: %s\nDescription: %s\n",
		p.Name, strings.Join(names, ", "), p.Description)
}

// WorkExperience 工作经历
type WorkExperience struct {
	Role             string   `json:"role"`
	Company          string   `json:"company"`
	Dates            string   `json:"dates"`
	Responsibilities []string `json:"responsibilities"`
}

func (w WorkExperience) String() string {
	return fmt.Sprintf("Role: %s:\nCompany: %s\nDates: %s\nResponsibilities: %s\n",
		w.Role, w.Company, w.Dates, strings.Join(w.Responsibilities, "; "))
}

// Education 教育或证书
type Education struct {
	Title       string `json:"title"`
	Institution string `json:"institution"`
	Dates       string `json:"dates"`
	Type        string `json:"type"` // diploma 或 certification
}

func (e Education) String() string {
	return fmt.Sprintf("Title: %s:\nType: %s\nInstitution: %s\nDates: %s\n",
		e.Title, e.Type, e.Institution, e.Dates)
}

// Normalize 将所有 nil 切片替换为空切片，保证序列化后列表字段不会是 null
func (cv *CV) Normalize() {
	if cv == nil {
		return
	}
	if cv.Contacts.Links == nil {
		cv.Contacts.Links = []string{}
	}
	if cv.Languages == nil {
		cv.Languages = []Language{}
	}
	if cv.WorkExperience == nil {
		cv.WorkExperience = []WorkExperience{}
	}
	for i := range cv.WorkExperience {
		if cv.WorkExperience[i].Responsibilities == nil {
			cv.WorkExperience[i].Responsibilities = []string{}
		}
	}
	if cv.Education == nil {
		cv.Education = []Education{}
	}
	if cv.Skills == nil {
		cv.Skills = []Skill{}
	}
	if cv.Projects == nil {
		cv.Projects = []Project{}
	}
	for i := range cv.Projects {
		if cv.Projects[i].Technologies == nil {
			cv.Projects[i].Technologies = []Technology{}
		}
	}
	if cv.Hobbies == nil {
		cv.Hobbies = []string{}
	}
}

// WorkExperienceSections 以下辅助方法把各列表转换为可渲染的 fmt.Stringer 切片
func (cv *CV) WorkExperienceSections() []fmt.Stringer {
	out := make([]fmt.Stringer, 0, len(cv.WorkExperience))
	for _, w := range cv.WorkExperience {
		out = append(out, w)
	}
	return out
}

func (cv *CV) ProjectSections() []fmt.Stringer {
	out := make([]fmt.Stringer, 0, len(cv.Projects))
	for _, p := range cv.Projects {
		out = append(out, p)
	}
	return out
}

func (cv *CV) EducationSections() []fmt.Stringer {
	out := make([]fmt.Stringer, 0, len(cv.Education))
	for _, e := range cv.Education {
		out = append(out, e)
	}
	return out
}

func (cv *CV) SkillSections() []fmt.Stringer {
	out := make([]fmt.Stringer, 0, len(cv.Skills))
	for _, s := range cv.Skills {
		out = append(out, s)
	}
	return out
}

func (cv *CV) LanguageSections() []fmt.Stringer {
	out := make([]fmt.Stringer, 0, len(cv.Languages))
	for _, l := range cv.Languages {
		out = append(out, l)
	}
	return out
}

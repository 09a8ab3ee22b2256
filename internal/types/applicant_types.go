package types

import "strings"

// 关键词分组权重，与分组大小无关
const (
	CoreRequirementWeight        = 3
	PreferredQualificationWeight = 2
	NiceToHaveWeight             = 1
)

// KeywordGroups 从JD中抽取的三组加权关键词
type KeywordGroups struct {
	CoreRequirements        []string `json:"CoreRequirements"`
	PreferredQualifications []string `json:"PreferredQualifications"`
	NiceToHave              []string `json:"NiceToHave"`
}

// IsEmpty 三组均为空时返回 true，此时跳过关键词匹配
func (k KeywordGroups) IsEmpty() bool {
	return len(k.CoreRequirements) == 0 && len(k.PreferredQualifications) == 0 && len(k.NiceToHave) == 0
}

// Normalize 去除空白项并按大小写不敏感去重
func (k *KeywordGroups) Normalize() {
	k.CoreRequirements = dedupeKeywords(k.CoreRequirements)
	k.PreferredQualifications = dedupeKeywords(k.PreferredQualifications)
	k.NiceToHave = dedupeKeywords(k.NiceToHave)
}

func dedupeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, kw := range in {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		key := strings.ToLower(kw)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, kw)
	}
	return out
}

// Document 一份待评估的原始文档
type Document struct {
	Name string // 文件名或对象存储key
	Data []byte
}

// ApplicantScore 候选人的各项分数
type ApplicantScore struct {
	EmbeddingScore      float64 `json:"embedding_score"` // 0-1
	KeywordsScore       float64 `json:"keywords_score"`  // 0-100
	WorkExperienceScore float64 `json:"work_experience_score"`
	ProjectsScore       float64 `json:"projects_score"`
	EducationScore      float64 `json:"education_score"`
	SkillsScore         float64 `json:"skills_score"`
	LanguagesScore      float64 `json:"languages_score"`
	FinalScore          float64 `json:"final_score"` // 仅由聚合器写入
	MaxScore            float64 `json:"max_score"`
}

// Applicant 通过相似度筛选的候选人，生命周期仅限一次评估请求
type Applicant struct {
	CV             CV             `json:"cv"`
	Source         string         `json:"source"`
	Scores         ApplicantScore `json:"scores"`
	AIEvaluation   string         `json:"ai_evaluation"`
	FullText       string         `json:"-"`
	NormalizedText string         `json:"-"`
}

// NewApplicant 以CV和原始文本创建候选人
func NewApplicant(cv CV, source, fullText string, embeddingScore float64) *Applicant {
	cv.Normalize()
	return &Applicant{
		CV:             cv,
		Source:         source,
		FullText:       fullText,
		NormalizedText: strings.ToLower(fullText),
		Scores:         ApplicantScore{EmbeddingScore: embeddingScore},
	}
}

// ApplicantEvaluation 某一类别下单个候选人的评分和评语
type ApplicantEvaluation struct {
	Score     float64 `json:"score"`
	Narrative string  `json:"narrative"`
}

package processor

import (
	"fmt"
	"sort"
	"strings"

	"ats-evaluator/internal/types"

	"github.com/rs/zerolog"
)

// 最终得分中三部分的权重
const (
	embeddingWeight = 0.4
	keywordWeight   = 0.2
	categoryWeight  = 0.4
)

// FinalScore 按固定类别顺序计算最终得分
func FinalScore(embeddingScore, keywordsScore float64, scores [5]float64) float64 {
	var weighted float64
	for i, c := range categories {
		weighted += scores[i] * c.Weight
	}
	return embeddingScore*100*embeddingWeight +
		keywordsScore*keywordWeight +
		weighted/MaxCategoryScore()*100*categoryWeight
}

// Aggregate 把各类别的评估结果写入候选人并计算最终得分。
// evaluations 的键依次为类别名和 NormalizeName 之后的候选人姓名。
func Aggregate(applicant *types.Applicant, evaluations map[string]map[string]types.ApplicantEvaluation) error {
	key := NormalizeName(applicant.CV.Name)

	var scores [5]float64
	narratives := make([]string, 0, len(categories))
	for i, c := range categories {
		byName := evaluations[c.Name]
		eval, ok := byName[key]
		if !ok {
			return &NameMismatchError{Name: key, Known: sortedKeys(byName)}
		}
		scores[i] = eval.Score
		*c.Score(&applicant.Scores) = eval.Score
		narratives = append(narratives, fmt.Sprintf("%s:\n%s", c.Header, eval.Narrative))
	}

	applicant.Scores.MaxScore = MaxCategoryScore()
	applicant.Scores.FinalScore = FinalScore(applicant.Scores.EmbeddingScore, applicant.Scores.KeywordsScore, scores)
	applicant.AIEvaluation = strings.Join(narratives, "\n\n")
	return nil
}

// RankApplicants 按最终得分降序排列，得分相同保持原顺序
func RankApplicants(applicants []*types.Applicant) {
	sort.SliceStable(applicants, func(i, j int) bool {
		return applicants[i].Scores.FinalScore > applicants[j].Scores.FinalScore
	})
}

func logApplicantScores(l *zerolog.Logger, a *types.Applicant) {
	s := a.Scores
	l.Info().
		Str("source", a.Source).
		Float64("embedding", s.EmbeddingScore).
		Float64("keywords", s.KeywordsScore).
		Float64("work_experience", s.WorkExperienceScore).
		Float64("projects", s.ProjectsScore).
		Float64("education", s.EducationScore).
		Float64("skills", s.SkillsScore).
		Float64("languages", s.LanguagesScore).
		Float64("final", s.FinalScore).
		Msgf("Applicant %s: final %.2f", a.Source, s.FinalScore)
}

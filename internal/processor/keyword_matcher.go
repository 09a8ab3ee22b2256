package processor

import (
	"regexp"
	"strings"

	"ats-evaluator/internal/types"
)

// KeywordMatcher 按整词匹配计算关键词得分
type KeywordMatcher struct {
	core      []*regexp.Regexp
	preferred []*regexp.Regexp
	nice      []*regexp.Regexp
}

// NewKeywordMatcher 每个关键词只编译一次，供所有候选人复用
func NewKeywordMatcher(groups types.KeywordGroups) *KeywordMatcher {
	return &KeywordMatcher{
		core:      compileKeywords(groups.CoreRequirements),
		preferred: compileKeywords(groups.PreferredQualifications),
		nice:      compileKeywords(groups.NiceToHave),
	}
}

func compileKeywords(keywords []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		out = append(out, keywordPattern(kw))
	}
	return out
}

// keywordPattern 两侧必须是文本边界或非字母数字字符，对 "C++"、".NET" 同样有效
func keywordPattern(keyword string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(^|[^\p{L}\p{N}_])` + regexp.QuoteMeta(keyword) + `($|[^\p{L}\p{N}_])`)
}

// Score 返回 [0,100]，三组都为空时返回0
func (m *KeywordMatcher) Score(text string) float64 {
	maxScore := len(m.core)*types.CoreRequirementWeight +
		len(m.preferred)*types.PreferredQualificationWeight +
		len(m.nice)*types.NiceToHaveWeight
	if maxScore == 0 {
		return 0
	}

	score := countMatches(m.core, text)*types.CoreRequirementWeight +
		countMatches(m.preferred, text)*types.PreferredQualificationWeight +
		countMatches(m.nice, text)*types.NiceToHaveWeight

	return float64(score) / float64(maxScore) * 100
}

func countMatches(patterns []*regexp.Regexp, text string) int {
	n := 0
	for _, re := range patterns {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}

// KeywordScore 便捷函数，编译并计算一次
func KeywordScore(groups types.KeywordGroups, text string) float64 {
	return NewKeywordMatcher(groups).Score(text)
}

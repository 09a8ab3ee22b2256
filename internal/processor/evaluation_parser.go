package processor

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"ats-evaluator/internal/types"
	"ats-evaluator/pkg/utils"
)

// SectionSeparator 批量评估响应中各段之间的分隔符
const SectionSeparator = "><"

var nameReplacer = strings.NewReplacer(" ", "", "*", "", ":", "")

// NormalizeName 去除首尾空白、转小写并删除空格、星号和冒号，作为叙述和评分之间的连接键
func NormalizeName(s string) string {
	return nameReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))
}

// ParseCandidatesEvaluation 解析 '><' 分隔的批量评估响应。
// 最后一段是评分，其余每段是一位候选人的叙述，首行为候选人姓名。
func ParseCandidatesEvaluation(raw string, expected int) (map[string]types.ApplicantEvaluation, error) {
	result := make(map[string]types.ApplicantEvaluation, max(expected, 0))
	if expected <= 0 {
		return result, nil
	}

	blocks := splitBlocks(raw)
	if len(blocks) < 2 {
		return nil, fmt.Errorf("%w: expected at least 2 sections, got %d", ErrMalformedEvaluation, len(blocks))
	}

	narratives := make(map[string]string, len(blocks)-1)
	for _, block := range blocks[:len(blocks)-1] {
		firstLine, _, _ := strings.Cut(block, "\n")
		key := NormalizeName(firstLine)
		if key == "" {
			continue
		}
		if _, exists := narratives[key]; !exists {
			narratives[key] = block
		}
	}

	ratings := ratingLines(blocks[len(blocks)-1], expected)
	for _, line := range ratings {
		idx := strings.LastIndex(line, "-")
		if idx < 0 {
			continue
		}
		rating, err := strconv.ParseFloat(strings.Trim(line[idx+1:], "* \t"), 64)
		if err != nil {
			continue
		}
		name := strings.TrimSpace(line[:idx])
		key := NormalizeName(name)
		if key == "" {
			continue
		}
		if _, dup := result[key]; dup {
			return nil, fmt.Errorf("%w: duplicate rating for %q", ErrMalformedEvaluation, name)
		}

		narrative, ok := narratives[key]
		if !ok {
			return nil, &NameMismatchError{Name: key, Known: sortedKeys(narratives)}
		}
		result[key] = types.ApplicantEvaluation{Score: rating, Narrative: narrative}
	}

	if len(result) < expected {
		return nil, fmt.Errorf("%w: got %d of %d", ErrIncompleteRatings, len(result), expected)
	}
	return result, nil
}

func splitBlocks(raw string) []string {
	parts := strings.Split(raw, SectionSeparator)
	blocks := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			blocks = append(blocks, p)
		}
	}
	return blocks
}

// ratingLines 返回评分段最后 n 行非空内容
func ratingLines(block string, n int) []string {
	var lines []string
	for _, l := range strings.Split(block, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

type structuredEvaluation struct {
	Name      string  `json:"name"`
	Score     float64 `json:"score"`
	Narrative string  `json:"narrative"`
}

// ParseStructuredEvaluation 解析 [{"name","score","narrative"}] 形式的响应
func ParseStructuredEvaluation(raw string, expected int) (map[string]types.ApplicantEvaluation, error) {
	result := make(map[string]types.ApplicantEvaluation, max(expected, 0))
	if expected <= 0 {
		return result, nil
	}

	payload := utils.ExtractJSON(raw)
	if payload == "" || payload[0] != '[' {
		return nil, fmt.Errorf("%w: no JSON array found", ErrMalformedEvaluation)
	}
	var items []structuredEvaluation
	if err := json.Unmarshal([]byte(utils.SanitizeJSON(payload)), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvaluation, err)
	}

	for _, item := range items {
		key := NormalizeName(item.Name)
		if key == "" {
			return nil, fmt.Errorf("%w: evaluation without candidate name", ErrMalformedEvaluation)
		}
		if _, dup := result[key]; dup {
			return nil, fmt.Errorf("%w: duplicate evaluation for %q", ErrMalformedEvaluation, item.Name)
		}
		result[key] = types.ApplicantEvaluation{Score: item.Score, Narrative: strings.TrimSpace(item.Narrative)}
	}

	if len(result) < expected {
		return nil, fmt.Errorf("%w: got %d of %d", ErrIncompleteRatings, len(result), expected)
	}
	return result, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package tracing

import (
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
)

// 评估流程的 span 属性键
const (
	AttrRunID      = attribute.Key("ats.run_id")
	AttrDocument   = attribute.Key("ats.document")
	AttrDocuments  = attribute.Key("ats.documents")
	AttrApplicants = attribute.Key("ats.applicants")
	AttrCategory   = attribute.Key("ats.category")
	AttrCandidate  = attribute.Key("ats.candidate")
	AttrSimilarity = attribute.Key("ats.similarity")
)

// DefaultMaxLength span 属性值长度上限
const DefaultMaxLength = 200

const maxKeyLength = 100

// Candidate 候选人姓名只以掩码形式写入 span
func Candidate(name string) attribute.KeyValue {
	return AttrCandidate.String(MaskPII(name))
}

// MaskPII 每个词只保留首字符: "Jane Doe" -> "J*** D**"
func MaskPII(value string) string {
	words := strings.Fields(value)
	for i, w := range words {
		first, size := utf8.DecodeRuneInString(w)
		words[i] = string(first) + strings.Repeat("*", utf8.RuneCountInString(w[size:]))
	}
	return strings.Join(words, " ")
}

// TruncateString 超长时保留首尾，中间以 "..." 连接
func TruncateString(s string, maxLength int) string {
	if utf8.RuneCountInString(s) <= maxLength {
		return s
	}
	r := []rune(s)
	if maxLength <= 3 {
		return string(r[:max(maxLength, 0)])
	}
	keep := max((maxLength-3)/2, 1)
	return string(r[:keep]) + "..." + string(r[len(r)-keep:])
}

// SafeRedisKey 缓存键含 SHA-256，截断后仍可区分
func SafeRedisKey(key string) string {
	return TruncateString(key, maxKeyLength)
}

package utils

import (
	"regexp"
	"strings"
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*([\\[{].*?[\\]}])\\s*```")

// ExtractJSON 从LLM文本中提取第一个完整的JSON对象或数组。
// 优先匹配 ```json 代码块，否则按括号层级匹配，字符串内的括号会被忽略。
func ExtractJSON(text string) string {
	if m := fencedJSON.FindStringSubmatch(text); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}

	start := strings.IndexAny(text, "{[")
	if start == -1 {
		return ""
	}
	open := text[start]
	closing := byte('}')
	if open == '[' {
		closing = ']'
	}

	level := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			level++
		case closing:
			level--
			if level == 0 {
				return strings.TrimSpace(text[start : i+1])
			}
		}
	}
	return ""
}

var trailingComma = regexp.MustCompile(`,(\s*[}\]])`)

// SanitizeJSON 去除BOM和尾随逗号
func SanitizeJSON(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "\ufeff")
	return trailingComma.ReplaceAllString(s, "$1")
}

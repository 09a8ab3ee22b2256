package llm

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse 接口返回成功但没有可用内容
var ErrEmptyResponse = errors.New("llm: empty response")

// APIError 外部LLM服务返回非2xx状态时的错误，携带状态码和响应体
type APIError struct {
	Op         string // chat 或 embeddings
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm %s API error: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Temporary 对 429 和 5xx 返回 true
func (e *APIError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

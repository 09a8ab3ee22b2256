package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// MockResponse 定义了 MockChatModel 的单次预期响应
type MockResponse struct {
	Content string
	Error   error
}

// MockChatModel 是用于测试的 model.ToolCallingChatModel 实现，按顺序返回预设响应
type MockChatModel struct {
	mu        sync.Mutex
	responses []MockResponse
	index     int
	// Handler 非空时优先使用，按请求内容动态生成响应
	Handler func(messages []*schema.Message) (string, error)

	Calls [][]*schema.Message
}

// NewMockChatModel 创建按顺序返回响应的模拟模型
func NewMockChatModel(responses ...MockResponse) *MockChatModel {
	return &MockChatModel{responses: responses}
}

func (m *MockChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	received := make([]*schema.Message, len(input))
	copy(received, input)
	m.Calls = append(m.Calls, received)

	if m.Handler != nil {
		content, err := m.Handler(input)
		if err != nil {
			return nil, err
		}
		return schema.AssistantMessage(content, nil), nil
	}

	if m.index >= len(m.responses) {
		return nil, errors.New("mock model has run out of responses")
	}
	resp := m.responses[m.index]
	m.index++
	if resp.Error != nil {
		return nil, resp.Error
	}
	return schema.AssistantMessage(resp.Content, nil), nil
}

func (m *MockChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("streaming not implemented in MockChatModel")
}

func (m *MockChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

// CallCount 返回 Generate 被调用的次数
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockEmbedder 按文本返回预设向量，未命中时返回 Default
type MockEmbedder struct {
	mu      sync.Mutex
	Vectors map[string][]float64
	Default []float64
	Err     error
	Calls   int
}

func (m *MockEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([][]float64, 0, len(texts))
	for _, t := range texts {
		if v, ok := m.Vectors[t]; ok {
			out = append(out, v)
			continue
		}
		if m.Default == nil {
			return nil, fmt.Errorf("mock embedder: no vector for %q", t)
		}
		out = append(out, m.Default)
	}
	return out, nil
}

func (m *MockEmbedder) ModelName() string {
	return "mock-embedding"
}

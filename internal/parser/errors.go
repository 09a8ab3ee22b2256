package parser

import "errors"

var (
	// ErrUnsupportedDocument 文档扩展名不在支持列表中
	ErrUnsupportedDocument = errors.New("unsupported document type")
	// ErrEmptyDocument 文档中没有可提取的文本
	ErrEmptyDocument = errors.New("document contains no extractable text")
	// ErrNoJSON LLM 响应中找不到 JSON
	ErrNoJSON = errors.New("no JSON found in LLM response")
)

package extract

import (
	"context"
	"fmt"

	"doc-chat-backend/model"
)

// Extractor 文本提取器，按文件类型分发
type Extractor interface {
	// 判断是否支持传入的文件类型
	CanExtract(fileType model.FileType) bool

	// 从文档字节中提取纯文本
	Extract(ctx context.Context, data []byte) (string, error)
}

// ExtractionError 文本提取失败，包装原始错误
type ExtractionError struct {
	FileType model.FileType
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract text from %s document: %v", e.FileType, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Registry 提取器注册表
type Registry struct {
	extractors []Extractor
}

func NewRegistry() *Registry {
	return &Registry{
		extractors: []Extractor{
			NewPDFExtractor(),
			NewWordExtractor(),
		},
	}
}

// Extract 分发到匹配文件类型的提取器
// 未注册的文件类型返回空文本而非错误，后续流程按零chunk正常完成
func (r *Registry) Extract(ctx context.Context, data []byte, fileType model.FileType) (string, error) {
	for _, extractor := range r.extractors {
		if !extractor.CanExtract(fileType) {
			continue
		}

		text, err := extractor.Extract(ctx, data)
		if err != nil {
			return "", &ExtractionError{FileType: fileType, Err: err}
		}
		return text, nil
	}

	return "", nil
}

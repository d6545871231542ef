package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"

	"doc-chat-backend/model"
)

// PDFExtractor 基于langchaingo的PDF加载器，按页解析后拼接为整段文本
type PDFExtractor struct{}

var _ Extractor = &PDFExtractor{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

func (e *PDFExtractor) CanExtract(fileType model.FileType) bool {
	return fileType == model.FileTypePDF
}

func (e *PDFExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty object data")
	}

	reader := bytes.NewReader(data)
	loader := documentloaders.NewPDF(reader, int64(len(data)))

	docs, err := loader.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("error loading pdf: %v", err)
	}

	var sb strings.Builder
	for i, doc := range docs {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(doc.PageContent)
	}

	return sb.String(), nil
}

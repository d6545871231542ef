package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"doc-chat-backend/model"
)

// WordExtractor 解析Word文档（OOXML），读取word/document.xml中的
// 段落文本并去除全部标记
type WordExtractor struct{}

var _ Extractor = &WordExtractor{}

func NewWordExtractor() *WordExtractor {
	return &WordExtractor{}
}

func (e *WordExtractor) CanExtract(fileType model.FileType) bool {
	return fileType == model.FileTypeDOC || fileType == model.FileTypeDOCX
}

func (e *WordExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty object data")
	}

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("error opening word document: %v", err)
	}

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("error opening document.xml: %v", err)
		}

		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("error reading document.xml: %v", err)
		}

		return parseDocumentXML(content)
	}

	return "", errors.New("word/document.xml not found in archive")
}

// documentXML word/document.xml的段落结构
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("error parsing document.xml: %v", err)
	}

	var sb strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			sb.WriteString("\n")
		}
		for _, r := range para.Runs {
			for _, t := range r.Text {
				sb.WriteString(t.Content)
			}
		}
	}

	return strings.TrimSpace(sb.String()), nil
}

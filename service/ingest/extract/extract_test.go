package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doc-chat-backend/model"
)

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)

	f, err := writer.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(documentXML))
	require.NoError(t, err)

	require.NoError(t, writer.Close())
	return buf.Bytes()
}

const sampleDocumentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>The project deadline is March 5th.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestWordExtractor(t *testing.T) {
	extractor := NewWordExtractor()
	ctx := context.Background()

	t.Run("extracts paragraph text", func(t *testing.T) {
		data := buildDocx(t, sampleDocumentXML)

		text, err := extractor.Extract(ctx, data)
		require.NoError(t, err)
		assert.Equal(t, "The project deadline is March 5th.\nSecond paragraph.", text)
	})

	t.Run("empty data", func(t *testing.T) {
		_, err := extractor.Extract(ctx, nil)
		assert.Error(t, err)
	})

	t.Run("corrupt archive", func(t *testing.T) {
		_, err := extractor.Extract(ctx, []byte("not a zip archive"))
		assert.Error(t, err)
	})

	t.Run("missing document.xml", func(t *testing.T) {
		var buf bytes.Buffer
		writer := zip.NewWriter(&buf)
		f, err := writer.Create("other.xml")
		require.NoError(t, err)
		_, err = f.Write([]byte("<a/>"))
		require.NoError(t, err)
		require.NoError(t, writer.Close())

		_, err = extractor.Extract(ctx, buf.Bytes())
		assert.Error(t, err)
	})

	t.Run("supported file types", func(t *testing.T) {
		assert.True(t, extractor.CanExtract(model.FileTypeDOCX))
		assert.True(t, extractor.CanExtract(model.FileTypeDOC))
		assert.False(t, extractor.CanExtract(model.FileTypePDF))
	})
}

func TestPDFExtractor(t *testing.T) {
	extractor := NewPDFExtractor()
	ctx := context.Background()

	t.Run("empty data", func(t *testing.T) {
		_, err := extractor.Extract(ctx, nil)
		assert.Error(t, err)
	})

	t.Run("corrupt data", func(t *testing.T) {
		_, err := extractor.Extract(ctx, []byte("not a pdf"))
		assert.Error(t, err)
	})

	t.Run("supported file types", func(t *testing.T) {
		assert.True(t, extractor.CanExtract(model.FileTypePDF))
		assert.False(t, extractor.CanExtract(model.FileTypeDOCX))
	})
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	ctx := context.Background()

	t.Run("unsupported type returns empty text without error", func(t *testing.T) {
		text, err := registry.Extract(ctx, []byte("some bytes"), "image/png")
		require.NoError(t, err)
		assert.Empty(t, text)
	})

	t.Run("docx dispatch", func(t *testing.T) {
		data := buildDocx(t, sampleDocumentXML)

		text, err := registry.Extract(ctx, data, model.FileTypeDOCX)
		require.NoError(t, err)
		assert.Contains(t, text, "The project deadline is March 5th.")
	})

	t.Run("failure wrapped as extraction error", func(t *testing.T) {
		_, err := registry.Extract(ctx, []byte("garbage"), model.FileTypePDF)
		require.Error(t, err)

		var extractionErr *ExtractionError
		require.ErrorAs(t, err, &extractionErr)
		assert.Equal(t, model.FileTypePDF, extractionErr.FileType)
		assert.Error(t, extractionErr.Unwrap())
	})
}

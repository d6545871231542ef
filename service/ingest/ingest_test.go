package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doc-chat-backend/model"
	"doc-chat-backend/service/ingest/chunkembed"
	"doc-chat-backend/service/vectorstore"
)

type fakeObjectStore struct {
	data map[string][]byte
	err  error
	gets int
}

func (f *fakeObjectStore) Get(ctx context.Context, objectName string) ([]byte, error) {
	f.gets++
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.data[objectName]
	if !ok {
		return nil, fmt.Errorf("object %s not found", objectName)
	}
	return data, nil
}

type fakeVectorStore struct {
	upserts [][]vectorstore.Chunk
	err     error
}

func (f *fakeVectorStore) UpsertChunks(ctx context.Context, chunks []vectorstore.Chunk) error {
	if f.err != nil {
		return f.err
	}
	f.upserts = append(f.upserts, chunks)
	return nil
}

type fakeChunkEmbedder struct {
	chunks []chunkembed.Chunk
	err    error
}

func (f *fakeChunkEmbedder) ChunkAndEmbed(ctx context.Context, text string) ([]chunkembed.Chunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	if text == "" {
		return nil, nil
	}
	return f.chunks, nil
}

type fakeDocumentStore struct {
	docs map[string]*model.Document

	// 每次状态写入的观测序列，用于校验状态只会单向前进
	statusLog []model.Status

	releaseErr error
}

func (f *fakeDocumentStore) GetByDocumentID(documentID string) (*model.Document, error) {
	doc, ok := f.docs[documentID]
	if !ok {
		return nil, nil
	}
	copied := *doc
	return &copied, nil
}

func (f *fakeDocumentStore) Claim(documentID string) (bool, error) {
	doc, ok := f.docs[documentID]
	if !ok {
		return false, nil
	}
	if doc.Claimed || (doc.Status != model.StatusQueued && doc.Status != model.StatusProcessing) {
		return false, nil
	}
	doc.Status = model.StatusProcessing
	doc.Claimed = true
	f.statusLog = append(f.statusLog, doc.Status)
	return true, nil
}

func (f *fakeDocumentStore) Release(documentID string) error {
	if f.releaseErr != nil {
		return f.releaseErr
	}
	doc, ok := f.docs[documentID]
	if !ok {
		return fmt.Errorf("document %s not found", documentID)
	}
	if doc.Status == model.StatusProcessing {
		doc.Claimed = false
	}
	return nil
}

func (f *fakeDocumentStore) Transition(documentID string, from, to model.Status) (bool, error) {
	doc, ok := f.docs[documentID]
	if !ok || doc.Status != from {
		return false, nil
	}
	doc.Status = to
	f.statusLog = append(f.statusLog, doc.Status)
	return true, nil
}

func (f *fakeDocumentStore) MarkFailed(documentID string, processingError string) error {
	doc, ok := f.docs[documentID]
	if !ok {
		return fmt.Errorf("document %s not found", documentID)
	}
	if doc.Status == model.StatusQueued || doc.Status == model.StatusProcessing {
		doc.Status = model.StatusFailed
		doc.ProcessingError = processingError
		f.statusLog = append(f.statusLog, doc.Status)
	}
	return nil
}

func buildDocx(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	f, err := writer.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(`<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body><w:p><w:r><w:t>The project deadline is March 5th.</w:t></w:r></w:p></w:body>
</w:document>`))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return buf.Bytes()
}

func queuedDocument(fileType model.FileType) *model.Document {
	return &model.Document{
		DocumentID:     "doc-1",
		ConversationID: "conv-1",
		FileName:       "report.docx",
		FileType:       fileType,
		ObjectName:     "uploads/conv-1/report.docx",
		Status:         model.StatusQueued,
	}
}

func newTestService(objectStore *fakeObjectStore, vectorStore *fakeVectorStore, embedder *fakeChunkEmbedder, documents *fakeDocumentStore) *Service {
	return NewService(objectStore, vectorStore, embedder, documents)
}

func TestProcess(t *testing.T) {
	ctx := context.Background()

	sampleChunks := []chunkembed.Chunk{
		{Text: "The project deadline is March 5th.", Vector: []float32{0.1, 0.2}},
		{Text: "Second chunk.", Vector: []float32{0.3, 0.4}},
	}

	t.Run("full pipeline marks document processed", func(t *testing.T) {
		doc := queuedDocument(model.FileTypeDOCX)
		documents := &fakeDocumentStore{docs: map[string]*model.Document{doc.DocumentID: doc}}
		objectStore := &fakeObjectStore{data: map[string][]byte{doc.ObjectName: buildDocx(t)}}
		vectorStore := &fakeVectorStore{}

		svc := newTestService(objectStore, vectorStore, &fakeChunkEmbedder{chunks: sampleChunks}, documents)
		require.NoError(t, svc.Process(ctx, doc.DocumentID))

		assert.Equal(t, model.StatusProcessed, documents.docs[doc.DocumentID].Status)
		require.Len(t, vectorStore.upserts, 1)
		require.Len(t, vectorStore.upserts[0], len(sampleChunks))
		for _, record := range vectorStore.upserts[0] {
			assert.Equal(t, doc.DocumentID, record.DocumentID)
			assert.Equal(t, doc.ConversationID, record.ConversationID)
			assert.Equal(t, doc.FileName, record.FileName)
			assert.NotEmpty(t, record.Text)
			assert.NotEmpty(t, record.Vector)
		}
	})

	t.Run("already processed document short-circuits", func(t *testing.T) {
		doc := queuedDocument(model.FileTypeDOCX)
		doc.Status = model.StatusProcessed
		documents := &fakeDocumentStore{docs: map[string]*model.Document{doc.DocumentID: doc}}
		objectStore := &fakeObjectStore{}
		vectorStore := &fakeVectorStore{}

		svc := newTestService(objectStore, vectorStore, &fakeChunkEmbedder{chunks: sampleChunks}, documents)
		require.NoError(t, svc.Process(ctx, doc.DocumentID))

		assert.Equal(t, model.StatusProcessed, documents.docs[doc.DocumentID].Status)
		assert.Zero(t, objectStore.gets)
		assert.Empty(t, vectorStore.upserts)
	})

	t.Run("unknown document is a no-op", func(t *testing.T) {
		documents := &fakeDocumentStore{docs: map[string]*model.Document{}}
		svc := newTestService(&fakeObjectStore{}, &fakeVectorStore{}, &fakeChunkEmbedder{}, documents)

		require.NoError(t, svc.Process(ctx, "missing"))
	})

	t.Run("unsupported file type completes with zero chunks", func(t *testing.T) {
		doc := queuedDocument("image/png")
		documents := &fakeDocumentStore{docs: map[string]*model.Document{doc.DocumentID: doc}}
		objectStore := &fakeObjectStore{data: map[string][]byte{doc.ObjectName: []byte("binary image data")}}
		vectorStore := &fakeVectorStore{}

		svc := newTestService(objectStore, vectorStore, &fakeChunkEmbedder{chunks: sampleChunks}, documents)
		require.NoError(t, svc.Process(ctx, doc.DocumentID))

		assert.Equal(t, model.StatusProcessed, documents.docs[doc.DocumentID].Status)
		assert.Empty(t, vectorStore.upserts)
	})

	t.Run("extraction failure marks document failed", func(t *testing.T) {
		doc := queuedDocument(model.FileTypePDF)
		documents := &fakeDocumentStore{docs: map[string]*model.Document{doc.DocumentID: doc}}
		objectStore := &fakeObjectStore{data: map[string][]byte{doc.ObjectName: []byte("not a pdf")}}
		vectorStore := &fakeVectorStore{}

		svc := newTestService(objectStore, vectorStore, &fakeChunkEmbedder{chunks: sampleChunks}, documents)
		require.NoError(t, svc.Process(ctx, doc.DocumentID))

		assert.Equal(t, model.StatusFailed, documents.docs[doc.DocumentID].Status)
		assert.NotEmpty(t, documents.docs[doc.DocumentID].ProcessingError)
		assert.Empty(t, vectorStore.upserts)
	})

	t.Run("quota exhaustion releases the claim for redelivery", func(t *testing.T) {
		doc := queuedDocument(model.FileTypeDOCX)
		documents := &fakeDocumentStore{docs: map[string]*model.Document{doc.DocumentID: doc}}
		objectStore := &fakeObjectStore{data: map[string][]byte{doc.ObjectName: buildDocx(t)}}

		embedder := &fakeChunkEmbedder{err: fmt.Errorf("%w: 429", chunkembed.ErrEmbeddingQuota)}
		svc := newTestService(objectStore, &fakeVectorStore{}, embedder, documents)

		err := svc.Process(ctx, doc.DocumentID)
		require.Error(t, err)
		assert.ErrorIs(t, err, chunkembed.ErrEmbeddingQuota)

		// 状态保持PROCESSING且不回退，仅释放领取标记
		assert.Equal(t, model.StatusProcessing, documents.docs[doc.DocumentID].Status)
		assert.False(t, documents.docs[doc.DocumentID].Claimed)
		assert.NotContains(t, documents.statusLog, model.StatusQueued)

		// 配额恢复后重投消息重新领取并处理完成
		embedder.err = nil
		embedder.chunks = sampleChunks
		require.NoError(t, svc.Process(ctx, doc.DocumentID))
		assert.Equal(t, model.StatusProcessed, documents.docs[doc.DocumentID].Status)
	})

	t.Run("release failure falls back to terminal failed", func(t *testing.T) {
		doc := queuedDocument(model.FileTypeDOCX)
		documents := &fakeDocumentStore{
			docs:       map[string]*model.Document{doc.DocumentID: doc},
			releaseErr: errors.New("mysql timeout"),
		}
		objectStore := &fakeObjectStore{data: map[string][]byte{doc.ObjectName: buildDocx(t)}}

		embedder := &fakeChunkEmbedder{err: fmt.Errorf("%w: 429", chunkembed.ErrEmbeddingQuota)}
		svc := newTestService(objectStore, &fakeVectorStore{}, embedder, documents)

		require.NoError(t, svc.Process(ctx, doc.DocumentID))
		assert.Equal(t, model.StatusFailed, documents.docs[doc.DocumentID].Status)
		assert.NotEmpty(t, documents.docs[doc.DocumentID].ProcessingError)
	})

	t.Run("auth failure is terminal", func(t *testing.T) {
		doc := queuedDocument(model.FileTypeDOCX)
		documents := &fakeDocumentStore{docs: map[string]*model.Document{doc.DocumentID: doc}}
		objectStore := &fakeObjectStore{data: map[string][]byte{doc.ObjectName: buildDocx(t)}}

		authErr := fmt.Errorf("%w: 401", chunkembed.ErrEmbeddingAuth)
		svc := newTestService(objectStore, &fakeVectorStore{}, &fakeChunkEmbedder{err: authErr}, documents)

		require.NoError(t, svc.Process(ctx, doc.DocumentID))
		assert.Equal(t, model.StatusFailed, documents.docs[doc.DocumentID].Status)
		assert.Contains(t, documents.docs[doc.DocumentID].ProcessingError, "auth")
	})

	t.Run("index upsert failure marks document failed", func(t *testing.T) {
		doc := queuedDocument(model.FileTypeDOCX)
		documents := &fakeDocumentStore{docs: map[string]*model.Document{doc.DocumentID: doc}}
		objectStore := &fakeObjectStore{data: map[string][]byte{doc.ObjectName: buildDocx(t)}}
		vectorStore := &fakeVectorStore{err: errors.New("milvus unavailable")}

		svc := newTestService(objectStore, vectorStore, &fakeChunkEmbedder{chunks: sampleChunks}, documents)
		require.NoError(t, svc.Process(ctx, doc.DocumentID))

		assert.Equal(t, model.StatusFailed, documents.docs[doc.DocumentID].Status)
	})

	t.Run("object fetch failure releases the claim for redelivery", func(t *testing.T) {
		doc := queuedDocument(model.FileTypeDOCX)
		documents := &fakeDocumentStore{docs: map[string]*model.Document{doc.DocumentID: doc}}
		objectStore := &fakeObjectStore{err: errors.New("oss timeout")}

		svc := newTestService(objectStore, &fakeVectorStore{}, &fakeChunkEmbedder{}, documents)

		err := svc.Process(ctx, doc.DocumentID)
		require.Error(t, err)
		assert.Equal(t, model.StatusProcessing, documents.docs[doc.DocumentID].Status)
		assert.False(t, documents.docs[doc.DocumentID].Claimed)
		assert.NotContains(t, documents.statusLog, model.StatusQueued)
	})

	t.Run("claimed in-flight document is not reprocessed", func(t *testing.T) {
		doc := queuedDocument(model.FileTypeDOCX)
		doc.Status = model.StatusProcessing
		doc.Claimed = true
		documents := &fakeDocumentStore{docs: map[string]*model.Document{doc.DocumentID: doc}}
		objectStore := &fakeObjectStore{}
		vectorStore := &fakeVectorStore{}

		svc := newTestService(objectStore, vectorStore, &fakeChunkEmbedder{chunks: sampleChunks}, documents)
		require.NoError(t, svc.Process(ctx, doc.DocumentID))

		assert.Zero(t, objectStore.gets)
		assert.Empty(t, vectorStore.upserts)
	})
}

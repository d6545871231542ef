package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/apache/rocketmq-client-go/v2/primitive"

	"doc-chat-backend/model"
	"doc-chat-backend/service/ingest/chunkembed"
	"doc-chat-backend/service/ingest/extract"
	"doc-chat-backend/service/vectorstore"
)

// ProcessMessage 文档处理任务的消息体
type ProcessMessage struct {
	DocumentID string `json:"document_id"`
}

// ObjectStore 处理流程需要的对象存储能力
type ObjectStore interface {
	Get(ctx context.Context, objectName string) ([]byte, error)
}

// VectorStore 处理流程需要的向量索引能力
type VectorStore interface {
	UpsertChunks(ctx context.Context, chunks []vectorstore.Chunk) error
}

// ChunkEmbedder 切分向量化能力
type ChunkEmbedder interface {
	ChunkAndEmbed(ctx context.Context, text string) ([]chunkembed.Chunk, error)
}

// DocumentStore 文档状态记录的读取和状态转移
type DocumentStore interface {
	GetByDocumentID(documentID string) (*model.Document, error)

	// 原子领取任务，不可领取返回false
	Claim(documentID string) (bool, error)

	// 可恢复失败后释放领取标记，状态保持PROCESSING等待重投
	Release(documentID string) error

	// 条件状态转移，from不匹配返回false
	Transition(documentID string, from, to model.Status) (bool, error)

	// 记录错误信息并转移到FAILED
	MarkFailed(documentID string, processingError string) error
}

// Service 文档处理流水线：对象存储取回、文本提取、切分向量化、
// 索引写入、状态转移，由MQ消费者驱动
type Service struct {
	objectStore ObjectStore
	vectorStore VectorStore
	embedder    ChunkEmbedder
	documents   DocumentStore
	extractors  *extract.Registry
}

func NewService(objectStore ObjectStore, vectorStore VectorStore, embedder ChunkEmbedder, documents DocumentStore) *Service {
	return &Service{
		objectStore: objectStore,
		vectorStore: vectorStore,
		embedder:    embedder,
		documents:   documents,
		extractors:  extract.NewRegistry(),
	}
}

// HandleProcessMessage MQ消费入口
// 返回非nil错误时消息重投，其余失败记入文档状态后消费成功
func (s *Service) HandleProcessMessage(ctx context.Context, msg *primitive.MessageExt) error {
	var processMessage ProcessMessage
	if err := json.Unmarshal(msg.Body, &processMessage); err != nil {
		// 消息体损坏，重投也无法恢复
		slog.Error("Failed to unmarshal process message", "msg_id", msg.MsgId, "err", err)
		return nil
	}

	return s.Process(ctx, processMessage.DocumentID)
}

// Process 执行单个文档的完整处理流程
func (s *Service) Process(ctx context.Context, documentID string) error {
	doc, err := s.documents.GetByDocumentID(documentID)
	if err != nil {
		return fmt.Errorf("failed to load document %s: %v", documentID, err)
	}
	if doc == nil {
		slog.Warn("Document not found, skipping", "document_id", documentID)
		return nil
	}

	// 原子领取任务，at-least-once投递下重复消息在此短路
	claimed, err := s.documents.Claim(documentID)
	if err != nil {
		return fmt.Errorf("failed to claim document %s: %v", documentID, err)
	}
	if !claimed {
		slog.Info("Document already claimed or finished, skipping",
			"document_id", documentID,
			"status", doc.Status)
		return nil
	}

	data, err := s.objectStore.Get(ctx, doc.ObjectName)
	if err != nil {
		return s.retryLater(documentID, fmt.Errorf("failed to get object %s: %v", doc.ObjectName, err))
	}

	text, err := s.extractors.Extract(ctx, data, doc.FileType)
	if err != nil {
		return s.fail(documentID, err)
	}

	chunks, err := s.embedder.ChunkAndEmbed(ctx, text)
	if err != nil {
		if errors.Is(err, chunkembed.ErrEmbeddingQuota) {
			// 配额耗尽可恢复，释放领取交给队列退避重投
			return s.retryLater(documentID, err)
		}
		return s.fail(documentID, err)
	}

	if len(chunks) > 0 {
		records := make([]vectorstore.Chunk, 0, len(chunks))
		for _, chunk := range chunks {
			records = append(records, vectorstore.Chunk{
				DocumentID:     doc.DocumentID,
				ConversationID: doc.ConversationID,
				FileName:       doc.FileName,
				Text:           chunk.Text,
				Vector:         chunk.Vector,
			})
		}

		if err := s.vectorStore.UpsertChunks(ctx, records); err != nil {
			return s.fail(documentID, err)
		}
	}

	done, err := s.documents.Transition(documentID, model.StatusProcessing, model.StatusProcessed)
	if err != nil {
		return fmt.Errorf("failed to mark document %s processed: %v", documentID, err)
	}
	if !done {
		slog.Warn("Document status changed during processing", "document_id", documentID)
		return nil
	}

	slog.Info("Document processed",
		"document_id", documentID,
		"chunks", len(chunks))
	return nil
}

// fail 终态失败：记录错误信息，消费成功不再重投
func (s *Service) fail(documentID string, cause error) error {
	slog.Error("Document processing failed",
		"document_id", documentID,
		"err", cause)

	if err := s.documents.MarkFailed(documentID, cause.Error()); err != nil {
		// 状态写入失败时返回错误重投，避免文档卡在PROCESSING
		return fmt.Errorf("failed to mark document %s failed: %v", documentID, err)
	}
	return nil
}

// retryLater 可恢复失败：释放领取标记后返回错误触发队列重投
// 状态保持PROCESSING，轮询接口观察不到回退；释放写入失败时标记FAILED兜底，
// 避免文档以已领取状态永久卡在PROCESSING
func (s *Service) retryLater(documentID string, cause error) error {
	if err := s.documents.Release(documentID); err != nil {
		slog.Error("Failed to release document claim", "document_id", documentID, "err", err)
		return s.fail(documentID, cause)
	}
	return cause
}

package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"doc-chat-backend/config"
)

const (
	// CollectionDocChunk 文档chunk向量集合
	CollectionDocChunk = "doc_chunk"

	// CollectionReferenceQuestion 领域参考问题向量集合
	CollectionReferenceQuestion = "reference_question"

	vectorField = "vector"
)

// Chunk 一段文档文本及其向量，作为一条索引记录写入
type Chunk struct {
	DocumentID     string
	ConversationID string
	FileName       string
	Text           string
	Vector         []float32
}

// ChunkHit 相似度检索命中的chunk
type ChunkHit struct {
	Text     string
	FileName string
	Score    float32
}

// ReferenceHit 参考问题集合的检索命中
type ReferenceHit struct {
	QuestionID string
	Question   string
	Score      float32
}

// Client Milvus客户端包装，进程内只创建一次并注入使用方
type Client struct {
	milvus    *milvusclient.Client
	vectorDim int
}

func NewClient(ctx context.Context, cfg config.MilvusConfig, vectorDim int) (*Client, error) {
	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address: cfg.Endpoint,
		APIKey:  cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %v", err)
	}

	return &Client{
		milvus:    c,
		vectorDim: vectorDim,
	}, nil
}

// UpsertChunks 批量写入chunk向量及元数据列
func (c *Client) UpsertChunks(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, 0, len(chunks))
	vectors := make([][]float32, 0, len(chunks))
	documentIDs := make([]string, 0, len(chunks))
	conversationIDs := make([]string, 0, len(chunks))
	fileNames := make([]string, 0, len(chunks))

	for _, chunk := range chunks {
		if len(chunk.Vector) != c.vectorDim {
			return fmt.Errorf("vector dimension mismatch: got %d, want %d",
				len(chunk.Vector), c.vectorDim)
		}
		texts = append(texts, chunk.Text)
		vectors = append(vectors, chunk.Vector)
		documentIDs = append(documentIDs, chunk.DocumentID)
		conversationIDs = append(conversationIDs, chunk.ConversationID)
		fileNames = append(fileNames, chunk.FileName)
	}

	columns := []column.Column{
		column.NewColumnVarChar("text", texts),
		column.NewColumnFloatVector(vectorField, c.vectorDim, vectors),
		column.NewColumnVarChar("document_id", documentIDs),
		column.NewColumnVarChar("conversation_id", conversationIDs),
		column.NewColumnVarChar("file_name", fileNames),
	}

	insertOption := milvusclient.NewColumnBasedInsertOption(CollectionDocChunk).
		WithColumns(columns...)
	if _, err := c.milvus.Insert(ctx, insertOption); err != nil {
		return fmt.Errorf("failed to insert chunks: %v", err)
	}

	return nil
}

// SearchByDocument 按文档过滤的近邻检索
// 过滤条件同时带上conversation_id，保证检索范围不会越出所属对话
func (c *Client) SearchByDocument(ctx context.Context, vector []float32, documentID, conversationID string, topK int) ([]ChunkHit, error) {
	expr := documentScopeFilter(documentID, conversationID)

	searchOption := milvusclient.NewSearchOption(CollectionDocChunk, topK,
		[]entity.Vector{entity.FloatVector(vector)}).
		WithANNSField(vectorField).
		WithFilter(expr).
		WithOutputFields("text", "file_name")

	resultSets, err := c.milvus.Search(ctx, searchOption)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %v", err)
	}

	var hits []ChunkHit
	for _, rs := range resultSets {
		textColumn := rs.GetColumn("text")
		fileNameColumn := rs.GetColumn("file_name")
		if textColumn == nil {
			continue
		}

		for i := 0; i < textColumn.Len(); i++ {
			text, err := textColumn.GetAsString(i)
			if err != nil {
				return nil, fmt.Errorf("failed to read text field: %v", err)
			}

			var fileName string
			if fileNameColumn != nil {
				fileName, _ = fileNameColumn.GetAsString(i)
			}

			hits = append(hits, ChunkHit{
				Text:     text,
				FileName: fileName,
				Score:    rs.Scores[i],
			})
		}
	}

	return hits, nil
}

// SearchReferenceQuestions 检索相关参考问题，返回question_id供答案表查询
func (c *Client) SearchReferenceQuestions(ctx context.Context, vector []float32, topK int) ([]ReferenceHit, error) {
	searchOption := milvusclient.NewSearchOption(CollectionReferenceQuestion, topK,
		[]entity.Vector{entity.FloatVector(vector)}).
		WithANNSField(vectorField).
		WithOutputFields("question_id", "question")

	resultSets, err := c.milvus.Search(ctx, searchOption)
	if err != nil {
		return nil, fmt.Errorf("failed to search reference questions: %v", err)
	}

	var hits []ReferenceHit
	for _, rs := range resultSets {
		questionIDColumn := rs.GetColumn("question_id")
		questionColumn := rs.GetColumn("question")
		if questionIDColumn == nil {
			continue
		}

		for i := 0; i < questionIDColumn.Len(); i++ {
			questionID, err := questionIDColumn.GetAsString(i)
			if err != nil {
				return nil, fmt.Errorf("failed to read question_id field: %v", err)
			}

			var question string
			if questionColumn != nil {
				question, _ = questionColumn.GetAsString(i)
			}

			hits = append(hits, ReferenceHit{
				QuestionID: questionID,
				Question:   question,
				Score:      rs.Scores[i],
			})
		}
	}

	return hits, nil
}

// DeleteByConversation 删除整个对话下的全部chunk
func (c *Client) DeleteByConversation(ctx context.Context, conversationID string) error {
	expr := conversationScopeFilter(conversationID)
	deleteOption := milvusclient.NewDeleteOption(CollectionDocChunk).
		WithExpr(expr)
	if _, err := c.milvus.Delete(ctx, deleteOption); err != nil {
		return fmt.Errorf("failed to delete chunks (%s): %v", expr, err)
	}
	return nil
}

func documentScopeFilter(documentID, conversationID string) string {
	return fmt.Sprintf(`document_id == "%s" && conversation_id == "%s"`,
		escapeFilterValue(documentID), escapeFilterValue(conversationID))
}

func conversationScopeFilter(conversationID string) string {
	return fmt.Sprintf(`conversation_id == "%s"`, escapeFilterValue(conversationID))
}

// escapeFilterValue 转义字符串值中的引号和反斜杠
// id来自请求参数，原样拼进过滤表达式会让带引号的值改写过滤范围
func escapeFilterValue(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(value, `"`, `\"`)
}

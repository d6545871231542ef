package chunkembed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/textsplitter"

	"doc-chat-backend/config"
	"doc-chat-backend/utils"
)

const (
	defaultChunkSize          = 1000
	defaultChunkOverlap       = 150
	defaultEmbeddingBatchSize = 10

	embeddingTimeout = 60 * time.Second
)

// Chunk 一段文本及其向量
type Chunk struct {
	Text   string
	Vector []float32
}

// Embedder 向量化接口，生产实现为OpenAI兼容端点
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Engine 将提取出的文本切分为chunk并批量向量化
type Engine struct {
	splitter textsplitter.TextSplitter
	embedder Embedder
}

func NewEmbedder(cfg config.ModelConfig) (embeddings.Embedder, error) {
	client, err := openai.New(
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
		openai.WithToken(cfg.APIKey),
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithHTTPClient(utils.NewHTTPClient(
			utils.WithTimeout(embeddingTimeout),
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder client: %v", err)
	}

	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithBatchSize(defaultEmbeddingBatchSize),
		embeddings.WithStripNewLines(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %v", err)
	}

	return embedder, nil
}

func NewEngine(embedder Embedder) *Engine {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithSeparators([]string{"\n\n", "\n", "。", "！", "？", "；", "，", ". ", " ", ""}),
		textsplitter.WithChunkSize(defaultChunkSize),
		textsplitter.WithChunkOverlap(defaultChunkOverlap),
	)

	return &Engine{
		splitter: splitter,
		embedder: embedder,
	}
}

// ChunkAndEmbed 切分文本并逐批向量化
// 空文本返回空结果而非错误，向量保持服务端返回精度不做归一化
func (e *Engine) ChunkAndEmbed(ctx context.Context, text string) ([]Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	parts, err := e.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("error splitting text: %v", err)
	}

	texts := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		texts = append(texts, part)
	}
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, ClassifyEmbeddingError(err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d vectors for %d chunks",
			len(vectors), len(texts))
	}

	chunks := make([]Chunk, 0, len(texts))
	for i := range texts {
		chunks = append(chunks, Chunk{
			Text:   texts[i],
			Vector: vectors[i],
		})
	}

	return chunks, nil
}

package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"doc-chat-backend/config"
	"doc-chat-backend/model"
	"doc-chat-backend/request"
	"doc-chat-backend/service/vectorstore"
	"doc-chat-backend/utils"
)

const (
	// 每轮响应取最近8条消息作为对话历史
	historyWindow = 8

	// 每个文档取top-5相似chunk
	chunkTopK = 5

	// 参考问答取top-3相似问题
	referenceTopK = 3

	// LLM流式输出的超时时间
	generationTimeout = 300 * time.Second
)

// Embedder 查询向量化能力
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Retriever 向量索引检索能力
type Retriever interface {
	SearchByDocument(ctx context.Context, vector []float32, documentID, conversationID string, topK int) ([]vectorstore.ChunkHit, error)
	SearchReferenceQuestions(ctx context.Context, vector []float32, topK int) ([]vectorstore.ReferenceHit, error)
}

// Service 检索增强的响应引擎
// 对话内全部文档逐个检索top-K相关chunk，结合参考问答和近期
// 对话历史组装单次提示词，调用模型生成回复并落库
type Service struct {
	llm       llms.Model
	embedder  Embedder
	retriever Retriever
	store     Store
}

func NewLLM(cfg config.ModelConfig) (llms.Model, error) {
	llm, err := openai.New(
		openai.WithModel(cfg.ChatModel),
		openai.WithToken(cfg.APIKey),
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithHTTPClient(utils.NewHTTPClient(
			utils.WithTimeout(generationTimeout),
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %v", err)
	}
	return llm, nil
}

func NewService(llm llms.Model, embedder Embedder, retriever Retriever, store Store) *Service {
	return &Service{
		llm:       llm,
		embedder:  embedder,
		retriever: retriever,
		store:     store,
	}
}

// Respond 同步生成一条AI回复并持久化
func (s *Service) Respond(ctx context.Context, req request.ChatRequest) (*model.Message, error) {
	prompt, err := s.buildRequestPrompt(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.saveUserMessage(req); err != nil {
		return nil, err
	}

	answer, err := llms.GenerateFromSinglePrompt(ctx, s.llm, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if strings.TrimSpace(answer) == "" {
		return nil, fmt.Errorf("%w: model returned empty output", ErrGeneration)
	}

	aiMessage := &model.Message{
		MessageID:      uuid.New().String(),
		ConversationID: req.ConversationID,
		Role:           model.RoleAI,
		Content:        answer,
	}
	if err := s.store.SaveMessage(aiMessage); err != nil {
		return nil, fmt.Errorf("failed to save ai message: %v", err)
	}

	return aiMessage, nil
}

// RespondStream 流式生成，chunk通过send回调推送
// 生成前先落库loading占位消息，完成后写入完整内容
func (s *Service) RespondStream(ctx context.Context, req request.ChatRequest, send func(chunk string)) (*model.Message, error) {
	prompt, err := s.buildRequestPrompt(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.saveUserMessage(req); err != nil {
		return nil, err
	}

	aiMessage := &model.Message{
		MessageID:      uuid.New().String(),
		ConversationID: req.ConversationID,
		Role:           model.RoleAI,
		Loading:        true,
	}
	if err := s.store.SaveMessage(aiMessage); err != nil {
		return nil, fmt.Errorf("failed to save ai message placeholder: %v", err)
	}

	var sb strings.Builder
	_, err = llms.GenerateFromSinglePrompt(ctx, s.llm, prompt,
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			sb.Write(chunk)
			send(string(chunk))
			return nil
		}),
	)
	if err != nil {
		s.discardPlaceholder(aiMessage.MessageID)
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	answer := sb.String()
	if strings.TrimSpace(answer) == "" {
		s.discardPlaceholder(aiMessage.MessageID)
		return nil, fmt.Errorf("%w: model returned empty output", ErrGeneration)
	}

	if err := s.store.FinalizeMessage(aiMessage.MessageID, answer); err != nil {
		return nil, fmt.Errorf("failed to finalize ai message: %v", err)
	}

	aiMessage.Content = answer
	aiMessage.Loading = false
	return aiMessage, nil
}

// discardPlaceholder 生成失败时移除占位消息，消息列表里不留空的AI回复
func (s *Service) discardPlaceholder(messageID string) {
	if err := s.store.DiscardLoadingMessage(messageID); err != nil {
		slog.Warn("Failed to discard loading placeholder",
			"message_id", messageID,
			"err", err)
	}
}

// buildRequestPrompt 执行检索流程并组装提示词
func (s *Service) buildRequestPrompt(ctx context.Context, req request.ChatRequest) (string, error) {
	docs, err := s.store.DocumentsByConversationID(req.ConversationID)
	if err != nil {
		return "", fmt.Errorf("failed to load conversation documents: %v", err)
	}

	// 共享只读会话场景下历史消息来自共享方
	historyID := req.ConversationID
	if req.ShareContextID != "" {
		historyID = req.ShareContextID
	}

	history, err := s.store.RecentMessages(historyID, historyWindow)
	if err != nil {
		return "", fmt.Errorf("failed to load recent messages: %v", err)
	}
	reverseMessages(history)

	vector, err := s.embedder.EmbedQuery(ctx, req.Message)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	// 未处理完成的文档检索不到chunk，自然贡献空上下文
	var contexts []contextBlock
	for _, doc := range docs {
		hits, err := s.retriever.SearchByDocument(ctx, vector, doc.DocumentID, req.ConversationID, chunkTopK)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrRetrieval, err)
		}
		if len(hits) == 0 {
			continue
		}

		texts := make([]string, 0, len(hits))
		for _, hit := range hits {
			texts = append(texts, hit.Text)
		}
		contexts = append(contexts, contextBlock{
			FileName: doc.FileName,
			Text:     strings.Join(texts, "\n"),
		})
	}

	references := s.lookupReferences(ctx, vector)

	return buildPrompt(promptData{
		References: references,
		Contexts:   contexts,
		History:    history,
		Question:   req.Message,
	})
}

// lookupReferences 领域参考问答检索，可选增强步骤
// 任何失败只记日志并跳过，不影响主响应流程
func (s *Service) lookupReferences(ctx context.Context, vector []float32) []referencePair {
	hits, err := s.retriever.SearchReferenceQuestions(ctx, vector, referenceTopK)
	if err != nil {
		slog.Warn("Failed to search reference questions, skipping", "err", err)
		return nil
	}

	var pairs []referencePair
	for _, hit := range hits {
		answer, err := s.store.ReferenceAnswerByQuestionID(hit.QuestionID)
		if err != nil {
			slog.Warn("Failed to resolve reference answer, skipping",
				"question_id", hit.QuestionID,
				"err", err)
			continue
		}
		if answer == nil {
			continue
		}

		question := answer.Question
		if question == "" {
			question = hit.Question
		}

		pairs = append(pairs, referencePair{
			Question: question,
			Answer:   answer.Answer,
		})
	}

	return pairs
}

func (s *Service) saveUserMessage(req request.ChatRequest) error {
	userMessage := &model.Message{
		MessageID:      uuid.New().String(),
		ConversationID: req.ConversationID,
		Role:           model.RoleUser,
		Content:        req.Message,
	}
	if err := s.store.SaveMessage(userMessage); err != nil {
		return fmt.Errorf("failed to save user message: %v", err)
	}
	return nil
}

// reverseMessages 最近消息按时间倒序取出，反转为时间正序用于提示词
func reverseMessages(messages []model.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}

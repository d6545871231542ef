package chat

import "errors"

var (
	// ErrEmbedding 用户消息向量化失败，整个响应流程立即终止
	ErrEmbedding = errors.New("failed to embed user message")

	// ErrRetrieval 向量索引检索失败，不返回部分答案
	ErrRetrieval = errors.New("failed to retrieve document context")

	// ErrGeneration 模型调用失败或输出为空，不持久化AI消息
	ErrGeneration = errors.New("failed to generate response")
)

package request

type ChatRequest struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	Message        string `json:"message" binding:"required"`

	// 只读共享会话场景下，历史消息从该会话读取
	ShareContextID string `json:"share_context_id"`
}

package response

import "time"

type ConversationResponse struct {
	ConversationID string `json:"conversation_id"`
	Title          string `json:"title"`
}

type GetConversationsResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
}

type MessageResponse struct {
	MessageID     string    `json:"message_id"`
	CreatedAt     time.Time `json:"created_at"`
	IsUserMessage bool      `json:"is_user_message"`
	Content       string    `json:"content"`
}

type GetConversationMessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
}

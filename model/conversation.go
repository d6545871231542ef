package model

import "time"

const DefaultConversationTitle = "新对话"

type Role string

const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
)

type Conversation struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	ConversationID string    `gorm:"not null;uniqueIndex" json:"conversation_id"`
	Title          string    `json:"title"`
}

func (Conversation) TableName() string {
	return "conversation"
}

// Message 建立联合索引 (conversation_id, created_at)
// 顺序由 (created_at, id) 决定，除流式占位的内容回填外创建后不再修改
type Message struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	CreatedAt      time.Time `gorm:"index:idx_conversation_created" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	MessageID      string    `gorm:"not null;uniqueIndex" json:"message_id"`
	ConversationID string    `gorm:"not null;index:idx_conversation_created" json:"conversation_id"`
	Role           Role      `gorm:"not null" json:"role"`
	Content        string    `gorm:"type:text" json:"content"`

	// 流式回复的占位标记，只允许true到false的单向转移
	Loading bool `gorm:"not null;default:false" json:"is_loading"`
}

func (Message) TableName() string {
	return "chat_message"
}

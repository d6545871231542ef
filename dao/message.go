package dao

import (
	"doc-chat-backend/model"
)

func CreateMessage(message *model.Message) error {
	return DB.Create(message).Error
}

func GetMessagesByConversationID(conversationID string) ([]model.Message, error) {
	var messages []model.Message
	if err := DB.Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// GetRecentMessages 按时间倒序取最近limit条消息，调用方负责反转为时间正序
// created_at 相同时用自增主键决定先后
func GetRecentMessages(conversationID string, limit int) ([]model.Message, error) {
	var messages []model.Message
	if err := DB.Where("conversation_id = ?", conversationID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// FinalizeMessage 流式回复完成后写入完整内容并解除占位状态
// 条件限定loading=true，保证标记只能从true转移到false
func FinalizeMessage(messageID, content string) error {
	return DB.Model(&model.Message{}).
		Where("message_id = ? AND loading = ?", messageID, true).
		Updates(map[string]any{
			"content": content,
			"loading": false,
		}).Error
}

// DiscardLoadingMessage 删除未完成的流式占位消息
// 条件限定loading=true，已完成的消息不受影响
func DiscardLoadingMessage(messageID string) error {
	return DB.Where("message_id = ? AND loading = ?", messageID, true).
		Delete(&model.Message{}).Error
}

func DeleteMessagesByConversationID(conversationID string) error {
	return DB.Where("conversation_id = ?", conversationID).
		Delete(&model.Message{}).Error
}

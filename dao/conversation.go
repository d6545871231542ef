package dao

import (
	"errors"

	"gorm.io/gorm"

	"doc-chat-backend/model"
)

func CreateConversation(conversation *model.Conversation) error {
	return DB.Create(conversation).Error
}

func GetConversations() ([]model.Conversation, error) {
	var conversations []model.Conversation
	if err := DB.Order("created_at DESC").
		Find(&conversations).Error; err != nil {
		return nil, err
	}
	return conversations, nil
}

func GetConversationByID(conversationID string) (*model.Conversation, error) {
	var conversation model.Conversation
	if err := DB.Where("conversation_id = ?", conversationID).
		First(&conversation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conversation, nil
}

func UpdateConversationTitle(conversationID, title string) error {
	return DB.Model(&model.Conversation{}).
		Where("conversation_id = ?", conversationID).
		Update("title", title).Error
}

func DeleteConversation(conversationID string) error {
	return DB.Where("conversation_id = ?", conversationID).
		Delete(&model.Conversation{}).Error
}

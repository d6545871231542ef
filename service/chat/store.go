package chat

import (
	"doc-chat-backend/dao"
	"doc-chat-backend/model"
)

// Store 响应引擎需要的元数据读写能力
type Store interface {
	DocumentsByConversationID(conversationID string) ([]model.Document, error)
	RecentMessages(conversationID string, limit int) ([]model.Message, error)
	SaveMessage(message *model.Message) error
	FinalizeMessage(messageID, content string) error
	DiscardLoadingMessage(messageID string) error
	ReferenceAnswerByQuestionID(questionID string) (*model.ReferenceAnswer, error)
}

// DAOStore Store的MySQL实现
type DAOStore struct{}

var _ Store = DAOStore{}

func (DAOStore) DocumentsByConversationID(conversationID string) ([]model.Document, error) {
	return dao.GetDocumentsByConversationID(conversationID)
}

func (DAOStore) RecentMessages(conversationID string, limit int) ([]model.Message, error) {
	return dao.GetRecentMessages(conversationID, limit)
}

func (DAOStore) SaveMessage(message *model.Message) error {
	return dao.CreateMessage(message)
}

func (DAOStore) FinalizeMessage(messageID, content string) error {
	return dao.FinalizeMessage(messageID, content)
}

func (DAOStore) DiscardLoadingMessage(messageID string) error {
	return dao.DiscardLoadingMessage(messageID)
}

func (DAOStore) ReferenceAnswerByQuestionID(questionID string) (*model.ReferenceAnswer, error) {
	return dao.GetReferenceAnswerByQuestionID(questionID)
}

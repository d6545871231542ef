package dao

import (
	"errors"

	"gorm.io/gorm"

	"doc-chat-backend/model"
)

// ErrDocumentExists 同一对话内重复创建同一文档
var ErrDocumentExists = errors.New("document already exists")

func CreateDocument(doc *model.Document) error {
	err := DB.Create(doc).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDocumentExists
	}
	return err
}

func GetDocumentsByConversationID(conversationID string) ([]model.Document, error) {
	var docs []model.Document
	if err := DB.Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func GetDocumentByDocumentID(documentID string) (*model.Document, error) {
	var doc model.Document
	if err := DB.Where("document_id = ?", documentID).
		First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

// TransitionDocumentStatus 条件更新文档处理状态，from不匹配时返回false
// 单条原子UPDATE，多个worker并发领取同一任务时只有一个能完成状态转移
func TransitionDocumentStatus(documentID string, from, to model.Status) (bool, error) {
	result := DB.Model(&model.Document{}).
		Where("document_id = ? AND status = ?", documentID, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ClaimDocument 原子领取处理任务，不可领取时返回false
// QUEUED直接领取；PROCESSING且claimed=false是可恢复失败释放后的任务，
// 重投消息可重新领取。claimed=true阻断重复投递的并发处理
func ClaimDocument(documentID string) (bool, error) {
	result := DB.Model(&model.Document{}).
		Where("document_id = ? AND status IN ? AND claimed = ?",
			documentID,
			[]model.Status{model.StatusQueued, model.StatusProcessing},
			false).
		Updates(map[string]any{
			"status":  model.StatusProcessing,
			"claimed": true,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ReleaseDocumentClaim 可恢复失败后释放领取标记
// 状态保持PROCESSING，对轮询接口不产生状态回退
func ReleaseDocumentClaim(documentID string) error {
	return DB.Model(&model.Document{}).
		Where("document_id = ? AND status = ?", documentID, model.StatusProcessing).
		Update("claimed", false).Error
}

// MarkDocumentFailed 记录终态错误信息，QUEUED和PROCESSING均可转移到FAILED
func MarkDocumentFailed(documentID string, processingError string) error {
	return DB.Model(&model.Document{}).
		Where("document_id = ? AND status IN ?", documentID,
			[]model.Status{model.StatusQueued, model.StatusProcessing}).
		Updates(map[string]any{
			"status":           model.StatusFailed,
			"processing_error": processingError,
		}).Error
}

func DeleteDocumentsByConversationID(conversationID string) error {
	return DB.Where("conversation_id = ?", conversationID).
		Delete(&model.Document{}).Error
}

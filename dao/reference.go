package dao

import (
	"errors"

	"gorm.io/gorm"

	"doc-chat-backend/model"
)

func GetReferenceAnswerByQuestionID(questionID string) (*model.ReferenceAnswer, error) {
	var answer model.ReferenceAnswer
	if err := DB.Where("question_id = ?", questionID).
		First(&answer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &answer, nil
}

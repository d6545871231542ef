package model

import "time"

// ReferenceAnswer 领域参考问答的答案，问题向量存储在Milvus的
// reference_question 集合中，通过 question_id 关联
type ReferenceAnswer struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	QuestionID string    `gorm:"not null;uniqueIndex" json:"question_id"`
	Question   string    `gorm:"type:text" json:"question"`
	Answer     string    `gorm:"type:text;not null" json:"answer"`
}

func (ReferenceAnswer) TableName() string {
	return "reference_answer"
}

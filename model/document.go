package model

import "time"

type FileType string

const (
	FileTypePDF  FileType = "application/pdf"
	FileTypeDOC  FileType = "application/msword"
	FileTypeDOCX FileType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

type Status string

const (
	// 文档已入队，等待处理
	StatusQueued Status = "QUEUED"

	// worker已领取任务，处理中
	StatusProcessing Status = "PROCESSING"

	// 文档向量化处理完成
	StatusProcessed Status = "PROCESSED"

	// 文档向量化处理失败，错误信息记录在 processing_error
	StatusFailed Status = "FAILED"
)

// Document 存储上传文档元数据
// 建立联合唯一索引 (conversation_id, object_name)，同一上传对象重复登记时冲突
type Document struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"not null;index:idx_conversation_created" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	DocumentID     string `gorm:"not null;uniqueIndex" json:"document_id"`
	ConversationID string `gorm:"not null;uniqueIndex:idx_conversation_object;index:idx_conversation_created" json:"conversation_id"`
	FileName       string `gorm:"not null" json:"file_name"`
	FileType       FileType `gorm:"not null" json:"file_type"`

	// 文档在OSS上的完整路径，不包含bucket名称
	ObjectName string `gorm:"not null;uniqueIndex:idx_conversation_object" json:"object_name"`

	// 文档处理状态
	Status Status `gorm:"not null;default:QUEUED" json:"status"`

	// 任务领取标记，worker领取时置true
	// 可恢复失败后释放为false，重投消息据此重新领取，状态保持PROCESSING不回退
	Claimed bool `gorm:"not null;default:false" json:"-"`

	// 标记需要人工审核的文档
	Review bool `gorm:"not null;default:false" json:"review"`

	// 处理失败时记录触发错误的信息
	ProcessingError string `gorm:"type:text" json:"processing_error"`
}

func (Document) TableName() string {
	return "document"
}

package request

// CreateDocumentRequest 在文件字节成功写入OSS后调用
// 创建文档元数据并触发异步向量化处理
type CreateDocumentRequest struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	FileName       string `json:"file_name" binding:"required"`
	FileType       string `json:"file_type" binding:"required"`
	ObjectName     string `json:"object_name" binding:"required"`

	// 标记文档需要人工审核，状态接口原样返回
	Review bool `json:"review"`
}

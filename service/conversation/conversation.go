package conversation

import (
	"context"
	"fmt"
	"log/slog"

	"doc-chat-backend/dao"
	"doc-chat-backend/service/mq"
)

// DeleteMessage 对话级联清理任务的消息体
// 元数据行在接口内同步删除，外部存储的清理走该异步任务
type DeleteMessage struct {
	ConversationID string   `json:"conversation_id"`
	ObjectNames    []string `json:"object_names"`
}

// Queue 级联清理任务的投递能力
type Queue interface {
	SendMessage(ctx context.Context, message *mq.Message) error
}

// Service 对话删除：同步删除元数据行，异步清理OSS对象和向量索引
type Service struct {
	queue Queue
}

func NewService(queue Queue) *Service {
	return &Service{queue: queue}
}

// Delete 级联删除一个对话
// 各子删除相互独立，单步失败记录日志后继续，不追求跨存储原子性
func (s *Service) Delete(ctx context.Context, conversationID string) error {
	docs, err := dao.GetDocumentsByConversationID(conversationID)
	if err != nil {
		slog.Error("Failed to list documents for cascade delete",
			"conversation_id", conversationID,
			"err", err)
	}

	objectNames := make([]string, 0, len(docs))
	for _, doc := range docs {
		objectNames = append(objectNames, doc.ObjectName)
	}

	if err := dao.DeleteMessagesByConversationID(conversationID); err != nil {
		slog.Error("Failed to delete conversation messages",
			"conversation_id", conversationID,
			"err", err)
	}

	if err := dao.DeleteDocumentsByConversationID(conversationID); err != nil {
		slog.Error("Failed to delete conversation documents",
			"conversation_id", conversationID,
			"err", err)
	}

	if err := dao.DeleteConversation(conversationID); err != nil {
		return fmt.Errorf("failed to delete conversation %s: %v", conversationID, err)
	}

	// 外部存储清理交给队列，失败不影响删除结果
	err = s.queue.SendMessage(ctx, &mq.Message{
		Topic: mq.TopicDocument,
		Tag:   mq.TagDelete,
		Key:   conversationID,
		Payload: DeleteMessage{
			ConversationID: conversationID,
			ObjectNames:    objectNames,
		},
	})
	if err != nil {
		slog.Error("Failed to enqueue cascade cleanup",
			"conversation_id", conversationID,
			"err", err)
	}

	return nil
}

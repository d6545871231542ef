package conversation

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/apache/rocketmq-client-go/v2/primitive"
	"github.com/avast/retry-go/v4"
)

const cleanupAttempts = 3

// ObjectStore 清理任务需要的对象存储能力
type ObjectStore interface {
	Delete(ctx context.Context, objectName string) error
}

// VectorStore 清理任务需要的向量索引能力
type VectorStore interface {
	DeleteByConversation(ctx context.Context, conversationID string) error
}

// Cleaner 消费级联清理任务，删除OSS对象和向量索引记录
// 每一步删除都是幂等的，单步失败记录日志后继续处理其余步骤
type Cleaner struct {
	objectStore ObjectStore
	vectorStore VectorStore
}

func NewCleaner(objectStore ObjectStore, vectorStore VectorStore) *Cleaner {
	return &Cleaner{
		objectStore: objectStore,
		vectorStore: vectorStore,
	}
}

// HandleDeleteMessage MQ消费入口
// 始终消费成功：每步内部已独立重试，残留失败留给离线清理任务
func (c *Cleaner) HandleDeleteMessage(ctx context.Context, msg *primitive.MessageExt) error {
	var deleteMessage DeleteMessage
	if err := json.Unmarshal(msg.Body, &deleteMessage); err != nil {
		slog.Error("Failed to unmarshal delete message", "msg_id", msg.MsgId, "err", err)
		return nil
	}

	for _, objectName := range deleteMessage.ObjectNames {
		err := retry.Do(
			func() error {
				return c.objectStore.Delete(ctx, objectName)
			},
			retry.Attempts(cleanupAttempts),
			retry.DelayType(retry.BackOffDelay),
			retry.Context(ctx),
		)
		if err != nil {
			slog.Error("Failed to delete object, leaving for reconciliation",
				"conversation_id", deleteMessage.ConversationID,
				"object_name", objectName,
				"err", err)
		}
	}

	err := retry.Do(
		func() error {
			return c.vectorStore.DeleteByConversation(ctx, deleteMessage.ConversationID)
		},
		retry.Attempts(cleanupAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
	)
	if err != nil {
		slog.Error("Failed to delete vector entries, leaving for reconciliation",
			"conversation_id", deleteMessage.ConversationID,
			"err", err)
	}

	return nil
}

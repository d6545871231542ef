package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/apache/rocketmq-client-go/v2"
	c "github.com/apache/rocketmq-client-go/v2/consumer"
	"github.com/apache/rocketmq-client-go/v2/primitive"
	"github.com/apache/rocketmq-client-go/v2/producer"
	"github.com/apache/rocketmq-client-go/v2/rlog"
	"github.com/avast/retry-go/v4"

	"doc-chat-backend/config"
)

const (
	TopicDocument = "topic_document"
	TagProcess    = "tag_process"
	TagDelete     = "tag_delete"

	consumeGroupDocument = "cg_document"

	sendMessageAttempts  = 3
	maxReconsumeTimes    = 5
	consumeGoroutineNums = 10
)

type MessageHandler func(context.Context, *primitive.MessageExt) error

type Message struct {
	Topic   string
	Tag     string
	Payload any

	// 业务去重键，处理任务取document_id
	// 消费端幂等处理依赖该键对应记录的状态检查
	Key string
}

// Service MQ生产者和消费者的包装
// 消息处理器按topic+tag注册，处理失败返回ConsumeRetryLater由broker退避重投
type Service struct {
	producer rocketmq.Producer
	consumer rocketmq.PushConsumer

	// topic -> tag -> handler
	handlers map[string]map[string]MessageHandler
}

func NewService(cfg config.MQConfig) (*Service, error) {
	// 设置RocketMQ客户端（使用rlog）的日志级别
	rlog.SetLogLevel("warn")

	consumer, err := rocketmq.NewPushConsumer(
		c.WithNameServer(cfg.NameServer),
		c.WithGroupName(consumeGroupDocument),
		c.WithConsumerModel(c.Clustering),
		c.WithConsumeFromWhere(c.ConsumeFromLastOffset),
		c.WithMaxReconsumeTimes(maxReconsumeTimes),
		c.WithConsumeGoroutineNums(consumeGoroutineNums),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %v", err)
	}

	producerInstance, err := rocketmq.NewProducer(
		producer.WithNameServer(cfg.NameServer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %v", err)
	}

	return &Service{
		producer: producerInstance,
		consumer: consumer,
		handlers: make(map[string]map[string]MessageHandler),
	}, nil
}

// RegisterHandler 注册消息处理器，需在Start之前调用
func (s *Service) RegisterHandler(topic, tag string, handler MessageHandler) {
	if s.handlers[topic] == nil {
		s.handlers[topic] = make(map[string]MessageHandler)
	}
	s.handlers[topic][tag] = handler
}

func (s *Service) Start() error {
	for topic, tagHandlers := range s.handlers {
		if err := s.subscribe(topic, tagHandlers); err != nil {
			return fmt.Errorf("failed to subscribe to topic %s: %v", topic, err)
		}
	}

	if err := s.producer.Start(); err != nil {
		return fmt.Errorf("failed to start producer: %v", err)
	}

	if err := s.consumer.Start(); err != nil {
		return fmt.Errorf("failed to start consumer: %v", err)
	}
	return nil
}

func (s *Service) subscribe(topic string, tagHandlers map[string]MessageHandler) error {
	tags := make([]string, 0, len(tagHandlers))
	for tag := range tagHandlers {
		tags = append(tags, tag)
	}

	selector := c.MessageSelector{
		Type:       c.TAG,
		Expression: strings.Join(tags, " || "),
	}

	return s.consumer.Subscribe(topic, selector, func(ctx context.Context, messages ...*primitive.MessageExt) (c.ConsumeResult, error) {
		for _, msg := range messages {
			h := tagHandlers[msg.GetTags()]
			if h == nil {
				slog.Warn("No message handler found for tag",
					"topic", msg.Topic,
					"tag", msg.GetTags())
				continue
			}

			if err := h(ctx, msg); err != nil {
				slog.Error("Failed to process message",
					"topic", msg.Topic,
					"tag", msg.GetTags(),
					"msg_id", msg.MsgId,
					"error", err)
				return c.ConsumeRetryLater, err
			}
		}
		return c.ConsumeSuccess, nil
	})
}

// SendMessage 向MQ发送消息，失败时退避重试
func (s *Service) SendMessage(ctx context.Context, message *Message) error {
	payloadJSON, err := json.Marshal(message.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %v", err)
	}

	msg := primitive.NewMessage(message.Topic, payloadJSON)
	if message.Tag != "" {
		msg = msg.WithTag(message.Tag)
	}
	if message.Key != "" {
		msg = msg.WithKeys([]string{message.Key})
	}

	err = retry.Do(
		func() error {
			_, err := s.producer.SendSync(ctx, msg)
			return err
		},
		retry.Attempts(sendMessageAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("Retrying to send message",
				"attempt", n+1,
				"topic", msg.Topic,
				"err", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to send message to topic %s after retries: %v", msg.Topic, err)
	}

	return nil
}

// Shutdown 关闭MQ服务
func (s *Service) Shutdown() {
	if s.producer != nil {
		s.producer.Shutdown()
	}
	if s.consumer != nil {
		s.consumer.Shutdown()
	}
}

package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"syntagma/internal/config"
	"syntagma/internal/model"
	"syntagma/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter kafka.Writer 的最小接口，便于测试替换
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// CommentEventProducer 将评论事件写入 comment_events topic
type CommentEventProducer struct {
	writer MessageWriter
	topic  string
}

// NewCommentEventProducer 创建异步生产者，写入失败只记录日志
func NewCommentEventProducer(cfg *config.KafkaConfig) *CommentEventProducer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to deliver comment events",
					zap.Int("count", len(messages)),
					zap.Error(err),
				)
			}
		},
	}

	logger.Info("Kafka producer initialized",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.CommentEventsTopic()),
	)

	return &CommentEventProducer{writer: writer, topic: cfg.CommentEventsTopic()}
}

// NewCommentEventProducerWithWriter 使用自定义 writer 创建生产者
func NewCommentEventProducerWithWriter(writer MessageWriter, topic string) *CommentEventProducer {
	return &CommentEventProducer{writer: writer, topic: topic}
}

// PublishCommentEvent 以评论 ID 为 key 发送事件，同一评论的事件落在同一分区保持顺序
func (p *CommentEventProducer) PublishCommentEvent(ctx context.Context, event *model.CommentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal comment event: %w", err)
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.Comment.ID),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to send comment event: %w", err)
	}

	logger.Debug("Comment event sent",
		zap.String("type", string(event.Type)),
		zap.String("comment_id", event.Comment.ID),
	)
	return nil
}

// Close 关闭生产者并刷新未发送的消息
func (p *CommentEventProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	logger.Info("Kafka producer closed")
	return p.writer.Close()
}

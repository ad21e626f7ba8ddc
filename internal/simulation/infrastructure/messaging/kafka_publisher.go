// Package messaging 模拟事件的 Kafka 发布
package messaging

import (
	"context"
	"fmt"

	"github.com/wyfcoding/riskengine/internal/simulation/domain"
)

// MessageSender 消息发送方，由 mq.KafkaProducer 实现
type MessageSender interface {
	SendMessage(ctx context.Context, topic, key string, value any) error
}

// envelope 事件外层结构
type envelope struct {
	Type    string                          `json:"type"`
	Payload domain.SimulationCompletedEvent `json:"payload"`
}

// KafkaPublisher 实现 domain.EventPublisher
type KafkaPublisher struct {
	sender MessageSender
	topic  string
}

// NewKafkaPublisher 创建发布者
func NewKafkaPublisher(sender MessageSender, topic string) *KafkaPublisher {
	return &KafkaPublisher{sender: sender, topic: topic}
}

// PublishSimulationCompleted 以 record_id 为 key 发布
func (p *KafkaPublisher) PublishSimulationCompleted(ctx context.Context, event domain.SimulationCompletedEvent) error {
	msg := envelope{Type: domain.SimulationCompletedEventType, Payload: event}
	if err := p.sender.SendMessage(ctx, p.topic, event.RecordID, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", domain.SimulationCompletedEventType, err)
	}
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"matrix_exam_backend/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// 事件路由键
const (
	EventSessionStarted   = "exam.session.started"
	EventSessionSubmitted = "exam.session.submitted"
	EventResultCreated    = "exam.result.created"
	EventMatrixCreated    = "exam.matrix.created"
)

// EventPublisher 领域事件发布，发布失败只记录日志，不影响主流程
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{})
	Close() error
}

type Event struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload"`
}

// NoopPublisher 未配置消息队列时使用，也可在测试中记录事件
type NoopPublisher struct {
	mu     sync.Mutex
	Events []Event
}

func (p *NoopPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, Event{Type: routingKey, OccurredAt: time.Now(), Payload: payload})
}

func (p *NoopPublisher) Close() error {
	return nil
}

// Count 统计某类事件数量
func (p *NoopPublisher) Count(routingKey string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.Events {
		if e.Type == routingKey {
			n++
		}
	}
	return n
}

// AMQPPublisher 通过 RabbitMQ topic exchange 发布
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &AMQPPublisher{conn: conn, channel: channel, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) {
	body, err := json.Marshal(Event{Type: routingKey, OccurredAt: time.Now(), Payload: payload})
	if err != nil {
		logger.Log.Error("Failed to marshal event", zap.String("event", routingKey), zap.Error(err))
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	// amqp channel 不是并发安全的
	p.mu.Lock()
	err = p.channel.PublishWithContext(
		pubCtx,
		p.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	p.mu.Unlock()

	if err != nil {
		logger.Log.Warn("Failed to publish event", zap.String("event", routingKey), zap.Error(err))
		return
	}
	logger.Log.Debug("Published event", zap.String("event", routingKey))
}

func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			logger.Log.Warn("Error closing RabbitMQ channel", zap.Error(err))
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

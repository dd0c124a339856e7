package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"clothing-store/pkg/utils"

	"github.com/oklog/ulid/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Routing keys of the order events.
const (
	OrderCreated       = "order.created"
	OrderCanceled      = "order.canceled"
	OrderStatusChanged = "order.status_changed"
)

// Publisher emits domain events. Delivery is best effort; callers log and move on.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close() error
}

// Message is the envelope written to the exchange.
type Message struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

func NewMessage(routingKey string, payload any, now time.Time) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", routingKey, err)
	}
	return &Message{
		ID:         ulid.Make().String(),
		Type:       routingKey,
		OccurredAt: now.UTC(),
		Data:       data,
	}, nil
}

type amqpPublisher struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	ch       *amqp.Channel
	exchange string
	log      *zap.Logger
}

// New dials RabbitMQ and declares the topic exchange. An empty URL yields a
// publisher that drops every event.
func New(config utils.RabbitMQConfig, log *zap.Logger) (Publisher, error) {
	if config.URL == "" {
		log.Info("RabbitMQ disabled, order events will not be published")
		return NopPublisher{}, nil
	}

	conn, err := amqp.Dial(config.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(config.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", config.Exchange, err)
	}

	return &amqpPublisher{
		conn:     conn,
		ch:       ch,
		exchange: config.Exchange,
		log:      log.With(zap.String("component", "broker")),
	}, nil
}

func (p *amqpPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	msg, err := NewMessage(routingKey, payload, time.Now())
	if err != nil {
		return err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", routingKey, err)
	}

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Timestamp:    msg.OccurredAt,
		Type:         routingKey,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	p.log.Debug("Event published", zap.String("routing_key", routingKey), zap.String("message_id", msg.ID))
	return nil
}

func (p *amqpPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.Close(); err != nil && err != amqp.ErrClosed {
		return err
	}
	return p.conn.Close()
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

func (NopPublisher) Close() error { return nil }

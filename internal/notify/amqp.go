package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	amqp "github.com/rabbitmq/amqp091-go"

	"signal_bot/internal/models"
)

// AMQP публикует сигнал в fanout exchange RabbitMQ.
type AMQP struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	mu       sync.Mutex
}

func NewAMQP(url, exchange string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &AMQP{conn: conn, channel: ch, exchange: exchange}, nil
}

func (a *AMQP) Deliver(ctx context.Context, sig models.Signal, cfg models.StrategyConfig) error {
	body, err := sonic.Marshal(NewPayload(sig, cfg))
	if err != nil {
		return fmt.Errorf("amqp: marshal: %w", err)
	}

	// amqp.Channel не потокобезопасен для publish
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.channel.PublishWithContext(ctx, a.exchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    sig.ID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

func (a *AMQP) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.channel != nil {
		_ = a.channel.Close()
	}
	if a.conn != nil {
		return a.conn.Close()
	}
	return nil
}

package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"gensavor/pkg/config"
	"gensavor/pkg/logger"
)

// OrdersExchange is the fanout exchange carrying order change events.
// Every observer process binds its own server-named queue to it.
const OrdersExchange = "orders_fanout"

const reconnectInterval = 5 * time.Second

type RabbitMQ struct {
	cfg *config.RabbitMQConfig
	log *logger.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel

	// reconnectDone is non-nil while a reconnect attempt is in flight
	// and is closed when that attempt ends.
	reconnectDone chan struct{}
}

func Connect(cfg *config.RabbitMQConfig, log *logger.Logger) (*RabbitMQ, error) {
	r := &RabbitMQ{cfg: cfg, log: log}
	if err := r.connect(); err != nil {
		return nil, err
	}
	log.Action("rabbitmq_connected").Info("Connected to RabbitMQ")
	return r, nil
}

func (r *RabbitMQ) connect() error {
	conn, err := amqp.Dial(fmt.Sprintf("amqp://%s:%s@%s:%d/",
		r.cfg.User, r.cfg.Password, r.cfg.Host, r.cfg.Port))
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		OrdersExchange, // name
		"fanout",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("declare exchange: %w", err)
	}

	r.mu.Lock()
	r.conn = conn
	r.ch = ch
	r.mu.Unlock()
	return nil
}

func (r *RabbitMQ) IsAlive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil || r.conn.IsClosed() {
		return false
	}
	if r.ch == nil || r.ch.IsClosed() {
		return false
	}
	return true
}

func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ch != nil && !r.ch.IsClosed() {
		if err := r.ch.Close(); err != nil {
			return fmt.Errorf("close channel: %w", err)
		}
	}
	if r.conn != nil && !r.conn.IsClosed() {
		if err := r.conn.Close(); err != nil {
			return fmt.Errorf("close connection: %w", err)
		}
	}
	return nil
}

// Publish sends a change event to the orders fanout exchange.
func (r *RabbitMQ) Publish(ctx context.Context, body []byte) error {
	r.mu.Lock()
	ch := r.ch
	r.mu.Unlock()
	if ch == nil || ch.IsClosed() {
		return fmt.Errorf("rabbitmq channel is not open")
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return ch.PublishWithContext(pubCtx,
		OrdersExchange, // exchange
		"",             // routing key
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		})
}

// Subscribe binds an exclusive server-named queue to the fanout
// exchange and starts consuming. The queue disappears with the
// consumer, so every subscriber starts from "now".
func (r *RabbitMQ) Subscribe(ctx context.Context) (<-chan amqp.Delivery, error) {
	r.mu.Lock()
	ch := r.ch
	r.mu.Unlock()
	if ch == nil || ch.IsClosed() {
		return nil, fmt.Errorf("rabbitmq channel is not open")
	}

	q, err := ch.QueueDeclare(
		"",    // name (server generated)
		false, // durable
		false, // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", OrdersExchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	deliveries, err := ch.ConsumeWithContext(ctx,
		q.Name, // queue
		"",     // consumer
		true,   // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}
	return deliveries, nil
}

// Reconnect blocks until the connection is re-established or the
// context is cancelled. Concurrent callers collapse into one attempt:
// whoever arrives while an attempt is in flight waits for it instead
// of starting another, and returns only once the connection is
// actually alive again.
func (r *RabbitMQ) Reconnect(ctx context.Context) error {
	for {
		r.mu.Lock()
		if r.reconnectDone == nil {
			done := make(chan struct{})
			r.reconnectDone = done
			r.mu.Unlock()
			return r.reconnect(ctx, done)
		}
		done := r.reconnectDone
		r.mu.Unlock()

		select {
		case <-done:
			if r.IsAlive() {
				return nil
			}
			// The attempt ended without a connection (its caller was
			// cancelled); take over.
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *RabbitMQ) reconnect(ctx context.Context, done chan struct{}) error {
	defer func() {
		r.mu.Lock()
		r.reconnectDone = nil
		r.mu.Unlock()
		close(done)
	}()

	t := time.NewTicker(reconnectInterval)
	defer t.Stop()

	log := r.log.Action("rabbitmq_reconnecting")
	for {
		select {
		case <-t.C:
			if err := r.connect(); err == nil {
				log.Info("RabbitMQ reconnected")
				return nil
			}
			log.Warn("RabbitMQ reconnect attempt failed")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

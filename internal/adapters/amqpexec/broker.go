// Package amqpexec runs publish jobs through RabbitMQ instead of the Postgres job queue.
package amqpexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Backend names this executor in job handles and metrics.
const Backend = "amqp"

// Channel is the subset of *amqp.Channel the executor uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(
		queue, consumer string,
		autoAck, exclusive, noLocal, noWait bool,
		args amqp.Table,
	) (<-chan amqp.Delivery, error)
	PublishWithContext(
		ctx context.Context,
		exchange, key string,
		mandatory, immediate bool,
		msg amqp.Publishing,
	) error
	Close() error
}

var _ Channel = (*amqp.Channel)(nil)

// Topology names the exchange and queue publish jobs travel through.
// The queue name doubles as the routing key.
type Topology struct {
	Exchange string
	Queue    string
}

// Validate checks both names are set.
func (t Topology) Validate() error {
	if t.Exchange == "" {
		return errors.New("amqp exchange is required")
	}
	if t.Queue == "" {
		return errors.New("amqp queue is required")
	}
	return nil
}

// Declare creates the durable direct exchange and queue and binds them. It is idempotent.
func Declare(ch Channel, t Topology) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := ch.ExchangeDeclare(t.Exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", t.Exchange, err)
	}
	if _, err := ch.QueueDeclare(t.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", t.Queue, err)
	}
	if err := ch.QueueBind(t.Queue, t.Queue, t.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", t.Queue, err)
	}
	return nil
}

// BrokerOptions configures the broker connection.
type BrokerOptions struct {
	URL      string
	Topology Topology
	Logger   *slog.Logger

	// DialAttempts bounds connection retries at startup; defaults to 5.
	DialAttempts uint64
}

// Broker owns one AMQP connection. Submitters and consumers each take their own channel.
type Broker struct {
	conn     *amqp.Connection
	topology Topology
	logger   *slog.Logger
}

// Dial connects to RabbitMQ, retrying with exponential backoff, and declares the topology.
func Dial(ctx context.Context, opts BrokerOptions) (*Broker, error) {
	if opts.URL == "" {
		return nil, errors.New("amqp url is required")
	}
	if err := opts.Topology.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "amqp_broker")
	attempts := opts.DialAttempts
	if attempts == 0 {
		attempts = 5
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(500*time.Millisecond),
		backoff.WithMaxInterval(5*time.Second),
	), attempts-1), ctx)

	conn, err := backoff.RetryNotifyWithData(func() (*amqp.Connection, error) {
		return amqp.Dial(opts.URL)
	}, policy, func(err error, wait time.Duration) {
		logger.WarnContext(ctx, "amqp dial failed, retrying", "error", err, "wait", wait)
	})
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	b := &Broker{conn: conn, topology: opts.Topology, logger: logger}
	ch, err := b.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	defer func() { _ = ch.Close() }()
	if err := Declare(ch, opts.Topology); err != nil {
		_ = conn.Close()
		return nil, err
	}

	logger.InfoContext(ctx, "rabbitmq connected",
		"exchange", opts.Topology.Exchange,
		"queue", opts.Topology.Queue,
	)
	return b, nil
}

// Topology returns the declared exchange and queue.
func (b *Broker) Topology() Topology { return b.topology }

// Channel opens a new channel on the connection.
func (b *Broker) Channel() (*amqp.Channel, error) {
	ch, err := b.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	return ch, nil
}

// Close closes the connection and every channel on it.
func (b *Broker) Close() error {
	if b == nil || b.conn == nil || b.conn.IsClosed() {
		return nil
	}
	return b.conn.Close()
}

package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type dialFunc func(url, queue string) (publisher, error)

// AMQPDispatcher publishes email messages to a durable queue. The broker
// connection is opened on first use and re-opened after a failed publish.
type AMQPDispatcher struct {
	url   string
	queue string
	dial  dialFunc
	now   func() time.Time

	mu  sync.Mutex
	pub publisher
}

type AMQPOption func(*AMQPDispatcher)

func withDialer(dial dialFunc) AMQPOption {
	return func(d *AMQPDispatcher) {
		d.dial = dial
	}
}

func NewAMQPDispatcher(url, queue string, opts ...AMQPOption) *AMQPDispatcher {
	d := &AMQPDispatcher{
		url:   url,
		queue: queue,
		dial:  dialQueue,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *AMQPDispatcher) SendVerificationEmail(ctx context.Context, email, token string) error {
	return d.publish(ctx, Message{Kind: KindVerification, To: email, Token: token})
}

func (d *AMQPDispatcher) SendPasswordResetEmail(ctx context.Context, email, token string) error {
	return d.publish(ctx, Message{Kind: KindPasswordReset, To: email, Token: token})
}

func (d *AMQPDispatcher) publish(ctx context.Context, msg Message) error {
	msg.QueuedAt = d.now().UTC()
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal email message: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pub == nil {
		pub, err := d.dial(d.url, d.queue)
		if err != nil {
			return fmt.Errorf("connect to broker: %w", err)
		}
		d.pub = pub
	}

	err = d.pub.PublishWithContext(ctx, "", d.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    msg.QueuedAt,
		Type:         msg.Kind,
		Body:         body,
	})
	if err != nil {
		_ = d.pub.Close()
		d.pub = nil
		return fmt.Errorf("publish email message: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"kind":  msg.Kind,
		"queue": d.queue,
	}).Debug("Email message queued")
	return nil
}

func (d *AMQPDispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pub == nil {
		return nil
	}
	err := d.pub.Close()
	d.pub = nil
	return err
}

type session struct {
	conn *amqp.Connection
	*amqp.Channel
}

func (s *session) Close() error {
	_ = s.Channel.Close()
	return s.conn.Close()
}

func declareQueue(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	return err
}

func dialQueue(url, queue string) (publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err = declareQueue(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	return &session{conn: conn, Channel: ch}, nil
}

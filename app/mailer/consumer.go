package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

type sender interface {
	Send(ctx context.Context, mail *Email) error
}

// Deliverer turns one queued message into a sent email.
type Deliverer struct {
	renderer *Renderer
	sender   sender
}

func NewDeliverer(renderer *Renderer, sender sender) *Deliverer {
	return &Deliverer{renderer: renderer, sender: sender}
}

func (d *Deliverer) Deliver(ctx context.Context, body []byte) error {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if msg.To == "" || msg.Token == "" {
		return errors.New("message without recipient or token")
	}

	mail, err := d.renderer.Render(msg)
	if err != nil {
		return err
	}
	return d.sender.Send(ctx, mail)
}

const (
	prefetchCount = 20
	maxBackoff    = 30 * time.Second
)

// Consumer reads the email queue until ctx is cancelled, reconnecting with
// exponential backoff when the broker goes away. Messages that fail delivery
// are rejected without requeue.
type Consumer struct {
	url       string
	queue     string
	deliverer *Deliverer
}

func NewConsumer(url, queue string, deliverer *Deliverer) *Consumer {
	return &Consumer{url: url, queue: queue, deliverer: deliverer}
}

func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			logrus.WithError(err).WithField("retry_in", backoff.String()).Warn("Email consumer failed to dial broker")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logrus.WithError(err).Warn("Email consume loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err = ch.Qos(prefetchCount, 0, false); err != nil {
		logrus.WithError(err).Warn("Email consumer failed to set QoS")
	}
	if err = declareQueue(ch, c.queue); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	deliveries, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	logrus.WithField("queue", c.queue).Info("Email consumer started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.handle(ctx, d)
		}
	}
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	c.settle(ctx, d.Body, &d)
}

func (c *Consumer) settle(ctx context.Context, body []byte, ack acknowledger) {
	sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := c.deliverer.Deliver(sendCtx, body); err != nil {
		logrus.WithError(err).Error("Email delivery failed")
		_ = ack.Nack(false, false)
		return
	}
	_ = ack.Ack(false)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Package audit publishes dashboard activity events to a message broker.
// The broker is optional: a nil client swallows events so callers never
// branch on whether auditing is configured.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	applog "wastedash/internal/log"
)

// Event kinds recorded by the dashboard.
const (
	KindLogin  = "login"
	KindExport = "export"
)

// Event is one audited action.
type Event struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	User      string    `json:"user"`
	Timestamp time.Time `json:"timestamp"`
	Detail    string    `json:"detail,omitempty"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(kind, user, detail string) Event {
	return Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		User:      user,
		Timestamp: time.Now().UTC(),
		Detail:    detail,
	}
}

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key matches the queue name on a direct exchange.
	err = c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// Publish sends the event. A nil client drops it silently; a broker
// failure is logged but never surfaces to the caller, auditing must not
// break the request path.
func (c *Client) Publish(ctx context.Context, ev Event) {
	if c == nil {
		return
	}

	logger := applog.ForComponent(applog.FromContext(ctx), applog.ComponentAudit)

	body, err := json.Marshal(ev)
	if err != nil {
		logger.Error("Failed to marshal audit event", applog.FieldError, err, "kind", ev.Kind)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName,
		c.queueName,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		logger.Error("Failed to publish audit event",
			applog.FieldError, err,
			"kind", ev.Kind,
			"exchange", c.exchangeName)
		return
	}

	logger.Debug("Published audit event",
		"id", ev.ID,
		"kind", ev.Kind,
		applog.FieldUser, ev.User)
}

func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

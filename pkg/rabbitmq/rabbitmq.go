package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/streadway/amqp"
	log "github.com/sirupsen/logrus"
)

// UserEventsQueue is the durable queue user lifecycle events are routed to.
const UserEventsQueue = "user_events"

// Event types published for user lifecycle changes.
const (
	EventUserRegistered = "user.registered"
	EventUserUpdated    = "user.updated"
	EventUserDeleted    = "user.deleted"
)

// UserEvent is the JSON payload published for every user lifecycle change.
// It never carries the password digest.
type UserEvent struct {
	Type       string    `json:"type"`
	UserID     string    `json:"userId"`
	Email      string    `json:"email,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ, opens a channel and declares the user events queue.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := declareUserEvents(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.WithField("queue", UserEventsQueue).Info("RabbitMQ client connected")

	return &Client{
		conn:    conn,
		channel: ch,
	}, nil
}

func declareUserEvents(ch *amqp.Channel) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		UserEventsQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return amqp.Queue{}, fmt.Errorf("failed to declare %s: %w", UserEventsQueue, err)
	}
	return q, nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// PublishUserEvent publishes event as persistent JSON to the user events queue.
func (c *Client) PublishUserEvent(event UserEvent) error {
	if c == nil || c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal user event: %w", err)
	}

	err = c.channel.Publish(
		"",              // default exchange
		UserEventsQueue, // routing key
		false,           // mandatory
		false,           // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         event.Type,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	return nil
}

// ConsumeUserEvents starts a goroutine that decodes deliveries from the user
// events queue and hands them to handler. Deliveries are acked when handler
// returns nil. Undecodable payloads are rejected without requeue; handler
// errors requeue the message.
func (c *Client) ConsumeUserEvents(handler func(UserEvent) error) error {
	if c == nil || c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	queue, err := declareUserEvents(c.channel)
	if err != nil {
		return err
	}

	msgs, err := c.channel.Consume(
		queue.Name,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			handleDelivery(msg, handler)
		}
	}()

	return nil
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func handleDelivery(msg amqp.Delivery, handler func(UserEvent) error) {
	processDelivery(msg.DeliveryTag, msg.Body, msg, handler)
}

func processDelivery(tag uint64, body []byte, ack acknowledger, handler func(UserEvent) error) {
	entry := log.WithField("delivery_tag", tag)

	var event UserEvent
	if err := json.Unmarshal(body, &event); err != nil {
		entry.WithError(err).Warn("dropping malformed user event")
		if nackErr := ack.Nack(false, false); nackErr != nil {
			entry.WithError(nackErr).Error("nack failed")
		}
		return
	}

	if err := handler(event); err != nil {
		entry.WithError(err).Warn("user event handler failed, requeueing")
		if nackErr := ack.Nack(false, true); nackErr != nil {
			entry.WithError(nackErr).Error("nack failed")
		}
		return
	}

	if err := ack.Ack(false); err != nil {
		entry.WithError(err).Error("ack failed")
	}
}

// LogUserEvent is the default consumer handler; it records the event in the application log.
func LogUserEvent(event UserEvent) error {
	log.WithFields(log.Fields{
		"type":    event.Type,
		"user_id": event.UserID,
	}).Info("user event received")
	return nil
}

// Package queue publishes appointment lifecycle events to the message
// broker. Staff tooling consumes them out of band; publishing is best
// effort and never blocks a booking.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const appointmentQueueName = "appointments.events"

const (
	EventCreated  = "appointment.created"
	EventCanceled = "appointment.canceled"
	EventRestored = "appointment.restored"
)

// Event is the payload written for every lifecycle change worth consuming
// downstream. Enough is denormalized that consumers never query the
// primary database.
type Event struct {
	Type          string `json:"type"`
	AppointmentID string `json:"appointment_id"`
	OwnerID       string `json:"owner_id"`
	OwnerName     string `json:"owner_name"`
	ServiceName   string `json:"service_name"`
	Date          string `json:"date"`
	TimeSlot      string `json:"time_slot"`
	Status        string `json:"status"`
	OccurredAt    string `json:"occurred_at"`
}

type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Dial connects to the broker and declares the durable events queue.
func Dial(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(appointmentQueueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return &Publisher{conn: conn, ch: ch}, nil
}

func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	if ev.OccurredAt == "" {
		ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, "", appointmentQueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	_ = p.ch.Close()
	_ = p.conn.Close()
}

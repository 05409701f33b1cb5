package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/hollandpark-shiatsu/bookings/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Event subjects
const (
	BookingCreated  = "booking.created"
	BookingCanceled = "booking.canceled"

	NotifySend = "notify.send"
)

type BookingCreatedEvent struct {
	BookingID       int64     `json:"booking_id"`
	ProductID       int64     `json:"product_id"`
	ProductName     string    `json:"product_name"`
	DurationMinutes int       `json:"duration_minutes"`
	UserName        string    `json:"user_name"`
	UserEmail       string    `json:"user_email"`
	SessionDate     string    `json:"session_date"`
	SessionTime     string    `json:"session_time"`
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
}

type BookingCanceledEvent struct {
	BookingID       int64     `json:"booking_id"`
	ProductName     string    `json:"product_name"`
	UserName        string    `json:"user_name"`
	UserEmail       string    `json:"user_email"`
	SessionDate     string    `json:"session_date"`
	SessionTime     string    `json:"session_time"`
	CalendarEventID string    `json:"calendar_event_id,omitempty"`
	AdminEventID    string    `json:"admin_event_id,omitempty"`
	CanceledAt      time.Time `json:"canceled_at"`
}

type NotificationEvent struct {
	Type      string                 `json:"type"`
	Recipient string                 `json:"recipient"`
	Subject   string                 `json:"subject"`
	Data      map[string]interface{} `json:"data"`
}

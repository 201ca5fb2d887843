// Package events publishes order and discount lifecycle notifications.
// Publishing happens after the owning transaction commits; a failed publish
// never rolls back business state.
package events

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type Type string

const (
	OrderCreated       Type = "order.created"
	OrderStatusChanged Type = "order.status_changed"
	OrderAssigned      Type = "order.assigned"
	DiscountIssued     Type = "discount.issued"
	DiscountRedeemed   Type = "discount.redeemed"
)

// Event is the JSON payload sent on the wire
type Event struct {
	Type       Type      `json:"type"`
	OrderID    uint      `json:"order_id,omitempty"`
	UserID     uint      `json:"user_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	Code       string    `json:"code,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

// LogPublisher writes events to the log. It is used when no broker is
// configured.
type LogPublisher struct {
	log *logrus.Logger
}

var _ Publisher = (*LogPublisher)(nil)

func NewLogPublisher(log *logrus.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	p.log.WithFields(logrus.Fields{
		"event":    event.Type,
		"order_id": event.OrderID,
		"user_id":  event.UserID,
		"status":   event.Status,
		"code":     event.Code,
	}).Info("Domain event")
	return nil
}

func (p *LogPublisher) Close() {}

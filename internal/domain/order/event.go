package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Event types published by the order service.
const (
	EventCreated       = "order.created"
	EventStatusChanged = "order.status_changed"
)

// Event is a domain event describing an order change.
type Event struct {
	Type        string
	OrderID     string
	OrderNumber string
	UserID      string
	Status      Status
	Total       decimal.Decimal
	OccurredAt  time.Time
}

// Publisher delivers order events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// NopPublisher discards events.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification event types published to the kitchen/till displays.
const (
	EventOrderCreated      = "order_created"
	EventStatusUpdated     = "status_updated"
	EventAmendmentProposed = "amendment_proposed"
	EventAmendmentResolved = "amendment_resolved"
	EventPaymentCompleted  = "payment_completed"
)

// OrderEvent is the fire-and-forget notification published on order
// lifecycle changes. Delivery is best-effort; the aggregate is the
// source of truth.
type OrderEvent struct {
	EventType      string      `json:"event_type"`
	TenantID       uuid.UUID   `json:"tenant_id"`
	OrderID        uuid.UUID   `json:"order_id"`
	OrderNumber    string      `json:"order_number"`
	Status         OrderStatus `json:"status"`
	DisplayStatus  string      `json:"display_status"`
	AmendmentCount int         `json:"amendment_count"`
	ActorID        string      `json:"actor_id,omitempty"`
	FinalTotal     float64     `json:"final_total,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
}

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CreateOrderItem is one line of an order-placement request.
type CreateOrderItem struct {
	ProductID  uuid.UUID `json:"product_id" binding:"required"`
	Name       string    `json:"name" binding:"required"`
	UnitPrice  float64   `json:"unit_price" binding:"required,gte=0"`
	Quantity   int       `json:"quantity" binding:"required,min=1"`
	VariantTag string    `json:"variant_tag"`
}

// CreateOrderRequest is the payload for placing a new order.
type CreateOrderRequest struct {
	Items      []CreateOrderItem `json:"items" binding:"required,min=1,dive"`
	CustomerID *uuid.UUID        `json:"customer_id"`
	TableIDs   []uuid.UUID       `json:"table_ids"`
}

// UpdateStatusRequest moves an order along the kitchen lifecycle.
type UpdateStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
}

// ProposeAmendmentRequest carries the proposed item changes.
type ProposeAmendmentRequest struct {
	Ops []AmendmentOp `json:"ops" binding:"required,min=1,dive"`
}

// RespondAmendmentRequest resolves the pending amendment.
type RespondAmendmentRequest struct {
	Approve bool `json:"approve"`
}

// FinancialAdjustments is the service-charge/discount configuration
// applied at preview and settlement time. ManagerPin authorizes
// discounts above the unprivileged ceiling.
type FinancialAdjustments struct {
	ServiceChargeEnabled bool         `json:"service_charge_enabled"`
	ServiceChargePercent float64      `json:"service_charge_percent" binding:"gte=0"`
	DiscountEnabled      bool         `json:"discount_enabled"`
	DiscountType         DiscountType `json:"discount_type"`
	DiscountValue        float64      `json:"discount_value" binding:"gte=0"`
	DiscountReason       string       `json:"discount_reason"`
	ManagerPin           string       `json:"manager_pin,omitempty"`
}

// CompletePaymentRequest settles a served order.
type CompletePaymentRequest struct {
	Method      PaymentMethod        `json:"method" binding:"required,oneof=cash card"`
	Adjustments FinancialAdjustments `json:"adjustments"`
}

// VerifyPinRequest checks a manager override PIN.
type VerifyPinRequest struct {
	Pin string `json:"pin" binding:"required"`
}

// OpenRegisterRequest starts a till session.
type OpenRegisterRequest struct {
	OpeningBalance float64 `json:"opening_balance" binding:"gte=0"`
}

// CashLogRequest records a withdrawal from the open session.
type CashLogRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Reason string  `json:"reason" binding:"required"`
}

// EnqueueMutationRequest is a mutation authored offline, pushed by a
// terminal for replay against the authoritative store.
type EnqueueMutationRequest struct {
	OpID        string          `json:"op_id" binding:"required"`
	OrderID     uuid.UUID       `json:"order_id" binding:"required"`
	Kind        MutationKind    `json:"kind" binding:"required"`
	Payload     json.RawMessage `json:"payload" binding:"required"`
	BaseClock   VectorClock     `json:"base_clock"`
	SubmittedAt time.Time       `json:"submitted_at" binding:"required"`
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusServed    OrderStatus = "served"
	StatusPaid      OrderStatus = "paid"
	StatusDeclined  OrderStatus = "declined"
	StatusCancelled OrderStatus = "cancelled"
)

// allowedTransitions is the edge set accepted by UpdateOrderStatus.
// Paid is reachable only through CompletePayment and Cancelled only
// through the manager-gated cancel operation.
var allowedTransitions = map[OrderStatus]map[OrderStatus]bool{
	StatusPending:   {StatusPreparing: true, StatusDeclined: true},
	StatusPreparing: {StatusReady: true},
	StatusReady:     {StatusServed: true},
}

// CanTransition reports whether UpdateOrderStatus may move from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	return allowedTransitions[s][next]
}

// IsTerminal reports whether no further mutation of the order is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusPaid || s == StatusCancelled || s == StatusDeclined
}

// ItemStatus marks an order line as live or cancelled by an amendment.
type ItemStatus string

const (
	ItemActive    ItemStatus = "active"
	ItemCancelled ItemStatus = "cancelled"
)

// DiscountType mirrors the promotion semantics: percentage of the
// subtotal or a flat amount.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFlat       DiscountType = "flat"
)

// PaymentMethod is how a settled order was paid.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
)

// SyncStatus tracks whether an order has mutations waiting in the
// offline queue.
type SyncStatus string

const (
	SyncSynced  SyncStatus = "synced"
	SyncOffline SyncStatus = "offline"
)

// OrderItem is a single order line. Name and unit price are snapshots
// taken when the line was added; later menu changes never touch them.
type OrderItem struct {
	ID               uuid.UUID  `json:"id"`
	ProductID        uuid.UUID  `json:"product_id"`
	Name             string     `json:"name"`
	UnitPrice        float64    `json:"unit_price"`
	Quantity         int        `json:"quantity"`
	AmendmentVersion int        `json:"amendment_version"` // 0 = original order
	ItemStatus       ItemStatus `json:"item_status"`
	VariantTag       string     `json:"variant_tag,omitempty"`
}

// OrderItems is stored as a jsonb column.
type OrderItems []OrderItem

func (i OrderItems) Value() (driver.Value, error) {
	if i == nil {
		i = OrderItems{}
	}
	return json.Marshal(i)
}

func (i *OrderItems) Scan(value interface{}) error { return scanJSON(value, i) }

// AmendmentOpType is the kind of change carried by an amendment op.
type AmendmentOpType string

const (
	// OpAdd appends a new item line at the amendment's version. A
	// quantity increase on a historical line is expressed as an add
	// carrying only the delta quantity.
	OpAdd AmendmentOpType = "add"
	// OpDelete cancels the earliest active line matching the item ID.
	OpDelete AmendmentOpType = "delete"
	// OpReduce lowers a historical line's quantity in place (partial
	// cancellation, not a new line).
	OpReduce AmendmentOpType = "reduce"
)

// AmendmentOp is one proposed item change. Ops are stored verbatim in
// pending_amendments until the amendment is resolved.
type AmendmentOp struct {
	Type     AmendmentOpType `json:"type"`
	Item     *OrderItem      `json:"item,omitempty"`     // add
	ItemID   uuid.UUID       `json:"item_id,omitempty"`  // delete, reduce
	Quantity int             `json:"quantity,omitempty"` // reduce target quantity
}

// AmendmentOps is stored as a jsonb column.
type AmendmentOps []AmendmentOp

func (a AmendmentOps) Value() (driver.Value, error) {
	if a == nil {
		a = AmendmentOps{}
	}
	return json.Marshal(a)
}

func (a *AmendmentOps) Scan(value interface{}) error { return scanJSON(value, a) }

// History entry statuses recorded alongside lifecycle transitions.
const (
	HistoryAmendmentAccepted = "amendment_accepted"
	HistoryAmendmentDeclined = "amendment_declined"
)

// StatusHistoryEntry is one append-only audit record. Entries are
// tagged with the amendment version current at the time, so the trail
// can be grouped per amendment.
type StatusHistoryEntry struct {
	AmendmentVersion int       `json:"amendment_version"`
	Status           string    `json:"status"`
	Timestamp        time.Time `json:"timestamp"`
}

// StatusHistory is stored as a jsonb column and never mutated in place.
type StatusHistory []StatusHistoryEntry

func (h StatusHistory) Value() (driver.Value, error) {
	if h == nil {
		h = StatusHistory{}
	}
	return json.Marshal(h)
}

func (h *StatusHistory) Scan(value interface{}) error { return scanJSON(value, h) }

// UUIDList is stored as a jsonb column (table linkage).
type UUIDList []uuid.UUID

func (l UUIDList) Value() (driver.Value, error) {
	if l == nil {
		l = UUIDList{}
	}
	return json.Marshal(l)
}

func (l *UUIDList) Scan(value interface{}) error { return scanJSON(value, l) }

// Order is the versioned order aggregate shared by all terminals of a
// tenant. Items, pending amendments, status history and the vector
// clock are serialized as self-describing jsonb; compatibility rests
// on field names, not layout.
type Order struct {
	ID                uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID          uuid.UUID          `gorm:"type:uuid;not null;index" json:"tenant_id"`
	OrderNumber       string             `gorm:"uniqueIndex;not null" json:"order_number"`
	Status            OrderStatus        `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Items             OrderItems         `gorm:"type:jsonb;not null;default:'[]'" json:"items"`
	PendingAmendments AmendmentOps       `gorm:"type:jsonb;not null;default:'[]'" json:"pending_amendments"`
	AmendmentCount    int                `gorm:"not null;default:0" json:"amendment_count"`
	CanAmend          bool               `gorm:"not null;default:true" json:"can_amend"`
	IsAmended         bool               `gorm:"not null;default:false" json:"is_amended"`
	StatusHistory     StatusHistory      `gorm:"type:jsonb;not null;default:'[]'" json:"status_history"`
	VectorClock       VectorClock        `gorm:"type:jsonb;not null;default:'{}'" json:"vector_clock"`
	Subtotal          float64            `gorm:"not null;default:0" json:"subtotal"`
	ServiceCharge     float64            `gorm:"not null;default:0" json:"service_charge"`
	Discount          float64            `gorm:"not null;default:0" json:"discount"`
	DiscountType      DiscountType       `gorm:"type:varchar(20)" json:"discount_type,omitempty"`
	DiscountReason    string             `json:"discount_reason,omitempty"`
	FinalTotal        float64            `gorm:"not null;default:0" json:"final_total"`
	PaymentMethod     PaymentMethod      `gorm:"type:varchar(20)" json:"payment_method,omitempty"`
	CustomerID        *uuid.UUID         `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	TableIDs          UUIDList           `gorm:"type:jsonb;not null;default:'[]'" json:"table_ids"`
	SyncStatus        SyncStatus         `gorm:"type:varchar(20);not null;default:'synced'" json:"sync_status"`
	UpdatedByActor    string             `gorm:"type:varchar(64)" json:"updated_by_actor,omitempty"`
	CreatedAt         time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
	PaidAt            *time.Time         `json:"paid_at,omitempty"`
}

// DisplayStatus returns the status with the informational "Amended-"
// overlay applied while the order carries an accepted amendment.
func (o *Order) DisplayStatus() string {
	if o.IsAmended {
		switch o.Status {
		case StatusPreparing, StatusReady, StatusServed:
			return "amended-" + string(o.Status)
		}
	}
	return string(o.Status)
}

// ActiveItems returns the lines that still count toward the subtotal.
func (o *Order) ActiveItems() []OrderItem {
	out := make([]OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		if it.ItemStatus == ItemActive {
			out = append(out, it)
		}
	}
	return out
}

// RecomputeSubtotal recalculates the subtotal from active lines.
func (o *Order) RecomputeSubtotal() {
	var sum float64
	for _, it := range o.Items {
		if it.ItemStatus == ItemActive {
			sum += it.UnitPrice * float64(it.Quantity)
		}
	}
	o.Subtotal = Round2(sum)
}

// AppendHistory records a status-trail entry tagged with the given
// amendment version.
func (o *Order) AppendHistory(version int, status string) {
	o.StatusHistory = append(o.StatusHistory, StatusHistoryEntry{
		AmendmentVersion: version,
		Status:           status,
		Timestamp:        time.Now().UTC(),
	})
}

// Round2 rounds a monetary amount to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// scanJSON decodes a jsonb column into dest.
func scanJSON(value, dest interface{}) error {
	if value == nil {
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return errors.New("jsonb scan: unsupported column type")
		}
		b = []byte(s)
	}
	return json.Unmarshal(b, dest)
}

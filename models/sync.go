package models

import (
	"time"

	"github.com/google/uuid"
)

// MutationKind identifies which order operation a queued mutation
// replays on the authoritative store.
type MutationKind string

const (
	MutationUpdateStatus     MutationKind = "update_status"
	MutationProposeAmendment MutationKind = "propose_amendment"
	MutationRespondAmendment MutationKind = "respond_amendment"
	MutationUpdateFinancials MutationKind = "update_financials"
	MutationCompletePayment  MutationKind = "complete_payment"
)

// SyncMutation is one order mutation authored while a terminal was
// offline. Mutations replay in submission order per actor; OpID is the
// client-generated idempotency key.
type SyncMutation struct {
	ID          uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OpID        string       `gorm:"type:varchar(64);uniqueIndex;not null" json:"op_id"`
	TenantID    uuid.UUID    `gorm:"type:uuid;not null;index" json:"tenant_id"`
	OrderID     uuid.UUID    `gorm:"type:uuid;not null;index" json:"order_id"`
	ActorID     string       `gorm:"type:varchar(64);not null;index" json:"actor_id"`
	Kind        MutationKind `gorm:"type:varchar(32);not null" json:"kind"`
	Payload     []byte       `gorm:"type:jsonb;not null" json:"payload"`
	BaseClock   VectorClock  `gorm:"type:jsonb;not null;default:'{}'" json:"base_clock"`
	SubmittedAt time.Time    `gorm:"not null;index" json:"submitted_at"`
	Applied     bool         `gorm:"not null;default:false" json:"applied"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

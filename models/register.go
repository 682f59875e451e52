package models

import (
	"time"

	"github.com/google/uuid"
)

// RegisterStatus is the lifecycle state of a till session.
type RegisterStatus string

const (
	RegisterOpen   RegisterStatus = "open"
	RegisterClosed RegisterStatus = "closed"
)

// RegisterSession tracks the expected cash balance of one till session.
// CurrentBalance starts at the opening float, grows with cash payments
// and shrinks with logged withdrawals.
type RegisterSession struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Status         RegisterStatus `gorm:"type:varchar(20);not null;default:'open'" json:"status"`
	OpeningBalance float64        `gorm:"not null" json:"opening_balance"`
	CurrentBalance float64        `gorm:"not null" json:"current_balance"`
	ClosingBalance *float64       `json:"closing_balance,omitempty"`
	OpenedAt       time.Time      `gorm:"autoCreateTime" json:"opened_at"`
	ClosedAt       *time.Time     `json:"closed_at,omitempty"`
}

// CashLog is one recorded withdrawal from an open register session.
type CashLog struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`
	Amount    float64   `gorm:"not null" json:"amount"`
	Reason    string    `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer is the linked customer aggregate. The order core only
// reads and increments its visit counters at settlement time.
type Customer struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Name        string         `gorm:"type:varchar(120)" json:"name"`
	Phone       string         `gorm:"type:varchar(32)" json:"phone,omitempty"`
	TotalOrders int            `gorm:"not null;default:0" json:"total_orders"`
	TotalSpend  float64        `gorm:"not null;default:0" json:"total_spend"`
	LastVisit   *time.Time     `json:"last_visit,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableStatus is the occupancy state of a dining table.
type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableOccupied  TableStatus = "occupied"
)

// Table is a dining table; orders flip it Occupied on placement and
// back to Available on settlement.
type Table struct {
	ID        uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID  uuid.UUID   `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Label     string      `gorm:"type:varchar(32);not null" json:"label"`
	Status    TableStatus `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
	CreatedAt time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// StaffRole determines which actions a terminal user may take without
// a manager override.
type StaffRole string

const (
	RoleAdmin   StaffRole = "admin"
	RoleOwner   StaffRole = "owner"
	RoleManager StaffRole = "manager"
	RoleWaiter  StaffRole = "waiter"
	RoleKitchen StaffRole = "kitchen"
	RoleTill    StaffRole = "till"
)

// IsPrivileged reports whether the role may authorize override-gated
// actions such as large discounts.
func (r StaffRole) IsPrivileged() bool {
	return r == RoleAdmin || r == RoleOwner || r == RoleManager
}

// Staff is a tenant staff member. PinHash is a bcrypt hash of the
// member's override PIN; issuing PINs belongs to the auth layer.
type Staff struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Name      string         `gorm:"type:varchar(120);not null" json:"name"`
	Role      StaffRole      `gorm:"type:varchar(20);not null" json:"role"`
	PinHash   string         `gorm:"type:varchar(100)" json:"-"`
	Active    bool           `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

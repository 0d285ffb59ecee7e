package models

import "time"

// Order statuses. Completed and cancelled are terminal.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// Order kinds: a single-service request from the order form, or a
// marketplace order finalized from a cart.
const (
	OrderTypeService     = "service"
	OrderTypeMarketplace = "marketplace"
)

// AnonymousUserID is the sentinel owner for orders created without a session.
const AnonymousUserID = "anonymous"

// OrderItem is one cart line frozen into an order. Price is the unit
// price at order time and is never recomputed.
type OrderItem struct {
	ProductID string `json:"productId"`
	Title     string `json:"title"`
	Price     int    `json:"price"`
	Quantity  int    `json:"quantity"`
}

// Order represents a customer order of either kind.
type Order struct {
	ID               string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID           string      `json:"userId" gorm:"type:varchar(36);index"`
	CustomerName     string      `json:"customerName" gorm:"type:varchar(100)"`
	CustomerEmail    string      `json:"customerEmail" gorm:"type:varchar(255)"`
	CustomerWhatsApp string      `json:"customerWhatsApp" gorm:"type:varchar(20)"`
	Type             string      `json:"type" gorm:"type:varchar(15)"`
	Service          string      `json:"service,omitempty" gorm:"type:varchar(100)"`
	Items            []OrderItem `json:"items,omitempty" gorm:"serializer:json"`
	Amount           int         `json:"amount"`
	ItemCount        int         `json:"itemCount,omitempty"`
	Status           string      `json:"status" gorm:"type:varchar(15);index"`
	Details          string      `json:"details,omitempty" gorm:"type:varchar(1000)"`
	Source           string      `json:"source,omitempty" gorm:"type:varchar(50)"`
	Migrated         bool        `json:"migrated,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// IsTerminalStatus reports whether no further transition may leave the status.
func IsTerminalStatus(status string) bool {
	return status == OrderStatusCompleted || status == OrderStatusCancelled
}

// ValidOrderStatus reports whether status belongs to the order status enum.
func ValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

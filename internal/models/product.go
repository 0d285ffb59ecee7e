package models

import (
	"strings"
	"time"
)

// Product statuses. Inactive is a soft delete: the record stays in the
// store but is excluded from every shopper-facing listing.
const (
	ProductStatusActive   = "active"
	ProductStatusInactive = "inactive"
)

// Product categories form a closed set; anything else normalizes to "other".
const (
	CategoryElectronics = "electronics"
	CategoryAccessories = "accessories"
	CategoryHome        = "home"
	CategoryFashion     = "fashion"
	CategoryBooks       = "books"
	CategoryOther       = "other"
)

// Product represents a sellable item in the catalog. Prices are whole
// units of local currency (MT), no minor units.
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title       string    `json:"title" gorm:"type:varchar(100)" validate:"required,min=3,max=100"`
	Price       int       `json:"price" validate:"required,gt=0"`
	Description string    `json:"description" gorm:"type:varchar(500)" validate:"omitempty,max=500"`
	Image       string    `json:"image" gorm:"type:varchar(500)"`
	Category    string    `json:"category" gorm:"type:varchar(20)"`
	Status      string    `json:"status" gorm:"type:varchar(10);index"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NormalizeCategory maps an arbitrary category string into the closed set.
func NormalizeCategory(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	switch category {
	case CategoryElectronics, CategoryAccessories, CategoryHome, CategoryFashion, CategoryBooks, CategoryOther:
		return category
	default:
		return CategoryOther
	}
}

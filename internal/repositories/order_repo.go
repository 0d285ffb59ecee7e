package repositories

import "mercado/internal/models"

// OrderRepository defines the interface for order data access.
// Orders are never deleted; they only change status.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	GetByUser(userID string, limit int) ([]models.Order, error)
	Create(order *models.Order) error
	UpdateStatus(id string, status string) error
}

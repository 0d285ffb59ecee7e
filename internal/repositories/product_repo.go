package repositories

import "mercado/internal/models"

// ProductRepository defines the interface for product data access.
// There is no physical delete: products leave the catalog by status
// flip only.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetActive() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
}

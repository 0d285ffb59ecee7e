package services

import (
	"fmt"
	"log"
	"sync"

	"mercado/internal/models"
	"mercado/internal/repositories"
)

// defaultImages maps each category to a stock image used when a product
// is created without one.
var defaultImages = map[string]string{
	models.CategoryElectronics: "https://images.unsplash.com/photo-1498049794561-7780e7231661?w=400",
	models.CategoryAccessories: "https://images.unsplash.com/photo-1523275335684-37898b6baf30?w=400",
	models.CategoryHome:        "https://images.unsplash.com/photo-1586023492125-27b2c045efd7?w=400",
	models.CategoryFashion:     "https://images.unsplash.com/photo-1445205170230-053b83016050?w=400",
	models.CategoryBooks:       "https://images.unsplash.com/photo-1544716278-ca5e3f4abd8c?w=400",
	models.CategoryOther:       "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=400",
}

// ProductService maintains the catalog and pushes the fresh active set
// to subscribers on every mutation.
type ProductService struct {
	repo   repositories.ProductRepository
	events EventPublisher

	mu   sync.Mutex
	subs map[chan []models.Product]struct{}
}

// NewProductService creates a new ProductService. events may be nil.
func NewProductService(repo repositories.ProductRepository, events EventPublisher) *ProductService {
	return &ProductService{
		repo:   repo,
		events: events,
		subs:   make(map[chan []models.Product]struct{}),
	}
}

// ListActive retrieves the shopper-facing catalog: active products,
// newest first. Each call is a fresh snapshot.
func (s *ProductService) ListActive() ([]models.Product, error) {
	return s.repo.GetActive()
}

// ListActiveOrDemo retrieves the active catalog, degrading to the
// built-in demo set when the store cannot be read. The boolean reports
// degradation so the caller can surface a warning instead of a blank page.
func (s *ProductService) ListActiveOrDemo() ([]models.Product, bool) {
	products, err := s.repo.GetActive()
	if err != nil {
		log.Printf("Warning: catalog read failed, serving demo products: %v", err)
		return DemoProducts(), true
	}
	return products, false
}

// GetAll retrieves every product including soft-deleted ones (admin view).
func (s *ProductService) GetAll() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetByID retrieves a single product by its ID regardless of status.
func (s *ProductService) GetByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// Create adds a product to the catalog. The category is normalized into
// the closed set and a default image is assigned when none is given.
// New products always start active.
func (s *ProductService) Create(product *models.Product) error {
	product.Category = models.NormalizeCategory(product.Category)
	if product.Image == "" {
		product.Image = defaultImages[product.Category]
	}
	product.Status = models.ProductStatusActive
	if err := s.repo.Create(product); err != nil {
		return err
	}
	s.notifyCatalogChanged()
	return nil
}

// Update modifies an existing product. The update stamp is bumped by
// the repository.
func (s *ProductService) Update(product *models.Product) error {
	product.Category = models.NormalizeCategory(product.Category)
	if err := s.repo.Update(product); err != nil {
		return err
	}
	s.notifyCatalogChanged()
	return nil
}

// SoftDelete flips a product to inactive. The record is never removed,
// it just stops appearing in active listings.
func (s *ProductService) SoftDelete(id string) error {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return fmt.Errorf("failed to load product %s: %w", id, err)
	}
	if product.Status == models.ProductStatusInactive {
		return nil
	}
	product.Status = models.ProductStatusInactive
	if err := s.repo.Update(product); err != nil {
		return fmt.Errorf("failed to soft-delete product %s: %w", id, err)
	}
	s.notifyCatalogChanged()
	return nil
}

// Subscribe returns a channel that receives the full fresh active set
// after every catalog mutation, plus a cancel function. Slow consumers
// miss intermediate snapshots rather than blocking mutations.
func (s *ProductService) Subscribe() (<-chan []models.Product, func()) {
	ch := make(chan []models.Product, 1)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *ProductService) notifyCatalogChanged() {
	active, err := s.repo.GetActive()
	if err != nil {
		log.Printf("Warning: failed to reload catalog for subscribers: %v", err)
		return
	}

	s.mu.Lock()
	for ch := range s.subs {
		select {
		case ch <- active:
		default:
			// Drop the stale snapshot so the latest one fits.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- active:
			default:
			}
		}
	}
	s.mu.Unlock()

	if s.events != nil {
		if err := s.events.PublishJSON(EventProductChanged, map[string]interface{}{"count": len(active)}); err != nil {
			log.Printf("Warning: failed to publish product event: %v", err)
		}
	}
}

// DemoProducts is the fallback catalog shown when the store is
// unreachable on a public page.
func DemoProducts() []models.Product {
	return []models.Product{
		{
			ID:          "demo-1",
			Title:       "Headphones Premium X",
			Price:       1850,
			Image:       "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=400&h=300&fit=crop",
			Category:    models.CategoryElectronics,
			Description: "Headphones de alta qualidade com cancelamento de ruído",
			Status:      models.ProductStatusActive,
		},
		{
			ID:          "demo-2",
			Title:       "Powerbank 10000mAh",
			Price:       950,
			Image:       "https://images.unsplash.com/photo-1609592760973-8c7b9b0f0e0e?w=400&h=300&fit=crop",
			Category:    models.CategoryElectronics,
			Description: "Powerbank portátil com 2 portas USB",
			Status:      models.ProductStatusActive,
		},
		{
			ID:          "demo-3",
			Title:       "Smart Watch Pro",
			Price:       2200,
			Image:       "https://images.unsplash.com/photo-1523275335684-37898b6baf30?w=400&h=300&fit=crop",
			Category:    models.CategoryElectronics,
			Description: "Relógio inteligente com monitor cardíaco e GPS",
			Status:      models.ProductStatusActive,
		},
		{
			ID:          "demo-4",
			Title:       "Mochila Executiva",
			Price:       1200,
			Image:       "https://images.unsplash.com/photo-1553062407-98eeb64c6a62?w=400&h=300&fit=crop",
			Category:    models.CategoryAccessories,
			Description: "Mochila profissional com compartimento para laptop",
			Status:      models.ProductStatusActive,
		},
	}
}

package services

import (
	"fmt"
	"log"
	"time"

	"mercado/internal/models"
	"mercado/internal/repositories"
	"mercado/pkg/localstore"

	"golang.org/x/crypto/bcrypt"
)

// Local store keys written by the legacy site and consumed exactly once.
const (
	keyLocalProducts       = "gm_products"
	keyLocalOrders         = "gm_orders"
	keyProductsImportedFlg = "gm_products_migrated"
	keyOrdersImportedFlg   = "gm_orders_migrated"
)

// localProduct mirrors the legacy local-storage product shape.
type localProduct struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Price       int    `json:"price"`
	Image       string `json:"image"`
	Img         string `json:"img"` // older records used this key
	Category    string `json:"category"`
	Description string `json:"description"`
}

// localOrder mirrors the legacy local-storage order shape.
type localOrder struct {
	ID       string `json:"id"`
	Name     string `json:"nome"`
	Email    string `json:"email"`
	WhatsApp string `json:"whatsapp"`
	Service  string `json:"servico"`
	Details  string `json:"detalhes"`
	Status   string `json:"status"`
	Created  string `json:"created"`
}

// MigrationService performs the one-time import of locally staged data
// into the shared store. Each import is guarded by a flag so re-running
// it is a no-op.
type MigrationService struct {
	store       *localstore.Store
	productRepo repositories.ProductRepository
	orderRepo   repositories.OrderRepository
	userRepo    repositories.UserRepository
}

// NewMigrationService creates a new MigrationService.
func NewMigrationService(
	store *localstore.Store,
	productRepo repositories.ProductRepository,
	orderRepo repositories.OrderRepository,
	userRepo repositories.UserRepository,
) *MigrationService {
	return &MigrationService{
		store:       store,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		userRepo:    userRepo,
	}
}

// ImportProducts copies locally staged products into the catalog and
// sets the imported flag. Returns the number imported; zero when the
// flag was already set.
func (s *MigrationService) ImportProducts() (int, error) {
	var done bool
	if _, err := s.store.Get(keyProductsImportedFlg, &done); err != nil {
		return 0, err
	}
	if done {
		return 0, nil
	}

	var local []localProduct
	if _, err := s.store.Get(keyLocalProducts, &local); err != nil {
		return 0, err
	}

	imported := 0
	for _, lp := range local {
		image := lp.Image
		if image == "" {
			image = lp.Img
		}
		product := &models.Product{
			ID:          lp.ID,
			Title:       lp.Title,
			Price:       lp.Price,
			Image:       image,
			Category:    models.NormalizeCategory(lp.Category),
			Description: lp.Description,
			Status:      models.ProductStatusActive,
		}
		if err := s.productRepo.Create(product); err != nil {
			return imported, fmt.Errorf("failed to import product %q: %w", lp.Title, err)
		}
		imported++
	}

	if err := s.store.Set(keyProductsImportedFlg, true); err != nil {
		return imported, err
	}
	log.Printf("Imported %d products from local store", imported)
	return imported, nil
}

// ImportOrders copies locally staged orders into the order collection.
// The amount is re-derived from the fixed price table and the owner is
// resolved by email, falling back to the anonymous sentinel.
func (s *MigrationService) ImportOrders() (int, error) {
	var done bool
	if _, err := s.store.Get(keyOrdersImportedFlg, &done); err != nil {
		return 0, err
	}
	if done {
		return 0, nil
	}

	var local []localOrder
	if _, err := s.store.Get(keyLocalOrders, &local); err != nil {
		return 0, err
	}

	imported := 0
	for _, lo := range local {
		userID := models.AnonymousUserID
		if lo.Email != "" {
			if owner, err := s.userRepo.GetByEmail(lo.Email); err == nil {
				userID = owner.ID
			}
		}
		status := lo.Status
		if !models.ValidOrderStatus(status) {
			status = models.OrderStatusPending
		}
		order := &models.Order{
			ID:               lo.ID,
			UserID:           userID,
			CustomerName:     lo.Name,
			CustomerEmail:    lo.Email,
			CustomerWhatsApp: lo.WhatsApp,
			Type:             models.OrderTypeService,
			Service:          lo.Service,
			Details:          lo.Details,
			Amount:           EstimateServicePrice(lo.Service),
			Status:           status,
			Source:           "localstore_migration",
			Migrated:         true,
		}
		if created, err := time.Parse(time.RFC3339, lo.Created); err == nil {
			order.CreatedAt = created
		}
		if err := s.orderRepo.Create(order); err != nil {
			return imported, fmt.Errorf("failed to import order %q: %w", lo.ID, err)
		}
		imported++
	}

	if err := s.store.Set(keyOrdersImportedFlg, true); err != nil {
		return imported, err
	}
	log.Printf("Imported %d orders from local store", imported)
	return imported, nil
}

// CreateSuperAdmin bootstraps an approved administrator account. Meant
// for first-run setup; fails if the email is taken.
func (s *MigrationService) CreateSuperAdmin(name, email, password string) (*models.User, error) {
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	if existing, err := s.userRepo.GetByEmail(email); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrEmailInUse, email)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	admin := &models.User{
		Name:       name,
		Email:      email,
		Password:   string(hashed),
		Type:       models.UserTypeAdmin,
		Approved:   true,
		SuperAdmin: true,
	}
	if err := s.userRepo.Create(admin); err != nil {
		return nil, fmt.Errorf("failed to create super admin: %w", err)
	}
	return admin, nil
}

package services

import (
	"fmt"
	"log"

	"mercado/internal/models"
	"mercado/internal/repositories"
)

// ServicePrices is the fixed service price table in whole MT. Amounts
// are frozen into the order at creation and never recomputed if the
// table changes later.
var ServicePrices = map[string]int{
	"Criação de Imagens com IA":        125,
	"Criação de Currículos":            250,
	"Criação de Sites":                 1500,
	"Criação de Sites com IA (rápido)": 1500,
	"Criação de Logos":                 725,
	"Assistente Virtual":               300,
	"Suporte Técnico Remoto":           350,
	"Resumos Académicos":               200,
}

// EstimateServicePrice looks up the fixed price for a service. An
// unknown service prices at 0, which means "to be negotiated", not an
// error.
func EstimateServicePrice(service string) int {
	return ServicePrices[service]
}

// Statistics summarizes a set of orders. Revenue counts completed
// orders only; every other status contributes zero regardless of amount.
type Statistics struct {
	Count    int            `json:"count"`
	Revenue  int            `json:"revenue"`
	ByStatus map[string]int `json:"byStatus"`
}

// ComputeStatistics derives order statistics. Pure.
func ComputeStatistics(orders []models.Order) Statistics {
	stats := Statistics{
		Count:    len(orders),
		ByStatus: make(map[string]int),
	}
	for _, o := range orders {
		stats.ByStatus[o.Status]++
		if o.Status == models.OrderStatusCompleted {
			stats.Revenue += o.Amount
		}
	}
	return stats
}

// DashboardStats is the admin console overview.
type DashboardStats struct {
	TotalUsers       int `json:"totalUsers"`
	TotalOrders      int `json:"totalOrders"`
	ActiveProducts   int `json:"totalProducts"`
	PendingApprovals int `json:"pendingApprovals"`
	Revenue          int `json:"revenue"`
}

// OrderService handles order creation, status transitions and statistics.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	userRepo    repositories.UserRepository
	productRepo repositories.ProductRepository
	events      EventPublisher
}

// NewOrderService creates a new OrderService. events may be nil.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	userRepo repositories.UserRepository,
	productRepo repositories.ProductRepository,
	events EventPublisher,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		productRepo: productRepo,
		events:      events,
	}
}

// ServiceOrderInput carries the service-request form fields.
type ServiceOrderInput struct {
	CustomerName     string
	CustomerEmail    string
	CustomerWhatsApp string
	Service          string
	Details          string
	Source           string
}

// CreateServiceOrder creates a single-service order. The amount comes
// from the fixed price table; attribution falls back to the anonymous
// sentinel when there is no session. Status always starts pending.
func (s *OrderService) CreateServiceOrder(sess Session, in ServiceOrderInput) (*models.Order, error) {
	order := &models.Order{
		UserID:           sess.OwnerID(),
		CustomerName:     in.CustomerName,
		CustomerEmail:    in.CustomerEmail,
		CustomerWhatsApp: in.CustomerWhatsApp,
		Type:             models.OrderTypeService,
		Service:          in.Service,
		Amount:           EstimateServicePrice(in.Service),
		Status:           models.OrderStatusPending,
		Details:          in.Details,
		Source:           in.Source,
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("failed to create service order: %w", err)
	}
	s.publishOrderEvent(EventOrderCreated, order)
	return order, nil
}

// CreateMarketplaceOrder finalizes a cart into an order for an
// authenticated user. The total and line prices are frozen from the
// cart snapshot.
func (s *OrderService) CreateMarketplaceOrder(user *models.User, cart models.Cart) (*models.Order, error) {
	if user == nil {
		return nil, ErrLoginRequired
	}
	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}
	order := &models.Order{
		UserID:           user.ID,
		CustomerName:     user.Name,
		CustomerEmail:    user.Email,
		CustomerWhatsApp: user.WhatsApp,
		Type:             models.OrderTypeMarketplace,
		Items:            cart.Lines(),
		Amount:           cart.Total(),
		ItemCount:        cart.ItemCount(),
		Status:           models.OrderStatusPending,
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("failed to create marketplace order: %w", err)
	}
	s.publishOrderEvent(EventOrderCreated, order)
	return order, nil
}

// UpdateStatus moves an order to a new status. Setting the current
// status again is a no-op that succeeds; leaving a terminal status
// fails with ErrInvalidTransition. All other transitions are allowed.
func (s *OrderService) UpdateStatus(id string, status string) error {
	if !models.ValidOrderStatus(status) {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return fmt.Errorf("failed to load order %s: %w", id, err)
	}
	if order.Status == status {
		return nil
	}
	if models.IsTerminalStatus(order.Status) {
		return fmt.Errorf("%w: cannot move order %s from %s to %s", ErrInvalidTransition, id, order.Status, status)
	}
	if err := s.orderRepo.UpdateStatus(id, status); err != nil {
		return fmt.Errorf("failed to update order status for order %s: %w", id, err)
	}
	order.Status = status
	s.publishOrderEvent(EventOrderStatusChanged, order)
	return nil
}

// GetAll retrieves all orders, newest first.
func (s *OrderService) GetAll() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

// GetByID retrieves a single order by its ID.
func (s *OrderService) GetByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// ListByUser retrieves the newest orders owned by userID.
func (s *OrderService) ListByUser(userID string, limit int) ([]models.Order, error) {
	return s.orderRepo.GetByUser(userID, limit)
}

// Stats assembles the admin dashboard overview from the repositories.
// The counts and the revenue are independent reads, not a transaction;
// the workload is human-scale and last-write-wins.
func (s *OrderService) Stats() (*DashboardStats, error) {
	users, err := s.userRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load users for stats: %w", err)
	}
	orders, err := s.orderRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load orders for stats: %w", err)
	}
	products, err := s.productRepo.GetActive()
	if err != nil {
		return nil, fmt.Errorf("failed to load products for stats: %w", err)
	}
	pending, err := s.userRepo.ListPendingAdmins()
	if err != nil {
		return nil, fmt.Errorf("failed to load pending approvals for stats: %w", err)
	}

	orderStats := ComputeStatistics(orders)
	return &DashboardStats{
		TotalUsers:       len(users),
		TotalOrders:      orderStats.Count,
		ActiveProducts:   len(products),
		PendingApprovals: len(pending),
		Revenue:          orderStats.Revenue,
	}, nil
}

func (s *OrderService) publishOrderEvent(routingKey string, order *models.Order) {
	if s.events == nil {
		return
	}
	payload := map[string]interface{}{
		"orderId": order.ID,
		"userId":  order.UserID,
		"type":    order.Type,
		"status":  order.Status,
		"amount":  order.Amount,
	}
	if err := s.events.PublishJSON(routingKey, payload); err != nil {
		log.Printf("Warning: failed to publish %s for order %s: %v", routingKey, order.ID, err)
	}
}

package services

import (
	"fmt"
	"sync"
	"time"

	"mercado/internal/models"
	"mercado/pkg/localstore"
)

const cartKeyPrefix = "gm_cart:"

// CartService stages selected items per scope before they become an
// order. Carts live in the local scoped store, not the shared database,
// and survive restarts. Lines are merged by title, not product id; two
// distinct products sharing a title would merge incorrectly. That
// matches the shipped behavior and is kept as-is; the product id is
// carried on each line so the key could change later.
type CartService struct {
	store  *localstore.Store
	orders *OrderService
	mu     sync.Mutex
}

// NewCartService creates a new CartService.
func NewCartService(store *localstore.Store, orders *OrderService) *CartService {
	return &CartService{
		store:  store,
		orders: orders,
	}
}

// Get returns the cart for scope, empty if none was staged yet.
func (s *CartService) Get(scope string) (models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(scope)
}

// AddItem stages one unit of a product. A line with the same title has
// its quantity incremented instead of duplicating.
func (s *CartService) AddItem(scope, title string, price int, productID string) (models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.load(scope)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range cart {
		if cart[i].Title == title {
			cart[i].Quantity++
			merged = true
			break
		}
	}
	if !merged {
		if productID == "" {
			productID = fmt.Sprintf("item-%d", time.Now().UnixNano())
		}
		cart = append(cart, models.CartItem{
			ProductID: productID,
			Title:     title,
			Price:     price,
			Quantity:  1,
			AddedAt:   time.Now(),
		})
	}

	if err := s.save(scope, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateQuantity sets the quantity of the line at index. A quantity of
// zero or less removes the line.
func (s *CartService) UpdateQuantity(scope string, index, quantity int) (models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.load(scope)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(cart) {
		return nil, fmt.Errorf("cart line %d out of range", index)
	}

	if quantity <= 0 {
		cart = append(cart[:index], cart[index+1:]...)
	} else {
		cart[index].Quantity = quantity
	}

	if err := s.save(scope, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem drops the line at index.
func (s *CartService) RemoveItem(scope string, index int) (models.Cart, error) {
	return s.UpdateQuantity(scope, index, 0)
}

// Clear empties the cart for scope.
func (s *CartService) Clear(scope string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Remove(cartKeyPrefix + scope)
}

// Checkout converts the staged cart into one marketplace order. An
// empty cart is refused with ErrEmptyCart; an anonymous session with
// ErrLoginRequired, leaving the cart intact for after login. The cart
// is cleared only after the order write is acknowledged, so a failed
// write keeps it retryable.
func (s *CartService) Checkout(scope string, sess Session) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.load(scope)
	if err != nil {
		return nil, err
	}
	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}
	if !sess.IsLoggedIn() {
		return nil, ErrLoginRequired
	}

	order, err := s.orders.CreateMarketplaceOrder(sess.User, cart)
	if err != nil {
		return nil, err
	}
	if err := s.store.Remove(cartKeyPrefix + scope); err != nil {
		// The order exists; a stale cart is the lesser failure.
		return order, fmt.Errorf("order %s created but cart not cleared: %w", order.ID, err)
	}
	return order, nil
}

func (s *CartService) load(scope string) (models.Cart, error) {
	var cart models.Cart
	if _, err := s.store.Get(cartKeyPrefix+scope, &cart); err != nil {
		return nil, fmt.Errorf("failed to load cart for %s: %w", scope, err)
	}
	return cart, nil
}

func (s *CartService) save(scope string, cart models.Cart) error {
	if err := s.store.Set(cartKeyPrefix+scope, cart); err != nil {
		return fmt.Errorf("failed to save cart for %s: %w", scope, err)
	}
	return nil
}

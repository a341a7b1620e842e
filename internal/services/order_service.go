package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"tienda/internal/models"
	"tienda/internal/repositories"
)

// EventPublisher publishes order events to the message broker. A nil
// publisher disables eventing; publish failures never fail the request.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// OrderService handles the order workflow: converting a user's cart into a
// persisted order with snapshotted line items, and moving orders through
// the fixed status progression.
type OrderService struct {
	repo      repositories.OrderRepository
	publisher EventPublisher
	timeout   time.Duration

	// one mutex per user, so two checkouts from the same user cannot race
	// each other; cart mutations racing a checkout are handled by the
	// id-scoped cart delete in the repository
	userLocks sync.Map
}

// NewOrderService creates a new OrderService. timeout bounds the checkout
// transaction; zero or negative means no bound.
func NewOrderService(repo repositories.OrderRepository, publisher EventPublisher, timeout time.Duration) *OrderService {
	return &OrderService{
		repo:      repo,
		publisher: publisher,
		timeout:   timeout,
	}
}

func (s *OrderService) lockUser(userID string) *sync.Mutex {
	mu, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// CreateOrder converts the user's cart into a new pending order. The cart
// read, the order insert, the line snapshots and the cart clear run as one
// transaction; the order total is computed server-side from the snapshot
// subtotals. An empty cart fails with ErrEmptyCart and writes nothing.
func (s *OrderService) CreateOrder(ctx context.Context, userID string) (*models.Order, error) {
	mu := s.lockUser(userID)
	mu.Lock()
	defer mu.Unlock()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	order, err := s.repo.CreateFromCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.publish("order.created", map[string]interface{}{
		"order_id":  order.ID,
		"user_id":   order.UserID,
		"status_id": order.StatusID,
		"total":     order.Total,
	})
	return order, nil
}

// AdvanceStatus moves one of the user's orders forward through the status
// progression. The target must be a known status and strictly greater than
// the current one; moving backward or to an unknown status fails with
// ErrInvalidTransition.
func (s *OrderService) AdvanceStatus(orderID, userID string, targetStatusID int) error {
	if targetStatusID < models.StatusPending || targetStatusID > models.StatusDelivered {
		return fmt.Errorf("status %d is not in the vocabulary: %w", targetStatusID, ErrInvalidTransition)
	}

	order, err := s.ownedOrder(orderID, userID)
	if err != nil {
		return err
	}
	if targetStatusID <= order.StatusID {
		return fmt.Errorf("cannot move order %s from status %d to %d: %w",
			orderID, order.StatusID, targetStatusID, ErrInvalidTransition)
	}

	if err := s.repo.UpdateStatus(orderID, targetStatusID); err != nil {
		return err
	}

	s.publish("order.status", map[string]interface{}{
		"order_id":  orderID,
		"status_id": targetStatusID,
	})
	return nil
}

// ListOrders returns the user's orders joined with their status name,
// newest first.
func (s *OrderService) ListOrders(userID string) ([]models.OrderSummary, error) {
	return s.repo.ListByUser(userID)
}

// ListOrderLines returns the snapshot lines of one of the user's orders in
// creation order.
func (s *OrderService) ListOrderLines(orderID, userID string) ([]models.OrderLine, error) {
	if _, err := s.ownedOrder(orderID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListLines(orderID)
}

// ownedOrder loads an order and checks it belongs to the user. An order
// owned by someone else is indistinguishable from a missing one.
func (s *OrderService) ownedOrder(orderID, userID string) (*models.Order, error) {
	order, err := s.repo.GetByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	return order, nil
}

// publish sends an event to the broker, best-effort.
func (s *OrderService) publish(routingKey string, payload map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", routingKey, err)
		return
	}
	if err := s.publisher.Publish(routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}

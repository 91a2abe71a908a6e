package orders

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/glowcart-dev/glowcart/internal/models"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrEmptyOrder        = errors.New("order has no line items")
	ErrUnknownItem       = errors.New("order references an unknown item")
	ErrOutOfStock        = errors.New("item is out of stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInvalidStatus     = errors.New("unknown order status")
	ErrInvalidTransition = errors.New("status transition not allowed")
)

// Line is one requested item/quantity pair for a new order
type Line struct {
	ItemID   string
	Quantity int
}

// Service manages order creation and fulfilment status
type Service struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewService creates a new orders service
func NewService(db *gorm.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.With().Str("component", "orders").Logger(),
	}
}

// transitions maps each status to the statuses it may move to
var transitions = map[string][]string{
	models.OrderStatusPending:   {models.OrderStatusPaid, models.OrderStatusCancelled},
	models.OrderStatusPaid:      {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:   {models.OrderStatusDelivered},
	models.OrderStatusDelivered: {},
	models.OrderStatusCancelled: {},
}

// Create places an order for the given user, capturing unit prices from the
// catalog at purchase time.
func (s *Service) Create(userID string, lines []Line) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}

	var order *models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order = &models.Order{
			UserID:   userID,
			Status:   models.OrderStatusPending,
			Currency: "USD",
		}

		var orderItems []models.OrderItem
		var total int64
		for _, line := range lines {
			if line.Quantity <= 0 {
				return ErrInvalidQuantity
			}

			var item models.Item
			if err := models.FindByID(tx, line.ItemID, &item); err != nil {
				if err == gorm.ErrRecordNotFound {
					return fmt.Errorf("%w: %s", ErrUnknownItem, line.ItemID)
				}
				return fmt.Errorf("failed to load item: %w", err)
			}
			if !item.InStock {
				return fmt.Errorf("%w: %s", ErrOutOfStock, item.Name)
			}

			orderItems = append(orderItems, models.OrderItem{
				ItemID:         item.ID,
				Quantity:       line.Quantity,
				UnitPriceCents: item.PriceCents,
			})
			total += item.PriceCents * int64(line.Quantity)
			order.Currency = item.Currency
		}

		order.TotalCents = total
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for i := range orderItems {
			orderItems[i].OrderID = order.ID
		}
		if err := tx.Create(&orderItems).Error; err != nil {
			return fmt.Errorf("failed to create order items: %w", err)
		}
		order.Items = orderItems
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Str("user_id", userID).
		Int64("total_cents", order.TotalCents).
		Msg("Order created")

	return order, nil
}

// ListAll returns every order with its line items, newest first. Staff only
// at the handler layer.
func (s *Service) ListAll() ([]models.Order, error) {
	var orders []models.Order
	err := s.db.
		Preload("Items").
		Preload("Items.Item").
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ListForUser returns a single user's orders, newest first
func (s *Service) ListForUser(userID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.
		Preload("Items").
		Preload("Items.Item").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus moves an order along the fulfilment state machine
func (s *Service) UpdateStatus(orderID, status string) (*models.Order, error) {
	if _, known := transitions[status]; !known {
		return nil, ErrInvalidStatus
	}

	var order models.Order
	if err := models.FindByID(s.db, orderID, &order); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if !transitionAllowed(order.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, status)
	}

	order.Status = status
	if err := s.db.Save(&order).Error; err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Str("status", status).
		Msg("Order status updated")

	return &order, nil
}

func transitionAllowed(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/glowcart-dev/glowcart/internal/models"
	"github.com/glowcart-dev/glowcart/internal/orders"
	"github.com/glowcart-dev/glowcart/internal/tasks"
)

// CreateOrderRequest places an order for the authenticated user
type CreateOrderRequest struct {
	Lines []OrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// OrderLineRequest is one item/quantity pair
type OrderLineRequest struct {
	ItemID   string `json:"item_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

// UpdateOrderRequest moves an order to a new fulfilment status
type UpdateOrderRequest struct {
	Status string `json:"status" binding:"required"`
}

// @Summary Create order
// @Description Place an order from cart line items
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateOrderRequest true "Create order request"
// @Success 201 {object} models.Order
// @Failure 400 {object} map[string]interface{}
// @Router /api/cart/create [post]
func (s *Server) createOrder(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lines := make([]orders.Line, len(req.Lines))
	for i, line := range req.Lines {
		lines[i] = orders.Line{ItemID: line.ItemID, Quantity: line.Quantity}
	}

	order, err := s.ordersService.Create(sessionData.UserID, lines)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrEmptyOrder),
			errors.Is(err, orders.ErrInvalidQuantity),
			errors.Is(err, orders.ErrUnknownItem),
			errors.Is(err, orders.ErrOutOfStock):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			s.logger.Error().Err(err).Msg("Failed to create order")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		}
		return
	}

	c.JSON(http.StatusCreated, order)
}

// @Summary List own orders
// @Description Orders placed by the authenticated user
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Order
// @Router /api/cart/mine [get]
func (s *Server) listMyOrders(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	list, err := s.ordersService.ListForUser(sessionData.UserID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list orders")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary List all orders
// @Description All orders in the store (staff only)
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Order
// @Failure 403 {object} map[string]interface{}
// @Router /api/cart/all [get]
func (s *Server) listAllOrders(c *gin.Context) {
	list, err := s.ordersService.ListAll()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list orders")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Update order status
// @Description Move an order along the fulfilment state machine (staff only)
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param request body UpdateOrderRequest true "Update order request"
// @Success 200 {object} models.Order
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/cart/{id} [patch]
func (s *Server) updateOrderStatus(c *gin.Context) {
	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := s.ordersService.UpdateStatus(c.Param("id"), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.Is(err, orders.ErrInvalidStatus), errors.Is(err, orders.ErrInvalidTransition):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			s.logger.Error().Err(err).Msg("Failed to update order")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	// Notify the customer asynchronously; a queue hiccup must not fail
	// the update itself
	var user models.User
	if err := models.FindByID(s.db, order.UserID, &user); err == nil {
		if task, err := tasks.NewSendOrderStatusEmailTask(user.Email, order.ID, order.Status); err == nil {
			if _, err := s.enqueuer.Enqueue(task); err != nil {
				s.logger.Warn().Err(err).Str("order_id", order.ID).Msg("Failed to enqueue order status email")
			}
		}
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().
		Str("order_id", order.ID).
		Str("status", order.Status).
		Str("updated_by", sessionData.UserID).
		Msg("Order status updated by staff")

	c.JSON(http.StatusOK, order)
}

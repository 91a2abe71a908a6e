package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/glowcart-dev/glowcart/internal/catalog"
)

// PaginatedItemsResponse is one page of the catalog
type PaginatedItemsResponse struct {
	Items interface{} `json:"items"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
	Total int64       `json:"total"`
}

// @Summary List items
// @Description Full product catalog
// @Tags items
// @Produce json
// @Success 200 {array} models.Item
// @Router /api/items/all [get]
func (s *Server) listItems(c *gin.Context) {
	items, err := s.catalogService.List()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list items")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// @Summary Get item
// @Description Single catalog item
// @Tags items
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} models.Item
// @Failure 404 {object} map[string]interface{}
// @Router /api/items/{id} [get]
func (s *Server) getItem(c *gin.Context) {
	item, err := s.catalogService.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to get item")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, item)
}

// @Summary Paginate items
// @Description One page of the catalog
// @Tags items
// @Produce json
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size"
// @Success 200 {object} PaginatedItemsResponse
// @Router /api/items/paginate [get]
func (s *Server) paginateItems(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	items, total, err := s.catalogService.Paginate(page, limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to paginate items")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	c.JSON(http.StatusOK, PaginatedItemsResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

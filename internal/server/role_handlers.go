package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/glowcart-dev/glowcart/internal/models"
)

// RoleDetail represents a role in responses
type RoleDetail struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StaffTier   bool   `json:"staff_tier"`
}

// @Summary Get role
// @Description Look up a role by id
// @Tags roles
// @Produce json
// @Security BearerAuth
// @Param id path string true "Role ID"
// @Success 200 {object} RoleDetail
// @Failure 404 {object} map[string]interface{}
// @Router /api/roles/{id} [get]
func (s *Server) getRole(c *gin.Context) {
	var role models.Role
	if err := models.FindByID(s.db, c.Param("id"), &role); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Role not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find role")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, RoleDetail{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		StaffTier:   models.IsStaffTier(role.Name),
	})
}

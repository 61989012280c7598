// internal/handlers/common.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/shop-backend/internal/models"
	"github.com/javajoker/shop-backend/internal/services"
	"github.com/javajoker/shop-backend/internal/utils"
)

// Admin listings page size bounds.
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// currentActor builds the caller identity from what AuthRequired stored.
func currentActor(c *gin.Context) services.Actor {
	id, _ := utils.GetUserIDFromContext(c)
	role, _ := utils.GetUserRoleFromContext(c)
	return services.Actor{
		ID:   id,
		Name: utils.GetUserNameFromContext(c),
		Role: models.Role(role),
	}
}

// bindJSON decodes the body into req and writes a 400 when it cannot.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return false
	}
	return true
}

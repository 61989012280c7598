// internal/handlers/user.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/shop-backend/internal/i18n"
	"github.com/javajoker/shop-backend/internal/services"
	"github.com/javajoker/shop-backend/internal/utils"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GET /me
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), currentActor(c).ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"user": user})
}

// PUT /me/update
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req services.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), currentActor(c), &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyUserProfileUpdated),
		"user":    user,
	})
}

// GET /admin/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	page := utils.GetPageRequest(c, defaultPageSize, maxPageSize)

	users, total, err := h.userService.ListUsers(c.Request.Context(), page)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	info := utils.NewPageInfo(total, page)
	utils.SetPaginationHeaders(c, info)
	utils.SuccessResponse(c, gin.H{
		"users":      users,
		"pagination": info,
	})
}

// GET /admin/user/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"user": user})
}

// PUT /admin/user/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req services.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"user": user})
}

// DELETE /admin/user/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.userService.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyUserDeleted),
	})
}

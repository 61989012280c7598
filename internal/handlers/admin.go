// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/shop-backend/internal/services"
	"github.com/javajoker/shop-backend/internal/utils"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// GET /admin/dashboard/stats
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"stats": stats,
	})
}

// GET /admin/audit-logs
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	page := utils.GetPageRequest(c, defaultPageSize, maxPageSize)

	logs, total, err := h.adminService.ListAuditLogs(c.Request.Context(), page)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	info := utils.NewPageInfo(total, page)
	utils.SetPaginationHeaders(c, info)
	utils.SuccessResponse(c, gin.H{
		"logs":       logs,
		"pagination": info,
	})
}

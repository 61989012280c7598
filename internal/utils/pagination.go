// internal/utils/pagination.go
package utils

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PageRequest drives the relational admin listings (users, orders).
// Catalog listings go through the query package instead.
type PageRequest struct {
	Page  int
	Limit int
	Sort  string
	Order string
}

type PageInfo struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

func GetPageRequest(c *gin.Context, defaultLimit, maxLimit int) PageRequest {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}
	order := c.DefaultQuery("order", "desc")
	if order != "asc" && order != "desc" {
		order = "desc"
	}

	return PageRequest{
		Page:  page,
		Limit: limit,
		Sort:  c.Query("sort"),
		Order: order,
	}
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Apply adds offset, limit and ordering to a gorm query. Sort columns
// outside allowed fall back to created_at.
func (p PageRequest) Apply(db *gorm.DB, allowed ...string) *gorm.DB {
	column := "created_at"
	for _, field := range allowed {
		if field == p.Sort {
			column = field
			break
		}
	}
	return db.Order(column + " " + p.Order).Offset(p.Offset()).Limit(p.Limit)
}

func NewPageInfo(total int64, req PageRequest) PageInfo {
	return PageInfo{
		Page:       req.Page,
		Limit:      req.Limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(req.Limit))),
	}
}

func SetPaginationHeaders(c *gin.Context, info PageInfo) {
	c.Header("X-Total-Count", strconv.FormatInt(info.Total, 10))
	c.Header("X-Page", strconv.Itoa(info.Page))
	c.Header("X-Per-Page", strconv.Itoa(info.Limit))
	c.Header("X-Total-Pages", strconv.Itoa(info.TotalPages))
}

// internal/services/admin_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"gorm.io/gorm"

	"github.com/javajoker/shop-backend/internal/models"
	"github.com/javajoker/shop-backend/internal/repository"
	"github.com/javajoker/shop-backend/internal/utils"
)

type AdminService struct {
	db       *gorm.DB
	products repository.ProductRepository
}

type AdminDashboardStats struct {
	TotalUsers        int64            `json:"totalUsers"`
	NewUsersThisMonth int64            `json:"newUsersThisMonth"`
	TotalProducts     int64            `json:"totalProducts"`
	OutOfStock        int64            `json:"outOfStock"`
	TotalOrders       int64            `json:"totalOrders"`
	OrdersByStatus    map[string]int64 `json:"ordersByStatus"`
	TotalRevenue      decimal.Decimal  `json:"totalRevenue"`
	MonthlyRevenue    decimal.Decimal  `json:"monthlyRevenue"`
	UserGrowth        float64          `json:"userGrowth"`
	RevenueGrowth     float64          `json:"revenueGrowth"`
}

func NewAdminService(db *gorm.DB, products repository.ProductRepository) *AdminService {
	return &AdminService{
		db:       db,
		products: products,
	}
}

func (s *AdminService) GetDashboardStats(ctx context.Context) (*AdminDashboardStats, error) {
	db := s.db.WithContext(ctx)
	stats := &AdminDashboardStats{OrdersByStatus: map[string]int64{}}
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	// User statistics
	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, utils.Internal(fmt.Errorf("failed to count users: %w", err))
	}
	db.Model(&models.User{}).Where("created_at >= ?", monthStart).Count(&stats.NewUsersThisMonth)

	var lastMonthUsers int64
	db.Model(&models.User{}).
		Where("created_at >= ? AND created_at < ?", lastMonthStart, monthStart).
		Count(&lastMonthUsers)

	// Catalog statistics
	var err error
	if stats.TotalProducts, err = s.products.Count(ctx, bson.M{}); err != nil {
		return nil, utils.Internal(err)
	}
	if stats.OutOfStock, err = s.products.Count(ctx, bson.M{"stock": bson.M{"$lte": 0}}); err != nil {
		return nil, utils.Internal(err)
	}

	// Order statistics
	db.Model(&models.Order{}).Count(&stats.TotalOrders)

	var byStatus []struct {
		OrderStatus string
		Count       int64
	}
	if err := db.Model(&models.Order{}).
		Select("order_status, COUNT(*) AS count").
		Group("order_status").
		Scan(&byStatus).Error; err != nil {
		return nil, utils.Internal(fmt.Errorf("failed to group orders: %w", err))
	}
	for _, row := range byStatus {
		stats.OrdersByStatus[row.OrderStatus] = row.Count
	}

	// Revenue statistics, paid orders only
	paid := func() *gorm.DB {
		return db.Model(&models.Order{}).
			Select("COALESCE(SUM(total_price), 0)").
			Where("payment_status = ?", models.PaymentStatusSucceeded)
	}
	if err := paid().Row().Scan(&stats.TotalRevenue); err != nil {
		return nil, utils.Internal(fmt.Errorf("failed to sum revenue: %w", err))
	}
	if err := paid().Where("paid_at >= ?", monthStart).Row().Scan(&stats.MonthlyRevenue); err != nil {
		return nil, utils.Internal(fmt.Errorf("failed to sum revenue: %w", err))
	}
	lastMonthRevenue := decimal.Zero
	if err := paid().Where("paid_at >= ? AND paid_at < ?", lastMonthStart, monthStart).
		Row().Scan(&lastMonthRevenue); err != nil {
		return nil, utils.Internal(fmt.Errorf("failed to sum revenue: %w", err))
	}

	// Growth calculations
	stats.UserGrowth = growth(decimal.NewFromInt(stats.NewUsersThisMonth), decimal.NewFromInt(lastMonthUsers))
	stats.RevenueGrowth = growth(stats.MonthlyRevenue, lastMonthRevenue)

	return stats, nil
}

// growth is the percentage change from previous to current, 0 when there
// is no previous value.
func growth(current, previous decimal.Decimal) float64 {
	if !previous.IsPositive() {
		return 0
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}

func (s *AdminService) ListAuditLogs(ctx context.Context, page utils.PageRequest) ([]models.AuditLog, int64, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.AuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, utils.Internal(fmt.Errorf("failed to count audit logs: %w", err))
	}

	logs := []models.AuditLog{}
	if err := page.Apply(db, "created_at", "action", "resource_type").Find(&logs).Error; err != nil {
		return nil, 0, utils.Internal(fmt.Errorf("failed to fetch audit logs: %w", err))
	}
	return logs, total, nil
}

// RecordAudit stores one audit entry. Failures are returned to the caller,
// which decides whether they matter.
func (s *AdminService) RecordAudit(ctx context.Context, entry *models.AuditLog) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

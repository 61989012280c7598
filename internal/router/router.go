// internal/router/router.go
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/javajoker/shop-backend/internal/config"
	"github.com/javajoker/shop-backend/internal/handlers"
	"github.com/javajoker/shop-backend/internal/middleware"
	"github.com/javajoker/shop-backend/internal/utils"
)

// Largest multipart body kept in memory by the image upload route.
const maxMultipartMemory = 32 << 20

type Handlers struct {
	Auth    *handlers.AuthHandler
	User    *handlers.UserHandler
	Product *handlers.ProductHandler
	Review  *handlers.ReviewHandler
	Order   *handlers.OrderHandler
	Payment *handlers.PaymentHandler
	Admin   *handlers.AdminHandler
	Health  *handlers.HealthHandler
}

// Dependencies are the middleware collaborators shared by every route.
type Dependencies struct {
	Config   *config.Config
	Tokens   *utils.TokenManager
	Users    middleware.UserLookup
	Audit    middleware.AuditRecorder
	Limiters *middleware.Limiters
}

func Initialize(deps Dependencies, h Handlers) *gin.Engine {
	cfg := deps.Config
	authRequired := middleware.AuthRequired(deps.Tokens, deps.Users, cfg.Cookie.Name)

	r := gin.New()
	r.MaxMultipartMemory = maxMultipartMemory

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.PrometheusMetrics())
	r.Use(middleware.CORS(cfg.Frontend.BaseURL))
	r.Use(middleware.I18nMiddleware())

	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Images of the local store; S3 serves its own.
	if cfg.AWS.AccessKeyID == "" {
		r.Static("/uploads", cfg.Uploads.Dir)
	}

	v1 := r.Group("/api/v1")
	v1.Use(deps.Limiters.General.Middleware())
	{
		// Authentication routes
		auth := v1.Group("")
		auth.Use(deps.Limiters.Auth.Middleware())
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/password/forgot", h.Auth.ForgotPassword)
			auth.PUT("/password/reset/:token", h.Auth.ResetPassword)
		}
		v1.GET("/logout", h.Auth.Logout)

		// Catalog, public
		v1.GET("/products", h.Product.GetProducts)
		v1.GET("/product/:id", h.Product.GetProduct)
		v1.GET("/reviews", h.Review.GetReviews)

		// Authenticated user routes
		protected := v1.Group("")
		protected.Use(authRequired)
		{
			protected.GET("/me", h.User.GetProfile)
			protected.PUT("/me/update", h.User.UpdateProfile)
			protected.PUT("/password/update", h.Auth.UpdatePassword)

			protected.PUT("/review", h.Review.UpsertReview)
			protected.DELETE("/review", h.Review.DeleteReview)

			protected.POST("/order/new", h.Order.CreateOrder)
			protected.GET("/order/:id", h.Order.GetOrder)
			protected.GET("/orders/me", h.Order.MyOrders)

			protected.POST("/payment/process", h.Payment.ProcessPayment)
			protected.POST("/payment/confirm", h.Payment.ConfirmPayment)
			protected.GET("/stripeapikey", h.Payment.SendStripeAPIKey)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(authRequired, middleware.AdminRequired(), middleware.AuditLog(deps.Audit))
		{
			admin.GET("/dashboard/stats", h.Admin.GetDashboardStats)
			admin.GET("/audit-logs", h.Admin.GetAuditLogs)

			admin.GET("/users", h.User.ListUsers)
			admin.GET("/user/:id", h.User.GetUser)
			admin.PUT("/user/:id", h.User.UpdateUser)
			admin.DELETE("/user/:id", h.User.DeleteUser)

			admin.GET("/products", h.Product.AdminGetProducts)
			admin.POST("/product/new", h.Product.CreateProduct)
			admin.POST("/product/images", h.Product.UploadImages)
			admin.PUT("/product/:id", h.Product.UpdateProduct)
			admin.DELETE("/product/:id", h.Product.DeleteProduct)

			admin.GET("/orders", h.Order.ListOrders)
			admin.PUT("/order/:id", h.Order.UpdateOrderStatus)
			admin.DELETE("/order/:id", h.Order.DeleteOrder)

			admin.POST("/payment/refund", h.Payment.RefundOrder)
		}
	}

	return r
}

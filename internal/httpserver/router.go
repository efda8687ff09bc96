package httpserver

import (
	"errors"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/logger"
)

// buildRouter wires routes for the API.
func buildRouter(log *zap.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.AuthSvc == nil || deps.CatalogSvc == nil || deps.CartSvc == nil ||
		deps.CheckoutSvc == nil || deps.OrderSvc == nil {
		return nil, errors.New("httpserver: missing dependency")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(logger.RequestLogger(log), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{deps: deps, logger: log}

	router.POST("/auth/signup", h.signup)
	router.POST("/auth/login", h.login)

	router.GET("/products", h.listProducts)
	router.GET("/products/:id", h.getProduct)

	// Signature-gated instead of session-gated.
	router.POST("/webhooks/razorpay", h.razorpayWebhook)

	authed := router.Group("/", h.requireAuth)
	{
		authed.POST("/auth/logout", h.logout)
		authed.GET("/auth/me", h.me)

		authed.GET("/cart", h.getCart)
		authed.POST("/cart/items", h.addCartItem)
		authed.DELETE("/cart/items/:productId", h.removeCartItem)

		authed.POST("/checkout", h.initiateCheckout)
		authed.POST("/checkout/confirm", h.confirmPayment)

		authed.GET("/orders", h.listOrders)
		authed.GET("/orders/:id", h.getOrder)
	}

	admin := router.Group("/admin", h.requireAuth, h.requireAdmin)
	{
		admin.POST("/products", h.createProduct)
		admin.PUT("/products/:id", h.updateProduct)
		admin.DELETE("/products/:id", h.deleteProduct)
		admin.GET("/orders", h.adminListOrders)
		admin.GET("/stats", h.adminStats)
	}

	return router, nil
}

type handlers struct {
	deps   Deps
	logger *zap.Logger
}

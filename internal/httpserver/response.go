package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

// respondError maps the domain error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var stockErr *domain.InsufficientStockError
	var gwErr *domain.GatewayError

	switch {
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":     "insufficient stock",
			"productId": stockErr.ProductID,
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
	case errors.As(err, &gwErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment gateway unavailable", "detail": gwErr.Body})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	case errors.Is(err, domain.ErrInUseConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrOrderStateConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "order already finalized"})
	case errors.Is(err, domain.ErrPaymentVerificationFailed):
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment verification failed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

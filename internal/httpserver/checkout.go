package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

type checkoutRequest struct {
	Items []checkoutItem `json:"items" binding:"required"`
}

type checkoutItem struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

func (h *handlers) initiateCheckout(c *gin.Context) {
	var in checkoutRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	lines := make([]domain.CartLine, 0, len(in.Items))
	for _, it := range in.Items {
		lines = append(lines, domain.CartLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	session := currentSession(c)
	result, err := h.deps.CheckoutSvc.InitiateCheckout(c.Request.Context(), session.UserID, lines)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type confirmPaymentRequest struct {
	OrderID           string `json:"orderId" binding:"required"`
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
}

func (h *handlers) confirmPayment(c *gin.Context) {
	var in confirmPaymentRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	session := currentSession(c)
	order, err := h.deps.CheckoutSvc.ConfirmPayment(
		c.Request.Context(),
		session.UserID,
		in.OrderID,
		in.RazorpayOrderID,
		in.RazorpayPaymentID,
		in.RazorpaySignature,
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

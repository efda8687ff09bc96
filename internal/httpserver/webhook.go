package httpserver

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	checkoutsvc "storefront/internal/service/checkout"
)

const razorpaySignatureHeader = "X-Razorpay-Signature"

// razorpayWebhook reads the raw body before any parsing; the signature
// is over the bytes exactly as delivered.
func (h *handlers) razorpayWebhook(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "unreadable body"})
		return
	}

	outcome, err := h.deps.CheckoutSvc.HandleWebhook(
		c.Request.Context(),
		rawBody,
		c.GetHeader(razorpaySignatureHeader),
	)
	if outcome == checkoutsvc.WebhookRejected {
		// Failure response so the provider logs and retries; nothing
		// was mutated.
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "rejected"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

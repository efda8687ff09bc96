package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *handlers) getCart(c *gin.Context) {
	session := currentSession(c)
	cart, err := h.deps.CartSvc.Get(c.Request.Context(), session.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

type addCartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

func (h *handlers) addCartItem(c *gin.Context) {
	var in addCartItemRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	session := currentSession(c)
	cart, err := h.deps.CartSvc.AddItem(c.Request.Context(), session.UserID, in.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *handlers) removeCartItem(c *gin.Context) {
	session := currentSession(c)
	cart, err := h.deps.CartSvc.RemoveItem(c.Request.Context(), session.UserID, c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *handlers) listOrders(c *gin.Context) {
	session := currentSession(c)
	orders, err := h.deps.OrderSvc.History(c.Request.Context(), session.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *handlers) getOrder(c *gin.Context) {
	session := currentSession(c)
	order, err := h.deps.OrderSvc.Get(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *handlers) adminListOrders(c *gin.Context) {
	orders, err := h.deps.OrderSvc.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *handlers) adminStats(c *gin.Context) {
	stats, err := h.deps.OrderSvc.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

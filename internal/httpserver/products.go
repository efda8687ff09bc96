package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	catalogsvc "storefront/internal/service/catalog"
)

func (h *handlers) listProducts(c *gin.Context) {
	products, err := h.deps.CatalogSvc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *handlers) getProduct(c *gin.Context) {
	p, err := h.deps.CatalogSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) createProduct(c *gin.Context) {
	var in catalogsvc.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	p, err := h.deps.CatalogSvc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *handlers) updateProduct(c *gin.Context) {
	var in catalogsvc.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	p, err := h.deps.CatalogSvc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) deleteProduct(c *gin.Context) {
	if err := h.deps.CatalogSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

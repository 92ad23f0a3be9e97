package handlers

import (
	"net/http"

	"campus-canteen-api/catalog"
	"campus-canteen-api/middleware"

	"github.com/gin-gonic/gin"
)

type CalculateTotalRequest struct {
	Items []catalog.QuoteLine `json:"items" binding:"required"`
}

// ListMenu returns available items, optionally filtered by ?category=
func (h *Handler) ListMenu(c *gin.Context) {
	items, err := h.Catalog.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) GetMenuItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	item, err := h.Catalog.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) AddMenuItem(c *gin.Context) {
	var req catalog.CreateItemInput
	if !bind(c, &req) {
		return
	}
	item, err := h.Catalog.Create(c.Request.Context(), middleware.GetPrincipal(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) UpdateMenuItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req catalog.UpdateItemInput
	if !bind(c, &req) {
		return
	}
	item, err := h.Catalog.Update(c.Request.Context(), middleware.GetPrincipal(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) DeleteMenuItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Catalog.Delete(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item deleted successfully"})
}

// ClearMenu deletes every menu item and its ratings
func (h *Handler) ClearMenu(c *gin.Context) {
	n, err := h.Catalog.Clear(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All menu items cleared", "deletedCount": n})
}

func (h *Handler) CalculateTotal(c *gin.Context) {
	var req CalculateTotalRequest
	if !bind(c, &req) {
		return
	}
	q, err := h.Catalog.Quote(c.Request.Context(), req.Items)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

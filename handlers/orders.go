package handlers

import (
	"net/http"

	"campus-canteen-api/middleware"
	"campus-canteen-api/models"
	"campus-canteen-api/orders"

	"github.com/gin-gonic/gin"
)

type UpdateStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

type CheckUTRRequest struct {
	UTRID string `json:"utrId" binding:"required"`
}

// PlaceOrder prices and persists a new order for the caller
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req orders.CreateInput
	if !bind(c, &req) {
		return
	}
	order, err := h.Orders.Create(c.Request.Context(), middleware.GetPrincipal(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetMyOrders returns the caller's orders, newest first
func (h *Handler) GetMyOrders(c *gin.Context) {
	list, err := h.Orders.ListMine(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetAllOrders returns every order with owner and items resolved
func (h *Handler) GetAllOrders(c *gin.Context) {
	list, err := h.Orders.ListAll(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if !bind(c, &req) {
		return
	}
	order, err := h.Orders.SetStatus(c.Request.Context(), middleware.GetPrincipal(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// DeleteOrder cancels a pending order or removes a delivered one
func (h *Handler) DeleteOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	outcome, err := h.Orders.Remove(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	msg := "Order removed successfully"
	if outcome == orders.OutcomeCancelled {
		msg = "Order cancelled successfully"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "outcome": outcome})
}

func (h *Handler) CheckUTR(c *gin.Context) {
	var req CheckUTRRequest
	if !bind(c, &req) {
		return
	}
	exists, err := h.Orders.CheckUTR(c.Request.Context(), req.UTRID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists})
}

package handlers

import (
	"net/http"

	"campus-canteen-api/middleware"
	"campus-canteen-api/tracking"

	"github.com/gin-gonic/gin"
)

type TopicRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

func (h *Handler) GetTracking(c *gin.Context) {
	id, ok := idParam(c, "orderId")
	if !ok {
		return
	}
	view, err := h.Tracking.Info(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateDeliveryLocation records the courier position and relays it
func (h *Handler) UpdateDeliveryLocation(c *gin.Context) {
	id, ok := idParam(c, "orderId")
	if !ok {
		return
	}
	var req tracking.LocationInput
	if !bind(c, &req) {
		return
	}
	if _, err := h.Tracking.UpdateLocation(c.Request.Context(), middleware.GetPrincipal(c), id, req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Location updated"})
}

func (h *Handler) AssignDeliveryPerson(c *gin.Context) {
	id, ok := idParam(c, "orderId")
	if !ok {
		return
	}
	var req tracking.PersonInput
	if !bind(c, &req) {
		return
	}
	view, err := h.Tracking.AssignPerson(c.Request.Context(), middleware.GetPrincipal(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) JoinTracking(c *gin.Context) {
	id, ok := idParam(c, "orderId")
	if !ok {
		return
	}
	var req TopicRequest
	if !bind(c, &req) {
		return
	}
	if err := h.Tracking.Join(c.Request.Context(), middleware.GetPrincipal(c), id, req.SessionID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tracking started", "orderId": id})
}

func (h *Handler) LeaveTracking(c *gin.Context) {
	id, ok := idParam(c, "orderId")
	if !ok {
		return
	}
	var req TopicRequest
	if !bind(c, &req) {
		return
	}
	if err := h.Tracking.Leave(c.Request.Context(), middleware.GetPrincipal(c), id, req.SessionID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tracking stopped", "orderId": id})
}

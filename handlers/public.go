package handlers

import (
	"context"
	"net/http"
	"time"

	"campus-canteen-api/models"
	"campus-canteen-api/statemachine"

	"github.com/gin-gonic/gin"
)

// GetStateMachineInfo returns the documented order lifecycle
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state_machine":   statemachine.GetAllTransitions(),
		"statuses":        models.OrderStatuses,
		"terminal_states": statemachine.TerminalStates,
		"description":     "Canteen order lifecycle. Admins assign status directly; owners cancel while pending.",
	})
}

// Health reports database reachability and connected realtime sessions
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, db := http.StatusOK, "connected"
	if err := h.DB.Ping(ctx); err != nil {
		status, db = http.StatusServiceUnavailable, "unreachable"
	}
	c.JSON(status, gin.H{
		"status":           http.StatusText(status),
		"database":         db,
		"realtimeSessions": h.Hub.Count(),
		"droppedEvents":    h.Hub.Dropped(),
		"timestamp":        time.Now().UTC(),
	})
}

// Index lists the API surface
func (h *Handler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "MITS Canteen API",
		"endpoints": gin.H{
			"auth":     "/api/auth",
			"admin":    "/api/admin",
			"menu":     "/api/menu",
			"orders":   "/api/orders",
			"ratings":  "/api/ratings",
			"tracking": "/api/tracking",
			"realtime": "/api/realtime",
			"health":   "/api/health",
			"docs":     "/api/state-machine",
		},
	})
}

package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"campus-canteen-api/logging"
	"campus-canteen-api/middleware"
	"campus-canteen-api/realtime"

	"github.com/gin-gonic/gin"
)

// heartbeatInterval keeps idle streams alive through proxies
var heartbeatInterval = 25 * time.Second

// Realtime opens a Server-Sent Events stream for the caller. The token is
// checked before any stream bytes are written.
func (h *Handler) Realtime(c *gin.Context) {
	tok := middleware.BearerToken(c)
	if tok == "" {
		tok = c.Query("token")
	}
	if tok == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	ctx := c.Request.Context()
	p, err := h.Identity.Authenticate(ctx, tok)
	if err != nil {
		respondError(c, err)
		return
	}

	sess, err := h.Hub.Register(p)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Server is shutting down"})
		return
	}
	defer h.Hub.Unregister(sess.ID)
	log := logging.FromContext(ctx).With("session", sess.ID)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	if err := h.Hub.Send(sess.ID, realtime.EventConnected, gin.H{"sessionId": sess.ID, "role": p.Role}); err != nil {
		log.Warn("queue connected event", "error", err)
	}

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-sess.Events():
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, ev)
			return true
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				log.Debug("heartbeat write failed", "error", err)
				return false
			}
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// Package handlers adapts the services to gin. Handlers bind and validate
// the request, call one service method and map its error onto a status.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"campus-canteen-api/apperr"
	"campus-canteen-api/catalog"
	"campus-canteen-api/identity"
	"campus-canteen-api/logging"
	"campus-canteen-api/models"
	"campus-canteen-api/orders"
	"campus-canteen-api/ratings"
	"campus-canteen-api/realtime"
	"campus-canteen-api/tracking"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Pinger reports whether the database answers
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Identity *identity.Service
	Catalog  *catalog.Service
	Orders   *orders.Service
	Ratings  *ratings.Service
	Tracking *tracking.Service
	Hub      *realtime.Hub
	DB       Pinger
}

var registerOnce sync.Once

// RegisterValidators adds the domain binding tags to gin's validator.
// Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("canteen_category", func(fl validator.FieldLevel) bool {
			return models.Category(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("utr", func(fl validator.FieldLevel) bool {
			return models.ValidUTR(fl.Field().String())
		})
	})
}

// respondError writes {"error": msg} with the status the error maps to.
// Anything unmapped is logged and answered 500.
func respondError(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		logging.FromContext(c.Request.Context()).Error("request failed", "error", err)
		if status == http.StatusInternalServerError {
			c.JSON(status, gin.H{"error": "Internal server error"})
			return
		}
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

// bind decodes the JSON body into dst; false means a 400 was already written
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// idParam parses a numeric path parameter; false means a 400 was already written
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

package handlers

import (
	"net/http"

	"campus-canteen-api/identity"
	"campus-canteen-api/middleware"

	"github.com/gin-gonic/gin"
)

// AdminRegister creates a canteen admin account
func (h *Handler) AdminRegister(c *gin.Context) {
	var req identity.RegisterAdminInput
	if !bind(c, &req) {
		return
	}
	res, err := h.Identity.RegisterAdmin(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// AdminLogin authenticates by canteen name
func (h *Handler) AdminLogin(c *gin.Context) {
	var req identity.LoginAdminInput
	if !bind(c, &req) {
		return
	}
	res, err := h.Identity.LoginAdmin(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) AdminProfile(c *gin.Context) {
	profile, err := h.Identity.Profile(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// AdminUpdateProfile applies the non-empty fields of the request
func (h *Handler) AdminUpdateProfile(c *gin.Context) {
	var req identity.UpdateAdminInput
	if !bind(c, &req) {
		return
	}
	view, err := h.Identity.UpdateAdminProfile(c.Request.Context(), middleware.GetPrincipal(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "admin": view})
}

func (h *Handler) AdminSendOTP(c *gin.Context) {
	var req AdminOTPRequest
	if !bind(c, &req) {
		return
	}
	warning, err := h.Identity.SendAdminOTP(c.Request.Context(), req.CanteenName)
	otpResponse(c, warning, err)
}

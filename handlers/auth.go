package handlers

import (
	"net/http"

	"campus-canteen-api/identity"
	"campus-canteen-api/middleware"

	"github.com/gin-gonic/gin"
)

type SendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required"`
}

type AdminOTPRequest struct {
	CanteenName string `json:"canteenName" binding:"required"`
}

// Register creates a student or staff account
func (h *Handler) Register(c *gin.Context) {
	var req identity.RegisterUserInput
	if !bind(c, &req) {
		return
	}
	res, err := h.Identity.RegisterUser(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Login authenticates a user and returns a JWT
func (h *Handler) Login(c *gin.Context) {
	var req identity.LoginUserInput
	if !bind(c, &req) {
		return
	}
	res, err := h.Identity.LoginUser(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetProfile returns the authenticated caller's profile
func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.Identity.Profile(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile})
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Identity.ListUsers(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

func (h *Handler) SendOTP(c *gin.Context) {
	var req SendOTPRequest
	if !bind(c, &req) {
		return
	}
	warning, err := h.Identity.SendUserOTP(c.Request.Context(), req.Email)
	otpResponse(c, warning, err)
}

func (h *Handler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if !bind(c, &req) {
		return
	}
	if err := h.Identity.VerifyOTP(req.Email, req.OTP); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP verified successfully"})
}

// otpResponse never echoes the code. A failed send is still a 200.
func otpResponse(c *gin.Context, warning string, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	body := gin.H{"message": "OTP sent successfully"}
	if warning != "" {
		body["warning"] = warning
	}
	c.JSON(http.StatusOK, body)
}

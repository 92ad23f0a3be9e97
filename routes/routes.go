package routes

import (
	"campus-canteen-api/handlers"
	"campus-canteen-api/middleware"
	"campus-canteen-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handler) {
	handlers.RegisterValidators()
	authed := middleware.AuthRequired(h.Identity)
	adminOnly := middleware.RoleRequired(models.RoleAdmin)

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.GET("", h.Index)
		public.GET("/health", h.Health)
		public.GET("/state-machine", h.GetStateMachineInfo)

		public.POST("/auth/register", h.Register)
		public.POST("/auth/login", h.Login)
		public.POST("/auth/send-otp", h.SendOTP)
		public.POST("/auth/verify-otp", h.VerifyOTP)

		public.POST("/admin/register", h.AdminRegister)
		public.POST("/admin/login", h.AdminLogin)
		public.POST("/admin/send-otp", h.AdminSendOTP)

		public.GET("/menu", h.ListMenu)
		public.GET("/menu/:id", h.GetMenuItem)
		public.POST("/menu/calculate-total", h.CalculateTotal)

		public.GET("/ratings/item/:itemId", h.GetItemRatings)

		// authenticates its own handshake so a query token also works
		public.GET("/realtime", h.Realtime)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(authed)
	{
		auth.GET("/auth/me", h.GetProfile)
		auth.GET("/auth/users", adminOnly, h.ListUsers)

		auth.POST("/orders", h.PlaceOrder)
		auth.GET("/orders", h.GetAllOrders)
		auth.GET("/orders/my-orders", h.GetMyOrders)
		auth.POST("/orders/check-utr", h.CheckUTR)
		auth.PUT("/orders/:id/status", h.UpdateOrderStatus)
		auth.PUT("/orders/:id/rating", h.RateOrderItem)
		auth.DELETE("/orders/:id", h.DeleteOrder)

		auth.POST("/ratings/item/:itemId", h.RateItem)

		auth.GET("/tracking/order/:orderId", h.GetTracking)
		auth.POST("/tracking/order/:orderId/join", h.JoinTracking)
		auth.POST("/tracking/order/:orderId/leave", h.LeaveTracking)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api")
	admin.Use(authed, adminOnly)
	{
		admin.GET("/admin/profile", h.AdminProfile)
		admin.PUT("/admin/profile", h.AdminUpdateProfile)

		admin.POST("/menu", h.AddMenuItem)
		admin.PUT("/menu/:id", h.UpdateMenuItem)
		admin.DELETE("/menu/:id", h.DeleteMenuItem)
		admin.DELETE("/menu", h.ClearMenu)
		admin.DELETE("/menu/clear-all", h.ClearMenu)

		admin.PUT("/tracking/delivery/:orderId/location", h.UpdateDeliveryLocation)
		admin.PUT("/tracking/delivery/:orderId/person", h.AssignDeliveryPerson)
	}
}

package handlers

import (
	"net/http"

	"campus-canteen-api/middleware"
	"campus-canteen-api/ratings"

	"github.com/gin-gonic/gin"
)

// OrderRatingRequest rates one item of the order in the path
type OrderRatingRequest struct {
	ItemID uint   `json:"itemId" binding:"required"`
	Rating int    `json:"rating" binding:"required"`
	Review string `json:"review"`
}

// ItemRatingRequest rates the item in the path out of OrderID
type ItemRatingRequest struct {
	OrderID uint   `json:"orderId" binding:"required"`
	Rating  int    `json:"rating" binding:"required"`
	Review  string `json:"review"`
}

func (h *Handler) RateOrderItem(c *gin.Context) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req OrderRatingRequest
	if !bind(c, &req) {
		return
	}
	h.submitRating(c, ratings.SubmitInput{OrderID: orderID, MenuItemID: req.ItemID, Rating: req.Rating, Review: req.Review})
}

func (h *Handler) RateItem(c *gin.Context) {
	itemID, ok := idParam(c, "itemId")
	if !ok {
		return
	}
	var req ItemRatingRequest
	if !bind(c, &req) {
		return
	}
	h.submitRating(c, ratings.SubmitInput{OrderID: req.OrderID, MenuItemID: itemID, Rating: req.Rating, Review: req.Review})
}

func (h *Handler) submitRating(c *gin.Context, in ratings.SubmitInput) {
	res, err := h.Ratings.Submit(c.Request.Context(), middleware.GetPrincipal(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       "Rating submitted successfully",
		"averageRating": res.Item.AverageRating,
		"totalRatings":  res.Item.TotalRatings,
		"created":       res.Created,
	})
}

func (h *Handler) GetItemRatings(c *gin.Context) {
	itemID, ok := idParam(c, "itemId")
	if !ok {
		return
	}
	sum, err := h.Ratings.ForItem(c.Request.Context(), itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

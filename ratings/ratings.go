// Package ratings lets users rate items from their delivered orders.
package ratings

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"campus-canteen-api/apperr"
	"campus-canteen-api/models"
	"campus-canteen-api/realtime"
	"campus-canteen-api/statemachine"
	"campus-canteen-api/store"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Service struct {
	Orders    *store.OrderRepo
	Ratings   *store.RatingRepo
	Publisher realtime.Publisher
	Log       *slog.Logger
	now       func() time.Time
}

type SubmitInput struct {
	OrderID    uint
	MenuItemID uint
	Rating     int
	Review     string
}

// Result is the item after the write plus whether the rating was new
type Result struct {
	Item    *models.MenuItem `json:"menuItem"`
	Created bool             `json:"created"`
}

// Summary is the public read view of an item's ratings
type Summary struct {
	MenuItemID    uint            `json:"menuItemId"`
	AverageRating float64         `json:"averageRating"`
	TotalRatings  int             `json:"totalRatings"`
	Ratings       []models.Rating `json:"ratings"`
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// Submit records the caller's rating of one item from one of their
// delivered orders. A second rating of the same item overwrites the first.
func (s *Service) Submit(ctx context.Context, p models.Principal, in SubmitInput) (*Result, error) {
	if in.Rating < MinRating || in.Rating > MaxRating {
		return nil, fmt.Errorf("%w: Rating must be between %d and %d", apperr.ErrValidation, MinRating, MaxRating)
	}
	if in.OrderID == 0 || in.MenuItemID == 0 {
		return nil, fmt.Errorf("%w: order and menu item are required", apperr.ErrValidation)
	}

	o, err := s.Orders.Get(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if err := statemachine.CanRate(p, o, in.MenuItemID); err != nil {
		return nil, err
	}

	item, created, err := s.Ratings.Upsert(ctx, in.MenuItemID, p.ID, in.Rating, in.Review, s.clock())
	if err != nil {
		return nil, err
	}
	s.Log.Info("item rated",
		"menu_item_id", item.ID, "order_id", o.ID, "user_id", p.ID,
		"rating", in.Rating, "created", created, "average", item.AverageRating)
	s.Publisher.Broadcast(realtime.EventMenuItemUpdated, item)
	return &Result{Item: item, Created: created}, nil
}

func (s *Service) ForItem(ctx context.Context, itemID uint) (*Summary, error) {
	item, err := s.Ratings.ForItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	rs := item.Ratings
	if rs == nil {
		rs = []models.Rating{}
	}
	return &Summary{
		MenuItemID:    item.ID,
		AverageRating: item.AverageRating,
		TotalRatings:  item.TotalRatings,
		Ratings:       rs,
	}, nil
}

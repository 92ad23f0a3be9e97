// Package catalog manages menu items. Every mutation is published to the
// realtime notifier after it commits.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"campus-canteen-api/apperr"
	"campus-canteen-api/models"
	"campus-canteen-api/realtime"
	"campus-canteen-api/store"
)

type Service struct {
	Menu      *store.MenuRepo
	Publisher realtime.Publisher
	Log       *slog.Logger
}

type CreateItemInput struct {
	Name        string          `json:"name" binding:"required"`
	Category    models.Category `json:"category" binding:"required,canteen_category"`
	Price       *float64        `json:"price" binding:"required,gte=0"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
	Available   *bool           `json:"available"`
	Stock       *int            `json:"stock" binding:"omitempty,gte=0"`
}

// UpdateItemInput is a partial update; nil fields are left alone
type UpdateItemInput struct {
	Name        *string          `json:"name"`
	Category    *models.Category `json:"category"`
	Price       *float64         `json:"price"`
	Image       *string          `json:"image"`
	Description *string          `json:"description"`
	Available   *bool            `json:"available"`
	Stock       *int             `json:"stock"`
}

// LineQuote is one priced line of a quote
type LineQuote struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Total    float64 `json:"total"`
}

type Quote struct {
	Items          []LineQuote `json:"items"`
	Subtotal       float64     `json:"subtotal"`
	DeliveryCharge float64     `json:"deliveryCharge"`
	Total          float64     `json:"total"`
}

type QuoteLine struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

func requireAdmin(p models.Principal) error {
	if !p.IsAdmin() {
		return fmt.Errorf("%w: admin access required", apperr.ErrForbidden)
	}
	return nil
}

func (s *Service) List(ctx context.Context, category string) ([]models.MenuItem, error) {
	c := models.Category(category)
	if c != "" && !c.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", apperr.ErrValidation, category)
	}
	return s.Menu.ListAvailable(ctx, c)
}

func (s *Service) Get(ctx context.Context, id uint) (*models.MenuItem, error) {
	return s.Menu.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, p models.Principal, in CreateItemInput) (*models.MenuItem, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", apperr.ErrValidation)
	}
	if !in.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", apperr.ErrValidation, in.Category)
	}
	if in.Price == nil || *in.Price < 0 {
		return nil, fmt.Errorf("%w: price must be >= 0", apperr.ErrValidation)
	}
	item := &models.MenuItem{
		Name:        strings.TrimSpace(in.Name),
		Category:    in.Category,
		Price:       *in.Price,
		Image:       in.Image,
		Description: strings.TrimSpace(in.Description),
		Available:   true,
		Stock:       models.DefaultStock,
	}
	if in.Available != nil {
		item.Available = *in.Available
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, fmt.Errorf("%w: stock must be >= 0", apperr.ErrValidation)
		}
		item.Stock = *in.Stock
	}
	if err := s.Menu.Create(ctx, item); err != nil {
		return nil, err
	}
	s.Publisher.Broadcast(realtime.EventMenuItemAdded, item)
	return item, nil
}

func (s *Service) Update(ctx context.Context, p models.Principal, id uint, in UpdateItemInput) (*models.MenuItem, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", apperr.ErrValidation)
		}
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Category != nil {
		if !in.Category.Valid() {
			return nil, fmt.Errorf("%w: unknown category %q", apperr.ErrValidation, *in.Category)
		}
		fields["category"] = *in.Category
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return nil, fmt.Errorf("%w: price must be >= 0", apperr.ErrValidation)
		}
		fields["price"] = *in.Price
	}
	if in.Image != nil {
		fields["image"] = *in.Image
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Available != nil {
		fields["available"] = *in.Available
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, fmt.Errorf("%w: stock must be >= 0", apperr.ErrValidation)
		}
		fields["stock"] = *in.Stock
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", apperr.ErrValidation)
	}
	item, err := s.Menu.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	s.Publisher.Broadcast(realtime.EventMenuItemUpdated, item)
	return item, nil
}

func (s *Service) Delete(ctx context.Context, p models.Principal, id uint) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	if err := s.Menu.Delete(ctx, id); err != nil {
		return err
	}
	s.Publisher.Broadcast(realtime.EventMenuItemDeleted, map[string]uint{"id": id})
	return nil
}

func (s *Service) Clear(ctx context.Context, p models.Principal) (int64, error) {
	if err := requireAdmin(p); err != nil {
		return 0, err
	}
	n, err := s.Menu.Clear(ctx)
	if err != nil {
		return 0, err
	}
	s.Log.Info("menu cleared", "admin_id", p.ID, "deleted", n)
	s.Publisher.Broadcast(realtime.EventMenuCleared, map[string]int64{"deletedCount": n})
	return n, nil
}

// Quote prices lines by item name. Unknown or unavailable names are
// skipped rather than rejected.
func (s *Service) Quote(ctx context.Context, lines []QuoteLine) (*Quote, error) {
	q := &Quote{Items: []LineQuote{}, DeliveryCharge: models.DeliveryCharge}
	for _, l := range lines {
		if l.Quantity < 1 {
			continue
		}
		item, err := s.Menu.FindAvailableByName(ctx, l.Name)
		if errors.Is(err, apperr.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		total := item.Price * float64(l.Quantity)
		q.Subtotal += total
		q.Items = append(q.Items, LineQuote{Name: item.Name, Price: item.Price, Quantity: l.Quantity, Total: total})
	}
	q.Total = q.Subtotal + q.DeliveryCharge
	return q, nil
}

// Package orders is the order engine: pricing, UTR uniqueness, the status
// lifecycle and the events each transition emits.
package orders

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"campus-canteen-api/apperr"
	"campus-canteen-api/models"
	"campus-canteen-api/notify"
	"campus-canteen-api/realtime"
	"campus-canteen-api/statemachine"
	"campus-canteen-api/store"
)

// Enqueuer accepts fire-and-forget mail
type Enqueuer interface {
	Enqueue(msg notify.Message) bool
}

type Service struct {
	Orders    *store.OrderRepo
	Menu      *store.MenuRepo
	Publisher realtime.Publisher
	Mail      Enqueuer
	Log       *slog.Logger

	// ListAllRequiresAdmin gates ListAll behind the admin role
	ListAllRequiresAdmin bool
}

type LineInput struct {
	MenuItemID uint `json:"menuItem" binding:"required"`
	Quantity   int  `json:"quantity" binding:"required,min=1"`
}

type CreateInput struct {
	Items           []LineInput          `json:"items" binding:"required,min=1,dive"`
	DeliveryAddress string               `json:"deliveryAddress"`
	DeliveryTime    string               `json:"deliveryTime"`
	PaymentMethod   models.PaymentMethod `json:"paymentMethod"`
	PaymentDetails  string               `json:"paymentDetails" binding:"omitempty,utr"`
	Latitude        *float64             `json:"latitude"`
	Longitude       *float64             `json:"longitude"`
}

// Outcome says what DELETE /orders/:id actually did
type Outcome string

const (
	OutcomeCancelled Outcome = "cancelled"
	OutcomeRemoved   Outcome = "removed"
)

func (s *Service) Create(ctx context.Context, p models.Principal, in CreateInput) (*models.Order, error) {
	if !p.Role.IsUser() {
		return nil, fmt.Errorf("%w: only students and staff can place orders", apperr.ErrForbidden)
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", apperr.ErrValidation)
	}
	method := in.PaymentMethod
	if method == "" {
		method = models.PaymentCOD
	}
	if !method.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", apperr.ErrValidation, method)
	}

	var utr *string
	if ref := strings.TrimSpace(in.PaymentDetails); method == models.PaymentUPI && ref != "" {
		if !models.ValidUTR(ref) {
			return nil, fmt.Errorf("%w: UTR ID must be 12 alphanumeric characters", apperr.ErrValidation)
		}
		used, err := s.Orders.UTRExists(ctx, ref)
		if err != nil {
			return nil, err
		}
		if used {
			s.Log.Info("duplicate UTR rejected", "user_id", p.ID)
			return nil, apperr.ErrDuplicateUTR
		}
		utr = &ref
	}

	ids := make([]uint, 0, len(in.Items))
	for _, it := range in.Items {
		if it.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be at least 1", apperr.ErrValidation)
		}
		ids = append(ids, it.MenuItemID)
	}
	catalog, err := s.Menu.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:          p.ID,
		Status:          models.StatusPending,
		DeliveryCharge:  models.DeliveryCharge,
		DeliveryAddress: in.DeliveryAddress,
		DeliveryTime:    in.DeliveryTime,
		DeliveryLocation: models.GeoPoint{
			Latitude:  in.Latitude,
			Longitude: in.Longitude,
		},
		PaymentMethod:  method,
		PaymentDetails: utr,
	}
	for _, it := range in.Items {
		mi, ok := catalog[it.MenuItemID]
		if !ok {
			return nil, fmt.Errorf("%w: Menu item not found: %d", apperr.ErrNotFound, it.MenuItemID)
		}
		line := models.OrderItem{MenuItemID: mi.ID, Quantity: it.Quantity, Price: mi.Price}
		order.Subtotal += line.LineTotal()
		order.Items = append(order.Items, line)
	}
	order.TotalAmount = order.Subtotal + order.DeliveryCharge

	// The unique index decides races the pre-check could not see.
	if err := s.Orders.Create(ctx, order); err != nil {
		return nil, err
	}

	detailed, err := s.Orders.GetDetailed(ctx, order.ID)
	if err != nil {
		// committed; report what we wrote rather than failing the request
		s.Log.Warn("reload created order", "order_id", order.ID, "error", err)
		detailed = order
	}
	s.Log.Info("order created", "order_id", order.ID, "user_id", p.ID, "total", order.TotalAmount)
	s.Publisher.Broadcast(realtime.EventNewOrder, s.broadcastView(detailed))
	s.confirm(detailed)
	return detailed, nil
}

func (s *Service) confirm(o *models.Order) {
	if s.Mail == nil || o.User == nil || o.User.Email == "" {
		return
	}
	s.Mail.Enqueue(notify.Message{
		To:      o.User.Email,
		Subject: fmt.Sprintf("MITS Canteen - Order #%d received", o.ID),
		Body:    fmt.Sprintf("Hi %s, we received your order #%d. Total: Rs %.2f (%s).", o.User.Name, o.ID, o.TotalAmount, o.PaymentMethod),
	})
}

// CheckUTR reports whether any order already carries utr
// broadcastView is the order as sent to every live session. When the order
// list is admin-gated the owner's contact details are left out.
func (s *Service) broadcastView(o *models.Order) *models.Order {
	if !s.ListAllRequiresAdmin || o.User == nil {
		return o
	}
	v := *o
	v.User = &models.User{ID: o.User.ID, Name: o.User.Name, Role: o.User.Role}
	return &v
}

func (s *Service) CheckUTR(ctx context.Context, utr string) (bool, error) {
	utr = strings.TrimSpace(utr)
	if utr == "" {
		return false, fmt.Errorf("%w: utrId is required", apperr.ErrValidation)
	}
	return s.Orders.UTRExists(ctx, utr)
}

// ListMine returns the caller's orders newest first. Admins own none.
func (s *Service) ListMine(ctx context.Context, p models.Principal) ([]models.Order, error) {
	if !p.Role.IsUser() {
		return []models.Order{}, nil
	}
	return s.Orders.ListByUser(ctx, p.ID)
}

func (s *Service) ListAll(ctx context.Context, p models.Principal) ([]models.Order, error) {
	if s.ListAllRequiresAdmin && !p.IsAdmin() {
		return nil, fmt.Errorf("%w: admin access required", apperr.ErrForbidden)
	}
	return s.Orders.ListAll(ctx)
}

// SetStatus assigns status directly. Admins are not held to the
// documented sequence.
func (s *Service) SetStatus(ctx context.Context, p models.Principal, id uint, status models.OrderStatus) (*models.Order, error) {
	if err := statemachine.CanSetStatus(p, status); err != nil {
		return nil, err
	}
	if err := s.Orders.SetStatus(ctx, id, status); err != nil {
		return nil, err
	}
	o, err := s.Orders.GetDetailed(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Log.Info("order status updated", "order_id", id, "status", status, "admin_id", p.ID)
	s.Publisher.Broadcast(realtime.EventOrderStatus, s.broadcastView(o))
	s.Publisher.PublishTopic(realtime.OrderTopic(id), realtime.EventTrackedStatus, map[string]any{
		"orderId": id,
		"status":  status,
	})
	return o, nil
}

// Remove cancels the caller's pending order, or hard-deletes a delivered
// one for its owner or an admin. Anything else is forbidden.
func (s *Service) Remove(ctx context.Context, p models.Principal, id uint) (Outcome, error) {
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return "", err
	}

	if statemachine.CanCancel(p, o) == nil {
		changed, err := s.Orders.CancelIfPending(ctx, id, p.ID)
		if err != nil {
			return "", err
		}
		if !changed {
			return "", fmt.Errorf("%w: order is no longer pending", apperr.ErrForbidden)
		}
		s.Log.Info("order cancelled", "order_id", id, "user_id", p.ID)
		s.Publisher.Broadcast(realtime.EventOrderCancelled, map[string]any{"id": id, "status": models.StatusCancelled})
		s.Publisher.PublishTopic(realtime.OrderTopic(id), realtime.EventTrackedStatus, map[string]any{
			"orderId": id,
			"status":  models.StatusCancelled,
		})
		return OutcomeCancelled, nil
	}

	if err := statemachine.CanDelete(p, o); err != nil {
		return "", err
	}
	removed, err := s.Orders.DeleteIfDelivered(ctx, id)
	if err != nil {
		return "", err
	}
	if !removed {
		return "", fmt.Errorf("%w: order is no longer delivered", apperr.ErrForbidden)
	}
	s.Log.Info("order removed", "order_id", id, "principal", p.ID, "role", p.Role)
	s.Publisher.Broadcast(realtime.EventOrderRemoved, map[string]uint{"id": id})
	return OutcomeRemoved, nil
}

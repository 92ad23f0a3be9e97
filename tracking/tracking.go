// Package tracking is the per-order view of delivery: courier details, live
// location and topic membership on the realtime hub.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"campus-canteen-api/apperr"
	"campus-canteen-api/models"
	"campus-canteen-api/realtime"
	"campus-canteen-api/statemachine"
	"campus-canteen-api/store"
)

// Topics is the part of the hub tracking needs
type Topics interface {
	Session(id string) (*realtime.Session, bool)
	Join(sessionID, topic string) error
	Leave(sessionID, topic string) error
}

type Service struct {
	Orders    *store.OrderRepo
	Publisher realtime.Publisher
	Topics    Topics
	Log       *slog.Logger
}

// View is what a tracking client renders
type View struct {
	OrderID          uint                  `json:"orderId"`
	Status           models.OrderStatus    `json:"status"`
	DeliveryAddress  string                `json:"deliveryAddress"`
	DeliveryTime     string                `json:"deliveryTime"`
	DeliveryLocation models.GeoPoint       `json:"deliveryLocation"`
	DeliveryPerson   models.DeliveryPerson `json:"deliveryPerson"`
	Topic            string                `json:"topic"`
	UpdatedAt        time.Time             `json:"updatedAt"`
}

type LocationInput struct {
	Latitude  *float64 `json:"latitude" binding:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" binding:"required,gte=-180,lte=180"`
}

type PersonInput struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
}

func viewOf(o *models.Order) *View {
	return &View{
		OrderID:          o.ID,
		Status:           o.Status,
		DeliveryAddress:  o.DeliveryAddress,
		DeliveryTime:     o.DeliveryTime,
		DeliveryLocation: o.DeliveryLocation,
		DeliveryPerson:   o.DeliveryPerson,
		Topic:            realtime.OrderTopic(o.ID),
		UpdatedAt:        o.UpdatedAt,
	}
}

func (s *Service) Info(ctx context.Context, p models.Principal, orderID uint) (*View, error) {
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := statemachine.CanView(p, o); err != nil {
		return nil, err
	}
	return viewOf(o), nil
}

// UpdateLocation records the courier's position and relays it to every
// session and to the order's topic.
func (s *Service) UpdateLocation(ctx context.Context, p models.Principal, orderID uint, in LocationInput) (*View, error) {
	if !p.IsAdmin() {
		return nil, fmt.Errorf("%w: admin access required", apperr.ErrForbidden)
	}
	if in.Latitude == nil || in.Longitude == nil {
		return nil, fmt.Errorf("%w: latitude and longitude are required", apperr.ErrValidation)
	}
	lat, lng := *in.Latitude, *in.Longitude
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, fmt.Errorf("%w: coordinates out of range", apperr.ErrValidation)
	}
	if err := s.Orders.UpdateCourierLocation(ctx, orderID, lat, lng); err != nil {
		return nil, err
	}
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"orderId":   orderID,
		"location":  o.DeliveryPerson.CurrentLocation,
		"timestamp": o.UpdatedAt,
	}
	s.Publisher.Broadcast(realtime.EventDeliveryLocation, payload)
	s.Publisher.PublishTopic(realtime.OrderTopic(orderID), realtime.EventDeliveryLocation, payload)
	s.Log.Debug("courier location updated", "order_id", orderID, "lat", lat, "lng", lng)
	return viewOf(o), nil
}

func (s *Service) AssignPerson(ctx context.Context, p models.Principal, orderID uint, in PersonInput) (*View, error) {
	if !p.IsAdmin() {
		return nil, fmt.Errorf("%w: admin access required", apperr.ErrForbidden)
	}
	name, phone := strings.TrimSpace(in.Name), strings.TrimSpace(in.Phone)
	if name == "" || phone == "" {
		return nil, fmt.Errorf("%w: name and phone are required", apperr.ErrValidation)
	}
	if err := s.Orders.AssignCourier(ctx, orderID, name, phone); err != nil {
		return nil, err
	}
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.Log.Info("courier assigned", "order_id", orderID, "admin_id", p.ID)
	return viewOf(o), nil
}

// Join subscribes sessionID to the order's topic. The session must belong
// to the caller and the caller must be able to view the order.
func (s *Service) Join(ctx context.Context, p models.Principal, orderID uint, sessionID string) error {
	topic, err := s.authorize(ctx, p, orderID, sessionID)
	if err != nil {
		return err
	}
	return s.topicErr(s.Topics.Join(sessionID, topic))
}

func (s *Service) Leave(ctx context.Context, p models.Principal, orderID uint, sessionID string) error {
	topic, err := s.authorize(ctx, p, orderID, sessionID)
	if err != nil {
		return err
	}
	return s.topicErr(s.Topics.Leave(sessionID, topic))
}

func (s *Service) authorize(ctx context.Context, p models.Principal, orderID uint, sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("%w: sessionId is required", apperr.ErrValidation)
	}
	sess, ok := s.Topics.Session(sessionID)
	if !ok {
		return "", fmt.Errorf("%w: Realtime session not found", apperr.ErrNotFound)
	}
	if sess.Principal != p {
		return "", fmt.Errorf("%w: session belongs to another account", apperr.ErrForbidden)
	}
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return "", err
	}
	if err := statemachine.CanView(p, o); err != nil {
		return "", err
	}
	return realtime.OrderTopic(orderID), nil
}

// topicErr covers the session disconnecting between authorize and the call
func (s *Service) topicErr(err error) error {
	if errors.Is(err, realtime.ErrUnknownSession) {
		return fmt.Errorf("%w: Realtime session not found", apperr.ErrNotFound)
	}
	return err
}

package statemachine

import (
	"fmt"

	"campus-canteen-api/apperr"
	"campus-canteen-api/models"
)

// Actor is who is acting on an order relative to that order
type Actor string

const (
	ActorOwner    Actor = "owner"
	ActorAdmin    Actor = "admin"
	ActorStranger Actor = "stranger"
)

// ActorFor classifies p with respect to o
func ActorFor(p models.Principal, o *models.Order) Actor {
	switch {
	case p.IsAdmin():
		return ActorAdmin
	case p.Owns(o):
		return ActorOwner
	}
	return ActorStranger
}

// Transition defines a documented state change and who performs it
type Transition struct {
	From  models.OrderStatus `json:"from"`
	To    models.OrderStatus `json:"to"`
	Actor Actor              `json:"actor"`
}

// validTransitions is the documented lifecycle. Admins are not held to it:
// status assignment by an admin is direct and may skip or repeat steps.
var validTransitions = []Transition{
	{From: models.StatusPending, To: models.StatusConfirmed, Actor: ActorAdmin},
	{From: models.StatusConfirmed, To: models.StatusPreparing, Actor: ActorAdmin},
	{From: models.StatusPreparing, To: models.StatusReady, Actor: ActorAdmin},
	{From: models.StatusReady, To: models.StatusDelivered, Actor: ActorAdmin},
	// Only the owner cancels, and only while pending
	{From: models.StatusPending, To: models.StatusCancelled, Actor: ActorOwner},
}

// ValidTransitionsFrom returns all documented next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	seen := map[models.OrderStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}

// Terminal states. A delivered order can still be hard-deleted.
var TerminalStates = []models.OrderStatus{models.StatusDelivered, models.StatusCancelled}

// CanSetStatus is the predicate for direct status assignment. Any status but
// cancelled may be assigned by an admin.
func CanSetStatus(p models.Principal, to models.OrderStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: invalid status %q", apperr.ErrValidation, to)
	}
	if !p.IsAdmin() {
		return fmt.Errorf("%w: only canteen admins can update order status", apperr.ErrForbidden)
	}
	// cancellation belongs to the owner through CanCancel
	if to == models.StatusCancelled {
		return fmt.Errorf("%w: only the customer can cancel a pending order", apperr.ErrForbidden)
	}
	return nil
}

// CanCancel is the predicate for pending → cancelled.
func CanCancel(p models.Principal, o *models.Order) error {
	if ActorFor(p, o) != ActorOwner || o.Status != models.StatusPending {
		return fmt.Errorf("%w: Not authorized or order not delivered", apperr.ErrForbidden)
	}
	return nil
}

// CanDelete is the predicate for hard removal of a delivered order.
func CanDelete(p models.Principal, o *models.Order) error {
	actor := ActorFor(p, o)
	if (actor != ActorOwner && actor != ActorAdmin) || o.Status != models.StatusDelivered {
		return fmt.Errorf("%w: Not authorized or order not delivered", apperr.ErrForbidden)
	}
	return nil
}

// CanView is the predicate for reading a single order's tracking view.
func CanView(p models.Principal, o *models.Order) error {
	if a := ActorFor(p, o); a == ActorStranger {
		return fmt.Errorf("%w: This order does not belong to you", apperr.ErrForbidden)
	}
	return nil
}

// CanRate is the predicate for rating menuItemID out of o.
func CanRate(p models.Principal, o *models.Order, menuItemID uint) error {
	if ActorFor(p, o) != ActorOwner || o.Status != models.StatusDelivered || !o.Contains(menuItemID) {
		return fmt.Errorf("%w: You can only rate items from your delivered orders", apperr.ErrForbidden)
	}
	return nil
}

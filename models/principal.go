package models

// Principal is the authenticated identity behind a request or realtime session
type Principal struct {
	ID   uint `json:"id"`
	Role Role `json:"role"`
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// Owns reports whether p is the user that placed o. Admin ids live in a
// separate table, so an admin never owns an order.
func (p Principal) Owns(o *Order) bool {
	return p.Role.IsUser() && o != nil && o.UserID == p.ID
}

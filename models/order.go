package models

import (
	"regexp"
	"time"
)

// OrderStatus represents all possible states of a canteen order
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

var OrderStatuses = []OrderStatus{
	StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, k := range OrderStatuses {
		if s == k {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentCOD PaymentMethod = "Cash on Delivery"
	PaymentUPI PaymentMethod = "UPI"
)

func (p PaymentMethod) Valid() bool {
	return p == PaymentCOD || p == PaymentUPI
}

// DeliveryCharge is added to every order's subtotal
const DeliveryCharge = 20.0

var utrPattern = regexp.MustCompile(`^[A-Za-z0-9]{12}$`)

// ValidUTR reports whether s is a well-formed UPI transaction reference
func ValidUTR(s string) bool {
	return utrPattern.MatchString(s)
}

type GeoPoint struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

type DeliveryPerson struct {
	Name            string   `json:"name,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	CurrentLocation GeoPoint `json:"currentLocation" gorm:"embedded;embeddedPrefix:current_"`
}

type Order struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	UserID           uint           `json:"userId" gorm:"not null;index"`
	User             *User          `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Items            []OrderItem    `json:"items" gorm:"foreignKey:OrderID"`
	Subtotal         float64        `json:"subtotal" gorm:"not null"`
	DeliveryCharge   float64        `json:"deliveryCharge" gorm:"not null"`
	TotalAmount      float64        `json:"totalAmount" gorm:"not null"`
	Status           OrderStatus    `json:"status" gorm:"not null;default:'pending';index"`
	DeliveryAddress  string         `json:"deliveryAddress"`
	DeliveryTime     string         `json:"deliveryTime"`
	DeliveryLocation GeoPoint       `json:"deliveryLocation" gorm:"embedded;embeddedPrefix:delivery_"`
	DeliveryPerson   DeliveryPerson `json:"deliveryPerson" gorm:"embedded;embeddedPrefix:courier_"`
	PaymentMethod    PaymentMethod  `json:"paymentMethod" gorm:"not null"`
	// PaymentDetails holds the UTR. NULL when absent so the unique index ignores it.
	PaymentDetails *string   `json:"paymentDetails,omitempty" gorm:"uniqueIndex"`
	CreatedAt      time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type OrderItem struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	OrderID    uint      `json:"orderId" gorm:"not null;index"`
	MenuItemID uint      `json:"menuItemId" gorm:"not null;index"`
	MenuItem   *MenuItem `json:"menuItem,omitempty" gorm:"foreignKey:MenuItemID"`
	Quantity   int       `json:"quantity" gorm:"not null"`
	Price      float64   `json:"price" gorm:"not null"` // snapshot price at time of order
}

// LineTotal is the snapshotted price times quantity
func (i OrderItem) LineTotal() float64 {
	return i.Price * float64(i.Quantity)
}

// Contains reports whether the order has a line for menuItemID
func (o *Order) Contains(menuItemID uint) bool {
	for _, it := range o.Items {
		if it.MenuItemID == menuItemID {
			return true
		}
	}
	return false
}

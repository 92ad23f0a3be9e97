package models

import "time"

// Category is the closed set of menu sections
type Category string

const (
	CategorySnacks   Category = "snacks"
	CategoryVeg      Category = "veg"
	CategoryNonVeg   Category = "nonveg"
	CategoryIceCream Category = "icecream"
	CategoryJuice    Category = "juice"
	CategoryStarters Category = "starters"
)

var Categories = []Category{
	CategorySnacks, CategoryVeg, CategoryNonVeg, CategoryIceCream, CategoryJuice, CategoryStarters,
}

func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// DefaultStock is what a new item starts with. Orders never decrement it.
const DefaultStock = 50

type MenuItem struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Name          string    `json:"name" gorm:"not null;index"`
	Category      Category  `json:"category" gorm:"not null;index"`
	Price         float64   `json:"price" gorm:"not null;check:price >= 0"`
	Image         string    `json:"image"`
	Description   string    `json:"description"`
	Available     bool      `json:"available" gorm:"not null"`
	Stock         int       `json:"stock" gorm:"not null"`
	AverageRating float64   `json:"averageRating" gorm:"default:0"`
	TotalRatings  int       `json:"totalRatings" gorm:"default:0"`
	Ratings       []Rating  `json:"ratings,omitempty" gorm:"foreignKey:MenuItemID"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Rating is owned by its MenuItem; one row per (item, rater).
type Rating struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	MenuItemID uint      `json:"menuItemId" gorm:"not null;uniqueIndex:idx_rating_item_user,priority:1"`
	UserID     uint      `json:"userId" gorm:"not null;uniqueIndex:idx_rating_item_user,priority:2"`
	User       *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Value      int       `json:"rating" gorm:"column:rating;not null"`
	Review     string    `json:"review,omitempty"`
	Date       time.Time `json:"date"`
}

// RecomputeAggregate sets AverageRating and TotalRatings from Ratings.
func (m *MenuItem) RecomputeAggregate() {
	m.TotalRatings = len(m.Ratings)
	if m.TotalRatings == 0 {
		m.AverageRating = 0
		return
	}
	sum := 0
	for _, r := range m.Ratings {
		sum += r.Value
	}
	m.AverageRating = float64(sum) / float64(m.TotalRatings)
}

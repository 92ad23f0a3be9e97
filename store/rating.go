package store

import (
	"context"
	"time"

	"campus-canteen-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RatingRepo struct {
	DB *gorm.DB
}

// Upsert writes (item, user)'s rating and recomputes the item's aggregate
// inside one transaction, so the record and the aggregate move together.
// It reports whether the rating was new.
func (r *RatingRepo) Upsert(ctx context.Context, itemID, userID uint, value int, review string, at time.Time) (*models.MenuItem, bool, error) {
	var (
		item    models.MenuItem
		created bool
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, itemID).Error; err != nil {
			return translate(err, "Menu item")
		}

		var before int64
		if err := tx.Model(&models.Rating{}).Where("menu_item_id = ? AND user_id = ?", itemID, userID).Count(&before).Error; err != nil {
			return translate(err, "Rating")
		}
		created = before == 0

		rec := models.Rating{MenuItemID: itemID, UserID: userID, Value: value, Review: review, Date: at}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "menu_item_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "review", "date"}),
		}).Create(&rec).Error
		if err != nil {
			return translate(err, "Rating")
		}

		var agg struct {
			Count int
			Avg   float64
		}
		err = tx.Model(&models.Rating{}).
			Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS avg").
			Where("menu_item_id = ?", itemID).
			Scan(&agg).Error
		if err != nil {
			return translate(err, "Rating")
		}
		item.TotalRatings = agg.Count
		item.AverageRating = agg.Avg
		err = tx.Model(&models.MenuItem{}).Where("id = ?", itemID).Updates(map[string]any{
			"total_ratings":  agg.Count,
			"average_rating": agg.Avg,
		}).Error
		return translate(err, "Menu item")
	})
	if err != nil {
		return nil, false, err
	}
	return &item, created, nil
}

// ForItem returns the item with its ratings and each rater's name. The
// aggregate is derived from the loaded ratings.
func (r *RatingRepo) ForItem(ctx context.Context, itemID uint) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.DB.WithContext(ctx).
		Preload("Ratings", func(db *gorm.DB) *gorm.DB { return db.Order("date desc") }).
		Preload("Ratings.User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		First(&item, itemID).Error
	if err != nil {
		return nil, translate(err, "Menu item")
	}
	item.RecomputeAggregate()
	return &item, nil
}

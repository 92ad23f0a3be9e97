package store

import (
	"context"

	"campus-canteen-api/models"

	"gorm.io/gorm"
)

type MenuRepo struct {
	DB *gorm.DB
}

// ListAvailable returns available items, optionally within one category
func (r *MenuRepo) ListAvailable(ctx context.Context, category models.Category) ([]models.MenuItem, error) {
	q := r.DB.WithContext(ctx).Where("available = ?", true)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var items []models.MenuItem
	if err := q.Order("id asc").Find(&items).Error; err != nil {
		return nil, translate(err, "Menu item")
	}
	return items, nil
}

func (r *MenuRepo) Get(ctx context.Context, id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := r.DB.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, translate(err, "Menu item")
	}
	return &item, nil
}

// GetMany resolves ids in one query; missing ids are simply absent from the map
func (r *MenuRepo) GetMany(ctx context.Context, ids []uint) (map[uint]models.MenuItem, error) {
	var items []models.MenuItem
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, translate(err, "Menu item")
	}
	out := make(map[uint]models.MenuItem, len(items))
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

// FindAvailableByName is used by the public price calculator
func (r *MenuRepo) FindAvailableByName(ctx context.Context, name string) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.DB.WithContext(ctx).Where("name = ? AND available = ?", name, true).First(&item).Error
	if err != nil {
		return nil, translate(err, "Menu item")
	}
	return &item, nil
}

func (r *MenuRepo) Create(ctx context.Context, item *models.MenuItem) error {
	return translate(r.DB.WithContext(ctx).Create(item).Error, "Menu item")
}

// Update applies fields to one row and returns the row as stored
func (r *MenuRepo) Update(ctx context.Context, id uint, fields map[string]any) (*models.MenuItem, error) {
	res := r.DB.WithContext(ctx).Model(&models.MenuItem{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, translate(res.Error, "Menu item")
	}
	if res.RowsAffected == 0 {
		return nil, translate(gorm.ErrRecordNotFound, "Menu item")
	}
	return r.Get(ctx, id)
}

// Delete removes the item and its embedded ratings together
func (r *MenuRepo) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.MenuItem{}, id)
		if res.Error != nil {
			return translate(res.Error, "Menu item")
		}
		if res.RowsAffected == 0 {
			return translate(gorm.ErrRecordNotFound, "Menu item")
		}
		return translate(tx.Where("menu_item_id = ?", id).Delete(&models.Rating{}).Error, "Rating")
	})
}

// Clear deletes every menu item and rating, returning the item count
func (r *MenuRepo) Clear(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Rating{}).Error; err != nil {
			return translate(err, "Rating")
		}
		res := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.MenuItem{})
		if res.Error != nil {
			return translate(res.Error, "Menu item")
		}
		n = res.RowsAffected
		return nil
	})
	return n, err
}

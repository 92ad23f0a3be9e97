package store

import (
	"context"
	"fmt"

	"campus-canteen-api/apperr"
	"campus-canteen-api/models"

	"gorm.io/gorm"
)

type OrderRepo struct {
	DB *gorm.DB
}

// ownerColumns is the slice of the user row exposed alongside orders
var ownerColumns = []string{"id", "name", "email", "phone", "role", "student_id", "staff_id"}

func (r *OrderRepo) detailed(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).
		Preload("Items.MenuItem").
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select(ownerColumns) })
}

// Create persists the order and its lines in one transaction. The unique
// index on payment_details is the authoritative UTR guard.
func (r *OrderRepo) Create(ctx context.Context, order *models.Order) error {
	if err := r.DB.WithContext(ctx).Create(order).Error; err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("create order: %w", apperr.ErrDuplicateUTR)
		}
		return translate(err, "Order")
	}
	return nil
}

func (r *OrderRepo) UTRExists(ctx context.Context, utr string) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).Where("payment_details = ?", utr).Count(&n).Error; err != nil {
		return false, translate(err, "Order")
	}
	return n > 0, nil
}

// Get loads an order with its lines but without joins
func (r *OrderRepo) Get(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").First(&o, id).Error; err != nil {
		return nil, translate(err, "Order")
	}
	return &o, nil
}

// GetDetailed loads an order with owner and menu items resolved
func (r *OrderRepo) GetDetailed(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.detailed(ctx).First(&o, id).Error; err != nil {
		return nil, translate(err, "Order")
	}
	return &o, nil
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).Preload("Items.MenuItem").
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Find(&orders).Error
	if err != nil {
		return nil, translate(err, "Order")
	}
	return orders, nil
}

func (r *OrderRepo) ListAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := r.detailed(ctx).Order("created_at desc, id desc").Find(&orders).Error; err != nil {
		return nil, translate(err, "Order")
	}
	return orders, nil
}

// SetStatus is a blind atomic assignment; no read-modify-write.
func (r *OrderRepo) SetStatus(ctx context.Context, id uint, status models.OrderStatus) error {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return translate(res.Error, "Order")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "Order")
	}
	return nil
}

// CancelIfPending flips pending → cancelled only if the row is still pending
// and still owned by userID. It reports whether the row changed.
func (r *OrderRepo) CancelIfPending(ctx context.Context, id, userID uint) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, models.StatusPending).
		Update("status", models.StatusCancelled)
	if res.Error != nil {
		return false, translate(res.Error, "Order")
	}
	return res.RowsAffected == 1, nil
}

// DeleteIfDelivered removes a delivered order and its lines. It reports
// whether a row was removed.
func (r *OrderRepo) DeleteIfDelivered(ctx context.Context, id uint) (bool, error) {
	removed := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND status = ?", id, models.StatusDelivered).Delete(&models.Order{})
		if res.Error != nil {
			return translate(res.Error, "Order")
		}
		if res.RowsAffected == 0 {
			return nil
		}
		removed = true
		return translate(tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error, "Order item")
	})
	return removed, err
}

// UpdateCourierLocation sets the live location of the delivery person
func (r *OrderRepo) UpdateCourierLocation(ctx context.Context, id uint, lat, lng float64) error {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(map[string]any{
		"courier_current_latitude":  lat,
		"courier_current_longitude": lng,
	})
	if res.Error != nil {
		return translate(res.Error, "Order")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "Order")
	}
	return nil
}

// AssignCourier records who is delivering the order
func (r *OrderRepo) AssignCourier(ctx context.Context, id uint, name, phone string) error {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(map[string]any{
		"courier_name":  name,
		"courier_phone": phone,
	})
	if res.Error != nil {
		return translate(res.Error, "Order")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "Order")
	}
	return nil
}

// Ping checks the connection for health reporting
func (r *OrderRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return translate(err, "Database")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return translate(err, "Database")
	}
	return nil
}

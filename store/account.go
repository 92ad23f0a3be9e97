package store

import (
	"context"

	"campus-canteen-api/models"

	"gorm.io/gorm"
)

type AccountRepo struct {
	DB *gorm.DB
}

func (r *AccountRepo) CreateUser(ctx context.Context, u *models.User) error {
	return translate(r.DB.WithContext(ctx).Create(u).Error, "User")
}

func (r *AccountRepo) EmailTaken(ctx context.Context, email string) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return false, translate(err, "User")
	}
	return n > 0, nil
}

// FindUserForLogin matches email, role and the role's identifier together
func (r *AccountRepo) FindUserForLogin(ctx context.Context, email string, role models.Role, roleID string) (*models.User, error) {
	q := r.DB.WithContext(ctx).Where("email = ? AND role = ?", email, role)
	if role == models.RoleStudent {
		q = q.Where("student_id = ?", roleID)
	} else {
		q = q.Where("staff_id = ?", roleID)
	}
	var u models.User
	if err := q.First(&u).Error; err != nil {
		return nil, translate(err, "User")
	}
	return &u, nil
}

func (r *AccountRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err, "User")
	}
	return &u, nil
}

func (r *AccountRepo) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err, "User")
	}
	return &u, nil
}

func (r *AccountRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.DB.WithContext(ctx).Order("id asc").Find(&users).Error; err != nil {
		return nil, translate(err, "User")
	}
	return users, nil
}

func (r *AccountRepo) CreateAdmin(ctx context.Context, a *models.Admin) error {
	return translate(r.DB.WithContext(ctx).Create(a).Error, "Admin")
}

func (r *AccountRepo) AdminEmailTaken(ctx context.Context, email string) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Admin{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return false, translate(err, "Admin")
	}
	return n > 0, nil
}

// FindAdminByName looks up an admin by canteen name
func (r *AccountRepo) FindAdminByName(ctx context.Context, name string) (*models.Admin, error) {
	var a models.Admin
	if err := r.DB.WithContext(ctx).Where("name = ?", name).First(&a).Error; err != nil {
		return nil, translate(err, "Canteen")
	}
	return &a, nil
}

func (r *AccountRepo) GetAdmin(ctx context.Context, id uint) (*models.Admin, error) {
	var a models.Admin
	if err := r.DB.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, translate(err, "Admin")
	}
	return &a, nil
}

func (r *AccountRepo) UpdateAdmin(ctx context.Context, id uint, fields map[string]any) (*models.Admin, error) {
	if len(fields) > 0 {
		res := r.DB.WithContext(ctx).Model(&models.Admin{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, translate(res.Error, "Admin")
		}
	}
	return r.GetAdmin(ctx, id)
}

// Package identity owns user and admin accounts, session tokens and
// one-time passcodes.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"campus-canteen-api/apperr"
	"campus-canteen-api/models"
	"campus-canteen-api/notify"
	"campus-canteen-api/store"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

// Mailer is the slice of notify the identity service uses
type Mailer interface {
	Send(ctx context.Context, msg notify.Message) error
}

type Service struct {
	Accounts *store.AccountRepo
	Tokens   *TokenIssuer
	OTP      *OTPStore
	Mail     Mailer
	Log      *slog.Logger
}

// AdminView is an admin profile with its implicit role spelled out
type AdminView struct {
	models.Admin
	Role models.Role `json:"role"`
}

func adminView(a *models.Admin) AdminView {
	return AdminView{Admin: *a, Role: a.Role()}
}

type AuthResult struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

type RegisterUserInput struct {
	Name      string      `json:"name" binding:"required"`
	Email     string      `json:"email" binding:"required,email"`
	Phone     string      `json:"phone" binding:"required"`
	Role      models.Role `json:"role" binding:"required"`
	StudentID string      `json:"studentId"`
	StaffID   string      `json:"staffId"`
	Password  string      `json:"password" binding:"required"`
}

type LoginUserInput struct {
	Email     string      `json:"email" binding:"required"`
	Password  string      `json:"password" binding:"required"`
	Role      models.Role `json:"role" binding:"required"`
	StudentID string      `json:"studentId"`
	StaffID   string      `json:"staffId"`
}

type RegisterAdminInput struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone" binding:"required"`
	Address      string `json:"address" binding:"required"`
	CanteenID    string `json:"canteenId" binding:"required"`
	CanteenPhoto string `json:"canteenPhoto"`
	Password     string `json:"password" binding:"required"`
}

type LoginAdminInput struct {
	CanteenName string `json:"canteenName" binding:"required"`
	Password    string `json:"password" binding:"required"`
}

type UpdateAdminInput struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	CanteenPhoto string `json:"canteenPhoto"`
}

func validation(msg string) error {
	return fmt.Errorf("%w: %s", apperr.ErrValidation, msg)
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

func hashPassword(pw string) (string, error) {
	if len(pw) < minPasswordLen {
		return "", validation("Password must be at least 6 characters")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// roleIdentifier enforces studentId xor staffId according to role
func roleIdentifier(role models.Role, studentID, staffID string) (string, error) {
	studentID, staffID = strings.TrimSpace(studentID), strings.TrimSpace(staffID)
	switch role {
	case models.RoleStudent:
		if studentID == "" {
			return "", validation("Student ID is required for students")
		}
		if staffID != "" {
			return "", validation("Students cannot have a staff ID")
		}
		return studentID, nil
	case models.RoleStaff:
		if staffID == "" {
			return "", validation("Staff ID is required for staff")
		}
		if studentID != "" {
			return "", validation("Staff cannot have a student ID")
		}
		return staffID, nil
	}
	return "", validation("Role must be Student or Staff")
}

func (s *Service) issue(p models.Principal, profile any) (*AuthResult, error) {
	token, err := s.Tokens.Issue(p)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{Token: token, User: profile}, nil
}

func (s *Service) RegisterUser(ctx context.Context, in RegisterUserInput) (*AuthResult, error) {
	if strings.TrimSpace(in.Name) == "" || in.Email == "" || in.Phone == "" || in.Password == "" {
		return nil, validation("All fields are required")
	}
	email := normalizeEmail(in.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, validation("Invalid email address")
	}
	roleID, err := roleIdentifier(in.Role, in.StudentID, in.StaffID)
	if err != nil {
		return nil, err
	}
	taken, err := s.Accounts.EmailTaken(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, validation("User already exists")
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		Phone:        in.Phone,
		Role:         in.Role,
		PasswordHash: hash,
	}
	if in.Role == models.RoleStudent {
		u.StudentID = roleID
	} else {
		u.StaffID = roleID
	}
	if err := s.Accounts.CreateUser(ctx, u); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, validation("User already exists")
		}
		return nil, err
	}
	s.Log.Info("user registered", "user_id", u.ID, "role", u.Role)
	return s.issue(models.Principal{ID: u.ID, Role: u.Role}, u)
}

func (s *Service) LoginUser(ctx context.Context, in LoginUserInput) (*AuthResult, error) {
	if in.Email == "" || in.Password == "" || in.Role == "" {
		return nil, validation("Email, password and role are required")
	}
	roleID, err := roleIdentifier(in.Role, in.StudentID, in.StaffID)
	if err != nil {
		return nil, err
	}
	u, err := s.Accounts.FindUserForLogin(ctx, normalizeEmail(in.Email), in.Role, roleID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, validation("Invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		return nil, validation("Invalid credentials")
	}
	return s.issue(models.Principal{ID: u.ID, Role: u.Role}, u)
}

func (s *Service) RegisterAdmin(ctx context.Context, in RegisterAdminInput) (*AuthResult, error) {
	if strings.TrimSpace(in.Name) == "" || in.Email == "" || in.Phone == "" || in.Address == "" || in.CanteenID == "" || in.Password == "" {
		return nil, validation("All fields are required")
	}
	email := normalizeEmail(in.Email)
	taken, err := s.Accounts.AdminEmailTaken(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, validation("Admin already exists")
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	a := &models.Admin{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		Phone:        in.Phone,
		Address:      in.Address,
		CanteenID:    in.CanteenID,
		CanteenPhoto: in.CanteenPhoto,
		PasswordHash: hash,
	}
	if err := s.Accounts.CreateAdmin(ctx, a); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, validation("Admin already exists")
		}
		return nil, err
	}
	s.Log.Info("admin registered", "admin_id", a.ID)
	return s.issue(models.Principal{ID: a.ID, Role: models.RoleAdmin}, adminView(a))
}

func (s *Service) LoginAdmin(ctx context.Context, in LoginAdminInput) (*AuthResult, error) {
	if in.CanteenName == "" || in.Password == "" {
		return nil, validation("Canteen name and password are required")
	}
	a, err := s.Accounts.FindAdminByName(ctx, in.CanteenName)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, validation("Invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(in.Password)) != nil {
		return nil, validation("Invalid credentials")
	}
	return s.issue(models.Principal{ID: a.ID, Role: models.RoleAdmin}, adminView(a))
}

// UpdateAdminProfile applies the non-empty fields of in
func (s *Service) UpdateAdminProfile(ctx context.Context, p models.Principal, in UpdateAdminInput) (*AdminView, error) {
	if !p.IsAdmin() {
		return nil, fmt.Errorf("%w: admin access required", apperr.ErrForbidden)
	}
	fields := map[string]any{}
	if v := strings.TrimSpace(in.Name); v != "" {
		fields["name"] = v
	}
	if v := normalizeEmail(in.Email); v != "" {
		fields["email"] = v
	}
	if in.Phone != "" {
		fields["phone"] = in.Phone
	}
	if in.Address != "" {
		fields["address"] = in.Address
	}
	if in.CanteenPhoto != "" {
		fields["canteen_photo"] = in.CanteenPhoto
	}
	a, err := s.Accounts.UpdateAdmin(ctx, p.ID, fields)
	if err != nil {
		return nil, err
	}
	v := adminView(a)
	return &v, nil
}

// Authenticate verifies token and confirms the account still exists. It is
// the single credential check for REST calls and realtime handshakes.
func (s *Service) Authenticate(ctx context.Context, token string) (models.Principal, error) {
	p, err := s.Tokens.Parse(token)
	if err != nil {
		return models.Principal{}, err
	}
	if p.IsAdmin() {
		_, err = s.Accounts.GetAdmin(ctx, p.ID)
	} else {
		_, err = s.Accounts.GetUser(ctx, p.ID)
	}
	if errors.Is(err, apperr.ErrNotFound) {
		return models.Principal{}, fmt.Errorf("%w: account no longer exists", apperr.ErrUnauthorized)
	}
	if err != nil {
		return models.Principal{}, err
	}
	return p, nil
}

// Profile returns the caller's public profile
func (s *Service) Profile(ctx context.Context, p models.Principal) (any, error) {
	if p.IsAdmin() {
		a, err := s.Accounts.GetAdmin(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		return adminView(a), nil
	}
	return s.Accounts.GetUser(ctx, p.ID)
}

func (s *Service) ListUsers(ctx context.Context, p models.Principal) ([]models.User, error) {
	if !p.IsAdmin() {
		return nil, fmt.Errorf("%w: admin access required", apperr.ErrForbidden)
	}
	return s.Accounts.ListUsers(ctx)
}

// SendUserOTP issues a code for email. A mail failure is returned as a
// warning string, never as an error.
func (s *Service) SendUserOTP(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", validation("Email is required")
	}
	return s.sendOTP(ctx, email, "MITS Canteen - OTP Verification")
}

// SendAdminOTP issues a code for the admin of canteenName, delivered to
// the admin's registered e-mail.
func (s *Service) SendAdminOTP(ctx context.Context, canteenName string) (string, error) {
	if canteenName == "" {
		return "", validation("Canteen name is required")
	}
	a, err := s.Accounts.FindAdminByName(ctx, canteenName)
	if err != nil {
		return "", err
	}
	return s.sendOTP(ctx, a.Email, "MITS Canteen Login OTP")
}

func (s *Service) sendOTP(ctx context.Context, email, subject string) (string, error) {
	code, err := s.OTP.Issue(email)
	if err != nil {
		return "", err
	}
	msg := notify.Message{
		To:      email,
		Subject: subject,
		Body:    fmt.Sprintf("Your OTP is: %s. Valid for %d minutes.", code, int(s.OTP.ttl.Minutes())),
	}
	if err := s.Mail.Send(ctx, msg); err != nil {
		s.Log.Warn("otp mail failed", "to", email, "error", err)
		return "OTP email could not be delivered, please retry", nil
	}
	return "", nil
}

func (s *Service) VerifyOTP(email, code string) error {
	if !s.OTP.Verify(normalizeEmail(email), strings.TrimSpace(code)) {
		return validation("Invalid or expired OTP")
	}
	return nil
}

// Package account manages interview users: sign up, credential checks and profile lookup.
package account

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"mockinterview/internal/apperr"
	"mockinterview/internal/models"
	"mockinterview/internal/storage"
)

const minPasswordLength = 6

// SignupInput carries the fields of a registration form.
type SignupInput struct {
	FullName        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Service handles user lifecycle persistence.
type Service struct {
	db *storage.DB
}

// NewService builds a new account service.
func NewService(db *storage.DB) *Service {
	return &Service{db: db}
}

// Register creates a user after checking the signup rules.
func (s *Service) Register(ctx context.Context, in SignupInput) (*models.User, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := normalizeEmail(in.Email)
	if fullName == "" || email == "" || in.Password == "" || in.ConfirmPassword == "" {
		return nil, apperr.InvalidArgument.New("All fields are required")
	}
	if in.Password != in.ConfirmPassword {
		return nil, apperr.InvalidArgument.New("Passwords do not match")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.InvalidArgument.New("Password must be at least 6 characters long")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal.Wrap(err, "Failed to create user")
	}
	now := time.Now().UTC()
	id, err := s.db.InsertID(ctx, s.db,
		`INSERT INTO users (full_name, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		fullName, email, string(hash), now,
	)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return nil, apperr.InvalidArgument.New("User already exists with this email")
		}
		return nil, apperr.Internal.Wrap(err, "Failed to create user")
	}
	return &models.User{ID: id, FullName: fullName, Email: email, PasswordHash: string(hash), CreatedAt: now}, nil
}

// Login validates credentials and returns the user profile.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.InvalidArgument.New("Email and password are required")
	}
	user, err := s.findUser(ctx, `WHERE email = ?`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.InvalidArgument.New("Invalid email or password")
		}
		return nil, apperr.Internal.Wrap(err, "Database error")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.InvalidArgument.New("Invalid email or password")
	}
	return user, nil
}

// GetUser returns the profile of the given user.
func (s *Service) GetUser(ctx context.Context, id int64) (*models.User, error) {
	if id <= 0 {
		return nil, apperr.InvalidArgument.New("invalid user id")
	}
	user, err := s.findUser(ctx, `WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound.New("User not found")
		}
		return nil, apperr.Internal.Wrap(err, "Database error")
	}
	return user, nil
}

func (s *Service) findUser(ctx context.Context, where string, arg any) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		s.db.Rebind(`SELECT id, full_name, email, password_hash, created_at FROM users `+where), arg,
	)
	var user models.User
	if err := row.Scan(&user.ID, &user.FullName, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
		return nil, err
	}
	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

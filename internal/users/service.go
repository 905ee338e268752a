package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/acompanha/acompanha/internal/models"
	"github.com/acompanha/acompanha/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor for stored password hashes.
const DefaultCost = 12

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

// UserRepository defines persistence operations for users
type UserRepository interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	// UpdateUser runs fn on the current user (nil when absent) and stores the
	// returned user in one atomic step; a nil result means no change.
	UpdateUser(ctx context.Context, email string, fn func(cur *models.User) (*models.User, error)) (*models.User, error)
}

// Service encapsulates user-related business logic
type Service struct {
	repo UserRepository
	cost int
	now  func() time.Time
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r, cost: DefaultCost, now: func() time.Time { return time.Now().UTC() }}
}

// WithCost returns a copy of s hashing with the given bcrypt cost.
func (s *Service) WithCost(cost int) *Service {
	cp := *s
	cp.cost = cost
	return &cp
}

// EnsureAdmin creates an admin with the given credentials unless a user with
// that email already exists. It reports whether a user was created.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return false, errors.New("admin email and password are required")
	}
	// skip hashing on every boot once the admin exists
	existing, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return false, err
	}
	created, err := s.repo.UpdateUser(ctx, email, func(cur *models.User) (*models.User, error) {
		if cur != nil {
			return nil, nil
		}
		return &models.User{
			ID:           "u_" + uuid.NewString(),
			Email:        email,
			PasswordHash: hash,
			Role:         models.RoleAdmin,
			CreatedAt:    s.now(),
		}, nil
	})
	if err != nil {
		return false, err
	}
	if created == nil {
		return false, nil
	}
	logger.Infof("admin user created: %s", email)
	return true, nil
}

// Authenticate returns the user when password matches its stored hash.
// Unknown email and wrong password both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.repo.FindUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// SetPassword replaces the password hash of an existing user.
func (s *Service) SetPassword(ctx context.Context, email, password string) error {
	if password == "" {
		return errors.New("password is required")
	}
	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return err
	}
	_, err = s.repo.UpdateUser(ctx, strings.TrimSpace(email), func(cur *models.User) (*models.User, error) {
		if cur == nil {
			return nil, ErrUserNotFound
		}
		cur.PasswordHash = hash
		return cur, nil
	})
	return err
}

func HashPassword(password string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

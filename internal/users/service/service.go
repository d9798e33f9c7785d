package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventhub/internal/auth"
	"eventhub/internal/logger"
	"eventhub/internal/models"
)

type UserDBLayer interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type UserService struct {
	DB        UserDBLayer
	JWTSecret string
	TokenTTL  time.Duration
	Log       *logger.Logger
}

func NewUserService(db UserDBLayer, jwtSecret string, tokenTTL time.Duration, log *logger.Logger) *UserService {
	return &UserService{DB: db, JWTSecret: jwtSecret, TokenTTL: tokenTTL, Log: log}
}

func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.UserSummary, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", models.ErrValidation)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := s.DB.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logf("USER", "registered %s", email)
	return user.Summary(), nil
}

// Login checks credentials and returns a signed session token plus the
// user summary.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *models.UserSummary, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return "", nil, fmt.Errorf("%w: email and password are required", models.ErrValidation)
	}

	user, err := s.DB.GetUserByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return "", nil, models.ErrUnauthenticated
	}

	token, err := auth.IssueToken(s.JWTSecret, user.ID, user.Name, user.Email, s.TokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}

	s.logf("USER", "login %s", email)
	return token, user.Summary(), nil
}

func (s *UserService) Profile(ctx context.Context, userID string) (*models.UserSummary, error) {
	user, err := s.DB.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Summary(), nil
}

func (s *UserService) logf(category, format string, args ...interface{}) {
	if s.Log != nil {
		s.Log.Info(category, fmt.Sprintf(format, args...))
	}
}

package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/capsulevault/timecapsule/internal/domain/entity"
	repo "github.com/capsulevault/timecapsule/internal/domain/repository"
	"github.com/capsulevault/timecapsule/pkg/helpers"
)

// AuthService covers registration and credential verification. Tokens carry
// the username as subject; nothing about a session is stored server-side.
type AuthService struct {
	Users  repo.UserRepository
	JWT    *helpers.JWTManager
	Logger *logrus.Logger
}

func NewAuthService(users repo.UserRepository, jwt *helpers.JWTManager, logger *logrus.Logger) *AuthService {
	return &AuthService{Users: users, JWT: jwt, Logger: logger}
}

// Register creates a new user. A taken username surfaces as
// repository.ErrDuplicateUsername.
func (s *AuthService) Register(ctx context.Context, username, password, email string) (*entity.User, error) {
	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{Username: username, Password: hash, Email: email}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.WithField("username", u.Username).Info("user registered")
	}
	return u, nil
}

// Login verifies the credentials and issues a signed token. Unknown users
// and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	u, err := s.Users.GetByUsername(ctx, username)
	if err != nil || u == nil {
		return "", time.Time{}, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return "", time.Time{}, ErrInvalidCredentials
	}
	token, exp, err := s.JWT.Generate(u.Username)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("username", username).Error("token generation failed")
		}
		return "", time.Time{}, err
	}
	return token, exp, nil
}

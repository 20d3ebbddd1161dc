package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"go-dating-api/event"
	"go-dating-api/logger"
	"go-dating-api/model"
	"go-dating-api/repository"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// RegisterParams is the input for creating a new account. Plaintext password
// only lives for the duration of the call.
type RegisterParams struct {
	Email    string
	Name     string
	Password string
}

// AuthService owns registration and login. It verifies credentials against
// the user directory and delegates session creation to the SessionService;
// it never stores or forwards a plaintext password.
type AuthService struct {
	users      repository.IUserRepository
	sessions   *SessionService
	notifier   event.INotifier
	bcryptCost int
}

func NewAuthService(users repository.IUserRepository, sessions *SessionService, notifier event.INotifier, bcryptCost int) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = 12
	}
	return &AuthService{
		users:      users,
		sessions:   sessions,
		notifier:   notifier,
		bcryptCost: bcryptCost,
	}
}

func (s *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to hash password")
		return "", err
	}
	return string(bytes), nil
}

func (s *AuthService) CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Register creates a user and immediately opens a session for it, matching
// the product behavior of logging a user in right after sign-up.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (*model.User, *model.TokenPair, error) {
	_, err := s.users.GetUserByEmail(params.Email)
	if err == nil {
		return nil, nil, ErrEmailTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hashedPassword, err := s.HashPassword(params.Password)
	if err != nil {
		return nil, nil, err
	}

	user := &model.User{
		Email:    params.Email,
		Name:     params.Name,
		Password: hashedPassword,
		Role:     string(model.RoleUser),
	}
	if err := s.users.CreateUser(user); err != nil {
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.notifier.UserCreated(ctx, user.ID, user.Email); err != nil {
		// Event delivery must not fail the registration.
		logger.Log.WithError(err).WithField("user_id", user.ID).Warn("Failed to emit user.created event")
	}

	tokens, err := s.sessions.IssueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	logger.Log.WithField("user_id", user.ID).Info("User registered")
	return user, tokens, nil
}

// Login verifies the credentials and issues a fresh session, superseding any
// previously active one.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, *model.TokenPair, error) {
	user, err := s.users.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !s.CheckPasswordHash(password, user.Password) {
		return nil, nil, ErrInvalidCredentials
	}

	if err := s.users.TouchLastActive(user.ID); err != nil {
		logger.Log.WithError(err).WithField("user_id", user.ID).Warn("Failed to update last active timestamp")
	}

	tokens, err := s.sessions.IssueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

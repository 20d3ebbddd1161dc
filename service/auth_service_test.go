// file: service/auth_service_test.go

package service

import (
	"context"
	"database/sql"
	"go-dating-api/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Emit(ctx context.Context, topic string, payload map[string]interface{}) error {
	args := m.Called(ctx, topic, payload)
	return args.Error(0)
}
func (m *mockNotifier) UserCreated(ctx context.Context, userID, email string) error {
	args := m.Called(ctx, userID, email)
	return args.Error(0)
}

func newTestAuthService(t *testing.T) (*AuthService, *mockUserRepo, *mockNotifier, *fakeTokenStore) {
	t.Helper()

	store := newFakeTokenStore()
	users := new(mockUserRepo)
	notifier := new(mockNotifier)
	sessions := NewSessionService(store, users, testSessionConfig)
	return NewAuthService(users, sessions, notifier, bcrypt.MinCost), users, notifier, store
}

func TestAuthService_HashAndCheckPassword(t *testing.T) {
	authService, _, _, _ := newTestAuthService(t)
	password := "mySecretPassword123"

	hashedPassword, err := authService.HashPassword(password)
	require.NoError(t, err)
	assert.NotEqual(t, password, hashedPassword)

	assert.True(t, authService.CheckPasswordHash(password, hashedPassword))
	assert.False(t, authService.CheckPasswordHash("notMyPassword", hashedPassword))
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("success issues a session and emits user.created", func(t *testing.T) {
		authService, users, notifier, store := newTestAuthService(t)

		users.On("GetUserByEmail", "new@example.com").Return(nil, sql.ErrNoRows).Once()
		users.On("CreateUser", mock.AnythingOfType("*model.User")).Run(func(args mock.Arguments) {
			user := args.Get(0).(*model.User)
			user.ID = "u-new"
			user.IsActive = true
		}).Return(nil).Once()
		notifier.On("UserCreated", ctx, "u-new", "new@example.com").Return(nil).Once()

		user, tokens, err := authService.Register(ctx, RegisterParams{
			Email:    "new@example.com",
			Name:     "Newcomer",
			Password: "password123",
		})

		require.NoError(t, err)
		assert.Equal(t, "u-new", user.ID)
		assert.Equal(t, string(model.RoleUser), user.Role)
		assert.NotEqual(t, "password123", user.Password, "stored password must be hashed")
		assert.NotEmpty(t, tokens.AccessToken)
		assert.NotEmpty(t, tokens.RefreshToken)

		_, ok := store.lookup("refresh_token:u-new")
		assert.True(t, ok, "a session should be active after registration")

		users.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		authService, users, _, _ := newTestAuthService(t)
		users.On("GetUserByEmail", "taken@example.com").Return(testUser(), nil).Once()

		_, _, err := authService.Register(ctx, RegisterParams{Email: "taken@example.com", Password: "pw"})

		assert.ErrorIs(t, err, ErrEmailTaken)
		users.AssertNotCalled(t, "CreateUser", mock.Anything)
	})

	t.Run("notifier failure does not fail registration", func(t *testing.T) {
		authService, users, notifier, _ := newTestAuthService(t)

		users.On("GetUserByEmail", "new@example.com").Return(nil, sql.ErrNoRows).Once()
		users.On("CreateUser", mock.AnythingOfType("*model.User")).Run(func(args mock.Arguments) {
			args.Get(0).(*model.User).ID = "u-new"
		}).Return(nil).Once()
		notifier.On("UserCreated", ctx, "u-new", "new@example.com").Return(assert.AnError).Once()

		_, tokens, err := authService.Register(ctx, RegisterParams{Email: "new@example.com", Password: "pw"})

		require.NoError(t, err)
		assert.NotEmpty(t, tokens.RefreshToken)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		authService, users, _, _ := newTestAuthService(t)

		hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
		require.NoError(t, err)
		user := testUser()
		user.Password = string(hashed)

		users.On("GetUserByEmail", user.Email).Return(user, nil).Once()
		users.On("TouchLastActive", user.ID).Return(nil).Once()

		loggedIn, tokens, err := authService.Login(ctx, user.Email, "password123")

		require.NoError(t, err)
		assert.Equal(t, user.ID, loggedIn.ID)
		assert.NotEmpty(t, tokens.AccessToken)
		users.AssertExpectations(t)
	})

	t.Run("wrong password", func(t *testing.T) {
		authService, users, _, _ := newTestAuthService(t)

		hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
		require.NoError(t, err)
		user := testUser()
		user.Password = string(hashed)

		users.On("GetUserByEmail", user.Email).Return(user, nil).Once()

		_, _, err = authService.Login(ctx, user.Email, "wrongpassword")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
		users.AssertNotCalled(t, "TouchLastActive", mock.Anything)
	})

	t.Run("unknown email", func(t *testing.T) {
		authService, users, _, _ := newTestAuthService(t)
		users.On("GetUserByEmail", "nobody@example.com").Return(nil, sql.ErrNoRows).Once()

		_, _, err := authService.Login(ctx, "nobody@example.com", "password123")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

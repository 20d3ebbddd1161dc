package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"go-dating-api/logger"
	"go-dating-api/model"
	"go-dating-api/repository"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// Authentication failures surfaced by the session lifecycle. All of them map
// to an unauthorized response at the HTTP edge; none are retryable.
var (
	ErrInvalidStructure  = errors.New("invalid refresh token structure")
	ErrNotFoundOrRevoked = errors.New("refresh token not found or revoked")
	ErrInvalidSecret     = errors.New("invalid refresh token")
	ErrTokenMismatch     = errors.New("refresh token mismatch")
	ErrUserNotFound      = errors.New("user not found")
	ErrTokenRevoked      = errors.New("token has been revoked")
)

// Store key namespace. These patterns are a wire contract shared with
// neighboring services; do not change them.
func refreshKey(refreshID string) string     { return "refresh:" + refreshID }
func userTokenKey(userID string) string      { return "refresh_token:" + userID }
func blacklistKey(accessToken string) string { return "blacklist:" + accessToken }

// SessionConfig carries every tunable of the session lifecycle. It is built
// once from the application config and passed in at construction.
type SessionConfig struct {
	SecretKey  []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// BcryptCost is the work factor for refresh-secret hashing.
	BcryptCost int
	// MaxConcurrentHashes bounds in-flight bcrypt work so a burst of logins
	// cannot starve other requests.
	MaxConcurrentHashes int64
}

// SessionService manages the full lifecycle of access and refresh
// credentials: issuance, rotation-on-use, revocation and blacklist checks.
// It holds no mutable state of its own; the token store is the single source
// of truth.
type SessionService struct {
	store   ITokenStore
	users   repository.IUserRepository
	cfg     SessionConfig
	hashSem *semaphore.Weighted
}

func NewSessionService(store ITokenStore, users repository.IUserRepository, cfg SessionConfig) *SessionService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.MaxConcurrentHashes <= 0 {
		cfg.MaxConcurrentHashes = 8
	}
	return &SessionService{
		store:   store,
		users:   users,
		cfg:     cfg,
		hashSem: semaphore.NewWeighted(cfg.MaxConcurrentHashes),
	}
}

// IssueTokens creates a fresh session for the user: a new opaque refresh
// token ("<refreshId>.<secret>", secret stored only as a bcrypt hash) and a
// signed access token. Any previously active session for the same user is
// invalidated first; there is no multi-device support.
func (s *SessionService) IssueTokens(ctx context.Context, user *model.User) (*model.TokenPair, error) {
	existing, err := s.store.Get(ctx, userTokenKey(user.ID))
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		return nil, fmt.Errorf("failed to check existing session: %w", err)
	}
	if err == nil && existing != "" {
		logger.Log.WithField("user_id", user.ID).Info("Invalidating previous session before issuing a new one")
		if err := s.store.Del(ctx, userTokenKey(user.ID)); err != nil {
			return nil, fmt.Errorf("failed to delete previous session: %w", err)
		}
	}

	refreshID := uuid.NewString()
	secret := uuid.NewString() + uuid.NewString()

	hash, err := s.hashSecret(ctx, secret)
	if err != nil {
		return nil, fmt.Errorf("failed to hash refresh secret: %w", err)
	}

	record, err := json.Marshal(model.SessionRecord{UserID: user.ID, Hash: hash})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session record: %w", err)
	}

	if err := s.store.Set(ctx, refreshKey(refreshID), string(record), s.cfg.RefreshTTL); err != nil {
		return nil, fmt.Errorf("failed to store refresh record: %w", err)
	}

	opaque := refreshID + "." + secret
	// Both keys carry the same TTL so they expire together.
	if err := s.store.Set(ctx, userTokenKey(user.ID), opaque, s.cfg.RefreshTTL); err != nil {
		return nil, fmt.Errorf("failed to store active token pointer: %w", err)
	}

	accessToken, err := s.signAccessToken(user)
	if err != nil {
		return nil, err
	}

	return &model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: opaque,
		ExpiresIn:    int64(s.cfg.AccessTTL.Seconds()),
	}, nil
}

// RefreshTokens rotates a session. The presented refresh token is consumed
// atomically, so of two concurrent calls with the same token exactly one can
// succeed; every success invalidates the token just used and issues a
// completely new pair.
func (s *SessionService) RefreshTokens(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	refreshID, secret, err := splitOpaqueToken(refreshToken)
	if err != nil {
		return nil, err
	}

	raw, err := s.store.GetDel(ctx, refreshKey(refreshID))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, ErrNotFoundOrRevoked
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume refresh record: %w", err)
	}

	var record model.SessionRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session record: %w", err)
	}

	match, err := s.compareSecret(ctx, record.Hash, secret)
	if err != nil {
		return nil, err
	}
	if !match {
		// A valid refreshId with a wrong secret is a theft signal. The
		// record was already consumed above, so this chain is burned.
		logger.Log.WithField("refresh_id", refreshID).Warn("Refresh secret mismatch, revoking token chain")
		return nil, ErrInvalidSecret
	}

	stored, err := s.store.Get(ctx, userTokenKey(record.UserID))
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		return nil, fmt.Errorf("failed to read active token pointer: %w", err)
	}
	if errors.Is(err, ErrKeyNotFound) || stored != refreshToken {
		// Reuse of a superseded token. The active chain, if any, stays
		// untouched.
		return nil, ErrTokenMismatch
	}

	if err := s.store.Del(ctx, userTokenKey(record.UserID)); err != nil {
		return nil, fmt.Errorf("failed to delete active token pointer: %w", err)
	}

	user, err := s.users.GetUserByID(record.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user for refresh: %w", err)
	}

	return s.IssueTokens(ctx, user)
}

// Logout revokes the refresh chain identified by the token and, when an
// access token is supplied, blacklists it for its remaining lifetime.
// Holding a structurally valid token with an existing refreshId is enough to
// log out; the secret is not verified.
func (s *SessionService) Logout(ctx context.Context, refreshToken, accessToken string) error {
	refreshID, _, err := splitOpaqueToken(refreshToken)
	if err != nil {
		return err
	}

	raw, err := s.store.GetDel(ctx, refreshKey(refreshID))
	if errors.Is(err, ErrKeyNotFound) {
		return ErrNotFoundOrRevoked
	}
	if err != nil {
		return fmt.Errorf("failed to consume refresh record: %w", err)
	}

	var record model.SessionRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return fmt.Errorf("failed to unmarshal session record: %w", err)
	}

	if err := s.store.Del(ctx, userTokenKey(record.UserID)); err != nil {
		return fmt.Errorf("failed to delete active token pointer: %w", err)
	}

	if accessToken != "" {
		s.blacklistAccessToken(ctx, accessToken)
	}

	logger.Log.WithField("user_id", record.UserID).Info("Session revoked")
	return nil
}

// ValidateAccessToken authorizes a bearer token: it must not be blacklisted
// and its signature, expiry and issuer must verify. No other store lookups
// are performed; a token is valid by default until blacklisted or expired.
func (s *SessionService) ValidateAccessToken(ctx context.Context, tokenString string) (*model.AppClaims, error) {
	_, err := s.store.Get(ctx, blacklistKey(tokenString))
	if err == nil {
		return nil, ErrTokenRevoked
	}
	if !errors.Is(err, ErrKeyNotFound) {
		// Store trouble is transient, not proof of invalidity.
		return nil, fmt.Errorf("failed to check token blacklist: %w", err)
	}

	claims := &model.AppClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.cfg.SecretKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer(s.cfg.Issuer))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token: %w", err)
	}

	return claims, nil
}

func (s *SessionService) signAccessToken(user *model.User) (string, error) {
	now := time.Now()
	claims := &model.AppClaims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.cfg.SecretKey)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", user.ID).Error("Failed to sign access token")
		return "", fmt.Errorf("failed to sign token string: %w", err)
	}
	return signed, nil
}

// blacklistAccessToken stores a blacklist entry whose TTL equals the
// remaining lifetime of the token. Unparseable tokens are ignored: failing
// to blacklist a token that no verifier would accept cannot be exploited,
// and the refresh-chain revocation has already succeeded.
func (s *SessionService) blacklistAccessToken(ctx context.Context, accessToken string) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil || claims.ExpiresAt == nil {
		logger.Log.WithError(err).Debug("Skipping blacklist of unparseable access token")
		return
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return
	}
	if err := s.store.Set(ctx, blacklistKey(accessToken), "true", ttl); err != nil {
		logger.Log.WithError(err).Error("Failed to blacklist access token")
	}
}

func (s *SessionService) hashSecret(ctx context.Context, secret string) (string, error) {
	if err := s.hashSem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer s.hashSem.Release(1)

	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), s.cfg.BcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (s *SessionService) compareSecret(ctx context.Context, hash, secret string) (bool, error) {
	if err := s.hashSem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer s.hashSem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// splitOpaqueToken splits "<refreshId>.<secret>" at the first period.
func splitOpaqueToken(token string) (refreshID, secret string, err error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", ErrInvalidStructure
	}
	return parts[0], parts[1], nil
}

// Package services contains server-side business logic. This file implements
// AuthService: login, refresh, logout and access-token authentication over
// the credential and session stores.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkit/internal/common"
	"github.com/dmitrijs2005/authkit/internal/logging"
	"github.com/dmitrijs2005/authkit/internal/server/auth"
	"github.com/dmitrijs2005/authkit/internal/server/models"
	"github.com/dmitrijs2005/authkit/internal/server/repositories/repomanager"
	"github.com/samber/oops"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	TokenPair
	User models.UserView
}

// TokenSettings are the signing secrets and lifetimes of both token classes.
type TokenSettings struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// EventRecorder counts authentication outcomes.
type EventRecorder interface {
	AuthEvent(operation, result string)
}

type nopRecorder struct{}

func (nopRecorder) AuthEvent(string, string) {}

// dummySecret is hashed once at startup; unknown emails are verified against
// that digest so a miss costs as much as a wrong password.
const dummySecret = "authkit-timing-equalizer"

// AuthService owns the session state machine:
//
//	NoActiveSession --Login--> ActiveSession
//	ActiveSession   --Login--> ActiveSession (stored hash overwritten)
//	ActiveSession   --Logout--> NoActiveSession
//	Refresh is a self-loop on ActiveSession and never writes.
type AuthService struct {
	repomanager repomanager.RepositoryManager
	hasher      auth.Hasher
	codec       *auth.TokenCodec
	tokens      TokenSettings
	logger      logging.Logger
	events      EventRecorder
	dummyHash   string
	now         func() time.Time
}

// NewAuthService wires an AuthService. events may be nil.
func NewAuthService(m repomanager.RepositoryManager, hasher auth.Hasher, codec *auth.TokenCodec,
	tokens TokenSettings, logger logging.Logger, events EventRecorder) (*AuthService, error) {
	if tokens.AccessSecret == "" || tokens.RefreshSecret == "" {
		return nil, errors.New("access and refresh token secrets are required")
	}
	if events == nil {
		events = nopRecorder{}
	}

	dummy, err := hasher.Hash(dummySecret)
	if err != nil {
		return nil, oops.Code("AUTH_DUMMY_HASH").Wrap(err)
	}

	return &AuthService{
		repomanager: m,
		hasher:      hasher,
		codec:       codec,
		tokens:      tokens,
		logger:      logger.With("module", "auth_service"),
		events:      events,
		dummyHash:   dummy,
		now:         time.Now,
	}, nil
}

// NormalizeEmail trims and lower-cases an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login checks the credential pair, issues a token pair and stores the
// refresh token digest, replacing any previous one.
func (s *AuthService) Login(ctx context.Context, email, password string) (res *LoginResult, err error) {
	defer func() { s.record("login", err) }()

	user, lookupErr := s.repomanager.Users(s.repomanager.DB()).GetByEmail(ctx, NormalizeEmail(email))
	if lookupErr != nil && !errors.Is(lookupErr, common.ErrorNotFound) {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by email").
			Wrap(lookupErr)
	}

	if user == nil {
		s.hasher.Verify(password, s.dummyHash)
		return nil, common.ErrAuthenticationFailed
	}

	if !s.hasher.Verify(password, user.PasswordHash) || !user.IsActive {
		return nil, common.ErrAuthenticationFailed
	}

	pair, expiresAt, err := s.issuePair(user)
	if err != nil {
		return nil, oops.Code("AUTH_TOKEN_ISSUE_FAILED").With("user_id", user.ID).Wrap(err)
	}

	digest, err := s.hasher.Hash(pair.RefreshToken)
	if err != nil {
		return nil, oops.Code("AUTH_TOKEN_HASH_FAILED").With("user_id", user.ID).Wrap(err)
	}

	if err := s.repomanager.Sessions(s.repomanager.DB()).SetToken(ctx, user.ID, digest, expiresAt); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Error(ctx, "session record missing", "user_id", user.ID, "operation", "login")
			return nil, common.ErrSessionRecordMissing
		}
		return nil, oops.Code("AUTH_SESSION_WRITE_FAILED").With("user_id", user.ID).Wrap(err)
	}

	return &LoginResult{TokenPair: *pair, User: user.View()}, nil
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token and its stored digest are left unchanged.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (token string, err error) {
	defer func() { s.record("refresh", err) }()

	claims, err := s.codec.Verify(refreshToken, s.tokens.RefreshSecret)
	if err != nil {
		return "", common.ErrInvalidRefreshToken
	}

	db := s.repomanager.DB()

	user, err := s.repomanager.Users(db).GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrUserNotFound
		}
		return "", oops.Code("AUTH_REFRESH_FAILED").
			With("operation", "get user by id").
			With("user_id", claims.UserID).
			Wrap(err)
	}

	session, err := s.repomanager.Sessions(db).GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Error(ctx, "session record missing", "user_id", user.ID, "operation", "refresh")
			return "", common.ErrSessionRecordMissing
		}
		return "", oops.Code("AUTH_REFRESH_FAILED").
			With("operation", "get session").
			With("user_id", user.ID).
			Wrap(err)
	}

	if !session.Active() {
		return "", common.ErrInvalidRefreshToken
	}
	if session.RefreshTokenExpiresAt != nil && *session.RefreshTokenExpiresAt <= s.now().Unix() {
		return "", common.ErrInvalidRefreshToken
	}
	if !s.hasher.Verify(refreshToken, *session.RefreshTokenHash) {
		return "", common.ErrInvalidRefreshToken
	}

	access, err := s.issueAccess(user)
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_ISSUE_FAILED").With("user_id", user.ID).Wrap(err)
	}

	return access, nil
}

// Logout clears the user's stored refresh token. Clearing an empty slot
// succeeds.
func (s *AuthService) Logout(ctx context.Context, userID int64) (err error) {
	defer func() { s.record("logout", err) }()

	repo := s.repomanager.Sessions(s.repomanager.DB())

	if _, err := repo.GetByUserID(ctx, userID); err != nil {
		return s.sessionErr(ctx, err, userID, "logout")
	}
	if err := repo.ClearToken(ctx, userID); err != nil {
		return s.sessionErr(ctx, err, userID, "logout")
	}

	return nil
}

// Authenticate resolves the caller behind an access token. Every failure is
// reported as common.ErrInvalidAccessToken except store faults.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.codec.Verify(accessToken, s.tokens.AccessSecret)
	if err != nil {
		return nil, common.ErrInvalidAccessToken
	}

	user, err := s.repomanager.Users(s.repomanager.DB()).GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidAccessToken
		}
		return nil, oops.Code("AUTH_AUTHENTICATE_FAILED").With("user_id", claims.UserID).Wrap(err)
	}
	if !user.IsActive {
		return nil, common.ErrInvalidAccessToken
	}

	return user, nil
}

func (s *AuthService) sessionErr(ctx context.Context, err error, userID int64, op string) error {
	if errors.Is(err, common.ErrorNotFound) {
		s.logger.Error(ctx, "session record missing", "user_id", userID, "operation", op)
		return common.ErrSessionRecordMissing
	}
	return oops.Code("AUTH_SESSION_FAILED").With("user_id", userID).With("operation", op).Wrap(err)
}

func (s *AuthService) record(op string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	s.events.AuthEvent(op, result)
}

func (s *AuthService) issueAccess(user *models.User) (string, error) {
	return s.codec.Issue(auth.Claims{UserID: user.ID, ProfileName: user.ProfileName}, s.tokens.AccessSecret, s.tokens.AccessTTL)
}

// issuePair returns both tokens and the refresh token's exp read back from
// its verified payload.
func (s *AuthService) issuePair(user *models.User) (*TokenPair, int64, error) {
	access, err := s.issueAccess(user)
	if err != nil {
		return nil, 0, err
	}

	refresh, err := s.codec.Issue(auth.Claims{UserID: user.ID}, s.tokens.RefreshSecret, s.tokens.RefreshTTL)
	if err != nil {
		return nil, 0, err
	}

	claims, err := s.codec.Verify(refresh, s.tokens.RefreshSecret)
	if err != nil {
		return nil, 0, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, claims.ExpiresAt.Unix(), nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gatewayapi/internal/auth"
	"gatewayapi/internal/idgen"
	"gatewayapi/internal/logger"
	"gatewayapi/internal/model"
	"gatewayapi/internal/repository"
)

const (
	minPasswordLen = 8
	// bcrypt ignores input beyond 72 bytes.
	maxPasswordLen    = 72
	maxDisplayNameLen = 100
)

// TokenManager issues and verifies access tokens.
type TokenManager interface {
	Issue(userID, email string) (auth.Token, error)
	Parse(value string) (*auth.Claims, error)
}

// RegisterInput carries the fields accepted at sign-up.
type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// Session is returned on successful login.
type Session struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        *model.User `json:"user"`
}

// AuthService registers users, exchanges credentials for tokens and verifies tokens.
type AuthService interface {
	// Register creates an account. Duplicate emails yield ErrEmailTaken.
	Register(ctx context.Context, in RegisterInput) (*model.User, error)

	// Login checks credentials and issues a token. Unknown email and wrong password
	// both yield ErrInvalidCredentials.
	Login(ctx context.Context, email, password string) (*Session, error)

	// Authenticate verifies an access token.
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)

	// Me returns the account behind an authenticated user ID.
	Me(ctx context.Context, userID string) (*model.User, error)
}

type authService struct {
	users      repository.UserRepository
	tokens     TokenManager
	ids        idgen.Generator
	bcryptCost int
	now        func() time.Time
}

// NewAuthService constructs a new AuthService.
func NewAuthService(users repository.UserRepository, tokens TokenManager, ids idgen.Generator, bcryptCost int) AuthService {
	return &authService{
		users:      users,
		tokens:     tokens,
		ids:        ids,
		bcryptCost: bcryptCost,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := normalizeEmail(in.Email)
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.ContainsAny(email, " \t\r\n") {
		return nil, fmt.Errorf("%w: email is malformed", ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLen || len(in.Password) > maxPasswordLen {
		return nil, fmt.Errorf("%w: password must be %d to %d bytes", ErrInvalidInput, minPasswordLen, maxPasswordLen)
	}
	name := strings.TrimSpace(in.DisplayName)
	if name == "" {
		name = local
	}
	if len(name) > maxDisplayNameLen {
		return nil, fmt.Errorf("%w: display name is too long", ErrInvalidInput)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	u, err := s.users.Create(ctx, &model.User{
		ID:           s.ids.Generate(),
		Email:        email,
		DisplayName:  name,
		PasswordHash: hash,
		CreatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.FromContext(ctx).Info().Str("user_id", u.ID).Msg("user registered")
	return u, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	// bcrypt only compares the first 72 bytes; longer input would match a
	// stored password followed by anything.
	if email == "" || password == "" || len(password) > maxPasswordLen {
		return nil, ErrInvalidCredentials
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := auth.ComparePassword(u.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			logger.FromContext(ctx).Warn().Str("user_id", u.ID).Msg("wrong password")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("compare password: %w", err)
	}

	tok, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		// last_login_at is best effort.
		logger.FromContext(ctx).Error().Err(err).Str("user_id", u.ID).Msg("update last login")
	} else {
		u.LastLoginAt = &now
	}

	return &Session{
		AccessToken: tok.Value,
		TokenType:   "Bearer",
		ExpiresAt:   tok.ExpiresAt,
		User:        u,
	}, nil
}

func (s *authService) Authenticate(_ context.Context, token string) (*auth.Claims, error) {
	return s.tokens.Parse(token)
}

func (s *authService) Me(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, ErrIDRequired
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

package auth

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/angelmondragon/shopfront-backend/internal/catalog"
	"github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
)

// Session is the credential state persisted in the key-value store. There
// is no ambient global: callers go through the Manager.
type Session struct {
	Token        string        `json:"token"`
	RefreshToken string        `json:"refreshToken"`
	User         *catalog.User `json:"user,omitempty"`
}

type sessionKV interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	GetOptional(ctx context.Context, key string) (string, bool, error)
	Del(ctx context.Context, keys ...string) error

	TokenKey() string
	RefreshTokenKey() string
	UserKey() string
}

type catalogAuth interface {
	Login(ctx context.Context, email, password string) (*catalog.AuthTokens, error)
	RefreshToken(ctx context.Context, refreshToken string) (*catalog.AuthTokens, error)
	Profile(ctx context.Context) (*catalog.User, error)
	CreateUser(ctx context.Context, input catalog.NewUser) (*catalog.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// Manager owns the session lifecycle against the remote auth endpoints and
// the local credential store. It implements the catalog token source, so
// storing a token here is what makes subsequent catalog calls
// authenticated.
type Manager struct {
	kv       sessionKV
	catalog  catalogAuth
	logger   *logger.Logger
	validate *validator.Validate
	tokenTTL time.Duration
	now      func() time.Time
}

type ManagerParams struct {
	KV      sessionKV
	Catalog catalogAuth
	Logger  *logger.Logger
	// TokenTTL bounds how long stored credentials live; zero keeps them
	// until logout or a 401 clears them.
	TokenTTL time.Duration
	Now      func() time.Time
}

func NewManager(p ManagerParams) (*Manager, error) {
	if p.KV == nil {
		return nil, errors.New(errors.CodeInternal, "session manager requires a kv client")
	}
	if p.Catalog == nil {
		return nil, errors.New(errors.CodeInternal, "session manager requires a catalog client")
	}
	if p.Logger == nil {
		return nil, errors.New(errors.CodeInternal, "session manager requires a logger")
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &Manager{
		kv:       p.KV,
		catalog:  p.Catalog,
		logger:   p.Logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		tokenTTL: p.TokenTTL,
		now:      p.Now,
	}, nil
}

// Login authenticates against the remote service, persists the token pair,
// then resolves and persists the profile using the fresh token.
func (m *Manager) Login(ctx context.Context, email, password string) (*catalog.User, error) {
	email = strings.TrimSpace(email)
	if err := m.validate.Var(email, "required,email"); err != nil {
		return nil, errors.New(errors.CodeValidation, "a valid email is required")
	}
	if password == "" {
		return nil, errors.New(errors.CodeValidation, "password is required")
	}

	tokens, err := m.catalog.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := m.storeTokens(ctx, tokens); err != nil {
		return nil, err
	}

	user, err := m.catalog.Profile(ctx)
	if err != nil {
		return nil, err
	}
	if err := m.storeUser(ctx, user); err != nil {
		return nil, err
	}

	m.logger.Info(m.logger.WithUserID(ctx, user.Email), "session established")
	return user, nil
}

// Register validates the email locally, checks the remote service for an
// existing account, and creates the user. It does not log the user in.
func (m *Manager) Register(ctx context.Context, input catalog.NewUser) (*catalog.User, error) {
	input.Email = strings.TrimSpace(input.Email)
	if err := m.validate.Var(input.Email, "required,email"); err != nil {
		return nil, errors.New(errors.CodeValidation, "a valid email is required")
	}
	if input.Name == "" {
		return nil, errors.New(errors.CodeValidation, "name is required")
	}
	if len(input.Password) < 4 {
		return nil, errors.New(errors.CodeValidation, "password must be at least 4 characters")
	}

	exists, err := m.catalog.EmailExists(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.New(errors.CodeConflict, "an account with this email already exists")
	}

	return m.catalog.CreateUser(ctx, input)
}

// Refresh exchanges the stored refresh token for a new token pair.
func (m *Manager) Refresh(ctx context.Context) error {
	refresh, ok, err := m.kv.GetOptional(ctx, m.kv.RefreshTokenKey())
	if err != nil {
		return errors.Wrap(errors.CodeStorage, err, "failed to read refresh token")
	}
	if !ok || refresh == "" {
		return errors.New(errors.CodeUnauthorized, "no session to refresh")
	}

	tokens, err := m.catalog.RefreshToken(ctx, refresh)
	if err != nil {
		return err
	}
	return m.storeTokens(ctx, tokens)
}

// Profile fetches the authenticated profile from the remote service and
// refreshes the persisted copy.
func (m *Manager) Profile(ctx context.Context) (*catalog.User, error) {
	user, err := m.catalog.Profile(ctx)
	if err != nil {
		return nil, err
	}
	if err := m.storeUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Logout discards the persisted session.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.kv.Del(ctx, m.kv.TokenKey(), m.kv.RefreshTokenKey(), m.kv.UserKey()); err != nil {
		return errors.Wrap(errors.CodeStorage, err, "failed to clear session")
	}
	return nil
}

// CurrentUser returns the persisted profile without a remote call.
func (m *Manager) CurrentUser(ctx context.Context) (*catalog.User, error) {
	raw, ok, err := m.kv.GetOptional(ctx, m.kv.UserKey())
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorage, err, "failed to read session user")
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var user catalog.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		m.logger.Warn(m.logger.WithField(ctx, "error", err.Error()), "discarding malformed session user")
		return nil, nil
	}
	return &user, nil
}

// IsAuthenticated reports whether a token is present and, when the token
// parses as a JWT, not yet expired. The signature is never verified here;
// the remote service is the authority and will reject a forged token.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	token := m.AccessToken(ctx)
	if token == "" {
		return false
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		// Opaque tokens are passed through as-is.
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return exp.After(m.now())
}

// AccessToken implements the catalog token source. A missing or unreadable
// token yields the empty string, which the client sends unauthenticated.
func (m *Manager) AccessToken(ctx context.Context) string {
	raw, ok, err := m.kv.GetOptional(ctx, m.kv.TokenKey())
	if err != nil || !ok {
		return ""
	}
	return raw
}

// MessageFor derives the user-facing message for an error. An unauthorized
// error also clears the persisted session, so the next request starts
// logged out.
func (m *Manager) MessageFor(ctx context.Context, err error) string {
	if appErr := errors.As(err); appErr != nil && appErr.Code() == errors.CodeUnauthorized {
		if clearErr := m.Logout(ctx); clearErr != nil {
			m.logger.Error(ctx, "failed to clear expired session", clearErr)
		}
	}
	return errors.UserMessage(err)
}

func (m *Manager) storeTokens(ctx context.Context, tokens *catalog.AuthTokens) error {
	if tokens == nil || tokens.AccessToken == "" {
		return errors.New(errors.CodeDependency, "auth service returned no access token")
	}
	if err := m.kv.Set(ctx, m.kv.TokenKey(), tokens.AccessToken, m.tokenTTL); err != nil {
		return errors.Wrap(errors.CodeStorage, err, "failed to persist access token")
	}
	if tokens.RefreshToken != "" {
		if err := m.kv.Set(ctx, m.kv.RefreshTokenKey(), tokens.RefreshToken, m.tokenTTL); err != nil {
			return errors.Wrap(errors.CodeStorage, err, "failed to persist refresh token")
		}
	}
	return nil
}

func (m *Manager) storeUser(ctx context.Context, user *catalog.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "failed to encode session user")
	}
	if err := m.kv.Set(ctx, m.kv.UserKey(), string(payload), m.tokenTTL); err != nil {
		return errors.Wrap(errors.CodeStorage, err, "failed to persist session user")
	}
	return nil
}

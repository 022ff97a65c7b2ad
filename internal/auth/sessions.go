package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-erp-agent/internal/config"
	"go-erp-agent/internal/metrics"
	"go-erp-agent/internal/models"
	"go-erp-agent/internal/seed"
	"go-erp-agent/internal/store"
	"go-erp-agent/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNoSession          = errors.New("no active session")
)

// Principal is the resolved identity behind a request.
type Principal struct {
	Session models.Session
	User    models.User
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token   string
	Session models.Session
	User    models.User
}

// Manager issues and resolves sessions. The user record is re-read on every
// resolution so role changes and deactivations take effect immediately.
type Manager struct {
	store   store.Store
	key     []byte
	ttl     time.Duration
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	fallbackOnce sync.Once
	fallback     func() ([]models.User, error)
	fallbackList []models.User
}

type Option func(*Manager)

// WithFallbackUsers replaces the demo accounts used while erp_users is empty.
func WithFallbackUsers(users []models.User) Option {
	return func(m *Manager) {
		m.fallback = func() ([]models.User, error) { return users, nil }
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

func NewManager(s store.Store, cfg config.AuthConfig, log *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		store: s,
		key:   []byte(cfg.JWTSecret),
		ttl:   cfg.TokenTTL,
		log:   log,
		now:   time.Now,
		fallback: func() ([]models.User, error) {
			return seed.Users(bcrypt.DefaultCost)
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// users returns the stored accounts, or the demo accounts when none are stored.
func (m *Manager) users(ctx context.Context) []models.User {
	users := store.ReadList[models.User](ctx, m.store, store.Users, m.log)
	if len(users) > 0 {
		return users
	}
	m.fallbackOnce.Do(func() {
		list, err := m.fallback()
		if err != nil {
			m.log.Error("failed to build fallback users", zap.Error(err))
			return
		}
		m.fallbackList = list
	})
	return m.fallbackList
}

// Authenticate finds the active user with this username and password.
func (m *Manager) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	for _, u := range m.users(ctx) {
		if u.Username == username && u.Active && utils.CheckPassword(u.Password, password) {
			return u, nil
		}
	}
	return models.User{}, ErrInvalidCredentials
}

func (m *Manager) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := m.Authenticate(ctx, username, password)
	m.metrics.LoginAttempt(err == nil)
	if err != nil {
		m.log.Info("login rejected", zap.String("username", username))
		return nil, err
	}

	now := m.now()
	sess := models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	if err := m.store.SetSession(ctx, sess.ID, data, m.ttl); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	token, err := GenerateToken(m.key, sess.ID, user.ID, string(user.Role), sess.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	m.log.Info("user logged in", zap.String("username", user.Username), zap.String("role", string(user.Role)))
	return &LoginResult{Token: token, Session: sess, User: user}, nil
}

// Current resolves a token to its session and the user's present record.
// A user that was removed or deactivated ends the session.
func (m *Manager) Current(ctx context.Context, token string) (*Principal, error) {
	claims, err := ValidateToken(m.key, token)
	if err != nil {
		return nil, ErrNoSession
	}

	data, err := m.store.GetSession(ctx, claims.SessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		m.log.Warn("dropping unreadable session", zap.String("session_id", claims.SessionID), zap.Error(err))
		_ = m.store.DeleteSession(ctx, claims.SessionID)
		return nil, ErrNoSession
	}

	for _, u := range m.users(ctx) {
		if u.ID != sess.UserID {
			continue
		}
		if !u.Active {
			break
		}
		sess.Username = u.Username
		sess.Name = u.Name
		sess.Role = u.Role
		return &Principal{Session: sess, User: u}, nil
	}

	m.log.Info("session user no longer active", zap.String("user_id", sess.UserID))
	_ = m.store.DeleteSession(ctx, sess.ID)
	return nil, ErrNoSession
}

func (m *Manager) Logout(ctx context.Context, token string) error {
	claims, err := ValidateToken(m.key, token)
	if err != nil {
		return ErrNoSession
	}
	if err := m.store.DeleteSession(ctx, claims.SessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	applog "github.com/mrlokans/mangashelf/internal/logger"
	"github.com/mrlokans/mangashelf/internal/mangaapi"
)

// MinPasswordLength is enforced locally before registering.
const MinPasswordLength = 8

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNetwork            = errors.New("network error")
	ErrInvalidToken       = errors.New("invalid token")
)

// Remote is the part of the manga service the session talks to.
type Remote interface {
	CreateAccount(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) (*mangaapi.Credentials, error)
	FetchProfile(ctx context.Context, token string) (*mangaapi.Profile, error)
	RefreshToken(ctx context.Context, token string) (*mangaapi.Credentials, error)
}

// CredentialStore persists the bearer token. It never returns errors;
// failures are reported through the boolean results.
type CredentialStore interface {
	Save(token string) bool
	Get() (string, bool)
	Delete() bool
}

// State is a snapshot of the session.
type State struct {
	Authenticated bool
	Profile       *mangaapi.Profile
}

// Observer is notified after every state change.
type Observer func(State)

type Option func(*Session)

func WithLogger(log *zap.Logger) Option {
	return func(s *Session) { s.log = applog.OrNop(log) }
}

func WithObserver(o Observer) Option {
	return func(s *Session) { s.observer = o }
}

type loginInput struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

type registerInput struct {
	Email    string `validate:"required"`
	Password string `validate:"required,min=8"`
}

// Session tracks whether the user is signed in to the remote service.
type Session struct {
	remote   Remote
	store    CredentialStore
	log      *zap.Logger
	observer Observer
	validate *validator.Validate

	mu            sync.RWMutex
	authenticated bool
	profile       *mangaapi.Profile
}

func NewSession(remote Remote, store CredentialStore, opts ...Option) *Session {
	s := &Session{
		remote:   remote,
		store:    store,
		log:      zap.NewNop(),
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bootstrap restores the session from a stored token. Any failure to load the
// profile clears the token without reporting an error.
func (s *Session) Bootstrap(ctx context.Context) {
	token, ok := s.store.Get()
	if !ok {
		s.setState(false, nil)
		return
	}

	profile, err := s.remote.FetchProfile(ctx, token)
	if err != nil {
		s.log.Info("stored session is no longer usable, signing out", zap.Error(err))
		s.Logout()
		return
	}

	s.setState(true, profile)
	s.log.Debug("session restored", zap.String("email", profile.Email))
}

// Register creates an account and signs in with it.
func (s *Session) Register(ctx context.Context, email, password string) error {
	if err := s.validate.Struct(registerInput{Email: email, Password: password}); err != nil {
		return ErrInvalidCredentials
	}

	if err := s.remote.CreateAccount(ctx, email, password); err != nil {
		s.log.Warn("account creation failed", zap.String("email", email), zap.Error(err))
		return fmt.Errorf("failed to create account: %w", err)
	}

	return s.Login(ctx, email, password)
}

// Login authenticates against the service and stores the token. The session
// becomes authenticated before the profile is loaded; a profile failure does
// not undo that unless it is an authorization failure.
func (s *Session) Login(ctx context.Context, email, password string) error {
	if err := s.validate.Struct(loginInput{Email: email, Password: password}); err != nil {
		return ErrInvalidCredentials
	}

	creds, err := s.remote.Login(ctx, email, password)
	if err != nil {
		s.setState(false, nil)
		s.log.Warn("login failed", zap.String("email", email), zap.Error(err))
		return fmt.Errorf("login failed: %w", err)
	}

	if !s.store.Save(creds.Token) {
		s.setState(false, nil)
		s.log.Error("login succeeded but the token could not be stored")
		return ErrNetwork
	}

	s.setState(true, nil)

	if err := s.LoadUserInfo(ctx); err != nil {
		s.log.Warn("profile load after login failed", zap.Error(err))
	}
	return nil
}

// LoadUserInfo refreshes the cached profile. Without a stored token the
// session becomes unauthenticated. Authorization failures sign the user out;
// other failures are returned and leave the session as it was.
func (s *Session) LoadUserInfo(ctx context.Context) error {
	token, ok := s.store.Get()
	if !ok {
		s.setState(false, nil)
		return nil
	}

	profile, err := s.remote.FetchProfile(ctx, token)
	if err != nil {
		if mangaapi.IsUnauthorized(err) {
			s.log.Info("token rejected while loading profile, signing out", zap.Error(err))
			s.Logout()
		}
		return fmt.Errorf("failed to load profile: %w", err)
	}

	s.setState(true, profile)
	return nil
}

// RefreshToken exchanges the stored token for a fresh one. Any failure signs
// the user out.
func (s *Session) RefreshToken(ctx context.Context) error {
	token, ok := s.store.Get()
	if !ok {
		return ErrInvalidToken
	}

	creds, err := s.remote.RefreshToken(ctx, token)
	if err != nil {
		s.log.Warn("token refresh failed, signing out", zap.Error(err))
		s.Logout()
		return fmt.Errorf("failed to refresh token: %w", err)
	}

	if !s.store.Save(creds.Token) {
		s.log.Error("refreshed token could not be stored, signing out")
		s.Logout()
		return ErrNetwork
	}

	s.log.Debug("token refreshed", zap.Int("expires_in", creds.ExpiresIn))
	return nil
}

// Logout forgets the token and clears the session. A failed token delete is
// logged and otherwise ignored.
func (s *Session) Logout() {
	if !s.store.Delete() {
		s.log.Warn("failed to delete stored token")
	}
	s.setState(false, nil)
}

// Invalidate signs the user out when err is an authorization failure.
// It reports whether a logout happened.
func (s *Session) Invalidate(err error) bool {
	if !mangaapi.IsUnauthorized(err) {
		return false
	}
	s.log.Info("token rejected by the service, signing out", zap.Error(err))
	s.Logout()
	return true
}

// Token returns the stored bearer token while the session is authenticated.
func (s *Session) Token() (string, bool) {
	if !s.IsAuthenticated() {
		return "", false
	}
	return s.store.Get()
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// Profile returns the cached profile, which may be nil right after login.
func (s *Session) Profile() *mangaapi.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{Authenticated: s.authenticated, Profile: s.profile}
}

func (s *Session) setState(authenticated bool, profile *mangaapi.Profile) {
	s.mu.Lock()
	s.authenticated = authenticated
	s.profile = profile
	state := State{Authenticated: authenticated, Profile: profile}
	s.mu.Unlock()

	if s.observer != nil {
		s.observer(state)
	}
}

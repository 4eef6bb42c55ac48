package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"victim-aid-go/internal/domain/user"
)

// Users is the part of the user service authentication relies on.
type Users interface {
	Authenticate(ctx context.Context, username, password string) (*user.User, error)
	GetActiveByID(ctx context.Context, id uint) (*user.User, error)
}

// LoginObserver is told about every login attempt.
type LoginObserver interface {
	LoginAttempt(result string)
}

const (
	LoginSucceeded = "success"
	LoginRejected  = "rejected"
	LoginInactive  = "inactive"
	LoginFailed    = "error"
)

type Session struct {
	Token Token
	User  *user.User
}

type Service struct {
	users    Users
	tokens   *TokenManager
	revoked  RevocationList
	observer LoginObserver
}

type Option func(*Service)

func WithLoginObserver(observer LoginObserver) Option {
	return func(s *Service) {
		s.observer = observer
	}
}

func NewService(users Users, tokens *TokenManager, revoked RevocationList, opts ...Option) *Service {
	s := &Service{users: users, tokens: tokens, revoked: revoked}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	u, err := s.users.Authenticate(ctx, username, password)
	switch {
	case errors.Is(err, user.ErrInvalidCredentials):
		s.observe(LoginRejected)
		return nil, err
	case errors.Is(err, user.ErrInactive):
		s.observe(LoginInactive)
		return nil, err
	case err != nil:
		s.observe(LoginFailed)
		return nil, err
	}

	token, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		s.observe(LoginFailed)
		return nil, err
	}
	s.observe(LoginSucceeded)
	return &Session{Token: token, User: u}, nil
}

// Logout revokes the token until its natural expiry.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ID == "" {
		return ErrInvalidToken
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}
	if err := s.revoked.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Authenticate resolves a bearer token to its active user. The returned
// user's stored role is authoritative; the role claim is informational.
func (s *Service) Authenticate(ctx context.Context, raw string) (*user.User, *Claims, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return nil, nil, err
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, nil, ErrTokenRevoked
	}

	id, err := claims.UserID()
	if err != nil {
		return nil, nil, err
	}
	u, err := s.users.GetActiveByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return u, claims, nil
}

func (s *Service) observe(result string) {
	if s.observer != nil {
		s.observer.LoginAttempt(result)
	}
}

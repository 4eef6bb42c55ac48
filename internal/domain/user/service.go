package user

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"victim-aid-go/internal/domain/access"
	"victim-aid-go/internal/domain/apperr"
	"victim-aid-go/internal/domain/audit"
)

const (
	defaultListLimit  = 50
	maxListLimit      = 200
	defaultCacheTTL   = time.Minute
	minPasswordLength = 8
	maxPasswordBytes  = 72
)

var usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)

type Service struct {
	repo     Repository
	audit    *audit.Logger
	cache    Cache
	cacheTTL time.Duration
	hashCost int
	now      func() time.Time
}

type Option func(*Service)

func WithCache(cache Cache, ttl time.Duration) Option {
	return func(s *Service) {
		if cache == nil {
			return
		}
		s.cache = cache
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

func WithHashCost(cost int) Option {
	return func(s *Service) {
		s.hashCost = cost
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo Repository, auditLog *audit.Logger, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		audit:    auditLog,
		cache:    noopCache{},
		cacheTTL: defaultCacheTTL,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Authenticate checks a username and password pair. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInactive
	}

	at := s.now().UTC()
	if err := s.repo.TouchLastLogin(ctx, user.ID, at); err != nil {
		return nil, err
	}
	user.LastLoginAt = &at
	s.cache.SetByID(user.ID, user, s.cacheTTL)
	return user, nil
}

// GetActiveByID loads the user behind an access token.
func (s *Service) GetActiveByID(ctx context.Context, id uint) (*User, error) {
	if cached, ok := s.cache.GetByID(id); ok {
		return cached, nil
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactive
	}
	s.cache.SetByID(id, user, s.cacheTTL)
	return user, nil
}

func (s *Service) List(ctx context.Context, actor access.Actor, filter ListFilter) ([]User, int64, error) {
	if err := access.Authorize(actor.Role, access.OpUserList); err != nil {
		return nil, 0, err
	}

	filter.Search = strings.TrimSpace(filter.Search)
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) Create(ctx context.Context, actor access.Actor, input CreateInput) (*User, error) {
	if err := access.Authorize(actor.Role, access.OpUserCreate); err != nil {
		return nil, err
	}

	user, err := s.newUser(input)
	if err != nil {
		return nil, err
	}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.Create(ctx, user); err != nil {
			if errors.Is(err, ErrUsernameTaken) {
				return apperr.FieldError("username", "a user with this username already exists")
			}
			return err
		}
		details := fmt.Sprintf("user #%d %s (%s)", user.ID, user.Username, user.Role)
		_, err := s.audit.Record(ctx, tx, actor, audit.ActionUserCreated, details)
		return err
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// ToggleActive flips the active flag. Admins cannot deactivate themselves.
func (s *Service) ToggleActive(ctx context.Context, actor access.Actor, id uint) (*User, error) {
	if err := access.Authorize(actor.Role, access.OpUserToggle); err != nil {
		return nil, err
	}
	if id == actor.UserID {
		return nil, apperr.FieldError("is_active", "you cannot deactivate your own account")
	}

	var result User
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		user, err := tx.GetByID(ctx, id)
		if errors.Is(err, ErrUserNotFound) {
			return apperr.NotFound("user", id)
		}
		if err != nil {
			return err
		}

		user.IsActive = !user.IsActive
		if err := tx.SetActive(ctx, user.ID, user.IsActive); err != nil {
			return err
		}
		action := audit.ActionUserDeactivated
		if user.IsActive {
			action = audit.ActionUserActivated
		}
		if _, err := s.audit.Record(ctx, tx, actor, action, fmt.Sprintf("user #%d %s", user.ID, user.Username)); err != nil {
			return err
		}
		result = *user
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.DeleteByID(id)
	return &result, nil
}

// EnsureAdmin creates the bootstrap administrator when the username is free.
// It runs before any user exists, so no audit entry is written.
func (s *Service) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	user, err := s.newUser(CreateInput{
		Username: username,
		Email:    email,
		Role:     access.RoleAdmin.String(),
		Password: password,
	})
	if err != nil {
		return false, err
	}
	return s.repo.CreateIfAbsent(ctx, user)
}

func (s *Service) newUser(input CreateInput) (*User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)

	v := apperr.NewValidation("invalid user")
	v.Required("username", input.Username)
	v.MaxLen("username", input.Username, 150)
	if input.Username != "" && !usernameRegex.MatchString(input.Username) {
		v.Add("username", "may contain only letters, digits and @/./+/-/_")
	}
	v.MaxLen("email", input.Email, 254)
	v.Email("email", input.Email)
	v.MaxLen("first_name", input.FirstName, 150)
	v.MaxLen("last_name", input.LastName, 150)

	role, roleErr := access.ParseRole(input.Role)
	if roleErr != nil {
		v.Add("role", "must be one of: agent, assistant, responsable, admin")
	}
	if len(input.Password) < minPasswordLength {
		v.Add("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if len(input.Password) > maxPasswordBytes {
		v.Add("password", "too long")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return &User{
		Username:     input.Username,
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         role,
		PasswordHash: string(hash),
		IsActive:     true,
	}, nil
}

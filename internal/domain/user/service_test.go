package user

import (
	"context"
	"errors"
	"maps"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"victim-aid-go/internal/domain/access"
	"victim-aid-go/internal/domain/apperr"
	"victim-aid-go/internal/domain/audit"
)

type fakeUserRepo struct {
	users   map[uint]User
	entries []audit.Entry
	nextID  uint
	gets    int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]User), nextID: 1}
}

func (r *fakeUserRepo) id() uint {
	r.nextID++
	return r.nextID
}

func (r *fakeUserRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	users := maps.Clone(r.users)
	entries := append([]audit.Entry(nil), r.entries...)
	if err := fn(r); err != nil {
		r.users, r.entries = users, entries
		return err
	}
	return nil
}

func (r *fakeUserRepo) AppendEntry(ctx context.Context, entry *audit.Entry) error {
	entry.ID = r.id()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uint) (*User, error) {
	r.gets++
	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	for _, user := range r.users {
		if user.Username == username {
			return &user, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *fakeUserRepo) List(ctx context.Context, filter ListFilter) ([]User, int64, error) {
	var items []User
	for _, user := range r.users {
		items = append(items, user)
	}
	return items, int64(len(items)), nil
}

func (r *fakeUserRepo) Create(ctx context.Context, user *User) error {
	if _, err := r.GetByUsername(ctx, user.Username); err == nil {
		return ErrUsernameTaken
	}
	user.ID = r.id()
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) CreateIfAbsent(ctx context.Context, user *User) (bool, error) {
	err := r.Create(ctx, user)
	if errors.Is(err, ErrUsernameTaken) {
		return false, nil
	}
	return err == nil, err
}

func (r *fakeUserRepo) SetActive(ctx context.Context, id uint, active bool) error {
	user, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	user.IsActive = active
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	user := r.users[id]
	user.LastLoginAt = &at
	r.users[id] = user
	return nil
}

type mapCache struct {
	items map[uint]User
}

func (c *mapCache) GetByID(id uint) (*User, bool) {
	user, ok := c.items[id]
	if !ok {
		return nil, false
	}
	return &user, true
}

func (c *mapCache) SetByID(id uint, user *User, ttl time.Duration) {
	c.items[id] = *user
}

func (c *mapCache) DeleteByID(id uint) {
	delete(c.items, id)
}

var admin = access.Actor{UserID: 1, Role: access.RoleAdmin}

func newTestService(repo *fakeUserRepo, opts ...Option) *Service {
	opts = append([]Option{WithHashCost(bcrypt.MinCost)}, opts...)
	return NewService(repo, audit.NewLogger(), opts...)
}

func TestCreateAndAuthenticate(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, admin, CreateInput{
		Username: "awa.traore",
		Email:    "awa@example.org",
		Role:     "assistant",
		Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.Role != access.RoleAssistant || !created.IsActive {
		t.Fatalf("unexpected user: %+v", created)
	}
	if created.PasswordHash == "s3cret-pass" {
		t.Fatalf("password stored in clear")
	}
	if len(repo.entries) != 1 || repo.entries[0].Action != audit.ActionUserCreated || repo.entries[0].ActorID != admin.UserID {
		t.Fatalf("unexpected audit entries: %+v", repo.entries)
	}

	got, err := svc.Authenticate(ctx, " awa.traore ", "s3cret-pass")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if got.ID != created.ID || got.LastLoginAt == nil {
		t.Fatalf("unexpected authenticated user: %+v", got)
	}

	if _, err := svc.Authenticate(ctx, "awa.traore", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody", "s3cret-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), admin, CreateInput{
		Username: "bad name",
		Email:    "not-an-email",
		Role:     "chief",
		Password: "short",
	})
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"username", "email", "role", "password"} {
		if len(verr.Fields[field]) == 0 {
			t.Fatalf("expected error on %s, got %v", field, verr.Fields)
		}
	}
	if len(repo.users) != 0 || len(repo.entries) != 0 {
		t.Fatalf("expected nothing stored")
	}
}

func TestCreateDuplicateUsername(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)
	input := CreateInput{Username: "moussa", Role: "agent", Password: "password1"}

	if _, err := svc.Create(context.Background(), admin, input); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	_, err := svc.Create(context.Background(), admin, input)
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) || len(verr.Fields["username"]) == 0 {
		t.Fatalf("expected username validation error, got %v", err)
	}
	if len(repo.users) != 1 || len(repo.entries) != 1 {
		t.Fatalf("expected one user and one entry, got %d and %d", len(repo.users), len(repo.entries))
	}
}

func TestUserManagementIsAdminOnly(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	for _, role := range []access.Role{access.RoleAgent, access.RoleAssistant, access.RoleResponsable} {
		actor := access.Actor{UserID: 5, Role: role}
		if _, _, err := svc.List(ctx, actor, ListFilter{}); !errors.Is(err, apperr.ErrPermission) {
			t.Fatalf("expected %s list to be denied, got %v", role, err)
		}
		if _, err := svc.Create(ctx, actor, CreateInput{Username: "x", Role: "agent", Password: "password1"}); !errors.Is(err, apperr.ErrPermission) {
			t.Fatalf("expected %s create to be denied, got %v", role, err)
		}
		if _, err := svc.ToggleActive(ctx, actor, 9); !errors.Is(err, apperr.ErrPermission) {
			t.Fatalf("expected %s toggle to be denied, got %v", role, err)
		}
	}
}

func TestToggleActive(t *testing.T) {
	repo := newFakeUserRepo()
	cache := &mapCache{items: make(map[uint]User)}
	svc := newTestService(repo, WithCache(cache, time.Minute))
	ctx := context.Background()

	created, err := svc.Create(ctx, admin, CreateInput{Username: "fanta", Role: "agent", Password: "password1"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.GetActiveByID(ctx, created.ID); err != nil {
		t.Fatalf("GetActiveByID returned error: %v", err)
	}
	if _, ok := cache.items[created.ID]; !ok {
		t.Fatalf("expected user to be cached")
	}

	toggled, err := svc.ToggleActive(ctx, admin, created.ID)
	if err != nil {
		t.Fatalf("ToggleActive returned error: %v", err)
	}
	if toggled.IsActive {
		t.Fatalf("expected user to be deactivated")
	}
	if _, ok := cache.items[created.ID]; ok {
		t.Fatalf("expected cache entry to be dropped")
	}
	if _, err := svc.GetActiveByID(ctx, created.ID); !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "fanta", "password1"); !errors.Is(err, ErrInactive) {
		t.Fatalf("expected inactive user to be refused, got %v", err)
	}

	if _, err := svc.ToggleActive(ctx, admin, created.ID); err != nil {
		t.Fatalf("ToggleActive returned error: %v", err)
	}
	actions := []string{repo.entries[1].Action, repo.entries[2].Action}
	if actions[0] != audit.ActionUserDeactivated || actions[1] != audit.ActionUserActivated {
		t.Fatalf("unexpected audit actions %v", actions)
	}
}

func TestToggleSelfIsRejected(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)

	_, err := svc.ToggleActive(context.Background(), admin, admin.UserID)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.entries) != 0 {
		t.Fatalf("expected no audit entry")
	}
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, "admin", "admin@example.org", "change-me-now")
	if err != nil || !created {
		t.Fatalf("expected admin to be created, got %v, %v", created, err)
	}
	created, err = svc.EnsureAdmin(ctx, "admin", "admin@example.org", "change-me-now")
	if err != nil || created {
		t.Fatalf("expected second call to be a no-op, got %v, %v", created, err)
	}
	if len(repo.users) != 1 {
		t.Fatalf("expected one user, got %d", len(repo.users))
	}
	for _, u := range repo.users {
		if u.Role != access.RoleAdmin {
			t.Fatalf("expected admin role, got %s", u.Role)
		}
	}
}

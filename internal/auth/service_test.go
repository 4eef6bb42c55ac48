package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"victim-aid-go/internal/domain/access"
	"victim-aid-go/internal/domain/user"
	"victim-aid-go/internal/repository/inmemory"
)

type fakeUsers struct {
	users    map[string]user.User
	password string
}

func (f *fakeUsers) Authenticate(ctx context.Context, username, password string) (*user.User, error) {
	u, ok := f.users[username]
	if !ok || password != f.password {
		return nil, user.ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, user.ErrInactive
	}
	return &u, nil
}

func (f *fakeUsers) GetActiveByID(ctx context.Context, id uint) (*user.User, error) {
	for _, u := range f.users {
		if u.ID != id {
			continue
		}
		if !u.IsActive {
			return nil, user.ErrInactive
		}
		return &u, nil
	}
	return nil, user.ErrUserNotFound
}

type countingObserver map[string]int

func (o countingObserver) LoginAttempt(result string) {
	o[result]++
}

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestAuth() (*Service, *fakeUsers, countingObserver) {
	users := &fakeUsers{
		password: "password1",
		users: map[string]user.User{
			"oumar": {ID: 4, Username: "oumar", Role: access.RoleResponsable, IsActive: true},
			"sidi":  {ID: 5, Username: "sidi", Role: access.RoleAgent, IsActive: false},
		},
	}
	observer := countingObserver{}
	tokens := NewTokenManager(testSecret, "victim-aid", time.Hour)
	return NewService(users, tokens, inmemory.NewRevocationList(), WithLoginObserver(observer)), users, observer
}

func TestLoginIssuesTokenForActiveUser(t *testing.T) {
	svc, _, observer := newTestAuth()
	ctx := context.Background()

	session, err := svc.Login(ctx, "oumar", "password1")
	require.NoError(t, err)
	require.NotEmpty(t, session.Token.Value)
	assert.NotEmpty(t, session.Token.ID)

	u, claims, err := svc.Authenticate(ctx, session.Token.Value)
	require.NoError(t, err)
	assert.Equal(t, uint(4), u.ID)
	assert.Equal(t, access.RoleResponsable, u.Role)
	assert.Equal(t, "responsable", claims.Role)
	assert.Equal(t, session.Token.ID, claims.ID)
	assert.Equal(t, 1, observer[LoginSucceeded])
}

func TestLoginRejections(t *testing.T) {
	svc, _, observer := newTestAuth()
	ctx := context.Background()

	_, err := svc.Login(ctx, "oumar", "nope")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "sidi", "password1")
	assert.ErrorIs(t, err, user.ErrInactive)

	assert.Equal(t, 1, observer[LoginRejected])
	assert.Equal(t, 1, observer[LoginInactive])
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _, _ := newTestAuth()
	ctx := context.Background()

	session, err := svc.Login(ctx, "oumar", "password1")
	require.NoError(t, err)
	_, claims, err := svc.Authenticate(ctx, session.Token.Value)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims))

	_, _, err = svc.Authenticate(ctx, session.Token.Value)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestAuthenticateRejectsDeactivatedUser(t *testing.T) {
	svc, users, _ := newTestAuth()
	ctx := context.Background()

	session, err := svc.Login(ctx, "oumar", "password1")
	require.NoError(t, err)

	u := users.users["oumar"]
	u.IsActive = false
	users.users["oumar"] = u

	_, _, err = svc.Authenticate(ctx, session.Token.Value)
	assert.ErrorIs(t, err, user.ErrInactive)
}

func TestTokenManagerRejectsBadTokens(t *testing.T) {
	tokens := NewTokenManager(testSecret, "victim-aid", time.Minute)
	now := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return now }

	token, err := tokens.Issue(7, access.RoleAgent)
	require.NoError(t, err)

	claims, err := tokens.Parse(token.Value)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)

	other := NewTokenManager("another-secret-another-secret-xx", "victim-aid", time.Minute)
	_, err = other.Parse(token.Value)
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign := NewTokenManager(testSecret, "someone-else", time.Minute)
	_, err = foreign.Parse(token.Value)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tokens.Parse(none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Parse("")
	assert.ErrorIs(t, err, ErrInvalidToken)

	now = now.Add(2 * time.Minute)
	_, err = tokens.Parse(token.Value)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

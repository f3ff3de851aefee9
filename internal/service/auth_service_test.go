package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"nextlevel/api/internal/apperrors"
	"nextlevel/api/internal/config"
	"nextlevel/api/internal/models"
	"nextlevel/api/internal/security"
	"nextlevel/api/internal/token"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]models.User // keyed by hex id
	// usernames that must conflict on insert, consumed one at a time
	conflictUsernames map[string]int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:             make(map[string]models.User),
		conflictUsernames: make(map[string]int),
	}
}

func (f *fakeUserStore) Create(_ context.Context, user models.User) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.users {
		if existing.Email == user.Email {
			return models.User{}, apperrors.Conflict("email")
		}
		if existing.Username == user.Username {
			return models.User{}, apperrors.Conflict("username")
		}
	}
	if n := f.conflictUsernames["*"]; n > 0 {
		f.conflictUsernames["*"] = n - 1
		return models.User{}, apperrors.Conflict("username")
	}

	user.ID = bson.NewObjectID()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID.Hex()] = user
	return user, nil
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == strings.ToLower(email) {
			return user, nil
		}
	}
	return models.User{}, apperrors.ErrNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id bson.ObjectID) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[id.Hex()]; ok {
		return user, nil
	}
	return models.User{}, apperrors.ErrNotFound
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions []models.Session
}

func (f *fakeSessionStore) Create(_ context.Context, session models.Session) (models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session.ID = bson.NewObjectID()
	session.IsActive = true
	session.CreatedAt = time.Now().UTC()
	session.UpdatedAt = session.CreatedAt
	f.sessions = append(f.sessions, session)
	return session, nil
}

func (f *fakeSessionStore) FindActiveByToken(_ context.Context, refreshToken string) (models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, session := range f.sessions {
		if session.RefreshToken == refreshToken && session.IsActive {
			return session, nil
		}
	}
	return models.Session{}, apperrors.ErrInvalidSession
}

func (f *fakeSessionStore) RevokeByToken(_ context.Context, refreshToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.sessions {
		if f.sessions[i].RefreshToken == refreshToken {
			f.sessions[i].IsActive = false
		}
	}
	return nil
}

func (f *fakeSessionStore) RevokeAllByUser(_ context.Context, userID bson.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.sessions {
		if f.sessions[i].UserID == userID {
			f.sessions[i].IsActive = false
		}
	}
	return nil
}

func (f *fakeSessionStore) ListActiveByUser(_ context.Context, userID bson.ObjectID) ([]models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Session
	for _, session := range f.sessions {
		if session.UserID == userID && session.IsActive {
			out = append(out, session)
		}
	}
	return out, nil
}

func (f *fakeSessionStore) activeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, session := range f.sessions {
		if session.IsActive {
			n++
		}
	}
	return n
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Security: config.SecurityConfig{
			JWTSecret:     "service-test-secret",
			JWTAccessTTL:  time.Hour,
			JWTRefreshTTL: 7 * 24 * time.Hour,
		},
	}
}

func newTestService(t *testing.T) (*AuthService, *fakeUserStore, *fakeSessionStore) {
	t.Helper()
	users := newFakeUserStore()
	sessions := &fakeSessionStore{}
	return NewAuthService(users, sessions, testConfig(), zerolog.Nop()), users, sessions
}

func seedUser(t *testing.T, users *fakeUserStore, email, password string) models.User {
	t.Helper()
	hash, err := security.HashPassword(password)
	require.NoError(t, err)
	user, err := users.Create(context.Background(), models.User{
		Name:     "Alice Example",
		Username: strings.SplitN(email, "@", 2)[0] + "123",
		Email:    email,
		Password: hash,
		Role:     models.UserRoleUser,
	})
	require.NoError(t, err)
	return user
}

func TestRegisterHashesPasswordAndDerivesUsername(t *testing.T) {
	svc, _, _ := newTestService(t)

	user, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Alice Example",
		Email:    "A@X.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	assert.Equal(t, "a@x.com", user.Email)
	assert.NotEqual(t, "secret123", user.Password)
	assert.True(t, strings.HasPrefix(user.Password, "$argon2id$"))
	assert.Regexp(t, `^aliceexample[0-9]{3}$`, user.Username)
	assert.Equal(t, models.UserRoleUser, user.Role)
}

func TestRegisterRetriesUsernameConflict(t *testing.T) {
	svc, users, _ := newTestService(t)
	users.conflictUsernames["*"] = 2

	user, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Bob Smith",
		Email:    "bob@x.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Regexp(t, `^bobsmith[0-9]{3}$`, user.Username)
}

func TestRegisterEmailConflictNotRetried(t *testing.T) {
	svc, users, _ := newTestService(t)
	seedUser(t, users, "a@x.com", "secret123")

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Another Alice",
		Email:    "a@x.com",
		Password: "secret123",
	})
	assert.True(t, apperrors.IsConflict(err))
}

func TestRegisterValidatesInput(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@x.com"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestLoginCreatesOneSession(t *testing.T) {
	svc, users, sessions := newTestService(t)
	user := seedUser(t, users, "a@x.com", "secret123")

	result, err := svc.Login(context.Background(), LoginInput{
		Email:     "a@x.com",
		Password:  "secret123",
		IP:        "203.0.113.7",
		UserAgent: "test-agent",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.NotEmpty(t, result.Tokens.RefreshToken)
	assert.Equal(t, user.ID.Hex(), result.User.ID)

	require.Len(t, sessions.sessions, 1)
	session := sessions.sessions[0]
	assert.True(t, session.IsActive)
	assert.Equal(t, user.ID, session.UserID)
	assert.Equal(t, result.Tokens.RefreshToken, session.RefreshToken)
	assert.Equal(t, "203.0.113.7", session.IP)
	assert.Equal(t, "test-agent", session.UserAgent)

	claims, err := token.Verify(result.Tokens.AccessToken, "service-test-secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, users, sessions := newTestService(t)
	seedUser(t, users, "a@x.com", "secret123")

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "a@x.com",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	assert.Empty(t, sessions.sessions, "failed login must not create a session")
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "nobody@x.com",
		Password: "secret123",
	})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRefreshHappyPath(t *testing.T) {
	svc, users, _ := newTestService(t)
	user := seedUser(t, users, "a@x.com", "secret123")

	result, err := svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "secret123"})
	require.NoError(t, err)

	access, err := svc.Refresh(context.Background(), result.Tokens.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, access)

	claims, err := token.Verify(access, "service-test-secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
}

func TestRefreshGates(t *testing.T) {
	svc, users, _ := newTestService(t)
	seedUser(t, users, "a@x.com", "secret123")

	result, err := svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "secret123"})
	require.NoError(t, err)

	t.Run("missing token", func(t *testing.T) {
		_, err := svc.Refresh(context.Background(), "")
		assert.ErrorIs(t, err, apperrors.ErrMissingToken)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := svc.Refresh(context.Background(), "never-issued")
		assert.ErrorIs(t, err, apperrors.ErrInvalidSession)
	})

	t.Run("revoked session", func(t *testing.T) {
		require.NoError(t, svc.Logout(context.Background(), result.Tokens.RefreshToken))
		_, err := svc.Refresh(context.Background(), result.Tokens.RefreshToken)
		assert.ErrorIs(t, err, apperrors.ErrInvalidSession)
	})
}

func TestRefreshExpiredTokenWithActiveSession(t *testing.T) {
	users := newFakeUserStore()
	sessions := &fakeSessionStore{}
	cfg := testConfig()
	cfg.Security.JWTRefreshTTL = 50 * time.Millisecond
	svc := NewAuthService(users, sessions, cfg, zerolog.Nop())

	user := seedUser(t, users, "a@x.com", "secret123")
	pair, err := svc.IssueTokens(context.Background(), user, "", "")
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	// The session is still active, so the session gate passes and the
	// cryptographic gate is the one that rejects.
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestRefreshDoesNotRotate(t *testing.T) {
	svc, users, sessions := newTestService(t)
	seedUser(t, users, "a@x.com", "secret123")

	result, err := svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), result.Tokens.RefreshToken)
	require.NoError(t, err)
	_, err = svc.Refresh(context.Background(), result.Tokens.RefreshToken)
	require.NoError(t, err)

	require.Len(t, sessions.sessions, 1, "refresh must not create or replace sessions")
	assert.True(t, sessions.sessions[0].IsActive)
}

func TestLogoutIdempotent(t *testing.T) {
	svc, users, _ := newTestService(t)
	seedUser(t, users, "a@x.com", "secret123")

	result, err := svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "secret123"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), result.Tokens.RefreshToken))
	require.NoError(t, svc.Logout(context.Background(), result.Tokens.RefreshToken))
	require.NoError(t, svc.Logout(context.Background(), ""))
	require.NoError(t, svc.Logout(context.Background(), "never-issued"))
}

func TestRevocationFinality(t *testing.T) {
	svc, users, sessions := newTestService(t)
	seedUser(t, users, "a@x.com", "secret123")

	result, err := svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "secret123"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), result.Tokens.RefreshToken))

	_, err = sessions.FindActiveByToken(context.Background(), result.Tokens.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidSession)

	_, err = svc.Refresh(context.Background(), result.Tokens.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidSession)
}

func TestLogoutAllScope(t *testing.T) {
	svc, users, sessions := newTestService(t)
	alice := seedUser(t, users, "a@x.com", "secret123")
	seedUser(t, users, "b@x.com", "secret456")

	// Two devices for alice, one for bob.
	_, err := svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "secret123"})
	require.NoError(t, err)
	_, err = svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "secret123"})
	require.NoError(t, err)
	bobResult, err := svc.Login(context.Background(), LoginInput{Email: "b@x.com", Password: "secret456"})
	require.NoError(t, err)

	require.Equal(t, 3, sessions.activeCount())

	require.NoError(t, svc.LogoutAll(context.Background(), alice.ID.Hex()))

	assert.Equal(t, 1, sessions.activeCount())
	_, err = sessions.FindActiveByToken(context.Background(), bobResult.Tokens.RefreshToken)
	assert.NoError(t, err, "bob's session must be untouched")
}

func TestPayloadNeverLeaksPassword(t *testing.T) {
	user := models.User{
		ID:       bson.NewObjectID(),
		Name:     "Alice Example",
		Username: "aliceexample123",
		Email:    "a@x.com",
		Password: "$argon2id$...",
		Role:     models.UserRoleUser,
	}

	payload := Payload(user)
	assert.Equal(t, user.ID.Hex(), payload.ID)
	assert.Equal(t, user.Email, payload.Email)
	assert.Equal(t, user.Username, payload.Username)
	assert.Equal(t, "user", payload.Role)
}

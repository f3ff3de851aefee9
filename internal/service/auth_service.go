package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"nextlevel/api/internal/apperrors"
	"nextlevel/api/internal/config"
	"nextlevel/api/internal/models"
	"nextlevel/api/internal/security"
	"nextlevel/api/internal/strutil"
	"nextlevel/api/internal/token"
)

// usernameRetries bounds how often Register retries a derived username
// after a unique-constraint conflict.
const usernameRetries = 3

// UserStore and SessionStore are the storage contracts the auth
// service depends on. The mongo repositories satisfy them in
// production; tests substitute in-memory fakes.
type UserStore interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id bson.ObjectID) (models.User, error)
}

type SessionStore interface {
	Create(ctx context.Context, session models.Session) (models.Session, error)
	FindActiveByToken(ctx context.Context, refreshToken string) (models.Session, error)
	RevokeByToken(ctx context.Context, refreshToken string) error
	RevokeAllByUser(ctx context.Context, userID bson.ObjectID) error
	ListActiveByUser(ctx context.Context, userID bson.ObjectID) ([]models.Session, error)
}

// AuthService owns token issuance and the session lifecycle. It is the
// only writer of session documents.
type AuthService struct {
	users    UserStore
	sessions SessionStore
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewAuthService(users UserStore, sessions SessionStore, cfg *config.AppConfig, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		cfg:      cfg,
		log:      log,
	}
}

// Principal is the externally visible projection of a user. It never
// carries the password or other internal-only fields.
type Principal struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Payload projects a user entity to its principal shape.
func Payload(user models.User) Principal {
	return Principal{
		ID:       user.ID.Hex(),
		Name:     user.Name,
		Email:    user.Email,
		Username: user.Username,
		Role:     string(user.Role),
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates a user: password hashed before persistence, email
// lowercased, username derived from the display name. A username
// collision is retried with a fresh random suffix; an email collision
// is surfaced as a conflict immediately.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	input.Name = strutil.NormalizeWhitespace(input.Name)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return models.User{}, fmt.Errorf("%w: name, email and password are required", apperrors.ErrValidation)
	}

	hashed, err := security.HashPassword(input.Password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: hashed,
		Role:     models.UserRoleUser,
	}

	for attempt := 0; ; attempt++ {
		user.Username = strutil.GenerateUsername(input.Name)
		user.ID = bson.ObjectID{}

		created, err := s.users.Create(ctx, user)
		if err == nil {
			s.log.Info().Str("email", strutil.Mask(created.Email, 2, 4)).Msg("user registered")
			return created, nil
		}
		if apperrors.IsConflict(err) && strings.Contains(err.Error(), "username") && attempt < usernameRetries {
			continue
		}
		return models.User{}, err
	}
}

type LoginInput struct {
	Email     string
	Password  string
	IP        string
	UserAgent string
}

type LoginResult struct {
	Tokens token.Pair
	User   Principal
}

// Login authenticates credentials, mints a token pair and persists
// exactly one new session. A wrong password leaves no side effects.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return LoginResult{}, fmt.Errorf("%w: no user with this email", apperrors.ErrNotFound)
		}
		return LoginResult{}, err
	}

	ok, err := security.VerifyPassword(input.Password, user.Password)
	if err != nil || !ok {
		return LoginResult{}, apperrors.ErrInvalidCredentials
	}

	pair, err := s.IssueTokens(ctx, user, input.IP, input.UserAgent)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{Tokens: pair, User: Payload(user)}, nil
}

// IssueTokens builds the principal claims, signs the access/refresh
// pair and persists one new session holding the refresh token. Prior
// sessions are never reused.
func (s *AuthService) IssueTokens(ctx context.Context, user models.User, ip, userAgent string) (token.Pair, error) {
	claims := token.Claims{
		UserID:   user.ID.Hex(),
		Email:    user.Email,
		Name:     user.Name,
		Username: user.Username,
		Role:     string(user.Role),
	}

	pair, err := token.NewPair(claims,
		s.cfg.Security.JWTAccessTTL,
		s.cfg.Security.JWTRefreshTTL,
		s.cfg.Security.JWTSecret)
	if err != nil {
		return token.Pair{}, err
	}

	session := models.Session{
		UserID:       user.ID,
		RefreshToken: pair.RefreshToken,
		IP:           ip,
		UserAgent:    userAgent,
	}
	if _, err := s.sessions.Create(ctx, session); err != nil {
		return token.Pair{}, err
	}

	return pair, nil
}

// Refresh validates a refresh token through three hard gates, in
// order: presence, an active session holding the exact token, and
// cryptographic verification. On success a new access token is signed
// from the verified claims with iat/exp stripped. The refresh token
// and its session are not rotated; the same refresh token stays valid
// until revoked or expired.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", apperrors.ErrMissingToken
	}

	if _, err := s.sessions.FindActiveByToken(ctx, refreshToken); err != nil {
		return "", err
	}

	claims, err := token.Verify(refreshToken, s.cfg.Security.JWTSecret)
	if err != nil {
		return "", apperrors.ErrInvalidToken
	}

	claims.RegisteredClaims = jwt.RegisteredClaims{}
	access, err := token.Sign(*claims, s.cfg.Security.JWTAccessTTL, s.cfg.Security.JWTSecret)
	if err != nil {
		return "", err
	}
	return access, nil
}

// Logout revokes the session holding the refresh token. An empty token
// or one matching no session is treated as already logged out; the
// operation is idempotent and always succeeds from the client's view.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return nil
	}
	return s.sessions.RevokeByToken(ctx, refreshToken)
}

// LogoutAll revokes every session for the user. The id must come from
// an authenticated principal, never free client input.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	id, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("%w: malformed user id", apperrors.ErrValidation)
	}
	return s.sessions.RevokeAllByUser(ctx, id)
}

// Me resolves the authenticated principal back to its user document.
func (s *AuthService) Me(ctx context.Context, userID string) (models.User, error) {
	id, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: malformed user id", apperrors.ErrValidation)
	}
	return s.users.GetByID(ctx, id)
}

// Sessions lists the user's active sessions.
func (s *AuthService) Sessions(ctx context.Context, userID string) ([]models.Session, error) {
	id, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed user id", apperrors.ErrValidation)
	}
	return s.sessions.ListActiveByUser(ctx, id)
}

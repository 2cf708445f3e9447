package security

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"social-canvas-auth/config"
	"social-canvas-auth/internal/model"
	"social-canvas-auth/internal/util"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const (
	IdentityContextKey  contextKey = "social_identity"
	SessionIDContextKey contextKey = "session_id"
)

var ErrNoSession = errors.New("сессия отсутствует")

// SessionClaims : содержимое cookie сессии
type SessionClaims struct {
	IdentityID string `json:"identity_id"`
	Provider   string `json:"provider"`
	SocialID   int64  `json:"social_id"`
	SessionID  string `json:"session_id"`
	jwt.RegisteredClaims
}

type SessionService struct {
	*config.SessionConfig
	now func() time.Time
}

func NewSessionService(cfg *config.SessionConfig) *SessionService {
	return &SessionService{SessionConfig: cfg, now: time.Now}
}

// Issue подписывает сессию пользователя (HS512)
func (s *SessionService) Issue(identity *model.SocialIdentity, sessionID string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.SessionTTL())

	claims := SessionClaims{
		IdentityID: identity.ID,
		Provider:   string(identity.Provider),
		SocialID:   identity.SocialID,
		SessionID:  sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "social-canvas-auth",
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(s.SecretKey))
	if err != nil {
		return "", time.Time{}, util.LogError("ошибка подписи сессии", err)
	}
	return token, expiresAt, nil
}

func (s *SessionService) Parse(tokenStr string) (*SessionClaims, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Header["alg"] != jwt.SigningMethodHS512.Alg() {
			return nil, fmt.Errorf("неверный способ подписи сессии: %v", token.Header["alg"])
		}
		return []byte(s.SecretKey), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("невалидная сессия: %w", err)
	}
	if !token.Valid || claims.IdentityID == "" || claims.SessionID == "" {
		return nil, fmt.Errorf("невалидная сессия")
	}

	return claims, nil
}

// FromRequest читает и проверяет cookie сессии
func (s *SessionService) FromRequest(r *http.Request) (*SessionClaims, error) {
	cookie, err := r.Cookie(s.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}
	return s.Parse(cookie.Value)
}

func (s *SessionService) SetCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (s *SessionService) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func NewSessionID() string {
	return uuid.NewString()
}

func WithIdentity(ctx context.Context, identity *model.SocialIdentity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, identity)
}

func IdentityFromContext(ctx context.Context) (*model.SocialIdentity, bool) {
	identity, ok := ctx.Value(IdentityContextKey).(*model.SocialIdentity)
	return identity, ok && identity != nil
}

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDContextKey, sessionID)
}

func SessionIDFromContext(ctx context.Context) string {
	sessionID, _ := ctx.Value(SessionIDContextKey).(string)
	return sessionID
}

type createdContextKey struct{}

// WithCreated : пользователь зарегистрирован текущим запросом
func WithCreated(ctx context.Context, created bool) context.Context {
	return context.WithValue(ctx, createdContextKey{}, created)
}

func CreatedFromContext(ctx context.Context) bool {
	created, _ := ctx.Value(createdContextKey{}).(bool)
	return created
}

type startupVarsContextKey struct{}

// WithStartupVars : проверенные параметры запуска приложения ВКонтакте текущей сессии
func WithStartupVars(ctx context.Context, vars model.StartupVars) context.Context {
	return context.WithValue(ctx, startupVarsContextKey{}, vars)
}

func StartupVarsFromContext(ctx context.Context) (model.StartupVars, bool) {
	vars, ok := ctx.Value(startupVarsContextKey{}).(model.StartupVars)
	return vars, ok && vars != nil
}

package ports

import (
	"context"
	"net/http"
	"social-canvas-auth/internal/model"
)

// Authenticator : оркестратор аутентификации одной социальной сети
type Authenticator interface {
	Provider() model.Provider
	Authenticate(ctx context.Context, request *http.Request) (*model.Outcome, error)
}

type IdentityService interface {
	Find(ctx context.Context, provider model.Provider, socialID int64) (*model.SocialIdentity, error)
	FindByID(ctx context.Context, id string) (*model.SocialIdentity, error)
	Register(ctx context.Context, identity *model.SocialIdentity) (*model.SocialIdentity, bool, error)
	Save(ctx context.Context, identity *model.SocialIdentity) error
	SetAuthorized(ctx context.Context, identity *model.SocialIdentity, authorized bool) error
}

type TokenService interface {
	IsExpired(credential *model.OAuthCredential) bool
	IsExtended(credential *model.OAuthCredential) bool
	Extend(ctx context.Context, credential *model.OAuthCredential) error
	ExtendIfNeeded(ctx context.Context, credential *model.OAuthCredential) (bool, error)
}

type NotificationService interface {
	Notify(ctx context.Context, provider model.Provider, socialID int64, message string) error
}

// Deauthorizer : обработка уведомления платформы об удалении приложения пользователем
type Deauthorizer interface {
	Deauthorize(ctx context.Context, request *http.Request) (*model.Outcome, error)
}

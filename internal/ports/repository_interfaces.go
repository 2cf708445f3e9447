package ports

import (
	"context"
	"social-canvas-auth/internal/model"

	"github.com/jmoiron/sqlx"
)

// Transactor : выдаёт исполнителя запросов и оборачивает работу в транзакцию
type Transactor interface {
	Executor() sqlx.ExtContext
	WithinTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) error
}

type IdentityRepository interface {
	FindBySocialID(ctx context.Context, exec sqlx.ExtContext, provider model.Provider, socialID int64) (*model.SocialIdentity, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*model.SocialIdentity, error)
	CreateIfAbsent(ctx context.Context, exec sqlx.ExtContext, identity *model.SocialIdentity) (bool, error)
	Update(ctx context.Context, exec sqlx.ExtContext, identity *model.SocialIdentity) error
	SetAuthorized(ctx context.Context, exec sqlx.ExtContext, id string, authorized bool) error
}

type CredentialRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, credential *model.OAuthCredential) error
	Update(ctx context.Context, exec sqlx.ExtContext, credential *model.OAuthCredential) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*model.OAuthCredential, error)
}

type SessionRepository interface {
	SaveStartupVars(ctx context.Context, sessionID string, vars model.StartupVars) error
	GetStartupVars(ctx context.Context, sessionID string) (model.StartupVars, error)
	DeleteStartupVars(ctx context.Context, sessionID string) error
}

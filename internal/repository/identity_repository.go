package repository

import (
	"context"
	"database/sql"
	"errors"
	"social-canvas-auth/config"
	"social-canvas-auth/internal/model"
	"social-canvas-auth/internal/util"

	"github.com/jmoiron/sqlx"
)

const identityColumns = `id, social_id, provider, first_name, last_name, authorized, credential_id, created_at, updated_at`

type IdentityRepository struct {
	*config.Database
}

func NewIdentityRepository(database *config.Database) *IdentityRepository {
	return &IdentityRepository{database}
}

// CreateIfAbsent : сохраняет нового пользователя. Если пара (social_id, provider) уже занята,
// ничего не пишет и возвращает false.
func (r *IdentityRepository) CreateIfAbsent(ctx context.Context, exec sqlx.ExtContext, identity *model.SocialIdentity) (bool, error) {
	query := `
	INSERT INTO social_identities (id, social_id, provider, first_name, last_name, authorized, credential_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (social_id, provider) DO NOTHING
	RETURNING created_at, updated_at
	`

	err := exec.QueryRowxContext(ctx, query,
		identity.ID, identity.SocialID, identity.Provider,
		identity.FirstName, identity.LastName, identity.Authorized, identity.CredentialID,
	).Scan(&identity.CreatedAt, &identity.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, util.LogError("[IdentityRepo] ошибка вставки пользователя в БД", err)
	}

	return true, nil
}

// FindBySocialID : ищет пользователя по идентификатору в социальной сети
func (r *IdentityRepository) FindBySocialID(ctx context.Context, exec sqlx.ExtContext, provider model.Provider, socialID int64) (*model.SocialIdentity, error) {
	query := `SELECT ` + identityColumns + ` FROM social_identities WHERE social_id = $1 AND provider = $2`
	var identity model.SocialIdentity
	err := sqlx.GetContext(ctx, exec, &identity, query, socialID, provider)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, util.LogError("[IdentityRepo] не удалось найти пользователя в БД", err)
	}
	return &identity, nil
}

func (r *IdentityRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*model.SocialIdentity, error) {
	query := `SELECT ` + identityColumns + ` FROM social_identities WHERE id = $1`
	var identity model.SocialIdentity
	err := sqlx.GetContext(ctx, exec, &identity, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, util.LogError("[IdentityRepo] не удалось найти пользователя по id", err)
	}
	return &identity, nil
}

// Update : обновляет имя, флаг авторизации и ссылку на токен
func (r *IdentityRepository) Update(ctx context.Context, exec sqlx.ExtContext, identity *model.SocialIdentity) error {
	query := `
		UPDATE social_identities
		SET first_name = $2, last_name = $3, authorized = $4, credential_id = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := exec.QueryRowxContext(ctx, query,
		identity.ID, identity.FirstName, identity.LastName, identity.Authorized, identity.CredentialID,
	).Scan(&identity.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	if err != nil {
		return util.LogError("[IdentityRepo] не удалось обновить пользователя", err)
	}
	return nil
}

func (r *IdentityRepository) SetAuthorized(ctx context.Context, exec sqlx.ExtContext, id string, authorized bool) error {
	query := `UPDATE social_identities SET authorized = $2, updated_at = NOW() WHERE id = $1`
	result, err := exec.ExecContext(ctx, query, id, authorized)
	if err != nil {
		return util.LogError("[IdentityRepo] не удалось изменить флаг авторизации", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return util.LogError("[IdentityRepo] не удалось получить число изменённых строк", err)
	}
	if affected == 0 {
		return model.ErrNotFound
	}
	return nil
}

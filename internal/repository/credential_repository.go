package repository

import (
	"context"
	"database/sql"
	"errors"
	"social-canvas-auth/config"
	"social-canvas-auth/internal/model"
	"social-canvas-auth/internal/util"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type CredentialRepository struct {
	*config.Database
}

func NewCredentialRepository(database *config.Database) *CredentialRepository {
	return &CredentialRepository{database}
}

// Create : сохраняет OAuth токен, пустой ID заполняется новым UUID
func (r *CredentialRepository) Create(ctx context.Context, exec sqlx.ExtContext, credential *model.OAuthCredential) error {
	if credential.ID == "" {
		credential.ID = uuid.NewString()
	}

	query := `INSERT INTO oauth_credentials (id, token, issued_at, expires_at) VALUES ($1, $2, $3, $4)`
	_, err := exec.ExecContext(ctx, query, credential.ID, credential.Token, credential.IssuedAt, credential.ExpiresAt)
	if err != nil {
		return util.LogError("[CredentialRepo] ошибка вставки токена в БД", err)
	}
	return nil
}

func (r *CredentialRepository) Update(ctx context.Context, exec sqlx.ExtContext, credential *model.OAuthCredential) error {
	query := `UPDATE oauth_credentials SET token = $2, issued_at = $3, expires_at = $4 WHERE id = $1`
	result, err := exec.ExecContext(ctx, query, credential.ID, credential.Token, credential.IssuedAt, credential.ExpiresAt)
	if err != nil {
		return util.LogError("[CredentialRepo] не удалось обновить токен", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return util.LogError("[CredentialRepo] не удалось получить число изменённых строк", err)
	}
	if affected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *CredentialRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*model.OAuthCredential, error) {
	query := `SELECT id, token, issued_at, expires_at FROM oauth_credentials WHERE id = $1`
	var credential model.OAuthCredential
	err := sqlx.GetContext(ctx, exec, &credential, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, util.LogError("[CredentialRepo] не удалось найти токен", err)
	}
	return &credential, nil
}

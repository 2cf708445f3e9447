package repository

import (
	"context"
	"database/sql"
	"errors"
	"social-canvas-auth/config"
	"social-canvas-auth/internal/util"

	"github.com/jmoiron/sqlx"
)

type Transactor struct {
	*config.Database
}

func NewTransactor(database *config.Database) *Transactor {
	return &Transactor{database}
}

func (t *Transactor) Executor() sqlx.ExtContext {
	return t.DB
}

// WithinTx : выполняет fn в транзакции, откатывает её при ошибке
func (t *Transactor) WithinTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) error {
	tx, err := t.DB.BeginTxx(ctx, nil)
	if err != nil {
		return util.LogError("[Transactor] не удалось начать транзакцию", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			util.LogError("[Transactor] не удалось откатить транзакцию", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return util.LogError("[Transactor] не удалось зафиксировать транзакцию", err)
	}
	return nil
}

// Package migrations : SQL-схема сервиса, вшитая в бинарник.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"social-canvas-auth/internal/logger"
	"sort"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

//go:embed *.sql
var files embed.FS

// Apply выполняет все .sql файлы по порядку имён, каждый в своей транзакции.
// Скрипты идемпотентны (IF NOT EXISTS), повторный запуск безопасен.
func Apply(ctx context.Context, db *sqlx.DB) error {
	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		script, err := files.ReadFile(name)
		if err != nil {
			return err
		}

		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("миграция %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, string(script)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("миграция %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("миграция %s: %w", name, err)
		}
		logger.From(ctx).Info("миграция применена", zap.String("file", name))
	}
	return nil
}

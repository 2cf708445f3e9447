package main

import (
	"fmt"
	"social-canvas-auth/config"
	"social-canvas-auth/internal/model"
	"social-canvas-auth/migrations"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Применить SQL-схему к базе данных",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			db, err := config.SetupDatabase(cfg.DatabaseConfig.DSN)
			if err != nil {
				return err
			}
			defer func() {
				if err := db.Close(); err != nil {
					log.Warn("ошибка при закрытии БД", zap.Error(err))
				}
			}()

			return migrations.Apply(cmd.Context(), db.DB)
		},
	}
}

// newNotifyCommand : notify <provider> <social_id> <message>
func newNotifyCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "notify <provider> <social_id> <message>",
		Short: "Отправить уведомление пользователю через его социальную сеть",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := model.ParseProvider(args[0])
			if err != nil {
				return err
			}
			socialID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("некорректный social_id %q: %w", args[1], err)
			}

			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			db, err := config.SetupDatabase(cfg.DatabaseConfig.DSN)
			if err != nil {
				return err
			}
			defer func() {
				if err := db.Close(); err != nil {
					log.Warn("ошибка при закрытии БД", zap.Error(err))
				}
			}()

			app := newApplication(cfg, db)
			if err := app.notifications.Notify(cmd.Context(), provider, socialID, args[2]); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "уведомление отправлено")
			return nil
		},
	}
}

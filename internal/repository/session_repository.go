package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"social-canvas-auth/config"
	"social-canvas-auth/internal/model"
	"social-canvas-auth/internal/util"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionRepository : параметры запуска приложения ВКонтакте, привязанные к сессии
type SessionRepository struct {
	client *config.RedisClient
	ttl    time.Duration
}

func NewSessionRepository(rdb *config.RedisClient, ttl time.Duration) *SessionRepository {
	return &SessionRepository{rdb, ttl}
}

func (r *SessionRepository) SaveStartupVars(ctx context.Context, sessionID string, vars model.StartupVars) error {
	data, err := json.Marshal(vars)
	if err != nil {
		return util.LogError("ошибка сериализации параметров запуска", err)
	}

	cmd := r.client.Client.Set(ctx, StartupVarsKey(sessionID), data, r.ttl)
	if err = cmd.Err(); err != nil {
		return util.LogError("ошибка сохранения в Redis", err)
	}
	if cmd.Val() != "OK" {
		return fmt.Errorf("неожиданный ответ Redis: %s", cmd.Val())
	}

	return nil
}

func (r *SessionRepository) GetStartupVars(ctx context.Context, sessionID string) (model.StartupVars, error) {
	val, err := r.client.Client.Get(ctx, StartupVarsKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil // сессия не запускала приложение
	} else if err != nil {
		return nil, util.LogError("ошибка получения параметров запуска из Redis", err)
	}

	var vars model.StartupVars
	if err := json.Unmarshal([]byte(val), &vars); err != nil {
		return nil, util.LogError("ошибка десериализации параметров запуска", err)
	}
	return vars, nil
}

func (r *SessionRepository) DeleteStartupVars(ctx context.Context, sessionID string) error {
	if err := r.client.Client.Del(ctx, StartupVarsKey(sessionID)).Err(); err != nil {
		return util.LogError("ошибка удаления параметров запуска из Redis", err)
	}
	return nil
}

func StartupVarsKey(sessionID string) string {
	return fmt.Sprintf("vk:startup:%s", sessionID)
}

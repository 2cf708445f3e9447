package service

import (
	"context"
	"errors"
	"fmt"
	"social-canvas-auth/internal/logger"
	"social-canvas-auth/internal/metrics"
	"social-canvas-auth/internal/model"
	"social-canvas-auth/internal/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var errAlreadyRegistered = errors.New("пользователь уже зарегистрирован")

// IdentityService : поиск и регистрация пользователей социальных сетей вместе с их токенами
type IdentityService struct {
	identities  ports.IdentityRepository
	credentials ports.CredentialRepository
	tx          ports.Transactor
	group       singleflight.Group
}

func NewIdentityService(identities ports.IdentityRepository, credentials ports.CredentialRepository, tx ports.Transactor) *IdentityService {
	return &IdentityService{
		identities:  identities,
		credentials: credentials,
		tx:          tx,
	}
}

// Find : пользователь с загруженным токеном, model.ErrNotFound если его нет
func (s *IdentityService) Find(ctx context.Context, provider model.Provider, socialID int64) (*model.SocialIdentity, error) {
	exec := s.tx.Executor()
	identity, err := s.identities.FindBySocialID(ctx, exec, provider, socialID)
	if err != nil {
		return nil, err
	}
	if err := s.loadCredential(ctx, exec, identity); err != nil {
		return nil, err
	}
	return identity, nil
}

func (s *IdentityService) FindByID(ctx context.Context, id string) (*model.SocialIdentity, error) {
	exec := s.tx.Executor()
	identity, err := s.identities.FindByID(ctx, exec, id)
	if err != nil {
		return nil, err
	}
	if err := s.loadCredential(ctx, exec, identity); err != nil {
		return nil, err
	}
	return identity, nil
}

func (s *IdentityService) loadCredential(ctx context.Context, exec sqlx.ExtContext, identity *model.SocialIdentity) error {
	if identity.CredentialID == nil {
		return nil
	}
	credential, err := s.credentials.FindByID(ctx, exec, *identity.CredentialID)
	if errors.Is(err, model.ErrNotFound) {
		logger.From(ctx).Warn("токен пользователя не найден", zap.String("identity", identity.String()))
		identity.CredentialID = nil
		return nil
	}
	if err != nil {
		return err
	}
	identity.Credential = credential
	return nil
}

type registration struct {
	owner    *model.SocialIdentity
	snapshot *model.SocialIdentity
	created  bool
}

// Register : создаёт пользователя и его токен одной транзакцией. Если пара (social_id, provider)
// уже занята, возвращает существующего пользователя и false. Параллельные регистрации одного
// пользователя в процессе схлопываются.
func (s *IdentityService) Register(ctx context.Context, identity *model.SocialIdentity) (*model.SocialIdentity, bool, error) {
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}

	key := fmt.Sprintf("%s:%d", identity.Provider, identity.SocialID)
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.register(ctx, identity)
	})
	if err != nil {
		return nil, false, err
	}

	result := v.(*registration)
	if result.owner == identity {
		return identity, result.created, nil
	}
	// результат чужого вызова: владелец продолжает менять свой экземпляр
	return cloneIdentity(result.snapshot), false, nil
}

func cloneIdentity(identity *model.SocialIdentity) *model.SocialIdentity {
	clone := *identity
	if identity.CredentialID != nil {
		credentialID := *identity.CredentialID
		clone.CredentialID = &credentialID
	}
	if identity.Credential != nil {
		credential := *identity.Credential
		clone.Credential = &credential
	}
	return &clone
}

func (s *IdentityService) register(ctx context.Context, identity *model.SocialIdentity) (*registration, error) {
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		if identity.Credential != nil {
			if err := s.credentials.Create(ctx, exec, identity.Credential); err != nil {
				return err
			}
			identity.CredentialID = &identity.Credential.ID
		}

		created, err := s.identities.CreateIfAbsent(ctx, exec, identity)
		if err != nil {
			return err
		}
		if !created {
			return errAlreadyRegistered
		}
		return nil
	})

	if errors.Is(err, errAlreadyRegistered) {
		existing, err := s.Find(ctx, identity.Provider, identity.SocialID)
		if err != nil {
			return nil, fmt.Errorf("[IdentityService] не удалось загрузить существующего пользователя: %w", err)
		}
		return &registration{owner: existing, snapshot: cloneIdentity(existing)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[IdentityService] ошибка регистрации пользователя: %w", err)
	}

	metrics.IdentitiesCreated.WithLabelValues(string(identity.Provider)).Inc()
	logger.From(ctx).Info("зарегистрирован пользователь", zap.String("identity", identity.String()))
	return &registration{owner: identity, snapshot: cloneIdentity(identity), created: true}, nil
}

// Save : сохраняет пользователя и его токен. Новый токен (без ID) создаётся и привязывается.
func (s *IdentityService) Save(ctx context.Context, identity *model.SocialIdentity) error {
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		if credential := identity.Credential; credential != nil {
			if credential.ID == "" {
				if err := s.credentials.Create(ctx, exec, credential); err != nil {
					return err
				}
			} else if err := s.credentials.Update(ctx, exec, credential); err != nil {
				return err
			}
			identity.CredentialID = &credential.ID
		}
		return s.identities.Update(ctx, exec, identity)
	})
	if err != nil {
		return fmt.Errorf("[IdentityService] не удалось сохранить пользователя: %w", err)
	}
	return nil
}

func (s *IdentityService) SetAuthorized(ctx context.Context, identity *model.SocialIdentity, authorized bool) error {
	if err := s.identities.SetAuthorized(ctx, s.tx.Executor(), identity.ID, authorized); err != nil {
		return fmt.Errorf("[IdentityService] не удалось изменить флаг авторизации: %w", err)
	}
	identity.Authorized = authorized
	return nil
}

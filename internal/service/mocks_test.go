package service_test

import (
	"context"
	"social-canvas-auth/internal/model"
	"sync"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"
)

type MockProfileFetcher struct {
	mock.Mock
}

func (m *MockProfileFetcher) FetchProfile(ctx context.Context, accessToken string) (*model.Profile, error) {
	args := m.Called(ctx, accessToken)
	if profile := args.Get(0); profile != nil {
		return profile.(*model.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockTokenExchanger struct {
	mock.Mock
}

func (m *MockTokenExchanger) ExchangeToken(ctx context.Context, accessToken string) (*model.ExchangedToken, error) {
	args := m.Called(ctx, accessToken)
	if token := args.Get(0); token != nil {
		return token.(*model.ExchangedToken), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendNotification(ctx context.Context, socialID int64, message string) error {
	args := m.Called(ctx, socialID, message)
	return args.Error(0)
}

type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) SaveStartupVars(ctx context.Context, sessionID string, vars model.StartupVars) error {
	args := m.Called(ctx, sessionID, vars)
	return args.Error(0)
}

func (m *MockSessionRepository) GetStartupVars(ctx context.Context, sessionID string) (model.StartupVars, error) {
	args := m.Called(ctx, sessionID)
	if vars := args.Get(0); vars != nil {
		return vars.(model.StartupVars), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionRepository) DeleteStartupVars(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// memoryStore : хранилище в памяти с уникальностью (social_id, provider) и откатом транзакций
type memoryStore struct {
	mu          sync.Mutex
	identities  map[string]model.SocialIdentity
	credentials map[string]model.OAuthCredential
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		identities:  map[string]model.SocialIdentity{},
		credentials: map[string]model.OAuthCredential{},
	}
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.identities)
}

func (s *memoryStore) identity(provider model.Provider, socialID int64) (model.SocialIdentity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, identity := range s.identities {
		if identity.Provider == provider && identity.SocialID == socialID {
			return identity, true
		}
	}
	return model.SocialIdentity{}, false
}

func (s *memoryStore) credential(id string) (model.OAuthCredential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	credential, ok := s.credentials[id]
	return credential, ok
}

type memoryTransactor struct {
	store *memoryStore
	txMu  sync.Mutex
}

func (t *memoryTransactor) Executor() sqlx.ExtContext {
	return nil
}

func (t *memoryTransactor) WithinTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) error {
	t.txMu.Lock()
	defer t.txMu.Unlock()

	t.store.mu.Lock()
	identities := make(map[string]model.SocialIdentity, len(t.store.identities))
	for k, v := range t.store.identities {
		identities[k] = v
	}
	credentials := make(map[string]model.OAuthCredential, len(t.store.credentials))
	for k, v := range t.store.credentials {
		credentials[k] = v
	}
	t.store.mu.Unlock()

	if err := fn(nil); err != nil {
		t.store.mu.Lock()
		t.store.identities = identities
		t.store.credentials = credentials
		t.store.mu.Unlock()
		return err
	}
	return nil
}

type memoryIdentityRepository struct {
	store *memoryStore
}

func (r *memoryIdentityRepository) FindBySocialID(ctx context.Context, exec sqlx.ExtContext, provider model.Provider, socialID int64) (*model.SocialIdentity, error) {
	identity, ok := r.store.identity(provider, socialID)
	if !ok {
		return nil, model.ErrNotFound
	}
	return &identity, nil
}

func (r *memoryIdentityRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*model.SocialIdentity, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	identity, ok := r.store.identities[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &identity, nil
}

func (r *memoryIdentityRepository) CreateIfAbsent(ctx context.Context, exec sqlx.ExtContext, identity *model.SocialIdentity) (bool, error) {
	if _, exists := r.store.identity(identity.Provider, identity.SocialID); exists {
		return false, nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.identities[identity.ID] = detach(identity)
	return true, nil
}

func (r *memoryIdentityRepository) Update(ctx context.Context, exec sqlx.ExtContext, identity *model.SocialIdentity) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.identities[identity.ID]; !ok {
		return model.ErrNotFound
	}
	r.store.identities[identity.ID] = detach(identity)
	return nil
}

func (r *memoryIdentityRepository) SetAuthorized(ctx context.Context, exec sqlx.ExtContext, id string, authorized bool) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	identity, ok := r.store.identities[id]
	if !ok {
		return model.ErrNotFound
	}
	identity.Authorized = authorized
	r.store.identities[id] = identity
	return nil
}

type memoryCredentialRepository struct {
	store *memoryStore
}

func (r *memoryCredentialRepository) Create(ctx context.Context, exec sqlx.ExtContext, credential *model.OAuthCredential) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if credential.ID == "" {
		credential.ID = uuid.NewString()
	}
	r.store.credentials[credential.ID] = *credential
	return nil
}

func (r *memoryCredentialRepository) Update(ctx context.Context, exec sqlx.ExtContext, credential *model.OAuthCredential) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.credentials[credential.ID]; !ok {
		return model.ErrNotFound
	}
	r.store.credentials[credential.ID] = *credential
	return nil
}

func (r *memoryCredentialRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*model.OAuthCredential, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	credential, ok := r.store.credentials[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &credential, nil
}

// detach : копия для хранилища без общих указателей с вызывающим
func detach(identity *model.SocialIdentity) model.SocialIdentity {
	stored := *identity
	stored.Credential = nil
	if identity.CredentialID != nil {
		credentialID := *identity.CredentialID
		stored.CredentialID = &credentialID
	}
	return stored
}

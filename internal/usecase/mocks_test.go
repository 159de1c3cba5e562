package usecase

import (
	"context"
	"sync"

	"krishi-setu/internal/data/entity"
	"krishi-setu/pkg/notify"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockStore struct {
	mock.Mock
	role entity.Role
}

func (m *mockStore) Role() entity.Role { return m.role }

func (m *mockStore) Create(ctx context.Context, account *entity.Account, secret string) error {
	args := m.Called(ctx, account, secret)
	return args.Error(0)
}

func (m *mockStore) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	args := m.Called(ctx, id)
	account, _ := args.Get(0).(*entity.Account)
	return account, args.Error(1)
}

func (m *mockStore) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	args := m.Called(ctx, email)
	account, _ := args.Get(0).(*entity.Account)
	return account, args.Error(1)
}

func (m *mockStore) UpdateSecret(ctx context.Context, id uuid.UUID, secret string) error {
	return m.Called(ctx, id, secret).Error(0)
}

func (m *mockStore) MarkVerified(ctx context.Context, email string) (*entity.Account, error) {
	args := m.Called(ctx, email)
	account, _ := args.Get(0).(*entity.Account)
	return account, args.Error(1)
}

func (m *mockStore) SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	return m.Called(ctx, id, token).Error(0)
}

func (m *mockStore) RotateRefreshToken(ctx context.Context, id uuid.UUID, oldToken, newToken string) (bool, error) {
	args := m.Called(ctx, id, oldToken, newToken)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) ClearRefreshToken(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) ListByAdmin(ctx context.Context, adminID uuid.UUID, limit, offset int) ([]*entity.Account, error) {
	args := m.Called(ctx, adminID, limit, offset)
	accounts, _ := args.Get(0).([]*entity.Account)
	return accounts, args.Error(1)
}

func (m *mockStore) CountByAdmin(ctx context.Context, adminID uuid.UUID) (int64, error) {
	args := m.Called(ctx, adminID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) VerifySecret(account *entity.Account, candidate string) bool {
	return m.Called(account, candidate).Bool(0)
}

type dispatched struct {
	intent notify.Intent
	msg    notify.Message
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []dispatched
	err  error
}

func (f *fakeNotifier) Dispatch(ctx context.Context, intent notify.Intent, msg notify.Message) (notify.Receipt, error) {
	f.record(intent, msg)
	if f.err != nil {
		return notify.Receipt{}, f.err
	}
	return notify.Receipt{Intent: intent, To: msg.To, Transport: "fake"}, nil
}

// Go records synchronously so tests can assert right after the call.
func (f *fakeNotifier) Go(intent notify.Intent, msg notify.Message) {
	f.record(intent, msg)
}

func (f *fakeNotifier) record(intent notify.Intent, msg notify.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, dispatched{intent: intent, msg: msg})
}

func (f *fakeNotifier) intents() []notify.Intent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]notify.Intent, 0, len(f.sent))
	for _, d := range f.sent {
		out = append(out, d.intent)
	}
	return out
}

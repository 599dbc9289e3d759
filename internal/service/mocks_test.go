package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/Najo0116/AI-Chatbot/internal/domain"
	apperrors "github.com/Najo0116/AI-Chatbot/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByIDAndUsername(ctx context.Context, id int64, username string) (*domain.User, error) {
	args := m.Called(ctx, id, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type mockChatLogRepo struct {
	mock.Mock
}

func (m *mockChatLogRepo) Append(ctx context.Context, userID int64, message, reply string) (*domain.ChatLog, error) {
	args := m.Called(ctx, userID, message, reply)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatLog), args.Error(1)
}

func (m *mockChatLogRepo) ListByUserID(ctx context.Context, userID int64) ([]domain.ChatLog, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ChatLog), args.Error(1)
}

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, message string) string {
	args := m.Called(ctx, message)
	return args.String(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishChatLogged(ctx context.Context, log *domain.ChatLog, fallback bool) error {
	args := m.Called(ctx, log, fallback)
	return args.Error(0)
}

type mockDemo struct {
	mock.Mock
}

func (m *mockDemo) GetOrCreateDemoUser(ctx context.Context) (*domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// racingUserRepo is an in-memory store with a unique username constraint.
// Its first n reads block until all n have arrived, so every caller sees an
// empty table before anyone inserts.
type racingUserRepo struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	nextID  int64
	reads   int
	inserts int
	n       int
	barrier sync.WaitGroup
}

func newRacingUserRepo(n int) *racingUserRepo {
	r := &racingUserRepo{users: make(map[string]*domain.User), n: n}
	r.barrier.Add(n)
	return r
}

func (r *racingUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Username]; ok {
		return apperrors.AlreadyExists("user", "username", user.Username)
	}
	r.nextID++
	r.inserts++
	user.ID = r.nextID
	cp := *user
	r.users[user.Username] = &cp
	return nil
}

func (r *racingUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	r.reads++
	first := r.reads <= r.n
	r.mu.Unlock()
	if first {
		r.barrier.Done()
		r.barrier.Wait()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[username]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *racingUserRepo) GetByIDAndUsername(_ context.Context, id int64, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[username]; ok && u.ID == id {
		cp := *u
		return &cp, nil
	}
	return nil, apperrors.ErrNotFound
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account_backend/internal/feature/user/domain/entity"
	"account_backend/internal/feature/user/usecase"
)

// mockUserRepository はテスト用のUserRepositoryモック実装です。
type mockUserRepository struct {
	createFn         func(ctx context.Context, u *entity.User) error
	findByIDFn       func(ctx context.Context, id uint) (*entity.User, error)
	findByEmailFn    func(ctx context.Context, email string) (*entity.User, error)
	findByAPITokenFn func(ctx context.Context, token string) (*entity.User, error)
	existsByEmailFn  func(ctx context.Context, email string) (bool, error)
	updateFn         func(ctx context.Context, u *entity.User) error
	deleteFn         func(ctx context.Context, id uint) error
}

func (m *mockUserRepository) Create(ctx context.Context, u *entity.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	return nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, usecase.ErrUserNotFound
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, usecase.ErrUserNotFound
}

func (m *mockUserRepository) FindByAPIToken(ctx context.Context, token string) (*entity.User, error) {
	if m.findByAPITokenFn != nil {
		return m.findByAPITokenFn(ctx, token)
	}
	return nil, usecase.ErrUserNotFound
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsByEmailFn != nil {
		return m.existsByEmailFn(ctx, email)
	}
	return false, nil
}

func (m *mockUserRepository) Update(ctx context.Context, u *entity.User) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, u)
	}
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id uint) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func testAccount() *entity.User {
	return &entity.User{
		ID:           7,
		Email:        "ann@example.com",
		PendingEmail: entity.PendingEmailConfirmed,
		FirstName:    "Ann",
		APIToken:     "token-a",
	}
}

// TestNewCachingUserRepository_Defaults はデフォルト値（TTLとnamespace）が正しく設定されることを検証します。
func TestNewCachingUserRepository_Defaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		ttl               time.Duration
		namespace         string
		expectedTTL       time.Duration
		expectedNamespace string
	}{
		{"default values when zero/empty", 0, "", 5 * time.Minute, "users"},
		{"negative ttl uses default", -time.Minute, "", 5 * time.Minute, "users"},
		{"custom values preserved", 10 * time.Minute, "custom", 10 * time.Minute, "custom"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := NewCachingUserRepository(nil, tt.ttl, &mockUserRepository{}, tt.namespace)

			assert.Equal(t, tt.expectedTTL, repo.ttl)
			assert.Equal(t, tt.expectedNamespace, repo.namespace)
		})
	}
}

// TestCachingUserRepository_NilClientBypassesCache はRedis未設定時にキャッシュを素通りすることを検証します。
func TestCachingUserRepository_NilClientBypassesCache(t *testing.T) {
	t.Parallel()

	calls := 0
	inner := &mockUserRepository{
		findByIDFn: func(ctx context.Context, id uint) (*entity.User, error) {
			calls++
			return testAccount(), nil
		},
	}
	repo := NewCachingUserRepository(nil, 0, inner, "")

	for i := 0; i < 2; i++ {
		_, err := repo.FindByID(context.Background(), 7)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls, "every lookup must hit the database without redis")
}

// TestCachingUserRepository_CacheHit はキャッシュヒット時にデータベースへ到達しないことを検証します。
func TestCachingUserRepository_CacheHit(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	cached, err := json.Marshal(testAccount())
	require.NoError(t, err)
	mock.ExpectGet("users:id:7").SetVal(string(cached))

	inner := &mockUserRepository{
		findByIDFn: func(ctx context.Context, id uint) (*entity.User, error) {
			return nil, errors.New("database must not be reached on a cache hit")
		},
	}
	repo := NewCachingUserRepository(rdb, 0, inner, "")

	got, err := repo.FindByID(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", got.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// newMiniredisClient は実挙動に近い検証のためminiredisバックエンドのクライアントを生成します。
func newMiniredisClient(t *testing.T) *redis.Client {
	t.Helper()

	srv := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: srv.Addr()})
}

// TestCachingUserRepository_PopulatesAndInvalidates は参照でキャッシュされ、更新で無効化されることを検証します。
func TestCachingUserRepository_PopulatesAndInvalidates(t *testing.T) {
	t.Parallel()

	rdb := newMiniredisClient(t)

	stored := testAccount()
	dbCalls := 0
	inner := &mockUserRepository{
		findByIDFn: func(ctx context.Context, id uint) (*entity.User, error) {
			dbCalls++
			cp := *stored
			return &cp, nil
		},
		findByAPITokenFn: func(ctx context.Context, token string) (*entity.User, error) {
			if token != stored.APIToken {
				return nil, usecase.ErrUserNotFound
			}
			cp := *stored
			return &cp, nil
		},
		updateFn: func(ctx context.Context, u *entity.User) error {
			cp := *u
			stored = &cp
			return nil
		},
	}
	repo := NewCachingUserRepository(rdb, time.Minute, inner, "")
	ctx := context.Background()

	// 1回目はDB、2回目はキャッシュから
	_, err := repo.FindByID(ctx, 7)
	require.NoError(t, err)
	_, err = repo.FindByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, dbCalls, "second lookup must be served from cache")

	// APIトークン参照もキャッシュされる
	_, err = repo.FindByAPIToken(ctx, "token-a")
	require.NoError(t, err)

	// トークンをローテーションすると旧トークンのキャッシュは消え、
	// 旧トークンでの認証は即座に失敗する
	rotated := *stored
	rotated.APIToken = "token-b"
	require.NoError(t, repo.Update(ctx, &rotated))

	_, err = repo.FindByAPIToken(ctx, "token-a")
	assert.ErrorIs(t, err, usecase.ErrUserNotFound, "rotated-away token must not authenticate from cache")

	got, err := repo.FindByAPIToken(ctx, "token-b")
	require.NoError(t, err)
	assert.Equal(t, uint(7), got.ID)
}

// TestCachingUserRepository_DeleteInvalidates は削除でキャッシュエントリが消えることを検証します。
func TestCachingUserRepository_DeleteInvalidates(t *testing.T) {
	t.Parallel()

	rdb := newMiniredisClient(t)

	deleted := false
	inner := &mockUserRepository{
		findByIDFn: func(ctx context.Context, id uint) (*entity.User, error) {
			if deleted {
				return nil, usecase.ErrUserNotFound
			}
			return testAccount(), nil
		},
		deleteFn: func(ctx context.Context, id uint) error {
			deleted = true
			return nil
		},
	}
	repo := NewCachingUserRepository(rdb, time.Minute, inner, "")
	ctx := context.Background()

	_, err := repo.FindByID(ctx, 7)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, 7))

	_, err = repo.FindByID(ctx, 7)
	assert.ErrorIs(t, err, usecase.ErrUserNotFound, "deleted account must not be served from cache")
}

// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"account_backend/internal/feature/user/domain/entity"
	"account_backend/internal/feature/user/usecase"
)

// CachingUserRepository decorates a UserRepository with Redis caching.
// It implements the decorator pattern, transparently adding caching without
// modifying the underlying repository. Lookups by ID, email and API token
// are cached; every write invalidates the affected entries, so the API-token
// middleware stops accepting a rotated-away token immediately.
type CachingUserRepository struct {
	inner     usecase.UserRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

// NewCachingUserRepository decorates a UserRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "users".
func NewCachingUserRepository(rdb *redis.Client, ttl time.Duration, inner usecase.UserRepository, namespace string) *CachingUserRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "users"
	}
	return &CachingUserRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

var _ usecase.UserRepository = (*CachingUserRepository)(nil)

func (c *CachingUserRepository) idKey(id uint) string {
	return fmt.Sprintf("%s:id:%d", c.namespace, id)
}

func (c *CachingUserRepository) emailKey(email string) string {
	return fmt.Sprintf("%s:email:%s", c.namespace, email)
}

func (c *CachingUserRepository) tokenKey(token string) string {
	return fmt.Sprintf("%s:token:%s", c.namespace, token)
}

// keysFor returns every cache key under which the given user may be stored.
func (c *CachingUserRepository) keysFor(u *entity.User) []string {
	return []string{
		c.idKey(u.ID),
		c.emailKey(u.Email),
		c.tokenKey(u.APIToken),
	}
}

// invalidate removes the cache entries for a user. Best effort: cache
// deletion failures never fail the write that triggered them.
func (c *CachingUserRepository) invalidate(ctx context.Context, u *entity.User) {
	if c.rdb == nil {
		return
	}
	_ = c.rdb.Del(ctx, c.keysFor(u)...).Err()
}

// cached runs a lookup through the cache under the given key.
func (c *CachingUserRepository) cached(ctx context.Context, key string, load func() (*entity.User, error)) (*entity.User, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return load()
	}

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var u entity.User
		if err := json.Unmarshal(b, &u); err == nil {
			return &u, nil
		}
		// Corrupt entry: drop it and fall through to the database
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fall back to the database
	u, err := load()
	if err != nil {
		return nil, err
	}

	// 3) Populate cache. Best effort: a cache write failure is not an error.
	if b, err := json.Marshal(u); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return u, nil
}

// Create inserts through to the underlying repository. A fresh row has no
// stale cache entries, but the email key is cleared in case a negative
// lookup cached under it ever appears.
func (c *CachingUserRepository) Create(ctx context.Context, u *entity.User) error {
	if err := c.inner.Create(ctx, u); err != nil {
		return err
	}
	c.invalidate(ctx, u)
	return nil
}

// FindByID retrieves a user, checking cache first then falling back to the database.
func (c *CachingUserRepository) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	return c.cached(ctx, c.idKey(id), func() (*entity.User, error) {
		return c.inner.FindByID(ctx, id)
	})
}

// FindByEmail retrieves a user by email through the cache.
func (c *CachingUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return c.cached(ctx, c.emailKey(email), func() (*entity.User, error) {
		return c.inner.FindByEmail(ctx, email)
	})
}

// FindByAPIToken retrieves a user by API token through the cache.
func (c *CachingUserRepository) FindByAPIToken(ctx context.Context, token string) (*entity.User, error) {
	return c.cached(ctx, c.tokenKey(token), func() (*entity.User, error) {
		return c.inner.FindByAPIToken(ctx, token)
	})
}

// ExistsByEmail is an advisory check and always goes to the database.
func (c *CachingUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return c.inner.ExistsByEmail(ctx, email)
}

// Update persists the change and invalidates both the previous and the new
// cache entries. The previous row is loaded first so that a changed email or
// rotated API token does not leave a stale entry behind.
func (c *CachingUserRepository) Update(ctx context.Context, u *entity.User) error {
	var before *entity.User
	if c.rdb != nil {
		if prev, err := c.inner.FindByID(ctx, u.ID); err == nil {
			before = prev
		}
	}

	if err := c.inner.Update(ctx, u); err != nil {
		return err
	}

	if before != nil {
		c.invalidate(ctx, before)
	}
	c.invalidate(ctx, u)
	return nil
}

// Delete removes the row and its cache entries.
func (c *CachingUserRepository) Delete(ctx context.Context, id uint) error {
	var before *entity.User
	if c.rdb != nil {
		if prev, err := c.inner.FindByID(ctx, id); err == nil {
			before = prev
		}
	}

	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}

	if before != nil {
		c.invalidate(ctx, before)
	}
	return nil
}

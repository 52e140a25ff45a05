package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/baechuer/eprocure-portal/internal/application/profile"
	"github.com/baechuer/eprocure-portal/internal/domain"
)

// CachedProfileRepo decorates a profile.Repo with a Redis cache for the role
// column, the only field read on every request.
//   - read path: Redis, then inner repo, then SETNX
//   - write path: inner repo, then SET of the new role
//
// A read that loaded the old role from the database before a concurrent
// write cannot overwrite the written role: the refill only fills an empty
// key. Redis failures never fail a read.
type CachedProfileRepo struct {
	inner   profile.Repo
	rdb     *goredis.Client
	ttl     time.Duration
	keyPref string
}

func NewCachedProfileRepo(inner profile.Repo, client *Client, ttl time.Duration) *CachedProfileRepo {
	var rdb *goredis.Client
	if client != nil {
		rdb = client.rdb
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedProfileRepo{
		inner:   inner,
		rdb:     rdb,
		ttl:     ttl,
		keyPref: "portal:role:",
	}
}

func (c *CachedProfileRepo) key(userID string) string {
	return c.keyPref + userID
}

func (c *CachedProfileRepo) GetRole(ctx context.Context, userID string) (domain.Role, error) {
	if c.rdb != nil {
		s, err := c.rdb.Get(ctx, c.key(userID)).Result()
		if err == nil {
			if r, ok := domain.ParseRole(s); ok {
				return r, nil
			}
		}
		// miss, bad value or redis error: fall through to the source of truth
	}

	role, err := c.inner.GetRole(ctx, userID)
	if err != nil {
		return "", err
	}

	if c.rdb != nil && role.Valid() {
		_ = c.rdb.SetNX(ctx, c.key(userID), string(role), c.ttl).Err()
	}
	return role, nil
}

func (c *CachedProfileRepo) Update(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	out, err := c.inner.Update(ctx, p)
	if err != nil {
		return domain.Profile{}, err
	}
	c.store(ctx, out)
	return out, nil
}

// store overwrites the cached role after a write. If the SET fails the key
// is dropped instead so the next read goes to the database.
func (c *CachedProfileRepo) store(ctx context.Context, p domain.Profile) {
	if c.rdb == nil {
		return
	}
	if !p.Role.Valid() {
		c.Invalidate(ctx, p.ID)
		return
	}
	if err := c.rdb.Set(ctx, c.key(p.ID), string(p.Role), c.ttl).Err(); err != nil {
		c.Invalidate(ctx, p.ID)
	}
}

// Invalidate drops the cached role. Errors are ignored: a stale entry
// expires with the TTL.
func (c *CachedProfileRepo) Invalidate(ctx context.Context, userID string) {
	if c.rdb == nil {
		return
	}
	_ = c.rdb.Del(ctx, c.key(userID)).Err()
}

func (c *CachedProfileRepo) Create(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	out, err := c.inner.Create(ctx, p)
	if err != nil {
		return domain.Profile{}, err
	}
	c.store(ctx, out)
	return out, nil
}

func (c *CachedProfileRepo) GetByID(ctx context.Context, id string) (domain.Profile, error) {
	return c.inner.GetByID(ctx, id)
}

func (c *CachedProfileRepo) List(ctx context.Context, f profile.ListFilter) ([]domain.Profile, error) {
	return c.inner.List(ctx, f)
}

func (c *CachedProfileRepo) ListIDsByRole(ctx context.Context, role domain.Role) ([]string, error) {
	return c.inner.ListIDsByRole(ctx, role)
}

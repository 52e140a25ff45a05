package redis

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

var errNotConfigured = errors.New("redis session store not configured")

// SessionStore keeps portal refresh tokens in Redis:
//
//	portal:rt:<token>    -> "<uid>:<gen>" with TTL
//	portal:rtgen:<uid>   -> <gen>
//
// RevokeAll bumps the generation, so every older token fails validation.
type SessionStore struct {
	rdb *goredis.Client

	rtPrefix  string
	genPrefix string

	tokenBytes int
}

func NewSessionStore(c *Client) *SessionStore {
	var rdb *goredis.Client
	if c != nil {
		rdb = c.rdb
	}
	return &SessionStore{
		rdb:        rdb,
		rtPrefix:   "portal:rt:",
		genPrefix:  "portal:rtgen:",
		tokenBytes: 32,
	}
}

func (s *SessionStore) CreateRefreshToken(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", domain.ErrMissingField("user_id")
	}
	if s.rdb == nil {
		return "", errNotConfigured
	}

	gen, err := s.getGeneration(ctx, userID)
	if err != nil {
		return "", err
	}

	token, err := s.newOpaqueToken()
	if err != nil {
		return "", err
	}

	val := fmt.Sprintf("%s:%d", userID, gen)
	if err := s.rdb.Set(ctx, s.rtPrefix+token, val, ttl).Err(); err != nil {
		return "", err
	}

	return token, nil
}

func (s *SessionStore) RotateRefreshToken(ctx context.Context, oldToken string, ttl time.Duration) (string, error) {
	oldToken = strings.TrimSpace(oldToken)
	if oldToken == "" {
		return "", domain.ErrRefreshTokenInvalid()
	}
	if s.rdb == nil {
		return "", errNotConfigured
	}

	newToken, err := s.newOpaqueToken()
	if err != nil {
		return "", err
	}

	// Atomic move with the generation check folded in: the old token is always
	// consumed, the new one is only written when the generation still matches.
	const lua = `
local v = redis.call("GET", KEYS[1])
if not v then
  return nil
end
redis.call("DEL", KEYS[1])
local uid, gen = string.match(v, "^([^:]+):(%d+)$")
if not uid then
  return nil
end
local cur = redis.call("GET", ARGV[2] .. uid) or "0"
if cur ~= gen then
  return nil
end
redis.call("SET", KEYS[2], v, "PX", ARGV[1])
return uid
`
	ttlms := ttl.Milliseconds()
	if ttlms <= 0 {
		ttlms = int64((7 * 24 * time.Hour).Milliseconds())
	}

	res, err := s.rdb.Eval(ctx, lua, []string{s.rtPrefix + oldToken, s.rtPrefix + newToken}, ttlms, s.genPrefix).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", domain.ErrRefreshTokenInvalid()
		}
		return "", err
	}
	if uid, ok := res.(string); !ok || uid == "" {
		return "", domain.ErrRefreshTokenInvalid()
	}

	return newToken, nil
}

func (s *SessionStore) RevokeRefreshToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	if s.rdb == nil {
		return errNotConfigured
	}
	return s.rdb.Del(ctx, s.rtPrefix+token).Err()
}

func (s *SessionStore) RevokeAll(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return domain.ErrMissingField("user_id")
	}
	if s.rdb == nil {
		return errNotConfigured
	}
	return s.rdb.Incr(ctx, s.genPrefix+userID).Err()
}

func (s *SessionStore) GetUserIDByRefreshToken(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", domain.ErrRefreshTokenInvalid()
	}
	if s.rdb == nil {
		return "", errNotConfigured
	}

	val, err := s.rdb.Get(ctx, s.rtPrefix+token).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", domain.ErrRefreshTokenInvalid()
		}
		return "", err
	}

	uid, tokGen, err := parseUIDGen(val)
	if err != nil {
		return "", domain.ErrRefreshTokenInvalid()
	}

	curGen, err := s.getGeneration(ctx, uid)
	if err != nil {
		return "", err
	}

	if tokGen != curGen {
		return "", domain.ErrRefreshTokenInvalid()
	}

	return uid, nil
}

func (s *SessionStore) getGeneration(ctx context.Context, userID string) (int64, error) {
	key := s.genPrefix + userID

	v, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		n, perr := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if perr == nil {
			return n, nil
		}
		// unparsable: treat as 0
	} else if !errors.Is(err, goredis.Nil) {
		return 0, err
	}

	_ = s.rdb.SetNX(ctx, key, "0", 0).Err()
	return 0, nil
}

func parseUIDGen(s string) (uid string, gen int64, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("bad token value")
	}
	uid = strings.TrimSpace(parts[0])
	if uid == "" {
		return "", 0, fmt.Errorf("empty uid")
	}
	gen, err = strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return "", 0, err
	}
	return uid, gen, nil
}

func (s *SessionStore) newOpaqueToken() (string, error) {
	b := make([]byte, s.tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", domain.ErrRandomFailed(err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

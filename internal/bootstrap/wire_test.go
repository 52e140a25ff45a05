package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/eprocure-portal/internal/config"
	"github.com/baechuer/eprocure-portal/internal/domain"
	"github.com/baechuer/eprocure-portal/internal/infrastructure/redis"
	"github.com/baechuer/eprocure-portal/internal/transport/http/router"
)

func baseConfig() *config.Config {
	return &config.Config{
		Env:             "staging",
		HTTPAddr:        ":0",
		JWTSecret:       "test-secret",
		JWTIssuer:       "test",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
		DefaultRole:     domain.DefaultRole,
		DBAddr:          "postgres://ignored",
		RoleCacheTTL:    time.Minute,
		RLAuthLimit:     10,
		RLAuthWindow:    time.Minute,
	}
}

type fakePublisher struct {
	closed int
}

func (p *fakePublisher) Publish(context.Context, domain.LifecycleEvent) error { return nil }
func (p *fakePublisher) Close() error {
	p.closed++
	return nil
}

func testDeps(t *testing.T, cfg *config.Config) (Deps, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	return Deps{
		LoadConfig: func() (*config.Config, error) { return cfg, nil },
		NewDB:      func(string, bool) (*sql.DB, error) { return db, nil },
		Migrate:    func(context.Context, *sql.DB) error { return nil },
		NewRedis: func(addr, password string, n int) RedisClient {
			return redis.New(addr, password, n)
		},
		NewPublisher: func(string, string) (Publisher, error) { return &fakePublisher{}, nil },
		NewRouter:    router.New,
	}, mock
}

func get(t *testing.T, h http.Handler, p string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
	return rec
}

func TestNewServer_MissingDeps(t *testing.T) {
	_, _, err := NewServerWithDeps(Deps{})
	assert.ErrorIs(t, err, errNilDep)
}

func TestNewServer_ConfigLoadFails(t *testing.T) {
	deps, _ := testDeps(t, nil)
	deps.LoadConfig = func() (*config.Config, error) { return nil, errors.New("missing JWT_SECRET") }

	srv, cleanup, err := NewServerWithDeps(deps)
	require.Error(t, err)
	assert.Nil(t, srv)
	assert.Nil(t, cleanup)
}

func TestNewServer_DBFails(t *testing.T) {
	deps, _ := testDeps(t, baseConfig())
	deps.NewDB = func(string, bool) (*sql.DB, error) { return nil, errors.New("connection refused") }

	_, _, err := NewServerWithDeps(deps)
	require.Error(t, err)
}

func TestNewServer_MigrateFailsClosesDB(t *testing.T) {
	deps, mock := testDeps(t, baseConfig())
	deps.Migrate = func(context.Context, *sql.DB) error { return errors.New("syntax error") }
	mock.ExpectClose()

	_, _, err := NewServerWithDeps(deps)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewServer_InMemoryFallbacks(t *testing.T) {
	deps, mock := testDeps(t, baseConfig())

	srv, cleanup, err := NewServerWithDeps(deps)
	require.NoError(t, err)
	require.NotNil(t, srv)
	assert.Equal(t, ":0", srv.Addr)

	assert.Equal(t, http.StatusOK, get(t, srv.Handler, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(t, srv.Handler, "/readyz").Code)

	rec := get(t, srv.Handler, "/admin")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?redirect=%2Fadmin", rec.Header().Get("Location"))

	mock.ExpectClose()
	cleanup()
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewServer_RedisConnected(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := baseConfig()
	cfg.RedisAddr = mr.Addr()
	deps, _ := testDeps(t, cfg)

	srv, cleanup, err := NewServerWithDeps(deps)
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, http.StatusOK, get(t, srv.Handler, "/readyz").Code)

	mr.Close()
	rec := get(t, srv.Handler, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis")
}

func TestNewServer_RedisUnavailableDegrades(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := baseConfig()
	cfg.RedisAddr = addr
	deps, _ := testDeps(t, cfg)

	srv, cleanup, err := NewServerWithDeps(deps)
	require.NoError(t, err)
	defer cleanup()

	rec := get(t, srv.Handler, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "redis")
}

func TestNewServer_BrokerFailure(t *testing.T) {
	brokerDown := func(string, string) (Publisher, error) { return nil, errors.New("dial tcp: refused") }

	t.Run("prod fails", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Env = "prod"
		cfg.RabbitURL = "amqp://broker"
		deps, _ := testDeps(t, cfg)
		deps.NewPublisher = brokerDown

		_, _, err := NewServerWithDeps(deps)
		require.Error(t, err)
	})

	t.Run("dev degrades", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Env = "dev"
		cfg.RabbitURL = "amqp://broker"
		deps, _ := testDeps(t, cfg)
		deps.NewPublisher = brokerDown

		_, cleanup, err := NewServerWithDeps(deps)
		require.NoError(t, err)
		cleanup()
	})
}

func TestNewServer_CleanupClosesPublisher(t *testing.T) {
	cfg := baseConfig()
	cfg.RabbitURL = "amqp://broker"
	deps, _ := testDeps(t, cfg)

	pub := &fakePublisher{}
	deps.NewPublisher = func(string, string) (Publisher, error) { return pub, nil }

	_, cleanup, err := NewServerWithDeps(deps)
	require.NoError(t, err)
	assert.Zero(t, pub.closed)

	cleanup()
	assert.Equal(t, 1, pub.closed)
}

func TestNewServer_ObjectStoreFails(t *testing.T) {
	cfg := baseConfig()
	cfg.S3Endpoint = "http://minio:9000"
	deps, _ := testDeps(t, cfg)
	deps.NewObjectStore = func(*config.Config) (ObjectStore, error) { return nil, errors.New("bad endpoint") }

	_, _, err := NewServerWithDeps(deps)
	require.Error(t, err)
}

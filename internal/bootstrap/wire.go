package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/baechuer/eprocure-portal/internal/application/auth"
	"github.com/baechuer/eprocure-portal/internal/application/notify"
	"github.com/baechuer/eprocure-portal/internal/application/profile"
	"github.com/baechuer/eprocure-portal/internal/application/tender"
	"github.com/baechuer/eprocure-portal/internal/audit"
	"github.com/baechuer/eprocure-portal/internal/authz"
	"github.com/baechuer/eprocure-portal/internal/config"
	"github.com/baechuer/eprocure-portal/internal/infrastructure/db/postgres"
	"github.com/baechuer/eprocure-portal/internal/infrastructure/events"
	"github.com/baechuer/eprocure-portal/internal/infrastructure/memory"
	rabbitmq_pub "github.com/baechuer/eprocure-portal/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/eprocure-portal/internal/infrastructure/redis"
	"github.com/baechuer/eprocure-portal/internal/infrastructure/security"
	"github.com/baechuer/eprocure-portal/internal/infrastructure/storage"
	"github.com/baechuer/eprocure-portal/internal/infrastructure/webhook"
	"github.com/baechuer/eprocure-portal/internal/logger"
	http_handlers "github.com/baechuer/eprocure-portal/internal/transport/http/handlers"
	"github.com/baechuer/eprocure-portal/internal/transport/http/router"
)

/*
========================
 Public entry (prod)
========================
*/

// NewServer wires the portal. The returned cleanup waits for in-flight
// event deliveries, then closes backends in reverse order.
func NewServer() (*http.Server, func(), error) {
	return newServer(defaultDeps())
}

// NewServerWithDeps allows injecting dependencies for testing
func NewServerWithDeps(deps Deps) (*http.Server, func(), error) {
	return newServer(deps)
}

/*
========================
 Dependency injection
========================
*/

type Deps struct {
	LoadConfig func() (*config.Config, error)

	NewDB   func(addr string, debug bool) (*sql.DB, error)
	Migrate func(ctx context.Context, db *sql.DB) error

	NewRedis func(addr, password string, db int) RedisClient

	NewPublisher func(url, exchange string) (Publisher, error)

	NewObjectStore func(cfg *config.Config) (ObjectStore, error)

	NewRouter func(router.Deps) (http.Handler, error)
}

type RedisClient interface {
	Ping(ctx context.Context) error
	Close() error
}

type Publisher interface {
	events.Sink
	Close() error
}

type ObjectStore interface {
	tender.ObjectStore
	Ping(ctx context.Context) error
}

/*
========================
 Core bootstrap logic
========================
*/

func newServer(deps Deps) (*http.Server, func(), error) {
	if deps.LoadConfig == nil || deps.NewDB == nil || deps.NewRouter == nil {
		return nil, nil, errNilDep
	}
	lg := logger.Logger

	// 0) config
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	// 1) db + schema
	db, err := deps.NewDB(cfg.DBAddr, cfg.DBDebug)
	if err != nil {
		return nil, nil, err
	}
	cleanupFns := []func(){
		func() { _ = db.Close() },
	}

	if deps.Migrate != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := deps.Migrate(ctx, db)
		cancel()
		if err != nil {
			runCleanup(cleanupFns)
			return nil, nil, err
		}
	}

	credRepo := postgres.NewCredentialRepo(db)
	profileRepo := postgres.NewProfileRepo(db)

	// 2) redis (best-effort)
	var redisCli *redis.Client
	if deps.NewRedis != nil && cfg.RedisAddr != "" {
		c := deps.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := c.Ping(ctx)
		cancel()

		if err != nil {
			lg.Warn().Err(err).Msg("redis unavailable; role cache disabled, in-memory sessions")
			_ = c.Close()
		} else if rc, ok := c.(*redis.Client); ok {
			lg.Info().Msg("redis connected")
			redisCli = rc
			cleanupFns = append(cleanupFns, func() { _ = rc.Close() })
		} else {
			_ = c.Close()
		}
	}

	var profiles profile.Repo = profileRepo
	var sessionStore auth.SessionStore
	if redisCli != nil {
		profiles = redis.NewCachedProfileRepo(profileRepo, redisCli, cfg.RoleCacheTTL)
		sessionStore = redis.NewSessionStore(redisCli)
	} else {
		sessionStore = memory.NewSessionStore()
	}

	// 3) lifecycle event sinks
	fanout := events.NewFanout(lg)
	if cfg.WebhookURL != "" {
		fanout.Add("webhook", webhook.NewClient(cfg.WebhookURL, cfg.WebhookSecret, cfg.WebhookTimeout, lg))
	}
	if cfg.RabbitURL != "" && deps.NewPublisher != nil {
		pub, err := deps.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		switch {
		case err == nil:
			fanout.Add("rabbitmq", pub)
			cleanupFns = append(cleanupFns, func() { _ = pub.Close() })
		case cfg.Env == "dev":
			lg.Warn().Err(err).Msg("rabbitmq unavailable; broker fan-out disabled")
		default:
			runCleanup(cleanupFns)
			return nil, nil, err
		}
	}
	var publisher tender.EventPublisher = fanout
	if fanout.Len() == 0 {
		publisher = memory.NewNoopPublisher()
	}

	// 4) object storage
	var objects tender.ObjectStore
	var objectsPing func(context.Context) error
	if cfg.S3Endpoint != "" && deps.NewObjectStore != nil {
		s, err := deps.NewObjectStore(cfg)
		if err != nil {
			runCleanup(cleanupFns)
			return nil, nil, err
		}
		objects, objectsPing = s, s.Ping
	} else {
		lg.Warn().Msg("S3_ENDPOINT not set; attachments kept in memory")
		objects = memory.NewObjectStore("")
	}

	// 5) security
	lg.Info().Str("issuer", cfg.JWTIssuer).Msg("initializing jwt signer")
	hasher := security.NewBcryptHasher(12)
	signer := security.NewJWTSigner(cfg.JWTSecret, cfg.JWTIssuer)
	cookies := security.NewCookies(cfg.SecureCookies())

	// seed (dev only)
	if cfg.Env == "dev" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		postgres.SeedDev(ctx, credRepo, profiles, hasher)
		cancel()
	}

	// 6) services
	auditLog := audit.New(lg)

	authSvc := auth.NewService(credRepo, hasher, signer, sessionStore, auth.Config{
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	}).WithAudit(auditLog.Record)

	roles := auth.NewRoleResolver(profiles, cfg.DefaultRole)
	sessions := auth.NewSessionResolver(signer, authSvc, cookies, authSvc.RefreshTTL())

	profileSvc := profile.NewService(profiles, credRepo, auditLog).WithSessions(sessionStore)
	notifySvc := notify.NewService(postgres.NewNotificationRepo(db), profiles)
	tenderSvc := tender.NewService(
		postgres.NewTenderRepo(db),
		postgres.NewProposalRepo(db),
		objects,
		publisher,
		notifySvc,
		tender.Config{
			SignedURLTTL:  cfg.SignedURLTTL,
			MaxUploadSize: cfg.MaxUploadSize,
			EmitTimeout:   cfg.WebhookTimeout,
		},
	)

	// 7) handlers
	checks := []http_handlers.Check{{Name: "postgres", Ping: db.PingContext}}
	if redisCli != nil {
		checks = append(checks, http_handlers.Check{Name: "redis", Ping: redisCli.Ping})
	}
	if objectsPing != nil {
		checks = append(checks, http_handlers.Check{Name: "s3", Ping: objectsPing})
	}

	// 8) router
	mux, err := deps.NewRouter(router.Deps{
		Auth:          http_handlers.NewAuthHandler(authSvc, cookies, roles, authSvc.RefreshTTL()),
		Profile:       http_handlers.NewProfileHandler(profileSvc),
		Notifications: http_handlers.NewNotificationHandler(notifySvc),
		Tenders:       http_handlers.NewTenderHandler(tenderSvc),
		Pages:         http_handlers.NewPagesHandler(),
		Health:        http_handlers.NewHealthHandler(checks...),

		Sessions:   sessions,
		Roles:      roles,
		Classifier: authz.DefaultClassifier(),

		AuthRateLimit:  cfg.RLAuthLimit,
		AuthRateWindow: cfg.RLAuthWindow,
	})
	if err != nil {
		runCleanup(cleanupFns)
		return nil, nil, err
	}

	// 9) server
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// drain event deliveries before their sinks are closed
	cleanupFns = append(cleanupFns, tenderSvc.Wait)

	cleanup := func() {
		runCleanup(cleanupFns)
	}

	return srv, cleanup, nil
}

/*
========================
 Default deps (prod)
========================
*/

func defaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		NewDB:      config.NewDB,
		Migrate:    postgres.Migrate,
		NewRedis: func(addr, password string, db int) RedisClient {
			return redis.New(addr, password, db)
		},
		NewPublisher: func(url, exchange string) (Publisher, error) {
			return rabbitmq_pub.NewPublisher(url, exchange)
		},
		NewObjectStore: func(cfg *config.Config) (ObjectStore, error) {
			return storage.NewS3Store(cfg, logger.Logger)
		},
		NewRouter: router.New,
	}
}

/*
========================
 helpers
========================
*/

var errNilDep = errors.New("bootstrap: required dependency missing")

func runCleanup(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

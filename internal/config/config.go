package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

type Config struct {
	//App
	Env string // dev / staging / prod
	//HTTP
	HTTPAddr string

	//Auth / Security
	JWTSecret       string
	JWTIssuer       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Authorization policy. DefaultRole is what a session resolves to when
	// neither an embedded claim nor a profile row provides a role.
	DefaultRole domain.Role

	// Infrastructure
	DBAddr        string
	DBDebug       bool
	RedisAddr     string // empty => in-memory stores
	RedisPassword string
	RedisDB       int
	RoleCacheTTL  time.Duration

	RabbitURL      string // empty => no broker fan-out
	RabbitExchange string

	// Automation webhook (fire-and-forget lifecycle events)
	WebhookURL     string
	WebhookSecret  string
	WebhookTimeout time.Duration

	// Object storage (S3 / MinIO / R2). Empty endpoint => in-memory store.
	S3Endpoint         string
	S3ExternalEndpoint string
	S3AccessKeyID      string
	S3SecretAccessKey  string
	S3Region           string
	S3UsePathStyle     bool
	AttachmentsBucket  string
	SignedURLTTL       time.Duration
	MaxUploadSize      int64

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	// Rate limits for credential endpoints (per IP)
	RLAuthLimit  int
	RLAuthWindow time.Duration
}

// SecureCookies is true outside dev; cookies then use the __Host- prefix.
func (c *Config) SecureCookies() bool {
	return c.Env != "dev"
}

func Load() (*Config, error) {
	// .env is optional; real env vars win.
	_ = godotenv.Load()

	cfg := &Config{
		Env:            getEnv("ENV", "dev"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		JWTIssuer:      getEnv("JWT_ISSUER", "eprocure-portal"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RabbitURL:      os.Getenv("RABBIT_URL"),
		RabbitExchange: getEnv("RABBIT_EXCHANGE", "procurement.events"),
		WebhookURL:     os.Getenv("WEBHOOK_URL"),
		WebhookSecret:  os.Getenv("WEBHOOK_SECRET"),

		S3Endpoint:         os.Getenv("S3_ENDPOINT"),
		S3ExternalEndpoint: os.Getenv("S3_EXTERNAL_ENDPOINT"),
		S3AccessKeyID:      os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey:  os.Getenv("S3_SECRET_ACCESS_KEY"),
		S3Region:           getEnv("S3_REGION", "us-east-1"),
		AttachmentsBucket:  getEnv("S3_ATTACHMENTS_BUCKET", "proposal-attachments"),
	}

	// required values
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("missing required env var: JWT_SECRET")
	}

	cfg.DBAddr = os.Getenv("DB_ADDR")
	if cfg.DBAddr == "" {
		return nil, fmt.Errorf("missing required env var: DB_ADDR")
	}

	role, err := loadDefaultRole()
	if err != nil {
		return nil, err
	}
	cfg.DefaultRole = role

	var errs []error
	{
		v, err := getDuration("ACCESS_TOKEN_TTL", 15*time.Minute)
		cfg.AccessTokenTTL = collect(&errs, v, err)
	}
	{
		v, err := getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour)
		cfg.RefreshTokenTTL = collect(&errs, v, err)
	}
	{
		v, err := getDuration("ROLE_CACHE_TTL", 5*time.Minute)
		cfg.RoleCacheTTL = collect(&errs, v, err)
	}
	{
		v, err := getDuration("WEBHOOK_TIMEOUT", 5*time.Second)
		cfg.WebhookTimeout = collect(&errs, v, err)
	}
	{
		v, err := getDuration("SIGNED_URL_TTL", 15*time.Minute)
		cfg.SignedURLTTL = collect(&errs, v, err)
	}
	{
		v, err := getDuration("HTTP_READ_TIMEOUT", 10*time.Second)
		cfg.HTTPReadTimeout = collect(&errs, v, err)
	}
	{
		v, err := getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second)
		cfg.HTTPWriteTimeout = collect(&errs, v, err)
	}
	{
		v, err := getDuration("HTTP_IDLE_TIMEOUT", time.Minute)
		cfg.HTTPIdleTimeout = collect(&errs, v, err)
	}
	{
		v, err := getDuration("RL_AUTH_WINDOW", time.Minute)
		cfg.RLAuthWindow = collect(&errs, v, err)
	}
	{
		v, err := getInt("REDIS_DB", 0)
		cfg.RedisDB = collect(&errs, v, err)
	}
	{
		v, err := getInt("RL_AUTH_LIMIT", 10)
		cfg.RLAuthLimit = collect(&errs, v, err)
	}
	{
		v, err := getInt64("MAX_UPLOAD_SIZE", 10*1024*1024)
		cfg.MaxUploadSize = collect(&errs, v, err)
	}
	{
		v, err := getBool("DB_DEBUG", false)
		cfg.DBDebug = collect(&errs, v, err)
	}
	{
		v, err := getBool("S3_USE_PATH_STYLE", true)
		cfg.S3UsePathStyle = collect(&errs, v, err)
	}
	if len(errs) > 0 {
		return nil, errs[0]
	}

	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, fmt.Errorf("token TTLs must be positive")
	}
	if cfg.S3Endpoint != "" && (cfg.S3AccessKeyID == "" || cfg.S3SecretAccessKey == "") {
		return nil, fmt.Errorf("S3_ENDPOINT set but S3_ACCESS_KEY_ID/S3_SECRET_ACCESS_KEY missing")
	}

	return cfg, nil
}

// loadDefaultRole refuses anything that is not least-privileged.
func loadDefaultRole() (domain.Role, error) {
	raw := os.Getenv("AUTHZ_DEFAULT_ROLE")
	if raw == "" {
		return domain.DefaultRole, nil
	}
	role, ok := domain.ParseRole(raw)
	if !ok {
		return "", fmt.Errorf("invalid AUTHZ_DEFAULT_ROLE: %q", raw)
	}
	if !domain.IsLeastPrivileged(role) {
		return "", fmt.Errorf("AUTHZ_DEFAULT_ROLE must be least-privileged, got %q", role)
	}
	return role, nil
}

func collect[T any](errs *[]error, v T, err error) T {
	if err != nil {
		*errs = append(*errs, err)
	}
	return v
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q: %w", key, v, err)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q: %w", key, v, err)
	}
	return n, nil
}

func getInt64(key string, def int64) (int64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q: %w", key, v, err)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid bool for %s: %q: %w", key, v, err)
	}
	return b, nil
}

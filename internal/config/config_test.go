package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"chronos-go/pkg/logger"
)

func TestLoadReadsDotEnvWithoutOverridingEnv(t *testing.T) {
	dir := t.TempDir()
	contents := "JWT_SECRET=from-file\nHTTP_PORT=9090\nNATS_ENCODING=msgpack\nJWT_TTL=2h\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(contents), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	nested := filepath.Join(dir, "cmd", "chronos")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	t.Chdir(nested)
	t.Setenv("HTTP_PORT", "7070")

	// Keys the .env sets must be cleaned up after the test.
	for _, key := range []string{"JWT_SECRET", "NATS_ENCODING", "JWT_TTL"} {
		if _, ok := os.LookupEnv(key); !ok {
			key := key
			t.Cleanup(func() { _ = os.Unsetenv(key) })
		}
	}

	cfg, err := Load(logger.Nop())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.HTTPPort != "7070" {
		t.Fatalf("expected env to win over .env, got %q", cfg.HTTPPort)
	}
	if cfg.Auth.JWTSecret != "from-file" {
		t.Fatalf("expected secret from .env, got %q", cfg.Auth.JWTSecret)
	}
	if cfg.NATS.Encoding != "msgpack" {
		t.Fatalf("expected msgpack encoding, got %q", cfg.NATS.Encoding)
	}
	if cfg.Auth.TokenTTL != 2*time.Hour {
		t.Fatalf("expected ttl 2h, got %v", cfg.Auth.TokenTTL)
	}
}

func TestValidateRejectsUnknownStorageDriver(t *testing.T) {
	cfg := Config{
		StorageDriver: "sqlite",
		NATS:          NATSConfig{Encoding: "json"},
		Auth:          AuthConfig{JWTSecret: "secret"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown storage driver")
	}
}

func TestValidateRequiresSecretUnlessSkipAuth(t *testing.T) {
	cfg := Config{
		StorageDriver: StorageDriverMemory,
		NATS:          NATSConfig{Encoding: "json"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error without jwt secret")
	}

	cfg.Auth.SkipAuth = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected skip auth to pass, got %v", err)
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://a.test , ,http://b.test")

	origins := getEnvList("CORS_ALLOWED_ORIGINS", nil)
	if len(origins) != 2 || origins[0] != "http://a.test" || origins[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", origins)
	}
}

func TestGetDSNFromParts(t *testing.T) {
	cfg := DBConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "chronos", SSLMode: "disable", TimeZone: "UTC"}
	expected := "host=db user=u password=p dbname=chronos port=5432 sslmode=disable TimeZone=UTC"
	if got := cfg.GetDSN(); got != expected {
		t.Fatalf("expected %q, got %q", expected, got)
	}
}

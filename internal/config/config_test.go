package config

import (
	"strings"
	"testing"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Port != defaultPort {
		t.Fatalf("port = %d, want %d", cfg.Port, defaultPort)
	}
	if !cfg.IsDev() {
		t.Fatalf("expected default env to be development")
	}
	if !strings.Contains(cfg.DSN, "encounter_space") {
		t.Fatalf("unexpected default DSN %q", cfg.DSN)
	}
	if cfg.RedisURL != "redis://localhost:6379/0" {
		t.Fatalf("unexpected default redis url %q", cfg.RedisURL)
	}
	if cfg.Webhook.Secret != "" {
		t.Fatalf("webhook secret should default to empty (fail closed), got %q", cfg.Webhook.Secret)
	}
}

func TestParseDSNSynthesis(t *testing.T) {
	cfg, err := Parse([]byte(`
database:
  host: db.internal
  port: 3307
  user: tracker
  password: s3cret
  name: tracker
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	dsn := cfg.DSN
	for _, want := range []string{"tracker:s3cret@tcp(db.internal:3307)/tracker", "charset=utf8mb4", "parseTime=true"} {
		if !strings.Contains(dsn, want) {
			t.Fatalf("dsn %q missing %q", dsn, want)
		}
	}
}

func TestParseExplicitDSNWins(t *testing.T) {
	cfg, err := Parse([]byte(`
dsn: user:pw@tcp(a:3306)/x
database:
  host: ignored
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.DSN != "user:pw@tcp(a:3306)/x" {
		t.Fatalf("dsn = %q", cfg.DSN)
	}
}

func TestParseWebhookSecretAliases(t *testing.T) {
	cfg, err := Parse([]byte("webhook_secret: flat\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Webhook.Secret != "flat" {
		t.Fatalf("secret = %q", cfg.Webhook.Secret)
	}

	cfg, err = Parse([]byte("webhook:\n  secret: nested\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Webhook.Secret != "nested" {
		t.Fatalf("secret = %q", cfg.Webhook.Secret)
	}
}

func TestParseRedisURLNormalization(t *testing.T) {
	cfg, err := Parse([]byte("redis_url: cache.internal:6380\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.RedisURL != "redis://cache.internal:6380" {
		t.Fatalf("redis url = %q", cfg.RedisURL)
	}
}

func TestParseRejectsInvalidPort(t *testing.T) {
	if _, err := Parse([]byte("port: 70000\n")); err == nil {
		t.Fatalf("expected error for out-of-range port")
	}
}

func TestParseRejectsIncompleteExport(t *testing.T) {
	if _, err := Parse([]byte("export:\n  enable: true\n")); err == nil {
		t.Fatalf("expected error when export enabled without s3 credentials")
	}
}

func TestParseLegacyMongoAliases(t *testing.T) {
	cfg, err := Parse([]byte(`
mongodb_uri: mongodb://legacy:27017
mongodb_db: dnd_tracker
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.LegacyMongo.URI != "mongodb://legacy:27017" || cfg.LegacyMongo.Database != "dnd_tracker" {
		t.Fatalf("legacy mongo = %+v", cfg.LegacyMongo)
	}
}

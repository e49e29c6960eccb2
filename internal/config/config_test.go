package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestDecodeDefaults(t *testing.T) {
	cfg, err := Decode(newTestViper())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if cfg.Pipeline.MaxPostsPerRun != 3 {
		t.Fatalf("unexpected max posts: %d", cfg.Pipeline.MaxPostsPerRun)
	}
	if cfg.Pipeline.MinWordCount != 260 {
		t.Fatalf("unexpected min word count: %d", cfg.Pipeline.MinWordCount)
	}
	if cfg.Affiliate.Disclosure != DefaultDisclosure {
		t.Fatalf("unexpected disclosure: %s", cfg.Affiliate.Disclosure)
	}
	if cfg.Database.Provider() != DatabaseProviderSQLite {
		t.Fatalf("expected sqlite provider, got %s", cfg.Database.Provider())
	}
	if cfg.Stripe.CheckoutEnabled() || cfg.Stripe.WebhookEnabled() {
		t.Fatalf("stripe should be disabled by default")
	}
	if cfg.EffectiveAPIBaseURL() != "http://localhost:8000" {
		t.Fatalf("unexpected api base url: %s", cfg.EffectiveAPIBaseURL())
	}
}

func TestDecodeBlankDisclosureFallsBackToDefault(t *testing.T) {
	v := newTestViper()
	v.Set("affiliate.disclosure", "   ")
	cfg, err := Decode(v)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if cfg.Affiliate.Disclosure != DefaultDisclosure {
		t.Fatalf("blank disclosure should fall back, got %q", cfg.Affiliate.Disclosure)
	}
}

func TestDatabaseProviderPrefersSupabaseURLWhenURLMissing(t *testing.T) {
	db := DatabaseConfig{
		DSN: "data/local.db",
		Supabase: SupabaseConfig{
			DBURL: "postgresql://postgres:pw@db.example.supabase.co:5432/postgres",
		},
	}
	if db.Provider() != DatabaseProviderSupabase {
		t.Fatalf("expected supabase provider, got %s", db.Provider())
	}
	if db.Target() != db.Supabase.DBURL {
		t.Fatalf("unexpected target: %s", db.Target())
	}
	if db.Dialect() != "postgres" {
		t.Fatalf("unexpected dialect: %s", db.Dialect())
	}
}

func TestDatabaseProviderPostgresURLWins(t *testing.T) {
	db := DatabaseConfig{
		URL: "postgresql://u:p@localhost:5432/app",
		Supabase: SupabaseConfig{
			DBURL: "postgresql://postgres:pw@db.example.supabase.co:5432/postgres",
		},
	}
	if db.Provider() != DatabaseProviderPostgres {
		t.Fatalf("expected postgres provider, got %s", db.Provider())
	}
	if db.Target() != db.URL {
		t.Fatalf("unexpected target: %s", db.Target())
	}
}

func TestSupabaseURLBuiltFromParts(t *testing.T) {
	sb := SupabaseConfig{
		Host:     "db.example.supabase.co",
		Port:     5432,
		Name:     "postgres",
		User:     "postgres",
		Password: "p@ss word",
		SSLMode:  "require",
	}
	got := sb.EffectiveURL()
	if !strings.HasPrefix(got, "postgresql://") {
		t.Fatalf("unexpected scheme: %s", got)
	}
	if !strings.Contains(got, "sslmode=require") {
		t.Fatalf("sslmode missing: %s", got)
	}
	if !strings.Contains(got, "p%40ss%20word") {
		t.Fatalf("password not escaped: %s", got)
	}
}

func TestSupabaseURLRequiresAllParts(t *testing.T) {
	sb := SupabaseConfig{Host: "db.example.supabase.co", User: "postgres"}
	if got := sb.EffectiveURL(); got != "" {
		t.Fatalf("expected empty url without password, got %s", got)
	}
}

func TestApplyRuntimeOverridesOnVercel(t *testing.T) {
	cfg, err := Decode(newTestViper())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	cfg.ApplyRuntimeOverrides(func(key string) (string, bool) {
		if key == "VERCEL" {
			return "1", true
		}
		return "", false
	})
	if !strings.HasPrefix(cfg.Pipeline.DataDir, "/tmp") {
		t.Fatalf("data dir not relocated: %s", cfg.Pipeline.DataDir)
	}
	if !strings.HasPrefix(cfg.Pipeline.OutputDir, "/tmp") {
		t.Fatalf("output dir not relocated: %s", cfg.Pipeline.OutputDir)
	}
	if !strings.HasPrefix(cfg.Database.DSN, "/tmp") {
		t.Fatalf("sqlite path not relocated: %s", cfg.Database.DSN)
	}
}

func TestApplyRuntimeOverridesKeepsAbsolutePaths(t *testing.T) {
	cfg := &Config{Pipeline: PipelineConfig{OutputDir: "/srv/public", DataDir: "data"}}
	cfg.ApplyRuntimeOverrides(func(string) (string, bool) { return "1", true })
	if cfg.Pipeline.OutputDir != "/srv/public" {
		t.Fatalf("absolute path should be kept: %s", cfg.Pipeline.OutputDir)
	}
	if cfg.Pipeline.DataDir != "/tmp/data" {
		t.Fatalf("unexpected data dir: %s", cfg.Pipeline.DataDir)
	}
}

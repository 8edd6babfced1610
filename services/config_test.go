package services

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("DOMAIN", "")
	t.Setenv("API_URL", "")

	cfg := ConfigFromEnv("sqlite")
	if cfg.Environment != "development" || cfg.Domain != "localhost" || cfg.APIURL != "http://localhost:3000" {
		t.Errorf("cfg = %+v", cfg)
	}

	t.Setenv("APP_ENV", "Production")
	cfg = ConfigFromEnv("supabase")
	if !cfg.IsProduction() || cfg.Domain != "lytic.co.uk" || cfg.APIURL != "https://lytic.co.uk" {
		t.Errorf("production cfg = %+v", cfg)
	}
}

func TestPublicConfig(t *testing.T) {
	cfg := &ConfigService{Environment: "development", Domain: "localhost", Database: "sqlite"}
	if _, err := cfg.PublicConfig(fixedNow); !errors.Is(err, ErrConfigIncomplete) {
		t.Fatalf("error = %v, want ErrConfigIncomplete", err)
	}

	cfg.SupabaseURL = "https://example.supabase.co"
	cfg.PublishableKey = "sb_publishable_x"
	pub, err := cfg.PublicConfig(fixedNow)
	if err != nil {
		t.Fatal(err)
	}
	if pub.Supabase.Key() != "sb_publishable_x" || !pub.Features.Debugging || pub.Features.Analytics {
		t.Errorf("public config = %+v", pub)
	}
}

func TestGetConfigCacheHeaders(t *testing.T) {
	for _, env := range []string{"development", "production"} {
		cfg := &ConfigService{Environment: env, SupabaseURL: "https://x.supabase.co", AnonKey: "anon"}
		app := fiber.New()
		app.Get("/api/config", cfg.GetConfig)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/config", nil))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		want := "no-cache"
		if env == "production" {
			want = "public, max-age=300"
		}
		if got := resp.Header.Get(fiber.HeaderCacheControl); got != want {
			t.Errorf("%s Cache-Control = %q, want %q", env, got, want)
		}
	}

	app := fiber.New()
	app.Get("/api/config", (&ConfigService{Environment: "development"}).GetConfig)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/config", nil))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("missing credentials status = %d, want 500", resp.StatusCode)
	}
}

// services/config.go
package services

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"lytic-game-system/models"
	"lytic-game-system/utils"
)

const AppVersion = "1.0.0"

var ErrConfigIncomplete = errors.New("missing Supabase credentials")

// ConfigService serves the public part of the server configuration.
type ConfigService struct {
	Environment    string
	SupabaseURL    string
	AnonKey        string
	PublishableKey string
	APIURL         string
	Domain         string
	Database       string
}

// ConfigFromEnv reads APP_ENV, SUPABASE_URL, SUPABASE_ANON_KEY, SUPABASE_PUBLISHABLE_KEY,
// API_URL and DOMAIN.
func ConfigFromEnv(database string) *ConfigService {
	env := strings.ToLower(os.Getenv("APP_ENV"))
	if env == "" {
		env = "development"
	}
	cfg := &ConfigService{
		Environment:    env,
		SupabaseURL:    os.Getenv("SUPABASE_URL"),
		AnonKey:        os.Getenv("SUPABASE_ANON_KEY"),
		PublishableKey: os.Getenv("SUPABASE_PUBLISHABLE_KEY"),
		APIURL:         os.Getenv("API_URL"),
		Domain:         os.Getenv("DOMAIN"),
		Database:       database,
	}
	if cfg.Domain == "" {
		cfg.Domain = "localhost"
		if cfg.IsProduction() {
			cfg.Domain = "lytic.co.uk"
		}
	}
	if cfg.APIURL == "" {
		cfg.APIURL = "http://localhost:3000"
		if cfg.IsProduction() {
			cfg.APIURL = "https://" + cfg.Domain
		}
	}
	return cfg
}

func (s *ConfigService) IsProduction() bool {
	return s.Environment == "production" || s.Environment == "prod"
}

// PublicConfig is what clients may see. No server secrets.
func (s *ConfigService) PublicConfig(now time.Time) (models.AppConfig, error) {
	if s.SupabaseURL == "" || (s.AnonKey == "" && s.PublishableKey == "") {
		return models.AppConfig{}, ErrConfigIncomplete
	}
	prod := s.IsProduction()
	return models.AppConfig{
		Supabase: models.SupabaseConfig{
			URL:            s.SupabaseURL,
			AnonKey:        s.AnonKey,
			PublishableKey: s.PublishableKey,
		},
		Features: models.FeatureFlags{
			Analytics:       prod,
			Debugging:       !prod,
			GuestMode:       true,
			LocalDatabase:   true,
			UniversalSaving: true,
		},
		APIURL:      s.APIURL,
		Database:    s.Database,
		Domain:      s.Domain,
		Environment: s.Environment,
		Version:     AppVersion,
		Timestamp:   now.UTC(),
	}, nil
}

// GetConfig handles GET /api/config.
func (s *ConfigService) GetConfig(c *fiber.Ctx) error {
	cfg, err := s.PublicConfig(time.Now())
	if err != nil {
		utils.Log.Error("❌ Missing required Supabase configuration")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Server configuration error - missing Supabase credentials",
		})
	}
	if s.IsProduction() {
		c.Set(fiber.HeaderCacheControl, "public, max-age=300")
	} else {
		c.Set(fiber.HeaderCacheControl, "no-cache")
	}
	utils.Log.Debugw("📡 Config served", "environment", cfg.Environment, "domain", cfg.Domain)
	return c.JSON(cfg)
}

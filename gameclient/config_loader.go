// gameclient/config_loader.go
package gameclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"lytic-game-system/models"
	"lytic-game-system/utils"
)

const productionDomain = "lytic.co.uk"

// Fallback Supabase project used when /api/config is unreachable. The anon key is
// public by design of Supabase; both may be overridden at build time.
var (
	FallbackSupabaseURL     = "https://cbwtexsbwzflmgbwzvpp.supabase.co"
	FallbackSupabaseAnonKey = ""
)

// ConfigLoader fetches /api/config and caches it for cacheFor.
type ConfigLoader struct {
	baseURL  string
	client   *http.Client
	timeout  time.Duration
	cacheFor time.Duration

	mu       sync.Mutex
	cached   *models.AppConfig
	loadedAt time.Time
}

func NewConfigLoader(baseURL string, client *http.Client) *ConfigLoader {
	if client == nil {
		client = utils.HTTPClient
	}
	return &ConfigLoader{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   client,
		timeout:  15 * time.Second,
		cacheFor: 5 * time.Minute,
	}
}

// LoadConfig returns the server config, or FallbackConfig plus an ErrConfigLoad-wrapped
// error when the fetch or validation fails. The returned config is always usable.
func (l *ConfigLoader) LoadConfig(ctx context.Context) (models.AppConfig, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cached != nil && time.Since(l.loadedAt) < l.cacheFor {
		return *l.cached, nil
	}

	cfg, err := l.fetch(ctx)
	if err != nil {
		utils.Log.Warnw("[CONFIG] ⚠️ Failed to load server config, using fallback", "error", err)
		fb := FallbackConfig(l.baseURL)
		return fb, fmt.Errorf("%w: %v", ErrConfigLoad, err)
	}

	l.cached = &cfg
	l.loadedAt = time.Now()
	utils.Log.Infow("[CONFIG] ✅ Configuration loaded", "environment", cfg.Environment, "domain", cfg.Domain)
	return cfg, nil
}

// Refresh drops the cache and loads again.
func (l *ConfigLoader) Refresh(ctx context.Context) (models.AppConfig, error) {
	l.mu.Lock()
	l.cached = nil
	l.mu.Unlock()
	return l.LoadConfig(ctx)
}

func (l *ConfigLoader) fetch(ctx context.Context) (models.AppConfig, error) {
	var cfg models.AppConfig

	endpoint, err := url.JoinPath(l.baseURL, "/api/config")
	if err != nil {
		return cfg, err
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return cfg, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return cfg, err
	}
	defer utils.DrainClose(resp)

	if resp.StatusCode != http.StatusOK {
		return cfg, fmt.Errorf("HTTP %d: %s", resp.StatusCode, utils.ReadErrorBody(resp))
	}
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	if err := ValidateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ValidateConfig checks the fields the client cannot run without.
func ValidateConfig(cfg models.AppConfig) error {
	var errs []error
	if cfg.Supabase.URL == "" {
		errs = append(errs, errors.New("supabase.url missing"))
	} else if u, err := url.Parse(cfg.Supabase.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, errors.New("supabase.url invalid"))
	}
	if cfg.Supabase.Key() == "" {
		errs = append(errs, errors.New("supabase.anonKey missing"))
	}
	if cfg.Environment == "" {
		errs = append(errs, errors.New("environment missing"))
	}
	if cfg.Domain == "" {
		errs = append(errs, errors.New("domain missing"))
	}
	return errors.Join(errs...)
}

// FallbackConfig is the hardcoded degraded-mode configuration for a backend base URL.
func FallbackConfig(baseURL string) models.AppConfig {
	host := "localhost"
	if u, err := url.Parse(baseURL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	isProduction := host == productionDomain || host == "www."+productionDomain
	env := "development-fallback"
	if isProduction {
		env = "production-fallback"
	}
	apiURL := strings.TrimRight(baseURL, "/")
	if apiURL == "" {
		apiURL = "http://localhost:3000"
	}
	return models.AppConfig{
		Supabase: models.SupabaseConfig{
			URL:     FallbackSupabaseURL,
			AnonKey: FallbackSupabaseAnonKey,
		},
		Features: models.FeatureFlags{
			Analytics:       isProduction,
			Debugging:       !isProduction,
			GuestMode:       true,
			LocalDatabase:   true,
			UniversalSaving: true,
		},
		APIURL:      apiURL,
		Database:    "sqlite",
		Domain:      host,
		Environment: env,
		Timestamp:   time.Now().UTC(),
		Fallback:    true,
	}
}

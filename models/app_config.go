package models

import "time"

// AppConfig is the public configuration document served at /api/config.
type AppConfig struct {
	Supabase    SupabaseConfig `json:"supabase"`
	Features    FeatureFlags   `json:"features"`
	APIURL      string         `json:"apiUrl"`
	Database    string         `json:"database"`
	Domain      string         `json:"domain"`
	Environment string         `json:"environment"`
	Version     string         `json:"version,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	Fallback    bool           `json:"fallback,omitempty"`
}

type SupabaseConfig struct {
	URL            string `json:"url"`
	AnonKey        string `json:"anonKey"`
	PublishableKey string `json:"publishableKey,omitempty"`
}

// Key returns the key the client should send, preferring the publishable format.
func (c SupabaseConfig) Key() string {
	if c.PublishableKey != "" {
		return c.PublishableKey
	}
	return c.AnonKey
}

type FeatureFlags struct {
	Analytics       bool `json:"analytics"`
	Debugging       bool `json:"debugging"`
	GuestMode       bool `json:"guestMode"`
	LocalDatabase   bool `json:"localDatabase"`
	UniversalSaving bool `json:"universalSaving"`
}

// gameclient/app.go
package gameclient

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"lytic-game-system/models"
	"lytic-game-system/utils"
)

type Options struct {
	APIBaseURL     string
	DataDir        string
	Player         Player
	Rules          Rules
	QueueCapacity  int
	AttemptTimeout time.Duration
	HTTPClient     *http.Client
	TrackerOptions []TrackerOption
}

// App holds everything one client process shares: config, player identity, the local
// database and the saving pipeline. Created once at startup and closed on exit.
type App struct {
	Config      models.AppConfig
	ConfigError error
	Player      Player

	DB         *gorm.DB
	Queue      *Queue
	Stats      *StatsCache
	Dispatcher *Dispatcher
	Beacon     *Beacon
	Syncer     *Syncer
	Classifier *Classifier
}

// NewApp loads config (falling back on failure), opens the local database and builds
// the channel list: the Supabase store first when configured, then the backend API.
func NewApp(ctx context.Context, opts Options) (*App, error) {
	opts.APIBaseURL = strings.TrimRight(opts.APIBaseURL, "/")
	if opts.APIBaseURL == "" {
		opts.APIBaseURL = "http://localhost:3000"
	}
	if opts.DataDir == "" {
		opts.DataDir = DefaultDataDir()
	}
	if opts.Rules == (Rules{}) {
		opts.Rules = DefaultRules()
	}

	a := &App{Player: opts.Player}

	a.Config, a.ConfigError = NewConfigLoader(opts.APIBaseURL, opts.HTTPClient).LoadConfig(ctx)
	if a.ConfigError != nil && !errors.Is(a.ConfigError, ErrConfigLoad) {
		return nil, a.ConfigError
	}

	db, err := OpenLocalDB(opts.DataDir)
	if err != nil {
		return nil, err
	}
	a.DB = db
	a.Queue = NewQueue(db, opts.QueueCapacity)
	a.Stats = NewStatsCache(db)

	var channels []SaveChannel
	if a.Config.Supabase.URL != "" && a.Config.Supabase.Key() != "" {
		channels = append(channels, NewStoreChannel(a.Config.Supabase, a.Token, opts.HTTPClient))
	}
	channels = append(channels, NewAPIChannel(opts.APIBaseURL, a.Token, opts.HTTPClient))

	a.Dispatcher = NewDispatcher(channels, DispatcherOptions{
		AttemptTimeout: opts.AttemptTimeout,
		Queue:          a.Queue,
		Stats:          a.Stats,
	})
	a.Beacon = NewBeacon(opts.APIBaseURL, opts.HTTPClient)
	a.Beacon.SetFallback(a.Queue)
	a.Syncer = NewSyncer(a.Queue, opts.APIBaseURL, a.Token, opts.HTTPClient)
	a.Classifier = NewClassifier(
		NewTracker(opts.Rules, opts.TrackerOptions...),
		a.Dispatcher, a.Beacon, a.Queue,
		func() Player { return a.Player },
	)

	utils.Log.Infow("[APP] 🎮 Client ready",
		"environment", a.Config.Environment,
		"channels", a.Dispatcher.Channels(),
		"guest", a.Player.Guest())
	return a, nil
}

// Token is the TokenSource handed to every channel.
func (a *App) Token() string { return a.Player.AccessToken }

// NewGame starts a session of the given code length.
func (a *App) NewGame(codeLength int) (string, error) {
	return a.Classifier.Tracker().Start(codeLength)
}

// Shutdown runs the unload path and gives beacons up to grace to finish.
func (a *App) Shutdown(grace time.Duration) *models.GameRecord {
	rec := a.Classifier.OnUnload()
	a.Beacon.Flush(grace)
	return rec
}

func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return CloseDB(a.DB)
}

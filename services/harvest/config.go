package harvest

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"pfetracker/lib/configutil"
	"pfetracker/lib/journal"
	"pfetracker/lib/notify"
	"pfetracker/lib/restyutil"
	"pfetracker/lib/scrapers/wordpress"
	"pfetracker/lib/sheetstore"
	"pfetracker/lib/tracker"
)

type SourceConfig struct {
	Endpoint         string `json:"endpoint"`
	PerPage          int    `json:"per_page"`
	UserAgent        string `json:"user_agent"`
	TimeoutSeconds   int    `json:"timeout_seconds"`
	RetryCount       int    `json:"retry_count"`
	CloudflareBypass bool   `json:"cloudflare_bypass"`
	PlainTitles      bool   `json:"plain_titles"`
	// when set, every HTTP exchange is written here while debug logging is on
	DumpDir string `json:"dump_dir"`
}

type SheetConfig struct {
	Path string `json:"path"`
	// a pointer so that an explicit 0 is not replaced by the default
	LookaheadRows *int           `json:"lookahead_rows"`
	Labels        tracker.Labels `json:"labels"`
}

type Config struct {
	Source        SourceConfig   `json:"source"`
	Sheet         SheetConfig    `json:"sheet"`
	HintThreshold float64        `json:"hint_threshold"`
	Journal       journal.Config `json:"journal"`
	Notify        notify.Config  `json:"notify"`
	Debug         bool           `json:"debug"`
}

func DefaultConfig() Config {
	lookahead := sheetstore.DefaultLookaheadRows
	return Config{
		Source: SourceConfig{
			Endpoint:       wordpress.DefaultEndpoint,
			PerPage:        wordpress.DefaultPerPage,
			UserAgent:      wordpress.DefaultUserAgent,
			TimeoutSeconds: int(wordpress.DefaultTimeout / time.Second),
		},
		Sheet: SheetConfig{
			Path:          sheetstore.DefaultPath,
			LookaheadRows: &lookahead,
			Labels:        tracker.DefaultLabels,
		},
		HintThreshold: tracker.DefaultHintThreshold,
	}
}

// ReadConfig reads `name` (plus its .local override) on top of the
// defaults. A missing file yields the defaults.
func ReadConfig(name string) (Config, error) {
	return configutil.ReadConfigWithDefaults(name, DefaultConfig(), func(c Config) error {
		return c.Sheet.Labels.Validate()
	})
}

func (c Config) ClientOptions() (wordpress.ClientOptions, error) {
	opts := wordpress.ClientOptions{
		Endpoint:         c.Source.Endpoint,
		PerPage:          c.Source.PerPage,
		UserAgent:        c.Source.UserAgent,
		Timeout:          time.Duration(c.Source.TimeoutSeconds) * time.Second,
		RetryCount:       c.Source.RetryCount,
		CloudflareBypass: c.Source.CloudflareBypass,
		PlainTitles:      c.Source.PlainTitles,
	}
	if c.Source.DumpDir != "" {
		out, err := restyutil.NewFilesystemOutput(c.Source.DumpDir)
		if err != nil {
			return opts, fmt.Errorf("create dump dir: %w", err)
		}
		opts.DumpOutput = out
	}
	return opts, nil
}

func (c Config) SheetStore() sheetstore.Store {
	lookahead := sheetstore.DefaultLookaheadRows
	if c.Sheet.LookaheadRows != nil {
		lookahead = *c.Sheet.LookaheadRows
	}
	return sheetstore.New(sheetstore.Options{
		Path:          c.Sheet.Path,
		Labels:        c.Sheet.Labels,
		LookaheadRows: lookahead,
	})
}

// Build wires a Service from the config. The returned cleanup closes the
// journal database, if one was opened.
func Build(c Config) (Service, func(), error) {
	clientOpts, err := c.ClientOptions()
	if err != nil {
		return Service{}, nil, err
	}

	store := c.SheetStore()
	opts := Options{HintThreshold: c.HintThreshold}

	cleanup := func() {}
	if c.Journal.Enabled() {
		var database *sql.DB
		database, err = c.Journal.OpenDB()
		if err != nil {
			return Service{}, nil, fmt.Errorf("open journal: %w", err)
		}
		opts.Journal = journal.NewStore(database)
		cleanup = func() {
			err := database.Close()
			if err != nil {
				slog.Warn("failed to close journal", "err", err)
			}
		}
	}
	if c.Notify.Enabled() {
		opts.Notifier = notify.NewMailer(c.Notify, store.Path())
	}

	return NewService(wordpress.NewClient(clientOpts), store, opts), cleanup, nil
}

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/felixgeelhaar/retailctl/internal/backend"
	"github.com/felixgeelhaar/retailctl/internal/config"
	"github.com/felixgeelhaar/retailctl/internal/guard"
	"github.com/felixgeelhaar/retailctl/internal/log"
	"github.com/felixgeelhaar/retailctl/internal/session"
	"github.com/felixgeelhaar/retailctl/internal/storage"
	"github.com/felixgeelhaar/retailctl/internal/tui"
	"github.com/felixgeelhaar/retailctl/internal/ux"
	"github.com/felixgeelhaar/retailctl/internal/version"
)

// globalOptions are the persistent flags.
type globalOptions struct {
	configPath string
	dotEnv     string
	apiURL     string
	storage    string
	logLevel   string
	logFormat  string
	format     string
}

// app holds everything a command needs. It is built once per invocation
// in the root command's PersistentPreRunE.
type app struct {
	opts   globalOptions
	out    io.Writer
	errOut io.Writer

	cfg     *config.Config
	logger  *log.Logger
	storage storage.Storage
	client  *backend.Client
	store   *session.Store
	styles  tui.Styles
}

func (a *app) loadConfig() error {
	cfg, err := config.Load(config.LoadOptions{Path: a.opts.configPath, DotEnv: a.opts.dotEnv})
	if err != nil {
		return err
	}
	cfg.Override(config.Overrides{
		APIURL:    a.opts.apiURL,
		Storage:   a.opts.storage,
		LogLevel:  a.opts.logLevel,
		LogFormat: a.opts.logFormat,
		Format:    a.opts.format,
	})
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = log.New(loggerConfig(cfg.Log, a.errOut))
	return nil
}

// loggerConfig maps the log settings onto a logger writing to w. Debug
// level adds source locations.
func loggerConfig(c config.LogConfig, w io.Writer) log.Config {
	level := log.ParseLevel(c.Level)
	logCfg := log.DefaultConfig()
	if level == log.LevelDebug {
		logCfg = log.DevelopmentConfig()
	}
	logCfg.Level = level
	logCfg.Format = log.ParseFormat(c.Format)
	logCfg.Output = log.NewOutput(w)
	logCfg.ServiceVersion = version.Version
	return logCfg
}

// open wires storage, backend client and session store. The session is
// not restored yet; see restore.
func (a *app) open() error {
	if a.store != nil {
		return nil
	}
	if a.cfg == nil {
		if err := a.loadConfig(); err != nil {
			return err
		}
	}

	st, err := storage.OpenBunt(a.cfg.Storage)
	if err != nil {
		return err
	}
	a.storage = st

	a.client = backend.NewClient(a.cfg.APIURL,
		backend.WithTimeout(a.cfg.Timeout),
		backend.WithLogger(a.logger))
	a.store = session.NewStore(a.client, st, session.WithLogger(a.logger))
	return nil
}

// restore opens the app and loads the stored session.
func (a *app) restore(ctx context.Context) error {
	if err := a.open(); err != nil {
		return err
	}
	return a.store.Init(ctx)
}

// authorize restores the session and runs gate against it.
func (a *app) authorize(ctx context.Context, gate guard.Gate) (guard.Outcome, error) {
	if err := a.restore(ctx); err != nil {
		return guard.Outcome{}, err
	}
	o := gate.Check(a.store.State())
	return o, o.Err()
}

func (a *app) close() {
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.logger.Warn("close storage", "error", err)
		}
	}
}

// render writes v in the configured format. text is used for the text
// format only.
func (a *app) render(v any, text func() string) error {
	f, err := ux.NewFormatter(a.cfg.Format, &ux.FormatterOptions{Writer: a.out})
	if err != nil {
		return err
	}
	if a.cfg.Format == ux.FormatText || a.cfg.Format == "" {
		return f.Format(text())
	}
	return f.Format(v)
}

func (a *app) println(s string) {
	fmt.Fprintln(a.out, s)
}

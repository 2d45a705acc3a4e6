package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/yacchi/bindwatch"
	"github.com/yacchi/bindwatch/bindings"
	"github.com/yacchi/bindwatch/internal/config"
	"github.com/yacchi/bindwatch/watcher"
	"go.uber.org/zap"
)

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Report changes to a directory or a bindings file",
		ArgsUsage: "PATH",
		Description: "If PATH is a directory, every change to a file matching --filter is printed.\n" +
			"If PATH is a file, it is parsed as bindings and printed again after each change.",
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "configuration file (.yaml, .yml, .toml, .json or .jsonc)",
				EnvVars: []string{"BINDWATCH_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "filter",
				Value: watcher.DefaultFilter,
				Usage: "glob matched against file names when PATH is a directory",
			},
			&cli.DurationFlag{
				Name:  "poll",
				Usage: "poll at this interval instead of using OS notifications",
			},
			&cli.DurationFlag{
				Name:  "debounce",
				Value: watcher.DefaultDebounceWindow,
				Usage: "drop repeated events for a path within this window",
			},
			&cli.DurationFlag{
				Name:  "retry",
				Value: bindwatch.DefaultRetry,
				Usage: "how long a changed bindings file is re-read before giving up",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   formatXML,
				Usage:   formatUsage(),
			},
		},
		Action: runWatch,
	}
}

// watchSettings are the flag values after merging the configuration file.
type watchSettings struct {
	filter      string
	poll        time.Duration
	debounce    time.Duration
	retry       time.Duration
	format      string
	searchPaths []string

	logLevel string
	logDev   bool
}

func resolveWatchSettings(c *cli.Context) (watchSettings, error) {
	s := watchSettings{
		filter:   c.String("filter"),
		poll:     c.Duration("poll"),
		debounce: c.Duration("debounce"),
		retry:    c.Duration("retry"),
		format:   c.String("format"),
		logLevel: c.String("log-level"),
		logDev:   c.Bool("log-dev"),
	}
	path := c.Path("config")
	if path == "" {
		return s, nil
	}

	cfg, err := config.Load(c.Context, path, config.Codecs())
	if err != nil {
		return s, err
	}
	if cfg.Filter != "" && !c.IsSet("filter") {
		s.filter = cfg.Filter
	}
	if cfg.Poll != 0 && !c.IsSet("poll") {
		s.poll = time.Duration(cfg.Poll)
	}
	if cfg.Debounce != nil && !c.IsSet("debounce") {
		s.debounce = time.Duration(*cfg.Debounce)
	}
	if cfg.Retry != nil && !c.IsSet("retry") {
		s.retry = time.Duration(*cfg.Retry)
	}
	if cfg.Format != "" && !c.IsSet("format") {
		s.format = cfg.Format
	}
	if cfg.Log.Level != "" && !c.IsSet("log-level") {
		s.logLevel = cfg.Log.Level
	}
	if cfg.Log.Development && !c.IsSet("log-dev") {
		s.logDev = true
	}
	s.searchPaths = cfg.SearchPaths
	return s, nil
}

func (s watchSettings) watcherOptions(logger *zap.Logger) []watcher.WatchConfigOption {
	opts := []watcher.WatchConfigOption{
		watcher.WithLogger(logger),
		watcher.WithDebounceWindow(s.debounce),
	}
	if s.poll > 0 {
		opts = append(opts, watcher.WithNotifier(watcher.Polling), watcher.WithPollInterval(s.poll))
	}
	return opts
}

func runWatch(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("watch requires exactly one PATH argument", 2)
	}
	settings, err := resolveWatchSettings(c)
	if err != nil {
		return err
	}
	logger := loggerFrom(c)
	if settings.logLevel != c.String("log-level") || settings.logDev != c.Bool("log-dev") {
		if logger, err = newLogger(settings.logLevel, settings.logDev); err != nil {
			return err
		}
		defer logger.Sync()
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := c.Args().First()
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		return watchDir(ctx.Done(), c.App.Writer, path, settings, logger)
	}
	return watchFile(ctx.Done(), c.App.Writer, path, settings, logger)
}

func watchDir(done <-chan struct{}, out io.Writer, dir string, s watchSettings, logger *zap.Logger) error {
	opts := append(s.watcherOptions(logger),
		watcher.WithKinds(watcher.Modified|watcher.Created|watcher.Removed|watcher.Renamed),
		watcher.WithOnError(func(err error) {
			logger.Warn("watch error", zap.Error(err))
		}),
	)
	w, err := watcher.NewWithFilter(dir, s.filter, opts...)
	if err != nil {
		return err
	}
	defer w.Close()

	var mu sync.Mutex
	w.Subscribe(func(ev watcher.ChangeEvent) error {
		mu.Lock()
		defer mu.Unlock()
		_, err := fmt.Fprintf(out, "%s\t%s\t%s\n", ev.Time.Format(time.RFC3339Nano), ev.Kind, ev.Path)
		return err
	})
	if err := w.Start(); err != nil {
		return err
	}
	logger.Info("watching directory", zap.String("dir", dir), zap.String("filter", w.Filter()))

	<-done
	return nil
}

func watchFile(done <-chan struct{}, out io.Writer, path string, s watchSettings, logger *zap.Logger) error {
	m, err := bindwatch.Open(path,
		bindwatch.WithLogger(logger),
		bindwatch.WithRetry(s.retry),
		bindwatch.WithSearchPaths(s.searchPaths...),
		bindwatch.WithWatcherOptions(s.watcherOptions(logger)...),
		bindwatch.WithOnError(func(err error) {
			logger.Warn("watch error", zap.Error(err))
		}),
	)
	if err != nil {
		return err
	}
	defer m.Close()

	var mu sync.Mutex
	show := func(p *bindings.Preset) {
		mu.Lock()
		defer mu.Unlock()
		if err := writePreset(out, p, s.format); err != nil {
			logger.Error("failed to print bindings", zap.Error(err))
		}
	}
	show(m.Current())
	m.Subscribe(show)

	if err := m.Start(); err != nil {
		return err
	}
	logger.Info("watching bindings file", zap.String("path", m.Path()))

	<-done
	return nil
}

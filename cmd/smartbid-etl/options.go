package main

import (
	"flag"
	"io"
	"os"
	"time"

	"github.com/xtxerr/smartbid/internal/config"
	"github.com/xtxerr/smartbid/internal/errors"
	"github.com/xtxerr/smartbid/internal/logging"
	"github.com/xtxerr/smartbid/internal/validation"
	"github.com/xtxerr/smartbid/internal/window"
)

// defaultConfigPath is read when present and --config is not given.
const defaultConfigPath = "smartbid.yaml"

// runOptions is the resolved configuration of one ETL run.
type runOptions struct {
	cfg   *config.Config
	start time.Time
	end   time.Time
}

// parseArgs resolves defaults, the config file, the environment and flags,
// in that order of precedence.
func parseArgs(args []string, lookup config.LookupFunc, now time.Time, stderr io.Writer) (*runOptions, error) {
	fs := flag.NewFlagSet("smartbid-etl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	cfgPath := fs.String("config", "", "config file path (default "+defaultConfigPath+" if present)")
	startDate := fs.String("start_date", "", "window range start, 'YYYY-MM-DD HH:MM:SS' (default 00:00:00 lookback days ago)")
	endDate := fs.String("end_date", "", "window range end, 'YYYY-MM-DD HH:MM:SS' (default 23:59:59 yesterday)")
	pct := fs.String("down_sampling_percentage", "", "fraction of events kept per window, 0-1 (default 0.01)")
	workers := fs.String("max_workers", "", "windows processed concurrently (default 8)")
	storageType := fs.String("storage_type", "", "dataset backend: local or remote (default remote)")
	overwrite := fs.Bool("overwrite", false, "rewrite partitions that already exist")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")
	logFormat := fs.String("log-format", "", "log format: auto, text, json")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, errors.NewInvalidArgument("argument", fs.Arg(0), "unexpected positional argument")
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(lookup)

	// Flags override everything else.
	if *pct != "" {
		v, err := validation.ParsePercentage(*pct)
		if err != nil {
			return nil, err
		}
		cfg.Run.DownSamplingPercentage = v
	}
	if *workers != "" {
		v, err := validation.ParsePositiveInt(*workers)
		if err != nil {
			return nil, err
		}
		cfg.Run.MaxWorkers = v
	}
	if *storageType != "" {
		v, err := validation.ParseChoice("storage_type", *storageType, "local", "remote")
		if err != nil {
			return nil, err
		}
		cfg.Dataset.Type = v
	}
	if *overwrite {
		cfg.Run.SkipExisting = false
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logFormat != "" {
		f, err := logging.ParseFormat(*logFormat)
		if err != nil {
			return nil, err
		}
		cfg.Logging.Format = f
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Join(errors.ErrInvalidConfig, err)
	}

	opts := &runOptions{cfg: cfg}
	opts.start, opts.end = window.PastDays(cfg.Run.LookbackDays, now.UTC())
	if *startDate != "" {
		if opts.start, err = validation.ParseDateTime(*startDate); err != nil {
			return nil, err
		}
	}
	if *endDate != "" {
		if opts.end, err = validation.ParseDateTime(*endDate); err != nil {
			return nil, err
		}
	}
	return opts, nil
}

// loadConfig reads path, or the default config file when path is empty.
// A missing default file yields the built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err != nil {
			return config.DefaultConfig(), nil
		}
		path = defaultConfigPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, errors.Join(errors.ErrInvalidConfig, err)
	}
	return cfg, nil
}

/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Shared utilities for the magicsniff commands. Provides configuration
loading, logging setup, client construction and input helpers used across all
command implementations.
*/

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kleascm/magicsniff/pkg/config"
	"github.com/kleascm/magicsniff/pkg/detect"
	"github.com/kleascm/magicsniff/pkg/logging"
	"github.com/kleascm/magicsniff/pkg/mimedb"
	"github.com/kleascm/magicsniff/pkg/sniff"
	"github.com/spf13/viper"
)

// ErrNoMatch is returned by match when the content is not of the claimed type
var ErrNoMatch = errors.New("content does not match")

// StdinArg names standard input on the command line
const StdinArg = "-"

// LoadConfig loads configuration from defaults, files, the environment and flags
func LoadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper(), viper.GetString("config"), viper.GetString("env_file"))
}

// SetupLogging configures the logging system
func SetupLogging(cfg *config.Config) (*logging.Logger, error) {
	logger, err := logging.NewLogger(cfg.LoggerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	return logger, nil
}

// setup loads configuration and logging together
func setup() (*config.Config, *logging.Logger, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := SetupLogging(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// newRegistry builds a registry with the installed database tables, if any.
// A missing database only narrows matching to the library hierarchy unless
// auto download is configured.
func newRegistry(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*detect.Registry, error) {
	opts := []detect.Option{detect.WithReadLimit(cfg.ReadLimit)}

	var (
		dir string
		err error
	)
	if cfg.MimeDB.AutoDownload {
		dir, err = mimedb.Ensure(ctx, cfg.Locator(), cfg.Fetcher(logger.GetLogger()), logger.GetLogger())
		if err != nil {
			return nil, fmt.Errorf("failed to install mime database: %w", err)
		}
	} else {
		dir, err = cfg.Locator().Locate()
	}

	if err == nil {
		tables, err := mimedb.LoadTables(dir)
		if err != nil {
			return nil, err
		}
		aliases, subclasses := tables.Len()
		logger.LogDatabase(dir, aliases, subclasses)
		opts = append(opts, detect.WithTables(tables))
	} else {
		logger.Debug("No mime database installed", map[string]interface{}{"error": err})
	}

	return detect.NewRegistry(opts...), nil
}

// newClient creates a detection client from configuration
func newClient(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*sniff.Client, error) {
	registry, err := newRegistry(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	sched := cfg.SchedulerConfig()
	opts := []sniff.Option{
		sniff.WithRegistry(registry),
		sniff.WithWorkers(sched.Workers),
		sniff.WithQueueSize(sched.QueueSize),
		sniff.WithStrictIO(cfg.StrictIO),
		sniff.WithLogger(logger.GetLogger()),
	}
	return sniff.New(opts...)
}

// readInput returns the content of a file, or of standard input for "-"
func readInput(arg string) ([]byte, error) {
	if arg == StdinArg {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read standard input: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", arg, err)
	}
	return data, nil
}

// signalContext is cancelled on interrupt or termination
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func since(t time.Time) time.Duration {
	return time.Since(t).Round(time.Microsecond)
}

/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: config.go
Description: Configuration for magicsniff. Values come from defaults, an optional
config file, a .env file, MAGICSNIFF_* environment variables, and bound command
flags, resolved through viper and checked with struct validation.
*/

package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/joho/godotenv"
	"github.com/kleascm/magicsniff/pkg/core"
	"github.com/kleascm/magicsniff/pkg/logging"
	"github.com/kleascm/magicsniff/pkg/mimedb"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "MAGICSNIFF"

// Config is the full runtime configuration
type Config struct {
	Workers   int    `mapstructure:"workers" validate:"gte=0"`    // 0 means one per CPU
	QueueSize int    `mapstructure:"queue_size" validate:"gte=0"` // 0 means unbuffered
	ReadLimit uint32 `mapstructure:"read_limit"`                  // 0 keeps the library default
	StrictIO  bool   `mapstructure:"strict_io"`

	MimeDB MimeDBConfig `mapstructure:"mimedb"`
	Log    LogConfig    `mapstructure:"log"`
	Server ServerConfig `mapstructure:"server"`
}

// MimeDBConfig controls shared-mime-info discovery and download
type MimeDBConfig struct {
	Dir          string        `mapstructure:"dir"`
	URL          string        `mapstructure:"url" validate:"omitempty,url"`
	AutoDownload bool          `mapstructure:"auto_download"`
	Attempts     int           `mapstructure:"attempts" validate:"gte=1,lte=10"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Concurrency  int           `mapstructure:"concurrency" validate:"gte=1,lte=64"`
}

// LogConfig controls logging
type LogConfig struct {
	Level    string `mapstructure:"level" validate:"oneof=debug info warn error fatal"`
	Format   string `mapstructure:"format" validate:"oneof=text json custom"`
	Dir      string `mapstructure:"dir"`
	MaxFiles int    `mapstructure:"max_files" validate:"gte=0"`
	Compress bool   `mapstructure:"compress"`
	Colors   bool   `mapstructure:"colors"`
}

// ServerConfig controls the HTTP surface
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required,hostname_port"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" validate:"gt=0"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	CORSOrigins     []string      `mapstructure:"cors_origins"` // Empty disables CORS headers
	PathRoot        string        `mapstructure:"path_root"`    // Confines path lookups; empty allows any path
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("workers", 0)
	v.SetDefault("queue_size", 0)
	v.SetDefault("read_limit", 0)
	v.SetDefault("strict_io", false)

	v.SetDefault("mimedb.dir", "")
	v.SetDefault("mimedb.url", mimedb.DefaultURL)
	v.SetDefault("mimedb.auto_download", false)
	v.SetDefault("mimedb.attempts", 3)
	v.SetDefault("mimedb.timeout", 5*time.Second)
	v.SetDefault("mimedb.concurrency", mimedb.DefaultConcurrency)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.max_files", 10)
	v.SetDefault("log.compress", false)
	v.SetDefault("log.colors", false)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_body_bytes", 32<<20)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.path_root", "")
}

// Load resolves configuration into a Config. envFile, when set, must exist;
// otherwise a .env in the working directory is read if present. configFile
// is optional.
func Load(v *viper.Viper, configFile, envFile string) (*Config, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The database location also honors the unprefixed variables
	if err := v.BindEnv("mimedb.dir", EnvPrefix+"_MIMEDB_DIR", mimedb.EnvDir); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}
	if err := v.BindEnv("mimedb.url", EnvPrefix+"_MIMEDB_URL", mimedb.EnvURL); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnvFile(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	return nil
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
	translator   ut.Translator
)

func validatorInstance() (*validator.Validate, ut.Translator) {
	validateOnce.Do(func() {
		enLoc := en.New()
		trans, _ := ut.New(enLoc, enLoc).GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		// Report config keys rather than Go field names
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			if tag := fld.Tag.Get("mapstructure"); tag != "" && tag != "-" {
				return tag
			}
			return fld.Name
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		validate, translator = v, trans
	})
	return validate, translator
}

// Validate checks every field constraint
func (c *Config) Validate() error {
	v, trans := validatorInstance()

	err := v.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := strings.TrimPrefix(fe.Namespace(), "Config.")
		msgs = append(msgs, fmt.Sprintf("%s: %s", key, fe.Translate(trans)))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// SchedulerConfig returns the worker pool settings
func (c *Config) SchedulerConfig() *core.SchedulerConfig {
	cfg := core.DefaultSchedulerConfig()
	if c.Workers > 0 {
		cfg.Workers = c.Workers
	}
	if c.QueueSize > 0 {
		cfg.QueueSize = c.QueueSize
	}
	return cfg
}

// LoggerConfig returns the logging settings
func (c *Config) LoggerConfig() *logging.LoggerConfig {
	return &logging.LoggerConfig{
		Level:     logging.LogLevel(c.Log.Level),
		Format:    logging.LogFormat(c.Log.Format),
		OutputDir: c.Log.Dir,
		MaxFiles:  c.Log.MaxFiles,
		Compress:  c.Log.Compress,
		Timestamp: true,
		Colors:    c.Log.Colors,
	}
}

// Locator returns a database locator honoring the configured directory
func (c *Config) Locator() *mimedb.Locator {
	l := mimedb.DefaultLocator()
	if c.MimeDB.Dir != "" {
		l.Dir = c.MimeDB.Dir
	}
	return l
}

// Fetcher returns a database downloader with the configured retry policy
func (c *Config) Fetcher(logger *logrus.Logger) *mimedb.Fetcher {
	f := mimedb.NewFetcher(c.MimeDB.URL, logger)
	f.Attempts = c.MimeDB.Attempts
	f.Timeout = c.MimeDB.Timeout
	return f
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. DOCFILL_BACKEND_BASE_URL.
const EnvPrefix = "DOCFILL"

// Config holds all docfill settings.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Backend BackendConfig `mapstructure:"backend"`
	Storage StorageConfig `mapstructure:"storage"`
	Log     LogConfig     `mapstructure:"log"`
	Theme   ThemeConfig   `mapstructure:"theme"`
	Preview PreviewConfig `mapstructure:"preview"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// EditorTTL drops section editor sessions idle for this long.
	EditorTTL time.Duration `mapstructure:"editor_ttl"`
}

// BackendConfig points at the document backend.
type BackendConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	Token           string        `mapstructure:"token"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RatePerSecond   float64       `mapstructure:"rate_per_second"`
	Burst           int           `mapstructure:"burst"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown"`
}

// StorageConfig holds draft persistence settings.
type StorageConfig struct {
	SQLitePath string `mapstructure:"sqlite_path"`
}

// LogConfig selects the log level and encoder.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// ThemeConfig names the go-theme selection used for section colors.
type ThemeConfig struct {
	Name    string `mapstructure:"name"`
	Variant string `mapstructure:"variant"`
}

// PreviewConfig tunes preview rendering.
type PreviewConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
	Locale   string        `mapstructure:"locale"`
}

// Flags registers the command line overrides on fs.
func Flags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to docfill.yaml")
	fs.String("addr", "", "HTTP listen address")
	fs.String("backend-url", "", "document backend base URL")
	fs.String("sqlite", "", "draft store sqlite path")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
}

var flagKeys = map[string]string{
	"addr":        "server.addr",
	"backend-url": "backend.base_url",
	"sqlite":      "storage.sqlite_path",
	"log-level":   "log.level",
}

// Load resolves configuration from defaults, an optional file, DOCFILL_*
// environment variables and finally flags set on fs. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := ""
	if fs != nil {
		if flag := fs.Lookup("config"); flag != nil {
			configPath = flag.Value.String()
		}
		for name, key := range flagKeys {
			flag := fs.Lookup(name)
			if flag == nil || !flag.Changed {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("config: bind flag %s: %w", name, err)
			}
		}
	}
	if configPath == "" {
		configPath = os.Getenv(EnvPrefix + "_CONFIG")
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configPath, err)
		}
	} else {
		v.SetConfigName("docfill")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: read: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.editor_ttl", 30*time.Minute)

	v.SetDefault("backend.base_url", "")
	v.SetDefault("backend.token", "")
	v.SetDefault("backend.timeout", 30*time.Second)
	v.SetDefault("backend.rate_per_second", 10.0)
	v.SetDefault("backend.burst", 20)
	v.SetDefault("backend.breaker_failures", 5)
	v.SetDefault("backend.breaker_cooldown", 30*time.Second)

	v.SetDefault("storage.sqlite_path", "docfill.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("theme.name", "")
	v.SetDefault("theme.variant", "")

	v.SetDefault("preview.debounce", 150*time.Millisecond)
	v.SetDefault("preview.locale", "th")
}

// Validate reports missing or out of range settings.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		errs = append(errs, errors.New("backend.base_url is required"))
	} else if u, err := url.Parse(c.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("backend.base_url %q is not an absolute URL", c.Backend.BaseURL))
	}
	if c.Backend.RatePerSecond < 0 {
		errs = append(errs, errors.New("backend.rate_per_second must not be negative"))
	}
	if c.Backend.Burst < 0 {
		errs = append(errs, errors.New("backend.burst must not be negative"))
	}
	if c.Backend.Timeout <= 0 {
		errs = append(errs, errors.New("backend.timeout must be positive"))
	}
	if c.Server.EditorTTL < 0 {
		errs = append(errs, errors.New("server.editor_ttl must not be negative"))
	}
	if c.Preview.Debounce < 0 {
		errs = append(errs, errors.New("preview.debounce must not be negative"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not supported", c.Log.Level))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w", errors.Join(errs...))
}

// Package config loads the run configuration from a YAML file, the
// environment (optionally seeded from a .env file) and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/naka-gawa/profile-banner/internal/domain"
)

const birthdayLayout = "2006-01-02"

// Config is everything a run needs to know.
type Config struct {
	User        string         `mapstructure:"user"`
	Token       string         `mapstructure:"token"`
	Birthday    string         `mapstructure:"birthday"`
	Documents   []string       `mapstructure:"documents"`
	Fields      []domain.Field `mapstructure:"fields"`
	CacheDir    string         `mapstructure:"cache_dir"`
	CacheMaxAge time.Duration  `mapstructure:"cache_max_age"`
	Timeout     time.Duration  `mapstructure:"timeout"`
	Concurrency int            `mapstructure:"concurrency"`
	GraphQLURL  string         `mapstructure:"graphql_url"`
	APIURL      string         `mapstructure:"api_url"`
}

// DefaultFields matches the placeholders of the stock banner template.
var DefaultFields = []domain.Field{
	{ID: "repo_data", Counter: domain.Repos, Width: 6},
	{ID: "star_data", Counter: domain.Stars, Width: 14},
	{ID: "commit_data", Counter: domain.Commits, Width: 22},
	{ID: "follower_data", Counter: domain.Followers, Width: 10},
	{ID: "contrib_data", Counter: domain.ContributedRepos, Plain: true},
}

func setDefaults(v *viper.Viper) {
	fields := make([]map[string]interface{}, 0, len(DefaultFields))
	for _, f := range DefaultFields {
		fields = append(fields, map[string]interface{}{
			"id":      f.ID,
			"counter": string(f.Counter),
			"width":   f.Width,
			"plain":   f.Plain,
		})
	}
	v.SetDefault("documents", []string{"banner.svg"})
	v.SetDefault("fields", fields)
	v.SetDefault("cache_dir", "cache")
	v.SetDefault("cache_max_age", 24*time.Hour)
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("concurrency", 1)
}

// Load reads the configuration. path names a config file; when empty,
// banner.yaml (or any format viper understands) in the working directory is
// used if it exists. Flags that were set on the command line win over
// everything else.
func Load(fs afero.Fs, path string, flags *pflag.FlagSet, logger logrus.FieldLogger) (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using environment variables")
	}

	v := viper.New()
	v.SetFs(fs)
	setDefaults(v)

	v.SetEnvPrefix("banner")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("user", "USER_NAME"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("token", "ACCESS_TOKEN", "GITHUB_TOKEN"); err != nil {
		return nil, err
	}

	if flags != nil {
		for _, key := range []string{"user", "concurrency"} {
			if f := flags.Lookup(key); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("banner")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			logger.Debug("No config file found, using defaults")
		}
	}
	if used := v.ConfigFileUsed(); used != "" {
		logger.WithField("file", used).Debug("Loaded config file")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration before any network call is made.
// A missing token is reported as *domain.AuthError.
func (c *Config) Validate() error {
	if c.Token == "" {
		return &domain.AuthError{Reason: "no access token configured (set ACCESS_TOKEN or GITHUB_TOKEN)"}
	}
	if c.User == "" {
		return errors.New("no user configured (set USER_NAME or --user)")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	for i, f := range c.Fields {
		if f.ID == "" || f.Counter == "" {
			return fmt.Errorf("field %d needs both an id and a counter", i)
		}
		if f.Width < 0 {
			return fmt.Errorf("field %s has a negative width", f.ID)
		}
	}
	if _, err := c.BirthdayTime(); err != nil {
		return err
	}
	return nil
}

// BirthdayTime parses Birthday. An empty birthday yields the zero time.
func (c *Config) BirthdayTime() (time.Time, error) {
	if c.Birthday == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(birthdayLayout, c.Birthday)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid birthday %q, use YYYY-MM-DD: %w", c.Birthday, err)
	}
	return t, nil
}

// Counters returns the distinct counters the fields refer to, in field order.
func (c *Config) Counters() []domain.Counter {
	seen := make(map[domain.Counter]bool, len(c.Fields))
	var out []domain.Counter
	for _, f := range c.Fields {
		if seen[f.Counter] {
			continue
		}
		seen[f.Counter] = true
		out = append(out, f.Counter)
	}
	return out
}

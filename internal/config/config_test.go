package config

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/profile-banner/internal/domain"
)

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// clearEnv makes sure variables from the developer's shell do not leak into a test.
func clearEnv(t *testing.T) {
	for _, key := range []string{"USER_NAME", "ACCESS_TOKEN", "GITHUB_TOKEN", "BANNER_CACHE_DIR", "BANNER_CONCURRENCY", "BANNER_BIRTHDAY"} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("USER_NAME", "octocat")
	t.Setenv("GITHUB_TOKEN", "ghp_fallback")

	cfg, err := Load(afero.NewMemMapFs(), "", nil, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, "octocat", cfg.User)
	assert.Equal(t, "ghp_fallback", cfg.Token)
	assert.Equal(t, []string{"banner.svg"}, cfg.Documents)
	assert.Equal(t, DefaultFields, cfg.Fields)
	assert.Equal(t, "cache", cfg.CacheDir)
	assert.Equal(t, 24*time.Hour, cfg.CacheMaxAge)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, []domain.Counter{domain.Repos, domain.Stars, domain.Commits, domain.Followers, domain.ContributedRepos}, cfg.Counters())
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	clearEnv(t)
	t.Setenv("ACCESS_TOKEN", "ghp_primary")
	t.Setenv("GITHUB_TOKEN", "ghp_fallback")
	t.Setenv("BANNER_CACHE_DIR", "/tmp/banner-cache")

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/banner/config.yaml", []byte(`
user: from-file
birthday: "2004-04-04"
documents: [dark_mode.svg, light_mode.svg]
timeout: 10s
fields:
  - id: age_data
    counter: age
    width: 49
  - id: star_data
    counter: stars
    width: 14
  - id: loc_data
    counter: code_bytes
    width: 9
`), 0o644))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("user", "", "")
	flags.Int("concurrency", 1, "")
	require.NoError(t, flags.Parse([]string{"--user", "from-flag"}))

	cfg, err := Load(fs, "/etc/banner/config.yaml", flags, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, "from-flag", cfg.User, "a set flag wins over the file")
	assert.Equal(t, "ghp_primary", cfg.Token)
	assert.Equal(t, "/tmp/banner-cache", cfg.CacheDir)
	assert.Equal(t, 1, cfg.Concurrency, "an unset flag does not override the default")
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, []string{"dark_mode.svg", "light_mode.svg"}, cfg.Documents)
	assert.Equal(t, []domain.Field{
		{ID: "age_data", Counter: domain.Age, Width: 49},
		{ID: "star_data", Counter: domain.Stars, Width: 14},
		{ID: "loc_data", Counter: domain.CodeBytes, Width: 9},
	}, cfg.Fields)

	birthday, err := cfg.BirthdayTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2004, time.April, 4, 0, 0, 0, 0, time.UTC), birthday)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(afero.NewMemMapFs(), "/nope/banner.yaml", nil, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			User:        "octocat",
			Token:       "t0ken",
			Fields:      DefaultFields,
			Timeout:     30 * time.Second,
			Concurrency: 1,
		}
	}
	testCases := []struct {
		name    string
		mutate  func(c *Config)
		errMsg  string
		isAuth  bool
		isValid bool
	}{
		{name: "valid", mutate: func(c *Config) {}, isValid: true},
		{name: "missing token", mutate: func(c *Config) { c.Token = "" }, isAuth: true},
		{name: "missing user", mutate: func(c *Config) { c.User = "" }, errMsg: "no user configured"},
		{name: "zero concurrency", mutate: func(c *Config) { c.Concurrency = 0 }, errMsg: "concurrency"},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }, errMsg: "timeout"},
		{name: "field without counter", mutate: func(c *Config) { c.Fields = []domain.Field{{ID: "x"}} }, errMsg: "needs both"},
		{name: "negative width", mutate: func(c *Config) { c.Fields = []domain.Field{{ID: "x", Counter: domain.Stars, Width: -1}} }, errMsg: "negative width"},
		{name: "bad birthday", mutate: func(c *Config) { c.Birthday = "04/04/2004" }, errMsg: "invalid birthday"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.isValid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var authErr *domain.AuthError
			assert.Equal(t, tc.isAuth, errors.As(err, &authErr))
			if tc.errMsg != "" {
				assert.Contains(t, err.Error(), tc.errMsg)
			}
		})
	}
}

func TestConfig_CountersAreDistinct(t *testing.T) {
	cfg := &Config{Fields: []domain.Field{
		{ID: "a", Counter: domain.Stars},
		{ID: "b", Counter: domain.Followers},
		{ID: "c", Counter: domain.Stars},
	}}
	assert.Equal(t, []domain.Counter{domain.Stars, domain.Followers}, cfg.Counters())
}

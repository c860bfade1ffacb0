// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/profile-banner/internal/cache"
	"github.com/naka-gawa/profile-banner/internal/config"
	"github.com/naka-gawa/profile-banner/internal/gateway"
	"github.com/naka-gawa/profile-banner/internal/usecase"
)

var rootCmd = &cobra.Command{
	Use:   "profile-banner",
	Short: "A CLI tool to render GitHub profile statistics into an SVG banner.",
	Long: `profile-banner fetches a user's GitHub statistics (followers, repositories,
stars, commits, contributed repositories, languages) and writes them into
the placeholder elements of one or more SVG banner documents.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default: banner.yaml in the working directory, if present)")
	rootCmd.PersistentFlags().StringP("user", "u", "", "GitHub login to render (default: $USER_NAME)")
	rootCmd.PersistentFlags().Int("concurrency", 1, "Number of counters fetched at once")
}

// newLogger logs warnings and errors to stderr, and everything when verbose is set.
func newLogger(cmd *cobra.Command) *logrus.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	logger.SetLevel(logrus.WarnLevel)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// setup loads and validates the configuration and wires the collector to GitHub.
// Nothing touches the network before the configuration is valid.
func setup(cmd *cobra.Command, fs afero.Fs, logger *logrus.Logger) (*config.Config, *usecase.Collector, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(fs, configPath, cmd.Flags(), logger)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	birthday, err := cfg.BirthdayTime()
	if err != nil {
		return nil, nil, err
	}

	var c *cache.Cache
	if cfg.CacheDir != "" {
		c = cache.New(fs, cfg.CacheDir, cfg.CacheMaxAge, logger.WithField("component", "cache"))
	}
	githubGateway, err := gateway.NewGitHubGateway(gateway.Options{
		Token:      cfg.Token,
		Timeout:    cfg.Timeout,
		GraphQLURL: cfg.GraphQLURL,
		APIURL:     cfg.APIURL,
	}, c, logger.WithField("component", "gateway"))
	if err != nil {
		return nil, nil, err
	}
	collector := usecase.NewCollector(githubGateway, usecase.CollectorConfig{
		Concurrency: cfg.Concurrency,
		Birthday:    birthday,
	}, logger.WithField("component", "collector"))
	return cfg, collector, nil
}

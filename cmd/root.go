package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/brk3/habitgrid/internal/apiclient"
	"github.com/brk3/habitgrid/internal/config"
	"github.com/brk3/habitgrid/internal/logger"
	"github.com/spf13/cobra"
)

const defaultConfigFile = "config.yaml"

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config

	// timeNow is swapped in tests.
	timeNow = time.Now
)

var rootCmd = &cobra.Command{
	Use:   "habits",
	Short: "Track daily habits on a calendar grid",
	Long: `
	Habits tracks daily activities and shows them as a contribution-style calendar grid,
	with streaks, totals and a daily completion series. The CLI talks to a habits server,
	which can be started with "habits server".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HABITS_CONFIG, or ./config.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" || os.Getenv("HABITS_CONFIG") != "" {
		return config.Load(cfgFile)
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return config.Load(defaultConfigFile)
	}
	c := config.FromEnv()
	return c, c.Validate()
}

func initConfig(cmd *cobra.Command) error {
	c, err := loadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	level, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	logger.Setup(logger.Options{
		Level:  level,
		JSON:   c.LogJSON,
		Output: cmd.ErrOrStderr(),
		File:   c.LogFile,
	})
	cfg = c
	return nil
}

func newClient() (*apiclient.Client, *time.Location, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	c := apiclient.New(cfg.APIBaseURL, cfg.AuthToken)
	c.HTTP.Timeout = cfg.RequestTimeout
	c.Location = loc
	return c, loc, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, cfg.RequestTimeout)
}

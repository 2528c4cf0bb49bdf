package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/newthinker/stratlab/internal/app"
	"github.com/newthinker/stratlab/internal/config"
	"github.com/newthinker/stratlab/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile  string
	debug    bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "stratlab",
	Short: "stratlab - trading indicator signals and backtests",
	Long: `stratlab evaluates moving-average, RSI, Bollinger Band and MACD
strategies on daily price history and compares their returns with buy and hold.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// loadConfig reads --config when given, otherwise the defaults.
func loadConfig(log *zap.Logger) (*config.Config, error) {
	if cfgFile == "" {
		log.Debug("no config file specified, using defaults")
		return config.Defaults(), nil
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func newLogger() (*zap.Logger, error) {
	level := logLevel
	if level == "" && !debug {
		level = "warn"
	}
	return logger.Build(logger.Options{Development: debug, Level: level})
}

// setup builds the logger and the app. mutate may adjust the loaded
// config from command flags before validation.
func setup(mutate func(*config.Config)) (*app.App, *zap.Logger, error) {
	log, err := newLogger()
	if err != nil {
		return nil, nil, err
	}

	cfg, err := loadConfig(log)
	if err != nil {
		return nil, log, err
	}
	if mutate != nil {
		mutate(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, log, fmt.Errorf("config validation failed: %w", err)
	}

	a, err := app.New(cfg, log)
	if err != nil {
		return nil, log, err
	}
	return a, log, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

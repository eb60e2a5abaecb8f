package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/i474232898/obhavo-bot/internal/config"
	"github.com/i474232898/obhavo-bot/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "obhavo-bot",
	Short: "Ob-havo - daily Uzbek/Arabic weather digest for Telegram",
	Long: `Ob-havo keeps a weather cache for the regions of Uzbekistan and
broadcasts a bilingual digest to registered Telegram channels and groups
at their scheduled time of day.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger. Commands that never
// talk to Telegram pass needToken=false.
func setup(needToken bool) (*config.AppConfig, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		if needToken || !errors.Is(err, config.ErrMissingToken) {
			return nil, nil, err
		}
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

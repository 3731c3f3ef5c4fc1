package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elit-parking/campaign-cli/internal/config"
	"github.com/elit-parking/campaign-cli/pkg/twilio"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "campaign-cli",
	Short: "WhatsApp campaign preparation and dispatch",
	Long:  "Cleans and deduplicates customer contact exports, assigns A/B/C test groups, and sends WhatsApp content templates through Twilio under a rate limit.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// newTwilioClient builds the API client from the loaded config.
func newTwilioClient(c config.TwilioConfig) twilio.Client {
	opts := []twilio.Option{}
	if c.BaseURL != "" {
		opts = append(opts, twilio.WithBaseURL(c.BaseURL))
	}
	if c.ContentURL != "" {
		opts = append(opts, twilio.WithContentBaseURL(c.ContentURL))
	}
	if c.TimeoutSecs > 0 {
		opts = append(opts, twilio.WithTimeout(time.Duration(c.TimeoutSecs)*time.Second))
	}
	return twilio.NewClient(c.AccountSID, c.AuthToken, opts...)
}

func outputDir(flag string) string {
	if flag != "" {
		return flag
	}
	return cfg.Output.Dir
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

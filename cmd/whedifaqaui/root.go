package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/georgeLochner/whedifaqaui/internal/api"
	"github.com/georgeLochner/whedifaqaui/internal/config"
	"github.com/georgeLochner/whedifaqaui/internal/logging"
	"github.com/georgeLochner/whedifaqaui/internal/store"
)

var (
	cfgFile string
	verbose bool
	version = "dev"

	v   *viper.Viper
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "whedifaqaui",
	Short: "Search, chat with and browse your meeting recordings",
	Long: `A terminal client for the whedifaqaui video knowledge backend.

Upload meeting recordings, search their transcripts, ask the assistant
questions answered with cited video moments, and read generated summary
documents.

Quick Start:
  whedifaqaui workspace                 # Three-pane chat workspace
  whedifaqaui library --status ready    # List recordings
  whedifaqaui search "release plan"     # Search transcripts
  whedifaqaui upload standup.mkv --title Standup --date 2024-03-01`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		cfg = c
		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		if _, err := logging.Setup(level, ""); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	v = config.New()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default <user config dir>/whedifaqaui/config.yaml)")
	rootCmd.PersistentFlags().String("api-url", api.DefaultBaseURL, "Backend base URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	_ = v.BindPFlag(config.KeyAPIURL, rootCmd.PersistentFlags().Lookup("api-url"))

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(
		workspaceCmd,
		libraryCmd,
		searchCmd,
		uploadCmd,
		videoCmd,
		documentCmd,
		sessionCmd,
		mcpCmd,
		healthCmd,
	)
}

func newClient() *api.Client {
	return api.NewClient(cfg.APIURL, api.WithTimeout(cfg.Timeout))
}

func openStore() (*store.DB, error) {
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	return db, nil
}

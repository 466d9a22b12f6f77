package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/georgeLochner/whedifaqaui/internal/app"
	"github.com/georgeLochner/whedifaqaui/internal/chat"
	"github.com/georgeLochner/whedifaqaui/internal/content"
	"github.com/georgeLochner/whedifaqaui/internal/logging"
	"github.com/georgeLochner/whedifaqaui/internal/workspace"
)

var workspaceSession string

var workspaceCmd = &cobra.Command{
	Use:     "workspace",
	Aliases: []string{"tui", "chat"},
	Short:   "Open the three-pane chat workspace",
	Long: `Open the conversation, results and content panes.

Each run starts a new session unless --session names an existing one, whose
conversation and results are restored.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := workspaceSession
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		logFile := cfg.LogFile
		if logFile == "" {
			logFile = cfg.DefaultLogFile()
		}
		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		closer, err := logging.Setup(level, logFile)
		if err != nil {
			return err
		}
		defer closer.Close()

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		client := newClient()
		storage := db.Scope(sessionID)
		saveDir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working dir: %w", err)
		}

		m := app.New(app.Deps{
			Backend:       client,
			Session:       chat.New(client, storage),
			Results:       workspace.New(storage),
			Pane:          content.New(client, content.Options{CacheSize: cfg.CacheSize, CacheTTL: cfg.CacheTTL}),
			SessionID:     sessionID,
			PlayerCommand: cfg.PlayerCommand,
			SaveDir:       saveDir,
		})

		log.Info().Str("session", sessionID).Str("api_url", cfg.APIURL).Msg("workspace started")
		p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("run workspace: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Resume with: whedifaqaui workspace --session %s\n", sessionID)
		return nil
	},
}

func init() {
	workspaceCmd.Flags().StringVar(&workspaceSession, "session", "", "Session id to resume")
}

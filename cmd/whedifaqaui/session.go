package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/georgeLochner/whedifaqaui/internal/chat"
	"github.com/georgeLochner/whedifaqaui/internal/store"
	"github.com/georgeLochner/whedifaqaui/internal/timestamp"
	"github.com/georgeLochner/whedifaqaui/internal/workspace"
)

var sessionFormat string

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage saved workspace sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		sessions, err := db.Sessions()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No saved sessions.")
			return nil
		}
		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%-36s  %-16s  %s", "SESSION", "UPDATED", "MESSAGES")))
		for _, s := range sessions {
			n := len(chat.New(nil, db.Scope(s.ID)).Snapshot().Messages)
			fmt.Fprintf(out, "%s  %-16s  %d\n", idStyle.Render(fmt.Sprintf("%-36s", s.ID)), s.UpdatedAt.Local().Format("2006-01-02 15:04"), n)
		}
		return nil
	},
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear <session-id>",
	Short: "Delete a session's conversation and results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.Clear(args[0])
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("no session %s", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared session %s\n", args[0])
		return nil
	},
}

var sessionExportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export a session's conversation and results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()
		return exportSession(cmd.OutOrStdout(), args[0], db.Scope(args[0]), sessionFormat)
	},
}

func init() {
	sessionExportCmd.Flags().StringVarP(&sessionFormat, "format", "f", "json", "Output format: json, yaml")
	sessionCmd.AddCommand(sessionListCmd, sessionClearCmd, sessionExportCmd)
}

type exportedSession struct {
	Session        string            `json:"session" yaml:"session"`
	ConversationID string            `json:"conversation_id,omitempty" yaml:"conversation_id,omitempty"`
	Messages       []exportedMessage `json:"messages" yaml:"messages"`
	Results        []exportedResult  `json:"results" yaml:"results"`
}

type exportedMessage struct {
	Role      string    `json:"role" yaml:"role"`
	Content   string    `json:"content" yaml:"content"`
	Citations []string  `json:"citations,omitempty" yaml:"citations,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

type exportedResult struct {
	Type    string `json:"type" yaml:"type"`
	ID      string `json:"id" yaml:"id"`
	Title   string `json:"title" yaml:"title"`
	At      string `json:"at,omitempty" yaml:"at,omitempty"`
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`
}

func exportSession(w io.Writer, id string, storage store.Storage, format string) error {
	st := chat.New(nil, storage).Snapshot()
	out := exportedSession{
		Session:        id,
		ConversationID: st.ConversationID,
		Messages:       []exportedMessage{},
		Results:        []exportedResult{},
	}
	for _, m := range st.Messages {
		em := exportedMessage{Role: string(m.Role), Content: m.Content, Timestamp: m.Timestamp}
		for _, c := range m.Citations {
			em.Citations = append(em.Citations, fmt.Sprintf("%s @ %s (%s)", c.VideoTitle, timestamp.Format(c.Timestamp), c.VideoID))
		}
		out.Messages = append(out.Messages, em)
	}
	for _, r := range workspace.New(storage).Results() {
		er := exportedResult{Type: string(r.Type), ID: r.ID}
		if r.Type == workspace.KindDocument {
			er.ID, er.Title = r.DocumentID, r.DocumentTitle
		} else {
			er.Title, er.At, er.Snippet = r.VideoTitle, timestamp.Format(r.Timestamp), r.Text
		}
		out.Results = append(out.Results, er)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q (want json or yaml)", format)
}

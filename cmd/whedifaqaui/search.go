package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/georgeLochner/whedifaqaui/internal/api"
	"github.com/georgeLochner/whedifaqaui/internal/timestamp"
	"github.com/georgeLochner/whedifaqaui/internal/ui"
	"github.com/georgeLochner/whedifaqaui/internal/workspace"
)

var (
	searchLimit   int
	searchAdd     bool
	searchSession string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search transcripts",
	Long: `Search every transcript and print the matching moments.

With --add the hits are also stored as results of the workspace session
named by --session, so they show up in the results pane.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.TrimSpace(strings.Join(args, " "))
		if query == "" {
			return errors.New("query is empty")
		}
		if searchAdd && searchSession == "" {
			return errors.New("--add needs --session")
		}

		resp, err := newClient().Search(cmd.Context(), query, searchLimit)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		printHits(cmd.OutOrStdout(), query, resp)

		if !searchAdd || len(resp.Results) == 0 {
			return nil
		}
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()
		added := workspace.New(db.Scope(searchSession)).AddSearchHits(resp.Results)
		fmt.Fprintf(cmd.OutOrStdout(), "Added %d new result(s) to session %s\n", added, searchSession)
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "Maximum number of hits")
	searchCmd.Flags().BoolVar(&searchAdd, "add", false, "Add hits to a workspace session")
	searchCmd.Flags().StringVar(&searchSession, "session", "", "Workspace session for --add")
}

func printHits(w io.Writer, query string, resp *api.SearchResponse) {
	if len(resp.Results) == 0 {
		fmt.Fprintf(w, "No results for %q\n", query)
		return
	}
	fmt.Fprintf(w, "%s %s\n\n", headerStyle.Render(fmt.Sprintf("Results for %q", query)), countStyle.Render(fmt.Sprintf("(%d)", resp.Size())))
	for _, h := range resp.Results {
		fmt.Fprintf(w, "%s %s\n",
			ui.CitationStyle.Render(fmt.Sprintf("[%s @ %s]", h.VideoTitle, timestamp.Format(h.StartTime))),
			idStyle.Render(h.VideoID))
		if h.Speaker != nil && *h.Speaker != "" {
			fmt.Fprintf(w, "  %s: ", ui.SpeakerStyle.Render(*h.Speaker))
		} else {
			fmt.Fprint(w, "  ")
		}
		fmt.Fprintln(w, strings.TrimSpace(h.Text))
	}
}

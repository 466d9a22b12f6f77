package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/georgeLochner/whedifaqaui/internal/api"
	"github.com/georgeLochner/whedifaqaui/internal/library"
	"github.com/georgeLochner/whedifaqaui/internal/timestamp"
	"github.com/georgeLochner/whedifaqaui/internal/ui"
)

var (
	libraryStatus string
	librarySort   string
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)
)

var libraryCmd = &cobra.Command{
	Use:     "library",
	Aliases: []string{"list", "ls"},
	Short:   "List uploaded recordings",
	Long: `List every recording in the library with its processing status.

Filter with --status (all, ready, processing, error) and order with
--sort (date, title).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := library.ParseStatusFilter(libraryStatus)
		if err != nil {
			return err
		}
		by, err := library.ParseSortBy(librarySort)
		if err != nil {
			return err
		}

		videos, err := newClient().AllVideos(cmd.Context())
		if err != nil {
			return fmt.Errorf("list videos: %w", err)
		}
		printLibrary(cmd.OutOrStdout(), library.List(videos, filter, by), len(videos))
		return nil
	},
}

func init() {
	libraryCmd.Flags().StringVar(&libraryStatus, "status", string(library.FilterAll), "Status filter: all, ready, processing, error")
	libraryCmd.Flags().StringVar(&librarySort, "sort", string(library.SortDate), "Sort order: date, title")
}

func printLibrary(w io.Writer, videos []api.Video, total int) {
	if len(videos) == 0 {
		if total == 0 {
			fmt.Fprintln(w, "No videos yet. Upload one with: whedifaqaui upload <file.mkv>")
		} else {
			fmt.Fprintln(w, "No videos match this filter.")
		}
		return
	}

	titleWidth := len("TITLE")
	for _, v := range videos {
		titleWidth = max(titleWidth, lipgloss.Width(v.Title))
	}
	titleWidth = min(titleWidth, 48)

	fmt.Fprintf(w, "%s  %s\n", headerStyle.Render("Videos"), countStyle.Render(fmt.Sprintf("%d of %d", len(videos), total)))
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-36s  %-10s  %-*s  %-8s  %s", "ID", "DATE", titleWidth, "TITLE", "LENGTH", "STATUS")))
	for _, v := range videos {
		length := "-"
		if v.Duration != nil {
			length = timestamp.Format(*v.Duration)
		}
		title := v.Title
		if lipgloss.Width(title) > titleWidth {
			title = string([]rune(title)[:titleWidth-1]) + "…"
		}
		title += strings.Repeat(" ", max(0, titleWidth-lipgloss.Width(title)))
		fmt.Fprintf(w, "%s  %-10s  %s  %-8s  %s\n",
			idStyle.Render(fmt.Sprintf("%-36s", v.ID)),
			v.RecordingDateOr("-"),
			ui.TitleStyle.Render(title),
			length,
			ui.StatusStyleFor(string(v.Status)).Render(string(v.Status)),
		)
	}
}

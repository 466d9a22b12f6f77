package main

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/georgeLochner/whedifaqaui/internal/ui"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the backend and its services",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := newClient().Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("backend %s unreachable: %w", cfg.APIURL, err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", cfg.APIURL, healthStyle(h.Status).Render(h.Status))

		names := make([]string, 0, len(h.Services))
		for name := range h.Services {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(out, "  %-12s %s\n", name, healthStyle(h.Services[name]).Render(h.Services[name]))
		}
		if h.Status != "healthy" && h.Status != "ok" {
			return fmt.Errorf("backend status %q", h.Status)
		}
		return nil
	},
}

func healthStyle(status string) lipgloss.Style {
	switch status {
	case "healthy", "ok", "up", "connected":
		return ui.StatusReadyStyle
	}
	return ui.StatusErrorStyle
}

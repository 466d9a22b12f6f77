package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/georgeLochner/whedifaqaui/internal/api"
	"github.com/georgeLochner/whedifaqaui/internal/content"
	"github.com/georgeLochner/whedifaqaui/internal/timestamp"
	"github.com/georgeLochner/whedifaqaui/internal/ui"
)

var (
	videoAt    string
	videoWatch bool
)

var videoCmd = &cobra.Command{
	Use:   "video <id>",
	Short: "Show a recording and its transcript",
	Long: `Show a recording's metadata, stream URL and transcript.

--t marks the segment playing at that moment (seconds or M:SS). --watch
polls a recording that is still processing until it is ready.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		at, err := parseAt(videoAt)
		if err != nil {
			return err
		}
		client := newClient()
		ctx := cmd.Context()

		video, err := client.GetVideo(ctx, id)
		if err != nil {
			return fmt.Errorf("get video: %w", err)
		}
		if videoWatch && !video.Status.Terminal() {
			if err := waitForProcessing(cmd, client, id); err != nil {
				return err
			}
			if video, err = client.GetVideo(ctx, id); err != nil {
				return fmt.Errorf("get video: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		printVideo(out, video, client.StreamURL(id))
		if video.Status != api.StatusReady {
			fmt.Fprintln(out, ui.DimStyle.Render("Transcript available once processing is complete."))
			return nil
		}

		tr, err := client.GetTranscript(ctx, id)
		if err != nil {
			return fmt.Errorf("get transcript: %w", err)
		}
		printTranscript(out, tr.Segments, at)
		return nil
	},
}

func init() {
	videoCmd.Flags().StringVarP(&videoAt, "t", "t", "", "Playback position, seconds or M:SS")
	videoCmd.Flags().BoolVar(&videoWatch, "watch", false, "Wait for processing to finish")
}

// parseAt accepts whole or fractional seconds or an M:SS clock. Empty means
// the start.
func parseAt(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if strings.Contains(s, ":") {
		secs, err := timestamp.Parse(s)
		if err != nil {
			return 0, fmt.Errorf("--t: %w", err)
		}
		return float64(secs), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("--t: %q is not a position", s)
	}
	return f, nil
}

func printVideo(w io.Writer, v *api.Video, streamURL string) {
	fmt.Fprintln(w, ui.TitleStyle.Render(v.Title))
	fmt.Fprintf(w, "  %-13s %s\n", "ID", idStyle.Render(v.ID))
	fmt.Fprintf(w, "  %-13s %s\n", "Status", ui.StatusStyleFor(string(v.Status)).Render(string(v.Status)))
	fmt.Fprintf(w, "  %-13s %s\n", "Recorded", v.RecordingDateOr("-"))
	if v.Duration != nil {
		fmt.Fprintf(w, "  %-13s %s\n", "Length", timestamp.Format(*v.Duration))
	}
	if len(v.Participants) > 0 {
		fmt.Fprintf(w, "  %-13s %s\n", "Participants", strings.Join(v.Participants, ", "))
	}
	if v.ContextNotes != nil && *v.ContextNotes != "" {
		fmt.Fprintf(w, "  %-13s %s\n", "Notes", *v.ContextNotes)
	}
	if v.ErrorMessage != nil && *v.ErrorMessage != "" {
		fmt.Fprintf(w, "  %-13s %s\n", "Error", ui.ErrorTextStyle.Render(*v.ErrorMessage))
	}
	fmt.Fprintf(w, "  %-13s %s\n\n", "Stream", streamURL)
}

func printTranscript(w io.Writer, segs []api.TranscriptSegment, at float64) {
	if len(segs) == 0 {
		fmt.Fprintln(w, ui.DimStyle.Render("No transcript available"))
		return
	}
	active, hasActive := content.ActiveSegment(segs, at)
	for i, s := range segs {
		line := s.Text
		if s.Speaker != nil && *s.Speaker != "" {
			line = ui.SpeakerStyle.Render(*s.Speaker) + ": " + line
		}
		marker := "  "
		if hasActive && i == active {
			marker = "▶ "
			line = ui.ActiveSegmentStyle.Render(line)
		}
		fmt.Fprintf(w, "%s%s %s\n", marker, ui.TimestampStyle.Render(fmt.Sprintf("%5s", timestamp.Format(s.StartTime))), line)
	}
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/georgeLochner/whedifaqaui/internal/api"
	"github.com/georgeLochner/whedifaqaui/internal/ui"
	"github.com/georgeLochner/whedifaqaui/internal/upload"
)

var (
	uploadForm upload.Form
	uploadWait bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file.mkv>",
	Short: "Upload a meeting recording",
	Long: `Upload an .mkv recording with its metadata.

The backend transcribes and indexes it in the background; pass --wait to
poll its status until processing finishes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		form := uploadForm
		form.FilePath = args[0]
		out := cmd.OutOrStdout()
		client := newClient()

		last := -1
		video, err := upload.Submit(cmd.Context(), client, form, func(pct int) {
			if pct != last {
				last = pct
				fmt.Fprintf(os.Stderr, "\rUploading... %3d%%", pct)
			}
		})
		if last >= 0 {
			fmt.Fprintln(os.Stderr)
		}
		if errs, ok := upload.AsErrors(err); ok {
			for _, f := range []string{upload.FieldFile, upload.FieldTitle, upload.FieldRecordingDate} {
				if msg, ok := errs[f]; ok {
					fmt.Fprintln(out, ui.ErrorTextStyle.Render(fmt.Sprintf("%s: %s", f, msg)))
				}
			}
			return errors.New("invalid upload")
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Uploaded %s %s\n", ui.TitleStyle.Render(video.Title), idStyle.Render(video.ID))
		if !uploadWait {
			fmt.Fprintf(out, "Status: %s\n", ui.StatusStyleFor(string(video.Status)).Render(string(video.Status)))
			return nil
		}
		return waitForProcessing(cmd, client, video.ID)
	},
}

func init() {
	f := uploadCmd.Flags()
	f.StringVar(&uploadForm.Title, "title", "", "Recording title (required)")
	f.StringVar(&uploadForm.RecordingDate, "date", "", "Recording date, YYYY-MM-DD (required)")
	f.StringVar(&uploadForm.Participants, "participants", "", "Comma separated participant names")
	f.StringVar(&uploadForm.ContextNotes, "notes", "", "Context notes")
	f.BoolVar(&uploadWait, "wait", false, "Poll until processing finishes")
}

// waitForProcessing prints every status change until the video is ready or
// failed.
func waitForProcessing(cmd *cobra.Command, client *api.Client, id string) error {
	out := cmd.OutOrStdout()
	var prev api.Status
	st, err := client.WaitForStatus(cmd.Context(), id, cfg.PollInterval, func(s api.VideoStatus) {
		if s.Status != prev {
			prev = s.Status
			fmt.Fprintf(out, "Status: %s\n", ui.StatusStyleFor(string(s.Status)).Render(string(s.Status)))
		}
	})
	if err != nil {
		return fmt.Errorf("wait for %s: %w", id, err)
	}
	if st.Status == api.StatusError {
		msg := "processing failed"
		if st.ErrorMessage != nil && *st.ErrorMessage != "" {
			msg = *st.ErrorMessage
		}
		return fmt.Errorf("video %s: %s", id, msg)
	}
	return nil
}

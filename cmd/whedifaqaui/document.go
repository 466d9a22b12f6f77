package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/georgeLochner/whedifaqaui/internal/api"
	"github.com/georgeLochner/whedifaqaui/internal/document"
	"github.com/georgeLochner/whedifaqaui/internal/ui"
)

var (
	documentVideos []string
	documentOutput string
)

var documentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"doc"},
	Short:   "Generate and read summary documents",
}

var documentCreateCmd = &cobra.Command{
	Use:   "create <request>",
	Short: "Generate a document from recordings",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		request := strings.TrimSpace(strings.Join(args, " "))
		if request == "" {
			return errors.New("request is empty")
		}
		doc, err := newClient().CreateDocument(cmd.Context(), api.DocumentRequest{
			Request:        request,
			SourceVideoIDs: documentVideos,
			Format:         document.Format,
		})
		if err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", ui.TitleStyle.Render(doc.Title), idStyle.Render(doc.ID))
		if doc.Preview != "" {
			fmt.Fprintln(out, ui.DimStyle.Render(doc.Preview))
		}
		return nil
	},
}

var documentShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := newClient().GetDocument(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("get document: %w", err)
		}
		printDocument(cmd.OutOrStdout(), doc)
		return nil
	},
}

var documentDownloadCmd = &cobra.Command{
	Use:   "download <id>",
	Short: "Save a document's markdown",
	Long: `Save a document's markdown. The file is named after the document title
unless --output is given; --output - writes to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		ctx := cmd.Context()
		id := args[0]

		if documentOutput == "-" {
			_, err := client.DownloadDocument(ctx, id, cmd.OutOrStdout())
			return err
		}
		path := documentOutput
		if path == "" {
			doc, err := client.GetDocument(ctx, id)
			if err != nil {
				return fmt.Errorf("get document: %w", err)
			}
			path = document.FileName(doc.Title)
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		n, err := client.DownloadDocument(ctx, id, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", path, n)
		return nil
	},
}

var documentHTMLCmd = &cobra.Command{
	Use:   "html <id>",
	Short: "Render a document to HTML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := newClient().GetDocument(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("get document: %w", err)
		}
		html, err := document.Render(doc.Content)
		if err != nil {
			return err
		}
		_, err = io.WriteString(cmd.OutOrStdout(), html)
		return err
	},
}

func init() {
	documentCreateCmd.Flags().StringSliceVar(&documentVideos, "videos", nil, "Source video ids (comma separated)")
	documentDownloadCmd.Flags().StringVarP(&documentOutput, "output", "o", "", "Output file, - for stdout")
	documentCmd.AddCommand(documentCreateCmd, documentShowCmd, documentDownloadCmd, documentHTMLCmd)
}

func printDocument(w io.Writer, doc *api.DocumentDetail) {
	fmt.Fprintf(w, "%s %s\n", ui.DocumentBadgeStyle.Render("DOC"), ui.TitleStyle.Render(doc.Title))
	if doc.CreatedAt != "" {
		fmt.Fprintln(w, ui.DimStyle.Render("Created "+doc.CreatedAt))
	}
	fmt.Fprintln(w)
	for _, b := range document.Blocks(doc.Content) {
		switch b.Kind {
		case document.BlockHeading:
			fmt.Fprintln(w, ui.HeadingStyle.Render(strings.Repeat("#", b.Level)+" "+b.Text))
		case document.BlockListItem:
			fmt.Fprintf(w, "%s• %s\n", strings.Repeat("  ", max(0, b.Level-1)), b.Text)
			continue
		case document.BlockCode:
			for _, l := range strings.Split(b.Text, "\n") {
				fmt.Fprintln(w, "    "+ui.CodeStyle.Render(l))
			}
		case document.BlockQuote:
			fmt.Fprintln(w, ui.DimStyle.Render("│ "+b.Text))
		case document.BlockRow:
			fmt.Fprintln(w, b.Text)
			continue
		default:
			fmt.Fprintln(w, b.Text)
		}
		fmt.Fprintln(w)
	}
}

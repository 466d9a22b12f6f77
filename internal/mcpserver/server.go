// Package mcpserver exposes the meeting archive to assistants as MCP tools
// over stdio.
package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/georgeLochner/whedifaqaui/internal/api"
	"github.com/georgeLochner/whedifaqaui/internal/library"
	"github.com/georgeLochner/whedifaqaui/internal/timestamp"
)

// Backend is the subset of the REST client the tools use.
type Backend interface {
	Search(ctx context.Context, query string, limit int) (*api.SearchResponse, error)
	Chat(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error)
	GetTranscript(ctx context.Context, videoID string) (*api.TranscriptResponse, error)
	GetDocument(ctx context.Context, id string) (*api.DocumentDetail, error)
	AllVideos(ctx context.Context) ([]api.Video, error)
}

const defaultSearchLimit = 10

// New builds the MCP server with every tool registered.
func New(b Backend, version string) *server.MCPServer {
	s := server.NewMCPServer("whedifaqaui", version, server.WithToolCapabilities(false))
	h := &handlers{backend: b}

	s.AddTool(mcp.NewTool("search_transcripts",
		mcp.WithDescription("Search meeting transcripts. Returns matching segments as [Title @ M:SS] lines."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of hits (default 10)")),
	), h.searchTranscripts)

	s.AddTool(mcp.NewTool("ask",
		mcp.WithDescription("Ask a question about the recorded meetings. Answers cite [Title @ M:SS] moments."),
		mcp.WithString("message", mcp.Required(), mcp.Description("The question")),
		mcp.WithString("conversation_id", mcp.Description("Continue an earlier conversation")),
	), h.ask)

	s.AddTool(mcp.NewTool("get_transcript",
		mcp.WithDescription("Full timestamped transcript of one video"),
		mcp.WithString("video_id", mcp.Required(), mcp.Description("Video id")),
	), h.getTranscript)

	s.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Markdown body of a generated document"),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document id")),
	), h.getDocument)

	s.AddTool(mcp.NewTool("list_videos",
		mcp.WithDescription("List recorded videos, newest first"),
		mcp.WithString("status", mcp.Description("all, ready, processing or error (default all)")),
	), h.listVideos)

	return s
}

// Serve runs the server on stdin/stdout until the client disconnects.
func Serve(b Backend, version string) error {
	log.Info().Msg("mcp server listening on stdio")
	return server.ServeStdio(New(b, version))
}

type handlers struct {
	backend Backend
}

func (h *handlers) searchTranscripts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := int(req.GetFloat("limit", defaultSearchLimit))
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	resp, err := h.backend.Search(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(resp.Results) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No results for %q.", query)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d results for %q:\n", resp.Size(), query)
	for _, r := range resp.Results {
		fmt.Fprintf(&b, "[%s @ %s] %s", r.VideoTitle, timestamp.Format(r.StartTime), oneLine(r.Text))
		if r.Speaker != nil && *r.Speaker != "" {
			fmt.Fprintf(&b, " (%s)", *r.Speaker)
		}
		fmt.Fprintf(&b, " video_id=%s\n", r.VideoID)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (h *handlers) ask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := req.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if strings.TrimSpace(message) == "" {
		return mcp.NewToolResultError("message is empty"), nil
	}

	resp, err := h.backend.Chat(ctx, api.ChatRequest{
		Message:        message,
		ConversationID: req.GetString("conversation_id", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ask failed: %v", err)), nil
	}

	var b strings.Builder
	b.WriteString(resp.Message)
	if len(resp.Citations) > 0 {
		b.WriteString("\n\nSources:\n")
		for _, c := range resp.Citations {
			fmt.Fprintf(&b, "- [%s @ %s] %s video_id=%s\n", c.VideoTitle, timestamp.Format(c.Timestamp), oneLine(c.Text), c.VideoID)
		}
	}
	fmt.Fprintf(&b, "\nconversation_id: %s\n", resp.ConversationID)
	return mcp.NewToolResultText(b.String()), nil
}

func (h *handlers) getTranscript(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("video_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp, err := h.backend.GetTranscript(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get transcript: %v", err)), nil
	}
	if len(resp.Segments) == 0 {
		return mcp.NewToolResultText("Transcript is empty."), nil
	}

	var b strings.Builder
	for _, s := range resp.Segments {
		b.WriteString(timestamp.Format(s.StartTime))
		if s.Speaker != nil && *s.Speaker != "" {
			fmt.Fprintf(&b, " %s:", *s.Speaker)
		}
		fmt.Fprintf(&b, " %s\n", oneLine(s.Text))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (h *handlers) getDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := h.backend.GetDocument(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get document: %v", err)), nil
	}
	return mcp.NewToolResultText(doc.Content), nil
}

func (h *handlers) listVideos(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter, err := library.ParseStatusFilter(req.GetString("status", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	all, err := h.backend.AllVideos(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list videos: %v", err)), nil
	}
	videos := library.List(all, filter, library.SortDate)
	if len(videos) == 0 {
		return mcp.NewToolResultText("No videos."), nil
	}

	var b strings.Builder
	for _, v := range videos {
		fmt.Fprintf(&b, "%s  %s  %s  [%s]\n", v.ID, v.RecordingDateOr("undated"), v.Title, v.Status)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

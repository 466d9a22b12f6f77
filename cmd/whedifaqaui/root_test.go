package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/georgeLochner/whedifaqaui/internal/api"
	"github.com/georgeLochner/whedifaqaui/internal/chat"
	"github.com/georgeLochner/whedifaqaui/internal/store"
	"github.com/georgeLochner/whedifaqaui/internal/workspace"
)

func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	isolate(t)
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{name: "version flag", args: []string{"--version"}},
		{name: "help flag", args: []string{"--help"}},
		{name: "unknown command", args: []string{"frobnicate"}, wantErr: true},
		{name: "bad api url", args: []string{"--api-url", "ftp://x", "health"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Errorf("Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func videoServer(t *testing.T) *httptest.Server {
	t.Helper()
	date1, date2 := "2024-03-01", "2024-05-10"
	videos := []api.Video{
		{ID: "v1", Title: "Zeta retro", RecordingDate: &date1, Status: api.StatusReady},
		{ID: "v2", Title: "alpha kickoff", RecordingDate: &date2, Status: api.StatusReady},
		{ID: "v3", Title: "Budget review", Status: api.StatusTranscribing},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/videos":
			_ = json.NewEncoder(w).Encode(api.VideoListResponse{Videos: videos, Total: len(videos)})
		case "/search":
			_ = json.NewEncoder(w).Encode(api.SearchResponse{Results: []api.SearchResult{
				{VideoID: "v1", VideoTitle: "Zeta retro", StartTime: 83, Text: "the layout ships first"},
			}})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLibraryCommand(t *testing.T) {
	isolate(t)
	srv := videoServer(t)

	out, err := execute(t, "--api-url", srv.URL, "library", "--status", "ready", "--sort", "title")
	if err != nil {
		t.Fatalf("library: %v", err)
	}
	alpha := strings.Index(out, "alpha kickoff")
	zeta := strings.Index(out, "Zeta retro")
	if alpha < 0 || zeta < 0 || alpha > zeta {
		t.Errorf("want both ready videos sorted by title, got:\n%s", out)
	}
	if strings.Contains(out, "Budget review") {
		t.Error("processing video should be filtered out")
	}

	if _, err := execute(t, "--api-url", srv.URL, "library", "--status", "pending", "--sort", "date"); err == nil {
		t.Error("unknown status should fail")
	}
}

func TestSearchCommandAddsToSession(t *testing.T) {
	isolate(t)
	srv := videoServer(t)

	out, err := execute(t, "--api-url", srv.URL, "search", "layout", "--limit", "5", "--add", "--session", "s1")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.Contains(out, "[Zeta retro @ 1:23]") {
		t.Errorf("output missing hit:\n%s", out)
	}
	if !strings.Contains(out, "Added 1 new result(s) to session s1") {
		t.Errorf("output missing add summary:\n%s", out)
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if n := workspace.New(db.Scope("s1")).Len(); n != 1 {
		t.Errorf("stored results = %d, want 1", n)
	}
}

func TestParseAt(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"", 0, false},
		{"83", 83, false},
		{"12.5", 12.5, false},
		{"1:23", 83, false},
		{"-4", 0, true},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		got, err := parseAt(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseAt(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseAt(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPrintTranscriptMarksActiveSegment(t *testing.T) {
	segs := []api.TranscriptSegment{
		{StartTime: 0, EndTime: 30, Text: "hello"},
		{StartTime: 30, EndTime: 60, Text: "layout"},
	}
	var buf bytes.Buffer
	printTranscript(&buf, segs, 45)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if strings.HasPrefix(lines[0], "▶") || !strings.HasPrefix(lines[1], "▶") {
		t.Errorf("active marker on wrong line: %q", lines)
	}
}

type replyChatter struct{}

func (replyChatter) Chat(context.Context, api.ChatRequest) (*api.ChatResponse, error) {
	return &api.ChatResponse{
		Message:        "See [Retro @ 1:00]",
		ConversationID: "conv-9",
		Citations:      []api.Citation{{VideoID: "v1", VideoTitle: "Retro", Timestamp: 60, Text: "ship it"}},
	}, nil
}

func TestExportSession(t *testing.T) {
	mem := store.NewMemory()
	reply, err := chat.New(replyChatter{}, mem).SendMessage(context.Background(), "what shipped?")
	if err != nil {
		t.Fatal(err)
	}
	ws := workspace.New(mem)
	ws.AddResults(reply.Citations)
	ws.AddDocumentResult("d1", "Weekly")

	var buf bytes.Buffer
	if err := exportSession(&buf, "s1", mem, "json"); err != nil {
		t.Fatalf("json: %v", err)
	}
	var got exportedSession
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ConversationID != "conv-9" || len(got.Messages) != 2 || len(got.Results) != 2 {
		t.Fatalf("export = %+v", got)
	}
	if got.Messages[1].Citations[0] != "Retro @ 1:00 (v1)" {
		t.Errorf("citation = %q", got.Messages[1].Citations[0])
	}
	if got.Results[1].Type != "document" || got.Results[1].ID != "d1" {
		t.Errorf("document result = %+v", got.Results[1])
	}

	buf.Reset()
	if err := exportSession(&buf, "s1", mem, "yaml"); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	var fromYAML exportedSession
	if err := yaml.Unmarshal(buf.Bytes(), &fromYAML); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if fromYAML.Results[0].At != "1:00" {
		t.Errorf("yaml result at = %q, want 1:00", fromYAML.Results[0].At)
	}

	if err := exportSession(&buf, "s1", mem, "xml"); err == nil {
		t.Error("unknown format should fail")
	}
}

package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/georgeLochner/whedifaqaui/internal/api"
	"github.com/georgeLochner/whedifaqaui/internal/chat"
	"github.com/georgeLochner/whedifaqaui/internal/content"
	"github.com/georgeLochner/whedifaqaui/internal/store"
	"github.com/georgeLochner/whedifaqaui/internal/workspace"
)

// fakeBackend stands in for the REST client in every role the model uses.
type fakeBackend struct {
	mu          sync.Mutex
	replies     []*api.ChatResponse
	chatReqs    []api.ChatRequest
	searchHits  []api.SearchResult
	queries     []string
	docReqs     []api.DocumentRequest
	transcripts map[string][]api.TranscriptSegment
	documents   map[string]*api.DocumentDetail
	chatErr     error
}

func (f *fakeBackend) Chat(_ context.Context, req api.ChatRequest) (*api.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatReqs = append(f.chatReqs, req)
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

func (f *fakeBackend) Search(_ context.Context, q string, _ int) (*api.SearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return &api.SearchResponse{Results: f.searchHits}, nil
}

func (f *fakeBackend) CreateDocument(_ context.Context, req api.DocumentRequest) (*api.DocumentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docReqs = append(f.docReqs, req)
	return &api.DocumentResponse{ID: "doc-1", Title: "Features Summary"}, nil
}

func (f *fakeBackend) DownloadDocument(_ context.Context, id string, w io.Writer) (int64, error) {
	n, err := io.WriteString(w, f.documents[id].Content)
	return int64(n), err
}

func (f *fakeBackend) StreamURL(id string) string { return "http://backend/api/videos/" + id + "/stream" }

func (f *fakeBackend) GetTranscript(_ context.Context, id string) (*api.TranscriptResponse, error) {
	return &api.TranscriptResponse{VideoID: id, Segments: f.transcripts[id]}, nil
}

func (f *fakeBackend) GetDocument(_ context.Context, id string) (*api.DocumentDetail, error) {
	d, ok := f.documents[id]
	if !ok {
		return nil, errors.New("HTTP error: 404")
	}
	return d, nil
}

func newTestModel(t *testing.T, fb *fakeBackend) Model {
	t.Helper()
	mem := store.NewMemory()
	m := New(Deps{
		Backend:   fb,
		Session:   chat.New(fb, mem),
		Results:   workspace.New(mem),
		Pane:      content.New(fb, content.Options{}),
		SessionID: "sess-123456789",
		SaveDir:   t.TempDir(),
	})
	m.width = 120
	m.height = 32
	return m
}

func applyUpdate(m Model, msg tea.Msg) (Model, tea.Cmd) {
	newModel, cmd := m.Update(msg)
	return newModel.(Model), cmd
}

// drain runs cmd and every command it batches, feeding resulting messages
// back into the model. Timer-driven messages are not followed.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case nil:
		case ChatReplyMsg, SearchResultsMsg, DocumentGeneratedMsg, ContentLoadedMsg, DocumentSavedMsg:
			var next tea.Cmd
			m, next = applyUpdate(m, msg)
			queue = append(queue, next)
		}
	}
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case KeyEnter:
		return tea.KeyMsg{Type: tea.KeyEnter}
	case KeyTab:
		return tea.KeyMsg{Type: tea.KeyTab}
	case KeyEsc:
		return tea.KeyMsg{Type: tea.KeyEsc}
	case KeySpace:
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case KeyCtrlC:
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case KeyCitationCtrl:
		return tea.KeyMsg{Type: tea.KeyCtrlO}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func segments() []api.TranscriptSegment {
	return []api.TranscriptSegment{
		{ID: "s1", StartTime: 0, EndTime: 30, Text: "welcome everyone"},
		{ID: "s2", StartTime: 30, EndTime: 90, Text: "layout changes ship first"},
		{ID: "s3", StartTime: 90, EndTime: 120, Text: "thanks all"},
	}
}

func TestNewModel(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	if m.focusedPanel != FocusConversation {
		t.Error("new model should focus the conversation")
	}
	if !m.input.Focused() {
		t.Error("input should be focused")
	}
	if m.citationCursor != -1 {
		t.Errorf("citationCursor = %d, want -1", m.citationCursor)
	}
	if m.busy() {
		t.Error("new model should not be busy")
	}
}

func TestViewWithoutSize(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m.width = 0
	if view := m.View(); view != "Initializing..." {
		t.Errorf("view without size = %q, want 'Initializing...'", view)
	}
}

func TestViewRendersWithSize(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	view := m.View()
	for _, want := range []string{"WHEDIFAQAUI", "CONVERSATION (0)", "RESULTS", "Select a result"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestTabCyclesFocus(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	m, _ = applyUpdate(m, key(KeyTab))
	if m.focusedPanel != FocusResults {
		t.Errorf("focus = %d, want results", m.focusedPanel)
	}
	if m.input.Focused() {
		t.Error("input should blur outside the conversation")
	}
	m, _ = applyUpdate(m, key(KeyTab))
	if m.focusedPanel != FocusContent {
		t.Errorf("focus = %d, want content", m.focusedPanel)
	}
	m, _ = applyUpdate(m, key(KeyTab))
	if m.focusedPanel != FocusConversation || !m.input.Focused() {
		t.Error("tab should wrap back to the conversation input")
	}
}

func TestQuitOnlyOutsideInput(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	m, _ = applyUpdate(m, key("q"))
	if m.input.Value() != "q" {
		t.Errorf("input = %q, want q typed", m.input.Value())
	}

	m.setFocus(FocusResults)
	_, cmd := applyUpdate(m, key("q"))
	if cmd == nil {
		t.Fatal("q outside the input should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestSendAddsCitationsToResults(t *testing.T) {
	fb := &fakeBackend{replies: []*api.ChatResponse{{
		Message:        "Layout ships first [Backdrop sync @ 0:45].",
		ConversationID: "conv-1",
		Citations:      []api.Citation{{VideoID: "v1", VideoTitle: "Backdrop sync", Timestamp: 45, Text: "layout"}},
	}}}
	m := newTestModel(t, fb)
	m.input.SetValue("what ships first?")

	m, cmd := applyUpdate(m, key(KeyEnter))
	if m.input.Value() != "" {
		t.Errorf("input = %q, want cleared", m.input.Value())
	}
	st := m.session.Snapshot()
	if !st.Loading || len(st.Messages) != 1 {
		t.Fatalf("after enter: loading=%v messages=%d, want loading with the user message", st.Loading, len(st.Messages))
	}

	m = drain(t, m, cmd)

	st = m.session.Snapshot()
	if st.Loading || len(st.Messages) != 2 {
		t.Fatalf("after reply: loading=%v messages=%d", st.Loading, len(st.Messages))
	}
	results := m.results.Results()
	if len(results) != 1 || results[0].ID != "v1-45" {
		t.Fatalf("results = %+v, want v1-45", results)
	}
	if len(fb.docReqs) != 0 {
		t.Error("a plain question must not generate a document")
	}
	if !strings.Contains(m.View(), "Backdrop sync @ 0:45") {
		t.Error("view should show the cited moment")
	}
}

func TestSummaryRequestGeneratesDocument(t *testing.T) {
	fb := &fakeBackend{replies: []*api.ChatResponse{{
		Message:        "Here is the summary [Kickoff @ 1:00] [Retro @ 2:00].",
		ConversationID: "conv-1",
		Citations: []api.Citation{
			{VideoID: "v1", VideoTitle: "Kickoff", Timestamp: 60},
			{VideoID: "v2", VideoTitle: "Retro", Timestamp: 120},
		},
	}}}
	m := newTestModel(t, fb)
	m.input.SetValue("Summarize the features discussion")

	m, cmd := applyUpdate(m, key(KeyEnter))
	m = drain(t, m, cmd)

	if len(fb.docReqs) != 1 {
		t.Fatalf("document requests = %d, want 1", len(fb.docReqs))
	}
	if got := fb.docReqs[0].SourceVideoIDs; len(got) != 2 {
		t.Errorf("source ids = %v, want two videos", got)
	}
	results := m.results.Results()
	last := results[len(results)-1]
	if last.Type != workspace.KindDocument || last.DocumentID != "doc-1" {
		t.Errorf("last result = %+v, want the generated document", last)
	}
}

func TestSendDisabledWhileInFlight(t *testing.T) {
	fb := &fakeBackend{replies: []*api.ChatResponse{{Message: "ok", ConversationID: "c"}}}
	m := newTestModel(t, fb)
	if _, err := m.session.Begin("first"); err != nil {
		t.Fatal(err)
	}

	m.input.SetValue("second")
	m, cmd := applyUpdate(m, key(KeyEnter))
	if cmd != nil {
		t.Error("enter while loading should do nothing")
	}
	if m.input.Value() != "second" {
		t.Errorf("input = %q, draft should be kept", m.input.Value())
	}
	if n := len(m.session.Snapshot().Messages); n != 1 {
		t.Errorf("messages = %d, want 1", n)
	}
}

func TestChatErrorShowsInConversation(t *testing.T) {
	fb := &fakeBackend{chatErr: errors.New("HTTP error: 500: boom")}
	m := newTestModel(t, fb)
	m.input.SetValue("hello")

	m, cmd := applyUpdate(m, key(KeyEnter))
	m = drain(t, m, cmd)

	if m.session.Snapshot().Error == "" {
		t.Fatal("session should record the error")
	}
	if !strings.Contains(m.View(), "boom") {
		t.Error("view should show the error strip")
	}
	if m.results.Len() != 0 {
		t.Error("failed turns add no results")
	}
}

func TestSearchPrefixAddsHits(t *testing.T) {
	fb := &fakeBackend{searchHits: []api.SearchResult{
		{VideoID: "v1", VideoTitle: "Sync", StartTime: 12.7, Text: "layout"},
		{VideoID: "v2", VideoTitle: "Plan", StartTime: 40, Text: "layout again"},
	}}
	m := newTestModel(t, fb)
	m.input.SetValue("/search   layout ")

	m, cmd := applyUpdate(m, key(KeyEnter))
	if !m.searching {
		t.Error("should be searching")
	}
	m = drain(t, m, cmd)

	if len(fb.queries) != 1 || fb.queries[0] != "layout" {
		t.Errorf("queries = %v, want [layout]", fb.queries)
	}
	if m.searching {
		t.Error("search should be finished")
	}
	if m.results.Len() != 2 {
		t.Errorf("results = %d, want 2", m.results.Len())
	}
	if len(fb.chatReqs) != 0 {
		t.Error("a search must not be sent as chat")
	}
}

func TestEmptySearchShowsUsage(t *testing.T) {
	fb := &fakeBackend{}
	m := newTestModel(t, fb)
	m.input.SetValue("/search")

	m, cmd := applyUpdate(m, key(KeyEnter))
	if cmd == nil || m.errorMessage == "" {
		t.Error("empty search should show a transient usage error")
	}
	if len(fb.queries) != 0 {
		t.Error("empty search must not hit the backend")
	}
}

func TestOpenResultLoadsTranscript(t *testing.T) {
	fb := &fakeBackend{transcripts: map[string][]api.TranscriptSegment{"v1": segments()}}
	m := newTestModel(t, fb)
	m.results.AddResult(api.Citation{VideoID: "v1", VideoTitle: "Sync", Timestamp: 45})
	m.setFocus(FocusResults)

	m, cmd := applyUpdate(m, key(KeyEnter))
	if m.pane.State() != content.StateVideoLoading {
		t.Fatalf("state = %s, want video-loading", m.pane.State())
	}
	m = drain(t, m, cmd)

	if m.pane.State() != content.StateVideoReady {
		t.Fatalf("state = %s, want video-ready", m.pane.State())
	}
	if m.segmentCursor != 1 {
		t.Errorf("segmentCursor = %d, want the segment containing 0:45", m.segmentCursor)
	}
	if sel, ok := m.results.Selected(); !ok || sel.ID != "v1-45" {
		t.Errorf("selected = %+v, %v", sel, ok)
	}
	if m.contentLoading {
		t.Error("loading should be cleared")
	}
}

func TestCitationKeyOpensNextCitation(t *testing.T) {
	fb := &fakeBackend{
		replies: []*api.ChatResponse{{
			Message:        "See [Sync @ 0:10] and [Plan @ 1:40] and [Ghost @ 9:99]",
			ConversationID: "c",
			Citations: []api.Citation{
				{VideoID: "v1", VideoTitle: "Sync", Timestamp: 10},
				{VideoID: "v2", VideoTitle: "Plan", Timestamp: 100},
			},
		}},
		transcripts: map[string][]api.TranscriptSegment{"v1": segments(), "v2": segments()},
	}
	m := newTestModel(t, fb)
	if _, err := m.session.SendMessage(context.Background(), "where?"); err != nil {
		t.Fatal(err)
	}
	m.setFocus(FocusResults)

	m, cmd := applyUpdate(m, key(KeyCitation))
	m = drain(t, m, cmd)
	if sel, _ := m.pane.Selected(); sel.VideoID != "v1" {
		t.Errorf("first citation opened %q, want v1", sel.VideoID)
	}

	m, cmd = applyUpdate(m, key(KeyCitation))
	m = drain(t, m, cmd)
	if sel, _ := m.pane.Selected(); sel.VideoID != "v2" || m.pane.CurrentTime() != 100 {
		t.Errorf("second citation = %+v at %v", sel, m.pane.CurrentTime())
	}

	// The unresolved marker is skipped, so the cycle wraps.
	m, cmd = applyUpdate(m, key(KeyCitation))
	m = drain(t, m, cmd)
	if m.citationCursor != 0 {
		t.Errorf("citationCursor = %d, want wrap to 0", m.citationCursor)
	}
}

func TestPlaybackTickAdvancesClock(t *testing.T) {
	fb := &fakeBackend{transcripts: map[string][]api.TranscriptSegment{"v1": segments()}}
	m := newTestModel(t, fb)
	m.setFocus(FocusContent)
	cmd := m.openItem(workspace.FromCitation(api.Citation{VideoID: "v1", Timestamp: 29}))
	m = drain(t, m, cmd)

	m, cmd = applyUpdate(m, key(KeySpace))
	if !m.playing || cmd == nil {
		t.Fatal("space should start playback")
	}
	gen := m.playGen

	m, _ = applyUpdate(m, PlaybackTickMsg{Gen: gen})
	if got := m.pane.CurrentTime(); got != 30 {
		t.Errorf("time = %v, want 30", got)
	}
	if m.segmentCursor != 1 {
		t.Errorf("segmentCursor = %d, want to follow into segment 1", m.segmentCursor)
	}

	m, _ = applyUpdate(m, key(KeySpace))
	m, cmd = applyUpdate(m, PlaybackTickMsg{Gen: gen})
	if cmd != nil || m.pane.CurrentTime() != 30 {
		t.Error("a stale tick after pausing must not advance the clock")
	}
}

func TestSegmentEnterSeeks(t *testing.T) {
	fb := &fakeBackend{transcripts: map[string][]api.TranscriptSegment{"v1": segments()}}
	m := newTestModel(t, fb)
	m.setFocus(FocusContent)
	cmd := m.openItem(workspace.FromCitation(api.Citation{VideoID: "v1", Timestamp: 5}))
	m = drain(t, m, cmd)

	m, _ = applyUpdate(m, key(KeyJ))
	m, _ = applyUpdate(m, key(KeyJ))
	m, _ = applyUpdate(m, key(KeyEnter))

	if got := m.pane.CurrentTime(); got != 90 {
		t.Errorf("time = %v, want 90", got)
	}
	if i, ok := m.pane.ActiveSegment(); !ok || i != 2 {
		t.Errorf("active = %d, %v, want 2", i, ok)
	}
}

func TestSaveDocument(t *testing.T) {
	fb := &fakeBackend{documents: map[string]*api.DocumentDetail{
		"d1": {ID: "d1", Title: "Weekly", Content: "# Weekly\n"},
	}}
	m := newTestModel(t, fb)
	m.setFocus(FocusContent)
	cmd := m.openItem(workspace.ResultItem{ID: "d1", Type: workspace.KindDocument, DocumentID: "d1", DocumentTitle: "Weekly"})
	m = drain(t, m, cmd)
	if m.pane.State() != content.StateDocumentReady {
		t.Fatalf("state = %s", m.pane.State())
	}

	m, cmd = applyUpdate(m, key(KeySaveDocument))
	m = drain(t, m, cmd)
	if !strings.Contains(m.statusText, "Weekly.md") {
		t.Errorf("statusText = %q, want saved file name", m.statusText)
	}
}

func TestTransientErrorClears(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m.setTransientError("oops")
	m, _ = applyUpdate(m, ClearTransientErrorMsg{})
	if m.errorMessage != "" {
		t.Errorf("errorMessage = %q, want cleared", m.errorMessage)
	}
}

func TestPlayerArgs(t *testing.T) {
	tests := []struct {
		cmd  string
		want string
	}{
		{"mpv", "mpv http://x/stream"},
		{"mpv --start={t} {url}", "mpv --start=83 http://x/stream"},
		{"vlc --start-time {t}", "vlc --start-time 83 http://x/stream"},
		{"", ""},
	}
	for _, tt := range tests {
		got := strings.Join(playerArgs(tt.cmd, "http://x/stream", 83.9), " ")
		if got != tt.want {
			t.Errorf("playerArgs(%q) = %q, want %q", tt.cmd, got, tt.want)
		}
	}
}

func TestWrapSpansKeepsMarkersWhole(t *testing.T) {
	spans := []span{
		{text: "see the "},
		{text: "[Backdrop sync @ 1:23]", atomic: true},
		{text: ". Then\nnext"},
	}
	got := wrapSpans(spans, 16)
	want := []string{"see the", "[Backdrop sync @ 1:23].", "Then", "next"}
	if len(got) != len(want) {
		t.Fatalf("wrapSpans = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("one two three four", 9)
	want := []string{"one two", "three", "four"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("wrapText = %q, want %q", got, want)
	}
}

func TestOpeningDocumentStopsPlayback(t *testing.T) {
	fb := &fakeBackend{
		transcripts: map[string][]api.TranscriptSegment{"v1": segments()},
		documents:   map[string]*api.DocumentDetail{"d1": {ID: "d1", Title: "Weekly", Content: "# Weekly\n"}},
	}
	m := newTestModel(t, fb)
	m.setFocus(FocusContent)
	cmd := m.openItem(workspace.FromCitation(api.Citation{VideoID: "v1", Timestamp: 0}))
	m = drain(t, m, cmd)

	m, _ = applyUpdate(m, key(KeySpace))
	if !m.playing {
		t.Fatal("space should start playback")
	}
	startGen := m.playGen

	cmd = m.openItem(workspace.ResultItem{ID: "d1", Type: workspace.KindDocument, DocumentID: "d1", DocumentTitle: "Weekly"})
	m = drain(t, m, cmd)
	if m.playing {
		t.Error("opening a document should stop playback")
	}

	for _, gen := range []uint64{startGen, m.playGen} {
		var next tea.Cmd
		m, next = applyUpdate(m, PlaybackTickMsg{Gen: gen})
		if next != nil {
			t.Errorf("tick gen %d rescheduled on a document", gen)
		}
	}
	if got := m.pane.CurrentTime(); got != 0 {
		t.Errorf("time = %v, want 0 while a document is open", got)
	}

	cmd = m.openItem(workspace.FromCitation(api.Citation{VideoID: "v1", Timestamp: 40}))
	m = drain(t, m, cmd)
	if m.playing {
		t.Error("reopening a video must not resume playback")
	}
}

func TestTickOffVideoStopsClock(t *testing.T) {
	fb := &fakeBackend{documents: map[string]*api.DocumentDetail{"d1": {ID: "d1", Title: "Weekly"}}}
	m := newTestModel(t, fb)
	cmd := m.openItem(workspace.ResultItem{ID: "d1", Type: workspace.KindDocument, DocumentID: "d1"})
	m = drain(t, m, cmd)

	m.playing = true
	m, cmd = applyUpdate(m, PlaybackTickMsg{Gen: m.playGen})
	if m.playing || cmd != nil {
		t.Errorf("playing = %v, rescheduled = %v, want the clock stopped", m.playing, cmd != nil)
	}
}

func TestDocumentScrollClamps(t *testing.T) {
	var body strings.Builder
	body.WriteString("# Long\n\n")
	for i := 0; i < 60; i++ {
		body.WriteString("A paragraph of notes.\n\n")
	}
	fb := &fakeBackend{documents: map[string]*api.DocumentDetail{
		"long":  {ID: "long", Title: "Long", Content: body.String()},
		"short": {ID: "short", Title: "Short", Content: "# Short\n\nOne line.\n"},
	}}
	m := newTestModel(t, fb)
	m.setFocus(FocusContent)

	cmd := m.openItem(workspace.ResultItem{ID: "long", Type: workspace.KindDocument, DocumentID: "long"})
	m = drain(t, m, cmd)
	limit := m.maxDocScroll()
	if limit == 0 {
		t.Fatal("long document should scroll")
	}
	for i := 0; i < limit+20; i++ {
		m, _ = applyUpdate(m, key(KeyJ))
	}
	if m.docScroll != limit {
		t.Errorf("docScroll = %d, want clamped to %d", m.docScroll, limit)
	}
	m, _ = applyUpdate(m, key(KeyK))
	if m.docScroll != limit-1 {
		t.Errorf("docScroll after k = %d, want %d", m.docScroll, limit-1)
	}

	cmd = m.openItem(workspace.ResultItem{ID: "short", Type: workspace.KindDocument, DocumentID: "short"})
	m = drain(t, m, cmd)
	m, _ = applyUpdate(m, key(KeyJ))
	if m.docScroll != 0 {
		t.Errorf("docScroll = %d, want 0 for a document that fits", m.docScroll)
	}
}

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/rs/zerolog/log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/georgeLochner/whedifaqaui/internal/api"
	"github.com/georgeLochner/whedifaqaui/internal/chat"
	"github.com/georgeLochner/whedifaqaui/internal/citation"
	"github.com/georgeLochner/whedifaqaui/internal/content"
	"github.com/georgeLochner/whedifaqaui/internal/document"
	"github.com/georgeLochner/whedifaqaui/internal/timestamp"
	"github.com/georgeLochner/whedifaqaui/internal/ui"
	"github.com/georgeLochner/whedifaqaui/internal/workspace"
)

// PanelFocus tracks which panel has keyboard focus.
type PanelFocus int

const (
	FocusConversation PanelFocus = iota
	FocusResults
	FocusContent
)

const (
	panelCount  = 3
	searchLimit = 10
	seekStep    = 10.0
)

// Backend is what the workspace calls directly. Chat turns go through the
// session and content fetches through the pane.
type Backend interface {
	Search(ctx context.Context, query string, limit int) (*api.SearchResponse, error)
	CreateDocument(ctx context.Context, req api.DocumentRequest) (*api.DocumentResponse, error)
	DownloadDocument(ctx context.Context, id string, w io.Writer) (int64, error)
	StreamURL(videoID string) string
}

// Deps wires the model to its state holders.
type Deps struct {
	Backend       Backend
	Session       *chat.Session
	Results       *workspace.Store
	Pane          *content.Pane
	SessionID     string
	PlayerCommand string
	SaveDir       string
}

// Model is the root bubbletea model for the three-pane workspace.
type Model struct {
	backend       Backend
	session       *chat.Session
	results       *workspace.Store
	pane          *content.Pane
	sessionID     string
	playerCommand string
	saveDir       string

	// Conversation
	input          textinput.Model
	spinner        spinner.Model
	citationCursor int
	searching      bool

	// Results
	resultCursor int

	// Content
	contentLoading bool
	segmentCursor  int
	followPlayback bool
	docScroll      int
	playing        bool
	playGen        uint64

	// UI state
	focusedPanel PanelFocus
	width        int
	height       int

	// Errors
	errorMessage   string
	errorTransient bool

	// Status
	statusText string
}

// New creates a Model over restored session state.
func New(d Deps) Model {
	in := textinput.New()
	in.Prompt = "> "
	in.Placeholder = "Ask about your meetings, or " + SearchPrefix + "<terms>"
	in.CharLimit = 4000
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = ui.SpinnerStyle

	return Model{
		backend:        d.Backend,
		session:        d.Session,
		results:        d.Results,
		pane:           d.Pane,
		sessionID:      d.SessionID,
		playerCommand:  d.PlayerCommand,
		saveDir:        d.SaveDir,
		input:          in,
		spinner:        sp,
		citationCursor: -1,
		followPlayback: true,
		focusedPanel:   FocusConversation,
		statusText:     "Ready",
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// sendCmd completes a chat turn that Begin already made visible.
func sendCmd(turn *chat.Turn) tea.Cmd {
	return func() tea.Msg {
		reply, err := turn.Complete(context.Background())
		return ChatReplyMsg{Request: turn.Text(), Reply: reply, Err: err}
	}
}

// searchCmd runs a transcript search.
func searchCmd(b Backend, query string) tea.Cmd {
	return func() tea.Msg {
		resp, err := b.Search(context.Background(), query, searchLimit)
		if err != nil {
			return SearchResultsMsg{Query: query, Err: err}
		}
		return SearchResultsMsg{Query: query, Results: resp.Results}
	}
}

// autoDocumentCmd generates a summary document. Failures produce no message.
func autoDocumentCmd(b Backend, request string, cites []api.Citation) tea.Cmd {
	return func() tea.Msg {
		doc, ok := document.AutoGenerate(context.Background(), b, request, cites)
		if !ok {
			return nil
		}
		return DocumentGeneratedMsg{Document: *doc}
	}
}

// loadContentCmd resolves a pane selection.
func loadContentCmd(p *content.Pane, f content.Fetch) tea.Cmd {
	return func() tea.Msg {
		return ContentLoadedMsg{Applied: p.Load(context.Background(), f)}
	}
}

// playbackTickCmd advances the playback clock once per second.
func playbackTickCmd(gen uint64) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return PlaybackTickMsg{Gen: gen}
	})
}

// openPlayerCmd launches the configured player and waits for it to exit.
func openPlayerCmd(command, url string, at float64) tea.Cmd {
	return func() tea.Msg {
		args := playerArgs(command, url, at)
		if len(args) == 0 {
			return PlayerExitedMsg{Err: errors.New("player_command is empty")}
		}
		c := exec.Command(args[0], args[1:]...)
		if err := c.Start(); err != nil {
			return PlayerExitedMsg{Err: fmt.Errorf("start player: %w", err)}
		}
		log.Debug().Strs("args", args).Msg("player started")
		return PlayerExitedMsg{Err: c.Wait()}
	}
}

// saveDocumentCmd downloads a document's markdown into dir.
func saveDocumentCmd(b Backend, dir, id, title string) tea.Cmd {
	return func() tea.Msg {
		path := filepath.Join(dir, document.FileName(title))
		f, err := os.Create(path)
		if err != nil {
			return DocumentSavedMsg{Path: path, Err: fmt.Errorf("create %s: %w", path, err)}
		}
		n, err := b.DownloadDocument(context.Background(), id, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		return DocumentSavedMsg{Path: path, Bytes: n, Err: err}
	}
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

// playerArgs expands {url} and {t} (whole seconds) in command. The URL is
// appended when the command has no {url} placeholder.
func playerArgs(command, url string, at float64) []string {
	fields := strings.Fields(command)
	secs := strconv.Itoa(int(at))
	hasURL := false
	for i, f := range fields {
		if strings.Contains(f, "{url}") {
			hasURL = true
		}
		f = strings.ReplaceAll(f, "{url}", url)
		fields[i] = strings.ReplaceAll(f, "{t}", secs)
	}
	if len(fields) > 0 && !hasURL {
		fields = append(fields, url)
	}
	return fields
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, m.conversationPanelWidth()-len(m.input.Prompt)-2)
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ChatReplyMsg:
		m.citationCursor = -1
		if msg.Err != nil {
			log.Debug().Err(msg.Err).Msg("chat turn failed")
			return m, nil
		}
		if added := m.results.AddResults(msg.Reply.Citations); added > 0 {
			m.statusText = fmt.Sprintf("%d new result(s)", added)
		}
		if document.WantsSummary(msg.Request) && len(msg.Reply.Citations) > 0 {
			m.statusText = "Generating summary document..."
			return m, autoDocumentCmd(m.backend, msg.Request, msg.Reply.Citations)
		}
		return m, nil

	case SearchResultsMsg:
		m.searching = false
		if msg.Err != nil {
			return m, m.setTransientError(fmt.Sprintf("search %q: %v", msg.Query, msg.Err))
		}
		added := m.results.AddSearchHits(msg.Results)
		m.statusText = fmt.Sprintf("%d hits for %q, %d new", len(msg.Results), msg.Query, added)
		return m, nil

	case DocumentGeneratedMsg:
		m.results.AddDocumentResult(msg.Document.ID, msg.Document.Title)
		m.statusText = "Document ready: " + msg.Document.Title
		return m, nil

	case ContentLoadedMsg:
		st := m.pane.State()
		m.contentLoading = st == content.StateVideoLoading || st == content.StateDocumentLoading
		if msg.Applied {
			m.syncSegmentCursor()
		}
		return m, nil

	case PlaybackTickMsg:
		if !m.playing || msg.Gen != m.playGen {
			return m, nil
		}
		if m.pane.State() != content.StateVideoReady {
			m.stopPlayback()
			return m, nil
		}
		m.pane.SetCurrentTime(m.pane.CurrentTime() + 1)
		if segs := m.pane.Segments(); len(segs) > 0 && m.pane.CurrentTime() >= segs[len(segs)-1].EndTime {
			m.playing = false
			m.statusText = "End of transcript"
		}
		if m.followPlayback {
			m.syncSegmentCursor()
		}
		if !m.playing {
			return m, nil
		}
		return m, playbackTickCmd(m.playGen)

	case PlayerExitedMsg:
		if msg.Err != nil {
			return m, m.setTransientError("player: " + msg.Err.Error())
		}
		return m, nil

	case DocumentSavedMsg:
		if msg.Err != nil {
			return m, m.setTransientError("save document: " + msg.Err.Error())
		}
		m.statusText = fmt.Sprintf("Saved %s (%d bytes)", msg.Path, msg.Bytes)
		return m, nil

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case KeyCtrlC:
		return m, tea.Quit
	case KeyTab:
		m.setFocus(PanelFocus((int(m.focusedPanel) + 1) % panelCount))
		return m, nil
	case KeyShiftTab:
		m.setFocus(PanelFocus((int(m.focusedPanel) + panelCount - 1) % panelCount))
		return m, nil
	}

	if m.focusedPanel == FocusConversation {
		return m.handleConversationKey(msg)
	}

	switch key {
	case KeyQuit, KeyQuitUpper:
		return m, tea.Quit
	case KeyEsc:
		m.setFocus(FocusConversation)
		return m, nil
	case KeySpace:
		return m, m.togglePlayback()
	case KeyCitation:
		return m, m.cycleCitation(1)
	case KeyCitationUp:
		return m, m.cycleCitation(-1)
	case KeyOpenPlayer:
		return m, m.openPlayer()
	case KeySaveDocument:
		return m, m.saveDocument()
	}

	if m.focusedPanel == FocusResults {
		return m.handleResultsKey(key)
	}
	return m.handleContentKey(key)
}

func (m Model) handleConversationKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyEnter:
		return m.submit()
	case KeyEsc:
		m.setFocus(FocusResults)
		return m, nil
	case KeyCitationCtrl:
		return m, m.cycleCitation(1)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the input as a chat turn or a search. An empty input opens
// the highlighted citation instead.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		if c, ok := m.currentCitation(); ok {
			return m, m.openItem(workspace.FromCitation(c))
		}
		return m, nil
	}

	if text == strings.TrimSpace(SearchPrefix) || strings.HasPrefix(text, SearchPrefix) {
		query := strings.TrimSpace(strings.TrimPrefix(text, strings.TrimSpace(SearchPrefix)))
		if query == "" {
			return m, m.setTransientError("usage: " + SearchPrefix + "<terms>")
		}
		if m.searching {
			return m, nil
		}
		m.searching = true
		m.input.Reset()
		m.statusText = fmt.Sprintf("Searching %q...", query)
		return m, tea.Batch(searchCmd(m.backend, query), m.spinner.Tick)
	}

	turn, err := m.session.Begin(text)
	if err != nil {
		// ErrInFlight keeps the draft; ErrEmptyMessage cannot happen here.
		return m, nil
	}
	m.input.Reset()
	m.citationCursor = -1
	return m, tea.Batch(sendCmd(turn), m.spinner.Tick)
}

func (m Model) handleResultsKey(key string) (tea.Model, tea.Cmd) {
	n := m.results.Len()
	switch key {
	case KeyJ, KeyDown:
		if m.resultCursor < n-1 {
			m.resultCursor++
		}
	case KeyK, KeyUp:
		if m.resultCursor > 0 {
			m.resultCursor--
		}
	case KeyEnter:
		items := m.results.Results()
		if m.resultCursor < len(items) {
			return m, m.openItem(items[m.resultCursor])
		}
	}
	return m, nil
}

func (m Model) handleContentKey(key string) (tea.Model, tea.Cmd) {
	switch m.pane.State() {
	case content.StateVideoReady:
		n := len(m.pane.Segments())
		switch key {
		case KeyJ, KeyDown:
			if m.segmentCursor < n-1 {
				m.segmentCursor++
			}
			m.followPlayback = false
		case KeyK, KeyUp:
			if m.segmentCursor > 0 {
				m.segmentCursor--
			}
			m.followPlayback = false
		case KeyEnter:
			if m.pane.ClickSegment(m.segmentCursor) {
				m.takeSeek()
			}
		case KeyBack:
			m.pane.SetCurrentTime(max(0, m.pane.CurrentTime()-seekStep))
			m.followPlayback = true
			m.syncSegmentCursor()
		case KeyForward:
			m.pane.SetCurrentTime(m.pane.CurrentTime() + seekStep)
			m.followPlayback = true
			m.syncSegmentCursor()
		}

	case content.StateDocumentReady:
		switch key {
		case KeyJ, KeyDown:
			m.docScroll = min(m.docScroll+1, m.maxDocScroll())
		case KeyK, KeyUp:
			if m.docScroll > 0 {
				m.docScroll--
			}
		}
	}
	return m, nil
}

// openItem selects item in the workspace and points the content pane at it.
func (m *Model) openItem(item workspace.ResultItem) tea.Cmd {
	m.results.Select(item)
	for i, r := range m.results.Results() {
		if r.ID == item.ID {
			m.resultCursor = i
			break
		}
	}

	if cur, ok := m.pane.Selected(); !ok || cur.ID != item.ID || cur.Type != item.Type {
		m.stopPlayback()
	}
	fetch, ok := m.pane.Select(item)
	m.docScroll = 0
	m.takeSeek()
	if !ok {
		m.syncSegmentCursor()
		return nil
	}
	m.contentLoading = true
	return tea.Batch(loadContentCmd(m.pane, fetch), m.spinner.Tick)
}

// takeSeek applies a queued seek to the view.
func (m *Model) takeSeek() {
	t, ok := m.pane.TakeSeek()
	if !ok {
		return
	}
	m.followPlayback = true
	m.syncSegmentCursor()
	m.statusText = "At " + timestamp.Format(t)
}

func (m *Model) syncSegmentCursor() {
	if i, ok := m.pane.ActiveSegment(); ok {
		m.segmentCursor = i
		return
	}
	if n := len(m.pane.Segments()); m.segmentCursor >= n {
		m.segmentCursor = max(0, n-1)
	}
}

// replyCitations returns the navigable citations of the latest reply in the
// order they appear in its text.
func (m Model) replyCitations() []api.Citation {
	last, ok := m.session.Snapshot().LastAssistant()
	if !ok {
		return nil
	}
	var out []api.Citation
	for _, s := range citation.Extract(last.Content, last.Citations) {
		if s.Navigable() {
			out = append(out, s.Citation)
		}
	}
	return out
}

func (m Model) currentCitation() (api.Citation, bool) {
	cs := m.replyCitations()
	if m.citationCursor < 0 || m.citationCursor >= len(cs) {
		return api.Citation{}, false
	}
	return cs[m.citationCursor], true
}

// cycleCitation moves the citation highlight and opens the citation.
func (m *Model) cycleCitation(dir int) tea.Cmd {
	cs := m.replyCitations()
	n := len(cs)
	if n == 0 {
		return nil
	}
	switch {
	case m.citationCursor < 0 && dir > 0:
		m.citationCursor = 0
	case m.citationCursor < 0:
		m.citationCursor = n - 1
	default:
		m.citationCursor = ((m.citationCursor+dir)%n + n) % n
	}
	return m.openItem(workspace.FromCitation(cs[m.citationCursor]))
}

func (m *Model) togglePlayback() tea.Cmd {
	if m.pane.State() != content.StateVideoReady {
		return nil
	}
	m.playing = !m.playing
	m.playGen++
	if !m.playing {
		return nil
	}
	m.followPlayback = true
	return playbackTickCmd(m.playGen)
}

// stopPlayback pauses the clock and invalidates any scheduled tick.
func (m *Model) stopPlayback() {
	if !m.playing {
		return
	}
	m.playing = false
	m.playGen++
}

func (m *Model) openPlayer() tea.Cmd {
	item, ok := m.pane.Selected()
	if !ok || item.Type != workspace.KindVideo || item.VideoID == "" {
		return nil
	}
	if strings.TrimSpace(m.playerCommand) == "" {
		return m.setTransientError("set player_command to open videos")
	}
	return openPlayerCmd(m.playerCommand, m.backend.StreamURL(item.VideoID), m.pane.CurrentTime())
}

func (m *Model) saveDocument() tea.Cmd {
	if m.pane.State() != content.StateDocumentReady {
		return nil
	}
	doc := m.pane.Document()
	if doc == nil {
		return nil
	}
	return saveDocumentCmd(m.backend, m.saveDir, doc.ID, doc.Title)
}

func (m *Model) setFocus(f PanelFocus) {
	m.focusedPanel = f
	if f == FocusConversation {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m *Model) setTransientError(text string) tea.Cmd {
	m.errorMessage = text
	m.errorTransient = true
	return clearTransientErrorCmd()
}

// busy reports whether any request the spinner tracks is outstanding.
func (m Model) busy() bool {
	return m.searching || m.contentLoading || m.session.Snapshot().Loading
}

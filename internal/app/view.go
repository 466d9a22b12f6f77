package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/georgeLochner/whedifaqaui/internal/chat"
	"github.com/georgeLochner/whedifaqaui/internal/citation"
	"github.com/georgeLochner/whedifaqaui/internal/content"
	"github.com/georgeLochner/whedifaqaui/internal/document"
	"github.com/georgeLochner/whedifaqaui/internal/timestamp"
	"github.com/georgeLochner/whedifaqaui/internal/ui"
	"github.com/georgeLochner/whedifaqaui/internal/workspace"
)

func (m Model) panelHeight() int {
	if m.height == 0 {
		return 20
	}
	// header, status, two dividers, error, footer
	reserved := 6
	return max(6, m.height-reserved)
}

func (m Model) conversationPanelWidth() int {
	if m.width == 0 {
		return 40
	}
	return max(24, m.width*40/100)
}

func (m Model) resultsPanelWidth() int {
	if m.width == 0 {
		return 28
	}
	return max(20, m.width*25/100)
}

func (m Model) contentPanelWidth() int {
	if m.width == 0 {
		return 40
	}
	return max(20, m.width-m.conversationPanelWidth()-m.resultsPanelWidth()-2)
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderStatusBar())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderMainContent())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	if m.errorMessage != "" {
		sections = append(sections, m.renderErrorBar())
	}
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("WHEDIFAQAUI")
	var info string
	if m.sessionID != "" {
		info = ui.DimStyle.Render("  session " + shortID(m.sessionID))
	}
	if conv := m.session.Snapshot().ConversationID; conv != "" {
		info += ui.DimStyle.Render("  conversation " + shortID(conv))
	}
	return title + info
}

func (m Model) renderStatusBar() string {
	var parts []string

	if m.pane.State() == content.StateVideoReady {
		clock := timestamp.Format(m.pane.CurrentTime())
		if m.playing {
			parts = append(parts, ui.PlayingDotStyle.Render("▶ "+clock))
		} else {
			parts = append(parts, ui.PausedDotStyle.Render("■ "+clock))
		}
	}
	if m.busy() {
		parts = append(parts, m.spinner.View())
	}
	parts = append(parts, ui.StatusStyle.Render(m.statusText))
	return truncateToWidth(strings.Join(parts, "  "), m.width)
}

func (m Model) renderMainContent() string {
	h := m.panelHeight()
	convW := m.conversationPanelWidth()
	resW := m.resultsPanelWidth()
	contW := m.contentPanelWidth()

	conv := strings.Split(m.renderConversationPanel(convW, h), "\n")
	res := strings.Split(m.renderResultsPanel(resW, h), "\n")
	cont := strings.Split(m.renderContentPanel(contW, h), "\n")

	divider := ui.DividerStyle.Render("│")
	rows := make([]string, 0, h)
	for i := 0; i < h; i++ {
		rows = append(rows, lineAt(conv, i, convW)+divider+lineAt(res, i, resW)+divider+lineAt(cont, i, contW))
	}
	return strings.Join(rows, "\n")
}

func lineAt(lines []string, i, width int) string {
	if i >= len(lines) {
		return strings.Repeat(" ", width)
	}
	return padRight(truncateToWidth(lines[i], width), width)
}

func (m Model) panelTitle(label string, f PanelFocus) string {
	if m.focusedPanel == f {
		return ui.PanelTitleActiveStyle.Render(label)
	}
	return ui.PanelTitleStyle.Render(label)
}

func (m Model) renderConversationPanel(width, height int) string {
	st := m.session.Snapshot()

	var footer []string
	if st.Error != "" {
		footer = append(footer, ui.ErrorStyle.Render("! ")+ui.ErrorTextStyle.Render(st.Error))
	}
	if st.Loading {
		footer = append(footer, m.spinner.View()+ui.DimStyle.Render(" Thinking..."))
	}
	footer = append(footer, m.input.View())

	bodyH := max(1, height-1-len(footer))
	var body []string
	if len(st.Messages) == 0 {
		body = append(body, "")
		body = append(body, ui.DimStyle.Render("  Ask a question about your meetings."))
		body = append(body, ui.DimStyle.Render("  Answers cite moments like [Title @ 1:23]."))
	} else {
		lastAssistant := -1
		for i, msg := range st.Messages {
			if msg.Role == chat.RoleAssistant {
				lastAssistant = i
			}
		}
		for i, msg := range st.Messages {
			active := -1
			if i == lastAssistant {
				active = m.citationCursor
			}
			body = append(body, renderMessage(msg, width-2, active)...)
			body = append(body, "")
		}
		if len(body) > bodyH {
			body = body[len(body)-bodyH:]
		}
	}
	for len(body) < bodyH {
		body = append(body, "")
	}

	lines := []string{m.panelTitle(fmt.Sprintf("CONVERSATION (%d)", len(st.Messages)), FocusConversation)}
	lines = append(lines, body...)
	lines = append(lines, footer...)
	return strings.Join(lines, "\n")
}

// renderMessage lays out one message. active is the index of the navigable
// citation to highlight, or -1.
func renderMessage(msg chat.Message, width, active int) []string {
	var label string
	if msg.Role == chat.RoleUser {
		label = ui.UserLabelStyle.Render("You")
	} else {
		label = ui.AssistantLabelStyle.Render("Assistant")
	}
	if !msg.Timestamp.IsZero() {
		label += ui.TimestampStyle.Render(" " + msg.Timestamp.Local().Format("15:04"))
	}

	var spans []span
	nav := 0
	for _, seg := range citation.Extract(msg.Content, msg.Citations) {
		switch {
		case seg.Kind == citation.KindText:
			spans = append(spans, span{text: seg.Raw})
		case seg.Navigable():
			style := ui.CitationStyle
			if nav == active {
				style = ui.CitationActiveStyle
			}
			spans = append(spans, span{text: seg.Raw, style: style, styled: true, atomic: true})
			nav++
		default:
			spans = append(spans, span{text: seg.Raw, style: ui.CitationDeadStyle, styled: true, atomic: true})
		}
	}

	lines := []string{label}
	for _, l := range wrapSpans(spans, max(10, width-2)) {
		lines = append(lines, "  "+l)
	}
	return lines
}

func (m Model) renderResultsPanel(width, height int) string {
	items := m.results.Results()
	header := m.panelTitle("RESULTS", FocusResults) + " " + ui.CountBadgeStyle.Render(fmt.Sprintf("%d", len(items)))

	lines := []string{header}
	if len(items) == 0 {
		lines = append(lines, "")
		lines = append(lines, ui.DimStyle.Render("  Cited moments and"))
		lines = append(lines, ui.DimStyle.Render("  search hits collect here"))
		return strings.Join(lines, "\n")
	}

	selected, hasSelected := m.results.Selected()
	const perItem = 2
	visible := max(1, (height-1)/perItem)
	start := 0
	if m.resultCursor >= visible {
		start = m.resultCursor - visible + 1
	}
	end := min(len(items), start+visible)

	for i := start; i < end; i++ {
		it := items[i]
		cursor := "  "
		if i == m.resultCursor && m.focusedPanel == FocusResults {
			cursor = ui.SelectedStyle.Render("> ")
		}
		open := " "
		if hasSelected && selected.ID == it.ID {
			open = ui.SelectedStyle.Render("●")
		}

		var title, detail string
		switch it.Type {
		case workspace.KindDocument:
			title = ui.DocumentBadgeStyle.Render("[doc] ") + it.DocumentTitle
			detail = "Generated document"
		default:
			name := it.VideoTitle
			if name == "" {
				name = "Untitled"
			}
			title = name + ui.TimestampStyle.Render(" @ "+timestamp.Format(it.Timestamp))
			detail = strings.Join(strings.Fields(it.Text), " ")
			if it.RecordingDate != "" {
				detail = it.RecordingDate + "  " + detail
			}
		}
		if i == m.resultCursor && m.focusedPanel == FocusResults {
			title = ui.SelectedStyle.Render(title)
		}
		lines = append(lines, cursor+open+" "+title)
		lines = append(lines, "    "+ui.DimStyle.Render(truncateToWidth(detail, max(1, width-4))))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderContentPanel(width, height int) string {
	item, _ := m.pane.Selected()
	bodyH := height - 1

	var title string
	var body []string
	switch m.pane.State() {
	case content.StateEmpty:
		title = "CONTENT"
		body = []string{"", ui.DimStyle.Render("  Select a result to view it")}

	case content.StateVideoLoading:
		title = "VIDEO"
		body = []string{"", "  " + m.spinner.View() + ui.DimStyle.Render(" Loading transcript...")}

	case content.StateVideoReady:
		title = "VIDEO " + item.VideoTitle
		body = m.renderTranscript(width, bodyH)

	case content.StateDocumentLoading:
		title = "DOCUMENT"
		body = []string{"", "  " + m.spinner.View() + ui.DimStyle.Render(" Loading document...")}

	case content.StateDocumentReady:
		title = "DOCUMENT " + item.DocumentTitle
		body = m.renderDocument(width, bodyH)
	}

	lines := []string{m.panelTitle(title, FocusContent)}
	lines = append(lines, body...)
	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderTranscript(width, height int) []string {
	segs := m.pane.Segments()
	if len(segs) == 0 {
		return []string{"", ui.DimStyle.Render("  No transcript available")}
	}
	active, hasActive := m.pane.ActiveSegment()

	const prefixWidth = 10
	textWidth := max(10, width-prefixWidth)
	indent := strings.Repeat(" ", prefixWidth)

	var lines []string
	firstLine := make([]int, len(segs))
	for i, s := range segs {
		firstLine[i] = len(lines)

		cursor := "  "
		if i == m.segmentCursor && m.focusedPanel == FocusContent {
			cursor = ui.SelectedStyle.Render("> ")
		}
		ts := ui.TimestampStyle.Render(fmt.Sprintf("%-7s", timestamp.Format(s.StartTime)))

		text := s.Text
		if s.Speaker != nil && *s.Speaker != "" {
			text = *s.Speaker + ": " + text
		}
		wrapped := wrapText(text, textWidth)
		for j, wl := range wrapped {
			if hasActive && i == active {
				wl = ui.ActiveSegmentStyle.Render(wl)
			}
			if j == 0 {
				lines = append(lines, cursor+ts+" "+wl)
			} else {
				lines = append(lines, indent+wl)
			}
		}
	}

	start := 0
	if m.segmentCursor < len(firstLine) {
		start = max(0, firstLine[m.segmentCursor]-height/3)
	}
	start = min(start, max(0, len(lines)-height))
	end := min(len(lines), start+height)
	return lines[start:end]
}

func (m Model) renderDocument(width, height int) []string {
	lines := m.documentLines(width)
	if lines == nil {
		return []string{"", ui.DimStyle.Render("  Document unavailable")}
	}
	start := min(m.docScroll, max(0, len(lines)-height))
	end := min(len(lines), start+height)
	return lines[start:end]
}

// maxDocScroll is the largest scroll offset that still fills the content
// panel body.
func (m Model) maxDocScroll() int {
	return max(0, len(m.documentLines(m.contentPanelWidth()))-(m.panelHeight()-1))
}

// documentLines lays out the loaded document at width. It returns nil when
// no document is available.
func (m Model) documentLines(width int) []string {
	doc := m.pane.Document()
	if doc == nil {
		return nil
	}

	textWidth := max(10, width-2)
	var lines []string
	for _, b := range document.Blocks(doc.Content) {
		switch b.Kind {
		case document.BlockHeading:
			for _, wl := range wrapText(strings.Repeat("#", b.Level)+" "+b.Text, textWidth) {
				lines = append(lines, " "+ui.HeadingStyle.Render(wl))
			}
		case document.BlockListItem:
			pad := strings.Repeat("  ", max(0, b.Level-1))
			for j, wl := range wrapText(b.Text, max(5, textWidth-len(pad)-2)) {
				bullet := "  "
				if j == 0 {
					bullet = "• "
				}
				lines = append(lines, " "+pad+bullet+wl)
			}
			continue
		case document.BlockCode:
			for _, cl := range strings.Split(b.Text, "\n") {
				lines = append(lines, "   "+ui.CodeStyle.Render(cl))
			}
		case document.BlockQuote:
			for _, wl := range wrapText(b.Text, textWidth-2) {
				lines = append(lines, " "+ui.DimStyle.Render("│ "+wl))
			}
		case document.BlockRow:
			lines = append(lines, " "+b.Text)
			continue
		default:
			for _, wl := range wrapText(b.Text, textWidth) {
				lines = append(lines, " "+wl)
			}
		}
		lines = append(lines, "")
	}
	if lines == nil {
		lines = []string{}
	}
	return lines
}

func (m Model) renderErrorBar() string {
	return ui.ErrorStyle.Render("Error: ") + ui.ErrorTextStyle.Render(m.errorMessage)
}

func (m Model) renderFooter() string {
	key := func(k, desc string) string {
		return ui.FooterKeyStyle.Render(k) + ui.FooterDescStyle.Render(" "+desc)
	}

	var parts []string
	switch m.focusedPanel {
	case FocusConversation:
		parts = append(parts, key("Enter", "Send"), key("Ctrl+O", "Citation"), key("Esc", "Results"))
	case FocusResults:
		parts = append(parts, key("j/k", "Nav"), key("Enter", "Open"), key("c", "Citation"))
	case FocusContent:
		switch m.pane.State() {
		case content.StateVideoReady:
			parts = append(parts, key("Space", "Play"), key("j/k", "Nav"), key("Enter", "Seek"), key("←→", "10s"), key("o", "Player"))
		case content.StateDocumentReady:
			parts = append(parts, key("j/k", "Scroll"), key("s", "Save"))
		}
	}
	parts = append(parts, key("Tab", "Focus"))
	if m.focusedPanel == FocusConversation {
		parts = append(parts, key("Ctrl+C", "Quit"))
	} else {
		parts = append(parts, key("q", "Quit"))
	}
	return truncateToWidth(strings.Join(parts, "  "), m.width)
}

// Helpers

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func padRight(s string, width int) string {
	// Get visible length (ignoring ANSI codes)
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func truncateToWidth(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			if current == "" {
				current = word
			} else if len(current)+1+len(word) <= width {
				current += " " + word
			} else {
				lines = append(lines, current)
				current = word
			}
		}
		lines = append(lines, current)
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

// span is a run of message text. Atomic spans are never split across lines.
type span struct {
	text   string
	style  lipgloss.Style
	styled bool
	atomic bool
}

func (s span) render(text string) string {
	if s.styled {
		return s.style.Render(text)
	}
	return text
}

// wrapSpans word-wraps mixed plain and styled spans to width visible
// columns. Newlines in text spans force a break.
func wrapSpans(spans []span, width int) []string {
	var (
		lines   []string
		cur     strings.Builder
		curW    int
		spacing bool
	)
	flush := func() {
		lines = append(lines, cur.String())
		cur.Reset()
		curW = 0
		spacing = false
	}
	put := func(word, rendered string) {
		w := lipgloss.Width(word)
		sep := 0
		if spacing && curW > 0 {
			sep = 1
		}
		// Words with no space before them stay glued to the previous one.
		if sep == 1 && curW+sep+w > width {
			flush()
			sep = 0
		}
		if sep == 1 {
			cur.WriteByte(' ')
			curW++
		}
		cur.WriteString(rendered)
		curW += w
		spacing = false
	}

	for _, sp := range spans {
		if sp.atomic {
			put(sp.text, sp.render(sp.text))
			continue
		}
		s := sp.text
		for i := 0; i < len(s); {
			switch s[i] {
			case '\n':
				flush()
				i++
			case ' ', '\t', '\r':
				spacing = true
				i++
			default:
				j := i
				for j < len(s) && !strings.ContainsRune(" \t\r\n", rune(s[j])) {
					j++
				}
				put(s[i:j], sp.render(s[i:j]))
				i = j
			}
		}
	}
	if cur.Len() > 0 || len(lines) == 0 {
		flush()
	}
	return lines
}

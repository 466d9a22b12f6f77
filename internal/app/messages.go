package app

import (
	"github.com/georgeLochner/whedifaqaui/internal/api"
	"github.com/georgeLochner/whedifaqaui/internal/chat"
)

// ChatReplyMsg is sent when a chat turn completes. Err is set when the
// backend call failed; the session already recorded it.
type ChatReplyMsg struct {
	Request string
	Reply   chat.Message
	Err     error
}

// SearchResultsMsg carries the hits for a /search query.
type SearchResultsMsg struct {
	Query   string
	Results []api.SearchResult
	Err     error
}

// DocumentGeneratedMsg is sent when summary generation produced a document.
type DocumentGeneratedMsg struct {
	Document api.DocumentResponse
}

// ContentLoadedMsg is sent when a content pane fetch finished. Applied is
// false when a newer selection superseded it.
type ContentLoadedMsg struct {
	Applied bool
}

// PlaybackTickMsg advances the playback clock.
type PlaybackTickMsg struct {
	Gen uint64
}

// PlayerExitedMsg is sent when the external player could not start or exits.
type PlayerExitedMsg struct {
	Err error
}

// DocumentSavedMsg reports a document download to disk.
type DocumentSavedMsg struct {
	Path  string
	Bytes int64
	Err   error
}

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct{}

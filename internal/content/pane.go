// Package content resolves the selected workspace result into something
// viewable: a transcript synced to a playback clock, or a document body.
package content

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"

	"github.com/georgeLochner/whedifaqaui/internal/api"
	"github.com/georgeLochner/whedifaqaui/internal/workspace"
)

// State is where the pane is in resolving the selection.
type State int

const (
	StateEmpty State = iota
	StateVideoLoading
	StateVideoReady
	StateDocumentLoading
	StateDocumentReady
)

func (s State) String() string {
	switch s {
	case StateVideoLoading:
		return "video-loading"
	case StateVideoReady:
		return "video-ready"
	case StateDocumentLoading:
		return "document-loading"
	case StateDocumentReady:
		return "document-ready"
	}
	return "empty"
}

// Loader fetches the detail behind a result.
type Loader interface {
	GetTranscript(ctx context.Context, videoID string) (*api.TranscriptResponse, error)
	GetDocument(ctx context.Context, id string) (*api.DocumentDetail, error)
}

// Fetch is a pending load for one selection. It is only applied while its
// generation is still the pane's current one.
type Fetch struct {
	gen  uint64
	kind workspace.Kind
	id   string
}

// Options tunes the pane's fetch cache.
type Options struct {
	CacheSize int
	CacheTTL  time.Duration
}

// Pane holds the content view state. It is safe for concurrent use.
type Pane struct {
	loader      Loader
	transcripts *expirable.LRU[string, []api.TranscriptSegment]
	documents   *expirable.LRU[string, *api.DocumentDetail]

	mu          sync.Mutex
	gen         uint64
	selected    *workspace.ResultItem
	state       State
	segments    []api.TranscriptSegment
	document    *api.DocumentDetail
	currentTime float64
	seek        *float64
}

// New returns an empty pane.
func New(loader Loader, opts Options) *Pane {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 32
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	return &Pane{
		loader:      loader,
		transcripts: expirable.NewLRU[string, []api.TranscriptSegment](opts.CacheSize, nil, opts.CacheTTL),
		documents:   expirable.NewLRU[string, *api.DocumentDetail](opts.CacheSize, nil, opts.CacheTTL),
	}
}

// Select switches the pane to item. A change of selection supersedes any
// fetch still in flight and, for video items, queues a seek to the item's
// timestamp. The returned Fetch must be passed to Load when ok is true;
// cached content is shown immediately without one. Selecting the current
// item again changes nothing.
func (p *Pane) Select(item workspace.ResultItem) (Fetch, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.selected != nil && p.selected.ID == item.ID && p.selected.Type == item.Type {
		return Fetch{}, false
	}

	p.gen++
	p.selected = &item
	p.segments = nil
	p.document = nil

	switch {
	case item.Type == workspace.KindVideo && item.VideoID != "":
		ts := item.Timestamp
		p.seek = &ts
		p.currentTime = ts
		if segs, ok := p.transcripts.Get(item.VideoID); ok {
			p.segments = segs
			p.state = StateVideoReady
			return Fetch{}, false
		}
		p.state = StateVideoLoading
		return Fetch{gen: p.gen, kind: workspace.KindVideo, id: item.VideoID}, true

	case item.Type == workspace.KindDocument && item.DocumentID != "":
		p.seek = nil
		if doc, ok := p.documents.Get(item.DocumentID); ok {
			p.document = doc
			p.state = StateDocumentReady
			return Fetch{}, false
		}
		p.state = StateDocumentLoading
		return Fetch{gen: p.gen, kind: workspace.KindDocument, id: item.DocumentID}, true
	}

	p.seek = nil
	p.state = StateEmpty
	return Fetch{}, false
}

// Load runs f and applies its result if no newer selection has been made
// since. It reports whether the result was applied. Failures leave the pane
// ready with no content.
func (p *Pane) Load(ctx context.Context, f Fetch) bool {
	switch f.kind {
	case workspace.KindVideo:
		var segs []api.TranscriptSegment
		resp, err := p.loader.GetTranscript(ctx, f.id)
		if err != nil {
			log.Debug().Err(err).Str("video_id", f.id).Msg("transcript fetch failed")
		} else {
			segs = resp.Segments
			p.transcripts.Add(f.id, segs)
		}
		return p.apply(f, func() {
			p.segments = segs
			p.state = StateVideoReady
		})

	case workspace.KindDocument:
		doc, err := p.loader.GetDocument(ctx, f.id)
		if err != nil {
			log.Debug().Err(err).Str("document_id", f.id).Msg("document fetch failed")
			doc = nil
		} else {
			p.documents.Add(f.id, doc)
		}
		return p.apply(f, func() {
			p.document = doc
			p.state = StateDocumentReady
		})
	}
	return false
}

func (p *Pane) apply(f Fetch, fn func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if f.gen != p.gen {
		log.Debug().Uint64("gen", f.gen).Uint64("current", p.gen).Msg("discarding stale fetch")
		return false
	}
	fn()
	return true
}

// State returns the pane's resolution state.
func (p *Pane) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Selected returns the item the pane shows.
func (p *Pane) Selected() (workspace.ResultItem, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selected == nil {
		return workspace.ResultItem{}, false
	}
	return *p.selected, true
}

// Segments returns the loaded transcript.
func (p *Pane) Segments() []api.TranscriptSegment {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.segments
}

// Document returns the loaded document, nil when none is available.
func (p *Pane) Document() *api.DocumentDetail {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.document
}

// CurrentTime returns the playback position in seconds.
func (p *Pane) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentTime
}

// SetCurrentTime records the playback position reported by the player.
func (p *Pane) SetCurrentTime(t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentTime = t
}

// ActiveSegment returns the index of the segment containing the current
// playback position.
func (p *Pane) ActiveSegment() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ActiveSegment(p.segments, p.currentTime)
}

// ClickSegment moves playback to the start of segment i.
func (p *Pane) ClickSegment(i int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.segments) {
		return false
	}
	start := p.segments[i].StartTime
	p.currentTime = start
	p.seek = &start
	return true
}

// TakeSeek returns the queued seek target once; later calls report false
// until another seek is queued.
func (p *Pane) TakeSeek() (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seek == nil {
		return 0, false
	}
	t := *p.seek
	p.seek = nil
	return t, true
}

// ActiveSegment finds the segment whose [start, end) interval contains t.
func ActiveSegment(segs []api.TranscriptSegment, t float64) (int, bool) {
	for i, s := range segs {
		if s.Contains(t) {
			return i, true
		}
	}
	return -1, false
}

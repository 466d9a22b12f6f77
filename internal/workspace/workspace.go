// Package workspace accumulates the results a user collects while chatting:
// cited video moments, search hits and generated documents.
package workspace

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/georgeLochner/whedifaqaui/internal/api"
	"github.com/georgeLochner/whedifaqaui/internal/store"
)

// ResultsKey is where results are persisted.
const ResultsKey = "workspace-results"

// Kind is the type of a result item.
type Kind string

const (
	KindVideo    Kind = "video"
	KindDocument Kind = "document"
)

// ResultItem points at a video moment or a generated document. ID is the
// dedupe key: "<videoId>-<floor(timestamp)>" for videos, the document id
// for documents.
type ResultItem struct {
	ID            string  `json:"id"`
	Type          Kind    `json:"type"`
	VideoID       string  `json:"videoId,omitempty"`
	VideoTitle    string  `json:"videoTitle,omitempty"`
	Timestamp     float64 `json:"timestamp,omitempty"`
	Text          string  `json:"text,omitempty"`
	DocumentID    string  `json:"documentId,omitempty"`
	DocumentTitle string  `json:"documentTitle,omitempty"`
	RecordingDate string  `json:"recordingDate,omitempty"`
}

// VideoKey is the dedupe key of a video moment. Timestamps in the same whole
// second collapse to one key.
func VideoKey(videoID string, ts float64) string {
	return fmt.Sprintf("%s-%d", videoID, int64(math.Floor(ts)))
}

// FromCitation maps a citation to a video result.
func FromCitation(c api.Citation) ResultItem {
	return ResultItem{
		ID:         VideoKey(c.VideoID, c.Timestamp),
		Type:       KindVideo,
		VideoID:    c.VideoID,
		VideoTitle: c.VideoTitle,
		Timestamp:  c.Timestamp,
		Text:       c.Text,
	}
}

// FromSearchHit maps a search hit to a video result at the segment start.
func FromSearchHit(h api.SearchResult) ResultItem {
	return ResultItem{
		ID:         VideoKey(h.VideoID, h.StartTime),
		Type:       KindVideo,
		VideoID:    h.VideoID,
		VideoTitle: h.VideoTitle,
		Timestamp:  h.StartTime,
		Text:       h.Text,
	}
}

// Store is the ordered, deduplicated result list plus the single selected
// item. Results are append-only and persisted after every change; the
// selection lives only in memory.
type Store struct {
	storage store.Storage

	mu       sync.Mutex
	results  []ResultItem
	selected *ResultItem
}

// New returns a store restored from storage.
func New(storage store.Storage) *Store {
	s := &Store{storage: storage}
	if storage == nil {
		return s
	}
	raw, ok, err := storage.Load(ResultsKey)
	if err != nil {
		log.Warn().Err(err).Msg("load workspace results")
		return s
	}
	if ok {
		if err := json.Unmarshal(raw, &s.results); err != nil {
			log.Warn().Err(err).Msg("decode workspace results, starting empty")
			s.results = nil
		}
	}
	return s
}

// AddResult adds the citation's moment unless its key is already present.
func (s *Store) AddResult(c api.Citation) int {
	return s.add([]ResultItem{FromCitation(c)})
}

// AddResults adds every new moment in order. Duplicates inside the batch
// collapse to their first occurrence. It returns how many were added.
func (s *Store) AddResults(cs []api.Citation) int {
	items := make([]ResultItem, 0, len(cs))
	for _, c := range cs {
		items = append(items, FromCitation(c))
	}
	return s.add(items)
}

// AddSearchHits adds search hits under the same key discipline.
func (s *Store) AddSearchHits(hits []api.SearchResult) int {
	items := make([]ResultItem, 0, len(hits))
	for _, h := range hits {
		items = append(items, FromSearchHit(h))
	}
	return s.add(items)
}

// AddDocumentResult adds a document unless its id is already present.
func (s *Store) AddDocumentResult(id, title string) int {
	return s.add([]ResultItem{{
		ID:            id,
		Type:          KindDocument,
		DocumentID:    id,
		DocumentTitle: title,
	}})
}

func (s *Store) add(items []ResultItem) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(s.results)+len(items))
	for _, r := range s.results {
		seen[r.ID] = true
	}
	added := 0
	for _, it := range items {
		if seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		s.results = append(s.results, it)
		added++
	}
	if added > 0 {
		s.persistLocked()
	}
	return added
}

func (s *Store) persistLocked() {
	if s.storage == nil {
		return
	}
	data, err := json.Marshal(s.results)
	if err != nil {
		log.Error().Err(err).Msg("encode workspace results")
		return
	}
	if err := s.storage.Save(ResultsKey, data); err != nil {
		log.Error().Err(err).Msg("save workspace results")
	}
}

// Select makes item the open result. It need not be one of Results.
func (s *Store) Select(item ResultItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = &item
}

// Selected returns the open result, if any.
func (s *Store) Selected() (ResultItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return ResultItem{}, false
	}
	return *s.selected, true
}

// Results returns a copy of the result list in insertion order.
func (s *Store) Results() []ResultItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ResultItem(nil), s.results...)
}

// Len returns the number of results.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

package workspace

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/georgeLochner/whedifaqaui/internal/api"
	"github.com/georgeLochner/whedifaqaui/internal/store"
)

func TestAddResultsCollapsesSameSecondInBatch(t *testing.T) {
	s := New(store.NewMemory())

	added := s.AddResults([]api.Citation{
		{VideoID: "v1", VideoTitle: "Sync", Timestamp: 100, Text: "first"},
		{VideoID: "v1", VideoTitle: "Sync", Timestamp: 100.9, Text: "second"},
	})
	require.Equal(t, 1, added)

	results := s.Results()
	require.Len(t, results, 1)
	require.Equal(t, "v1-100", results[0].ID)
	require.Equal(t, "first", results[0].Text, "first occurrence wins")
}

func TestAddResultNeverGrowsForExistingKey(t *testing.T) {
	s := New(store.NewMemory())

	s.AddResult(api.Citation{VideoID: "v1", Timestamp: 42.2, Text: "original"})
	before := s.Len()
	s.AddResult(api.Citation{VideoID: "v1", Timestamp: 42.8, Text: "different snippet"})

	require.Equal(t, before, s.Len())
	require.Equal(t, "original", s.Results()[0].Text, "existing items are never updated")
}

func TestAddResultsKeepsInsertionOrder(t *testing.T) {
	s := New(store.NewMemory())
	s.AddResult(api.Citation{VideoID: "b", Timestamp: 5})
	s.AddResults([]api.Citation{
		{VideoID: "a", Timestamp: 1},
		{VideoID: "b", Timestamp: 5.5},
		{VideoID: "c", Timestamp: 2},
	})

	var ids []string
	for _, r := range s.Results() {
		ids = append(ids, r.ID)
	}
	require.Equal(t, []string{"b-5", "a-1", "c-2"}, ids)
}

func TestAddDocumentResultDedupesByID(t *testing.T) {
	s := New(store.NewMemory())
	require.Equal(t, 1, s.AddDocumentResult("doc-1", "Summary"))
	require.Equal(t, 0, s.AddDocumentResult("doc-1", "Summary v2"))

	r := s.Results()[0]
	require.Equal(t, KindDocument, r.Type)
	require.Equal(t, "doc-1", r.DocumentID)
	require.Equal(t, "Summary", r.DocumentTitle)
}

func TestAddSearchHitsUsesSegmentStart(t *testing.T) {
	s := New(store.NewMemory())
	s.AddResult(api.Citation{VideoID: "v1", Timestamp: 61.4})
	added := s.AddSearchHits([]api.SearchResult{
		{VideoID: "v1", VideoTitle: "Plan", StartTime: 61.0, Text: "dup"},
		{VideoID: "v1", VideoTitle: "Plan", StartTime: 90.0, Text: "new"},
	})
	require.Equal(t, 1, added)
	require.Equal(t, "v1-90", s.Results()[1].ID)
}

func TestSelectAllowsNonMembers(t *testing.T) {
	s := New(store.NewMemory())
	_, ok := s.Selected()
	require.False(t, ok)

	outsider := ResultItem{ID: "x-1", Type: KindVideo, VideoID: "x", Timestamp: 1}
	s.Select(outsider)
	got, ok := s.Selected()
	require.True(t, ok)
	require.Equal(t, outsider, got)
	require.Zero(t, s.Len())
}

func TestResultsPersistButSelectionDoesNot(t *testing.T) {
	mem := store.NewMemory()
	s := New(mem)
	s.AddResult(api.Citation{VideoID: "v1", VideoTitle: "Kickoff", Timestamp: 12})
	s.AddDocumentResult("d1", "Notes")
	s.Select(s.Results()[0])

	reloaded := New(mem)
	require.Equal(t, s.Results(), reloaded.Results())
	_, ok := reloaded.Selected()
	require.False(t, ok)
}

func TestCorruptResultsStartEmpty(t *testing.T) {
	mem := store.NewMemory()
	mem.Save(ResultsKey, []byte("[{"))
	require.Zero(t, New(mem).Len())
}

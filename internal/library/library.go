// Package library filters and orders the video library listing.
package library

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/georgeLochner/whedifaqaui/internal/api"
)

// StatusFilter selects videos by pipeline status.
type StatusFilter string

const (
	FilterAll        StatusFilter = "all"
	FilterReady      StatusFilter = "ready"
	FilterProcessing StatusFilter = "processing"
	FilterError      StatusFilter = "error"
)

// SortBy orders the listing.
type SortBy string

const (
	SortDate  SortBy = "date"
	SortTitle SortBy = "title"
)

// ParseStatusFilter accepts the filter names shown to users.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch f := StatusFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterReady, FilterProcessing, FilterError:
		return f, nil
	}
	return "", fmt.Errorf("unknown status filter %q (want all, ready, processing or error)", s)
}

// ParseSortBy accepts the sort names shown to users.
func ParseSortBy(s string) (SortBy, error) {
	switch b := SortBy(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return SortDate, nil
	case SortDate, SortTitle:
		return b, nil
	}
	return "", fmt.Errorf("unknown sort %q (want date or title)", s)
}

// Filter returns the videos whose status matches f, in their original order.
func Filter(videos []api.Video, f StatusFilter) []api.Video {
	out := make([]api.Video, 0, len(videos))
	for _, v := range videos {
		if f == FilterAll || f == "" || string(v.Status) == string(f) {
			out = append(out, v)
		}
	}
	return out
}

// Sort returns a sorted copy. Dates sort newest first with undated videos
// last; titles sort ascending in locale order.
func Sort(videos []api.Video, by SortBy) []api.Video {
	out := slices.Clone(videos)
	switch by {
	case SortTitle:
		col := collate.New(language.English, collate.IgnoreCase)
		slices.SortStableFunc(out, func(a, b api.Video) int {
			return col.CompareString(a.Title, b.Title)
		})
	default:
		slices.SortStableFunc(out, func(a, b api.Video) int {
			return strings.Compare(b.RecordingDateOr(""), a.RecordingDateOr(""))
		})
	}
	return out
}

// List applies Filter then Sort.
func List(videos []api.Video, f StatusFilter, by SortBy) []api.Video {
	return Sort(Filter(videos, f), by)
}

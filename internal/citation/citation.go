// Package citation finds "[Title @ M:SS]" markers in assistant replies and
// binds each one to the citation record it refers to.
package citation

import (
	"math"
	"strings"
	"unicode"

	"github.com/georgeLochner/whedifaqaui/internal/api"
	"github.com/georgeLochner/whedifaqaui/internal/timestamp"
)

// Tolerance is how far, in seconds, a marker's time may be from a known
// citation's timestamp and still refer to it.
const Tolerance = 2.0

// Kind tells text spans from citation markers.
type Kind int

const (
	KindText Kind = iota
	KindCitation
)

// Segment is one piece of a split message. Raw is the exact input text the
// segment covers; Citation is set only for KindCitation.
type Segment struct {
	Kind     Kind
	Raw      string
	Citation api.Citation
}

// Navigable reports whether the segment is a citation that can be opened.
// Markers with no matching record carry no video id.
func (s Segment) Navigable() bool {
	return s.Kind == KindCitation && s.Citation.VideoID != ""
}

// Extract splits text into literal spans and citation markers, in order.
// Joining every segment's Raw reproduces text exactly.
func Extract(text string, known []api.Citation) []Segment {
	var out []Segment
	last := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '[' {
			continue
		}
		m, ok := scanMarker(text, i)
		if !ok {
			continue
		}
		if i > last {
			out = append(out, Segment{Kind: KindText, Raw: text[last:i]})
		}
		out = append(out, Segment{
			Kind:     KindCitation,
			Raw:      m.raw,
			Citation: resolve(m, known),
		})
		last = m.end
		i = m.end - 1
	}
	if last < len(text) {
		out = append(out, Segment{Kind: KindText, Raw: text[last:]})
	}
	return out
}

// Citations returns only the citation segments' records.
func Citations(segs []Segment) []api.Citation {
	var out []api.Citation
	for _, s := range segs {
		if s.Kind == KindCitation {
			out = append(out, s.Citation)
		}
	}
	return out
}

type marker struct {
	title   string
	seconds int
	raw     string
	end     int
}

// scanMarker reads '[' title '@' ws* digits ':' digit digit ']' starting at
// text[start] == '['. The body runs to the first ']'; the title is
// everything before the last '@' in it. A title that is empty or only
// whitespace, as in "[ @ 5:48]", is not a marker and stays plain text.
func scanMarker(text string, start int) (marker, bool) {
	closeRel := strings.IndexByte(text[start+1:], ']')
	if closeRel < 0 {
		return marker{}, false
	}
	end := start + 1 + closeRel
	body := text[start+1 : end]

	at := strings.LastIndexByte(body, '@')
	if at < 0 {
		return marker{}, false
	}
	title := strings.TrimRightFunc(body[:at], unicode.IsSpace)
	if strings.TrimSpace(title) == "" {
		return marker{}, false
	}

	clock := strings.TrimLeftFunc(body[at+1:], unicode.IsSpace)
	if !isClock(clock) {
		return marker{}, false
	}
	secs, err := timestamp.Parse(clock)
	if err != nil {
		return marker{}, false
	}
	return marker{
		title:   title,
		seconds: secs,
		raw:     text[start : end+1],
		end:     end + 1,
	}, true
}

// isClock matches digits ':' digit digit with nothing around it.
func isClock(s string) bool {
	colon := strings.IndexByte(s, ':')
	if colon < 1 || len(s)-colon-1 != 2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if i == colon {
			continue
		}
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func resolve(m marker, known []api.Citation) api.Citation {
	at := float64(m.seconds)
	for _, c := range known {
		if c.VideoTitle == m.title && math.Abs(c.Timestamp-at) < Tolerance {
			return c
		}
	}
	return api.Citation{
		VideoTitle: m.title,
		Timestamp:  at,
		Text:       m.raw,
	}
}

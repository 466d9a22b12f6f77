// Package api provides the client and wire types for the whedifaqaui REST
// backend. Field names follow the backend's snake_case JSON.
package api

// Status is a video's position in the processing pipeline.
type Status string

const (
	StatusUploaded     Status = "uploaded"
	StatusProcessing   Status = "processing"
	StatusTranscribing Status = "transcribing"
	StatusChunking     Status = "chunking"
	StatusIndexing     Status = "indexing"
	StatusReady        Status = "ready"
	StatusError        Status = "error"
)

// Terminal reports whether the pipeline has stopped for this status.
func (s Status) Terminal() bool {
	return s == StatusReady || s == StatusError
}

// Video is an uploaded recording.
type Video struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	FilePath      string   `json:"file_path"`
	ProcessedPath *string  `json:"processed_path"`
	ThumbnailPath *string  `json:"thumbnail_path"`
	Duration      *float64 `json:"duration"`
	RecordingDate *string  `json:"recording_date"`
	Participants  []string `json:"participants"`
	ContextNotes  *string  `json:"context_notes"`
	Status        Status   `json:"status"`
	ErrorMessage  *string  `json:"error_message"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

// RecordingDateOr returns the recording date or def when unknown.
func (v Video) RecordingDateOr(def string) string {
	if v.RecordingDate == nil || *v.RecordingDate == "" {
		return def
	}
	return *v.RecordingDate
}

// VideoStatus is the lightweight status poll response.
type VideoStatus struct {
	ID           string  `json:"id"`
	Status       Status  `json:"status"`
	ErrorMessage *string `json:"error_message"`
}

// VideoListResponse is a page of the library.
type VideoListResponse struct {
	Videos []Video `json:"videos"`
	Total  int     `json:"total"`
}

// TranscriptSegment is one timed span of a transcript. The interval is
// half-open: [StartTime, EndTime).
type TranscriptSegment struct {
	ID                 string  `json:"id"`
	StartTime          float64 `json:"start_time"`
	EndTime            float64 `json:"end_time"`
	Text               string  `json:"text"`
	Speaker            *string `json:"speaker"`
	TimestampFormatted string  `json:"timestamp_formatted"`
}

// Contains reports whether t falls inside the segment.
func (s TranscriptSegment) Contains(t float64) bool {
	return s.StartTime <= t && t < s.EndTime
}

// TranscriptResponse carries every segment of one video.
type TranscriptResponse struct {
	VideoID  string              `json:"video_id"`
	Segments []TranscriptSegment `json:"segments"`
	Count    int                 `json:"count"`
}

// Citation points at a moment in a video that backs an assistant answer.
type Citation struct {
	VideoID    string  `json:"video_id"`
	VideoTitle string  `json:"video_title"`
	Timestamp  float64 `json:"timestamp"`
	Text       string  `json:"text"`
}

// ChatRequest is sent to POST /chat. ConversationID is omitted until the
// first response has assigned one.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// ChatResponse is the assistant's reply.
type ChatResponse struct {
	Message        string     `json:"message"`
	ConversationID string     `json:"conversation_id"`
	Citations      []Citation `json:"citations"`
}

// SearchResult is one ranked transcript segment.
type SearchResult struct {
	VideoID            string   `json:"video_id"`
	VideoTitle         string   `json:"video_title"`
	SegmentID          string   `json:"segment_id"`
	StartTime          float64  `json:"start_time"`
	EndTime            float64  `json:"end_time"`
	Text               string   `json:"text"`
	Speaker            *string  `json:"speaker"`
	Score              float64  `json:"score"`
	Highlights         []string `json:"highlights,omitempty"`
	TimestampFormatted string   `json:"timestamp_formatted"`
}

// SearchResponse wraps search hits. Older backends report Total, newer
// ones Count.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Total   int            `json:"total,omitempty"`
	Count   int            `json:"count,omitempty"`
}

// Size returns the reported result count, falling back to len(Results).
func (r SearchResponse) Size() int {
	switch {
	case r.Count > 0:
		return r.Count
	case r.Total > 0:
		return r.Total
	}
	return len(r.Results)
}

// DocumentRequest asks the backend to generate a document.
type DocumentRequest struct {
	Request        string   `json:"request"`
	SourceVideoIDs []string `json:"source_video_ids,omitempty"`
	Format         string   `json:"format,omitempty"`
}

// DocumentResponse is returned after creating a document.
type DocumentResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Preview     string `json:"preview"`
	SourceCount int    `json:"source_count"`
	CreatedAt   string `json:"created_at"`
}

// DocumentDetail is a generated document with its markdown body.
type DocumentDetail struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	SourceVideoIDs []string `json:"source_video_ids"`
	CreatedAt      string   `json:"created_at"`
}

// UploadRequest describes a recording to upload.
type UploadRequest struct {
	FileName      string
	Size          int64
	Title         string
	RecordingDate string
	Participants  string
	ContextNotes  string
}

// HealthStatus reports backend dependencies.
type HealthStatus struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

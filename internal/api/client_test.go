package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api", WithTimeout(5*time.Second))
}

func TestChatOmitsConversationIDWhenUnknown(t *testing.T) {
	var raw map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.Write([]byte(`{"message":"hi","conversation_id":"conv-1","citations":[{"video_id":"v1","video_title":"Standup","timestamp":12.5,"text":"snippet"}]}`))
	})

	resp, err := c.Chat(context.Background(), ChatRequest{Message: "hello"})
	require.NoError(t, err)
	require.Equal(t, "hello", raw["message"])
	_, present := raw["conversation_id"]
	require.False(t, present, "conversation_id must be omitted, not null")
	require.Equal(t, "conv-1", resp.ConversationID)
	require.Len(t, resp.Citations, 1)
	require.Equal(t, 12.5, resp.Citations[0].Timestamp)
}

func TestChatSendsConversationID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "conv-9", req.ConversationID)
		w.Write([]byte(`{"message":"ok","conversation_id":"conv-9","citations":[]}`))
	})

	_, err := c.Chat(context.Background(), ChatRequest{Message: "again", ConversationID: "conv-9"})
	require.NoError(t, err)
}

func TestErrorCarriesDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"detail":"Search service unavailable"}`))
	})

	_, err := c.Search(context.Background(), "budget", 5)
	require.Error(t, err)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	require.Contains(t, err.Error(), "HTTP error: 503: Search service unavailable")
}

func TestErrorWithoutBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetVideo(context.Background(), "missing")
	require.True(t, IsNotFound(err))
	require.Contains(t, err.Error(), "HTTP error: 404")
}

func TestSearchQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/search", r.URL.Path)
		require.Equal(t, "roadmap review", r.URL.Query().Get("q"))
		require.Equal(t, "7", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"count":1,"results":[{"segment_id":"s1","video_id":"v1","video_title":"Plan","text":"the roadmap","start_time":61,"end_time":70,"score":0.9,"timestamp_formatted":"1:01"}]}`))
	})

	resp, err := c.Search(context.Background(), "roadmap review", 7)
	require.NoError(t, err)
	require.Equal(t, 1, resp.Size())
	require.Equal(t, "1:01", resp.Results[0].TimestampFormatted)
}

func TestListVideosDefaults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "0", r.URL.Query().Get("skip"))
		require.Equal(t, "20", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"videos":[{"id":"v1","title":"Kickoff","status":"ready","recording_date":"2024-03-01"}],"total":1}`))
	})

	resp, err := c.ListVideos(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)
	require.Equal(t, StatusReady, resp.Videos[0].Status)
	require.Equal(t, "2024-03-01", resp.Videos[0].RecordingDateOr(""))
}

func TestAllVideosPages(t *testing.T) {
	const total = 130
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		skip := r.URL.Query().Get("skip")
		n := 100
		if skip == "100" {
			n = total - 100
		}
		videos := make([]Video, n)
		for i := range videos {
			videos[i] = Video{ID: skip + "-" + string(rune('a'+i%26)), Status: StatusReady}
		}
		json.NewEncoder(w).Encode(VideoListResponse{Videos: videos, Total: total})
	})

	all, err := c.AllVideos(context.Background())
	require.NoError(t, err)
	require.Len(t, all, total)
	require.Equal(t, int32(2), calls.Load())
}

func TestUploadVideoMultipartAndProgress(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 256*1024)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/videos", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "Sprint Review", r.FormValue("title"))
		require.Equal(t, "2024-03-01", r.FormValue("recording_date"))
		require.Equal(t, "Alice, Bob", r.FormValue("participants"))
		require.Equal(t, "", r.FormValue("context_notes"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		require.Equal(t, "review.mkv", hdr.Filename)
		got, _ := io.ReadAll(f)
		require.Len(t, got, len(payload))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"v42","title":"Sprint Review","status":"uploaded"}`))
	})

	var seen []int
	video, err := c.UploadVideo(context.Background(), UploadRequest{
		FileName:      "review.mkv",
		Size:          int64(len(payload)),
		Title:         "Sprint Review",
		RecordingDate: "2024-03-01",
		Participants:  "Alice, Bob",
	}, bytes.NewReader(payload), func(pct int) { seen = append(seen, pct) })
	require.NoError(t, err)
	require.Equal(t, "v42", video.ID)
	require.NotEmpty(t, seen)
	require.Equal(t, 100, seen[len(seen)-1])
	for i := 1; i < len(seen); i++ {
		require.Greater(t, seen[i], seen[i-1])
	}
}

func TestDownloadDocument(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/documents/d1/download", r.URL.Path)
		w.Header().Set("Content-Type", "text/markdown")
		w.Write([]byte("# Summary\n"))
	})

	var buf bytes.Buffer
	n, err := c.DownloadDocument(context.Background(), "d1", &buf)
	require.NoError(t, err)
	require.EqualValues(t, 10, n)
	require.Equal(t, "# Summary\n", buf.String())
}

func TestMediaURLs(t *testing.T) {
	c := NewClient("http://backend:8000/api/")
	require.Equal(t, "http://backend:8000/api/videos/v1/stream", c.StreamURL("v1"))
	require.Equal(t, "http://backend:8000/api/videos/v1/thumbnail", c.ThumbnailURL("v1"))
}

func TestWaitForStatusStopsOnReady(t *testing.T) {
	statuses := []string{"processing", "processing", "ready"}
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/videos/v1/status"))
		n := atomic.AddInt32(&calls, 1)
		st := statuses[min(int(n), len(statuses))-1]
		w.Write([]byte(`{"id":"v1","status":"` + st + `","error_message":null}`))
	})

	var updates []Status
	st, err := c.WaitForStatus(context.Background(), "v1", 10*time.Millisecond, func(s VideoStatus) {
		updates = append(updates, s.Status)
	})
	require.NoError(t, err)
	require.Equal(t, StatusReady, st.Status)
	require.Equal(t, []Status{StatusProcessing, StatusProcessing, StatusReady}, updates)

	time.Sleep(50 * time.Millisecond)
	require.EqualValues(t, 3, atomic.LoadInt32(&calls), "no status calls after ready")
}

func TestWaitForStatusRetriesFailures(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"id":"v1","status":"error","error_message":"ffmpeg failed"}`))
	})

	st, err := c.WaitForStatus(context.Background(), "v1", 5*time.Millisecond, nil)
	require.NoError(t, err)
	require.Equal(t, StatusError, st.Status)
	require.Equal(t, "ffmpeg failed", *st.ErrorMessage)
}

func TestWaitForStatusCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	_, err := c.WaitForStatus(ctx, "v1", 5*time.Millisecond, nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is where a locally running backend serves its API.
const DefaultBaseURL = "http://localhost:8000/api"

// DefaultTimeout bounds JSON requests unless WithTimeout says otherwise.
const DefaultTimeout = 60 * time.Second

// Error is a non-2xx response from the backend.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("HTTP error: %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("HTTP error: %d", e.StatusCode)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to the backend over HTTP. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every JSON request. Uploads and downloads are bounded
// only by their context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// NewClient returns a client rooted at baseURL, e.g. "http://host:8000/api".
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// Health fetches backend dependency status.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}
	return &out, nil
}

// Chat sends one message to the assistant.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var out ChatResponse
	if err := c.doJSON(ctx, http.MethodPost, "/chat", nil, req, &out); err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}
	return &out, nil
}

// Search runs a transcript search. A limit of zero leaves the backend default.
func (c *Client) Search(ctx context.Context, query string, limit int) (*SearchResponse, error) {
	q := url.Values{"q": {query}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out SearchResponse
	if err := c.doJSON(ctx, http.MethodGet, "/search", q, nil, &out); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return &out, nil
}

// ListVideos returns one page of the library.
func (c *Client) ListVideos(ctx context.Context, skip, limit int) (*VideoListResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	q := url.Values{
		"skip":  {strconv.Itoa(skip)},
		"limit": {strconv.Itoa(limit)},
	}
	var out VideoListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/videos", q, nil, &out); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return &out, nil
}

// AllVideos pages through the whole library.
func (c *Client) AllVideos(ctx context.Context) ([]Video, error) {
	const page = 100
	var all []Video
	for {
		resp, err := c.ListVideos(ctx, len(all), page)
		if err != nil {
			return nil, err
		}
		all = append(all, resp.Videos...)
		if len(resp.Videos) < page || len(all) >= resp.Total {
			return all, nil
		}
	}
}

// GetVideo fetches one video record.
func (c *Client) GetVideo(ctx context.Context, id string) (*Video, error) {
	var out Video
	if err := c.doJSON(ctx, http.MethodGet, "/videos/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("get video %s: %w", id, err)
	}
	return &out, nil
}

// GetVideoStatus fetches the processing status of a video.
func (c *Client) GetVideoStatus(ctx context.Context, id string) (*VideoStatus, error) {
	var out VideoStatus
	if err := c.doJSON(ctx, http.MethodGet, "/videos/"+url.PathEscape(id)+"/status", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("get status %s: %w", id, err)
	}
	return &out, nil
}

// GetTranscript fetches every transcript segment of a video.
func (c *Client) GetTranscript(ctx context.Context, videoID string) (*TranscriptResponse, error) {
	var out TranscriptResponse
	if err := c.doJSON(ctx, http.MethodGet, "/videos/"+url.PathEscape(videoID)+"/transcript", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("get transcript %s: %w", videoID, err)
	}
	return &out, nil
}

// StreamURL is the media URL a player opens for a video.
func (c *Client) StreamURL(videoID string) string {
	return c.baseURL + "/videos/" + url.PathEscape(videoID) + "/stream"
}

// ThumbnailURL is the poster image URL for a video.
func (c *Client) ThumbnailURL(videoID string) string {
	return c.baseURL + "/videos/" + url.PathEscape(videoID) + "/thumbnail"
}

// CreateDocument asks the backend to generate a document.
func (c *Client) CreateDocument(ctx context.Context, req DocumentRequest) (*DocumentResponse, error) {
	var out DocumentResponse
	if err := c.doJSON(ctx, http.MethodPost, "/documents", nil, req, &out); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return &out, nil
}

// GetDocument fetches a generated document.
func (c *Client) GetDocument(ctx context.Context, id string) (*DocumentDetail, error) {
	var out DocumentDetail
	if err := c.doJSON(ctx, http.MethodGet, "/documents/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	return &out, nil
}

// DownloadDocument streams the document file into w and returns the byte count.
func (c *Client) DownloadDocument(ctx context.Context, id string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/documents/"+url.PathEscape(id)+"/download", nil)
	if err != nil {
		return 0, fmt.Errorf("download document %s: %w", id, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download document %s: %w", id, err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return 0, fmt.Errorf("download document %s: %w", id, err)
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("download document %s: %w", id, err)
	}
	return n, nil
}

// UploadVideo streams a recording as multipart form data. onProgress, when
// set, receives the integer percentage of file bytes sent each time it changes.
func (c *Client) UploadVideo(ctx context.Context, meta UploadRequest, file io.Reader, onProgress func(pct int)) (*Video, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeUploadForm(mw, meta, &progressReader{r: file, total: meta.Size, report: onProgress})
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/videos", pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("upload video: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("upload video: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return nil, fmt.Errorf("upload video: %w", err)
	}
	var out Video
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("upload video: decode response: %w", err)
	}
	return &out, nil
}

func writeUploadForm(mw *multipart.Writer, meta UploadRequest, file io.Reader) error {
	part, err := mw.CreateFormFile("file", meta.FileName)
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy file: %w", err)
	}
	fields := []struct{ name, value string }{
		{"title", meta.Title},
		{"recording_date", meta.RecordingDate},
		{"participants", meta.Participants},
		{"context_notes", meta.ContextNotes},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return fmt.Errorf("write field %s: %w", f.name, err)
		}
	}
	return nil
}

// progressReader reports the share of total bytes read so far.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   int
	report func(int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.report != nil && p.total > 0 {
		pct := int(math.Round(float64(p.read) * 100 / float64(p.total)))
		if pct > 100 {
			pct = 100
		}
		if pct != p.last {
			p.last = pct
			p.report(pct)
		}
	}
	return n, err
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// checkResponse turns a non-2xx response into *Error, lifting FastAPI's
// {"detail": ...} body into the message when present.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	apiErr := &Error{StatusCode: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(data, &body) == nil && len(body.Detail) > 0 {
		var s string
		if json.Unmarshal(body.Detail, &s) == nil {
			apiErr.Detail = s
		} else {
			apiErr.Detail = string(body.Detail)
		}
	}
	return apiErr
}

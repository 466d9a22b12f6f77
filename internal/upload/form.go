// Package upload validates a recording upload and streams it to the backend.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/georgeLochner/whedifaqaui/internal/api"
)

// DateLayout is the accepted recording date format.
const DateLayout = "2006-01-02"

// Field names used as Errors keys.
const (
	FieldFile          = "file"
	FieldTitle         = "title"
	FieldRecordingDate = "recording_date"
)

var fieldOrder = []string{FieldFile, FieldTitle, FieldRecordingDate}

// Form is the user-supplied upload metadata.
type Form struct {
	FilePath      string
	Title         string
	RecordingDate string
	Participants  string
	ContextNotes  string
}

// Errors maps a field name to its validation message.
type Errors map[string]string

// Error lists the failing fields in form order.
func (e Errors) Error() string {
	var parts []string
	for _, f := range fieldOrder {
		if msg, ok := e[f]; ok {
			parts = append(parts, fmt.Sprintf("%s: %s", f, msg))
		}
	}
	return strings.Join(parts, "; ")
}

// Validate checks every field and returns nil when the form may be sent.
func (f Form) Validate() Errors {
	errs := Errors{}

	switch {
	case strings.TrimSpace(f.FilePath) == "":
		errs[FieldFile] = "File is required"
	case !strings.EqualFold(filepath.Ext(f.FilePath), ".mkv"):
		errs[FieldFile] = "Only .mkv files are accepted"
	}

	if strings.TrimSpace(f.Title) == "" {
		errs[FieldTitle] = "Title is required"
	}

	switch date := strings.TrimSpace(f.RecordingDate); {
	case date == "":
		errs[FieldRecordingDate] = "Recording date is required"
	default:
		if _, err := time.Parse(DateLayout, date); err != nil {
			errs[FieldRecordingDate] = "Recording date must be YYYY-MM-DD"
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Uploader sends a recording to the backend.
type Uploader interface {
	UploadVideo(ctx context.Context, meta api.UploadRequest, file io.Reader, onProgress func(pct int)) (*api.Video, error)
}

// Submit validates the form and, only when it is valid, streams the file.
// Validation failures are returned as Errors.
func Submit(ctx context.Context, up Uploader, f Form, onProgress func(pct int)) (*api.Video, error) {
	if errs := f.Validate(); errs != nil {
		return nil, errs
	}

	file, err := os.Open(f.FilePath)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat recording: %w", err)
	}

	meta := api.UploadRequest{
		FileName:      filepath.Base(f.FilePath),
		Size:          info.Size(),
		Title:         strings.TrimSpace(f.Title),
		RecordingDate: strings.TrimSpace(f.RecordingDate),
		Participants:  strings.TrimSpace(f.Participants),
		ContextNotes:  strings.TrimSpace(f.ContextNotes),
	}
	log.Debug().Str("file", meta.FileName).Int64("size", meta.Size).Msg("uploading recording")

	video, err := up.UploadVideo(ctx, meta, file, onProgress)
	if err != nil {
		return nil, fmt.Errorf("upload recording: %w", err)
	}
	return video, nil
}

// AsErrors unwraps validation errors from err.
func AsErrors(err error) (Errors, bool) {
	var errs Errors
	if errors.As(err, &errs) {
		return errs, true
	}
	return nil, false
}

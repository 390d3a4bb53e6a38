package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"alfredoptarigan/rallycoach/internal/models"
)

func stagedVideo(t *testing.T, name string, content []byte) VideoInput {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("failed to write video: %v", err)
	}
	return VideoInput{
		Metadata: models.VideoMetadata{Name: name, Size: 50 << 20},
		Path:     path,
		MIMEType: VideoMIMEType(name),
	}
}

func TestBackendAcquirer_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/analyze" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file field: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "match.mp4" || string(data) != "video-bytes" {
			t.Errorf("got file %q with %q", header.Filename, data)
		}
		if got := len(r.MultipartForm.File["frames"]); got != 1 {
			t.Errorf("frames = %d, want 1", got)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, scenarioJSON)
	}))
	defer srv.Close()

	video := stagedVideo(t, "match.mp4", []byte("video-bytes"))
	video.Frames = []Attachment{{MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8}}}

	got, err := NewBackendAcquirer(srv.URL+"/", nil).Acquire(context.Background(), video)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, scenarioResult()) {
		t.Fatalf("got %+v, want %+v", got, scenarioResult())
	}
}

func TestBackendAcquirer_FailureMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"detail", http.StatusTooManyRequests, `{"detail":"quota exceeded"}`, "quota exceeded"},
		{"unparsable body", http.StatusInternalServerError, `<html>Bad Gateway</html>`, uploadFailedMessage},
		{"empty body", http.StatusBadGateway, ``, uploadFailedMessage},
		{"json without detail", http.StatusInternalServerError, `{"error":"boom"}`, "Backend Worker failed to process video."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			got, err := NewBackendAcquirer(srv.URL, nil).Acquire(context.Background(), stagedVideo(t, "match.mp4", []byte("x")))
			if got != nil {
				t.Fatalf("expected no result, got %+v", got)
			}

			var statusErr *BackendStatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("expected *BackendStatusError, got %T %v", err, err)
			}
			if statusErr.StatusCode != tt.status {
				t.Fatalf("StatusCode = %d, want %d", statusErr.StatusCode, tt.status)
			}
			if msg := ErrorMessage(err); msg != tt.wantMsg {
				t.Fatalf("message = %q, want %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestBackendAcquirer_IncompleteSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"technicalScore":78,"tacticalScore":65,"summary":"s","strengths":[],"improvements":[]}`)
	}))
	defer srv.Close()

	got, err := NewBackendAcquirer(srv.URL, nil).Acquire(context.Background(), stagedVideo(t, "match.mp4", []byte("x")))
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected no result, got %+v", got)
	}
}

func TestBackendAcquirer_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewBackendAcquirer(url, nil).Acquire(context.Background(), stagedVideo(t, "match.mp4", []byte("x")))
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestBackendAcquirer_MissingStagedFile(t *testing.T) {
	video := VideoInput{Metadata: models.VideoMetadata{Name: "gone.mp4"}, Path: filepath.Join(t.TempDir(), "gone.mp4")}

	if _, err := NewBackendAcquirer("http://127.0.0.1:1", nil).Acquire(context.Background(), video); err == nil {
		t.Fatalf("expected error for missing staged file")
	}
}

// hangingServer reads the whole upload, optionally starts a response, then
// stalls until the client goes away or the test ends.
func hangingServer(t *testing.T, partial string) *httptest.Server {
	t.Helper()

	unblock := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		if partial != "" {
			w.WriteHeader(http.StatusOK)
			io.WriteString(w, partial)
			w.(http.Flusher).Flush()
		}
		select {
		case <-r.Context().Done():
		case <-unblock:
		}
	}))
	t.Cleanup(func() {
		close(unblock)
		srv.Close()
	})
	return srv
}

func TestBackendAcquirer_Cancellation(t *testing.T) {
	srv := hangingServer(t, "")

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := NewBackendAcquirer(srv.URL, nil).Acquire(ctx, stagedVideo(t, "match.mp4", []byte("x")))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBackendAcquirer_DeadlineWhileReadingBody(t *testing.T) {
	srv := hangingServer(t, `{"technicalScore":`)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewBackendAcquirer(srv.URL, nil).Acquire(ctx, stagedVideo(t, "match.mp4", []byte("x")))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
	if msg := ErrorMessage(err); msg != "Analysis timed out" {
		t.Fatalf("message = %q", msg)
	}
}

package services

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
)

type fakeCompletion struct {
	mu   sync.Mutex
	text string
	err  error
	reqs []CompletionRequest
}

func (f *fakeCompletion) Name() string {
	return "fake"
}

func (f *fakeCompletion) GenerateJSON(ctx context.Context, req CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.text, f.err
}

func (f *fakeCompletion) lastRequest(t *testing.T) CompletionRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.reqs) == 0 {
		t.Fatalf("completion was never called")
	}
	return f.reqs[len(f.reqs)-1]
}

func TestAIAcquirer_BuildsStructuredRequest(t *testing.T) {
	fc := &fakeCompletion{text: scenarioJSON}
	video := stagedVideo(t, "match.mp4", []byte("0123456789"))
	video.Frames = []Attachment{{MIMEType: "image/jpeg", Data: []byte("frame")}}

	got, err := NewAIAcquirer(fc, 0).Acquire(context.Background(), video)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, scenarioResult()) {
		t.Fatalf("got %+v, want %+v", got, scenarioResult())
	}

	req := fc.lastRequest(t)
	if req.SystemInstruction != SystemInstruction {
		t.Fatalf("system instruction not set")
	}
	if !strings.Contains(req.Prompt, `"match.mp4"`) {
		t.Fatalf("prompt does not name the file: %q", req.Prompt)
	}
	if !strings.Contains(req.Prompt, "1 still frames") {
		t.Fatalf("prompt does not mention frames: %q", req.Prompt)
	}
	if req.Schema == nil || !reflect.DeepEqual(req.Schema.Required, analysisFields) {
		t.Fatalf("schema must require all report fields, got %+v", req.Schema)
	}
	if len(req.Attachments) != 1 || req.Attachments[0].MIMEType != "image/jpeg" {
		t.Fatalf("attachments = %+v, want the single frame", req.Attachments)
	}
}

func TestAIAcquirer_InlineVideoLimit(t *testing.T) {
	tests := []struct {
		name     string
		limit    int64
		wantSent bool
	}{
		{"under limit", 100, true},
		{"over limit", 5, false},
		{"disabled", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeCompletion{text: scenarioJSON}
			video := stagedVideo(t, "match.mp4", []byte("0123456789"))

			if _, err := NewAIAcquirer(fc, tt.limit).Acquire(context.Background(), video); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			req := fc.lastRequest(t)
			sent := len(req.Attachments) == 1 &&
				req.Attachments[0].MIMEType == "video/mp4" &&
				string(req.Attachments[0].Data) == "0123456789"
			if sent != tt.wantSent {
				t.Fatalf("video attached = %v, want %v (attachments %d)", sent, tt.wantSent, len(req.Attachments))
			}
			if tt.wantSent && !strings.Contains(req.Prompt, "full video is attached") {
				t.Fatalf("prompt should mention the attached video: %q", req.Prompt)
			}
		})
	}
}

func TestAIAcquirer_Failures(t *testing.T) {
	providerErr := errors.New("boom")

	tests := []struct {
		name    string
		text    string
		err     error
		wantErr error
	}{
		{"empty text", "", nil, ErrEmptyResponse},
		{"provider empty", "", ErrEmptyResponse, ErrEmptyResponse},
		{"malformed json", `{"technicalScore": 7`, nil, ErrInvalidPayload},
		{"missing field", `{"technicalScore":78,"tacticalScore":65,"summary":"s"}`, nil, ErrInvalidPayload},
		{"provider error", "", providerErr, providerErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeCompletion{text: tt.text, err: tt.err}
			got, err := NewAIAcquirer(fc, 0).Acquire(context.Background(), stagedVideo(t, "match.mp4", []byte("x")))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if got != nil {
				t.Fatalf("expected no result, got %+v", got)
			}
		})
	}
}

func TestAIAcquirer_ContextErrorWins(t *testing.T) {
	fc := &fakeCompletion{err: errors.New("request aborted")}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAIAcquirer(fc, 0).Acquire(ctx, stagedVideo(t, "match.mp4", []byte("x")))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

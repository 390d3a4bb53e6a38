package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"alfredoptarigan/rallycoach/internal/models"
)

const (
	AnalyzePath = "/analyze"

	uploadFailedMessage  = "Upload failed"
	backendFailedMessage = "Backend Worker failed to process video."

	// errorBodyLimit bounds how much of a failure body is read for its detail.
	errorBodyLimit = 64 << 10
)

type backendAcquirer struct {
	baseURL string
	client  *http.Client
}

// NewBackendAcquirer posts the upload to baseURL + /analyze. A nil client
// means http.DefaultClient; deadlines come from the caller's context.
func NewBackendAcquirer(baseURL string, client *http.Client) ReportAcquirer {
	if client == nil {
		client = http.DefaultClient
	}
	return &backendAcquirer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (b *backendAcquirer) Name() string {
	return "backend"
}

// Acquire implements ReportAcquirer.
func (b *backendAcquirer) Acquire(ctx context.Context, video VideoInput) (*models.AnalysisResult, error) {
	file, err := os.Open(video.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open staged upload: %w", err)
	}
	defer file.Close()

	body, contentType := multipartBody(file, video)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+AnalyzePath, body)
	if err != nil {
		body.Close()
		return nil, fmt.Errorf("failed to build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	log.Printf("📤 Uploading %s to %s\n", video.Metadata.Name, req.URL)

	resp, err := b.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, backendStatusError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrTransport, err)
	}

	return DecodeAnalysisResult(string(data))
}

// multipartBody streams the file and frames through a pipe so large videos
// are never buffered in memory.
func multipartBody(file io.Reader, video VideoInput) (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeMultipart(mw, file, video)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	return pr, mw.FormDataContentType()
}

func writeMultipart(mw *multipart.Writer, file io.Reader, video VideoInput) error {
	name := video.Metadata.Name
	if name == "" {
		name = filepath.Base(video.Path)
	}

	part, err := mw.CreatePart(filePartHeader("file", name, video.MIMEType))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}

	for i, frame := range video.Frames {
		part, err := mw.CreatePart(filePartHeader("frames", fmt.Sprintf("frame_%03d", i), frame.MIMEType))
		if err != nil {
			return err
		}
		if _, err := part.Write(frame.Data); err != nil {
			return err
		}
	}

	return nil
}

func filePartHeader(field, filename, contentType string) textproto.MIMEHeader {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", contentType)
	return h
}

// backendStatusError reads {"detail": "..."} from a failure body, falling back
// to fixed messages when the body is not JSON or carries no detail.
func backendStatusError(resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	if err != nil {
		return &BackendStatusError{StatusCode: resp.StatusCode, Detail: uploadFailedMessage}
	}

	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return &BackendStatusError{StatusCode: resp.StatusCode, Detail: uploadFailedMessage}
	}

	if payload.Detail == "" {
		return &BackendStatusError{StatusCode: resp.StatusCode, Detail: backendFailedMessage}
	}

	return &BackendStatusError{StatusCode: resp.StatusCode, Detail: payload.Detail}
}

package handlers

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"alfredoptarigan/rallycoach/internal/models"
	"alfredoptarigan/rallycoach/internal/services"
)

const (
	maxFrames     = 16
	maxFrameBytes = 5 << 20
)

// VideoUploader stages the multipart "file" field (plus optional "frames")
// of a request for the acquisition strategies.
type VideoUploader struct {
	storageService services.StorageService
	maxFileSize    int64
}

func NewVideoUploader(storageService services.StorageService, maxFileSize int64) *VideoUploader {
	return &VideoUploader{
		storageService: storageService,
		maxFileSize:    maxFileSize,
	}
}

// Stage saves the uploaded video. The returned input's Cleanup removes it.
func (u *VideoUploader) Stage(c *fiber.Ctx) (services.VideoInput, *fiber.Error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return services.VideoInput{}, fiber.NewError(fiber.StatusBadRequest, "No video uploaded. Please upload a 'file' field.")
	}

	if fileHeader.Size > u.maxFileSize {
		return services.VideoInput{}, fiber.NewError(fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("Video file too large. Max size: %d bytes", u.maxFileSize))
	}

	frames, ferr := readFrames(c)
	if ferr != nil {
		return services.VideoInput{}, ferr
	}

	filename, filePath, err := u.storageService.SaveVideo(fileHeader)
	if err != nil {
		return services.VideoInput{}, fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("failed to save video: %v", err))
	}

	meta := models.VideoMetadata{
		Name:       fileHeader.Filename,
		Size:       fileHeader.Size,
		PreviewURL: utils.CopyString(c.FormValue("previewUrl")),
	}
	if d, err := strconv.ParseFloat(c.FormValue("duration"), 64); err == nil && d > 0 {
		meta.Duration = &d
	}

	return services.VideoInput{
		Metadata: meta,
		Path:     filePath,
		MIMEType: services.VideoMIMEType(fileHeader.Filename),
		Frames:   frames,
		Cleanup: func() {
			if err := u.storageService.DeleteFile(filename); err != nil {
				log.Printf("⚠️  Failed to remove staged upload %s: %v\n", filename, err)
			}
		},
	}, nil
}

func readFrames(c *fiber.Ctx) ([]services.Attachment, *fiber.Error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil
	}

	headers := form.File["frames"]
	if len(headers) > maxFrames {
		return nil, fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("Too many frames. Max: %d", maxFrames))
	}

	frames := make([]services.Attachment, 0, len(headers))
	for _, fh := range headers {
		contentType := fh.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			return nil, fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("Frame %q is not an image", fh.Filename))
		}
		if fh.Size > maxFrameBytes {
			return nil, fiber.NewError(fiber.StatusRequestEntityTooLarge,
				fmt.Sprintf("Frame %q too large. Max size: %d bytes", fh.Filename, maxFrameBytes))
		}

		data, err := readFormFile(fh)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("failed to read frame %q: %v", fh.Filename, err))
		}
		frames = append(frames, services.Attachment{MIMEType: contentType, Data: data})
	}

	return frames, nil
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func detail(c *fiber.Ctx, code int, msg string) error {
	return c.Status(code).JSON(models.ErrorDetail{Detail: msg})
}

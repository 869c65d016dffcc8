package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"tenderdesk/internal/config"
	"tenderdesk/internal/lib/sl"
)

var (
	ErrNotConfigured = errors.New("upload service is not configured")
	ErrTooLarge      = errors.New("file is too large")
)

// Service performs unsigned uploads to a Cloudinary compatible endpoint.
type Service struct {
	endpoint string
	preset   string
	maxSize  int64
	client   *http.Client
	log      *slog.Logger
}

func NewUploadService(conf *config.Config, logger *slog.Logger) *Service {
	endpoint := ""
	if conf.Upload.CloudName != "" {
		endpoint = fmt.Sprintf("%s/%s/image/upload", strings.TrimRight(conf.Upload.BaseURL, "/"), conf.Upload.CloudName)
	}
	return &Service{
		endpoint: endpoint,
		preset:   conf.Upload.Preset,
		maxSize:  conf.Upload.MaxSize,
		client:   &http.Client{Timeout: conf.Upload.Timeout},
		log:      logger.With(sl.Module("upload")),
	}
}

func (s *Service) Enabled() bool {
	return s.endpoint != ""
}

// Upload streams the file to the asset host and returns its secure URL.
func (s *Service) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	if !s.Enabled() {
		return "", ErrNotConfigured
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if s.preset != "" {
		_ = writer.WriteField("upload_preset", s.preset)
	}
	part, err := writer.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return "", fmt.Errorf("create file part: %w", err)
	}
	src := r
	if s.maxSize > 0 {
		src = io.LimitReader(r, s.maxSize+1)
	}
	n, err := io.Copy(part, src)
	if err != nil {
		return "", fmt.Errorf("copy file data: %w", err)
	}
	if s.maxSize > 0 && n > s.maxSize {
		return "", ErrTooLarge
	}
	_ = writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	var result struct {
		SecureURL string `json:"secure_url"`
		Error     struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil && resp.StatusCode == http.StatusOK {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, result.Error.Message)
	}
	if result.SecureURL == "" {
		return "", errors.New("upload response has no url")
	}

	s.log.With(
		slog.String("filename", filename),
		slog.Int64("size", n),
	).Debug("file uploaded")

	return result.SecureURL, nil
}

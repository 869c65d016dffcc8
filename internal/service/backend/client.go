package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"tenderdesk/internal/config"
	"tenderdesk/internal/lib/api/cont"
	"tenderdesk/internal/lib/sl"
)

// APIError is a non-2xx reply of the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: status %d", e.Status)
	}
	return fmt.Sprintf("backend: status %d: %s", e.Status, e.Message)
}

// StatusOf returns the backend status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// MessageOf returns the backend message carried by err.
func MessageOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

type Client struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

func NewClient(conf *config.Config, logger *slog.Logger) *Client {
	return New(conf.Backend.BaseURL, conf.Backend.Timeout, logger)
}

func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     logger.With(sl.Module("backend")),
	}
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := cont.GetToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log := c.log.With(slog.String("method", method), slog.String("path", path))

	resp, err := c.client.Do(req)
	if err != nil {
		log.Debug("request failed", sl.Err(err))
		return fmt.Errorf("send request: %w", err)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: errorMessage(data)}
		log.With(
			slog.Int("status", resp.StatusCode),
			slog.String("message", apiErr.Message),
		).Debug("request rejected")
		return apiErr
	}

	log.Debug("request done", slog.Int("status", resp.StatusCode))

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err = decode(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// decode accepts both a bare object and one wrapped in {"data": ...}.
func decode(data []byte, out any) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil {
		raw := bytes.TrimSpace(envelope.Data)
		if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) && raw[0] == '{' {
			return json.Unmarshal(raw, out)
		}
	}
	return json.Unmarshal(data, out)
}

func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return strings.TrimSpace(string(data))
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

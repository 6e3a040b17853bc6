package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// StatusError is a non-2xx response from the identity provider.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("non-2xx status: %d", e.Status)
}

// SendJSON sends an optional JSON body to a full URL with optional headers and
// returns the raw response body. A nil body sends no payload.
func SendJSON(ctx context.Context, client *http.Client, method, url string, body any, headers map[string]string, logger *slog.Logger) ([]byte, int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	reqID := uuid.New().String()
	start := time.Now()

	var rd io.Reader
	contentLength := 0
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			logger.Error("auth.http.encode_error", "req_id", reqID, "error", err)
			return nil, 0, fmt.Errorf("encode json: %w", err)
		}
		rd = bytes.NewReader(bs)
		contentLength = len(bs)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		logger.Error("auth.http.build_request_error", "req_id", reqID, "error", err)
		return nil, 0, fmt.Errorf("build request: %w", err)
	}

	// Default headers; allow caller overrides.
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	logger.Debug("auth.http.request",
		"req_id", reqID,
		"method", method,
		"url", url,
		"content_length", contentLength,
	)

	resp, err := client.Do(req)
	if err != nil {
		logger.Error("auth.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, 0, err
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			logger.Warn("auth.http.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)

	logger.Debug("auth.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return raw, resp.StatusCode, &StatusError{Status: resp.StatusCode, Body: raw}
	}
	return raw, resp.StatusCode, nil
}

package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/swimline/heatsheet/internal/common"
	"github.com/swimline/heatsheet/internal/llm"
)

// Interface guard: the pipeline consumes this through llm.Extractor.
var _ llm.Extractor = (*Client)(nil)

// UploadFile pushes raw PDF bytes to the provider's /files endpoint and
// returns the opaque file handle.
func (c *Client) UploadFile(ctx context.Context, filename string, data []byte) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.upload.start", "req_id", rid, "filename", filename, "size_bytes", len(data))

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("purpose", "user_data"); err != nil {
		return "", fmt.Errorf("write purpose field: %w", err)
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write file part: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/files"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", w.FormDataContentType())

	raw, err := c.do(req)
	if err != nil {
		c.log.Error("llm.upload.failed", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", err
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode file upload response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("file upload response missing id")
	}

	c.log.Info("llm.upload.ok", "req_id", rid, "file_id", out.ID,
		"elapsed_ms", time.Since(start).Milliseconds())
	return out.ID, nil
}

// ExtractWithFile runs one extraction referencing an uploaded file handle.
func (c *Client) ExtractWithFile(ctx context.Context, fileID, prompt string) (*llm.ExtractionResult, error) {
	parts := []map[string]any{
		{"type": "file", "file": map[string]any{"file_id": fileID}},
		{"type": "text", "text": prompt},
	}
	return c.extract(ctx, parts, "file", 1)
}

// ExtractWithImages runs one extraction over rendered page images (data URLs).
func (c *Client) ExtractWithImages(ctx context.Context, imageURLs []string, prompt string) (*llm.ExtractionResult, error) {
	parts := make([]map[string]any, 0, len(imageURLs)+1)
	for _, u := range imageURLs {
		parts = append(parts, map[string]any{
			"type":      "image_url",
			"image_url": map[string]any{"url": u},
		})
	}
	parts = append(parts, map[string]any{"type": "text", "text": prompt})
	return c.extract(ctx, parts, "images", len(imageURLs))
}

func (c *Client) extract(ctx context.Context, content []map[string]any, path string, inputs int) (*llm.ExtractionResult, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"path", path,
		"inputs", inputs,
	)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "user", "content": content},
		},
	}

	raw, err := c.postJSON(ctx, strings.TrimRight(c.cfg.BaseURL, "/")+"/chat/completions", body)
	if err != nil {
		c.log.Error("llm.extract.http_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.extract.decode_error", "req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("decode completion response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.extract.no_choices", "req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, &common.EmptyModelResponseError{FinishReason: "no_choices"}
	}

	choice := cc.Choices[0]
	contentStr := strings.TrimSpace(choice.Message.Content)
	if contentStr == "" {
		c.log.Error("llm.extract.empty_content", "req_id", rid,
			"finish_reason", choice.FinishReason,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, &common.EmptyModelResponseError{FinishReason: choice.FinishReason}
	}

	result, err := llm.ParseModelOutput([]byte(contentStr))
	if err != nil {
		c.log.Error("llm.extract.parse_failed", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"meet", result.MeetName,
		"events", len(result.Events),
		"warnings", len(result.Warnings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (c *Client) postJSON(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// do executes a request and classifies failures: timeouts, 429 and 5xx become
// TransientError so the batch retry policy picks them up; other non-2xx codes
// are permanent.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, &common.TransientError{Cause: err}
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.log.Warn("response body close error", "error", cerr)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &common.TransientError{
			Cause: fmt.Errorf("provider status %d: %s", resp.StatusCode, truncate(buf.String(), 300)),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("provider status %d: %s", resp.StatusCode, truncate(buf.String(), 300))
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

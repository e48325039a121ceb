package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Client calls the rasterizer service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ Renderer = (*Client)(nil)

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) RenderPages(ctx context.Context, pdf []byte) ([]string, error) {
	var out struct {
		Pages []string `json:"pages"`
	}
	if err := c.postPDF(ctx, "/render", pdf, nil, &out); err != nil {
		return nil, fmt.Errorf("render pages: %w", err)
	}
	if len(out.Pages) == 0 {
		return nil, fmt.Errorf("render pages: rasterizer returned no pages")
	}
	return out.Pages, nil
}

func (c *Client) CountPages(ctx context.Context, pdf []byte) (int, error) {
	var out struct {
		PageCount int `json:"page_count"`
	}
	if err := c.postPDF(ctx, "/page-count", pdf, nil, &out); err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return out.PageCount, nil
}

func (c *Client) CountNameOccurrences(ctx context.Context, pdf []byte, name string) (NameOccurrences, error) {
	var out NameOccurrences
	fields := map[string]string{"name": name}
	if err := c.postPDF(ctx, "/name-occurrences", pdf, fields, &out); err != nil {
		return NameOccurrences{}, fmt.Errorf("count name occurrences: %w", err)
	}
	return out, nil
}

// postPDF sends the PDF as a multipart form plus optional extra fields and
// decodes the JSON response into out.
func (c *Client) postPDF(ctx context.Context, path string, pdf []byte, fields map[string]string, out any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "document.pdf")
	if err != nil {
		return err
	}
	if _, err := part.Write(pdf); err != nil {
		return err
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return err
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("rasterizer returned status %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

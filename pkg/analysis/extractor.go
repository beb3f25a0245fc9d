package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrEmptyExtraction = errors.New("extractor returned no content")

type Extraction struct {
	Text     string    `json:"text"`
	Elements []Element `json:"elements"`
}

// Extractor is the primary structured extractor for PDF and Word files.
type Extractor interface {
	Extract(ctx context.Context, doc Document) (*Extraction, error)
}

// HTTPExtractor posts the raw document to an extraction service.
type HTTPExtractor struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPExtractor(baseURL string) *HTTPExtractor {
	return &HTTPExtractor{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

func (e *HTTPExtractor) Extract(ctx context.Context, doc Document) (*Extraction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/extract", bytes.NewReader(doc.Data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", doc.Mime)
	req.Header.Set("X-File-Name", doc.Name)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extractor request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("extractor returned status %d: %s", resp.StatusCode, string(msg))
	}

	var out Extraction
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode extraction: %w", err)
	}
	if strings.TrimSpace(out.Text) == "" && len(out.Elements) == 0 {
		return nil, ErrEmptyExtraction
	}
	return &out, nil
}

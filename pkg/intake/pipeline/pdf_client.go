package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"legal-intake-be/internal/entity"
)

// HTTPPDFGenerator calls the document rendering service.
type HTTPPDFGenerator struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPPDFGenerator(baseURL string) *HTTPPDFGenerator {
	return &HTTPPDFGenerator{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type pdfRequest struct {
	SessionID      string   `json:"sessionId"`
	OrganizationID string   `json:"organizationId"`
	MatterType     string   `json:"matterType"`
	Summary        string   `json:"summary"`
	KeyFacts       []string `json:"keyFacts"`
	Revision       int      `json:"revision"`
}

type pdfResponse struct {
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
	StorageKey string `json:"storageKey"`
}

func (g *HTTPPDFGenerator) Generate(ctx context.Context, conv entity.ConversationContext, draft entity.CaseDraft) (*entity.GeneratedPDF, error) {
	body, err := json.Marshal(pdfRequest{
		SessionID:      conv.SessionID,
		OrganizationID: conv.OrganizationID,
		MatterType:     draft.MatterType,
		Summary:        draft.Summary,
		KeyFacts:       draft.KeyFacts,
		Revision:       draft.Revision,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pdf service request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("pdf service returned status %d: %s", resp.StatusCode, string(msg))
	}

	var out pdfResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode pdf response: %w", err)
	}
	if out.Filename == "" {
		return nil, fmt.Errorf("pdf service returned no filename")
	}

	return &entity.GeneratedPDF{
		Filename:    out.Filename,
		Size:        out.Size,
		GeneratedAt: time.Now().UTC(),
		MatterType:  draft.MatterType,
		StorageKey:  out.StorageKey,
	}, nil
}

package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

type httpParser struct {
	log     *logger.Logger
	baseURL string
	client  *http.Client
}

// NewHTTPParser talks to the report parsing service named by
// PARSER_SERVICE_URL. A 204 response means the text held no parseable report.
func NewHTTPParser(log *logger.Logger) (ReportParser, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(os.Getenv("PARSER_SERVICE_URL")), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("missing PARSER_SERVICE_URL")
	}
	return &httpParser{
		log:     log.With("service", "ReportParser"),
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

type parseRequest struct {
	Kind    string `json:"kind"`
	CourtID string `json:"court_id"`
	Text    string `json:"text"`
}

func (p *httpParser) post(path string, req parseRequest, out any) (bool, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return false, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return false, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return false, fmt.Errorf("parser request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return false, nil
	}
	if resp.StatusCode >= 400 {
		return false, fmt.Errorf("parser request failed: status=%d path=%s", resp.StatusCode, path)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("parser response read failed: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("parser response decode failed: %w", err)
	}
	return true, nil
}

func (p *httpParser) Parse(kind ReportKind, courtID, text string) (*CaseReportData, error) {
	var data CaseReportData
	ok, err := p.post("/parse/report", parseRequest{
		Kind:    string(kind),
		CourtID: courtID,
		Text:    text,
	}, &data)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &data, nil
}

func (p *httpParser) ParseAttachmentPage(courtID, text string) (*AttachmentPageData, error) {
	var data AttachmentPageData
	ok, err := p.post("/parse/attachment_page", parseRequest{
		CourtID: courtID,
		Text:    text,
	}, &data)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &data, nil
}

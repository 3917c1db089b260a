// Package courts is the network client for the remote court records system.
// A Session wraps one user's cached login; the pipeline fetch tasks drive it.
package courts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/casepulse/casepulse-backend/internal/clients/redis"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

var (
	// ErrAuth means the remote system rejected the session's credentials.
	ErrAuth = errors.New("court session rejected")
	// ErrNotFound means the requested case or document does not exist remotely.
	ErrNotFound = errors.New("not found in court records system")
)

// CaseReportRequest scopes a case report query. Zero-valued filters mean the
// full report.
type CaseReportRequest struct {
	CourtID      string
	CaseSystemID string

	EntryNumStart *int
	EntryNumEnd   *int
	DateStart     *time.Time
	DateEnd       *time.Time
	ShowParties   bool
}

// Session issues queries against the remote system on behalf of one user.
type Session interface {
	// LookupCaseID resolves a docket number to the remote system's case id.
	LookupCaseID(ctx context.Context, courtID, docketNumber string) (string, error)
	// FetchCaseReport returns the raw report text for a case.
	FetchCaseReport(ctx context.Context, req CaseReportRequest) (string, error)
	// FetchDocument downloads a filed document's bytes.
	FetchDocument(ctx context.Context, courtID, caseSystemID, docSystemID string) ([]byte, error)
	// FetchAttachmentPage returns the raw attachment menu text for a document.
	FetchAttachmentPage(ctx context.Context, courtID, docSystemID string) (string, error)
}

// SessionProvider builds sessions from cached credentials.
type SessionProvider interface {
	NewSession(creds *redis.SessionCredentials) (Session, error)
}

type httpSessionProvider struct {
	log     *logger.Logger
	baseURL string
	client  *http.Client
}

func NewHTTPSessionProvider(log *logger.Logger) (SessionProvider, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(os.Getenv("COURTS_BASE_URL")), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("missing COURTS_BASE_URL")
	}
	return &httpSessionProvider{
		log:     log.With("service", "CourtSessionProvider"),
		baseURL: baseURL,
		client:  &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

func (p *httpSessionProvider) NewSession(creds *redis.SessionCredentials) (Session, error) {
	if creds == nil || creds.Cookies == "" {
		return nil, ErrAuth
	}
	return &httpSession{
		log:     p.log,
		baseURL: p.baseURL,
		client:  p.client,
		cookies: creds.Cookies,
	}, nil
}

type httpSession struct {
	log     *logger.Logger
	baseURL string
	client  *http.Client
	cookies string
}

func (s *httpSession) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := s.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cookie", s.cookies)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("court request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrAuth
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("court request failed: status=%d url=%s", resp.StatusCode, u)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("court response read failed: %w", err)
	}
	return body, nil
}

func (s *httpSession) LookupCaseID(ctx context.Context, courtID, docketNumber string) (string, error) {
	q := url.Values{}
	q.Set("court", courtID)
	q.Set("docket_number", docketNumber)
	body, err := s.get(ctx, "/lookup", q)
	if err != nil {
		return "", err
	}
	id := strings.TrimSpace(string(body))
	if id == "" {
		return "", ErrNotFound
	}
	return id, nil
}

func (s *httpSession) FetchCaseReport(ctx context.Context, req CaseReportRequest) (string, error) {
	q := url.Values{}
	q.Set("court", req.CourtID)
	q.Set("case_id", req.CaseSystemID)
	if req.EntryNumStart != nil {
		q.Set("entry_num_start", fmt.Sprintf("%d", *req.EntryNumStart))
	}
	if req.EntryNumEnd != nil {
		q.Set("entry_num_end", fmt.Sprintf("%d", *req.EntryNumEnd))
	}
	if req.DateStart != nil {
		q.Set("date_start", req.DateStart.Format("2006-01-02"))
	}
	if req.DateEnd != nil {
		q.Set("date_end", req.DateEnd.Format("2006-01-02"))
	}
	if req.ShowParties {
		q.Set("show_parties", "1")
	}
	body, err := s.get(ctx, "/report", q)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (s *httpSession) FetchDocument(ctx context.Context, courtID, caseSystemID, docSystemID string) ([]byte, error) {
	q := url.Values{}
	q.Set("court", courtID)
	q.Set("case_id", caseSystemID)
	q.Set("doc_id", docSystemID)
	return s.get(ctx, "/document", q)
}

func (s *httpSession) FetchAttachmentPage(ctx context.Context, courtID, docSystemID string) (string, error) {
	q := url.Values{}
	q.Set("court", courtID)
	q.Set("doc_id", docSystemID)
	body, err := s.get(ctx, "/attachment_page", q)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

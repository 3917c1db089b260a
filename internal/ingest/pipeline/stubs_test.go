package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casepulse/casepulse-backend/internal/clients/courts"
	"github.com/casepulse/casepulse-backend/internal/clients/redis"
	"github.com/casepulse/casepulse-backend/internal/data/repos"
	"github.com/casepulse/casepulse-backend/internal/data/repos/testutil"
	"github.com/casepulse/casepulse-backend/internal/ingest"
	"github.com/casepulse/casepulse-backend/internal/parser"
	"github.com/casepulse/casepulse-backend/internal/platform/gcp"
)

// In-memory collaborator doubles for handler tests. Handlers open their own
// database context, so queue rows are committed and cleaned up per test.

type stubSession struct {
	lookupID   string
	lookupErr  error
	reportText string
	reportErr  error
}

func (s *stubSession) LookupCaseID(_ context.Context, _, _ string) (string, error) {
	return s.lookupID, s.lookupErr
}

func (s *stubSession) FetchCaseReport(_ context.Context, _ courts.CaseReportRequest) (string, error) {
	return s.reportText, s.reportErr
}

func (s *stubSession) FetchDocument(_ context.Context, _, _, _ string) ([]byte, error) {
	return nil, courts.ErrNotFound
}

func (s *stubSession) FetchAttachmentPage(_ context.Context, _, _ string) (string, error) {
	return "", courts.ErrNotFound
}

type stubSessionProvider struct {
	session courts.Session
	err     error
}

func (p *stubSessionProvider) NewSession(_ *redis.SessionCredentials) (courts.Session, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.session, nil
}

type stubCredentialCache struct {
	creds *redis.SessionCredentials
	err   error
}

func (c *stubCredentialCache) Get(_ context.Context, _ uuid.UUID) (*redis.SessionCredentials, error) {
	return c.creds, c.err
}

func (c *stubCredentialCache) Put(_ context.Context, _ *redis.SessionCredentials, _ time.Duration) error {
	return nil
}

type stubBucket struct {
	objects map[string][]byte
	deleted []string
}

func newStubBucket() *stubBucket {
	return &stubBucket{objects: map[string][]byte{}}
}

func bucketKey(category gcp.BucketCategory, key string) string {
	return fmt.Sprintf("%s/%s", category, key)
}

func (b *stubBucket) Upload(_ context.Context, category gcp.BucketCategory, key string, file io.Reader) error {
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	b.objects[bucketKey(category, key)] = data
	return nil
}

func (b *stubBucket) Download(_ context.Context, category gcp.BucketCategory, key string) (io.ReadCloser, error) {
	data, ok := b.objects[bucketKey(category, key)]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *stubBucket) ReadAll(_ context.Context, category gcp.BucketCategory, key string) ([]byte, error) {
	data, ok := b.objects[bucketKey(category, key)]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return data, nil
}

func (b *stubBucket) Delete(_ context.Context, category gcp.BucketCategory, key string) error {
	b.deleted = append(b.deleted, bucketKey(category, key))
	return nil
}

func (b *stubBucket) Attrs(_ context.Context, category gcp.BucketCategory, key string) (*gcp.ObjectAttrs, error) {
	data, ok := b.objects[bucketKey(category, key)]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return &gcp.ObjectAttrs{Size: int64(len(data))}, nil
}

func (b *stubBucket) deletedUpload(key string) bool {
	want := bucketKey(gcp.BucketCategoryUpload, key)
	for _, k := range b.deleted {
		if k == want {
			return true
		}
	}
	return false
}

type stubReportParser struct {
	report     *parser.CaseReportData
	reportErr  error
	page       *parser.AttachmentPageData
	pageErr    error
	parseCalls int
	pageCalls  int
}

func (s *stubReportParser) Parse(_ parser.ReportKind, _, _ string) (*parser.CaseReportData, error) {
	s.parseCalls++
	return s.report, s.reportErr
}

func (s *stubReportParser) ParseAttachmentPage(_, _ string) (*parser.AttachmentPageData, error) {
	s.pageCalls++
	return s.page, s.pageErr
}

type stubSearchBus struct{}

func (stubSearchBus) NotifyCaseChanged(_ context.Context, _ uuid.UUID) error     { return nil }
func (stubSearchBus) NotifyDocumentChanged(_ context.Context, _ uuid.UUID) error { return nil }

type stubAlertEnqueuer struct{}

func (stubAlertEnqueuer) ScheduleCaseAlert(_ context.Context, _ uuid.UUID, _ time.Time) error {
	return nil
}

type stubTextExtractor struct{}

func (stubTextExtractor) ExtractDocument(_ context.Context, _ uuid.UUID) error { return nil }

func newTestPipeline(t *testing.T, gdb *gorm.DB, ps parser.ReportParser, bucket gcp.BucketService, sessions courts.SessionProvider, creds redis.CredentialCache) (*Pipeline, *repos.Repos) {
	t.Helper()
	log := testutil.Logger(t)
	rp := repos.New(gdb, log)
	tracker := ingest.NewStatusTracker(rp.Processing, rp.Fetch, bucket, log)
	matcher := ingest.NewCaseMatcher(rp.Case, log)
	merger := ingest.NewMerger(rp.Entry, rp.Document, rp.Party, rp.Claim, rp.Originating, log)
	p := New(rp, tracker, matcher, merger, ps, bucket, sessions, creds, stubSearchBus{}, stubAlertEnqueuer{}, stubTextExtractor{}, log)
	return p, rp
}

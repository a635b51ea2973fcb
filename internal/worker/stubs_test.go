package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"ravito/internal/infra"
	"ravito/internal/model"
	"ravito/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func fastRetries(t *testing.T) {
	prev := retryBase
	retryBase = time.Millisecond
	t.Cleanup(func() { retryBase = prev })
}

// ── Sheets ────────────────────────────────────────────────────────────────────

type stubSheetRepo struct {
	repository.DailySheetRepository // unused methods panic

	mu       sync.Mutex
	sheets   map[uuid.UUID]*model.DailySheet
	pending  []model.DailySheet
	deferred map[uuid.UUID]time.Time
}

var _ repository.DailySheetRepository = (*stubSheetRepo)(nil)

func newStubSheetRepo() *stubSheetRepo {
	return &stubSheetRepo{sheets: map[uuid.UUID]*model.DailySheet{}, deferred: map[uuid.UUID]time.Time{}}
}

func (r *stubSheetRepo) FindByID(_ context.Context, id uuid.UUID) (*model.DailySheet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sheets[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubSheetRepo) RecordReport(_ context.Context, id uuid.UUID, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sheets[id].ReportPath = &path
	return nil
}

func (r *stubSheetRepo) RecordReportFailure(_ context.Context, id uuid.UUID, reason string, next time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.sheets[id]
	s.ReportAttempts++
	s.LastReportError = &reason
	s.NextReportAt = &next
	return nil
}

func (r *stubSheetRepo) ListPendingReports(_ context.Context, _ time.Time, _, limit int) ([]model.DailySheet, error) {
	if len(r.pending) > limit {
		return r.pending[:limit], nil
	}
	return r.pending, nil
}

func (r *stubSheetRepo) DeferReport(_ context.Context, id uuid.UUID, next time.Time) error {
	r.deferred[id] = next
	return nil
}

// ── Orgs / users ──────────────────────────────────────────────────────────────

type stubOrgRepo struct {
	repository.OrganizationRepository
	orgs map[uuid.UUID]*model.Organization
}

func (r *stubOrgRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Organization, error) {
	o, ok := r.orgs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return o, nil
}

type stubUserRepo struct {
	repository.UserRepository
	owners map[uuid.UUID]string
}

func (r *stubUserRepo) FindOwnerEmail(_ context.Context, orgID uuid.UUID) (string, error) {
	return r.owners[orgID], nil
}

// ── Storage / mail / queues ───────────────────────────────────────────────────

type memStorage struct {
	objects  map[string][]byte
	failures int // Put fails this many times first
	puts     int
}

func newMemStorage() *memStorage { return &memStorage{objects: map[string][]byte{}} }

func (s *memStorage) Put(_ context.Context, name string, data []byte, _ string) (string, error) {
	s.puts++
	if s.failures > 0 {
		s.failures--
		return "", errors.New("bucket unavailable")
	}
	s.objects[name] = data
	return name, nil
}

func (s *memStorage) Get(_ context.Context, name string) ([]byte, error) {
	d, ok := s.objects[name]
	if !ok {
		return nil, infra.ErrObjectNotFound
	}
	return d, nil
}

type stubMailer struct {
	enabled bool
	err     error
	sent    []infra.Message
	calls   int
}

func (m *stubMailer) Enabled() bool { return m.enabled }

func (m *stubMailer) Send(msg infra.Message) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type recordingQueue struct {
	emails  []EmailJobPayload
	reports []ClosureReportPayload
}

func (q *recordingQueue) EnqueueEmail(_ context.Context, p EmailJobPayload) error {
	q.emails = append(q.emails, p)
	return nil
}

func (q *recordingQueue) EnqueueClosureReport(_ context.Context, p ClosureReportPayload) error {
	q.reports = append(q.reports, p)
	return nil
}

type deadLetters struct {
	entries []DLQEntry
}

func (d *deadLetters) record(_ context.Context, queue, jobType string, payload json.RawMessage, reason string, attempts int) {
	d.entries = append(d.entries, DLQEntry{OriginalQueue: queue, JobType: jobType, Payload: payload, Reason: reason, Attempts: attempts})
}

func mustJSON(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carelens/carelens/internal/entity"
)

// NewMemoryStores returns store implementations backed by process memory.
// They serialize individual record reads/writes the same way the database
// stores do, and are used by tests and the no-database dev mode.
func NewMemoryStores() Stores {
	return Stores{
		Reports:     &memReportRepo{reports: map[uuid.UUID]entity.Report{}},
		Medications: &memMedicationRepo{meds: map[uuid.UUID]entity.Medication{}},
		Timeline:    &memTimelineRepo{entries: map[uuid.UUID]entity.TimelineEntry{}},
		ShareLinks:  &memShareLinkRepo{links: map[string]entity.ShareLink{}},
	}
}

type memReportRepo struct {
	mu      sync.RWMutex
	reports map[uuid.UUID]entity.Report
}

func (r *memReportRepo) Create(_ context.Context, rep *entity.Report) (*entity.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	now := time.Now().UTC()
	rep.CreatedAt = now
	rep.UpdatedAt = now
	r.reports[rep.ID] = *rep
	cp := *rep
	return &cp, nil
}

func (r *memReportRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rep, ok := r.reports[id]
	if !ok {
		return nil, nil
	}
	cp := rep
	return &cp, nil
}

func (r *memReportRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*entity.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.Report
	for _, rep := range r.reports {
		if rep.UserID == userID {
			cp := rep
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memReportRepo) Update(_ context.Context, id uuid.UUID, patch ReportPatch) (*entity.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep, ok := r.reports[id]
	if !ok {
		return nil, nil
	}
	if patch.ReportType != nil {
		rep.ReportType = *patch.ReportType
	}
	if patch.OriginalText != nil {
		rep.OriginalText = *patch.OriginalText
	}
	if patch.Analysis != nil {
		rep.Analysis = patch.Analysis
	}
	if patch.ExtractedData != nil {
		rep.ExtractedData = patch.ExtractedData
	}
	if patch.Summary != nil {
		rep.Summary = *patch.Summary
	}
	if patch.Status != nil {
		rep.Status = *patch.Status
	}
	rep.UpdatedAt = time.Now().UTC()
	r.reports[id] = rep
	cp := rep
	return &cp, nil
}

type memMedicationRepo struct {
	mu   sync.RWMutex
	meds map[uuid.UUID]entity.Medication
}

func (r *memMedicationRepo) Create(_ context.Context, m *entity.Medication) (*entity.Medication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	r.meds[m.ID] = *m
	cp := *m
	return &cp, nil
}

func (r *memMedicationRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*entity.Medication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.Medication
	for _, m := range r.meds {
		if m.UserID == userID {
			cp := m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memMedicationRepo) SetActive(_ context.Context, id, userID uuid.UUID, active bool) (*entity.Medication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meds[id]
	if !ok || m.UserID != userID {
		return nil, nil
	}
	m.IsActive = active
	m.UpdatedAt = time.Now().UTC()
	r.meds[id] = m
	cp := m
	return &cp, nil
}

type memTimelineRepo struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]entity.TimelineEntry
}

func (r *memTimelineRepo) Create(_ context.Context, e *entity.TimelineEntry) (*entity.TimelineEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	if e.OccurredAt.IsZero() {
		e.OccurredAt = now
	}
	r.entries[e.ID] = *e
	cp := *e
	return &cp, nil
}

func (r *memTimelineRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*entity.TimelineEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.TimelineEntry
	for _, e := range r.entries {
		if e.UserID == userID {
			cp := e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	return out, nil
}

type memShareLinkRepo struct {
	mu    sync.RWMutex
	links map[string]entity.ShareLink
}

func (r *memShareLinkRepo) Create(_ context.Context, s *entity.ShareLink) (*entity.ShareLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now().UTC()
	r.links[s.Token] = *s
	cp := *s
	return &cp, nil
}

func (r *memShareLinkRepo) GetByToken(_ context.Context, token string) (*entity.ShareLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.links[token]
	if !ok {
		return nil, nil
	}
	cp := s
	return &cp, nil
}

func (r *memShareLinkRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for tok, s := range r.links {
		if s.Expired(now) {
			delete(r.links, tok)
			n++
		}
	}
	return n, nil
}

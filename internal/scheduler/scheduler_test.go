package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

type visitRepoStub struct {
	repository.VisitRepository

	open      []model.StoreVisit
	updated   []model.StoreVisit
	updateErr map[uuid.UUID]error
}

func (s *visitRepoStub) ListOpenBefore(ctx context.Context, cutoff time.Time) ([]model.StoreVisit, error) {
	return s.open, nil
}

func (s *visitRepoStub) Update(ctx context.Context, visit *model.StoreVisit) error {
	if err := s.updateErr[visit.ID]; err != nil {
		return err
	}
	s.updated = append(s.updated, *visit)
	return nil
}

type auditRepoStub struct {
	repository.AuditRepository

	entries []model.AuditLog
}

func (s *auditRepoStub) Log(ctx context.Context, entry *model.AuditLog) error {
	s.entries = append(s.entries, *entry)
	return nil
}

type txStub struct{}

func (txStub) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

func openVisit() model.StoreVisit {
	return model.StoreVisit{
		ID:          uuid.New(),
		PCID:        uuid.New(),
		StoreID:     uuid.New(),
		CheckInTime: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		Status:      model.VisitCheckedIn,
	}
}

func TestSweepStaleVisits(t *testing.T) {
	visits := &visitRepoStub{open: []model.StoreVisit{openVisit(), openVisit()}}
	audit := &auditRepoStub{}
	s := New(visits, audit, txStub{})

	now := time.Date(2025, 3, 10, 23, 55, 0, 0, time.UTC)
	if err := s.SweepStaleVisits(context.Background(), now); err != nil {
		t.Fatalf("SweepStaleVisits() error = %v", err)
	}

	if len(visits.updated) != 2 {
		t.Fatalf("closed %d visits, want 2", len(visits.updated))
	}
	for _, v := range visits.updated {
		if v.Status != model.VisitCheckedOut {
			t.Errorf("status = %q, want %q", v.Status, model.VisitCheckedOut)
		}
		if v.CheckOutTime == nil || !v.CheckOutTime.Equal(now) {
			t.Errorf("check-out time = %v, want %v", v.CheckOutTime, now)
		}
		if v.CheckOutLat != nil || v.CheckOutLng != nil {
			t.Error("swept visit must keep a nil check-out location")
		}
	}

	if len(audit.entries) != 2 {
		t.Fatalf("audit entries = %d, want 2", len(audit.entries))
	}
	for _, e := range audit.entries {
		if e.Action != model.ActionAutoCheckOut {
			t.Errorf("audit action = %q, want %q", e.Action, model.ActionAutoCheckOut)
		}
		if e.UserID != nil {
			t.Error("automated sweep must log without a user")
		}
	}
}

func TestSweepContinuesPastFailures(t *testing.T) {
	bad := openVisit()
	good := openVisit()
	visits := &visitRepoStub{
		open:      []model.StoreVisit{bad, good},
		updateErr: map[uuid.UUID]error{bad.ID: errors.New("row locked")},
	}
	audit := &auditRepoStub{}
	s := New(visits, audit, txStub{})

	err := s.SweepStaleVisits(context.Background(), time.Now())
	if err == nil {
		t.Fatal("SweepStaleVisits() = nil, want error reporting the failed row")
	}

	if len(visits.updated) != 1 || visits.updated[0].ID != good.ID {
		t.Errorf("updated visits = %+v, want only the healthy one", visits.updated)
	}
	if len(audit.entries) != 1 {
		t.Errorf("audit entries = %d, want 1", len(audit.entries))
	}
}

func TestSweepNothingOpen(t *testing.T) {
	visits := &visitRepoStub{}
	audit := &auditRepoStub{}
	s := New(visits, audit, txStub{})

	if err := s.SweepStaleVisits(context.Background(), time.Now()); err != nil {
		t.Fatalf("SweepStaleVisits() error = %v", err)
	}
	if len(audit.entries) != 0 {
		t.Errorf("audit entries = %d, want 0", len(audit.entries))
	}
}

package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/robfig/cron/v3"
)

// Scheduler owns the background cron jobs. The only job today is the nightly
// sweep that force-closes visits a PC forgot to check out of, so the next
// day's check-in is not blocked by a dangling CHECKED_IN row.
type Scheduler struct {
	cron   *cron.Cron
	visits repository.VisitRepository
	audit  repository.AuditRepository
	tx     repository.TransactionManager
}

func New(visits repository.VisitRepository, audit repository.AuditRepository, tx repository.TransactionManager) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		visits: visits,
		audit:  audit,
		tx:     tx,
	}
}

// Start registers the jobs and launches the cron loop in its own goroutine.
func (s *Scheduler) Start() error {
	// 23:55 every day, just before the visit day rolls over
	if _, err := s.cron.AddFunc("55 23 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := s.SweepStaleVisits(ctx, time.Now()); err != nil {
			log.Printf("scheduler: stale visit sweep failed: %v", err)
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for any running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// SweepStaleVisits closes every visit still CHECKED_IN that started before
// now. Check-out time is set to the sweep time and the location stays empty,
// so swept visits remain distinguishable from real check-outs. Each visit is
// closed in its own transaction; one bad row does not abort the sweep.
func (s *Scheduler) SweepStaleVisits(ctx context.Context, now time.Time) error {
	stale, err := s.visits.ListOpenBefore(ctx, now)
	if err != nil {
		return fmt.Errorf("list open visits: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	var failed int
	for i := range stale {
		visit := &stale[i]
		err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			visit.Status = model.VisitCheckedOut
			visit.CheckOutTime = &now
			if err := s.visits.Update(txCtx, visit); err != nil {
				return err
			}
			return s.audit.Log(txCtx, &model.AuditLog{
				Action:   model.ActionAutoCheckOut,
				EntityID: visit.ID.String(),
				Details:  fmt.Sprintf(`{"pc_id":%q,"store_id":%q}`, visit.PCID, visit.StoreID),
			})
		})
		if err != nil {
			failed++
			log.Printf("scheduler: failed to close visit %s: %v", visit.ID, err)
		}
	}

	log.Printf("scheduler: swept %d stale visits (%d failed)", len(stale)-failed, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d stale visits could not be closed", failed, len(stale))
	}
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notifier pushes review/assignment events to connected mobile clients.
// The websocket hub satisfies it; tests pass nil-safe fakes.
type Notifier interface {
	Broadcast(event string, payload interface{})
}

// --- DTOs ---

type RejectRecordDTO struct {
	Reason string `json:"reason"`
}

type ApprovalFilter struct {
	PCID    string
	StoreID string
}

// ApprovalStats feeds the supervisor dashboard: per kind, per status counts.
type ApprovalStats struct {
	ByKind map[string]map[string]int64 `json:"by_kind"`
	Totals map[string]int64            `json:"totals"`
}

// --- Interface ---

type ApprovalService interface {
	Approve(ctx context.Context, kind, id, reviewerID string) error
	Reject(ctx context.Context, kind, id, reviewerID, reason string) error
	GetPendingApprovals(ctx context.Context, filter ApprovalFilter) ([]repository.ApprovalItem, error)
	GetRejectedRecords(ctx context.Context, pcID string) ([]repository.ApprovalItem, error)
	GetApprovalStats(ctx context.Context) (*ApprovalStats, error)
}

type approvalService struct {
	evidence repository.EvidenceRepository
	audit    repository.AuditRepository
	tx       repository.TransactionManager
	notifier Notifier
	now      func() time.Time
}

func NewApprovalService(
	evidence repository.EvidenceRepository,
	audit repository.AuditRepository,
	tx repository.TransactionManager,
	notifier Notifier,
) ApprovalService {
	return &approvalService{
		evidence: evidence,
		audit:    audit,
		tx:       tx,
		notifier: notifier,
		now:      time.Now,
	}
}

// --- Implementation ---

// review runs the shared PENDING → terminal transition for both decisions
func (s *approvalService) review(ctx context.Context, kind, id, reviewerID, decision, reason string) error {
	if !repository.ValidKind(kind) {
		return apperror.Validation(fmt.Sprintf("unknown evidence kind %q", kind))
	}
	recordID, err := uuid.Parse(id)
	if err != nil {
		return apperror.Validation("invalid record id")
	}
	reviewer, err := uuid.Parse(reviewerID)
	if err != nil {
		return apperror.Validation("invalid reviewer id")
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		moved, err := s.evidence.MarkReviewed(txCtx, kind, recordID, decision, reviewer, s.now(), reason)
		if err != nil {
			return err
		}
		if !moved {
			// Distinguish a missing record from one already decided
			status, statusErr := s.evidence.GetStatus(txCtx, kind, recordID)
			if statusErr != nil {
				if errors.Is(statusErr, gorm.ErrRecordNotFound) {
					return apperror.NotFound("record not found")
				}
				return statusErr
			}
			return apperror.Validation("record is already " + status)
		}

		action := model.ActionApproveRecord
		if decision == model.ReviewRejected {
			action = model.ActionRejectRecord
		}
		details, _ := json.Marshal(map[string]interface{}{
			"kind":   kind,
			"reason": reason,
		})
		return s.audit.Log(txCtx, &model.AuditLog{
			UserID:   &reviewer,
			Action:   action,
			EntityID: recordID.String(),
			Details:  string(details),
		})
	})
	if err != nil {
		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			return err
		}
		return apperror.Internal("failed to update record", err)
	}

	if s.notifier != nil {
		s.notifier.Broadcast("evidence_reviewed", map[string]interface{}{
			"kind":   kind,
			"id":     recordID.String(),
			"status": decision,
			"reason": reason,
		})
	}
	return nil
}

func (s *approvalService) Approve(ctx context.Context, kind, id, reviewerID string) error {
	return s.review(ctx, kind, id, reviewerID, model.ReviewApproved, "")
}

func (s *approvalService) Reject(ctx context.Context, kind, id, reviewerID, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return apperror.Validation("rejection reason is required")
	}
	return s.review(ctx, kind, id, reviewerID, model.ReviewRejected, reason)
}

func (s *approvalService) GetPendingApprovals(ctx context.Context, filter ApprovalFilter) ([]repository.ApprovalItem, error) {
	repoFilter := repository.EvidenceFilter{}
	if filter.PCID != "" {
		id, err := uuid.Parse(filter.PCID)
		if err != nil {
			return nil, apperror.Validation("invalid pc_id filter")
		}
		repoFilter.PCID = &id
	}
	if filter.StoreID != "" {
		id, err := uuid.Parse(filter.StoreID)
		if err != nil {
			return nil, apperror.Validation("invalid store_id filter")
		}
		repoFilter.StoreID = &id
	}

	items, err := s.evidence.ListByStatus(ctx, model.ReviewPending, repoFilter)
	if err != nil {
		return nil, apperror.Internal("failed to list pending approvals", err)
	}
	if items == nil {
		items = []repository.ApprovalItem{}
	}
	return items, nil
}

// GetRejectedRecords drives the PC's resubmission screen; a resubmission is
// simply a fresh evidence record, no linkage is persisted.
func (s *approvalService) GetRejectedRecords(ctx context.Context, pcID string) ([]repository.ApprovalItem, error) {
	id, err := uuid.Parse(pcID)
	if err != nil {
		return nil, apperror.Validation("invalid user id")
	}

	items, err := s.evidence.ListByStatus(ctx, model.ReviewRejected, repository.EvidenceFilter{PCID: &id})
	if err != nil {
		return nil, apperror.Internal("failed to list rejected records", err)
	}
	if items == nil {
		items = []repository.ApprovalItem{}
	}
	return items, nil
}

func (s *approvalService) GetApprovalStats(ctx context.Context) (*ApprovalStats, error) {
	byKind, err := s.evidence.CountByStatus(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to compute approval stats", err)
	}

	stats := &ApprovalStats{ByKind: byKind, Totals: make(map[string]int64)}
	for _, counts := range byKind {
		for status, n := range counts {
			stats.Totals[status] += n
		}
	}
	return stats, nil
}

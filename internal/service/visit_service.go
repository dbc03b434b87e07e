package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"backend/internal/config"
	"backend/internal/geo"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"gorm.io/gorm"
)

// --- DTOs ---

type Location struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

type CheckInRequest struct {
	StoreID  string   `json:"store_id" binding:"required"`
	Location Location `json:"location" binding:"required"`
}

type CheckOutRequest struct {
	VisitID  string   `json:"visit_id" binding:"required"`
	Location Location `json:"location" binding:"required"`
}

type CancelCheckInRequest struct {
	VisitID string `json:"visit_id" binding:"required"`
}

// CurrentVisitResponse joins the open visit with its checklist and progress
type CurrentVisitResponse struct {
	Visit *model.StoreVisit      `json:"visit"`
	Tasks []model.TaskAssignment `json:"tasks"`
	Stats model.VisitStats       `json:"stats"`
}

type VisitHistoryFilter struct {
	PCID    string
	StoreID string
	From    string // YYYY-MM-DD
	To      string // YYYY-MM-DD, inclusive
}

// --- Interface ---

type VisitService interface {
	CheckIn(ctx context.Context, pcID string, req CheckInRequest) (*model.StoreVisit, error)
	CheckOut(ctx context.Context, pcID string, req CheckOutRequest) (*model.StoreVisit, error)
	CancelCheckIn(ctx context.Context, pcID string, visitID string) error
	GetCurrentVisit(ctx context.Context, pcID string) (*CurrentVisitResponse, error)
	GetVisitHistory(ctx context.Context, actorID, actorRole string, filter VisitHistoryFilter) ([]model.StoreVisit, error)
}

type visitService struct {
	visits      repository.VisitRepository
	assignments repository.AssignmentRepository
	stores      repository.StoreRepository
	audit       repository.AuditRepository
	tx          repository.TransactionManager
	settings    *config.Settings
	now         func() time.Time
}

func NewVisitService(
	visits repository.VisitRepository,
	assignments repository.AssignmentRepository,
	stores repository.StoreRepository,
	audit repository.AuditRepository,
	tx repository.TransactionManager,
	settings *config.Settings,
) VisitService {
	return &visitService{
		visits:      visits,
		assignments: assignments,
		stores:      stores,
		audit:       audit,
		tx:          tx,
		settings:    settings,
		now:         time.Now,
	}
}

// --- Implementation ---

func (s *visitService) CheckIn(ctx context.Context, pcID string, req CheckInRequest) (*model.StoreVisit, error) {
	pc, err := uuid.Parse(pcID)
	if err != nil {
		return nil, apperror.Validation("invalid user id")
	}
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return nil, apperror.Validation("invalid store_id")
	}
	if req.Location.Latitude == nil || req.Location.Longitude == nil {
		return nil, apperror.Validation("location with latitude and longitude is required")
	}
	lat, lng := *req.Location.Latitude, *req.Location.Longitude
	if !geo.ValidCoordinate(lat, lng) {
		return nil, apperror.Validation("location could not be verified")
	}

	store, err := s.stores.GetByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("store not found")
		}
		return nil, apperror.Internal("failed to load store", err)
	}

	// Distance gate only applies when the store has a recorded geolocation
	if store.HasGeolocation() {
		distance := geo.Distance(
			orb.Point{lng, lat},
			orb.Point{*store.Longitude, *store.Latitude},
		)
		if !(distance <= s.settings.CheckInMaxDistanceM) { // NaN distance also fails the gate
			return nil, apperror.Validation(
				fmt.Sprintf("too far from store: %.0fm exceeds the allowed %.0fm", distance, s.settings.CheckInMaxDistanceM),
			).WithDetails(map[string]interface{}{
				"distance":     distance,
				"max_distance": s.settings.CheckInMaxDistanceM,
			})
		}
	}

	now := s.now()
	if _, err := s.visits.GetOpenVisit(ctx, pc, storeID, now); err == nil {
		return nil, apperror.Conflict("already checked in at this store today")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Internal("failed to check for open visit", err)
	}

	visit := &model.StoreVisit{
		StoreID:     storeID,
		PCID:        pc,
		CheckInTime: now,
		CheckInLat:  lat,
		CheckInLng:  lng,
		Status:      model.VisitCheckedIn,
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.visits.Create(txCtx, visit); err != nil {
			return err
		}

		// The default checklist is created here, in the same transaction as the
		// visit, instead of behind a database trigger.
		defaults := make([]model.TaskAssignment, 0, len(model.DefaultAssignmentTypes))
		for _, taskType := range model.DefaultAssignmentTypes {
			defaults = append(defaults, model.TaskAssignment{
				VisitID:    visit.ID,
				TaskType:   taskType,
				IsRequired: true,
				Status:     model.AssignmentPending,
			})
		}
		if err := s.assignments.CreateBatch(txCtx, defaults); err != nil {
			return err
		}

		details, _ := json.Marshal(map[string]interface{}{
			"store_id": storeID.String(),
			"lat":      lat,
			"lng":      lng,
		})
		return s.audit.Log(txCtx, &model.AuditLog{
			UserID:     &pc,
			Action:     model.ActionCheckIn,
			EntityID:   visit.ID.String(),
			EntityName: store.Name,
			Details:    string(details),
		})
	})
	if err != nil {
		// The partial unique index closes the window between the pre-read and
		// the insert; map its violation to the same conflict.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("already checked in at this store today")
		}
		return nil, apperror.Internal("failed to create visit", err)
	}

	loaded, err := s.visits.GetByID(ctx, visit.ID)
	if err != nil {
		return nil, apperror.Internal("failed to reload visit", err)
	}
	return loaded, nil
}

func (s *visitService) CheckOut(ctx context.Context, pcID string, req CheckOutRequest) (*model.StoreVisit, error) {
	pc, err := uuid.Parse(pcID)
	if err != nil {
		return nil, apperror.Validation("invalid user id")
	}
	visitID, err := uuid.Parse(req.VisitID)
	if err != nil {
		return nil, apperror.Validation("invalid visit_id")
	}
	if req.Location.Latitude == nil || req.Location.Longitude == nil {
		return nil, apperror.Validation("location with latitude and longitude is required")
	}
	if !geo.ValidCoordinate(*req.Location.Latitude, *req.Location.Longitude) {
		return nil, apperror.Validation("location could not be verified")
	}

	// A visit that is already checked out no longer matches the filter, so a
	// second check-out lands here as not-found.
	visit, err := s.visits.GetOwnedCheckedIn(ctx, visitID, pc)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("no open visit found")
		}
		return nil, apperror.Internal("failed to load visit", err)
	}

	// Read the checklist fresh rather than trusting the preloaded snapshot;
	// an evidence submission may have completed a task in the meantime.
	assignments, err := s.assignments.ListByVisit(ctx, visit.ID)
	if err != nil {
		return nil, apperror.Internal("failed to load checklist", err)
	}

	if incomplete := model.IncompleteRequiredTypes(assignments); len(incomplete) > 0 {
		return nil, apperror.Validation(
			"required tasks incomplete: "+strings.Join(incomplete, ", "),
		).WithDetails(map[string]interface{}{
			"incomplete_tasks": incomplete,
		})
	}

	now := s.now()
	visit.CheckOutTime = &now
	visit.CheckOutLat = req.Location.Latitude
	visit.CheckOutLng = req.Location.Longitude
	visit.Status = model.VisitCheckedOut

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.visits.Update(txCtx, visit); err != nil {
			return err
		}
		return s.audit.Log(txCtx, &model.AuditLog{
			UserID:   &pc,
			Action:   model.ActionCheckOut,
			EntityID: visit.ID.String(),
		})
	})
	if err != nil {
		return nil, apperror.Internal("failed to check out", err)
	}

	return visit, nil
}

// CancelCheckIn is the "checked in at the wrong store" escape hatch: a full
// undo that deletes the checklist and the visit, leaving no trace but the audit row.
func (s *visitService) CancelCheckIn(ctx context.Context, pcID string, visitID string) error {
	pc, err := uuid.Parse(pcID)
	if err != nil {
		return apperror.Validation("invalid user id")
	}
	id, err := uuid.Parse(visitID)
	if err != nil {
		return apperror.Validation("invalid visit_id")
	}

	visit, err := s.visits.GetOwnedCheckedIn(ctx, id, pc)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("no open visit found")
		}
		return apperror.Internal("failed to load visit", err)
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.assignments.DeleteByVisit(txCtx, visit.ID); err != nil {
			return err
		}
		if err := s.visits.Delete(txCtx, visit.ID); err != nil {
			return err
		}
		return s.audit.Log(txCtx, &model.AuditLog{
			UserID:   &pc,
			Action:   model.ActionCancelCheckIn,
			EntityID: visit.ID.String(),
		})
	})
	if err != nil {
		return apperror.Internal("failed to cancel check-in", err)
	}
	return nil
}

func (s *visitService) GetCurrentVisit(ctx context.Context, pcID string) (*CurrentVisitResponse, error) {
	pc, err := uuid.Parse(pcID)
	if err != nil {
		return nil, apperror.Validation("invalid user id")
	}

	visit, err := s.visits.GetCurrentVisit(ctx, pc, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No open visit is a normal state, not an error
			return &CurrentVisitResponse{Tasks: []model.TaskAssignment{}}, nil
		}
		return nil, apperror.Internal("failed to load current visit", err)
	}

	return &CurrentVisitResponse{
		Visit: visit,
		Tasks: visit.Assignments,
		Stats: model.ComputeStats(visit.Assignments),
	}, nil
}

func (s *visitService) GetVisitHistory(ctx context.Context, actorID, actorRole string, filter VisitHistoryFilter) ([]model.StoreVisit, error) {
	repoFilter := repository.VisitFilter{}

	// PCs only ever see their own history, whatever the filter says
	if actorRole == model.RolePC {
		filter.PCID = actorID
	}

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
	if filter.From != "" {
		t, err := time.Parse("2006-01-02", filter.From)
		if err != nil {
			return nil, apperror.Validation("invalid from date, expected YYYY-MM-DD")
		}
		repoFilter.From = &t
	}
	if filter.To != "" {
		t, err := time.Parse("2006-01-02", filter.To)
		if err != nil {
			return nil, apperror.Validation("invalid to date, expected YYYY-MM-DD")
		}
		end := t.Add(24 * time.Hour)
		repoFilter.To = &end
	}

	visits, err := s.visits.History(ctx, repoFilter)
	if err != nil {
		return nil, apperror.Internal("failed to query visit history", err)
	}
	return visits, nil
}

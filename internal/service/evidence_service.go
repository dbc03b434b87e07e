package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"backend/internal/config"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/storage"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

// PhotoUpload carries one multipart file from the handler into the service
type PhotoUpload struct {
	Filename string
	Reader   io.Reader
}

type SubmitOSARequest struct {
	StoreID      string
	Availability string // JSON object keyed by product code
	Photo        *PhotoUpload
}

type SubmitDisplayRequest struct {
	StoreID     string
	DisplayType string
	Cost        string // decimal string, e.g. "1500000.00"
	Photo       *PhotoUpload
}

type SubmitSurveyRequest struct {
	StoreID string
	Data    string // JSON payload, client-defined shape
	Photo   *PhotoUpload
}

type SubmitPromotionRequest struct {
	StoreID     string
	Description string
	Photo       *PhotoUpload
}

// --- Interface ---

type EvidenceService interface {
	SubmitOSA(ctx context.Context, pcID string, req SubmitOSARequest) (*model.OSARecord, error)
	SubmitDisplay(ctx context.Context, pcID string, req SubmitDisplayRequest) (*model.Display, error)
	SubmitSurvey(ctx context.Context, pcID string, req SubmitSurveyRequest) (*model.Survey, error)
	SubmitPromotion(ctx context.Context, pcID string, req SubmitPromotionRequest) (*model.Promotion, error)
}

type evidenceService struct {
	evidence    repository.EvidenceRepository
	visits      repository.VisitRepository
	assignments repository.AssignmentRepository
	tx          repository.TransactionManager
	photos      storage.PhotoStorage
	settings    *config.Settings
	now         func() time.Time
}

func NewEvidenceService(
	evidence repository.EvidenceRepository,
	visits repository.VisitRepository,
	assignments repository.AssignmentRepository,
	tx repository.TransactionManager,
	photos storage.PhotoStorage,
	settings *config.Settings,
) EvidenceService {
	return &evidenceService{
		evidence:    evidence,
		visits:      visits,
		assignments: assignments,
		tx:          tx,
		photos:      photos,
		settings:    settings,
		now:         time.Now,
	}
}

// --- Implementation ---

// resolveVisit finds the PC's open visit at the store for today. A missing
// visit is only an error under the strict evidence policy; otherwise the
// record is stored with a null visit reference and no checklist effect.
func (s *evidenceService) resolveVisit(ctx context.Context, pc, storeID uuid.UUID) (*uuid.UUID, error) {
	visit, err := s.visits.GetOpenVisit(ctx, pc, storeID, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if s.settings.EvidenceRequireVisit {
				return nil, apperror.Validation("no open visit at this store; check in before submitting")
			}
			return nil, nil
		}
		return nil, apperror.Internal("failed to resolve open visit", err)
	}
	return &visit.ID, nil
}

// uploadPhoto stores the file and returns its URL. The upload happens before
// the database transaction; an orphaned file on a later insert failure is accepted.
func (s *evidenceService) uploadPhoto(ctx context.Context, photo *PhotoUpload) (string, error) {
	if !storage.AllowedExtension(photo.Filename) {
		return "", apperror.Validation("unsupported file type; allowed: jpg, jpeg, png, webp, pdf")
	}
	url, err := s.photos.Save(ctx, photo.Filename, photo.Reader)
	if err != nil {
		return "", apperror.Internal("failed to store photo", err)
	}
	return url, nil
}

// completeChecklist flips the matching assignment inside the caller's
// transaction; a duplicate submission for an already-completed type is a no-op.
func (s *evidenceService) completeChecklist(txCtx context.Context, visitID *uuid.UUID, taskType string, recordID uuid.UUID) error {
	if visitID == nil {
		return nil
	}
	_, err := s.assignments.CompleteIfPending(txCtx, *visitID, taskType, recordID, s.now())
	return err
}

func parseActor(pcID, storeID string) (uuid.UUID, uuid.UUID, error) {
	pc, err := uuid.Parse(pcID)
	if err != nil {
		return uuid.Nil, uuid.Nil, apperror.Validation("invalid user id")
	}
	store, err := uuid.Parse(storeID)
	if err != nil {
		return uuid.Nil, uuid.Nil, apperror.Validation("invalid store_id")
	}
	return pc, store, nil
}

func validJSONObject(raw string) bool {
	var m map[string]interface{}
	return json.Unmarshal([]byte(raw), &m) == nil
}

func (s *evidenceService) SubmitOSA(ctx context.Context, pcID string, req SubmitOSARequest) (*model.OSARecord, error) {
	pc, storeID, err := parseActor(pcID, req.StoreID)
	if err != nil {
		return nil, err
	}
	if req.Availability == "" || !validJSONObject(req.Availability) {
		return nil, apperror.Validation("availability must be a JSON object")
	}
	if req.Photo == nil {
		return nil, apperror.Validation("photo is required")
	}

	visitID, err := s.resolveVisit(ctx, pc, storeID)
	if err != nil {
		return nil, err
	}

	photoURL, err := s.uploadPhoto(ctx, req.Photo)
	if err != nil {
		return nil, err
	}

	rec := &model.OSARecord{
		StoreID:      storeID,
		PCID:         pc,
		VisitID:      visitID,
		PhotoURL:     photoURL,
		Availability: req.Availability,
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.evidence.CreateOSA(txCtx, rec); err != nil {
			return err
		}
		return s.completeChecklist(txCtx, visitID, model.TaskTypeOSA, rec.ID)
	})
	if err != nil {
		return nil, apperror.Internal("failed to create OSA record", err)
	}
	return rec, nil
}

func (s *evidenceService) SubmitDisplay(ctx context.Context, pcID string, req SubmitDisplayRequest) (*model.Display, error) {
	pc, storeID, err := parseActor(pcID, req.StoreID)
	if err != nil {
		return nil, err
	}
	if req.DisplayType == "" {
		return nil, apperror.Validation("display_type is required")
	}
	cost, err := decimal.NewFromString(req.Cost)
	if err != nil || cost.IsNegative() {
		return nil, apperror.Validation("cost must be a non-negative decimal")
	}
	if req.Photo == nil {
		return nil, apperror.Validation("photo is required")
	}

	visitID, err := s.resolveVisit(ctx, pc, storeID)
	if err != nil {
		return nil, err
	}

	photoURL, err := s.uploadPhoto(ctx, req.Photo)
	if err != nil {
		return nil, err
	}

	rec := &model.Display{
		StoreID:     storeID,
		PCID:        pc,
		VisitID:     visitID,
		PhotoURL:    photoURL,
		DisplayType: req.DisplayType,
		Cost:        cost,
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.evidence.CreateDisplay(txCtx, rec); err != nil {
			return err
		}
		return s.completeChecklist(txCtx, visitID, model.TaskTypeDisplay, rec.ID)
	})
	if err != nil {
		return nil, apperror.Internal("failed to create display record", err)
	}
	return rec, nil
}

func (s *evidenceService) SubmitSurvey(ctx context.Context, pcID string, req SubmitSurveyRequest) (*model.Survey, error) {
	pc, storeID, err := parseActor(pcID, req.StoreID)
	if err != nil {
		return nil, err
	}
	if req.Data == "" || !validJSONObject(req.Data) {
		return nil, apperror.Validation("data must be a JSON object")
	}

	visitID, err := s.resolveVisit(ctx, pc, storeID)
	if err != nil {
		return nil, err
	}

	// Survey attachments are optional (the payload may stand alone)
	var photoURL string
	if req.Photo != nil {
		photoURL, err = s.uploadPhoto(ctx, req.Photo)
		if err != nil {
			return nil, err
		}
	}

	rec := &model.Survey{
		StoreID:  storeID,
		PCID:     pc,
		VisitID:  visitID,
		PhotoURL: photoURL,
		Data:     req.Data,
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.evidence.CreateSurvey(txCtx, rec); err != nil {
			return err
		}
		return s.completeChecklist(txCtx, visitID, model.TaskTypeSurvey, rec.ID)
	})
	if err != nil {
		return nil, apperror.Internal("failed to create survey record", err)
	}
	return rec, nil
}

// SubmitPromotion has no visit coupling and no checklist effect
func (s *evidenceService) SubmitPromotion(ctx context.Context, pcID string, req SubmitPromotionRequest) (*model.Promotion, error) {
	pc, storeID, err := parseActor(pcID, req.StoreID)
	if err != nil {
		return nil, err
	}
	if req.Photo == nil {
		return nil, apperror.Validation("photo is required")
	}

	photoURL, err := s.uploadPhoto(ctx, req.Photo)
	if err != nil {
		return nil, err
	}

	rec := &model.Promotion{
		StoreID:     storeID,
		PCID:        pc,
		PhotoURL:    photoURL,
		Description: req.Description,
	}
	if err := s.evidence.CreatePromotion(ctx, rec); err != nil {
		return nil, apperror.Internal("failed to create promotion record", err)
	}
	return rec, nil
}

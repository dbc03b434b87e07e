package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"backend/internal/config"
	"backend/internal/model"
	"backend/pkg/apperror"

	"github.com/google/uuid"
)

func newEvidenceService(evidence *evidenceRepoStub, visits *visitRepoStub, assignments *assignmentRepoStub, settings *config.Settings) (*evidenceService, *photoStorageStub) {
	photos := &photoStorageStub{}
	svc := &evidenceService{
		evidence:    evidence,
		visits:      visits,
		assignments: assignments,
		tx:          &txStub{},
		photos:      photos,
		settings:    settings,
		now:         fixedNow(time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)),
	}
	return svc, photos
}

func photo(name string) *PhotoUpload {
	return &PhotoUpload{Filename: name, Reader: strings.NewReader("fake image bytes")}
}

func TestSubmitOSACompletesChecklist(t *testing.T) {
	pcID := uuid.New()
	storeID := uuid.New()
	visitID := uuid.New()

	visits := &visitRepoStub{
		getOpenVisitFn: func(ctx context.Context, pc, store uuid.UUID, day time.Time) (*model.StoreVisit, error) {
			return &model.StoreVisit{ID: visitID, PCID: pc, StoreID: store, Status: model.VisitCheckedIn}, nil
		},
	}

	var completedType string
	var completedVisit uuid.UUID
	assignments := &assignmentRepoStub{
		completeIfPendingFn: func(ctx context.Context, vID uuid.UUID, taskType string, recordID uuid.UUID, at time.Time) (bool, error) {
			completedVisit, completedType = vID, taskType
			return true, nil
		},
	}

	svc, photos := newEvidenceService(&evidenceRepoStub{}, visits, assignments, &config.Settings{})
	rec, err := svc.SubmitOSA(context.Background(), pcID.String(), SubmitOSARequest{
		StoreID:      storeID.String(),
		Availability: `{"SKU-001": true, "SKU-002": false}`,
		Photo:        photo("shelf.jpg"),
	})
	if err != nil {
		t.Fatalf("SubmitOSA() error = %v", err)
	}

	if rec.VisitID == nil || *rec.VisitID != visitID {
		t.Errorf("record visit = %v, want %v", rec.VisitID, visitID)
	}
	if completedVisit != visitID || completedType != model.TaskTypeOSA {
		t.Errorf("checklist completion = (%v, %q), want (%v, OSA)", completedVisit, completedType, visitID)
	}
	if len(photos.saved) != 1 {
		t.Errorf("saved photos = %v, want exactly one", photos.saved)
	}
	if rec.PhotoURL == "" {
		t.Error("record has no photo URL")
	}
}

func TestSubmitOSADuplicateDoesNotDoubleCount(t *testing.T) {
	// CompleteIfPending moves no row when the OSA task is already COMPLETED or
	// when the visit carries no matching assignment. Either way the submission
	// still succeeds and a fresh record is stored; only the first submission
	// ever flips the checklist.
	visitID := uuid.New()
	visits := &visitRepoStub{
		getOpenVisitFn: func(ctx context.Context, pc, store uuid.UUID, day time.Time) (*model.StoreVisit, error) {
			return &model.StoreVisit{ID: visitID, PCID: pc, StoreID: store, Status: model.VisitCheckedIn}, nil
		},
	}

	for _, name := range []string{"task already completed", "no matching assignment"} {
		t.Run(name, func(t *testing.T) {
			var completeCalls int
			assignments := &assignmentRepoStub{
				completeIfPendingFn: func(ctx context.Context, vID uuid.UUID, taskType string, recordID uuid.UUID, at time.Time) (bool, error) {
					completeCalls++
					return false, nil
				},
			}
			var created *model.OSARecord
			evidence := &evidenceRepoStub{
				createOSAFn: func(ctx context.Context, rec *model.OSARecord) error {
					rec.ID = uuid.New()
					created = rec
					return nil
				},
			}

			svc, _ := newEvidenceService(evidence, visits, assignments, &config.Settings{})
			rec, err := svc.SubmitOSA(context.Background(), uuid.NewString(), SubmitOSARequest{
				StoreID:      uuid.NewString(),
				Availability: `{"SKU-001": true}`,
				Photo:        photo("shelf.jpg"),
			})
			if err != nil {
				t.Fatalf("SubmitOSA() error = %v", err)
			}
			if created == nil || created.ID != rec.ID {
				t.Fatalf("record not stored, created = %+v", created)
			}
			if rec.VisitID == nil || *rec.VisitID != visitID {
				t.Errorf("record visit = %v, want %v", rec.VisitID, visitID)
			}
			if completeCalls != 1 {
				t.Errorf("checklist attempts = %d, want 1", completeCalls)
			}
		})
	}
}

func TestSubmitOSAWithoutVisit(t *testing.T) {
	// No open visit: the lenient policy stores the record with a null visit
	// reference; the strict policy rejects it outright.
	req := SubmitOSARequest{
		StoreID:      uuid.NewString(),
		Availability: `{"SKU-001": true}`,
		Photo:        photo("shelf.jpg"),
	}

	t.Run("lenient policy stores unlinked", func(t *testing.T) {
		var completed bool
		assignments := &assignmentRepoStub{
			completeIfPendingFn: func(ctx context.Context, vID uuid.UUID, taskType string, recordID uuid.UUID, at time.Time) (bool, error) {
				completed = true
				return true, nil
			},
		}
		svc, _ := newEvidenceService(&evidenceRepoStub{}, &visitRepoStub{}, assignments, &config.Settings{})

		rec, err := svc.SubmitOSA(context.Background(), uuid.NewString(), req)
		if err != nil {
			t.Fatalf("SubmitOSA() error = %v", err)
		}
		if rec.VisitID != nil {
			t.Errorf("visit reference = %v, want nil", rec.VisitID)
		}
		if completed {
			t.Error("checklist touched with no open visit")
		}
	})

	t.Run("strict policy rejects", func(t *testing.T) {
		svc, photos := newEvidenceService(&evidenceRepoStub{}, &visitRepoStub{}, &assignmentRepoStub{}, &config.Settings{EvidenceRequireVisit: true})

		_, err := svc.SubmitOSA(context.Background(), uuid.NewString(), req)
		if apperror.StatusOf(err) != 400 {
			t.Fatalf("status = %d, want 400", apperror.StatusOf(err))
		}
		if len(photos.saved) != 0 {
			t.Errorf("photo stored despite rejection: %v", photos.saved)
		}
	})
}

func TestSubmitOSAValidation(t *testing.T) {
	svc, _ := newEvidenceService(&evidenceRepoStub{}, &visitRepoStub{}, &assignmentRepoStub{}, &config.Settings{})

	tests := []struct {
		name string
		req  SubmitOSARequest
	}{
		{"missing photo", SubmitOSARequest{StoreID: uuid.NewString(), Availability: `{"a":1}`}},
		{"availability not JSON", SubmitOSARequest{StoreID: uuid.NewString(), Availability: "not json", Photo: photo("a.jpg")}},
		{"availability empty", SubmitOSARequest{StoreID: uuid.NewString(), Photo: photo("a.jpg")}},
		{"bad extension", SubmitOSARequest{StoreID: uuid.NewString(), Availability: `{"a":1}`, Photo: photo("malware.exe")}},
		{"bad store id", SubmitOSARequest{StoreID: "nope", Availability: `{"a":1}`, Photo: photo("a.jpg")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitOSA(context.Background(), uuid.NewString(), tt.req)
			if apperror.StatusOf(err) != 400 {
				t.Errorf("status = %d, want 400", apperror.StatusOf(err))
			}
		})
	}
}

func TestSubmitDisplayCost(t *testing.T) {
	visits := &visitRepoStub{
		getOpenVisitFn: func(ctx context.Context, pc, store uuid.UUID, day time.Time) (*model.StoreVisit, error) {
			return &model.StoreVisit{ID: uuid.New(), Status: model.VisitCheckedIn}, nil
		},
	}

	base := SubmitDisplayRequest{
		StoreID:     uuid.NewString(),
		DisplayType: "END_CAP",
		Photo:       photo("display.png"),
	}

	t.Run("valid decimal accepted", func(t *testing.T) {
		svc, _ := newEvidenceService(&evidenceRepoStub{}, visits, &assignmentRepoStub{}, &config.Settings{})
		req := base
		req.Cost = "1500000.50"
		rec, err := svc.SubmitDisplay(context.Background(), uuid.NewString(), req)
		if err != nil {
			t.Fatalf("SubmitDisplay() error = %v", err)
		}
		if rec.Cost.String() != "1500000.5" {
			t.Errorf("cost = %s, want 1500000.5", rec.Cost)
		}
	})

	for _, cost := range []string{"", "abc", "-5"} {
		t.Run("rejects cost "+cost, func(t *testing.T) {
			svc, _ := newEvidenceService(&evidenceRepoStub{}, visits, &assignmentRepoStub{}, &config.Settings{})
			req := base
			req.Cost = cost
			_, err := svc.SubmitDisplay(context.Background(), uuid.NewString(), req)
			if apperror.StatusOf(err) != 400 {
				t.Errorf("status = %d, want 400", apperror.StatusOf(err))
			}
		})
	}
}

func TestSubmitSurveyPhotoOptional(t *testing.T) {
	visitID := uuid.New()
	visits := &visitRepoStub{
		getOpenVisitFn: func(ctx context.Context, pc, store uuid.UUID, day time.Time) (*model.StoreVisit, error) {
			return &model.StoreVisit{ID: visitID, Status: model.VisitCheckedIn}, nil
		},
	}

	var completedType string
	assignments := &assignmentRepoStub{
		completeIfPendingFn: func(ctx context.Context, vID uuid.UUID, taskType string, recordID uuid.UUID, at time.Time) (bool, error) {
			completedType = taskType
			return true, nil
		},
	}

	svc, photos := newEvidenceService(&evidenceRepoStub{}, visits, assignments, &config.Settings{})
	rec, err := svc.SubmitSurvey(context.Background(), uuid.NewString(), SubmitSurveyRequest{
		StoreID: uuid.NewString(),
		Data:    `{"q1": "yes", "q2": 4}`,
	})
	if err != nil {
		t.Fatalf("SubmitSurvey() error = %v", err)
	}
	if rec.PhotoURL != "" {
		t.Errorf("photo URL = %q, want empty", rec.PhotoURL)
	}
	if len(photos.saved) != 0 {
		t.Errorf("photos saved = %v, want none", photos.saved)
	}
	if completedType != model.TaskTypeSurvey {
		t.Errorf("completed task type = %q, want SURVEY", completedType)
	}
}

func TestSubmitPromotionSkipsVisitAndChecklist(t *testing.T) {
	// Promotions never resolve a visit and never touch the checklist, even
	// under the strict evidence policy.
	visits := &visitRepoStub{
		getOpenVisitFn: func(ctx context.Context, pc, store uuid.UUID, day time.Time) (*model.StoreVisit, error) {
			t.Fatal("promotion submission resolved a visit")
			return nil, nil
		},
	}
	assignments := &assignmentRepoStub{
		completeIfPendingFn: func(ctx context.Context, vID uuid.UUID, taskType string, recordID uuid.UUID, at time.Time) (bool, error) {
			t.Fatal("promotion submission touched the checklist")
			return false, nil
		},
	}

	svc, _ := newEvidenceService(&evidenceRepoStub{}, visits, assignments, &config.Settings{EvidenceRequireVisit: true})
	rec, err := svc.SubmitPromotion(context.Background(), uuid.NewString(), SubmitPromotionRequest{
		StoreID:     uuid.NewString(),
		Description: "2-for-1 endcap",
		Photo:       photo("promo.webp"),
	})
	if err != nil {
		t.Fatalf("SubmitPromotion() error = %v", err)
	}
	if rec.PhotoURL == "" {
		t.Error("record has no photo URL")
	}
}

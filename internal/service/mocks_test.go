package service

import (
	"context"
	"io"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Hand-rolled stubs for the repository interfaces. Each method delegates to a
// function field when set and falls back to an empty result otherwise, so a
// test only wires the calls it cares about.

type txStub struct {
	err error
}

func (t *txStub) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if t.err != nil {
		return t.err
	}
	return fn(ctx)
}

type visitRepoStub struct {
	createFn            func(ctx context.Context, visit *model.StoreVisit) error
	getByIDFn           func(ctx context.Context, id uuid.UUID) (*model.StoreVisit, error)
	getOwnedCheckedInFn func(ctx context.Context, id, pcID uuid.UUID) (*model.StoreVisit, error)
	getOpenVisitFn      func(ctx context.Context, pcID, storeID uuid.UUID, day time.Time) (*model.StoreVisit, error)
	getCurrentVisitFn   func(ctx context.Context, pcID uuid.UUID, day time.Time) (*model.StoreVisit, error)
	updateFn            func(ctx context.Context, visit *model.StoreVisit) error
	deleteFn            func(ctx context.Context, id uuid.UUID) error
	historyFn           func(ctx context.Context, filter repository.VisitFilter) ([]model.StoreVisit, error)
	listOpenBeforeFn    func(ctx context.Context, cutoff time.Time) ([]model.StoreVisit, error)
}

func (s *visitRepoStub) Create(ctx context.Context, visit *model.StoreVisit) error {
	if s.createFn != nil {
		return s.createFn(ctx, visit)
	}
	if visit.ID == uuid.Nil {
		visit.ID = uuid.New()
	}
	return nil
}

func (s *visitRepoStub) GetByID(ctx context.Context, id uuid.UUID) (*model.StoreVisit, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id)
	}
	return &model.StoreVisit{ID: id}, nil
}

func (s *visitRepoStub) GetOwnedCheckedIn(ctx context.Context, id, pcID uuid.UUID) (*model.StoreVisit, error) {
	if s.getOwnedCheckedInFn != nil {
		return s.getOwnedCheckedInFn(ctx, id, pcID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *visitRepoStub) GetOpenVisit(ctx context.Context, pcID, storeID uuid.UUID, day time.Time) (*model.StoreVisit, error) {
	if s.getOpenVisitFn != nil {
		return s.getOpenVisitFn(ctx, pcID, storeID, day)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *visitRepoStub) GetCurrentVisit(ctx context.Context, pcID uuid.UUID, day time.Time) (*model.StoreVisit, error) {
	if s.getCurrentVisitFn != nil {
		return s.getCurrentVisitFn(ctx, pcID, day)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *visitRepoStub) Update(ctx context.Context, visit *model.StoreVisit) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, visit)
	}
	return nil
}

func (s *visitRepoStub) Delete(ctx context.Context, id uuid.UUID) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

func (s *visitRepoStub) History(ctx context.Context, filter repository.VisitFilter) ([]model.StoreVisit, error) {
	if s.historyFn != nil {
		return s.historyFn(ctx, filter)
	}
	return nil, nil
}

func (s *visitRepoStub) ListOpenBefore(ctx context.Context, cutoff time.Time) ([]model.StoreVisit, error) {
	if s.listOpenBeforeFn != nil {
		return s.listOpenBeforeFn(ctx, cutoff)
	}
	return nil, nil
}

type assignmentRepoStub struct {
	createBatchFn       func(ctx context.Context, assignments []model.TaskAssignment) error
	listByVisitFn       func(ctx context.Context, visitID uuid.UUID) ([]model.TaskAssignment, error)
	completeIfPendingFn func(ctx context.Context, visitID uuid.UUID, taskType string, recordID uuid.UUID, at time.Time) (bool, error)
	deleteByVisitFn     func(ctx context.Context, visitID uuid.UUID) error
}

func (s *assignmentRepoStub) CreateBatch(ctx context.Context, assignments []model.TaskAssignment) error {
	if s.createBatchFn != nil {
		return s.createBatchFn(ctx, assignments)
	}
	return nil
}

func (s *assignmentRepoStub) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]model.TaskAssignment, error) {
	if s.listByVisitFn != nil {
		return s.listByVisitFn(ctx, visitID)
	}
	return nil, nil
}

func (s *assignmentRepoStub) CompleteIfPending(ctx context.Context, visitID uuid.UUID, taskType string, recordID uuid.UUID, at time.Time) (bool, error) {
	if s.completeIfPendingFn != nil {
		return s.completeIfPendingFn(ctx, visitID, taskType, recordID, at)
	}
	return true, nil
}

func (s *assignmentRepoStub) DeleteByVisit(ctx context.Context, visitID uuid.UUID) error {
	if s.deleteByVisitFn != nil {
		return s.deleteByVisitFn(ctx, visitID)
	}
	return nil
}

type storeRepoStub struct {
	createFn    func(ctx context.Context, store *model.Store) error
	getByIDFn   func(ctx context.Context, id uuid.UUID) (*model.Store, error)
	getByCodeFn func(ctx context.Context, code string) (*model.Store, error)
	listFn      func(ctx context.Context, filter repository.StoreFilter) ([]model.Store, int64, error)
	updateFn    func(ctx context.Context, store *model.Store) error
	deleteFn    func(ctx context.Context, id uuid.UUID) error
}

func (s *storeRepoStub) Create(ctx context.Context, store *model.Store) error {
	if s.createFn != nil {
		return s.createFn(ctx, store)
	}
	if store.ID == uuid.Nil {
		store.ID = uuid.New()
	}
	return nil
}

func (s *storeRepoStub) GetByID(ctx context.Context, id uuid.UUID) (*model.Store, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *storeRepoStub) GetByCode(ctx context.Context, code string) (*model.Store, error) {
	if s.getByCodeFn != nil {
		return s.getByCodeFn(ctx, code)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *storeRepoStub) List(ctx context.Context, filter repository.StoreFilter) ([]model.Store, int64, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return nil, 0, nil
}

func (s *storeRepoStub) Update(ctx context.Context, store *model.Store) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, store)
	}
	return nil
}

func (s *storeRepoStub) Delete(ctx context.Context, id uuid.UUID) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

type userRepoStub struct {
	createFn           func(ctx context.Context, user *model.User) error
	getByIDFn          func(ctx context.Context, id string) (*model.User, error)
	getByEmailFn       func(ctx context.Context, email string) (*model.User, error)
	getByUsernameFn    func(ctx context.Context, username string) (*model.User, error)
	getByExternalRefFn func(ctx context.Context, ref string) (*model.User, error)
	listFn             func(ctx context.Context, role string, page, limit int) ([]model.User, int64, error)
	updateFn           func(ctx context.Context, user *model.User) error
	deleteFn           func(ctx context.Context, id string) error
}

func (s *userRepoStub) Create(ctx context.Context, user *model.User) error {
	if s.createFn != nil {
		return s.createFn(ctx, user)
	}
	return nil
}

func (s *userRepoStub) GetByID(ctx context.Context, id string) (*model.User, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if s.getByEmailFn != nil {
		return s.getByEmailFn(ctx, email)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if s.getByUsernameFn != nil {
		return s.getByUsernameFn(ctx, username)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *userRepoStub) GetByExternalRef(ctx context.Context, ref string) (*model.User, error) {
	if s.getByExternalRefFn != nil {
		return s.getByExternalRefFn(ctx, ref)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *userRepoStub) List(ctx context.Context, role string, page, limit int) ([]model.User, int64, error) {
	if s.listFn != nil {
		return s.listFn(ctx, role, page, limit)
	}
	return nil, 0, nil
}

func (s *userRepoStub) Update(ctx context.Context, user *model.User) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, user)
	}
	return nil
}

func (s *userRepoStub) Delete(ctx context.Context, id string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

type tokenRepoStub struct {
	createFn        func(ctx context.Context, token *model.RefreshToken) error
	getByTokenFn    func(ctx context.Context, token string) (*model.RefreshToken, error)
	deleteFn        func(ctx context.Context, token string) error
	deleteForUserFn func(ctx context.Context, userID string) error
}

func (s *tokenRepoStub) Create(ctx context.Context, token *model.RefreshToken) error {
	if s.createFn != nil {
		return s.createFn(ctx, token)
	}
	return nil
}

func (s *tokenRepoStub) GetByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	if s.getByTokenFn != nil {
		return s.getByTokenFn(ctx, token)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *tokenRepoStub) Delete(ctx context.Context, token string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, token)
	}
	return nil
}

func (s *tokenRepoStub) DeleteForUser(ctx context.Context, userID string) error {
	if s.deleteForUserFn != nil {
		return s.deleteForUserFn(ctx, userID)
	}
	return nil
}

type taskRepoStub struct {
	createBatchFn     func(ctx context.Context, batch *model.TaskBatch) error
	createTasksFn     func(ctx context.Context, tasks []model.Task) error
	getBatchByIDFn    func(ctx context.Context, id uuid.UUID) (*model.TaskBatch, error)
	getTaskByIDFn     func(ctx context.Context, id uuid.UUID) (*model.Task, error)
	listFn            func(ctx context.Context, filter repository.TaskFilter) ([]model.Task, int64, error)
	listActiveForPCFn func(ctx context.Context, pcID uuid.UUID, day time.Time) ([]model.Task, error)
	updateTaskFn      func(ctx context.Context, task *model.Task) error
}

func (s *taskRepoStub) CreateBatch(ctx context.Context, batch *model.TaskBatch) error {
	if s.createBatchFn != nil {
		return s.createBatchFn(ctx, batch)
	}
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	return nil
}

func (s *taskRepoStub) CreateTasks(ctx context.Context, tasks []model.Task) error {
	if s.createTasksFn != nil {
		return s.createTasksFn(ctx, tasks)
	}
	return nil
}

func (s *taskRepoStub) GetBatchByID(ctx context.Context, id uuid.UUID) (*model.TaskBatch, error) {
	if s.getBatchByIDFn != nil {
		return s.getBatchByIDFn(ctx, id)
	}
	return &model.TaskBatch{ID: id}, nil
}

func (s *taskRepoStub) GetTaskByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	if s.getTaskByIDFn != nil {
		return s.getTaskByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *taskRepoStub) List(ctx context.Context, filter repository.TaskFilter) ([]model.Task, int64, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return nil, 0, nil
}

func (s *taskRepoStub) ListActiveForPC(ctx context.Context, pcID uuid.UUID, day time.Time) ([]model.Task, error) {
	if s.listActiveForPCFn != nil {
		return s.listActiveForPCFn(ctx, pcID, day)
	}
	return nil, nil
}

func (s *taskRepoStub) UpdateTask(ctx context.Context, task *model.Task) error {
	if s.updateTaskFn != nil {
		return s.updateTaskFn(ctx, task)
	}
	return nil
}

type evidenceRepoStub struct {
	createOSAFn       func(ctx context.Context, rec *model.OSARecord) error
	createDisplayFn   func(ctx context.Context, rec *model.Display) error
	createSurveyFn    func(ctx context.Context, rec *model.Survey) error
	createPromotionFn func(ctx context.Context, rec *model.Promotion) error
	getStatusFn       func(ctx context.Context, kind string, id uuid.UUID) (string, error)
	markReviewedFn    func(ctx context.Context, kind string, id uuid.UUID, status string, reviewerID uuid.UUID, at time.Time, reason string) (bool, error)
	listByStatusFn    func(ctx context.Context, status string, filter repository.EvidenceFilter) ([]repository.ApprovalItem, error)
	countByStatusFn   func(ctx context.Context) (map[string]map[string]int64, error)
}

func (s *evidenceRepoStub) CreateOSA(ctx context.Context, rec *model.OSARecord) error {
	if s.createOSAFn != nil {
		return s.createOSAFn(ctx, rec)
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	return nil
}

func (s *evidenceRepoStub) CreateDisplay(ctx context.Context, rec *model.Display) error {
	if s.createDisplayFn != nil {
		return s.createDisplayFn(ctx, rec)
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	return nil
}

func (s *evidenceRepoStub) CreateSurvey(ctx context.Context, rec *model.Survey) error {
	if s.createSurveyFn != nil {
		return s.createSurveyFn(ctx, rec)
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	return nil
}

func (s *evidenceRepoStub) CreatePromotion(ctx context.Context, rec *model.Promotion) error {
	if s.createPromotionFn != nil {
		return s.createPromotionFn(ctx, rec)
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	return nil
}

func (s *evidenceRepoStub) GetStatus(ctx context.Context, kind string, id uuid.UUID) (string, error) {
	if s.getStatusFn != nil {
		return s.getStatusFn(ctx, kind, id)
	}
	return "", gorm.ErrRecordNotFound
}

func (s *evidenceRepoStub) MarkReviewed(ctx context.Context, kind string, id uuid.UUID, status string, reviewerID uuid.UUID, at time.Time, reason string) (bool, error) {
	if s.markReviewedFn != nil {
		return s.markReviewedFn(ctx, kind, id, status, reviewerID, at, reason)
	}
	return true, nil
}

func (s *evidenceRepoStub) ListByStatus(ctx context.Context, status string, filter repository.EvidenceFilter) ([]repository.ApprovalItem, error) {
	if s.listByStatusFn != nil {
		return s.listByStatusFn(ctx, status, filter)
	}
	return nil, nil
}

func (s *evidenceRepoStub) CountByStatus(ctx context.Context) (map[string]map[string]int64, error) {
	if s.countByStatusFn != nil {
		return s.countByStatusFn(ctx)
	}
	return map[string]map[string]int64{}, nil
}

// auditRepoStub records every entry so tests can assert on the trail
type auditRepoStub struct {
	entries []model.AuditLog
}

func (s *auditRepoStub) Log(ctx context.Context, entry *model.AuditLog) error {
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *auditRepoStub) List(ctx context.Context, action string, page, limit int) ([]model.AuditLog, int64, error) {
	return s.entries, int64(len(s.entries)), nil
}

// notifierStub captures broadcast events
type notifierStub struct {
	events []string
}

func (s *notifierStub) Broadcast(event string, payload interface{}) {
	s.events = append(s.events, event)
}

// photoStorageStub pretends every upload lands at a fixed local URL
type photoStorageStub struct {
	saved []string
	err   error
}

func (s *photoStorageStub) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.saved = append(s.saved, filename)
	return "/uploads/" + filename, nil
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

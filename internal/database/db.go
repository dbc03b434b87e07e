package database

import (
	"log"

	"backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	// TranslateError turns the partial unique index violation on concurrent
	// check-ins into gorm.ErrDuplicatedKey, which the visit service maps to
	// the same "already checked in" conflict the pre-read produces.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Store{},
		&model.StoreVisit{},
		&model.TaskAssignment{},
		&model.TaskBatch{},
		&model.Task{},
		&model.OSARecord{},
		&model.Display{},
		&model.Survey{},
		&model.Promotion{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	if err := applyConstraints(db); err != nil {
		log.Println("WARNING: Failed to apply constraints:", err)
	}

	return db, nil
}

// applyConstraints adds the index and CHECK constraints AutoMigrate cannot express.
// The partial unique index is what turns two concurrent check-ins for the same
// (pc, store, day) into a deterministic unique violation instead of a duplicate row.
func applyConstraints(db *gorm.DB) error {
	statements := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_store_visits_open
			ON store_visits (pc_id, store_id, (check_in_time::date))
			WHERE status = 'CHECKED_IN'`,
		`ALTER TABLE store_visits DROP CONSTRAINT IF EXISTS chk_store_visits_status;
		 ALTER TABLE store_visits ADD CONSTRAINT chk_store_visits_status
			CHECK (status IN ('CHECKED_IN','CHECKED_OUT'))`,
		`ALTER TABLE task_assignments DROP CONSTRAINT IF EXISTS chk_task_assignments_type;
		 ALTER TABLE task_assignments ADD CONSTRAINT chk_task_assignments_type
			CHECK (task_type IN ('OSA','DISPLAY','SURVEY','PROMOTION'))`,
		`ALTER TABLE task_assignments DROP CONSTRAINT IF EXISTS chk_task_assignments_status;
		 ALTER TABLE task_assignments ADD CONSTRAINT chk_task_assignments_status
			CHECK (status IN ('PENDING','IN_PROGRESS','COMPLETED'))`,
		`ALTER TABLE tasks DROP CONSTRAINT IF EXISTS chk_tasks_type;
		 ALTER TABLE tasks ADD CONSTRAINT chk_tasks_type
			CHECK (type IN ('OSA','SPECIAL_DISPLAY','MARKET_INFORMATION','SURVEY'))`,
		`ALTER TABLE tasks DROP CONSTRAINT IF EXISTS chk_tasks_status;
		 ALTER TABLE tasks ADD CONSTRAINT chk_tasks_status
			CHECK (status IN ('PENDING','IN_PROGRESS','SUBMITTED','COMPLETED','APPROVED','REJECTED','CANCELLED'))`,
		`ALTER TABLE osa_records DROP CONSTRAINT IF EXISTS chk_osa_records_status;
		 ALTER TABLE osa_records ADD CONSTRAINT chk_osa_records_status
			CHECK (status IN ('PENDING','APPROVED','REJECTED'))`,
		`ALTER TABLE displays DROP CONSTRAINT IF EXISTS chk_displays_status;
		 ALTER TABLE displays ADD CONSTRAINT chk_displays_status
			CHECK (status IN ('PENDING','APPROVED','REJECTED'))`,
		`ALTER TABLE surveys DROP CONSTRAINT IF EXISTS chk_surveys_status;
		 ALTER TABLE surveys ADD CONSTRAINT chk_surveys_status
			CHECK (status IN ('PENDING','APPROVED','REJECTED'))`,
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

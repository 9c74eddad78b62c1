package repository

import (
	"context"
	"database/sql"
	"time"

	"router_dashboard/internal/models"
)

// Schedule store backends.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// ScheduleStore persists the single reboot schedule. Load reports found=false
// (and no error) when nothing was ever saved.
type ScheduleStore interface {
	Load(ctx context.Context) (s models.RebootSchedule, found bool, err error)
	Save(ctx context.Context, s models.RebootSchedule) error
}

type EventRepo interface {
	Append(ctx context.Context, e models.RouterEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.RouterEvent, error)
}

type Repository struct {
	ScheduleStore ScheduleStore
	EventRepo     EventRepo
}

// NewRepository wires the SQLite-backed repos; the schedule lives either in
// the JSON file at schedulePath or in the reboot_schedule table.
func NewRepository(db *sql.DB, scheduleStore, schedulePath string) *Repository {
	var store ScheduleStore
	if scheduleStore == StoreSQLite {
		store = NewScheduleSQLite(db)
	} else {
		store = NewScheduleFile(schedulePath)
	}
	return &Repository{
		ScheduleStore: store,
		EventRepo:     NewEventSQLite(db),
	}
}

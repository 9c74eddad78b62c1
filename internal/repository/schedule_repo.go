package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"router_dashboard/internal/models"
)

// ScheduleSQLite stores the schedule as the single reboot_schedule row (id=1).
type ScheduleSQLite struct {
	db *sql.DB
}

func NewScheduleSQLite(db *sql.DB) *ScheduleSQLite {
	return &ScheduleSQLite{db: db}
}

var _ ScheduleStore = (*ScheduleSQLite)(nil)

const (
	scheduleRowID = 1

	upsertScheduleSQL = `
		INSERT INTO reboot_schedule (id, enabled, days, at_time, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			enabled=excluded.enabled,
			days=excluded.days,
			at_time=excluded.at_time,
			updated_at=excluded.updated_at
	`

	selectScheduleSQL = `
		SELECT enabled, days, at_time FROM reboot_schedule WHERE id=?
	`
)

// marshalDays converts the day set to a JSON array string.
func marshalDays(days []int) (string, error) {
	if days == nil {
		days = []int{}
	}
	b, err := json.Marshal(days)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// unmarshalDays parses a JSON array string, never returning nil.
func unmarshalDays(s string) ([]int, error) {
	days := []int{}
	if s == "" {
		return days, nil
	}
	if err := json.Unmarshal([]byte(s), &days); err != nil {
		return nil, err
	}
	return days, nil
}

// Save upserts the single schedule row.
func (r *ScheduleSQLite) Save(ctx context.Context, s models.RebootSchedule) error {
	days, err := marshalDays(s.Days)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, upsertScheduleSQL,
		scheduleRowID,
		s.Enabled,
		days,
		s.Time,
		time.Now().UTC().Format(sqliteTimestamp),
	)
	if err != nil {
		return fmt.Errorf("upsert schedule: %w", err)
	}
	return nil
}

// Load fetches the single schedule row.
func (r *ScheduleSQLite) Load(ctx context.Context) (models.RebootSchedule, bool, error) {
	var (
		s    models.RebootSchedule
		days string
	)
	err := r.db.QueryRowContext(ctx, selectScheduleSQL, scheduleRowID).Scan(&s.Enabled, &days, &s.Time)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultRebootSchedule(), false, nil
		}
		return models.DefaultRebootSchedule(), false, fmt.Errorf("select schedule: %w", err)
	}
	if s.Days, err = unmarshalDays(days); err != nil {
		return models.DefaultRebootSchedule(), false, fmt.Errorf("decode schedule days: %w", err)
	}
	return s, true, nil
}

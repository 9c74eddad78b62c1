package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"router_dashboard/internal/models"
)

// ScheduleFile keeps the schedule as a small JSON document, next to the other
// device-credential files.
type ScheduleFile struct {
	path string
}

func NewScheduleFile(path string) *ScheduleFile {
	return &ScheduleFile{path: path}
}

var _ ScheduleStore = (*ScheduleFile)(nil)

// Load reads the whole record. A missing file is not an error.
func (f *ScheduleFile) Load(_ context.Context) (models.RebootSchedule, bool, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.DefaultRebootSchedule(), false, nil
		}
		return models.DefaultRebootSchedule(), false, fmt.Errorf("read schedule %q: %w", f.path, err)
	}

	s := models.DefaultRebootSchedule()
	if err := json.Unmarshal(b, &s); err != nil {
		return models.DefaultRebootSchedule(), false, fmt.Errorf("decode schedule %q: %w", f.path, err)
	}
	if s.Days == nil {
		s.Days = []int{}
	}
	return s, true, nil
}

// Save replaces the whole record via write-to-temp and rename.
func (f *ScheduleFile) Save(_ context.Context, s models.RebootSchedule) error {
	if s.Days == nil {
		s.Days = []int{}
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create schedule dir %q: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".reboot_schedule-*.json")
	if err != nil {
		return fmt.Errorf("create temp schedule: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp schedule: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp schedule: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace schedule %q: %w", f.path, err)
	}
	return nil
}

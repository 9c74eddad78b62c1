package models

// DefaultRebootTime is used when no schedule has ever been saved.
const DefaultRebootTime = "03:00"

// RebootSchedule is the single process-wide reboot plan.
type RebootSchedule struct {
	Enabled bool   `json:"enabled"`
	Days    []int  `json:"days"` // 0=Sunday .. 6=Saturday
	Time    string `json:"time"` // "HH:MM"
}

// DefaultRebootSchedule returns the disabled first-run schedule.
func DefaultRebootSchedule() RebootSchedule {
	return RebootSchedule{Enabled: false, Days: []int{}, Time: DefaultRebootTime}
}

// SchedulePatch carries the fields of an update request; nil means "keep".
type SchedulePatch struct {
	Enabled *bool   `json:"enabled,omitempty"`
	Days    *[]int  `json:"days,omitempty"`
	Time    *string `json:"time,omitempty"`
}

// Apply returns s with every non-nil field of p written over it.
func (p SchedulePatch) Apply(s RebootSchedule) RebootSchedule {
	out := s
	if p.Enabled != nil {
		out.Enabled = *p.Enabled
	}
	if p.Days != nil {
		out.Days = append([]int{}, (*p.Days)...)
	}
	if p.Time != nil {
		out.Time = *p.Time
	}
	if out.Days == nil {
		out.Days = []int{}
	}
	return out
}

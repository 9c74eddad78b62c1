package telemetry

import (
	"math"
	"sync"
	"time"

	"router_dashboard/internal/models"
)

// TimeLayout formats history timestamps for display.
const TimeLayout = "15:04:05"

// Reducer merges a stream of partial telemetry messages into a snapshot and a
// bounded history of derived points. The same reducer runs at the source and in
// consumers so both see identical history.
type Reducer[P any] struct {
	mu       sync.RWMutex
	snapshot models.Telemetry
	history  *Ring[P]
	derive   func(models.Telemetry, time.Time) P
	now      func() time.Time
}

// NewReducer builds a reducer that derives one point per message with derive.
func NewReducer[P any](capacity int, derive func(models.Telemetry, time.Time) P) *Reducer[P] {
	return &Reducer[P]{
		snapshot: models.Telemetry{},
		history:  NewRing[P](capacity),
		derive:   derive,
		now:      time.Now,
	}
}

// NewSystemReducer tracks temperatures (system_status messages).
func NewSystemReducer(capacity int) *Reducer[models.SystemPoint] {
	return NewReducer(capacity, SystemPointFrom)
}

// NewConnectionReducer tracks throughput (connection_status messages).
func NewConnectionReducer(capacity int) *Reducer[models.ConnectionPoint] {
	return NewReducer(capacity, ConnectionPointFrom)
}

// Apply merges msg over the snapshot (fields missing from msg keep their
// previous value), appends one derived point and returns it.
func (r *Reducer[P]) Apply(msg models.Telemetry) P {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, v := range msg {
		r.snapshot[k] = v
	}
	p := r.derive(msg, r.now())
	r.history.Push(p)
	return p
}

// Snapshot returns a shallow copy of the merged state.
func (r *Reducer[P]) Snapshot() models.Telemetry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(models.Telemetry, len(r.snapshot))
	for k, v := range r.snapshot {
		out[k] = v
	}
	return out
}

// History returns the buffered points, oldest first.
func (r *Reducer[P]) History() []P {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.history.Items()
}

// SystemPointFrom derives a temperature point from one message.
func SystemPointFrom(t models.Telemetry, at time.Time) models.SystemPoint {
	p := models.SystemPoint{Time: at.Format(TimeLayout)}
	if v, ok := MainCPU(t); ok {
		p.CPUMain = &v
	}
	if v, ok := numberField(t, models.FieldCPUBox); ok {
		p.CPUBox = &v
	}
	if v, ok := numberField(t, models.FieldSwitch); ok {
		p.SwitchTemp = &v
	}
	return p
}

// ConnectionPointFrom derives a throughput point (KB/s, one decimal) from one message.
func ConnectionPointFrom(t models.Telemetry, at time.Time) models.ConnectionPoint {
	down, _ := numberField(t, models.FieldRateDown)
	up, _ := numberField(t, models.FieldRateUp)
	return models.ConnectionPoint{
		Time:            at.Format(TimeLayout),
		DownloadRateKBs: toKBs(down),
		UploadRateKBs:   toKBs(up),
	}
}

func toKBs(bytesPerSec float64) float64 {
	return math.Round(bytesPerSec/1024*10) / 10
}

func numberField(t models.Telemetry, key string) (float64, bool) {
	v, ok := present(t, key)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

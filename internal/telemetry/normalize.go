// Package telemetry reconciles the two payload generations reported by the box
// (array-shaped sensors/fans and flat legacy fields) and keeps bounded history.
package telemetry

import (
	"encoding/json"
	"math"
	"strings"

	"router_dashboard/internal/models"
)

// flatSensorOrder is the order in which flat fields become synthesized sensors.
var flatSensorOrder = []string{
	models.FieldCPU0,
	models.FieldCPU1,
	models.FieldCPU2,
	models.FieldCPU3,
	models.FieldCPUMain,
	models.FieldCPUBox,
	models.FieldSwitch,
}

// synthesizedFanID is the id given to a fan built from the flat fan_rpm field.
const synthesizedFanID = "fan0_speed"

// Normalize returns a copy of raw that exposes both the sensors/fans arrays and
// the flat legacy fields whenever either shape can be derived. Malformed
// entries are dropped, never reported. The input is not modified.
func Normalize(raw models.Telemetry) models.Telemetry {
	out := make(models.Telemetry, len(raw)+4)
	for k, v := range raw {
		out[k] = v
	}
	// Re-added below only when non-empty.
	delete(out, models.FieldSensors)
	delete(out, models.FieldFans)

	sensors := readings(raw[models.FieldSensors])
	if len(sensors) > 0 {
		for i := range sensors {
			sensors[i].Name = displayName(sensors[i].ID, sensors[i].Name)
			if field, ok := legacyField(sensors[i].ID); ok && sensors[i].Value != nil {
				out[field] = sensors[i].Value
			}
		}
		out[models.FieldSensors] = sensors
	} else if synth := sensorsFromFlat(out); len(synth) > 0 {
		out[models.FieldSensors] = synth
	}

	if _, ok := present(out, models.FieldCPUMain); !ok {
		if mean, ok := coreMean(out); ok {
			out[models.FieldCPUMain] = mean
		}
	}

	fans := readings(raw[models.FieldFans])
	if len(fans) == 0 {
		fans = fansFromSensors(sensors)
	}
	if len(fans) > 0 {
		for i := range fans {
			fans[i].Name = displayName(fans[i].ID, fans[i].Name)
		}
		out[models.FieldFans] = fans
		if main, ok := mainFan(fans); ok {
			out[models.FieldFanRPM] = main.Value
		}
	} else if v, ok := present(out, models.FieldFanRPM); ok {
		out[models.FieldFans] = []models.Reading{{
			ID:    synthesizedFanID,
			Name:  displayName(synthesizedFanID, ""),
			Value: v,
		}}
	}

	return out
}

// MainCPU returns the main CPU temperature: the reported aggregate when it is
// numeric, else the rounded mean of the numeric per-core values.
func MainCPU(t models.Telemetry) (float64, bool) {
	if v, ok := present(t, models.FieldCPUMain); ok {
		if f, ok := toFloat(v); ok {
			return f, true
		}
	}
	return coreMean(t)
}

func coreMean(t models.Telemetry) (float64, bool) {
	var sum float64
	n := 0
	for _, field := range models.CoreFields {
		v, ok := present(t, field)
		if !ok {
			continue
		}
		if f, ok := toFloat(v); ok {
			sum += f
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return math.Round(sum / float64(n)), true
}

func sensorsFromFlat(t models.Telemetry) []models.Reading {
	var out []models.Reading
	for _, field := range flatSensorOrder {
		v, ok := present(t, field)
		if !ok {
			continue
		}
		out = append(out, models.Reading{ID: field, Name: displayName(field, ""), Value: v})
	}
	return out
}

func fansFromSensors(sensors []models.Reading) []models.Reading {
	var out []models.Reading
	for _, s := range sensors {
		if isFanID(s.ID) {
			out = append(out, s)
		}
	}
	return out
}

// mainFan picks the main-fan alias, else the first fan. Fans without a
// value are skipped.
func mainFan(fans []models.Reading) (models.Reading, bool) {
	first := -1
	for i, f := range fans {
		if f.Value == nil {
			continue
		}
		if isMainFan(f.ID) {
			return f, true
		}
		if first < 0 {
			first = i
		}
	}
	if first < 0 {
		return models.Reading{}, false
	}
	return fans[first], true
}

// readings decodes an array-shaped field. Entries without a string id are
// skipped. The result never aliases the input.
func readings(v any) []models.Reading {
	var out []models.Reading
	switch list := v.(type) {
	case []models.Reading:
		for _, r := range list {
			if strings.TrimSpace(r.ID) != "" {
				out = append(out, r)
			}
		}
	case []any:
		for _, e := range list {
			switch entry := e.(type) {
			case map[string]any:
				if r, ok := readingFromMap(entry); ok {
					out = append(out, r)
				}
			case models.Reading:
				if strings.TrimSpace(entry.ID) != "" {
					out = append(out, entry)
				}
			}
		}
	case []map[string]any:
		for _, entry := range list {
			if r, ok := readingFromMap(entry); ok {
				out = append(out, r)
			}
		}
	}
	return out
}

func readingFromMap(m map[string]any) (models.Reading, bool) {
	id, ok := m["id"].(string)
	if !ok || strings.TrimSpace(id) == "" {
		return models.Reading{}, false
	}
	name, _ := m["name"].(string)
	return models.Reading{ID: id, Name: name, Value: m["value"]}, true
}

func present(t models.Telemetry, key string) (any, bool) {
	v, ok := t[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

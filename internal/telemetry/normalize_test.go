package telemetry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"router_dashboard/internal/models"
)

func decode(t *testing.T, s string) models.Telemetry {
	t.Helper()
	var out models.Telemetry
	require.NoError(t, json.Unmarshal([]byte(s), &out))
	return out
}

func sensorsOf(t *testing.T, tel models.Telemetry, key string) []models.Reading {
	t.Helper()
	v, ok := tel[key]
	require.True(t, ok, "missing %s", key)
	rs, ok := v.([]models.Reading)
	require.True(t, ok, "%s has type %T", key, v)
	return rs
}

func TestNormalize_FlatCoresDeriveMainCPU(t *testing.T) {
	raw := decode(t, `{"temp_cpu0":40,"temp_cpu1":42,"temp_cpu2":41,"temp_cpu3":43}`)

	out := Normalize(raw)

	assert.Equal(t, 42.0, out[models.FieldCPUMain])
	sensors := sensorsOf(t, out, models.FieldSensors)
	require.Len(t, sensors, 4)
	assert.Equal(t, models.FieldCPU0, sensors[0].ID)
	assert.Equal(t, "CPU Core 0", sensors[0].Name)
	assert.Equal(t, models.FieldCPU3, sensors[3].ID)
	_, hasFans := out[models.FieldFans]
	assert.False(t, hasFans)
}

func TestNormalize_FanInSensorsArray(t *testing.T) {
	raw := decode(t, `{"sensors":[{"id":"fan0_speed","name":"","value":1200}]}`)

	out := Normalize(raw)

	assert.Equal(t, 1200.0, out[models.FieldFanRPM])
	fans := sensorsOf(t, out, models.FieldFans)
	require.Len(t, fans, 1)
	assert.Equal(t, "Main Fan", fans[0].Name)
}

func TestNormalize_ArrayShapeFeedsFlatFields(t *testing.T) {
	raw := decode(t, `{
		"uptime": "3 days",
		"sensors": [
			{"id":"temp_cpu0","name":"Température CPU 0","value":50},
			{"id":"temp_cpu1","name":"Température CPU 1","value":53},
			{"id":"temp_cpu_b","name":"Température CPU B","value":47},
			{"id":"temp_sw","name":"Température Switch","value":45},
			{"id":"temp_t9","name":"Température Extra","value":30},
			{"id":"temp_weird_probe","value":31}
		],
		"fans": [
			{"id":"fan1_speed","name":"Ventilateur 2","value":900},
			{"id":"fan0_speed","name":"Ventilateur 1","value":1500}
		]
	}`)

	out := Normalize(raw)

	assert.Equal(t, "3 days", out["uptime"], "unknown vendor fields are preserved")
	assert.Equal(t, 50.0, out[models.FieldCPU0])
	assert.Equal(t, 53.0, out[models.FieldCPU1])
	assert.Equal(t, 47.0, out[models.FieldCPUBox])
	assert.Equal(t, 45.0, out[models.FieldSwitch])
	assert.Equal(t, 52.0, out[models.FieldCPUMain], "round(51.5)")
	assert.Equal(t, 1500.0, out[models.FieldFanRPM], "main fan alias wins over order")

	sensors := sensorsOf(t, out, models.FieldSensors)
	require.Len(t, sensors, 6)
	assert.Equal(t, "CPU Core 0", sensors[0].Name)
	assert.Equal(t, "Extra", sensors[4].Name)
	assert.Equal(t, "Temp Weird Probe", sensors[5].Name)
}

func TestNormalize_ExplicitAggregateKept(t *testing.T) {
	raw := decode(t, `{"temp_cpum":60,"temp_cpu0":40,"temp_cpu1":50}`)

	out := Normalize(raw)

	assert.Equal(t, 60.0, out[models.FieldCPUMain])
	sensors := sensorsOf(t, out, models.FieldSensors)
	require.Len(t, sensors, 3)
	assert.Equal(t, []string{models.FieldCPU0, models.FieldCPU1, models.FieldCPUMain},
		[]string{sensors[0].ID, sensors[1].ID, sensors[2].ID})
}

func TestNormalize_FlatFanSynthesizesArray(t *testing.T) {
	out := Normalize(models.Telemetry{models.FieldFanRPM: 1100.0})

	fans := sensorsOf(t, out, models.FieldFans)
	require.Len(t, fans, 1)
	assert.Equal(t, 1100.0, fans[0].Value)
	assert.Equal(t, "Main Fan", fans[0].Name)
}

func TestNormalize_NothingDerivable(t *testing.T) {
	raw := decode(t, `{"sensors":[],"fans":[],"uptime_val":42}`)

	out := Normalize(raw)

	assert.NotContains(t, out, models.FieldSensors)
	assert.NotContains(t, out, models.FieldFans)
	assert.NotContains(t, out, models.FieldCPUMain)
	assert.NotContains(t, out, models.FieldFanRPM)
	assert.Equal(t, 42.0, out["uptime_val"])
}

func TestNormalize_MalformedEntriesDropped(t *testing.T) {
	raw := models.Telemetry{
		models.FieldSensors: []any{"garbage", map[string]any{"name": "no id"}, 7},
		models.FieldCPU0:    41.0,
	}

	out := Normalize(raw)

	sensors := sensorsOf(t, out, models.FieldSensors)
	require.Len(t, sensors, 1, "falls back to the flat shape")
	assert.Equal(t, models.FieldCPU0, sensors[0].ID)
	assert.Equal(t, 41.0, out[models.FieldCPUMain])
}

func TestNormalize_ReadingsWithoutValueLeaveFlatFields(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		field string
		want  any
	}{
		{
			name:  "sensor without value keeps reported main cpu",
			raw:   `{"temp_cpum":61,"sensors":[{"id":"temp_cpum","name":"x"}]}`,
			field: models.FieldCPUMain,
			want:  61.0,
		},
		{
			name:  "fan without value keeps reported fan_rpm",
			raw:   `{"fan_rpm":1200,"fans":[{"id":"fan0_speed"}]}`,
			field: models.FieldFanRPM,
			want:  1200.0,
		},
		{
			name:  "main fan without value falls back to next fan",
			raw:   `{"fans":[{"id":"fan0_speed"},{"id":"fan1_speed","value":900}]}`,
			field: models.FieldFanRPM,
			want:  900.0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := Normalize(decode(t, tc.raw))
			assert.Equal(t, tc.want, out[tc.field])
		})
	}
}

func TestNormalize_NoValueAnywhereLeavesFieldAbsent(t *testing.T) {
	out := Normalize(decode(t, `{"sensors":[{"id":"temp_cpum"}],"fans":[{"id":"fan0_speed"}]}`))

	_, ok := out[models.FieldCPUMain]
	assert.False(t, ok, "temp_cpum must not be emitted as null")
	_, ok = out[models.FieldFanRPM]
	assert.False(t, ok, "fan_rpm must not be emitted as null")
}

func TestNormalize_NonNumericExcludedFromMean(t *testing.T) {
	raw := models.Telemetry{
		models.FieldCPU0: 40.0,
		models.FieldCPU1: "n/a",
		models.FieldCPU2: 44.0,
	}

	out := Normalize(raw)

	assert.Equal(t, 42.0, out[models.FieldCPUMain])
	assert.Equal(t, "n/a", out[models.FieldCPU1])
}

func TestNormalize_NoNumericCoresLeavesMainAbsent(t *testing.T) {
	out := Normalize(models.Telemetry{models.FieldCPU0: "hot"})

	assert.NotContains(t, out, models.FieldCPUMain)
	assert.Len(t, sensorsOf(t, out, models.FieldSensors), 1)
}

func TestNormalize_DuplicatesPassThrough(t *testing.T) {
	raw := decode(t, `{"sensors":[{"id":"temp_sw","value":40},{"id":"temp_sw","value":41}]}`)

	out := Normalize(raw)

	assert.Len(t, sensorsOf(t, out, models.FieldSensors), 2)
	assert.Equal(t, 41.0, out[models.FieldSwitch])
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	raw := decode(t, `{"sensors":[{"id":"temp_cpum","name":"Température CPU M","value":55}]}`)
	before, err := json.Marshal(raw)
	require.NoError(t, err)

	_ = Normalize(raw)

	after, err := json.Marshal(raw)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		`{"temp_cpu0":40,"temp_cpu1":42,"temp_cpu2":41,"temp_cpu3":43,"fan_rpm":900}`,
		`{"sensors":[{"id":"temp_cpu0","value":50},{"id":"temp_cpu1","value":51}],"fans":[{"id":"fan1_speed","value":800}]}`,
		`{"sensors":[{"id":"fan0_speed","name":"","value":1200},{"id":"temp_hdd0","name":"Température Disque","value":35}]}`,
		`{"temp_cpum":61,"temp_cpub":50,"temp_sw":44}`,
		`{"uptime":"1h"}`,
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			once := Normalize(decode(t, in))
			twice := Normalize(once)

			a, err := json.Marshal(once)
			require.NoError(t, err)
			b, err := json.Marshal(twice)
			require.NoError(t, err)
			assert.JSONEq(t, string(a), string(b))
		})
	}
}

func TestMainCPU(t *testing.T) {
	cases := []struct {
		name string
		in   models.Telemetry
		want float64
		ok   bool
	}{
		{"aggregate", models.Telemetry{models.FieldCPUMain: 70.0, models.FieldCPU0: 10.0}, 70, true},
		{"cores", models.Telemetry{models.FieldCPU0: 10.0, models.FieldCPU1: 11.0}, 11, true},
		{"non-numeric aggregate falls back", models.Telemetry{models.FieldCPUMain: "x", models.FieldCPU0: 10.0}, 10, true},
		{"nothing", models.Telemetry{}, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := MainCPU(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "CPU Main", displayName("temp_cpum", "whatever"))
	assert.Equal(t, "Disque 1", displayName("temp_hdd9", "Température Disque 1"))
	assert.Equal(t, "Temp Board X", displayName("temp_board_x", ""))
	assert.Equal(t, "Temp Board X", displayName("temp_board_x", "Température "))
}

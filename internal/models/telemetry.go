package models

// Telemetry is an untyped vendor payload. Normalized telemetry uses the same type
// and carries both the array-shaped and the flat legacy fields.
type Telemetry map[string]any

// Legacy flat fields exposed by older firmware.
const (
	FieldCPU0    = "temp_cpu0"
	FieldCPU1    = "temp_cpu1"
	FieldCPU2    = "temp_cpu2"
	FieldCPU3    = "temp_cpu3"
	FieldCPUMain = "temp_cpum"
	FieldCPUBox  = "temp_cpub"
	FieldSwitch  = "temp_sw"
	FieldFanRPM  = "fan_rpm"

	FieldSensors = "sensors"
	FieldFans    = "fans"

	FieldRateDown = "rate_down" // bytes/s
	FieldRateUp   = "rate_up"   // bytes/s
)

// CoreFields lists the per-core temperature fields in display order.
var CoreFields = []string{FieldCPU0, FieldCPU1, FieldCPU2, FieldCPU3}

// Reading is one entry of the sensors or fans arrays. ID is the identity key;
// Name is presentation only.
type Reading struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// DeviceVersion describes the upstream box and its API generation.
type DeviceVersion struct {
	Model      string `json:"box_model_name,omitempty"`
	APIVersion string `json:"api_version"`
	DeviceName string `json:"device_name,omitempty"`
}

package models

// SystemPoint is one temperature history sample.
type SystemPoint struct {
	Time       string   `json:"time"`
	CPUMain    *float64 `json:"cpuMain,omitempty"`
	CPUBox     *float64 `json:"cpuBox,omitempty"`
	SwitchTemp *float64 `json:"switchTemp,omitempty"`
}

// ConnectionPoint is one throughput history sample.
type ConnectionPoint struct {
	Time            string  `json:"time"`
	DownloadRateKBs float64 `json:"downloadRateKBs"`
	UploadRateKBs   float64 `json:"uploadRateKBs"`
}

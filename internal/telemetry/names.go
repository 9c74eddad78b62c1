package telemetry

import (
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"router_dashboard/internal/models"
)

const nameCacheSize = 256

// displayNames maps vendor sensor/fan ids to the labels the dashboard shows.
var displayNames = map[string]string{
	models.FieldCPU0:    "CPU Core 0",
	models.FieldCPU1:    "CPU Core 1",
	models.FieldCPU2:    "CPU Core 2",
	models.FieldCPU3:    "CPU Core 3",
	models.FieldCPUMain: "CPU Main",
	models.FieldCPUBox:  "CPU Box",
	models.FieldSwitch:  "Switch",
	"temp_hdd":          "Hard Disk",
	"temp_hdd0":         "Hard Disk",
	"temp_t1":           "Board 1",
	"temp_t2":           "Board 2",
	"temp_t3":           "Board 3",

	// fans
	"fan0_speed":       "Main Fan",
	"fan1_speed":       "Secondary Fan",
	models.FieldFanRPM: "Main Fan",
	"main_fan":         "Main Fan",
}

// sensorAliases maps short codes (id with the "temp_" prefix removed) to the
// legacy flat field they feed.
var sensorAliases = map[string]string{
	"cpum":   models.FieldCPUMain,
	"cpu_m":  models.FieldCPUMain,
	"cpub":   models.FieldCPUBox,
	"cpu_b":  models.FieldCPUBox,
	"sw":     models.FieldSwitch,
	"switch": models.FieldSwitch,
	"cpu0":   models.FieldCPU0,
	"cpu_0":  models.FieldCPU0,
	"cpu1":   models.FieldCPU1,
	"cpu_1":  models.FieldCPU1,
	"cpu2":   models.FieldCPU2,
	"cpu_2":  models.FieldCPU2,
	"cpu3":   models.FieldCPU3,
	"cpu_3":  models.FieldCPU3,
}

// mainFanAliases are ids that designate the fan reported as fan_rpm.
var mainFanAliases = map[string]bool{
	"fan0_speed":       true,
	"fan0":             true,
	"main_fan":         true,
	models.FieldFanRPM: true,
}

var legacyTempFields = map[string]bool{
	models.FieldCPU0:    true,
	models.FieldCPU1:    true,
	models.FieldCPU2:    true,
	models.FieldCPU3:    true,
	models.FieldCPUMain: true,
	models.FieldCPUBox:  true,
	models.FieldSwitch:  true,
}

var localizedPrefixes = []string{"Température", "Temperature"}

var cleanedNames *lru.Cache

func init() {
	c, err := lru.New(nameCacheSize)
	if err != nil {
		panic(err)
	}
	cleanedNames = c
}

// displayName resolves the label for a reading: lookup table, then the supplied
// name without its localized prefix, then a cleaned-up id.
func displayName(id, name string) string {
	if n, ok := displayNames[strings.ToLower(id)]; ok {
		return n
	}
	if name = stripLocalizedPrefix(strings.TrimSpace(name)); name != "" {
		return name
	}
	return cleanID(id)
}

// stripLocalizedPrefix turns "Température CPU M" into "CPU M".
func stripLocalizedPrefix(name string) string {
	for _, p := range localizedPrefixes {
		if rest, ok := strings.CutPrefix(name, p); ok && (rest == "" || rest[0] == ' ') {
			return strings.TrimSpace(rest)
		}
	}
	return name
}

// cleanID turns "temp_hdd0" into "Temp Hdd0".
func cleanID(id string) string {
	if v, ok := cleanedNames.Get(id); ok {
		return v.(string)
	}
	// Casers are stateful, one per call.
	s := cases.Title(language.Und).String(strings.TrimSpace(strings.ReplaceAll(id, "_", " ")))
	cleanedNames.Add(id, s)
	return s
}

// legacyField reports which flat field a sensor id feeds, if any.
func legacyField(id string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(id))
	if legacyTempFields[lower] {
		return lower, true
	}
	f, ok := sensorAliases[strings.TrimPrefix(lower, "temp_")]
	return f, ok
}

func isMainFan(id string) bool {
	return mainFanAliases[strings.ToLower(id)]
}

func isFanID(id string) bool {
	lower := strings.ToLower(id)
	return mainFanAliases[lower] || strings.Contains(lower, "fan")
}

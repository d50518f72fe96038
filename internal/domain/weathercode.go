package domain

import "strings"

// conditionCodes maps Climacell condition strings onto the driver's 1..23
// enumeration; 0 is reserved for anything not listed.
var conditionCodes = map[string]int{
	"freezing_rain_heavy": 1,
	"freezing_rain":       2,
	"freezing_rain_light": 3,
	"freezing_drizzle":    4,
	"ice_pellets_heavy":   5,
	"ice_pellets":         6,
	"ice_pellets_light":   7,
	"snow_heavy":          8,
	"snow":                9,
	"snow_light":          10,
	"flurries":            11,
	"tstorm":              12,
	"rain_heavy":          13,
	"rain":                14,
	"rain_light":          15,
	"drizzle":             16,
	"fog_light":           17,
	"fog":                 18,
	"cloudy":              19,
	"mostly_cloudy":       20,
	"partly_cloudy":       21,
	"mostly_clear":        22,
	"clear":               23,
}

// moonPhases maps moon phase names onto the five-point display scale.
// Waning phases share the value of their waxing counterpart.
var moonPhases = map[string]float64{
	"new_moon":        0.0,
	"waxing_crescent": 0.25,
	"first_quarter":   0.5,
	"waxing_gibbous":  0.75,
	"full_moon":       1.0,
	"waning_gibbous":  0.75,
	"third_quarter":   0.5,
	"waning_crescent": 0.25,
}

// TranslateCondition returns the numeric condition for a provider code, or 0
// when the code is unknown.
func TranslateCondition(code string) int {
	return conditionCodes[normalizeCode(code)]
}

// TranslateMoonPhase returns the display value for a moon phase name, or 0.0
// when the name is unknown.
func TranslateMoonPhase(phase string) float64 {
	return moonPhases[normalizeCode(phase)]
}

func normalizeCode(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// translateCode resolves a side-channel code string for a coded measure.
func translateCode(m Measure, code string) (float64, bool) {
	switch m {
	case WeatherCondition:
		return float64(TranslateCondition(code)), true
	case MoonPhase:
		return TranslateMoonPhase(code), true
	default:
		return 0, false
	}
}

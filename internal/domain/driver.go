package domain

import (
	"strconv"
	"strings"
	"time"
)

// CurrentNode is the node address that carries current conditions.
const CurrentNode = "weather"

// ForecastNode returns the node address for forecast day, 0 being today.
func ForecastNode(day int) string { return forecastPrefix + strconv.Itoa(day) }

const forecastPrefix = "forecast_"

// ForecastDay parses the day out of a forecast node address.
func ForecastDay(node string) (int, bool) {
	rest, ok := strings.CutPrefix(node, forecastPrefix)
	if !ok {
		return 0, false
	}
	day, err := strconv.Atoi(rest)
	if err != nil || day < 0 {
		return 0, false
	}
	return day, true
}

// DriverUpdate is one outbound driver value for a node.
type DriverUpdate struct {
	Node      string    `json:"node"`
	Driver    string    `json:"driver"`
	Value     float64   `json:"value"`
	UOM       int       `json:"uom"`
	Precision int       `json:"precision"`
	EmittedAt time.Time `json:"emitted_at"`
}

// Selector picks a single value out of a frame's point, average and range
// slots for one measure.
type Selector int

const (
	// SelectValue prefers the point value, then the average, then the range midpoint.
	SelectValue Selector = iota
	// SelectMin takes the lower end of the range, falling back to the point value.
	SelectMin
	// SelectMax takes the upper end of the range, falling back to the point value.
	SelectMax
	// SelectAverage prefers an explicitly reported average, then the range
	// midpoint, then the point value.
	SelectAverage
)

// DriverBinding ties a driver key to the measure and selector that feed it.
type DriverBinding struct {
	Driver  string
	Measure Measure
	Select  Selector
}

// Resolve extracts the binding's metric value from f. Coded measures fall back
// to translating the raw provider string when no numeric code is present.
func (b DriverBinding) Resolve(f Frame) (float64, bool) {
	point, hasPoint := f.Get(b.Measure)
	avg, hasAvg := f.Average(b.Measure)
	r, hasRange := f.Range(b.Measure)

	switch b.Select {
	case SelectMin:
		if lo, ok := r.Lower(); hasRange && ok {
			return lo, true
		}
	case SelectMax:
		if hi, ok := r.Upper(); hasRange && ok {
			return hi, true
		}
	case SelectAverage:
		if hasAvg {
			return avg, true
		}
		if mid, ok := r.Midpoint(); hasRange && ok {
			return mid, true
		}
	default:
		if hasPoint {
			return point, true
		}
		if hasAvg {
			return avg, true
		}
		if mid, ok := r.Midpoint(); hasRange && ok {
			return mid, true
		}
	}

	if hasPoint {
		return point, true
	}
	if code, ok := f.Code(b.Measure); ok {
		return translateCode(b.Measure, code)
	}
	return 0, false
}

// CurrentDrivers lists the drivers reported on CurrentNode.
var CurrentDrivers = []DriverBinding{
	{"CLITEMP", Temperature, SelectValue},
	{"CLIHUM", Humidity, SelectValue},
	{"DEWPT", DewPoint, SelectValue},
	{"BARPRES", Pressure, SelectValue},
	{"WINDDIR", WindDirection, SelectValue},
	{"SPEED", WindSpeed, SelectValue},
	{"GV5", WindGust, SelectValue},
	{"GV2", ApparentTemperature, SelectValue},
	{"RAINRT", PrecipitationRate, SelectValue},
	{"GV18", PrecipitationProbability, SelectValue},
	{"GV13", WeatherCondition, SelectValue},
	{"GV14", CloudCover, SelectValue},
	{"DISTANC", Visibility, SelectValue},
	{"SOLRAD", SolarRadiation, SelectValue},
	{"GV17", AirQuality, SelectValue},
}

// ForecastDrivers lists the drivers reported on each forecast node.
var ForecastDrivers = []DriverBinding{
	{"GV19", DayOfWeek, SelectValue},
	{"GV0", Temperature, SelectMax},
	{"GV1", Temperature, SelectMin},
	{"CLIHUM", Humidity, SelectAverage},
	{"BARPRES", Pressure, SelectMax},
	{"GV13", WeatherCondition, SelectValue},
	{"GV14", CloudCover, SelectValue},
	{"GV6", PrecipitationAccumulation, SelectValue},
	{"GV7", WindSpeed, SelectMax},
	{"GV8", WindSpeed, SelectMin},
	{"GV18", PrecipitationProbability, SelectValue},
	{"GV20", Evapotranspiration, SelectValue},
	{"GV9", MoonPhase, SelectValue},
	{"GV2", ApparentTemperature, SelectMax},
	{"GV5", WindGust, SelectMax},
	{"DISTANC", Visibility, SelectMax},
	{"SOLRAD", SolarRadiation, SelectValue},
	{"RAINRT", PrecipitationRate, SelectValue},
	{"DEWPT", DewPoint, SelectValue},
}

// NewDriverUpdate builds the outbound update for a display value already
// converted into u, stamping it with the package clock.
func NewDriverUpdate(node, driver string, m Measure, display float64, u UnitSystem) DriverUpdate {
	return DriverUpdate{
		Node:      node,
		Driver:    driver,
		Value:     display,
		UOM:       UnitOf(m, u),
		Precision: Precision(m, u),
		EmittedAt: clock.Now().UTC(),
	}
}

// DriverState remembers the last value emitted per node and driver.
type DriverState interface {
	Last(node, driver string) (float64, bool)
	Record(u DriverUpdate)
}

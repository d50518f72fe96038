package domain

import (
	"maps"
	"sort"
)

// Measure identifies one physical quantity in the canonical measurement set.
type Measure int

const (
	Temperature Measure = iota
	ApparentTemperature
	DewPoint
	Humidity
	Pressure
	WindSpeed
	WindGust
	WindDirection
	PrecipitationRate
	PrecipitationAccumulation
	PrecipitationProbability
	SolarRadiation
	CloudCover
	Visibility
	WeatherCondition
	MoonPhase
	AirQuality
	DayOfWeek
	Evapotranspiration

	measureCount
)

var measureNames = [measureCount]string{
	Temperature:               "temperature",
	ApparentTemperature:       "apparent_temperature",
	DewPoint:                  "dew_point",
	Humidity:                  "humidity",
	Pressure:                  "pressure",
	WindSpeed:                 "wind_speed",
	WindGust:                  "wind_gust",
	WindDirection:             "wind_direction",
	PrecipitationRate:         "precipitation_rate",
	PrecipitationAccumulation: "precipitation_accumulation",
	PrecipitationProbability:  "precipitation_probability",
	SolarRadiation:            "solar_radiation",
	CloudCover:                "cloud_cover",
	Visibility:                "visibility",
	WeatherCondition:          "weather_condition",
	MoonPhase:                 "moon_phase",
	AirQuality:                "air_quality",
	DayOfWeek:                 "day_of_week",
	Evapotranspiration:        "evapotranspiration",
}

func (m Measure) String() string {
	if m < 0 || m >= measureCount {
		return "unknown"
	}
	return measureNames[m]
}

// Measures returns every member of the canonical set in declaration order.
func Measures() []Measure {
	out := make([]Measure, 0, measureCount)
	for m := Measure(0); m < measureCount; m++ {
		out = append(out, m)
	}
	return out
}

// Measurement is a single metric-unit value for one measure.
type Measurement struct {
	Key       Measure
	Value     float64
	Precision int
}

// Range is a min/max pair reported for one measure over an interval.
// Either end may be missing; a missing end is never treated as zero.
type Range struct {
	Min    float64
	Max    float64
	HasMin bool
	HasMax bool
}

// Lower returns the minimum if present.
func (r Range) Lower() (float64, bool) { return r.Min, r.HasMin }

// Upper returns the maximum if present.
func (r Range) Upper() (float64, bool) { return r.Max, r.HasMax }

// Midpoint returns (min+max)/2 when both ends are present.
func (r Range) Midpoint() (float64, bool) {
	if !r.HasMin || !r.HasMax {
		return 0, false
	}
	return (r.Min + r.Max) / 2, true
}

func (r Range) empty() bool { return !r.HasMin && !r.HasMax }

// Frame is one time sample (current conditions or one forecast day) with all
// values in metric base units. Keys are present only when the source payload
// carried them.
type Frame struct {
	Shape RawShape
	Date  Date
	// Err is set on placeholder frames for intervals that matched no shape.
	// Such frames carry no values.
	Err error

	values   map[Measure]float64
	averages map[Measure]float64
	ranges   map[Measure]Range
	codes    map[Measure]string
}

// NewFrame returns an empty frame for the given source shape.
func NewFrame(shape RawShape) Frame {
	return Frame{
		Shape:    shape,
		values:   make(map[Measure]float64),
		averages: make(map[Measure]float64),
		ranges:   make(map[Measure]Range),
		codes:    make(map[Measure]string),
	}
}

// Clone returns a deep copy of f.
func (f Frame) Clone() Frame {
	c := NewFrame(f.Shape)
	c.Date, c.Err = f.Date, f.Err
	maps.Copy(c.values, f.values)
	maps.Copy(c.averages, f.averages)
	maps.Copy(c.ranges, f.ranges)
	maps.Copy(c.codes, f.codes)
	return c
}

// Set stores a point value for m.
func (f *Frame) Set(m Measure, v float64) { f.values[m] = v }

// Get returns the point value for m.
func (f Frame) Get(m Measure) (float64, bool) {
	v, ok := f.values[m]
	return v, ok
}

// SetAverage stores an average the provider reported explicitly for m.
func (f *Frame) SetAverage(m Measure, v float64) { f.averages[m] = v }

// Average returns the explicitly reported average for m.
func (f Frame) Average(m Measure) (float64, bool) {
	v, ok := f.averages[m]
	return v, ok
}

// SetMin stores the lower end of m's range.
func (f *Frame) SetMin(m Measure, v float64) {
	r := f.ranges[m]
	r.Min, r.HasMin = v, true
	f.ranges[m] = r
}

// SetMax stores the upper end of m's range.
func (f *Frame) SetMax(m Measure, v float64) {
	r := f.ranges[m]
	r.Max, r.HasMax = v, true
	f.ranges[m] = r
}

// Range returns the min/max pair for m.
func (f Frame) Range(m Measure) (Range, bool) {
	r, ok := f.ranges[m]
	if !ok || r.empty() {
		return Range{}, false
	}
	return r, true
}

// SetCode stores an untranslated provider code string for m.
func (f *Frame) SetCode(m Measure, code string) { f.codes[m] = code }

// Code returns the untranslated provider code string for m.
func (f Frame) Code(m Measure) (string, bool) {
	c, ok := f.codes[m]
	return c, ok
}

// Has reports whether m is present as a value, range or raw code.
func (f Frame) Has(m Measure) bool {
	if _, ok := f.values[m]; ok {
		return true
	}
	if _, ok := f.averages[m]; ok {
		return true
	}
	if _, ok := f.Range(m); ok {
		return true
	}
	_, ok := f.codes[m]
	return ok
}

// Measurements returns the frame's point values ordered by measure.
func (f Frame) Measurements() []Measurement {
	keys := make([]Measure, 0, len(f.values))
	for k := range f.values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]Measurement, 0, len(keys))
	for _, k := range keys {
		out = append(out, Measurement{Key: k, Value: f.values[k], Precision: Precision(k, Metric)})
	}
	return out
}

// MaxForecastDays is the upper bound on forecast days processed per poll.
const MaxForecastDays = 15

// ForecastSeries holds one frame per forecast day, day 0 being the soonest.
type ForecastSeries []Frame

// Bound returns at most days frames, clamped to MaxForecastDays.
func (s ForecastSeries) Bound(days int) ForecastSeries {
	if days > MaxForecastDays {
		days = MaxForecastDays
	}
	if days <= 0 {
		return nil
	}
	if len(s) > days {
		return s[:days]
	}
	return s
}

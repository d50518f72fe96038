package domain

import (
	"fmt"

	"github.com/antonholmquist/jason"
)

// Mode selects how many frames Normalize is expected to produce.
type Mode int

const (
	// ModeCurrent yields exactly one frame of current conditions.
	ModeCurrent Mode = iota
	// ModeForecast yields one frame per daily interval.
	ModeForecast
)

func (m Mode) String() string {
	if m == ModeForecast {
		return "forecast"
	}
	return "current"
}

// RawShape tags the per-interval layout a payload was recognized as.
type RawShape int

const (
	shapeUnknown RawShape = iota
	// ShapeValues is a "values" object with camelCase keys and Min/Max/Avg suffixes.
	ShapeValues
	// ShapeNested holds per-field arrays of {min:{value}} / {max:{value}} day summaries.
	ShapeNested
	// ShapeFlat holds per-field {value, units} wrappers.
	ShapeFlat
)

func (s RawShape) String() string {
	switch s {
	case ShapeValues:
		return "values"
	case ShapeNested:
		return "nested"
	case ShapeFlat:
		return "flat"
	default:
		return "unknown"
	}
}

type fieldKind int

const (
	pointField fieldKind = iota
	minField
	maxField
	avgField
	codeField
)

type valuesField struct {
	name    string
	measure Measure
	kind    fieldKind
}

// valuesFields is ordered: later entries for the same measure and kind win.
var valuesFields = []valuesField{
	{"temperature", Temperature, pointField},
	{"temperatureMin", Temperature, minField},
	{"temperatureMax", Temperature, maxField},
	{"temperatureApparent", ApparentTemperature, pointField},
	{"temperatureApparentMin", ApparentTemperature, minField},
	{"temperatureApparentMax", ApparentTemperature, maxField},
	{"dewPoint", DewPoint, pointField},
	{"humidity", Humidity, pointField},
	{"humidityMin", Humidity, minField},
	{"humidityMax", Humidity, maxField},
	{"humidityAvg", Humidity, avgField},
	{"pressureSeaLevel", Pressure, pointField},
	{"pressureSeaLevelMin", Pressure, minField},
	{"pressureSeaLevelMax", Pressure, maxField},
	{"windSpeed", WindSpeed, pointField},
	{"windSpeedMin", WindSpeed, minField},
	{"windSpeedMax", WindSpeed, maxField},
	{"windSpeedAvg", WindSpeed, avgField},
	{"windGust", WindGust, pointField},
	{"windGustMax", WindGust, maxField},
	{"windDirection", WindDirection, pointField},
	{"visibility", Visibility, pointField},
	{"visibilityMin", Visibility, minField},
	{"visibilityMax", Visibility, maxField},
	{"precipitationIntensity", PrecipitationRate, pointField},
	{"precipitationAccumulation", PrecipitationAccumulation, pointField},
	{"precipitationAccumulationSum", PrecipitationAccumulation, pointField},
	{"precipitationProbability", PrecipitationProbability, pointField},
	{"solarGHI", SolarRadiation, pointField},
	{"cloudCover", CloudCover, pointField},
	{"weatherCodeMax", WeatherCondition, codeField},
	{"weatherCode", WeatherCondition, codeField},
	{"moonPhase", MoonPhase, codeField},
	{"epaIndex", AirQuality, pointField},
}

type legacyField struct {
	name    string
	measure Measure
	coded   bool
}

var legacyFields = []legacyField{
	{"temp", Temperature, false},
	{"feels_like", ApparentTemperature, false},
	{"dewpoint", DewPoint, false},
	{"humidity", Humidity, false},
	{"baro_pressure", Pressure, false},
	{"wind_speed", WindSpeed, false},
	{"wind_gust", WindGust, false},
	{"wind_direction", WindDirection, false},
	{"visibility", Visibility, false},
	{"precipitation", PrecipitationRate, false},
	{"precipitation_accumulation", PrecipitationAccumulation, false},
	{"precipitation_probability", PrecipitationProbability, false},
	{"surface_shortwave_radiation", SolarRadiation, false},
	{"cloud_cover", CloudCover, false},
	{"weather_code", WeatherCondition, true},
	{"moon_phase", MoonPhase, true},
	{"epa_aqi", AirQuality, false},
}

// Normalize maps a raw provider payload onto metric frames.
//
// The envelope may be a v4 timelines response, a bare {"intervals": [...]}
// object, a single interval, a top-level array of intervals, or a v3 realtime
// object. Each interval is probed for its RawShape and extracted by the
// matching rule. In ModeCurrent only the first interval is used.
//
// In ModeForecast an interval that matches no shape yields a placeholder frame
// whose Err is a SchemaError, so later days keep their position. A SchemaError
// is returned only when the payload is not JSON, no intervals exist, or none of
// them is recognizable. Missing fields are left out of the frame.
func Normalize(payload []byte, mode Mode) ([]Frame, error) {
	root, err := jason.NewValueFromBytes(payload)
	if err != nil {
		return nil, &SchemaError{Mode: mode, Reason: "invalid json", Err: err}
	}

	intervals, err := extractIntervals(root)
	if err != nil {
		return nil, &SchemaError{Mode: mode, Reason: "unsupported envelope", Err: err}
	}
	if len(intervals) == 0 {
		return nil, &SchemaError{Mode: mode, Reason: "no intervals present"}
	}
	if mode == ModeCurrent {
		intervals = intervals[:1]
	}

	frames := make([]Frame, 0, len(intervals))
	recognized := 0
	for i, iv := range intervals {
		frame, ok := normalizeInterval(iv)
		if !ok {
			frame = NewFrame(shapeUnknown)
			frame.Err = &SchemaError{Mode: mode, Reason: fmt.Sprintf("interval %d matches no known shape", i)}
		} else {
			recognized++
		}
		frames = append(frames, frame)
	}

	if recognized == 0 {
		if len(frames) == 1 {
			return nil, frames[0].Err
		}
		return nil, &SchemaError{Mode: mode, Reason: fmt.Sprintf("none of %d intervals matches a known shape", len(frames))}
	}
	return frames, nil
}

func extractIntervals(root *jason.Value) ([]*jason.Object, error) {
	if arr, err := root.Array(); err == nil {
		out := make([]*jason.Object, 0, len(arr))
		for _, v := range arr {
			obj, err := v.Object()
			if err != nil {
				return nil, err
			}
			out = append(out, obj)
		}
		return out, nil
	}

	obj, err := root.Object()
	if err != nil {
		return nil, err
	}

	for _, path := range [][]string{{"data", "timelines"}, {"timelines"}} {
		timelines, err := obj.GetObjectArray(path...)
		if err != nil {
			continue
		}
		if len(timelines) == 0 {
			return nil, nil
		}
		intervals, err := timelines[0].GetObjectArray("intervals")
		if err != nil {
			return nil, nil
		}
		return intervals, nil
	}

	if intervals, err := obj.GetObjectArray("intervals"); err == nil {
		return intervals, nil
	}
	return []*jason.Object{obj}, nil
}

func normalizeInterval(obj *jason.Object) (Frame, bool) {
	switch shape := probeShape(obj); shape {
	case ShapeValues:
		return normalizeValues(obj), true
	case ShapeNested, ShapeFlat:
		return normalizeLegacy(obj, shape), true
	default:
		return Frame{}, false
	}
}

// probeShape inspects structure only; field names are not consulted beyond
// the "values" key.
func probeShape(obj *jason.Object) RawShape {
	if _, err := obj.GetObject("values"); err == nil {
		return ShapeValues
	}

	flat := false
	for _, v := range obj.Map() {
		if arr, err := v.Array(); err == nil {
			for _, el := range arr {
				if isRangeEntry(el) {
					return ShapeNested
				}
			}
			continue
		}
		if isWrapper(v) {
			flat = true
		}
	}
	if flat {
		return ShapeFlat
	}
	return shapeUnknown
}

func isRangeEntry(v *jason.Value) bool {
	obj, err := v.Object()
	if err != nil {
		return false
	}
	m := obj.Map()
	_, hasMin := m["min"]
	_, hasMax := m["max"]
	return hasMin || hasMax
}

func isWrapper(v *jason.Value) bool {
	obj, err := v.Object()
	if err != nil {
		return false
	}
	m := obj.Map()
	if _, ok := m["value"]; ok {
		return true
	}
	_, hasMin := m["min"]
	_, hasMax := m["max"]
	return hasMin || hasMax
}

func normalizeValues(obj *jason.Object) Frame {
	frame := NewFrame(ShapeValues)
	if start, err := obj.GetString("startTime"); err == nil {
		if d, err := ParseDate(start); err == nil {
			frame.Date = d
		}
	}

	values, _ := obj.GetObject("values")
	fields := values.Map()
	for _, f := range valuesFields {
		raw, ok := fields[f.name]
		if !ok {
			continue
		}
		if f.kind == codeField {
			setCoded(&frame, f.measure, raw)
			continue
		}
		v, ok := number(raw)
		if !ok {
			continue
		}
		switch f.kind {
		case minField:
			frame.SetMin(f.measure, v)
		case maxField:
			frame.SetMax(f.measure, v)
		case avgField:
			frame.SetAverage(f.measure, v)
		default:
			frame.Set(f.measure, v)
		}
	}
	return frame
}

func normalizeLegacy(obj *jason.Object, shape RawShape) Frame {
	frame := NewFrame(shape)
	fields := obj.Map()

	if raw, ok := fields["observation_time"]; ok {
		if s, ok := wrappedString(raw); ok {
			if d, err := ParseDate(s); err == nil {
				frame.Date = d
			}
		}
	}

	for _, f := range legacyFields {
		raw, ok := fields[f.name]
		if !ok {
			continue
		}
		if arr, err := raw.Array(); err == nil {
			for _, el := range arr {
				readRangeEntry(&frame, f.measure, el)
			}
			continue
		}
		wrapper, err := raw.Object()
		if err != nil {
			continue
		}
		if inner, ok := wrapper.Map()["value"]; ok {
			if f.coded {
				setCoded(&frame, f.measure, inner)
				continue
			}
			if v, ok := unitNumber(wrapper, inner); ok {
				frame.Set(f.measure, v)
			}
			continue
		}
		readRangeEntry(&frame, f.measure, raw)
	}
	return frame
}

// readRangeEntry reads {min:{value,units}} and/or {max:{value,units}} from el.
func readRangeEntry(frame *Frame, m Measure, el *jason.Value) {
	obj, err := el.Object()
	if err != nil {
		return
	}
	if lo, err := obj.GetObject("min"); err == nil {
		if inner, ok := lo.Map()["value"]; ok {
			if v, ok := unitNumber(lo, inner); ok {
				frame.SetMin(m, v)
			}
		}
	}
	if hi, err := obj.GetObject("max"); err == nil {
		if inner, ok := hi.Map()["value"]; ok {
			if v, ok := unitNumber(hi, inner); ok {
				frame.SetMax(m, v)
			}
		}
	}
}

// unitNumber reads a numeric value and converts it to metric using the
// wrapper's explicit "units" when present.
func unitNumber(wrapper *jason.Object, raw *jason.Value) (float64, bool) {
	v, ok := number(raw)
	if !ok {
		return 0, false
	}
	if units, err := wrapper.GetString("units"); err == nil {
		v = toMetric(v, units)
	}
	return v, true
}

// setCoded stores numeric codes as already translated values and string codes
// in the raw side channel.
func setCoded(frame *Frame, m Measure, raw *jason.Value) {
	if v, ok := number(raw); ok {
		frame.Set(m, v)
		return
	}
	if s, err := raw.String(); err == nil && s != "" {
		frame.SetCode(m, s)
	}
}

// number returns raw as a float. Null and non-numeric values are absent.
func number(raw *jason.Value) (float64, bool) {
	if raw == nil || raw.Null() == nil {
		return 0, false
	}
	v, err := raw.Float64()
	if err != nil {
		return 0, false
	}
	return v, true
}

func wrappedString(raw *jason.Value) (string, bool) {
	if s, err := raw.String(); err == nil {
		return s, true
	}
	obj, err := raw.Object()
	if err != nil {
		return "", false
	}
	s, err := obj.GetString("value")
	if err != nil {
		return "", false
	}
	return s, true
}

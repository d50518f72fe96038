package domain

import "strings"

// UnitSystem selects the output units for every driver.
type UnitSystem int

const (
	US UnitSystem = iota
	Metric
	UK
)

func (u UnitSystem) String() string {
	switch u {
	case Metric:
		return "metric"
	case UK:
		return "uk"
	default:
		return "us"
	}
}

// ParseUnitSystem maps a configured units string onto a UnitSystem.
// "metric", "si" and any token starting with "m" select Metric, "uk" selects
// UK, and everything else, including empty input, falls back to US.
func ParseUnitSystem(s string) UnitSystem {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "si" || strings.HasPrefix(s, "m"):
		return Metric
	case s == "uk":
		return UK
	default:
		return US
	}
}

// UOM identifiers understood by the driver model.
const (
	uomIndex       = 25
	uomCelsius     = 4
	uomFahrenheit  = 17
	uomHumidity    = 22
	uomInHg        = 23
	uomInchPerHour = 24
	uomKPH         = 32
	uomMMPerHour   = 46
	uomMPH         = 48
	uomMetersSec   = 49
	uomRaw         = 56
	uomWattsSqM    = 74
	uomDirection   = 76
	uomMM          = 82
	uomKM          = 83
	uomInch        = 105
	uomMMPerDay    = 106
	uomMiles       = 116
	uomHPa         = 117
	uomInchPerDay  = 120
)

var metricUOM = [measureCount]int{
	Temperature:               uomCelsius,
	ApparentTemperature:       uomCelsius,
	DewPoint:                  uomCelsius,
	Humidity:                  uomHumidity,
	Pressure:                  uomHPa,
	WindSpeed:                 uomMetersSec,
	WindGust:                  uomMetersSec,
	WindDirection:             uomDirection,
	PrecipitationRate:         uomMMPerHour,
	PrecipitationAccumulation: uomMM,
	PrecipitationProbability:  uomHumidity,
	SolarRadiation:            uomWattsSqM,
	CloudCover:                uomHumidity,
	Visibility:                uomKM,
	WeatherCondition:          uomIndex,
	MoonPhase:                 uomIndex,
	AirQuality:                uomRaw,
	DayOfWeek:                 uomIndex,
	Evapotranspiration:        uomMMPerDay,
}

var usUOM = [measureCount]int{
	Temperature:               uomFahrenheit,
	ApparentTemperature:       uomFahrenheit,
	DewPoint:                  uomFahrenheit,
	Humidity:                  uomHumidity,
	Pressure:                  uomInHg,
	WindSpeed:                 uomMPH,
	WindGust:                  uomMPH,
	WindDirection:             uomDirection,
	PrecipitationRate:         uomInchPerHour,
	PrecipitationAccumulation: uomInch,
	PrecipitationProbability:  uomHumidity,
	SolarRadiation:            uomWattsSqM,
	CloudCover:                uomHumidity,
	Visibility:                uomMiles,
	WeatherCondition:          uomIndex,
	MoonPhase:                 uomIndex,
	AirQuality:                uomRaw,
	DayOfWeek:                 uomIndex,
	Evapotranspiration:        uomInchPerDay,
}

var ukUOM = [measureCount]int{
	Temperature:               uomFahrenheit,
	ApparentTemperature:       uomFahrenheit,
	DewPoint:                  uomFahrenheit,
	Humidity:                  uomHumidity,
	Pressure:                  uomHPa,
	WindSpeed:                 uomKPH,
	WindGust:                  uomKPH,
	WindDirection:             uomDirection,
	PrecipitationRate:         uomInchPerHour,
	PrecipitationAccumulation: uomInch,
	PrecipitationProbability:  uomHumidity,
	SolarRadiation:            uomWattsSqM,
	CloudCover:                uomHumidity,
	Visibility:                uomMiles,
	WeatherCondition:          uomIndex,
	MoonPhase:                 uomIndex,
	AirQuality:                uomRaw,
	DayOfWeek:                 uomIndex,
	Evapotranspiration:        uomInchPerDay,
}

// UnitOf returns the UOM identifier that accompanies m under u.
func UnitOf(m Measure, u UnitSystem) int {
	if m < 0 || m >= measureCount {
		return uomRaw
	}
	switch u {
	case Metric:
		return metricUOM[m]
	case UK:
		return ukUOM[m]
	default:
		return usUOM[m]
	}
}

// conversion turns a metric value into display units, rounding internally.
// A nil conversion is the identity.
type conversion func(float64) float64

func celsiusToFahrenheit(c float64) float64 { return roundTo(c*9/5+32, 1) }
func hPaToInHg(p float64) float64          { return roundTo(p*0.0295299830714, 3) }
func msToMPH(s float64) float64            { return roundTo(s*2.2369362921, 1) }
func msToKPH(s float64) float64            { return roundTo(s*3.6, 1) }
func mmToInch(mm float64) float64          { return roundTo(mm/25.4, 3) }
func kmToMiles(km float64) float64         { return roundTo(km*0.621371192, 1) }

var usConversions = [measureCount]conversion{
	Temperature:               celsiusToFahrenheit,
	ApparentTemperature:       celsiusToFahrenheit,
	DewPoint:                  celsiusToFahrenheit,
	Pressure:                  hPaToInHg,
	WindSpeed:                 msToMPH,
	WindGust:                  msToMPH,
	PrecipitationRate:         mmToInch,
	PrecipitationAccumulation: mmToInch,
	Visibility:                kmToMiles,
	Evapotranspiration:        mmToInch,
}

var ukConversions = [measureCount]conversion{
	Temperature:               celsiusToFahrenheit,
	ApparentTemperature:       celsiusToFahrenheit,
	DewPoint:                  celsiusToFahrenheit,
	WindSpeed:                 msToKPH,
	WindGust:                  msToKPH,
	PrecipitationRate:         mmToInch,
	PrecipitationAccumulation: mmToInch,
	Visibility:                kmToMiles,
	Evapotranspiration:        mmToInch,
}

// Convert turns a metric value for m into the units selected by u.
// Metric is always the identity.
func Convert(m Measure, v float64, u UnitSystem) float64 {
	if u == Metric || m < 0 || m >= measureCount {
		return v
	}
	fn := usConversions[m]
	if u == UK {
		fn = ukConversions[m]
	}
	if fn == nil {
		return v
	}
	return fn(v)
}

var metricPrecision = [measureCount]int{
	Temperature:               1,
	ApparentTemperature:       1,
	DewPoint:                  1,
	Humidity:                  0,
	Pressure:                  1,
	WindSpeed:                 1,
	WindGust:                  1,
	WindDirection:             0,
	PrecipitationRate:         1,
	PrecipitationAccumulation: 1,
	PrecipitationProbability:  0,
	SolarRadiation:            0,
	CloudCover:                0,
	Visibility:                1,
	WeatherCondition:          0,
	MoonPhase:                 2,
	AirQuality:                0,
	DayOfWeek:                 0,
	Evapotranspiration:        2,
}

// Precision returns the number of decimals displayed for m under u.
func Precision(m Measure, u UnitSystem) int {
	if m < 0 || m >= measureCount {
		return 0
	}
	switch {
	case u == Metric:
		return metricPrecision[m]
	case m == Pressure && u == US:
		return 3
	case m == PrecipitationRate, m == PrecipitationAccumulation, m == Evapotranspiration:
		return 3
	default:
		return metricPrecision[m]
	}
}

// toMetric converts a provider value tagged with an explicit source unit into
// the metric base unit of its family. Unknown or empty units are assumed to
// already be metric.
func toMetric(v float64, unit string) float64 {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "f", "°f", "fahrenheit":
		return (v - 32) * 5 / 9
	case "k", "kelvin":
		return v - 273.15
	case "inhg", "in hg":
		return v * 33.8638866667
	case "kpa":
		return v * 10
	case "pa":
		return v / 100
	case "mph":
		return v * 0.44704
	case "km/h", "kph", "kmh":
		return v / 3.6
	case "kn", "kt", "knots":
		return v * 0.514444
	case "in", "in/hr", "in/h":
		return v * 25.4
	case "cm":
		return v * 10
	case "mi", "miles":
		return v * 1.609344
	case "m":
		return v / 1000
	default:
		return v
	}
}

package domain

import (
	"errors"
	"fmt"
	"math"
)

// DefaultPlantCoefficient is the canopy reflection coefficient of the grass
// reference crop.
const DefaultPlantCoefficient = 0.23

const (
	solarConstant     = 0.0820   // MJ m-2 min-1
	stefanBoltzmann   = 4.903e-9 // MJ K-4 m-2 day-1
	hargreavesKRs     = 0.16     // interior location
	psychrometricCoef = 0.000665
)

// SiteParameters describes the fixed location the forecast is computed for.
type SiteParameters struct {
	Latitude         float64 // degrees, north positive
	Elevation        float64 // metres above sea level
	PlantCoefficient float64
}

// Validate checks the site parameters are physically meaningful.
func (s SiteParameters) Validate() error {
	var errs []error
	if math.IsNaN(s.Latitude) || s.Latitude < -90 || s.Latitude > 90 {
		errs = append(errs, fmt.Errorf("latitude %v outside [-90, 90]", s.Latitude))
	}
	if math.IsNaN(s.Elevation) || s.Elevation < 0 {
		errs = append(errs, fmt.Errorf("elevation %v must be >= 0", s.Elevation))
	}
	if math.IsNaN(s.PlantCoefficient) || s.PlantCoefficient <= 0 || s.PlantCoefficient >= 1 {
		errs = append(errs, fmt.Errorf("plant coefficient %v outside (0, 1)", s.PlantCoefficient))
	}
	return errors.Join(errs...)
}

// EToInputs are the daily metric observations required for ETo.
type EToInputs struct {
	TempMax     float64 // °C
	TempMin     float64 // °C
	WindSpeed   float64 // m/s at 2 m
	HumidityMax float64 // %
	HumidityMin float64 // %
}

// EToInputsFromFrame assembles ETo inputs and the day of year from a metric
// forecast frame. Representative wind is the reported average, then the
// midpoint of the min/max range, then the point value. Nothing is defaulted:
// missing inputs produce a CalculationError naming them.
func EToInputsFromFrame(f Frame) (EToInputs, int, error) {
	var (
		in      EToInputs
		missing []string
	)

	if r, ok := f.Range(Temperature); ok && r.HasMin && r.HasMax {
		in.TempMax, in.TempMin = r.Max, r.Min
	} else {
		missing = append(missing, "temperature min/max")
	}

	if r, ok := f.Range(Humidity); ok && r.HasMin && r.HasMax {
		in.HumidityMax, in.HumidityMin = r.Max, r.Min
	} else {
		missing = append(missing, "humidity min/max")
	}

	if w, ok := representativeWind(f); ok {
		in.WindSpeed = w
	} else {
		missing = append(missing, "wind speed")
	}

	if f.Date.IsZero() {
		missing = append(missing, "date")
	}

	if len(missing) > 0 {
		return EToInputs{}, 0, &CalculationError{Metric: "evapotranspiration", Missing: missing}
	}
	return in, f.Date.YearDay(), nil
}

func representativeWind(f Frame) (float64, bool) {
	if v, ok := f.Average(WindSpeed); ok {
		return v, true
	}
	if r, ok := f.Range(WindSpeed); ok {
		if mid, ok := r.Midpoint(); ok {
			return mid, true
		}
	}
	return f.Get(WindSpeed)
}

// ComputeETo returns the FAO-56 Penman-Monteith daily reference
// evapotranspiration in mm/day.
//
// Incoming shortwave radiation is estimated from the temperature range with
// the Hargreaves relation since only extremes are available. The plant
// coefficient is the canopy albedo used for net shortwave radiation. Soil heat
// flux is zero at the daily step.
func ComputeETo(in EToInputs, site SiteParameters, dayOfYear int) (float64, error) {
	if err := validateEToInputs(in, site, dayOfYear); err != nil {
		return 0, err
	}

	tMean := (in.TempMax + in.TempMin) / 2
	eTmax := saturationVapourPressure(in.TempMax)
	eTmin := saturationVapourPressure(in.TempMin)

	delta := 4098 * saturationVapourPressure(tMean) / math.Pow(tMean+237.3, 2)
	pressure := 101.3 * math.Pow((293-0.0065*site.Elevation)/293, 5.26)
	gamma := psychrometricCoef * pressure

	es := (eTmax + eTmin) / 2
	ea := (eTmin*in.HumidityMax/100 + eTmax*in.HumidityMin/100) / 2

	ra := extraterrestrialRadiation(site.Latitude, dayOfYear)
	rs := hargreavesKRs * math.Sqrt(in.TempMax-in.TempMin) * ra
	rso := (0.75 + 2e-5*site.Elevation) * ra

	rns := (1 - site.PlantCoefficient) * rs
	ratio := 1.0
	if rso > 0 {
		ratio = math.Min(rs/rso, 1)
	}
	tk4 := (math.Pow(in.TempMax+273.16, 4) + math.Pow(in.TempMin+273.16, 4)) / 2
	rnl := stefanBoltzmann * tk4 * (0.34 - 0.14*math.Sqrt(ea)) * (1.35*ratio - 0.35)
	rn := rns - rnl

	num := 0.408*delta*rn + gamma*(900/(tMean+273))*in.WindSpeed*(es-ea)
	den := delta + gamma*(1+0.34*in.WindSpeed)
	eto := num / den

	if math.IsNaN(eto) || math.IsInf(eto, 0) {
		return 0, &CalculationError{Metric: "evapotranspiration", Reason: "result is not finite"}
	}
	return math.Max(eto, 0), nil
}

func validateEToInputs(in EToInputs, site SiteParameters, dayOfYear int) error {
	if err := site.Validate(); err != nil {
		return &CalculationError{Metric: "evapotranspiration", Reason: err.Error()}
	}
	switch {
	case dayOfYear < 1 || dayOfYear > 366:
		return &CalculationError{Metric: "evapotranspiration", Reason: fmt.Sprintf("day of year %d outside [1, 366]", dayOfYear)}
	case in.TempMax < in.TempMin:
		return &CalculationError{Metric: "evapotranspiration", Reason: "temperature max below min"}
	case in.HumidityMin < 0 || in.HumidityMax > 100 || in.HumidityMax < in.HumidityMin:
		return &CalculationError{Metric: "evapotranspiration", Reason: "humidity range invalid"}
	case in.WindSpeed < 0:
		return &CalculationError{Metric: "evapotranspiration", Reason: "negative wind speed"}
	}
	return nil
}

// saturationVapourPressure returns e°(T) in kPa.
func saturationVapourPressure(t float64) float64 {
	return 0.6108 * math.Exp(17.27*t/(t+237.3))
}

// extraterrestrialRadiation returns Ra in MJ m-2 day-1.
func extraterrestrialRadiation(latitude float64, dayOfYear int) float64 {
	phi := latitude * math.Pi / 180
	j := 2 * math.Pi * float64(dayOfYear) / 365

	dr := 1 + 0.033*math.Cos(j)
	decl := 0.409 * math.Sin(j-1.39)

	// Clamped so polar day and night resolve to 0 or pi.
	x := math.Max(-1, math.Min(1, -math.Tan(phi)*math.Tan(decl)))
	ws := math.Acos(x)

	return 24 * 60 / math.Pi * solarConstant * dr *
		(ws*math.Sin(phi)*math.Sin(decl) + math.Cos(phi)*math.Cos(decl)*math.Sin(ws))
}

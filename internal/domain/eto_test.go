package domain

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	summerInputs = EToInputs{TempMax: 30, TempMin: 18, WindSpeed: 3, HumidityMax: 80, HumidityMin: 40}
	testSite     = SiteParameters{Latitude: 45, Elevation: 100, PlantCoefficient: DefaultPlantCoefficient}
)

func TestComputeETo_SummerSolstice(t *testing.T) {
	eto, err := ComputeETo(summerInputs, testSite, 172)
	require.NoError(t, err)

	assert.Greater(t, eto, 3.0)
	assert.Less(t, eto, 7.0)
	assert.InDelta(t, 6.108, eto, 0.01)

	assert.Equal(t, math.Round(eto/25.4*1000)/1000, Convert(Evapotranspiration, eto, US))
	assert.InDelta(t, 0.24, Convert(Evapotranspiration, eto, US), 1e-9)
}

func TestComputeETo_Behaviour(t *testing.T) {
	base, err := ComputeETo(summerInputs, testSite, 172)
	require.NoError(t, err)

	t.Run("southern hemisphere winter is lower", func(t *testing.T) {
		site := testSite
		site.Latitude = -45
		eto, err := ComputeETo(summerInputs, site, 172)
		require.NoError(t, err)
		assert.Less(t, eto, base)
	})

	t.Run("more wind raises demand", func(t *testing.T) {
		in := summerInputs
		in.WindSpeed = 6
		eto, err := ComputeETo(in, testSite, 172)
		require.NoError(t, err)
		assert.Greater(t, eto, base)
	})

	t.Run("saturated air lowers demand", func(t *testing.T) {
		in := summerInputs
		in.HumidityMin, in.HumidityMax = 95, 100
		eto, err := ComputeETo(in, testSite, 172)
		require.NoError(t, err)
		assert.Less(t, eto, base)
	})

	t.Run("higher albedo lowers demand", func(t *testing.T) {
		site := testSite
		site.PlantCoefficient = 0.4
		eto, err := ComputeETo(summerInputs, site, 172)
		require.NoError(t, err)
		assert.Less(t, eto, base)
	})

	t.Run("polar night stays finite", func(t *testing.T) {
		site := testSite
		site.Latitude = -80
		eto, err := ComputeETo(summerInputs, site, 172)
		require.NoError(t, err)
		assert.False(t, math.IsNaN(eto))
		assert.GreaterOrEqual(t, eto, 0.0)
	})
}

func TestComputeETo_InvalidInputs(t *testing.T) {
	tests := []struct {
		name string
		in   EToInputs
		site SiteParameters
		day  int
	}{
		{"day zero", summerInputs, testSite, 0},
		{"day 367", summerInputs, testSite, 367},
		{"max below min", EToInputs{TempMax: 10, TempMin: 20, WindSpeed: 2, HumidityMax: 80, HumidityMin: 40}, testSite, 172},
		{"humidity above 100", EToInputs{TempMax: 30, TempMin: 18, WindSpeed: 2, HumidityMax: 120, HumidityMin: 40}, testSite, 172},
		{"negative wind", EToInputs{TempMax: 30, TempMin: 18, WindSpeed: -1, HumidityMax: 80, HumidityMin: 40}, testSite, 172},
		{"latitude out of range", summerInputs, SiteParameters{Latitude: 91, PlantCoefficient: 0.23}, 172},
		{"zero plant coefficient", summerInputs, SiteParameters{Latitude: 45}, 172},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeETo(tt.in, tt.site, tt.day)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCalculation))
		})
	}
}

func TestSiteParameters_Validate(t *testing.T) {
	assert.NoError(t, testSite.Validate())
	assert.NoError(t, SiteParameters{Latitude: -90, Elevation: 0, PlantCoefficient: 0.23}.Validate())

	err := SiteParameters{Latitude: 100, Elevation: -5, PlantCoefficient: 0}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latitude")
	assert.Contains(t, err.Error(), "elevation")
	assert.Contains(t, err.Error(), "plant coefficient")

	err = SiteParameters{Latitude: 45, PlantCoefficient: 1}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plant coefficient")
}

func TestEToInputsFromFrame(t *testing.T) {
	solstice := Date{Year: 2021, Month: time.June, Day: 21}

	t.Run("average wind preferred", func(t *testing.T) {
		f := NewFrame(ShapeValues)
		f.Date = solstice
		f.SetMin(Temperature, 18)
		f.SetMax(Temperature, 30)
		f.SetMin(Humidity, 40)
		f.SetMax(Humidity, 80)
		f.SetMin(WindSpeed, 1)
		f.SetMax(WindSpeed, 7)
		f.SetAverage(WindSpeed, 3)

		in, day, err := EToInputsFromFrame(f)
		require.NoError(t, err)
		assert.Equal(t, summerInputs, in)
		assert.Equal(t, 172, day)
	})

	t.Run("wind midpoint when no average", func(t *testing.T) {
		f := NewFrame(ShapeNested)
		f.Date = solstice
		f.SetMin(Temperature, 18)
		f.SetMax(Temperature, 30)
		f.SetMin(Humidity, 40)
		f.SetMax(Humidity, 80)
		f.SetMin(WindSpeed, 2)
		f.SetMax(WindSpeed, 6)

		in, _, err := EToInputsFromFrame(f)
		require.NoError(t, err)
		assert.Equal(t, 4.0, in.WindSpeed)
	})

	t.Run("missing inputs are named", func(t *testing.T) {
		f := NewFrame(ShapeValues)
		f.SetMax(Temperature, 30)
		f.Set(Humidity, 60)

		_, _, err := EToInputsFromFrame(f)
		require.Error(t, err)

		var calcErr *CalculationError
		require.True(t, errors.As(err, &calcErr))
		assert.Equal(t, []string{"temperature min/max", "humidity min/max", "wind speed", "date"}, calcErr.Missing)
		assert.ErrorIs(t, err, ErrCalculation)
	})
}

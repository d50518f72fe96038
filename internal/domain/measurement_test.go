package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeasure_String(t *testing.T) {
	for _, m := range Measures() {
		assert.NotEqual(t, "unknown", m.String())
	}
	assert.Equal(t, "unknown", Measure(-1).String())
	assert.Equal(t, "unknown", measureCount.String())
}

func TestFrame_Measurements(t *testing.T) {
	f := NewFrame(ShapeFlat)
	f.Set(Visibility, 16)
	f.Set(Temperature, 21.4)
	f.Set(Humidity, 53)
	f.SetMax(Pressure, 1015)

	got := f.Measurements()
	assert.Equal(t, []Measurement{
		{Key: Temperature, Value: 21.4, Precision: 1},
		{Key: Humidity, Value: 53, Precision: 0},
		{Key: Visibility, Value: 16, Precision: 1},
	}, got)
	assert.True(t, f.Has(Pressure))
}

func TestRange(t *testing.T) {
	_, ok := Range{Max: 10, HasMax: true}.Midpoint()
	assert.False(t, ok)

	mid, ok := Range{Min: 0, Max: 10, HasMin: true, HasMax: true}.Midpoint()
	assert.True(t, ok)
	assert.Equal(t, 5.0, mid)

	lo, ok := Range{Min: 0, HasMin: true}.Lower()
	assert.True(t, ok)
	assert.Equal(t, 0.0, lo, "zero minimum is present, not missing")
}

func TestForecastSeries_Bound(t *testing.T) {
	series := make(ForecastSeries, 20)
	for i := range series {
		series[i] = NewFrame(ShapeValues)
		series[i].Set(DayOfWeek, float64(i))
	}

	tests := []struct {
		days int
		want int
	}{
		{-1, 0},
		{0, 0},
		{5, 5},
		{15, 15},
		{16, 15},
		{30, 15},
	}
	for _, tt := range tests {
		got := series.Bound(tt.days)
		assert.Len(t, got, tt.want, "days=%d", tt.days)
	}

	short := series[:3].Bound(10)
	assert.Len(t, short, 3)

	first := series.Bound(5)
	v, _ := first[4].Get(DayOfWeek)
	assert.Equal(t, 4.0, v)
}

func TestFrame_CloneIsIndependent(t *testing.T) {
	f := NewFrame(ShapeValues)
	f.Set(Temperature, 20)
	f.SetMin(Humidity, 40)
	f.SetCode(MoonPhase, "full")

	c := f.Clone()
	c.Set(DayOfWeek, 1)
	c.Set(Temperature, 25)
	c.SetMax(Humidity, 80)

	assert.False(t, f.Has(DayOfWeek))
	v, _ := f.Get(Temperature)
	assert.Equal(t, 20.0, v)
	r, _ := f.Range(Humidity)
	assert.False(t, r.HasMax)

	code, ok := c.Code(MoonPhase)
	assert.True(t, ok)
	assert.Equal(t, "full", code)
}

package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestShouldEmit(t *testing.T) {
	tests := []struct {
		name      string
		previous  *float64
		candidate float64
		precision int
		force     bool
		want      bool
	}{
		{"first observation", nil, 68.4, 1, false, true},
		{"first observation at zero precision", nil, 0, 0, false, true},
		{"float noise below display resolution", ptr(68.45), 68.449, 1, false, false},
		{"visible change", ptr(68.4), 68.6, 1, false, true},
		{"identical value", ptr(29.921), 29.921, 3, false, false},
		{"one display unit", ptr(29.921), 29.922, 3, false, true},
		{"forced identical value", ptr(68.4), 68.4, 1, true, true},
		{"integer precision small move", ptr(61), 61.4, 0, false, false},
		{"integer precision rounding step", ptr(61), 61.5, 0, false, true},
		{"negative precision treated as zero", ptr(10), 10.2, -1, false, false},
		{"previous NaN", ptr(math.NaN()), 1, 1, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldEmit(tt.previous, tt.candidate, tt.precision, tt.force))
		})
	}
}

func TestShouldEmit_NilPreviousAlwaysEmits(t *testing.T) {
	for _, v := range []float64{-100, 0, 0.0001, 1e6} {
		for p := 0; p <= 3; p++ {
			assert.True(t, ShouldEmit(nil, v, p, false))
		}
	}
}

package wind

import (
	"errors"
	"math"
	"testing"

	"windalert/internal/types"
)

const tolerance = 1e-9

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestUnitRoundTrips(t *testing.T) {
	for _, x := range []float64{0, 1, 13.5, 25.0, 60.2} {
		if got := MsToKmh(KmhToMs(x)); !approxEqual(got, x, tolerance) {
			t.Errorf("MsToKmh(KmhToMs(%v)) = %v", x, got)
		}
		if got := KnotsToKmh(KmhToKnots(x)); !approxEqual(got, x, tolerance) {
			t.Errorf("KnotsToKmh(KmhToKnots(%v)) = %v", x, got)
		}
		if got := KnotsToMs(MsToKnots(x)); !approxEqual(got, x, tolerance) {
			t.Errorf("KnotsToMs(MsToKnots(%v)) = %v", x, got)
		}
	}
}

func TestReferenceValues(t *testing.T) {
	// 25 km/h = 6.944 m/s = 13.499 knots
	if got := KmhToMs(25); !approxEqual(got, 6.944, 0.001) {
		t.Errorf("KmhToMs(25) = %v, want ~6.944", got)
	}
	if got := KmhToKnots(25); !approxEqual(got, 13.499, 0.001) {
		t.Errorf("KmhToKnots(25) = %v, want ~13.499", got)
	}
	if got := MsToKmh(1); !approxEqual(got, 3.6, tolerance) {
		t.Errorf("MsToKmh(1) = %v, want 3.6", got)
	}
}

func TestConvert(t *testing.T) {
	tests := []struct {
		value float64
		from  Unit
		to    Unit
		want  float64
	}{
		{25, UnitKmh, UnitKmh, 25},
		{10, UnitMs, UnitKmh, 36},
		{10, UnitKnots, UnitKmh, 18.52},
		{36, UnitKmh, UnitMs, 10},
		{18.52, UnitKmh, UnitKnots, 10},
		{10, UnitMs, UnitKnots, 10 * 3.6 / 1.852},
	}

	for _, tt := range tests {
		got, err := Convert(tt.value, tt.from, tt.to)
		if err != nil {
			t.Fatalf("Convert(%v, %s, %s) error: %v", tt.value, tt.from, tt.to, err)
		}
		if !approxEqual(got, tt.want, 1e-6) {
			t.Errorf("Convert(%v, %s, %s) = %v, want %v", tt.value, tt.from, tt.to, got, tt.want)
		}
	}
}

func TestConvert_UnknownUnit(t *testing.T) {
	for _, pair := range [][2]Unit{{"mph", UnitKmh}, {UnitKmh, "mph"}, {"mph", "mph"}} {
		_, err := Convert(1, pair[0], pair[1])
		var appErr *types.AppError
		if !errors.As(err, &appErr) {
			t.Fatalf("Convert(%s -> %s) error = %v, want AppError", pair[0], pair[1], err)
		}
		if appErr.Code != types.ErrCodeValidationUnknownUnit {
			t.Errorf("Code = %q, want %q", appErr.Code, types.ErrCodeValidationUnknownUnit)
		}
	}
}

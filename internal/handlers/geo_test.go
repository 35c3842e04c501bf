package handlers

import "testing"

func TestCoordDecimalFixedScale(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{37.5665, "37.5665000"},
		{-122.4194, "-122.4194000"},
		{0, "0.0000000"},
		{37.56650001, "37.5665000"},
	}
	for _, tt := range tests {
		if got := coordDecimal(tt.value).String(); got != tt.want {
			t.Errorf("coordDecimal(%v) = %s, want %s", tt.value, got, tt.want)
		}
	}
}

func TestCoordDecimalEqualInputsMatch(t *testing.T) {
	a := coordDecimal(37.5665)
	b := coordDecimal(37.5665)
	if a.String() != b.String() {
		t.Fatalf("expected identical representations, got %s and %s", a, b)
	}
}

func TestValidateCoordinates(t *testing.T) {
	valid := [][2]float64{{0, 0}, {90, 180}, {-90, -180}, {37.5665, 126.9780}}
	for _, v := range valid {
		if err := validateCoordinates(v[0], v[1]); err != nil {
			t.Errorf("validateCoordinates(%v, %v) returned error: %v", v[0], v[1], err)
		}
	}

	invalid := [][2]float64{{90.1, 0}, {-91, 0}, {0, 180.5}, {0, -181}}
	for _, v := range invalid {
		if err := validateCoordinates(v[0], v[1]); err == nil {
			t.Errorf("validateCoordinates(%v, %v) expected error", v[0], v[1])
		}
	}
}

package modal

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// TestFrequenciesCorrected verifies ω_k = 2π·k/(T·Δt)
func TestFrequenciesCorrected(t *testing.T) {
	got, err := Frequencies(8, 2, 0.5, ScalingCorrected)
	if err != nil {
		t.Fatalf("Frequencies failed: %v", err)
	}

	want := []float64{math.Pi / 2, math.Pi}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Unexpected frequencies (-want +got):\n%s", diff)
	}
}

// TestFrequenciesLegacy verifies the historical double-scaled formula,
// including the negative Nyquist bin for even T
func TestFrequenciesLegacy(t *testing.T) {
	got, err := Frequencies(8, 4, 0.5, ScalingLegacy)
	if err != nil {
		t.Fatalf("Frequencies failed: %v", err)
	}

	// spacing = 1/(8*0.5) = 0.25, fftfreq = [0.25, 0.5, 0.75, -1.0]
	want := []float64{
		2 * math.Pi * 0.25 * 0.25,
		2 * math.Pi * 0.5 * 0.25,
		2 * math.Pi * 0.75 * 0.25,
		2 * math.Pi * -1.0 * 0.25,
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Unexpected frequencies (-want +got):\n%s", diff)
	}

	// Odd T has no Nyquist bin, so every value stays positive
	odd, err := Frequencies(7, 3, 1.0, ScalingLegacy)
	if err != nil {
		t.Fatalf("Frequencies failed: %v", err)
	}
	for i, w := range odd {
		if w <= 0 {
			t.Errorf("Expected positive frequency at %d, got %f", i, w)
		}
	}
}

func TestFrequenciesErrors(t *testing.T) {
	tests := []struct {
		name      string
		timesteps int
		modes     int
		period    float64
		want      error
	}{
		{"zero modes", 8, 0, 1, ErrInvalidModeCount},
		{"above nyquist", 8, 5, 1, ErrInvalidModeCount},
		{"too few samples", 1, 1, 1, ErrInvalidModeCount},
		{"zero period", 8, 2, 0, ErrInvalidSamplingPeriod},
		{"negative period", 8, 2, -0.1, ErrInvalidSamplingPeriod},
		{"nan period", 8, 2, math.NaN(), ErrInvalidSamplingPeriod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Frequencies(tt.timesteps, tt.modes, tt.period, ScalingCorrected)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParseFrequencyScaling(t *testing.T) {
	for _, s := range []FrequencyScaling{ScalingCorrected, ScalingLegacy} {
		got, err := ParseFrequencyScaling(s.String())
		if err != nil || got != s {
			t.Errorf("Expected %v, got %v (err %v)", s, got, err)
		}
	}
	if _, err := ParseFrequencyScaling("fixed"); err == nil {
		t.Error("Expected error for unknown scaling")
	}
}

package modal

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// FrequencyScaling selects how bin indices are turned into angular frequencies.
type FrequencyScaling int

const (
	// ScalingCorrected returns ω_k = 2π·k/(T·Δt).
	ScalingCorrected FrequencyScaling = iota

	// ScalingLegacy reproduces the historical formula, which multiplies the
	// bin frequency by the frequency spacing 1/(T·Δt) a second time and keeps
	// the negative sign of the Nyquist bin for even T.
	ScalingLegacy
)

// String returns the configuration name of the scaling.
func (s FrequencyScaling) String() string {
	switch s {
	case ScalingCorrected:
		return "corrected"
	case ScalingLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("FrequencyScaling(%d)", int(s))
	}
}

// ParseFrequencyScaling maps "corrected" or "legacy" to a FrequencyScaling.
func ParseFrequencyScaling(s string) (FrequencyScaling, error) {
	switch s {
	case "corrected":
		return ScalingCorrected, nil
	case "legacy":
		return ScalingLegacy, nil
	default:
		return 0, fmt.Errorf("invalid frequency scaling %q (must be corrected or legacy)", s)
	}
}

// Frequencies returns the angular frequencies of Fourier bins 1..modes for a
// series of timesteps samples taken every samplingPeriod seconds.
//
// Parameters:
//   - timesteps: Number of samples T in the analysed series
//   - modes: Number of harmonics K, 1 <= K <= floor(T/2)
//   - samplingPeriod: Time between samples in seconds
//   - scaling: Corrected or legacy frequency formula
//
// Returns:
//   - K angular frequencies in rad/s, or an error if the arguments are invalid
func Frequencies(timesteps, modes int, samplingPeriod float64, scaling FrequencyScaling) ([]float64, error) {
	if err := checkModeCount(timesteps, modes); err != nil {
		return nil, err
	}
	if !(samplingPeriod > 0) || math.IsInf(samplingPeriod, 1) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSamplingPeriod, samplingPeriod)
	}
	if scaling != ScalingCorrected && scaling != ScalingLegacy {
		return nil, fmt.Errorf("unknown frequency scaling %v", scaling)
	}

	fft := fourier.NewFFT(timesteps)
	spacing := 1.0 / (float64(timesteps) * samplingPeriod)

	omegas := make([]float64, modes)
	for k := 1; k <= modes; k++ {
		// Freq returns cycles per sample
		f := fft.Freq(k) / samplingPeriod
		switch scaling {
		case ScalingCorrected:
			omegas[k-1] = 2 * math.Pi * f
		case ScalingLegacy:
			if timesteps%2 == 0 && 2*k == timesteps {
				f = -f
			}
			omegas[k-1] = 2 * math.Pi * (f * spacing)
		}
	}
	return omegas, nil
}

// checkModeCount rejects K outside [1, floor(T/2)].
func checkModeCount(timesteps, modes int) error {
	if modes < 1 || modes > timesteps/2 {
		return fmt.Errorf("%w: K=%d must be in [1, %d] for %d timesteps", ErrInvalidModeCount, modes, timesteps/2, timesteps)
	}
	return nil
}

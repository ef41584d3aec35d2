package modal

import (
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"modalflow/internal/models"
)

// randomField creates a flow field filled with reproducible noise
func randomField(batch, time, dim, height, width int, seed int64) *models.FlowField {
	rng := rand.New(rand.NewSource(seed))
	field := models.NewFlowField(batch, time, dim, height, width)
	for i := range field.Data {
		field.Data[i] = rng.NormFloat64()
	}
	return field
}

// TestEstimateShape verifies the texture shape for several valid K
func TestEstimateShape(t *testing.T) {
	tests := []struct {
		batch, time, dim, height, width, modes int
	}{
		{1, 8, 2, 4, 5, 1},
		{2, 8, 2, 3, 3, 4},
		{1, 9, 3, 2, 6, 4},
		{3, 16, 3, 1, 1, 7},
	}

	estimator := NewEstimator(2)
	for _, tt := range tests {
		field := randomField(tt.batch, tt.time, tt.dim, tt.height, tt.width, 1)
		texture, err := estimator.Estimate(field, tt.modes)
		if err != nil {
			t.Fatalf("Estimate failed: %v", err)
		}

		if texture.Batch != tt.batch || texture.Modes != tt.modes || texture.Channels() != 2*tt.dim ||
			texture.Height != tt.height || texture.Width != tt.width {
			t.Errorf("Expected shape (%d, %d, %d, %d, %d), got (%d, %d, %d, %d, %d)",
				tt.batch, tt.modes, 2*tt.dim, tt.height, tt.width,
				texture.Batch, texture.Modes, texture.Channels(), texture.Height, texture.Width)
		}

		want := tt.batch * tt.modes * 2 * tt.dim * tt.height * tt.width
		if len(texture.Data) != want {
			t.Errorf("Expected %d values, got %d", want, len(texture.Data))
		}
	}
}

func TestEstimateInvalidModeCount(t *testing.T) {
	field := randomField(1, 8, 2, 2, 2, 1)
	estimator := NewEstimator(1)

	for _, k := range []int{0, -1, 5} {
		if _, err := estimator.Estimate(field, k); !errors.Is(err, ErrInvalidModeCount) {
			t.Errorf("K=%d: expected ErrInvalidModeCount, got %v", k, err)
		}
	}
}

// TestEstimateUnsupportedDimension checks that dim 1 is rejected before any transform
func TestEstimateUnsupportedDimension(t *testing.T) {
	estimator := NewEstimator(1)
	calls := 0
	estimator.SetProgressCallback(func(completed, total int, message string) { calls++ })

	for _, dim := range []int{1, 4} {
		field := randomField(1, 8, dim, 2, 2, 1)
		if _, err := estimator.Estimate(field, 2); !errors.Is(err, ErrUnsupportedDimension) {
			t.Errorf("dim=%d: expected ErrUnsupportedDimension, got %v", dim, err)
		}
	}
	if calls != 0 {
		t.Errorf("Expected no transform work, got %d progress reports", calls)
	}
}

// TestEstimateDeterministic requires exact equality across runs and worker counts
func TestEstimateDeterministic(t *testing.T) {
	field := randomField(2, 12, 3, 5, 7, 42)

	first, err := NewEstimator(1).Estimate(field, 6)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	for _, workers := range []int{1, 3, 8, 1000} {
		again, err := NewEstimator(workers).Estimate(field, 6)
		if err != nil {
			t.Fatalf("Estimate failed: %v", err)
		}
		if diff := cmp.Diff(first.Data, again.Data); diff != "" {
			t.Errorf("workers=%d: texture differs (-first +again):\n%s", workers, diff)
		}
	}
}

// TestEstimateZeroMotion checks that constant flow has no vibration content
func TestEstimateZeroMotion(t *testing.T) {
	field := models.NewFlowField(1, 10, 2, 3, 3)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for tt := 0; tt < 10; tt++ {
				field.Set(0, tt, 0, i, j, float64(i+1)*0.5)
				field.Set(0, tt, 1, i, j, -float64(j))
			}
		}
	}

	texture, err := NewEstimator(2).Estimate(field, 5)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	for i, v := range texture.Data {
		if math.Abs(v) > 1e-12 {
			t.Fatalf("Expected zero texture, got %g at %d", v, i)
		}
	}
}

// TestEstimateMonoSinusoid places x(t)=sin(2πt/4) at pixel (0,0): all energy
// belongs to bin 2 (frequency 1/4 with spacing 1/8), i.e. mode index 1.
func TestEstimateMonoSinusoid(t *testing.T) {
	const timesteps, modes = 8, 2
	field := models.NewFlowField(1, timesteps, 2, 2, 2)
	for tt := 0; tt < timesteps; tt++ {
		field.Set(0, tt, 0, 0, 0, math.Sin(2*math.Pi*float64(tt)/4))
	}

	texture, err := NewEstimator(1).Estimate(field, modes)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	const tol = 1e-5
	// rfft gives -i·T/2 = -4i at bin 2, scaled by 1/K
	if got := texture.At(0, 1, 1, 0, 0); math.Abs(got-(-2)) > tol {
		t.Errorf("Expected x_imag=-2 at mode 1, got %f", got)
	}
	if got := texture.At(0, 1, 0, 0, 0); math.Abs(got) > tol {
		t.Errorf("Expected x_real=0 at mode 1, got %f", got)
	}
	for c := 0; c < 4; c++ {
		if got := texture.At(0, 0, c, 0, 0); math.Abs(got) > tol {
			t.Errorf("Expected no energy at mode 0 channel %d, got %f", c, got)
		}
	}
	for k := 0; k < modes; k++ {
		for c := 2; c < 4; c++ {
			if got := texture.At(0, k, c, 0, 0); math.Abs(got) > tol {
				t.Errorf("Expected no y energy at mode %d channel %d, got %f", k, c, got)
			}
		}
	}
	// Other pixels are still
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if i == 0 && j == 0 {
				continue
			}
			if got := texture.At(0, 1, 1, i, j); got != 0 {
				t.Errorf("Expected still pixel (%d,%d), got %f", i, j, got)
			}
		}
	}
}

// TestEstimateChannelOrder checks axis-major real/imag channel layout
func TestEstimateChannelOrder(t *testing.T) {
	const timesteps = 8
	field := models.NewFlowField(1, timesteps, 3, 2, 1)
	for tt := 0; tt < timesteps; tt++ {
		phase := 2 * math.Pi * float64(tt) / timesteps
		field.Set(0, tt, 1, 1, 0, math.Cos(phase)) // y at bin 1
		field.Set(0, tt, 2, 1, 0, math.Sin(phase)) // z at bin 1
	}

	texture, err := NewEstimator(1).Estimate(field, 1)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	want := []float64{0, 0, 4, 0, 0, -4} // x_re, x_im, y_re, y_im, z_re, z_im
	for c, w := range want {
		if got := texture.At(0, 0, c, 1, 0); math.Abs(got-w) > 1e-9 {
			t.Errorf("Channel %d: expected %f, got %f", c, w, got)
		}
	}
}

func TestEstimateProgress(t *testing.T) {
	field := randomField(2, 8, 2, 4, 4, 3)
	estimator := NewEstimator(3)

	last, total := 0, 0
	estimator.SetProgressCallback(func(completed, n int, message string) {
		if completed < last {
			t.Errorf("Progress went backwards: %d after %d", completed, last)
		}
		last, total = completed, n
	})

	if _, err := estimator.Estimate(field, 2); err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if total != 32 || last != total {
		t.Errorf("Expected final progress 32/32, got %d/%d", last, total)
	}
}

func TestEstimateRecording(t *testing.T) {
	left := randomField(1, 8, 2, 2, 3, 1)
	right := randomField(1, 8, 2, 2, 3, 2)
	estimator := NewEstimator(2)

	textures, err := estimator.EstimateRecording(&models.Recording{Kind: models.Stereo, Views: []*models.FlowField{left, right}}, 3)
	if err != nil {
		t.Fatalf("EstimateRecording failed: %v", err)
	}
	if len(textures) != 2 {
		t.Fatalf("Expected 2 textures, got %d", len(textures))
	}

	single, _ := estimator.Estimate(right, 3)
	if diff := cmp.Diff(single.Data, textures[1].Data); diff != "" {
		t.Errorf("Right view texture differs (-single +recording):\n%s", diff)
	}

	_, err = estimator.EstimateRecording(&models.Recording{Kind: models.Mono, Views: []*models.FlowField{left, right}}, 3)
	if err == nil {
		t.Error("Expected error for mono recording with two views")
	}

	bad := randomField(1, 8, 1, 2, 3, 1)
	_, err = estimator.EstimateRecording(&models.Recording{Kind: models.Stereo, Views: []*models.FlowField{bad, bad}}, 3)
	if !errors.Is(err, ErrUnsupportedDimension) {
		t.Errorf("Expected ErrUnsupportedDimension, got %v", err)
	}
}

func TestEstimateNilInputs(t *testing.T) {
	estimator := NewEstimator(2)

	if _, err := estimator.Estimate(nil, 2); !errors.Is(err, ErrEmptyField) {
		t.Errorf("Expected ErrEmptyField for nil field, got %v", err)
	}

	_, err := estimator.EstimateRecording(nil, 2)
	if !errors.Is(err, ErrEmptyField) {
		t.Fatalf("Expected ErrEmptyField for nil recording, got %v", err)
	}
	if !strings.Contains(err.Error(), "recording") {
		t.Errorf("Expected the message to cover a nil recording, got %q", err.Error())
	}

	if _, _, err := ReconstructTexture(nil, models.Displacement{1, 0}, models.Pixel{}, DefaultReconstructOptions()); !errors.Is(err, ErrEmptyField) {
		t.Errorf("Expected ErrEmptyField for nil texture, got %v", err)
	}
}

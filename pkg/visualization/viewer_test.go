package visualization

import (
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"modalflow/internal/models"
	"modalflow/pkg/modal"
)

// createTestTexture creates a texture where mode k is strongest at column k
func createTestTexture(batch, modes, width, height int) *models.MotionTexture {
	texture := models.NewMotionTexture(batch, modes, 2, height, width)
	for b := 0; b < batch; b++ {
		for k := 0; k < modes; k++ {
			for y := 0; y < height; y++ {
				for x := 0; x < width; x++ {
					v := 1.0
					if x == k {
						v = 4.0
					}
					texture.Data[texture.Index(b, k, 0, y, x)] = v * 0.6
					texture.Data[texture.Index(b, k, 3, y, x)] = v * 0.8
				}
			}
		}
	}
	return texture
}

func TestModeMagnitude(t *testing.T) {
	viewer := NewViewer(createTestTexture(1, 2, 4, 3))

	mag, err := viewer.ModeMagnitude(0, 1)
	if err != nil {
		t.Fatalf("ModeMagnitude failed: %v", err)
	}
	if math.Abs(mag[1]-4.0) > 1e-12 || math.Abs(mag[0]-1.0) > 1e-12 {
		t.Errorf("Expected magnitudes 4 and 1, got %f and %f", mag[1], mag[0])
	}

	if _, err := viewer.ModeMagnitude(0, 2); err == nil {
		t.Error("Expected error for mode out of range")
	}
	if _, err := viewer.ModeMagnitude(1, 0); err == nil {
		t.Error("Expected error for batch out of range")
	}
}

func TestModeImage(t *testing.T) {
	viewer := NewViewer(createTestTexture(1, 3, 4, 3))

	img, err := viewer.ModeImage(0, 2)
	if err != nil {
		t.Fatalf("ModeImage failed: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 4 || bounds.Dy() != 3 {
		t.Errorf("Expected 4x3 image, got %dx%d", bounds.Dx(), bounds.Dy())
	}

	bright, _, _, _ := img.At(2, 1).RGBA()
	dim, _, _, _ := img.At(0, 1).RGBA()
	if bright != 65535 {
		t.Errorf("Expected white at the mode peak, got %d", bright)
	}
	if dim >= bright {
		t.Errorf("Expected darker pixel away from the peak, got %d vs %d", dim, bright)
	}

	// An all-zero mode renders black rather than NaN
	zero := NewViewer(models.NewMotionTexture(1, 1, 2, 2, 2))
	img, err = zero.ModeImage(0, 0)
	if err != nil {
		t.Fatalf("ModeImage failed: %v", err)
	}
	if r, _, _, _ := img.At(1, 1).RGBA(); r != 0 {
		t.Errorf("Expected black image, got %d", r)
	}
}

func TestSaveModeSequence(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "modes")
	viewer := NewViewer(createTestTexture(2, 3, 4, 3))

	if err := viewer.SaveModeSequence(dir); err != nil {
		t.Fatalf("SaveModeSequence failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read output dir: %v", err)
	}
	if len(entries) != 6 {
		t.Errorf("Expected 6 images, got %d", len(entries))
	}
	if _, err := os.Stat(filepath.Join(dir, "mode_b01_k02.png")); err != nil {
		t.Errorf("Expected mode_b01_k02.png: %v", err)
	}
}

func TestFlowToImage(t *testing.T) {
	dm := models.NewDeformationMap(1, 2, 1, 3)
	// Pixel 0 points right at full strength, pixel 1 points left, pixel 2 is still
	dm.Data[dm.Index(0, 0, 0, 0)] = 2
	dm.Data[dm.Index(0, 0, 0, 1)] = -2

	img, err := FlowToImage(dm, 0)
	if err != nil {
		t.Fatalf("FlowToImage failed: %v", err)
	}

	if got := img.RGBAAt(0, 0); got != (color.RGBA{R: 255, G: 0, B: 0, A: 255}) {
		t.Errorf("Expected red for rightward flow, got %v", got)
	}
	if got := img.RGBAAt(1, 0); got.R != 0 || got.B != 255 {
		t.Errorf("Expected blue-cyan for leftward flow, got %v", got)
	}
	if got := img.RGBAAt(2, 0); got != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("Expected white for zero flow, got %v", got)
	}

	if _, err := FlowToImage(models.NewDeformationMap(1, 1, 2, 2), 0); err == nil {
		t.Error("Expected error for single-axis map")
	}
	if _, err := FlowToImage(dm, 1); err == nil {
		t.Error("Expected error for batch out of range")
	}
}

func TestColorWheel(t *testing.T) {
	if len(colorWheel) != 55 {
		t.Fatalf("Expected 55 colors, got %d", len(colorWheel))
	}
	if colorWheel[0] != [3]float64{255, 0, 0} {
		t.Errorf("Expected red first, got %v", colorWheel[0])
	}
	// Start of the green-cyan segment
	if colorWheel[21] != [3]float64{0, 255, 0} {
		t.Errorf("Expected green at 21, got %v", colorWheel[21])
	}
}

func TestPlotCoordinates(t *testing.T) {
	dir := t.TempDir()
	freqs := []float64{1, 2, 3}
	coords := []modal.Coordinate{
		{Magnitude: 1, Phase: 0.1}, {Magnitude: 0.5, Phase: -0.2}, {Magnitude: 0.2, Phase: 1.4},
		{Magnitude: 0.8, Phase: 0.0}, {Magnitude: 0.1, Phase: 0.3}, {Magnitude: 0.3, Phase: -1.0},
	}

	if err := PlotCoordinates(dir, "coords", freqs, coords); err != nil {
		t.Fatalf("PlotCoordinates failed: %v", err)
	}
	for _, name := range []string{"coords_magnitude.png", "coords_phase.png"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("Expected %s: %v", name, err)
		} else if info.Size() == 0 {
			t.Errorf("Expected non-empty %s", name)
		}
	}

	if err := PlotCoordinates(dir, "bad", freqs, coords[:4]); err == nil {
		t.Error("Expected error for mismatched coordinate count")
	}
}

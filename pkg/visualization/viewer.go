package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"modalflow/internal/models"
)

// Viewer renders the mode shapes of a motion texture as grayscale images.
type Viewer struct {
	// texture holds the mode shapes being displayed
	texture *models.MotionTexture
}

// NewViewer creates a viewer over a motion texture
func NewViewer(texture *models.MotionTexture) *Viewer {
	return &Viewer{texture: texture}
}

// ModeMagnitude returns, for every pixel, the norm of mode k of batch b taken
// over all real and imaginary channels.
func (v *Viewer) ModeMagnitude(b, k int) ([]float64, error) {
	m := v.texture
	if b < 0 || b >= m.Batch {
		return nil, fmt.Errorf("batch %d exceeds batch size %d", b, m.Batch)
	}
	if k < 0 || k >= m.Modes {
		return nil, fmt.Errorf("mode %d exceeds mode count %d", k, m.Modes)
	}

	plane := m.Height * m.Width
	mag := make([]float64, plane)
	for c := 0; c < m.Channels(); c++ {
		ch := m.Data[m.Index(b, k, c, 0, 0):]
		for p := 0; p < plane; p++ {
			mag[p] += ch[p] * ch[p]
		}
	}
	for p := range mag {
		mag[p] = math.Sqrt(mag[p])
	}
	return mag, nil
}

// ModeImage renders mode k of batch b as a 16-bit grayscale image, normalized
// so the strongest pixel of the mode is white.
func (v *Viewer) ModeImage(b, k int) (image.Image, error) {
	mag, err := v.ModeMagnitude(b, k)
	if err != nil {
		return nil, err
	}

	maxVal := 0.0
	for _, m := range mag {
		if m > maxVal {
			maxVal = m
		}
	}

	img := image.NewGray16(image.Rect(0, 0, v.texture.Width, v.texture.Height))
	if maxVal == 0 {
		return img, nil
	}
	for y := 0; y < v.texture.Height; y++ {
		for x := 0; x < v.texture.Width; x++ {
			value := uint16(math.Max(0, math.Min(65535, mag[y*v.texture.Width+x]/maxVal*65535)))
			img.SetGray16(x, y, color.Gray16{Y: value})
		}
	}
	return img, nil
}

// SaveModeSequence writes one image per batch element and mode to outputDir.
func (v *Viewer) SaveModeSequence(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for b := 0; b < v.texture.Batch; b++ {
		for k := 0; k < v.texture.Modes; k++ {
			img, err := v.ModeImage(b, k)
			if err != nil {
				return err
			}

			filename := filepath.Join(outputDir, fmt.Sprintf("mode_b%02d_k%02d.png", b, k))
			if err := SavePNG(img, filename); err != nil {
				return err
			}
		}
	}
	return nil
}

// SavePNG saves an image as a PNG file
func SavePNG(img image.Image, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

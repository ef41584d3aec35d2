package visualization

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"modalflow/internal/models"
)

// Segment lengths of the Middlebury color wheel, in order
// red-yellow, yellow-green, green-cyan, cyan-blue, blue-magenta, magenta-red.
const (
	segRY = 15
	segYG = 6
	segGC = 4
	segCB = 11
	segBM = 13
	segMR = 6
)

var colorWheel = makeColorWheel()

func makeColorWheel() [][3]float64 {
	wheel := make([][3]float64, 0, segRY+segYG+segGC+segCB+segBM+segMR)
	ramp := func(i, n int) float64 { return math.Floor(255 * float64(i) / float64(n)) }

	for i := 0; i < segRY; i++ {
		wheel = append(wheel, [3]float64{255, ramp(i, segRY), 0})
	}
	for i := 0; i < segYG; i++ {
		wheel = append(wheel, [3]float64{255 - ramp(i, segYG), 255, 0})
	}
	for i := 0; i < segGC; i++ {
		wheel = append(wheel, [3]float64{0, 255, ramp(i, segGC)})
	}
	for i := 0; i < segCB; i++ {
		wheel = append(wheel, [3]float64{0, 255 - ramp(i, segCB), 255})
	}
	for i := 0; i < segBM; i++ {
		wheel = append(wheel, [3]float64{ramp(i, segBM), 0, 255})
	}
	for i := 0; i < segMR; i++ {
		wheel = append(wheel, [3]float64{255, 0, 255 - ramp(i, segMR)})
	}
	return wheel
}

// FlowToImage color-codes the first two axes of batch element b of a
// deformation map. Hue encodes direction, saturation encodes magnitude
// relative to the largest vector in the map.
func FlowToImage(dm *models.DeformationMap, b int) (*image.RGBA, error) {
	if dm.Dim < 2 {
		return nil, fmt.Errorf("flow image needs at least 2 axes, got %d", dm.Dim)
	}
	if b < 0 || b >= dm.Batch {
		return nil, fmt.Errorf("batch %d out of range [0, %d)", b, dm.Batch)
	}
	return UVToImage(dm.Axis(b, 0), dm.Axis(b, 1), dm.Width, dm.Height)
}

// UVToImage color-codes a flow given as separate horizontal and vertical planes.
func UVToImage(u, v []float64, width, height int) (*image.RGBA, error) {
	if len(u) != width*height || len(v) != width*height {
		return nil, fmt.Errorf("flow planes have %d and %d values, expected %d", len(u), len(v), width*height)
	}

	maxNorm := 0.0
	for p := range u {
		if n := math.Hypot(u[p], v[p]); n > maxNorm {
			maxNorm = n
		}
	}
	// Float32 epsilon keeps an all-zero flow white instead of NaN
	maxNorm += 1.1920929e-07

	numCols := len(colorWheel)
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := y*width + x
			nu, nv := u[p]/maxNorm, v[p]/maxNorm
			rad := math.Hypot(nu, nv)

			a := math.Atan2(-nv, -nu) / math.Pi
			fk := (a + 1) / 2 * float64(numCols-1)
			k0 := int(math.Floor(fk))
			k1 := k0 + 1
			if k1 == numCols {
				k1 = 0
			}
			f := fk - float64(k0)

			var rgb [3]uint8
			for c := 0; c < 3; c++ {
				col0 := colorWheel[k0][c] / 255
				col1 := colorWheel[k1][c] / 255
				col := (1-f)*col0 + f*col1
				col = 1 - rad*(1-col)
				rgb[c] = uint8(math.Floor(255 * col))
			}
			img.SetRGBA(x, y, color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255})
		}
	}
	return img, nil
}

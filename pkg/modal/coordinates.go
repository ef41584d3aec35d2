package modal

import (
	"fmt"
	"math"
	"math/cmplx"

	"modalflow/internal/models"
)

// MaximizeMode selects which physical response the modal phase is calibrated for.
type MaximizeMode int

const (
	// MaximizeDisplacement aligns the phase with the displacement response.
	MaximizeDisplacement MaximizeMode = iota

	// MaximizeVelocity aligns the phase with the velocity response, a fixed
	// quarter-period ahead of the displacement.
	MaximizeVelocity
)

// String returns the configuration name of the mode.
func (m MaximizeMode) String() string {
	switch m {
	case MaximizeDisplacement:
		return "disp"
	case MaximizeVelocity:
		return "velocity"
	default:
		return fmt.Sprintf("MaximizeMode(%d)", int(m))
	}
}

// ParseMaximizeMode maps "disp" or "velocity" to a MaximizeMode.
func ParseMaximizeMode(s string) (MaximizeMode, error) {
	switch s {
	case "disp":
		return MaximizeDisplacement, nil
	case "velocity":
		return MaximizeVelocity, nil
	default:
		return 0, fmt.Errorf("%w: %q (must be disp or velocity)", ErrInvalidMaximizeMode, s)
	}
}

// Coordinate is the modal coordinate of one mode in polar form.
type Coordinate struct {
	Magnitude float64
	Phase     float64
}

// Complex returns Magnitude·e^(i·Phase).
func (c Coordinate) Complex() complex128 {
	return cmplx.Rect(c.Magnitude, c.Phase)
}

// Magnitude returns alpha·|d·φ_k(pixel)| for every batch element and mode,
// batch-major, where d·φ is the complex dot product of the displacement with
// the mode shape vector at pixel.
func Magnitude(shapes *models.ModeShapes, disp models.Displacement, pixel models.Pixel, alpha float64) ([]float64, error) {
	if !(alpha >= 0) {
		return nil, fmt.Errorf("%w: %v", ErrNegativeGain, alpha)
	}
	proj, err := project(shapes, disp, pixel)
	if err != nil {
		return nil, err
	}

	mags := make([]float64, len(proj))
	for i, c := range proj {
		mags[i] = cmplx.Abs(c) * alpha
	}
	return mags, nil
}

// Phase returns the negated angle of d·φ_k(pixel) for every batch element and
// mode, batch-major. MaximizeVelocity adds π/2: the velocity spectrum is the
// displacement spectrum times iω, a constant quarter-turn for every ω.
func Phase(shapes *models.ModeShapes, disp models.Displacement, pixel models.Pixel, maximize MaximizeMode) ([]float64, error) {
	if maximize != MaximizeDisplacement && maximize != MaximizeVelocity {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMaximizeMode, maximize)
	}
	proj, err := project(shapes, disp, pixel)
	if err != nil {
		return nil, err
	}

	phases := make([]float64, len(proj))
	for i, c := range proj {
		phases[i] = phaseOf(c, maximize)
	}
	return phases, nil
}

// Coordinates returns magnitude and phase together, batch-major.
func Coordinates(shapes *models.ModeShapes, disp models.Displacement, pixel models.Pixel, alpha float64, maximize MaximizeMode) ([]Coordinate, error) {
	if maximize != MaximizeDisplacement && maximize != MaximizeVelocity {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMaximizeMode, maximize)
	}
	if !(alpha >= 0) {
		return nil, fmt.Errorf("%w: %v", ErrNegativeGain, alpha)
	}
	proj, err := project(shapes, disp, pixel)
	if err != nil {
		return nil, err
	}

	coords := make([]Coordinate, len(proj))
	for i, c := range proj {
		coords[i] = Coordinate{
			Magnitude: cmplx.Abs(c) * alpha,
			Phase:     phaseOf(c, maximize),
		}
	}
	return coords, nil
}

func phaseOf(c complex128, maximize MaximizeMode) float64 {
	angle := -cmplx.Phase(c)
	if maximize == MaximizeVelocity {
		angle += math.Pi / 2
	}
	return angle
}

// project computes Σ_a disp[a]·φ[b,k,a,pixel] for every (b, k).
func project(shapes *models.ModeShapes, disp models.Displacement, pixel models.Pixel) ([]complex128, error) {
	if err := checkShapes(shapes, disp, pixel); err != nil {
		return nil, err
	}

	out := make([]complex128, shapes.Batch*shapes.Modes)
	for b := 0; b < shapes.Batch; b++ {
		for k := 0; k < shapes.Modes; k++ {
			var c complex128
			for a, d := range disp {
				c += complex(d, 0) * shapes.At(b, k, a, pixel.Row, pixel.Col)
			}
			out[b*shapes.Modes+k] = c
		}
	}
	return out, nil
}

func checkShapes(shapes *models.ModeShapes, disp models.Displacement, pixel models.Pixel) error {
	if shapes == nil {
		return ErrEmptyField
	}
	if want := shapes.Batch * shapes.Modes * shapes.Dim * shapes.Height * shapes.Width; len(shapes.Data) != want {
		return fmt.Errorf("mode shape data has %d values, shape requires %d", len(shapes.Data), want)
	}
	if len(disp) != shapes.Dim {
		return fmt.Errorf("%w: got %d, field has %d", ErrDisplacementLength, len(disp), shapes.Dim)
	}
	if pixel.Row < 0 || pixel.Row >= shapes.Height || pixel.Col < 0 || pixel.Col >= shapes.Width {
		return fmt.Errorf("%w: (%d, %d) outside %dx%d", ErrPixelOutOfBounds, pixel.Row, pixel.Col, shapes.Height, shapes.Width)
	}
	return nil
}

package modal

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"modalflow/internal/models"
)

// ReconstructOptions controls how the modal coordinate is derived from the
// reference displacement.
type ReconstructOptions struct {
	// Alpha is the gain applied to the modal magnitude
	Alpha float64

	// Maximize selects the displacement or velocity phase calibration
	Maximize MaximizeMode
}

// DefaultReconstructOptions returns unit gain and displacement phase.
func DefaultReconstructOptions() ReconstructOptions {
	return ReconstructOptions{Alpha: 1.0, Maximize: MaximizeDisplacement}
}

// Reconstruct synthesizes the dense deformation implied by a displacement
// observed at a single reference pixel.
//
// For every batch element the modal coordinate q_k is taken at pixel (see
// Coordinates), and every pixel's predicted motion is
//
//	D[a,i,j] = Re Σ_k φ_k[a,i,j] · q_k
//
// Per batch element this is one real matrix product: the texture block is a
// (K*2*dim) x (height*width) matrix and the weights are a dim x (K*2*dim)
// matrix carrying Re q_k in the real channel and -Im q_k in the imaginary
// channel of each axis.
//
// Returns:
//   - The deformation map of shape (batch, dim, height, width)
//   - The modal coordinates, batch-major, for inspection and export
//   - An error if any input is invalid; nothing is computed in that case
func Reconstruct(shapes *models.ModeShapes, disp models.Displacement, pixel models.Pixel, opts ReconstructOptions) (*models.DeformationMap, []Coordinate, error) {
	coords, err := Coordinates(shapes, disp, pixel, opts.Alpha, opts.Maximize)
	if err != nil {
		return nil, nil, err
	}

	dm := models.NewDeformationMap(shapes.Batch, shapes.Dim, shapes.Height, shapes.Width)
	plane := shapes.Height * shapes.Width
	if shapes.Modes == 0 || shapes.Dim == 0 || plane == 0 {
		return dm, coords, nil
	}

	texture := shapes.Texture()
	rows := shapes.Modes * texture.Channels()
	for b := 0; b < shapes.Batch; b++ {
		batchCoords := coords[b*shapes.Modes : (b+1)*shapes.Modes]
		if allZero(batchCoords) {
			continue
		}

		weights := mat.NewDense(shapes.Dim, rows, nil)
		for k, c := range batchCoords {
			q := c.Complex()
			for a := 0; a < shapes.Dim; a++ {
				col := k*texture.Channels() + 2*a
				weights.Set(a, col, real(q))
				weights.Set(a, col+1, -imag(q))
			}
		}

		block := texture.Data[b*rows*plane : (b+1)*rows*plane]
		modesMat := mat.NewDense(rows, plane, block)
		out := mat.NewDense(shapes.Dim, plane, dm.Data[dm.Index(b, 0, 0, 0):dm.Index(b+1, 0, 0, 0)])
		out.Mul(weights, modesMat)
	}

	return dm, coords, nil
}

// ReconstructTexture is Reconstruct for a motion texture.
func ReconstructTexture(texture *models.MotionTexture, disp models.Displacement, pixel models.Pixel, opts ReconstructOptions) (*models.DeformationMap, []Coordinate, error) {
	if texture == nil {
		return nil, nil, ErrEmptyField
	}
	if want := texture.Batch * texture.Modes * texture.Channels() * texture.Height * texture.Width; len(texture.Data) != want {
		return nil, nil, fmt.Errorf("texture data has %d values, shape requires %d", len(texture.Data), want)
	}
	return Reconstruct(texture.ModeShapes(), disp, pixel, opts)
}

func allZero(coords []Coordinate) bool {
	for _, c := range coords {
		if c.Magnitude != 0 {
			return false
		}
	}
	return true
}

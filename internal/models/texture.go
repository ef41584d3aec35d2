package models

// MotionTexture holds the retained Fourier coefficients of a flow field,
// laid out as (batch, modes, 2*dim, height, width). For axis a, channel 2a is
// the real part and channel 2a+1 the imaginary part.
type MotionTexture struct {
	// Data is the texture as a 1D array in row-major order
	Data []float64

	// Batch is the number of independent sequences
	Batch int

	// Modes is the number of retained harmonics K (DC excluded)
	Modes int

	// Dim is the number of motion axes; the texture has 2*Dim channels
	Dim int

	// Height and Width are the spatial dimensions in pixels
	Height, Width int
}

// NewMotionTexture allocates a zeroed texture.
func NewMotionTexture(batch, modes, dim, height, width int) *MotionTexture {
	return &MotionTexture{
		Data:   make([]float64, batch*modes*2*dim*height*width),
		Batch:  batch,
		Modes:  modes,
		Dim:    dim,
		Height: height,
		Width:  width,
	}
}

// Channels returns the number of real channels per mode.
func (m *MotionTexture) Channels() int { return 2 * m.Dim }

// Index returns the flat offset of element (b, k, c, i, j).
func (m *MotionTexture) Index(b, k, c, i, j int) int {
	return (((b*m.Modes+k)*m.Channels()+c)*m.Height+i)*m.Width + j
}

// At returns element (b, k, c, i, j).
func (m *MotionTexture) At(b, k, c, i, j int) float64 {
	return m.Data[m.Index(b, k, c, i, j)]
}

// ModeShapes pairs the real and imaginary channels into a freshly allocated
// complex array.
func (m *MotionTexture) ModeShapes() *ModeShapes {
	s := NewModeShapes(m.Batch, m.Modes, m.Dim, m.Height, m.Width)
	plane := m.Height * m.Width
	for b := 0; b < m.Batch; b++ {
		for k := 0; k < m.Modes; k++ {
			for a := 0; a < m.Dim; a++ {
				re := m.Data[m.Index(b, k, 2*a, 0, 0):]
				im := m.Data[m.Index(b, k, 2*a+1, 0, 0):]
				dst := s.Data[s.Index(b, k, a, 0, 0):]
				for p := 0; p < plane; p++ {
					dst[p] = complex(re[p], im[p])
				}
			}
		}
	}
	return s
}

// ModeShapes is the complex view of a motion texture, laid out as
// (batch, modes, dim, height, width).
type ModeShapes struct {
	Data []complex128

	Batch, Modes, Dim int

	Height, Width int
}

// NewModeShapes allocates a zeroed mode-shape field.
func NewModeShapes(batch, modes, dim, height, width int) *ModeShapes {
	return &ModeShapes{
		Data:   make([]complex128, batch*modes*dim*height*width),
		Batch:  batch,
		Modes:  modes,
		Dim:    dim,
		Height: height,
		Width:  width,
	}
}

// Index returns the flat offset of element (b, k, a, i, j).
func (s *ModeShapes) Index(b, k, a, i, j int) int {
	return (((b*s.Modes+k)*s.Dim+a)*s.Height+i)*s.Width + j
}

// At returns element (b, k, a, i, j).
func (s *ModeShapes) At(b, k, a, i, j int) complex128 {
	return s.Data[s.Index(b, k, a, i, j)]
}

// Texture splits the complex values back into real/imaginary channels.
func (s *ModeShapes) Texture() *MotionTexture {
	m := NewMotionTexture(s.Batch, s.Modes, s.Dim, s.Height, s.Width)
	plane := s.Height * s.Width
	for b := 0; b < s.Batch; b++ {
		for k := 0; k < s.Modes; k++ {
			for a := 0; a < s.Dim; a++ {
				src := s.Data[s.Index(b, k, a, 0, 0):]
				re := m.Data[m.Index(b, k, 2*a, 0, 0):]
				im := m.Data[m.Index(b, k, 2*a+1, 0, 0):]
				for p := 0; p < plane; p++ {
					re[p] = real(src[p])
					im[p] = imag(src[p])
				}
			}
		}
	}
	return m
}

// Pixel addresses one spatial location.
type Pixel struct {
	Row, Col int
}

// Displacement is a motion vector with one component per axis.
type Displacement []float64

// DeformationMap holds predicted real motion vectors laid out as
// (batch, dim, height, width).
type DeformationMap struct {
	Data []float64

	Batch, Dim int

	Height, Width int
}

// NewDeformationMap allocates a zeroed deformation map.
func NewDeformationMap(batch, dim, height, width int) *DeformationMap {
	return &DeformationMap{
		Data:   make([]float64, batch*dim*height*width),
		Batch:  batch,
		Dim:    dim,
		Height: height,
		Width:  width,
	}
}

// Index returns the flat offset of element (b, a, i, j).
func (d *DeformationMap) Index(b, a, i, j int) int {
	return ((b*d.Dim+a)*d.Height+i)*d.Width + j
}

// At returns element (b, a, i, j).
func (d *DeformationMap) At(b, a, i, j int) float64 {
	return d.Data[d.Index(b, a, i, j)]
}

// Axis returns a copy of axis a of batch b as a (height, width) array.
func (d *DeformationMap) Axis(b, a int) []float64 {
	plane := d.Height * d.Width
	start := d.Index(b, a, 0, 0)
	out := make([]float64, plane)
	copy(out, d.Data[start:start+plane])
	return out
}

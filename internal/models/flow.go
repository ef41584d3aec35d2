package models

import (
	"fmt"
)

// FlowField holds a dense optical-flow time series laid out as
// (batch, time, dim, height, width) in a flat row-major slice.
type FlowField struct {
	// Data is the flow data as a 1D array in row-major order
	Data []float64

	// Batch is the number of independent sequences
	Batch int

	// Time is the number of timesteps per sequence
	Time int

	// Dim is the number of motion components per pixel (2 or 3)
	Dim int

	// Height and Width are the spatial dimensions in pixels
	Height, Width int
}

// NewFlowField allocates a zeroed flow field.
func NewFlowField(batch, time, dim, height, width int) *FlowField {
	return &FlowField{
		Data:   make([]float64, batch*time*dim*height*width),
		Batch:  batch,
		Time:   time,
		Dim:    dim,
		Height: height,
		Width:  width,
	}
}

// FlowFieldFromFrames packs a sequence of per-frame flows into batches of
// timesteps frames each. Every frame is a (dim, height, width) array. The number
// of frames must be a positive multiple of timesteps.
func FlowFieldFromFrames(frames [][]float64, timesteps, dim, height, width int) (*FlowField, error) {
	if timesteps <= 0 {
		return nil, fmt.Errorf("timesteps must be positive, got %d", timesteps)
	}
	if len(frames) == 0 || len(frames)%timesteps != 0 {
		return nil, fmt.Errorf("%d frames cannot be split into batches of %d timesteps", len(frames), timesteps)
	}

	frameSize := dim * height * width
	field := NewFlowField(len(frames)/timesteps, timesteps, dim, height, width)
	for i, frame := range frames {
		if len(frame) != frameSize {
			return nil, fmt.Errorf("frame %d has %d values, expected %d", i, len(frame), frameSize)
		}
		copy(field.Data[i*frameSize:], frame)
	}
	return field, nil
}

// Index returns the flat offset of element (b, t, d, i, j).
func (f *FlowField) Index(b, t, d, i, j int) int {
	return (((b*f.Time+t)*f.Dim+d)*f.Height+i)*f.Width + j
}

// At returns element (b, t, d, i, j).
func (f *FlowField) At(b, t, d, i, j int) float64 {
	return f.Data[f.Index(b, t, d, i, j)]
}

// Set stores v at element (b, t, d, i, j).
func (f *FlowField) Set(b, t, d, i, j int, v float64) {
	f.Data[f.Index(b, t, d, i, j)] = v
}

// Frame returns a copy of frame t of batch b as a (dim, height, width) array.
func (f *FlowField) Frame(b, t int) []float64 {
	size := f.Dim * f.Height * f.Width
	start := f.Index(b, t, 0, 0, 0)
	frame := make([]float64, size)
	copy(frame, f.Data[start:start+size])
	return frame
}

// Validate checks that the declared shape matches the data length.
func (f *FlowField) Validate() error {
	if f.Batch < 0 || f.Time < 0 || f.Dim < 0 || f.Height < 0 || f.Width < 0 {
		return fmt.Errorf("negative flow field shape (%d, %d, %d, %d, %d)", f.Batch, f.Time, f.Dim, f.Height, f.Width)
	}
	if want := f.Batch * f.Time * f.Dim * f.Height * f.Width; len(f.Data) != want {
		return fmt.Errorf("flow field data has %d values, shape requires %d", len(f.Data), want)
	}
	return nil
}

// ViewKind tells whether a recording has one camera view or a stereo pair.
type ViewKind int

const (
	Mono ViewKind = iota
	Stereo
)

// String returns the configuration name of the view kind.
func (k ViewKind) String() string {
	switch k {
	case Mono:
		return "mono"
	case Stereo:
		return "stereo"
	default:
		return fmt.Sprintf("ViewKind(%d)", int(k))
	}
}

// ParseViewKind maps "mono" or "stereo" to a ViewKind.
func ParseViewKind(s string) (ViewKind, error) {
	switch s {
	case "mono":
		return Mono, nil
	case "stereo":
		return Stereo, nil
	default:
		return 0, fmt.Errorf("invalid video type %q (must be mono or stereo)", s)
	}
}

// Recording carries the flow fields of one capture together with its view kind.
// A Mono recording holds one view, a Stereo recording holds the left and right
// views in that order.
type Recording struct {
	Kind  ViewKind
	Views []*FlowField
}

// Validate checks the view count against the kind and, for stereo, that both
// views share a shape.
func (r *Recording) Validate() error {
	switch r.Kind {
	case Mono:
		if len(r.Views) != 1 {
			return fmt.Errorf("mono recording needs 1 view, got %d", len(r.Views))
		}
	case Stereo:
		if len(r.Views) != 2 {
			return fmt.Errorf("stereo recording needs 2 views, got %d", len(r.Views))
		}
	default:
		return fmt.Errorf("unknown view kind %v", r.Kind)
	}
	for i, v := range r.Views {
		if v == nil {
			return fmt.Errorf("view %d is nil", i)
		}
		if err := v.Validate(); err != nil {
			return fmt.Errorf("view %d: %w", i, err)
		}
	}
	if r.Kind == Stereo {
		l, rt := r.Views[0], r.Views[1]
		if l.Batch != rt.Batch || l.Time != rt.Time || l.Dim != rt.Dim || l.Height != rt.Height || l.Width != rt.Width {
			return fmt.Errorf("stereo views differ in shape")
		}
	}
	return nil
}

// Package flowio reads and writes dense optical-flow frames in the Middlebury
// .flo format and assembles frame sequences into flow fields.
package flowio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"modalflow/internal/models"
)

// floTag is the float32 sanity value at the start of every .flo file ("PIEH").
const floTag float32 = 202021.25

// maxFloSide bounds the declared width and height of a .flo file.
const maxFloSide = 1 << 15

// Frame is one 2D flow frame laid out as (2, height, width): the horizontal
// component plane followed by the vertical component plane.
type Frame struct {
	Width, Height int
	Data          []float64
}

// NewFrame allocates a zeroed frame.
func NewFrame(width, height int) *Frame {
	return &Frame{Width: width, Height: height, Data: make([]float64, 2*width*height)}
}

// U returns the horizontal component at (row, col).
func (f *Frame) U(row, col int) float64 { return f.Data[row*f.Width+col] }

// V returns the vertical component at (row, col).
func (f *Frame) V(row, col int) float64 { return f.Data[f.Width*f.Height+row*f.Width+col] }

// SetUV stores both components at (row, col).
func (f *Frame) SetUV(row, col int, u, v float64) {
	f.Data[row*f.Width+col] = u
	f.Data[f.Width*f.Height+row*f.Width+col] = v
}

// floHeaderSize is the byte length of the tag, width and height fields.
const floHeaderSize = 12

// ReadFlo decodes a single .flo frame.
func ReadFlo(r io.Reader) (*Frame, error) {
	br := bufio.NewReader(r)
	width, height, err := readFloHeader(br)
	if err != nil {
		return nil, err
	}
	return readFloData(br, width, height)
}

func readFloHeader(r io.Reader) (int, int, error) {
	var header struct {
		Tag           float32
		Width, Height int32
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return 0, 0, fmt.Errorf("failed to read flo header: %w", err)
	}
	if header.Tag != floTag {
		return 0, 0, fmt.Errorf("invalid flo tag %v (expected %v)", header.Tag, floTag)
	}
	if header.Width <= 0 || header.Height <= 0 || header.Width > maxFloSide || header.Height > maxFloSide {
		return 0, 0, fmt.Errorf("invalid flo dimensions %dx%d", header.Width, header.Height)
	}
	return int(header.Width), int(header.Height), nil
}

// readFloData reads the interleaved (u, v) rows one at a time. Storage grows
// with the rows actually received, so a header that overstates the size
// fails on the missing rows instead of allocating the declared frame.
func readFloData(r io.Reader, width, height int) (*Frame, error) {
	row := make([]float32, 2*width)
	var u, v []float64
	for i := 0; i < height; i++ {
		if err := binary.Read(r, binary.LittleEndian, row); err != nil {
			return nil, fmt.Errorf("failed to read flo data row %d of %d: %w", i, height, err)
		}
		for j := 0; j < width; j++ {
			u = append(u, float64(row[2*j]))
			v = append(v, float64(row[2*j+1]))
		}
	}
	return &Frame{Width: width, Height: height, Data: append(u, v...)}, nil
}

// WriteFlo encodes a single frame in .flo format.
func WriteFlo(w io.Writer, frame *Frame) error {
	if frame.Width <= 0 || frame.Height <= 0 || len(frame.Data) != 2*frame.Width*frame.Height {
		return fmt.Errorf("invalid frame %dx%d with %d values", frame.Width, frame.Height, len(frame.Data))
	}

	bw := bufio.NewWriter(w)
	header := struct {
		Tag           float32
		Width, Height int32
	}{floTag, int32(frame.Width), int32(frame.Height)}
	if err := binary.Write(bw, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("failed to write flo header: %w", err)
	}

	plane := frame.Width * frame.Height
	raw := make([]float32, 2*plane)
	for p := 0; p < plane; p++ {
		raw[2*p] = float32(frame.Data[p])
		raw[2*p+1] = float32(frame.Data[plane+p])
	}
	if err := binary.Write(bw, binary.LittleEndian, raw); err != nil {
		return fmt.Errorf("failed to write flo data: %w", err)
	}
	return bw.Flush()
}

// ReadFloFile reads a .flo file from disk.
func ReadFloFile(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(file)
	width, height, err := readFloHeader(br)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if want := int64(floHeaderSize) + 8*int64(width)*int64(height); info.Size() != want {
		return nil, fmt.Errorf("%s: file has %d bytes, a %dx%d flo file has %d", path, info.Size(), width, height, want)
	}

	frame, err := readFloData(br, width, height)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return frame, nil
}

// WriteFloFile writes a .flo file, creating parent directories as needed.
func WriteFloFile(path string, frame *Frame) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create flo file: %w", err)
	}
	if err := WriteFlo(file, frame); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WriteDeformation writes the first two axes of batch element b of a
// deformation map as a .flo file.
func WriteDeformation(path string, dm *models.DeformationMap, b int) error {
	if dm.Dim < 2 {
		return fmt.Errorf("deformation map needs at least 2 axes, got %d", dm.Dim)
	}
	if b < 0 || b >= dm.Batch {
		return fmt.Errorf("batch %d out of range [0, %d)", b, dm.Batch)
	}

	frame := NewFrame(dm.Width, dm.Height)
	copy(frame.Data, dm.Axis(b, 0))
	copy(frame.Data[dm.Width*dm.Height:], dm.Axis(b, 1))
	for _, v := range frame.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("deformation map contains non-finite values")
		}
	}
	return WriteFloFile(path, frame)
}

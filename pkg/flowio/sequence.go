package flowio

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"modalflow/internal/models"
)

// FrameRangeError reports a requested frame range that the sequence cannot
// satisfy. End is exclusive.
type FrameRangeError struct {
	Start, End int
	Length     int
}

func (e *FrameRangeError) Error() string {
	return fmt.Sprintf("frame range [%d, %d) out of range for sequence of length %d", e.Start, e.End, e.Length)
}

// ResolveFrameRange validates [start, end) against a sequence of length
// frames. An end of 0 selects every frame up to the last one.
func ResolveFrameRange(start, end, length int) (int, int, error) {
	if end == 0 {
		end = length
	}
	if start < 0 || end > length || start >= end {
		return 0, 0, &FrameRangeError{Start: start, End: end, Length: length}
	}
	return start, end, nil
}

// ListFrames returns the .flo files in dir, ordered by the number embedded in
// each filename.
func ListFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(filepath.Ext(entry.Name())) == ".flo" {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no .flo files found in %s", dir)
	}

	// Frame numbers decide the temporal order, not the lexical one
	sort.SliceStable(names, func(i, j int) bool {
		return extractNumber(names[i]) < extractNumber(names[j])
	})

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}

// extractNumber extracts the numeric part from a filename
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	var digits strings.Builder
	for _, c := range base {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}

	if digits.Len() > 0 {
		if num, err := strconv.Atoi(digits.String()); err == nil {
			return num
		}
	}
	return 0
}

// SplitStereo splits a side-by-side stereo frame into its left and right halves.
func SplitStereo(frame *Frame) (*Frame, *Frame, error) {
	if frame.Width%2 != 0 {
		return nil, nil, fmt.Errorf("stereo frame width must be even, got %d", frame.Width)
	}

	half := frame.Width / 2
	left := NewFrame(half, frame.Height)
	right := NewFrame(half, frame.Height)
	for i := 0; i < frame.Height; i++ {
		for j := 0; j < half; j++ {
			left.SetUV(i, j, frame.U(i, j), frame.V(i, j))
			right.SetUV(i, j, frame.U(i, j+half), frame.V(i, j+half))
		}
	}
	return left, right, nil
}

// LoadRecording reads frames [start, end) of the .flo sequence in dir and packs
// them into a recording of the given kind. Stereo frames are split into left
// and right halves. timesteps sets the batch length; 0 keeps the whole range
// as one batch.
//
// Returns a *FrameRangeError when the range does not fit the sequence.
func LoadRecording(dir string, kind models.ViewKind, start, end, timesteps int) (*models.Recording, error) {
	paths, err := ListFrames(dir)
	if err != nil {
		return nil, err
	}
	start, end, err = ResolveFrameRange(start, end, len(paths))
	if err != nil {
		return nil, err
	}
	if timesteps == 0 {
		timesteps = end - start
	}

	var width, height int
	var views [][]*Frame
	switch kind {
	case models.Mono:
		views = make([][]*Frame, 1)
	case models.Stereo:
		views = make([][]*Frame, 2)
	default:
		return nil, fmt.Errorf("unknown view kind %v", kind)
	}

	for n, path := range paths[start:end] {
		frame, err := ReadFloFile(path)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			width, height = frame.Width, frame.Height
		} else if frame.Width != width || frame.Height != height {
			return nil, fmt.Errorf("%s: frame is %dx%d, sequence is %dx%d", path, frame.Width, frame.Height, width, height)
		}

		switch kind {
		case models.Mono:
			views[0] = append(views[0], frame)
		case models.Stereo:
			left, right, err := SplitStereo(frame)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			views[0] = append(views[0], left)
			views[1] = append(views[1], right)
		}
	}

	rec := &models.Recording{Kind: kind}
	for _, frames := range views {
		data := make([][]float64, len(frames))
		for i, f := range frames {
			data[i] = f.Data
		}
		field, err := models.FlowFieldFromFrames(data, timesteps, 2, frames[0].Height, frames[0].Width)
		if err != nil {
			return nil, err
		}
		rec.Views = append(rec.Views, field)
	}
	return rec, nil
}

// Package export writes modal coordinates to YAML records that can be read
// back for later comparison between runs.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"modalflow/internal/models"
	"modalflow/pkg/modal"
)

// CoordinateRecord holds the modal coordinates of one analysis run together
// with the excitation that produced them.
type CoordinateRecord struct {
	// RunID identifies the run that produced the record
	RunID string `yaml:"runId"`

	// Pixel is the reference location as [row, col]
	Pixel [2]int `yaml:"pixel"`

	Displacement []float64 `yaml:"displacement"`
	Alpha        float64   `yaml:"alpha"`
	Maximize     string    `yaml:"maximize"`

	// Frequencies holds the angular frequency of each mode in rad/s
	Frequencies []float64 `yaml:"frequencies"`

	Batches []BatchCoordinates `yaml:"batches"`
}

// BatchCoordinates holds the per-mode coordinates of one batch element
type BatchCoordinates struct {
	Batch     int       `yaml:"batch"`
	Magnitude []float64 `yaml:"magnitude"`
	Phase     []float64 `yaml:"phase"`
}

// NewCoordinateRecord builds a record from batch-major coordinates with
// len(freqs) modes per batch element. A fresh run id is assigned.
func NewCoordinateRecord(pixel models.Pixel, disp models.Displacement, opts modal.ReconstructOptions, freqs []float64, coords []modal.Coordinate) (*CoordinateRecord, error) {
	modes := len(freqs)
	if (modes == 0 && len(coords) != 0) || (modes != 0 && len(coords)%modes != 0) {
		return nil, fmt.Errorf("%d coordinates do not match %d frequencies", len(coords), modes)
	}

	rec := &CoordinateRecord{
		RunID:        uuid.New().String(),
		Pixel:        [2]int{pixel.Row, pixel.Col},
		Displacement: append([]float64(nil), disp...),
		Alpha:        opts.Alpha,
		Maximize:     opts.Maximize.String(),
		Frequencies:  append([]float64(nil), freqs...),
	}
	if modes == 0 {
		return rec, nil
	}

	for b := 0; b < len(coords)/modes; b++ {
		bc := BatchCoordinates{
			Batch:     b,
			Magnitude: make([]float64, modes),
			Phase:     make([]float64, modes),
		}
		for k := 0; k < modes; k++ {
			c := coords[b*modes+k]
			bc.Magnitude[k] = c.Magnitude
			bc.Phase[k] = c.Phase
		}
		rec.Batches = append(rec.Batches, bc)
	}
	return rec, nil
}

// Coordinates flattens the record back into batch-major coordinates
func (r *CoordinateRecord) Coordinates() []modal.Coordinate {
	var coords []modal.Coordinate
	for _, bc := range r.Batches {
		for k := range bc.Magnitude {
			coords = append(coords, modal.Coordinate{Magnitude: bc.Magnitude[k], Phase: bc.Phase[k]})
		}
	}
	return coords
}

// Validate checks that every batch carries one magnitude and phase per frequency
func (r *CoordinateRecord) Validate() error {
	if _, err := modal.ParseMaximizeMode(r.Maximize); err != nil {
		return err
	}
	for _, bc := range r.Batches {
		if len(bc.Magnitude) != len(r.Frequencies) || len(bc.Phase) != len(r.Frequencies) {
			return fmt.Errorf("batch %d has %d magnitudes and %d phases for %d frequencies",
				bc.Batch, len(bc.Magnitude), len(bc.Phase), len(r.Frequencies))
		}
	}
	return nil
}

// SaveCoordinates writes a record as YAML, creating parent directories
func SaveCoordinates(path string, rec *CoordinateRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("error marshaling coordinates: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing coordinates: %w", err)
	}
	return nil
}

// LoadCoordinates reads and validates a record written by SaveCoordinates
func LoadCoordinates(path string) (*CoordinateRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading coordinates: %w", err)
	}

	rec := &CoordinateRecord{}
	if err := yaml.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("error parsing coordinates: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid coordinate record %s: %w", path, err)
	}
	return rec, nil
}

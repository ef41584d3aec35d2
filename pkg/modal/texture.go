package modal

import (
	"fmt"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"

	"modalflow/internal/models"
)

// ProgressCallback receives progress updates while a texture is estimated.
// completed and total count per-pixel time series.
type ProgressCallback func(completed, total int, message string)

// Estimator turns flow-field time series into motion textures.
//
// Every (batch, pixel) time series is independent, so the flattened
// batch*height*width series axis is split into contiguous chunks, one per
// worker. Each worker owns its FFT plan and scratch buffers and writes a
// disjoint set of output cells, which keeps the result bit-identical for any
// worker count.
type Estimator struct {
	workers          int
	progressCallback ProgressCallback
}

// NewEstimator creates an estimator using the given number of workers.
// A value below 1 selects runtime.NumCPU().
func NewEstimator(workers int) *Estimator {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &Estimator{workers: workers}
}

// SetProgressCallback sets a function that is called after each worker
// finishes its chunk. The callback is never called concurrently.
func (e *Estimator) SetProgressCallback(callback ProgressCallback) {
	e.progressCallback = callback
}

// Workers returns the configured worker count.
func (e *Estimator) Workers() int { return e.workers }

// Estimate computes the motion texture of field, keeping Fourier bins 1..modes
// of every time series. Each kept coefficient is scaled by 1/modes.
//
// Parameters:
//   - field: Flow field of shape (batch, T, dim, height, width), dim 2 or 3
//   - modes: Number of harmonics K, 1 <= K <= floor(T/2)
//
// Returns:
//   - A texture of shape (batch, K, 2*dim, height, width), or an error if the
//     field or K is invalid. Validation happens before any transform runs.
func (e *Estimator) Estimate(field *models.FlowField, modes int) (*models.MotionTexture, error) {
	if field == nil {
		return nil, ErrEmptyField
	}
	if field.Dim != 2 && field.Dim != 3 {
		return nil, fmt.Errorf("%w: %d (must be 2 or 3)", ErrUnsupportedDimension, field.Dim)
	}
	if err := field.Validate(); err != nil {
		return nil, err
	}
	if err := checkModeCount(field.Time, modes); err != nil {
		return nil, err
	}

	texture := models.NewMotionTexture(field.Batch, modes, field.Dim, field.Height, field.Width)
	plane := field.Height * field.Width
	total := field.Batch * plane
	if total == 0 {
		return texture, nil
	}

	workers := e.workers
	if workers > total {
		workers = total
	}
	chunk := (total + workers - 1) / workers

	var wg sync.WaitGroup
	var progressMutex sync.Mutex
	completed := 0

	for start := 0; start < total; start += chunk {
		end := start + chunk
		if end > total {
			end = total
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			e.transformRange(field, texture, start, end)

			if e.progressCallback != nil {
				progressMutex.Lock()
				completed += end - start
				e.progressCallback(completed, total, "Transforming time series")
				progressMutex.Unlock()
			}
		}(start, end)
	}
	wg.Wait()

	return texture, nil
}

// transformRange fills the texture cells of series [start, end), where series
// s is pixel s%plane of batch s/plane.
func (e *Estimator) transformRange(field *models.FlowField, texture *models.MotionTexture, start, end int) {
	timesteps := field.Time
	plane := field.Height * field.Width
	scale := 1.0 / float64(texture.Modes)

	fft := fourier.NewFFT(timesteps)
	seq := make([]float64, timesteps)
	coeffs := make([]complex128, timesteps/2+1)

	for s := start; s < end; s++ {
		b, p := s/plane, s%plane
		for a := 0; a < field.Dim; a++ {
			for t := 0; t < timesteps; t++ {
				seq[t] = field.Data[field.Index(b, t, a, 0, 0)+p]
			}
			fft.Coefficients(coeffs, seq)

			for k := 0; k < texture.Modes; k++ {
				// Bin 0 is the drift term and is skipped
				c := coeffs[k+1]
				texture.Data[texture.Index(b, k, 2*a, 0, 0)+p] = real(c) * scale
				texture.Data[texture.Index(b, k, 2*a+1, 0, 0)+p] = imag(c) * scale
			}
		}
	}
}

// EstimateRecording estimates a texture for every view of rec, in view order.
func (e *Estimator) EstimateRecording(rec *models.Recording, modes int) ([]*models.MotionTexture, error) {
	if rec == nil {
		return nil, ErrEmptyField
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	// Validate every view before transforming any of them
	for i, view := range rec.Views {
		if view.Dim != 2 && view.Dim != 3 {
			return nil, fmt.Errorf("view %d: %w: %d (must be 2 or 3)", i, ErrUnsupportedDimension, view.Dim)
		}
		if err := checkModeCount(view.Time, modes); err != nil {
			return nil, fmt.Errorf("view %d: %w", i, err)
		}
	}

	textures := make([]*models.MotionTexture, len(rec.Views))
	for i, view := range rec.Views {
		texture, err := e.Estimate(view, modes)
		if err != nil {
			return nil, fmt.Errorf("view %d: %w", i, err)
		}
		textures[i] = texture
	}
	return textures, nil
}

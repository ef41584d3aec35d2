// Package analysis runs the complete modal analysis pipeline over a recorded
// optical-flow sequence: loading, spectral estimation, reconstruction of the
// deformation for a reference excitation, and the optional outputs.
package analysis

import (
	"errors"
	"fmt"
	"path/filepath"

	"modalflow/internal/models"
	"modalflow/pkg/config"
	"modalflow/pkg/export"
	"modalflow/pkg/flowio"
	"modalflow/pkg/modal"
	"modalflow/pkg/visualization"
)

// Params holds the analysis parameters.
type Params struct {
	// FlowDir is the directory containing the .flo sequence
	FlowDir string

	// Kind selects a mono sequence or side-by-side stereo frames
	Kind models.ViewKind

	// StartFrame and EndFrame select frames [start, end); an end of 0 means
	// the last frame. Timesteps sets the batch length, 0 for a single batch.
	StartFrame int
	EndFrame   int
	Timesteps  int

	// Modes is the number of harmonics K kept above the DC term
	Modes int

	// SamplingPeriod is the time between frames in seconds
	SamplingPeriod float64

	Scaling modal.FrequencyScaling

	// NumCores is the worker count of the spectral transform
	NumCores int

	// Pixel and Displacement describe the reference excitation
	Pixel        models.Pixel
	Displacement models.Displacement

	Options modal.ReconstructOptions

	// OutputDir receives every file the pipeline writes
	OutputDir string

	SaveModeShapes  bool
	SaveCoordinates bool

	// CompareFrame is the index, within the loaded range, of the observed
	// frame the prediction is compared against. -1 disables comparison.
	CompareFrame int

	Verbose bool
}

// ParamsFromConfig converts a validated configuration into pipeline parameters
func ParamsFromConfig(cfg *config.Config) (*Params, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	kind, err := models.ParseViewKind(cfg.Input.VideoType)
	if err != nil {
		return nil, err
	}
	scaling, err := modal.ParseFrequencyScaling(cfg.Analysis.FrequencyScaling)
	if err != nil {
		return nil, err
	}
	maximize, err := modal.ParseMaximizeMode(cfg.Excitation.Maximize)
	if err != nil {
		return nil, err
	}

	return &Params{
		FlowDir:         cfg.Input.FlowDir,
		Kind:            kind,
		StartFrame:      cfg.Input.StartFrame,
		EndFrame:        cfg.Input.EndFrame,
		Timesteps:       cfg.Input.Timesteps,
		Modes:           cfg.Analysis.Modes,
		SamplingPeriod:  cfg.Analysis.SamplingPeriod,
		Scaling:         scaling,
		NumCores:        cfg.Analysis.NumCores,
		Pixel:           models.Pixel{Row: cfg.Excitation.Pixel[0], Col: cfg.Excitation.Pixel[1]},
		Displacement:    append(models.Displacement(nil), cfg.Excitation.Displacement...),
		Options:         modal.ReconstructOptions{Alpha: cfg.Excitation.Alpha, Maximize: maximize},
		OutputDir:       cfg.Output.Dir,
		SaveModeShapes:  cfg.Output.SaveModeShapes,
		SaveCoordinates: cfg.Output.SaveCoordinates,
		CompareFrame:    cfg.Output.CompareFrame,
		Verbose:         cfg.Output.Verbose,
	}, nil
}

// ViewResult holds the outputs computed for one camera view
type ViewResult struct {
	Texture     *models.MotionTexture
	Deformation *models.DeformationMap
	Coordinates []modal.Coordinate

	// Metrics is set when a comparison frame was requested
	Metrics *Metrics
}

// Analyzer runs the modal analysis pipeline.
//
// The pipeline consists of:
// 1. Loading the flow frames and packing them into a recording
// 2. Estimating the motion texture of every view
// 3. Computing the mode frequencies
// 4. Reconstructing the deformation for the reference excitation
// 5. Writing images, flow files and coordinate records
// 6. Comparing the prediction against an observed frame
type Analyzer struct {
	params *Params

	recording   *models.Recording
	frequencies []float64
	results     []ViewResult
}

// NewAnalyzer creates a new analyzer with the provided parameters.
//
// Parameters:
//   - params: Configuration parameters for the pipeline
//
// Returns:
//   - A new Analyzer instance initialized with the provided parameters
func NewAnalyzer(params *Params) *Analyzer {
	return &Analyzer{params: params}
}

// Process runs the complete analysis pipeline
func (a *Analyzer) Process() error {
	a.logf("Step 1: Loading flow frames from %s...\n", a.params.FlowDir)
	rec, err := flowio.LoadRecording(a.params.FlowDir, a.params.Kind, a.params.StartFrame, a.params.EndFrame, a.params.Timesteps)
	if err != nil {
		return fmt.Errorf("failed to load flow frames: %w", err)
	}
	a.recording = rec

	field := rec.Views[0]
	if err := a.checkExcitation(field); err != nil {
		return err
	}
	a.logf("Loaded %d view(s): batch=%d timesteps=%d size=%dx%d\n", len(rec.Views), field.Batch, field.Time, field.Width, field.Height)

	a.logf("Step 2: Estimating motion textures with %d mode(s)...\n", a.params.Modes)
	estimator := modal.NewEstimator(a.params.NumCores)
	if a.params.Verbose {
		estimator.SetProgressCallback(func(completed, total int, message string) {
			fmt.Printf("\r%s: %d/%d series", message, completed, total)
			if completed == total {
				fmt.Println()
			}
		})
	}
	textures, err := estimator.EstimateRecording(rec, a.params.Modes)
	if err != nil {
		return fmt.Errorf("failed to estimate motion textures: %w", err)
	}

	if a.params.SaveModeShapes {
		a.logf("Saving mode shape images...\n")
		for v, texture := range textures {
			dir := filepath.Join(a.params.OutputDir, "modes", fmt.Sprintf("view_%d", v))
			if err := visualization.NewViewer(texture).SaveModeSequence(dir); err != nil {
				fmt.Printf("Warning: Failed to save mode shapes of view %d: %v\n", v, err)
			}
		}
	}

	a.logf("Step 3: Computing mode frequencies...\n")
	a.frequencies, err = modal.Frequencies(field.Time, a.params.Modes, a.params.SamplingPeriod, a.params.Scaling)
	if err != nil {
		return fmt.Errorf("failed to compute frequencies: %w", err)
	}

	a.logf("Step 4: Reconstructing deformation at pixel (%d, %d)...\n", a.params.Pixel.Row, a.params.Pixel.Col)
	a.results = make([]ViewResult, len(textures))
	for v, texture := range textures {
		dm, coords, err := modal.ReconstructTexture(texture, a.params.Displacement, a.params.Pixel, a.params.Options)
		if err != nil {
			return fmt.Errorf("failed to reconstruct view %d: %w", v, err)
		}
		a.results[v] = ViewResult{Texture: texture, Deformation: dm, Coordinates: coords}
	}

	a.logf("Step 5: Writing results to %s...\n", a.params.OutputDir)
	if err := a.saveResults(); err != nil {
		return err
	}

	if a.params.CompareFrame >= 0 {
		a.logf("Step 6: Comparing against observed frame %d...\n", a.params.CompareFrame)
		if err := a.compare(); err != nil {
			return err
		}
	}

	return nil
}

// checkExcitation rejects a reference pixel or displacement that does not fit
// the loaded field, before any transform runs or any file is written.
func (a *Analyzer) checkExcitation(field *models.FlowField) error {
	p := a.params.Pixel
	if p.Row < 0 || p.Row >= field.Height || p.Col < 0 || p.Col >= field.Width {
		return fmt.Errorf("invalid excitation: %w: (%d, %d) outside %dx%d",
			modal.ErrPixelOutOfBounds, p.Row, p.Col, field.Height, field.Width)
	}
	if len(a.params.Displacement) != field.Dim {
		return fmt.Errorf("invalid excitation: %w: got %d, field has %d",
			modal.ErrDisplacementLength, len(a.params.Displacement), field.Dim)
	}
	if !(a.params.Options.Alpha >= 0) {
		return fmt.Errorf("invalid excitation: %w: %v", modal.ErrNegativeGain, a.params.Options.Alpha)
	}
	return nil
}

// saveResults writes the deformation of every view and batch element as a
// color-coded image and a .flo file, plus the coordinate record and chart.
func (a *Analyzer) saveResults() error {
	for v, res := range a.results {
		dm := res.Deformation
		for b := 0; b < dm.Batch; b++ {
			base := filepath.Join(a.params.OutputDir, "deformation", fmt.Sprintf("view%d_b%02d", v, b))

			if dm.Dim >= 2 {
				img, err := visualization.FlowToImage(dm, b)
				if err != nil {
					return fmt.Errorf("failed to color-code deformation: %w", err)
				}
				if err := visualization.SavePNG(img, base+".png"); err != nil {
					return fmt.Errorf("failed to save deformation image: %w", err)
				}
				if err := flowio.WriteDeformation(base+".flo", dm, b); err != nil {
					return fmt.Errorf("failed to save deformation flow: %w", err)
				}
			}
		}

		if !a.params.SaveCoordinates {
			continue
		}
		rec, err := export.NewCoordinateRecord(a.params.Pixel, a.params.Displacement, a.params.Options, a.frequencies, res.Coordinates)
		if err != nil {
			return err
		}
		path := filepath.Join(a.params.OutputDir, fmt.Sprintf("coordinates_view%d.yaml", v))
		if err := export.SaveCoordinates(path, rec); err != nil {
			return err
		}
		if len(res.Coordinates) > 0 {
			if err := visualization.PlotCoordinates(a.params.OutputDir, fmt.Sprintf("coordinates_view%d", v), a.frequencies, res.Coordinates); err != nil {
				fmt.Printf("Warning: Failed to plot coordinates of view %d: %v\n", v, err)
			}
		}
	}
	return nil
}

// compare scores each view's prediction against the observed frame selected
// by CompareFrame. The prediction of the batch containing the frame is used.
func (a *Analyzer) compare() error {
	field := a.recording.Views[0]
	total := field.Batch * field.Time
	if a.params.CompareFrame >= total {
		return fmt.Errorf("compare frame: %w",
			&flowio.FrameRangeError{Start: a.params.CompareFrame, End: a.params.CompareFrame + 1, Length: total})
	}
	b, t := a.params.CompareFrame/field.Time, a.params.CompareFrame%field.Time

	for v := range a.results {
		dm := a.results[v].Deformation
		predicted := dm.Data[dm.Index(b, 0, 0, 0):dm.Index(b+1, 0, 0, 0)]
		observed := a.recording.Views[v].Frame(b, t)

		m, err := Compare(predicted, observed)
		if err != nil {
			return fmt.Errorf("failed to compare view %d: %w", v, err)
		}
		a.results[v].Metrics = &m
		a.logf("View %d: correlation=%.3f rmse=%.4f mae=%.4f mape=%.1f%% cosine=%.3f\n",
			v, m.CrossCorrelation, m.RMSE, m.MAE, m.MAPE, m.Cosine)
	}
	return nil
}

func (a *Analyzer) logf(format string, args ...any) {
	if a.params.Verbose {
		fmt.Printf(format, args...)
	}
}

// Frequencies returns the angular frequency of each mode after Process
func (a *Analyzer) Frequencies() []float64 {
	return a.frequencies
}

// Results returns the per-view outputs after Process
func (a *Analyzer) Results() []ViewResult {
	return a.results
}

// IsFrameRangeError reports whether err was caused by a frame range the
// sequence cannot satisfy.
func IsFrameRangeError(err error) bool {
	var fre *flowio.FrameRangeError
	return errors.As(err, &fre)
}

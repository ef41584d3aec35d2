package visualization

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"modalflow/pkg/modal"
)

// PlotCoordinates draws the modal coordinate spectrum, one line per batch
// element, and saves "<prefix>_magnitude.png" and "<prefix>_phase.png" in dir.
// coords is batch-major with len(freqs) modes per batch element.
func PlotCoordinates(dir, prefix string, freqs []float64, coords []modal.Coordinate) error {
	modes := len(freqs)
	if modes == 0 || len(coords) == 0 || len(coords)%modes != 0 {
		return fmt.Errorf("%d coordinates do not match %d frequencies", len(coords), modes)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	pMag := plot.New()
	pMag.Title.Text = "Modal Coordinate Magnitude"
	pMag.X.Label.Text = "Angular frequency (rad/s)"
	pMag.Y.Label.Text = "|q|"

	pPhase := plot.New()
	pPhase.Title.Text = "Modal Coordinate Phase"
	pPhase.X.Label.Text = "Angular frequency (rad/s)"
	pPhase.Y.Label.Text = "Phase (rad)"

	batches := len(coords) / modes
	colors := lineColors(batches)
	for b := 0; b < batches; b++ {
		magPts := make(plotter.XYs, modes)
		phasePts := make(plotter.XYs, modes)
		for k := 0; k < modes; k++ {
			c := coords[b*modes+k]
			magPts[k] = plotter.XY{X: freqs[k], Y: c.Magnitude}
			phasePts[k] = plotter.XY{X: freqs[k], Y: c.Phase}
		}

		label := fmt.Sprintf("batch %d", b)

		magLine, err := plotter.NewLine(magPts)
		if err != nil {
			return err
		}
		magLine.Color = colors[b]
		magLine.Width = vg.Points(1)
		pMag.Add(magLine)
		pMag.Legend.Add(label, magLine)

		phaseScatter, err := plotter.NewScatter(phasePts)
		if err != nil {
			return err
		}
		phaseScatter.Color = colors[b]
		pPhase.Add(phaseScatter)
		pPhase.Legend.Add(label, phaseScatter)
	}

	for _, p := range []*plot.Plot{pMag, pPhase} {
		p.Legend.Top = true
		p.Legend.Left = false
		p.Legend.XOffs = -10
		p.Legend.YOffs = -10
	}

	magFile := filepath.Join(dir, prefix+"_magnitude.png")
	if err := pMag.Save(10*vg.Inch, 5*vg.Inch, magFile); err != nil {
		return fmt.Errorf("save magnitude plot: %w", err)
	}

	phaseFile := filepath.Join(dir, prefix+"_phase.png")
	if err := pPhase.Save(10*vg.Inch, 5*vg.Inch, phaseFile); err != nil {
		return fmt.Errorf("save phase plot: %w", err)
	}

	return nil
}

// lineColors returns n colors spread around the flow color wheel
func lineColors(n int) []color.Color {
	colors := make([]color.Color, n)
	for i := range colors {
		c := colorWheel[(i*len(colorWheel)/max(n, 1))%len(colorWheel)]
		colors[i] = color.RGBA{R: uint8(c[0]), G: uint8(c[1]), B: uint8(c[2]), A: 255}
	}
	return colors
}

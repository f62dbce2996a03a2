// Package report renders occupancy plots for voxel grids.
package report

import (
	"errors"
	"fmt"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/voxelize/internal/monitoring"
)

// ErrNoVoxels is returned when there is nothing to plot.
var ErrNoVoxels = errors.New("no voxels to plot")

// WriteOccupancyHistogram renders a histogram of per-voxel point counts to
// path. The image format follows the file extension (.png, .svg, .pdf).
// One bin is used per possible count, 1..maxPoints.
func WriteOccupancyHistogram(path string, counts []int32, maxPoints int) error {
	if len(counts) == 0 {
		return ErrNoVoxels
	}
	if maxPoints < 1 {
		return fmt.Errorf("max points per voxel must be positive, got %d", maxPoints)
	}

	values := make(plotter.Values, len(counts))
	full := 0
	for i, c := range counts {
		values[i] = float64(c)
		if int(c) == maxPoints {
			full++
		}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Voxel occupancy (%d voxels, %d full)", len(counts), full)
	p.X.Label.Text = "Points per voxel"
	p.Y.Label.Text = "Voxels"
	p.X.Min = 0.5
	p.X.Max = float64(maxPoints) + 0.5

	hist, err := plotter.NewHist(values, maxPoints)
	if err != nil {
		return fmt.Errorf("failed to build histogram: %w", err)
	}
	hist.LineStyle.Width = vg.Points(0.5)
	p.Add(hist)

	if err := p.Save(8*vg.Inch, 5*vg.Inch, filepath.Clean(path)); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	monitoring.Logf("Wrote occupancy histogram to %s", path)
	return nil
}

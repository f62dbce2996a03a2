package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/banshee-data/voxelize/internal/voxel"
)

const outcomeLabel = "outcome"

// Point outcomes used as the outcome label value.
const (
	OutcomeStored        = "stored"
	OutcomeOutOfRange    = "out_of_range"
	OutcomeVoxelCapacity = "dropped_voxel_capacity"
	OutcomePointCapacity = "dropped_point_capacity"
)

var (
	cloudsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxelize_clouds_total",
		Help: "The number of point clouds voxelized.",
	})

	pointsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxelize_points_total",
		Help: "Input points by what happened to them.",
	}, []string{outcomeLabel})

	voxelsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxelize_voxels_total",
		Help: "The number of voxel slots emitted.",
	})

	saturatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxelize_saturated_clouds_total",
		Help: "The number of clouds that hit a capacity limit.",
	})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voxelize_run_duration_seconds",
		Help:    "Wall time of one voxelization call.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	})
)

// RunSummary is what ObserveRun and LogRun record for one call.
type RunSummary struct {
	Stats    voxel.Stats
	Voxels   int
	Duration time.Duration
}

// ObserveRun records a finished voxelization call.
func ObserveRun(r RunSummary) {
	cloudsTotal.Inc()
	voxelsTotal.Add(float64(r.Voxels))
	pointsTotal.With(prometheus.Labels{outcomeLabel: OutcomeStored}).Add(float64(r.Stats.StoredPoints))
	pointsTotal.With(prometheus.Labels{outcomeLabel: OutcomeOutOfRange}).Add(float64(r.Stats.OutOfRange))
	pointsTotal.With(prometheus.Labels{outcomeLabel: OutcomeVoxelCapacity}).Add(float64(r.Stats.DroppedVoxelCapacity))
	pointsTotal.With(prometheus.Labels{outcomeLabel: OutcomePointCapacity}).Add(float64(r.Stats.DroppedPointCapacity))
	if r.Stats.Saturated() {
		saturatedTotal.Inc()
	}
	runDuration.Observe(r.Duration.Seconds())
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banshee-data/voxelize/internal/config"
	"github.com/banshee-data/voxelize/internal/gridcodec"
	"github.com/banshee-data/voxelize/internal/monitoring"
	"github.com/banshee-data/voxelize/internal/pointio"
	"github.com/banshee-data/voxelize/internal/report"
	"github.com/banshee-data/voxelize/internal/runstore"
	"github.com/banshee-data/voxelize/internal/version"
	"github.com/banshee-data/voxelize/internal/voxel"
)

var (
	configFile    = flag.String("config", "", "Path to a voxelization config JSON file (default: built-in defaults)")
	inputs        = flag.String("input", "", "Comma-separated point files (.bin, .csv, .txt); extra positional args are added")
	features      = flag.Int("features", 0, "Fields per point in .bin inputs (default: config point_features)")
	dbFile        = flag.String("db", "", "Record runs in this SQLite database")
	plotDir       = flag.String("plot", "", "Write an occupancy histogram PNG per input into this directory")
	outDir        = flag.String("out", "", "Write the encoded grid per input into this directory")
	metricsListen = flag.String("metrics-listen", "", "Serve Prometheus /metrics on this address until interrupted")
	debug         = flag.Bool("debug", false, "Log per-call voxelizer diagnostics to stderr")
	showVersion   = flag.Bool("version", false, "Print version and exit")
)

// options is the resolved command line.
type options struct {
	cfg      *config.VoxelConfig
	inputs   []string
	features int
	dbFile   string
	plotDir  string
	outDir   string
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("voxelize"))
		return
	}
	if *debug {
		voxel.SetDebugLogger(os.Stderr)
	}

	cfg := config.DefaultVoxelConfig()
	if *configFile != "" {
		var err error
		if cfg, err = config.LoadVoxelConfig(*configFile); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	opts := options{
		cfg:      cfg,
		inputs:   splitInputs(*inputs, flag.Args()),
		features: *features,
		dbFile:   *dbFile,
		plotDir:  *plotDir,
		outDir:   *outDir,
	}
	if len(opts.inputs) == 0 {
		log.Fatal("at least one input file is required (-input or positional arguments)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var server *http.Server
	if *metricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		server = &http.Server{Addr: *metricsListen, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("failed to start metrics server: %v", err)
			}
		}()
		log.Printf("serving metrics on %s/metrics", *metricsListen)
	}

	if err := run(ctx, opts); err != nil {
		log.Fatalf("voxelize: %v", err)
	}

	if server == nil {
		return
	}
	log.Printf("done; metrics stay available until interrupted")
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("metrics server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			log.Printf("metrics server force close error: %v", err)
		}
	}
}

// splitInputs merges the -input list with positional arguments.
func splitInputs(list string, args []string) []string {
	var out []string
	for _, s := range strings.Split(list, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return append(out, args...)
}

// run voxelizes every input with one shared voxelizer and writes the
// requested outputs.
func run(ctx context.Context, opts options) error {
	params, err := opts.cfg.ToParams()
	if err != nil {
		return err
	}
	v, err := voxel.New[float32](params)
	if err != nil {
		return err
	}
	shape := v.GridShape()
	monitoring.Logf("grid %dx%dx%d (%s lookup, %s on overflow), max %d voxels x %d points",
		shape[0], shape[1], shape[2], params.Lookup, params.Overflow, params.MaxVoxels, params.MaxPointsPerVoxel)

	if opts.outDir != "" || opts.plotDir != "" {
		if err := checkOutputNames(opts.inputs); err != nil {
			return err
		}
	}

	nFeatures := opts.features
	if nFeatures == 0 {
		nFeatures = opts.cfg.GetPointFeatures()
	}
	clouds := make([]voxel.PointCloud[float32], len(opts.inputs))
	for i, path := range opts.inputs {
		if clouds[i], err = pointio.LoadFile(path, nFeatures); err != nil {
			return err
		}
	}

	start := time.Now()
	grids, err := voxel.VoxelizeBatch(ctx, v, clouds, opts.cfg.GetBatchConcurrency())
	if err != nil {
		return err
	}
	// Clouds run concurrently, so each is charged an equal share.
	perCloud := time.Since(start) / time.Duration(len(grids))

	if opts.plotDir != "" {
		if err := os.MkdirAll(opts.plotDir, 0755); err != nil {
			return err
		}
	}

	var store *runstore.Store
	if opts.dbFile != "" {
		if store, err = runstore.Open(opts.dbFile); err != nil {
			return fmt.Errorf("failed to open run store: %w", err)
		}
		defer store.Close()
	}

	for i, g := range grids {
		source := opts.inputs[i]
		summary := monitoring.RunSummary{Stats: g.Stats, Voxels: g.Len(), Duration: perCloud}
		monitoring.ObserveRun(summary)
		monitoring.LogRun(source, summary)

		if occ := voxel.Summarize(g); occ.Voxels > 0 {
			monitoring.Logf("%s occupancy: mean=%.2f stddev=%.2f min=%.0f max=%.0f full=%d (%.1f%% fill)",
				source, occ.Mean, occ.StdDev, occ.Min, occ.Max, occ.Full, 100*occ.FillRatio)
		}

		if store != nil {
			r, err := runstore.SaveGrid(ctx, store, source, g, perCloud)
			if err != nil {
				return fmt.Errorf("%s: %w", source, err)
			}
			monitoring.Logf("recorded run %s for %s", r.ID, source)
		}
		if opts.outDir != "" {
			if err := writeGrid(filepath.Join(opts.outDir, outputName(source, ".vox.zst")), g); err != nil {
				return err
			}
		}
		if opts.plotDir != "" && g.Len() > 0 {
			path := filepath.Join(opts.plotDir, outputName(source, "_occupancy.png"))
			if err := report.WriteOccupancyHistogram(path, g.Counts, g.MaxPointsPerVoxel); err != nil {
				return err
			}
		}
	}
	return nil
}

// outputName derives an output file name from an input path.
func outputName(input, suffix string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base)) + suffix
}

// checkOutputNames fails when two inputs would write the same output file.
func checkOutputNames(inputs []string) error {
	seen := make(map[string]string, len(inputs))
	for _, in := range inputs {
		name := outputName(in, "")
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("inputs %s and %s would write the same output files", prev, in)
		}
		seen[name] = in
	}
	return nil
}

func writeGrid(path string, g *voxel.Grid[float32]) error {
	blob, err := gridcodec.Encode(g)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(path, blob, 0644); err != nil {
		return fmt.Errorf("failed to write grid: %w", err)
	}
	monitoring.Logf("wrote %d-byte grid to %s", len(blob), path)
	return nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/tapfocus/internal/config"
	"github.com/banshee-data/tapfocus/internal/focus"
	"github.com/banshee-data/tapfocus/internal/monitor"
	"github.com/banshee-data/tapfocus/internal/monitoring"
	"github.com/banshee-data/tapfocus/internal/pick"
	"github.com/banshee-data/tapfocus/internal/pickdb"
	"github.com/banshee-data/tapfocus/internal/pointcloud"
	"github.com/banshee-data/tapfocus/internal/version"
)

var (
	configFile = flag.String("config", "", "Path to pick config JSON (defaults built in)")
	cloudFile  = flag.String("cloud", "", "Path to an F16P point cloud file")
	synthetic  = flag.Int("synthetic", 0, "Generate a synthetic cloud with this many points instead of -cloud")
	seed       = flag.Int64("seed", 1, "Seed for -synthetic")
	saveCloud  = flag.String("save-cloud", "", "Write the loaded or generated cloud to this F16P file")
	tapX       = flag.Float64("x", -1, "Tap X in pixels (default: viewport centre)")
	tapY       = flag.Float64("y", -1, "Tap Y in pixels (default: viewport centre)")
	width      = flag.Float64("width", 1280, "Viewport width in pixels")
	height     = flag.Float64("height", 720, "Viewport height in pixels")
	eyeX       = flag.Float64("eye-x", 0, "Camera eye X")
	eyeY       = flag.Float64("eye-y", 2, "Camera eye Y")
	eyeZ       = flag.Float64("eye-z", 12, "Camera eye Z")
	lookX      = flag.Float64("look-x", 0, "Camera target X")
	lookY      = flag.Float64("look-y", 0, "Camera target Y")
	lookZ      = flag.Float64("look-z", 0, "Camera target Z")
	dbFile     = flag.String("db", "", "Record picks to this SQLite database")
	history    = flag.Int("history", 0, "Print this many recent picks from -db and exit")
	plotFile   = flag.String("plot", "", "Write a PNG scatter of the samples and pick")
	chartFile  = flag.String("chart", "", "Write an HTML chart of the samples and pick")
	topView    = flag.Bool("top", false, "Plot the XZ plane instead of XY")
	debug      = flag.Bool("debug", false, "Log per-tap detail")
	showVer    = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()
	if *showVer {
		fmt.Println(version.String())
		return
	}
	monitoring.SetDebug(*debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context) error {
	var db *pickdb.DB
	if *dbFile != "" {
		var err error
		if db, err = pickdb.Open(*dbFile); err != nil {
			return fmt.Errorf("failed to open pick database: %w", err)
		}
		defer db.Close()
	}

	if *history > 0 {
		if db == nil {
			return fmt.Errorf("-history requires -db")
		}
		return printHistory(ctx, db, *history)
	}

	cfg := config.DefaultPickConfig()
	if *configFile != "" {
		var err error
		if cfg, err = config.LoadPickConfig(*configFile); err != nil {
			return err
		}
	}

	cloud, err := loadCloud()
	if err != nil {
		return err
	}
	if *saveCloud != "" {
		if err := pointcloud.WriteFile(*saveCloud, cloud); err != nil {
			return err
		}
		log.Printf("wrote %d points to %s", cloud.Count, *saveCloud)
	}

	ctrl, err := focus.NewController(cloud, cfg)
	if err != nil {
		return err
	}
	if db != nil {
		ctrl.SetRecorder(db)
	}

	vp := pick.Viewport{Width: *width, Height: *height}
	pointer := vp.Center()
	if *tapX >= 0 {
		pointer.X = *tapX
	}
	if *tapY >= 0 {
		pointer.Y = *tapY
	}
	cam := ctrl.Camera(r3.Vec{X: *eyeX, Y: *eyeY, Z: *eyeZ}, r3.Vec{X: *lookX, Y: *lookY, Z: *lookZ})

	snap, err := ctrl.Tap(ctx, pointer, vp, cam)
	if err != nil {
		return fmt.Errorf("tap failed: %w", err)
	}
	logSnapshot(snap)

	plane := monitor.PlaneXY
	if *topView {
		plane = monitor.PlaneXZ
	}
	if *plotFile != "" {
		if err := monitor.WritePickPlot(*plotFile, ctrl.LastSamples(), snap, plane); err != nil {
			return err
		}
		log.Printf("wrote plot %s", *plotFile)
	}
	if *chartFile != "" {
		f, err := os.Create(*chartFile)
		if err != nil {
			return fmt.Errorf("failed to create chart file: %w", err)
		}
		if err := monitor.WritePickChart(f, ctrl.LastSamples(), snap, plane); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Printf("wrote chart %s", *chartFile)
	}
	return nil
}

func loadCloud() (*pointcloud.Cloud, error) {
	switch {
	case *synthetic > 0:
		c := pointcloud.Synthetic(*seed, *synthetic)
		log.Printf("generated synthetic cloud: %d points (seed %d)", c.Count, *seed)
		return c, nil
	case *cloudFile != "":
		c, err := pointcloud.LoadFile(*cloudFile)
		if err != nil {
			return nil, err
		}
		log.Printf("loaded %d points from %s", c.Count, *cloudFile)
		return c, nil
	}
	return nil, fmt.Errorf("one of -cloud or -synthetic is required")
}

func logSnapshot(s focus.Snapshot) {
	if !s.Matched {
		log.Printf("tap %s at (%.1f, %.1f): no point selected (stride=%d sampled=%d)",
			s.TapID, s.Pointer.X, s.Pointer.Y, s.Stride, s.Sampled)
		return
	}
	log.Printf("tap %s at (%.1f, %.1f): point #%d at (%.4f, %.4f, %.4f) distSq=%.6g rayDist=%.4f",
		s.TapID, s.Pointer.X, s.Pointer.Y, s.SourceIndex, s.Target.X, s.Target.Y, s.Target.Z, s.DistSq, s.RayDistance)
	if s.MarkerVisible {
		log.Printf("marker at (%.1f, %.1f), %.2fpx from pointer (on target: %t)",
			s.Marker.X, s.Marker.Y, s.MarkerOffsetPx, s.MarkerOnTarget)
	}
}

func printHistory(ctx context.Context, db *pickdb.DB, limit int) error {
	picks, err := db.RecentPicks(ctx, limit)
	if err != nil {
		return err
	}
	total, matched, err := db.CountPicks(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%d picks recorded, %d matched\n", total, matched)
	for _, p := range picks {
		if p.Matched {
			fmt.Printf("%s seq=%d point=#%d (%.3f, %.3f, %.3f) distSq=%.4g\n",
				p.TapID, p.Seq, p.SourceIndex, p.Target.X, p.Target.Y, p.Target.Z, p.DistSq)
		} else {
			fmt.Printf("%s seq=%d no match\n", p.TapID, p.Seq)
		}
	}
	return nil
}

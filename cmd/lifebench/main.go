//go:build !nogpu

// Command lifebench times the Game of Life compute kernel on a GPU.
//
// It seeds a square grid, runs the requested number of steps, and reports
// the dispatch size and throughput. With -verify the final generation is
// compared against the CPU reference; with -png it is saved as an image.
//
//	lifebench -size 2048 -steps 500 -seed 7 -verify -png life.png
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/life"
	"github.com/gogpu/life/gpu"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	// Register every backend available on this platform.
	_ "github.com/gogpu/wgpu/hal/allbackends"
)

var backends = map[string]gputypes.Backend{
	"vulkan": gputypes.BackendVulkan,
	"metal":  gputypes.BackendMetal,
	"dx12":   gputypes.BackendDX12,
	"gl":     gputypes.BackendGL,
}

func main() {
	var (
		size    = flag.Int("size", 1024, "grid width and height in cells")
		steps   = flag.Int("steps", 1000, "number of generations to run")
		seed    = flag.Uint64("seed", 0, "random seed (0 picks one from the clock)")
		prob    = flag.Float64("p", life.DefaultAliveProbability, "probability that a cell starts alive")
		backend = flag.String("backend", "", "force a backend: vulkan, metal, dx12 or gl")
		verify  = flag.Bool("verify", false, "compare the final generation with the CPU reference")
		pngPath = flag.String("png", "", "write the final generation to this PNG file")
		scale   = flag.Int("scale", 1, "pixels per cell in the PNG")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		life.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano()) //nolint:gosec // seed value only
	}

	if err := run(config{
		grid:    life.Square(*size),
		steps:   *steps,
		seed:    *seed,
		prob:    *prob,
		backend: *backend,
		verify:  *verify,
		pngPath: *pngPath,
		scale:   *scale,
	}); err != nil {
		log.Fatal(err)
	}
}

type config struct {
	grid    life.Grid
	steps   int
	seed    uint64
	prob    float64
	backend string
	verify  bool
	pngPath string
	scale   int
}

func run(cfg config) error {
	if err := cfg.grid.Validate(); err != nil {
		return err
	}

	var devOpts []gpu.DeviceOption
	if cfg.backend != "" {
		b, ok := backends[strings.ToLower(cfg.backend)]
		if !ok {
			return fmt.Errorf("unknown backend %q", cfg.backend)
		}
		devOpts = append(devOpts, gpu.WithBackend(b))
	}
	dev, err := gpu.OpenDevice(devOpts...)
	if err != nil {
		return err
	}

	sim, err := gpu.NewOnDevice(dev, cfg.grid,
		gpu.WithAliveProbability(cfg.prob),
		gpu.WithRandSource(life.NewSource(cfg.seed)),
	)
	if err != nil {
		dev.Close()
		return err
	}
	defer sim.Close()

	p := message.NewPrinter(language.English)
	info := dev.Info()
	plan := sim.Engine.Plan(0)
	p.Printf("Adapter:     %s (%s, %s)\n", info.Name, info.DeviceType, info.Backend)
	p.Printf("Grid:        %s, seed %d, p=%.2f\n", cfg.grid, cfg.seed, cfg.prob)
	p.Printf("Dispatch:    %dx%d work groups, %d invocations per step\n", plan.X, plan.Y, plan.Invocations())

	ctx := context.Background()
	start := time.Now()
	if err := sim.Run(ctx, cfg.steps); err != nil {
		return fmt.Errorf("after %d steps: %w", sim.Step, err)
	}
	elapsed := time.Since(start)

	rate := float64(cfg.steps) / elapsed.Seconds()
	p.Printf("Steps:       %d in %v\n", cfg.steps, elapsed.Round(time.Millisecond))
	p.Printf("Throughput:  %.1f steps/s, %.0f cells/s\n", rate, rate*float64(cfg.grid.Cells()))

	if !cfg.verify && cfg.pngPath == "" {
		return nil
	}
	cells, err := sim.Snapshot(ctx)
	if err != nil {
		return err
	}
	p.Printf("Population:  %d\n", cells.Population())

	if cfg.verify {
		if err := verify(p, cfg, cells); err != nil {
			return err
		}
	}
	if cfg.pngPath != "" {
		img, err := life.Image(cells, cfg.grid)
		if err != nil {
			return err
		}
		if err := life.SavePNG(cfg.pngPath, life.Scale(img, cfg.scale)); err != nil {
			return err
		}
		p.Printf("Snapshot:    %s\n", cfg.pngPath)
	}
	return nil
}

func verify(p *message.Printer, cfg config, got life.Cells) error {
	start := time.Now()
	ref := life.NewUniverse(cfg.grid, life.RandomSeed(cfg.prob, life.NewSource(cfg.seed)))
	defer ref.Close()
	ref.StepN(cfg.steps)

	diff := life.Diff(got, ref.Cells())
	p.Printf("Reference:   %v on the CPU, %d cells differ\n", time.Since(start).Round(time.Millisecond), len(diff))
	if len(diff) > 0 {
		return fmt.Errorf("GPU result differs from the CPU reference in %d cells", len(diff))
	}
	return nil
}

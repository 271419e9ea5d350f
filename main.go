package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/plume/config"
	"github.com/pthm-cable/plume/renderer"
	"github.com/pthm-cable/plume/sim"
	"github.com/pthm-cable/plume/stream"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")
	listen := flag.String("listen", "", "Address for the websocket frame stream (headless only, empty = disabled)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config before anything else
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindow = *statsWindow
	}

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := sim.Options{
		Seed:      rngSeed,
		LogStats:  *logStats,
		OutputDir: *outputDir,
	}

	s, err := sim.New(cfg, opts)
	if err != nil {
		slog.Error("failed to build simulator", "error", err)
		os.Exit(1)
	}
	defer s.Unload()

	// Nominal fixed timestep. The graphical loop uses measured frame time
	// clamped to twice this; force integration is only stable for sane dt,
	// and clamping is the host's job, not the core's.
	nominalDT := float32(1.0) / float32(cfg.Screen.TargetFPS)

	if *headless {
		runHeadless(s, nominalDT, *maxTicks, *stepsPerUpdate, *listen, rngSeed)
		return
	}

	runGraphical(s, cfg, nominalDT, *maxTicks)
}

func runHeadless(s *sim.Simulator, dt float32, maxTicks, stepsPerUpdate int, listen string, seed int64) {
	slog.Info("starting headless simulation",
		"seed", seed,
		"max_ticks", maxTicks,
		"steps_per_update", stepsPerUpdate,
		"listen", listen,
	)

	var server *stream.Server
	if listen != "" {
		server = stream.NewServer()
		go func() {
			if err := server.ListenAndServe(listen); err != nil {
				slog.Error("stream server failed", "error", err)
				os.Exit(1)
			}
		}()
	}

	if stepsPerUpdate < 1 {
		stepsPerUpdate = 1
	}

	for {
		for i := 0; i < stepsPerUpdate; i++ {
			s.Tick(dt)
		}

		if server != nil {
			server.Broadcast(s.Frames().Read())
		}

		if maxTicks > 0 && int(s.TickCount()) >= maxTicks {
			slog.Info("max ticks reached", "tick", s.TickCount())
			return
		}
	}
}

func runGraphical(s *sim.Simulator, cfg *config.Config, nominalDT float32, maxTicks int) {
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "plume")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	r := renderer.NewParticleRenderer()

	for !rl.WindowShouldClose() {
		dt := rl.GetFrameTime()
		if dt > 2*nominalDT {
			dt = 2 * nominalDT
		}

		s.Tick(dt)
		s.Perf().RecordFrame()

		f := s.Frames().Read()

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)
		r.Draw(f)
		r.DrawHUD(f)
		rl.EndDrawing()

		if maxTicks > 0 && int(s.TickCount()) >= maxTicks {
			break
		}
	}
}

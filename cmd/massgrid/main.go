package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/massgrid/internal/analysis"
	"github.com/san-kum/massgrid/internal/compute"
	"github.com/san-kum/massgrid/internal/config"
	"github.com/san-kum/massgrid/internal/dynamo"
	"github.com/san-kum/massgrid/internal/export"
	"github.com/san-kum/massgrid/internal/gui"
	"github.com/san-kum/massgrid/internal/lattice"
	"github.com/san-kum/massgrid/internal/metrics"
	"github.com/san-kum/massgrid/internal/optim"
	"github.com/san-kum/massgrid/internal/sim"
	"github.com/san-kum/massgrid/internal/storage"
	"github.com/san-kum/massgrid/internal/stream"
	"github.com/san-kum/massgrid/internal/touch"
	"github.com/san-kum/massgrid/internal/viz"
)

var (
	dataDir  string
	logLevel string

	configFile string
	preset     string
	dt         float64
	frames     int
	workers    int
	sampleRate int

	node    int
	outFile string
	svgFile string
	addr    string
	axis    string

	stiffnessRange []float64
	dampingRange   []float64
	massRange      []float64
	benchFrames    int
	sweepFrames    int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "massgrid",
		Short: "3d mass-spring grid simulator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".massgrid", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a headless simulation and record it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "frames to simulate")
	runCmd.Flags().IntVar(&sampleRate, "sample", config.DefaultSampleRate, "record every nth frame")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "interactive terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)

	guiCmd := &cobra.Command{
		Use:   "gui [preset]",
		Short: "interactive 3d window",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runGUI,
	}
	addSimFlags(guiCmd)

	serveCmd := &cobra.Command{
		Use:   "serve [preset]",
		Short: "stream frames over websocket and accept touches",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runServe,
	}
	addSimFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a node's motion",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&node, "node", -1, "node to plot (default: most displaced)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a node's displacement",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&node, "node", -1, "node to analyze (default: most displaced)")
	analyzeCmd.Flags().StringVar(&axis, "axis", "", "analyze one component (x, y, z) instead of displacement")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default: stdout)")
	exportCmd.Flags().StringVar(&svgFile, "svg", "", "also render the last frame as svg")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tGRID\tMASS\tSTIFFNESS\tDAMPING")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%g\n",
					name, p.SimConfig().Dims(), p.Physics.Mass, p.Physics.Stiffness, p.Physics.Damping)
			}
			w.Flush()
		},
	}

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "benchmark the kernel across worker counts",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchGrid,
	}
	addSimFlags(benchCmd)
	benchCmd.Flags().IntVar(&benchFrames, "frames", 500, "frames per measurement")

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "grid-search physics for the fastest settling",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepParams,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&sweepFrames, "frames", 300, "frames per evaluation")
	sweepCmd.Flags().Float64SliceVar(&stiffnessRange, "stiffness", []float64{5, 10, 20, 40}, "stiffness values")
	sweepCmd.Flags().Float64SliceVar(&dampingRange, "damping", []float64{0.05, 0.1, 0.2, 0.4}, "damping values")
	sweepCmd.Flags().Float64SliceVar(&massRange, "mass", nil, "mass values (default: keep preset)")

	rootCmd.AddCommand(runCmd, liveCmd, guiCmd, serveCmd, listCmd, plotCmd,
		analyzeCmd, exportCmd, presetsCmd, benchCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().IntVar(&workers, "workers", 0, "kernel workers (0 = all cpus)")
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}

// loadConfig resolves the config in order: file, preset (flag or argument),
// defaults. Flags the user set explicitly win over all of them.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, string, error) {
	name := preset
	if name == "" && len(args) > 0 {
		name = args[0]
	}

	var cfg *config.Config
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, "", err
		}
		cfg = c
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
		}
	case name != "":
		cfg = config.GetPreset(name)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset %q (have %s)", name, strings.Join(config.ListPresets(), ", "))
		}
	default:
		cfg = config.DefaultConfig()
		name = "default"
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if cmd.Name() == "run" && flags.Changed("frames") {
		cfg.Frames = frames
	}
	if flags.Changed("sample") {
		cfg.SampleRate = sampleRate
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, name, nil
}

func newSimulator(cfg *config.Config, opts ...sim.Option) (*sim.Simulator, error) {
	opts = append([]sim.Option{
		sim.WithLogger(slog.Default()),
		sim.WithBackend(compute.NewCPUBackend(cfg.Workers)),
	}, opts...)
	s := sim.New(cfg.SimConfig(), opts...)
	if err := s.Initialize(); err != nil {
		return nil, err
	}
	return s, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	simCfg := cfg.SimConfig()
	rec := storage.NewRecorder(cfg.SampleRate)
	s, err := newSimulator(cfg, sim.WithObserver(rec))
	if err != nil {
		return err
	}
	defer s.Release()

	rest, err := s.RestPositions()
	if err != nil {
		return err
	}
	p := s.Params()
	set := metrics.NewSet(
		metrics.NewKineticEnergy(p.Mass),
		metrics.NewSpringPotential(simCfg.Dims(), p.Stiffness, p.RestLength),
		metrics.NewMaxDisplacement(rest),
		metrics.NewStability(),
	)
	s.AddObserver(set)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("running %s (%s, %d frames)...\n", name, simCfg.Dims(), cfg.Frames)
	start := time.Now()
	runErr := s.Run(ctx, cfg.Frames, cfg.Dt, cfg.Script())
	if runErr != nil && !errors.Is(runErr, dynamo.ErrInvalidState) {
		return runErr
	}
	elapsed := time.Since(start)
	if runErr != nil {
		slog.Warn("grid diverged, saving the frames before it", "err", runErr)
	}

	meta := storage.RunMetadata{
		Preset:     name,
		Timestamp:  time.Now(),
		Dims:       simCfg.Dims().String(),
		Nodes:      simCfg.Dims().Count(),
		Dt:         cfg.Dt,
		Frames:     s.StepCount(),
		SampleRate: cfg.SampleRate,
		Params:     s.GetParams(),
		Metrics:    finiteValues(set.Values()),
	}
	runID, err := st.Save(meta, rec.Frames())
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("recorded frames: %d\n", rec.Len())
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(meta.Metrics))
	for n := range meta.Metrics {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Printf("  %s: %.6f\n", n, meta.Metrics[n])
	}
	return runErr
}

// finiteValues drops NaN and Inf readings, which JSON cannot hold.
func finiteValues(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}

// pickPreset lets the user choose when no config, preset or argument was
// given. An empty result means the picker was dismissed.
func pickPreset(args []string) ([]string, error) {
	if configFile != "" || preset != "" || len(args) > 0 {
		return args, nil
	}
	names := config.ListPresets()
	info := make(map[string]string, len(names))
	for _, n := range names {
		p := config.GetPreset(n)
		info[n] = fmt.Sprintf("%s  k=%g  c=%g  m=%g",
			p.SimConfig().Dims(), p.Physics.Stiffness, p.Physics.Damping, p.Physics.Mass)
	}
	chosen, err := viz.Pick(names, info)
	if err != nil || chosen == "" {
		return nil, err
	}
	return []string{chosen}, nil
}

func runLive(cmd *cobra.Command, args []string) error {
	args, err := pickPreset(args)
	if err != nil {
		return err
	}
	if args == nil && configFile == "" && preset == "" {
		return nil
	}
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	s, err := newSimulator(cfg)
	if err != nil {
		return err
	}
	defer s.Release()
	return viz.Run(s, touch.NewQueue(), cfg.Dt, name)
}

func runGUI(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	s, err := newSimulator(cfg)
	if err != nil {
		return err
	}
	defer s.Release()
	return gui.Run(s, touch.NewQueue(), cfg.Dt, name)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	q := touch.NewQueue()
	hub := stream.NewHub(q, slog.Default())
	s, err := newSimulator(cfg, sim.WithObserver(hub))
	if err != nil {
		return err
	}
	defer s.Release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- stream.Serve(ctx, addr, hub) }()

	slog.Info("serving", "preset", name, "addr", addr, "dims", s.Dims().String())
	ticker := time.NewTicker(time.Duration(cfg.Dt * float64(time.Second)))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return <-errc
		case err := <-errc:
			return err
		case <-ticker.C:
			if err := s.Tick(cfg.Dt, q); err != nil {
				stop()
				<-errc
				return err
			}
		}
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tGRID\tFRAMES\tDT\tMAX DISP")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.4fs\t%.4f\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Dims,
			run.Frames,
			run.Dt,
			run.Metrics["max_displacement"],
		)
	}
	return w.Flush()
}

// mostDisplaced finds the node that strayed furthest from its first
// recorded position.
func mostDisplaced(st *storage.Store, runID string) (int, error) {
	fs, err := st.LoadFrames(runID)
	if err != nil {
		return 0, err
	}
	if len(fs) == 0 {
		return 0, fmt.Errorf("run %s has no frames", runID)
	}
	best, bestNode := -1.0, 0
	for _, f := range fs {
		for i, p := range f.Positions {
			if d := r3.Norm(r3.Sub(p, fs[0].Positions[i])); d > best {
				best, bestNode = d, i
			}
		}
	}
	return bestNode, nil
}

func parseDims(s string) (lattice.Dims, error) {
	var d lattice.Dims
	if _, err := fmt.Sscanf(s, "%dx%dx%d", &d.X, &d.Y, &d.Layers); err != nil {
		return d, fmt.Errorf("grid %q: %w", s, err)
	}
	return d, d.Validate()
}

func resolveNode(st *storage.Store, runID string) (int, error) {
	if node >= 0 {
		return node, nil
	}
	return mostDisplaced(st, runID)
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	n, err := resolveNode(st, runID)
	if err != nil {
		return err
	}
	times, trace, err := st.LoadTrace(runID, n)
	if err != nil {
		return err
	}
	if len(trace) < 2 {
		return fmt.Errorf("not enough samples to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s (%s)\n", meta.Preset, meta.Dims)
	fmt.Printf("node: %d, samples: %d, %.2fs\n\n", n, len(trace), times[len(times)-1])

	graph := asciigraph.Plot(analysis.Displacement(trace, trace[0]),
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("node %d displacement", n)),
	)
	fmt.Println(graph)
	fmt.Println()

	graph = asciigraph.PlotMany(
		[][]float64{
			analysis.Component(trace, 0),
			analysis.Component(trace, 1),
			analysis.Component(trace, 2),
		},
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Green, asciigraph.Blue),
		asciigraph.Caption("x (red)  y (green)  z (blue)"),
	)
	fmt.Println(graph)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	n, err := resolveNode(st, runID)
	if err != nil {
		return err
	}
	_, trace, err := st.LoadTrace(runID, n)
	if err != nil {
		return err
	}
	if len(trace) < 4 {
		return fmt.Errorf("not enough samples to analyze")
	}

	var data []float64
	label := "displacement"
	switch axis {
	case "":
		data = analysis.Displacement(trace, trace[0])
	case "x", "y", "z":
		data = analysis.Component(trace, int(axis[0]-'x'))
		label = axis
	default:
		return fmt.Errorf("axis must be x, y or z, got %q", axis)
	}

	sampleDt := meta.Dt * float64(max(meta.SampleRate, 1))

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("node %d %s, %d samples at %.4fs\n\n", n, label, len(data), sampleDt)

	ps := analysis.PowerSpectrum(data)
	if len(ps) > 1 {
		fmt.Println(asciigraph.Plot(ps[1:],
			asciigraph.Height(12),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum"),
		))
		fmt.Println()
	}

	freq, power := analysis.DominantFrequency(data, sampleDt)
	fmt.Printf("dominant frequency: %.3f hz (power %.4f)\n", freq, power)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1/freq)
	}

	fmt.Println("\nphase portrait:")
	fmt.Println(analysis.PhasePortraitToASCII(analysis.NewPhasePortrait(data, sampleDt), 60, 20))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	fs, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}

	if svgFile != "" && len(fs) > 0 {
		dims, err := parseDims(meta.Dims)
		if err != nil {
			return err
		}
		svg := export.GridToSVG(fs[len(fs)-1].Positions, fs[0].Positions, dims, 80, 40, 4)
		if err := os.WriteFile(svgFile, []byte(svg), 0644); err != nil {
			return err
		}
		slog.Info("wrote svg", "path", svgFile)
	}

	if outFile == "" {
		return storage.WriteJSON(os.Stdout, *meta, fs)
	}
	if err := storage.ExportJSON(outFile, *meta, fs); err != nil {
		return err
	}
	fmt.Printf("exported %d frames to %s\n", len(fs), outFile)
	return nil
}

func benchGrid(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	cfg.Frames = benchFrames

	counts := []int{1, 2, 4, 8, 0}
	fmt.Printf("benchmarking %s (%s, %d frames)\n\n", name, cfg.SimConfig().Dims(), cfg.Frames)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WORKERS\tTIME\tSTEPS/SEC")

	for _, n := range counts {
		be := compute.NewCPUBackend(n)
		s := sim.New(cfg.SimConfig(), sim.WithLogger(slog.Default()), sim.WithBackend(be), sim.WithValidation(false))
		if err := s.Initialize(); err != nil {
			return err
		}
		start := time.Now()
		if err := s.Run(context.Background(), cfg.Frames, cfg.Dt, cfg.Script()); err != nil {
			s.Release()
			return err
		}
		elapsed := time.Since(start)
		s.Release()

		fmt.Fprintf(w, "%d\t%v\t%.0f\n", be.Workers(), elapsed, float64(cfg.Frames)/elapsed.Seconds())
	}
	return w.Flush()
}

func sweepParams(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	names := []string{"stiffness", "damping"}
	ranges := [][]float64{stiffnessRange, dampingRange}
	if len(massRange) > 0 {
		names = append(names, "mass")
		ranges = append(ranges, massRange)
	}
	g, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	simCfg := cfg.SimConfig()
	obj := optim.ResidualEnergy(simCfg, sweepFrames, cfg.Dt, func() sim.EventSource { return cfg.Script() })

	fmt.Printf("sweeping %s (%s, %d frames per point)...\n", name, simCfg.Dims(), sweepFrames)
	start := time.Now()
	res, err := g.WithLogger(slog.Default()).Search(ctx, cfg.Params(), obj)
	if err != nil {
		return err
	}

	fmt.Printf("evaluated %d points in %v (%d skipped)\n\n", res.Evaluated, time.Since(start), res.Skipped)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARAM\tBEST")
	for _, n := range names {
		fmt.Fprintf(w, "%s\t%g\n", n, res.Params.GetParams()[n])
	}
	fmt.Fprintf(w, "residual energy\t%.6f\n", res.Score)
	return w.Flush()
}

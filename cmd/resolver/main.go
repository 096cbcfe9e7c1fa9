// Command resolver replays recorded or synthetic match frames through the
// facing-angle resolver, records every publication to sqlite and serves the
// live state, session reports and metrics over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/facing.report/internal/api"
	"github.com/banshee-data/facing.report/internal/config"
	"github.com/banshee-data/facing.report/internal/db"
	"github.com/banshee-data/facing.report/internal/fsutil"
	"github.com/banshee-data/facing.report/internal/monitoring"
	"github.com/banshee-data/facing.report/internal/report"
	"github.com/banshee-data/facing.report/internal/resolver"
	"github.com/banshee-data/facing.report/internal/scenario"
	"github.com/banshee-data/facing.report/internal/security"
	"github.com/banshee-data/facing.report/internal/timeutil"
	"github.com/banshee-data/facing.report/internal/version"
)

var (
	configPath   = flag.String("config", "", "Path to resolver tuning (.json/.yaml); empty uses "+config.DefaultConfigPath+" if present")
	dbPath       = flag.String("db", "resolver.db", "Path to sqlite session store")
	listen       = flag.String("listen", ":8080", "HTTP listen address (empty disables)")
	grpcListen   = flag.String("grpc-listen", "", "gRPC health listen address (empty disables)")
	scenarioPath = flag.String("scenario", "", "JSON-lines scenario file to replay")
	synthetic    = flag.String("synthetic", "static,jitter,defensive,slow_turn", "Comma-separated synthetic behaviors, used when -scenario is empty")
	ticks        = flag.Int("ticks", 2048, "Synthetic run length in ticks")
	seed         = flag.Int64("seed", 1, "Synthetic generator seed")
	roundTicks   = flag.Int("round-ticks", 512, "Synthetic ticks per round (0 disables round resets)")
	pace         = flag.Duration("pace", 0, "Deliver one frame per interval (0 replays as fast as possible)")
	plotDir      = flag.String("plot", "", "Directory to export per-entity plots, charts and summary.json after the run")
	watch        = flag.Bool("watch", false, "Reload -config on change")
	hold         = flag.Bool("hold", false, "Keep serving after the scenario finishes until interrupted")
	verbose      = flag.Bool("v", false, "Log every publication")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

// options mirrors the flags so run can be driven from tests.
type options struct {
	ConfigPath   string
	DBPath       string
	Listen       string
	GRPCListen   string
	ScenarioPath string
	Synthetic    string
	Ticks        int
	Seed         int64
	RoundTicks   int
	Pace         time.Duration
	PlotDir      string
	Watch        bool
	Hold         bool
	Verbose      bool
}

func optionsFromFlags() options {
	return options{
		ConfigPath:   *configPath,
		DBPath:       *dbPath,
		Listen:       *listen,
		GRPCListen:   *grpcListen,
		ScenarioPath: *scenarioPath,
		Synthetic:    *synthetic,
		Ticks:        *ticks,
		Seed:         *seed,
		RoundTicks:   *roundTicks,
		Pace:         *pace,
		PlotDir:      *plotDir,
		Watch:        *watch,
		Hold:         *hold,
		Verbose:      *verbose,
	}
}

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println(version.String())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, optionsFromFlags(), prometheus.NewRegistry()); err != nil {
		log.Fatalf("resolver: %v", err)
	}
}

// resolveConfigPath picks the tuning file: an explicit path, else the
// default path when it exists, else none.
func resolveConfigPath(path string) string {
	if path != "" {
		return path
	}
	if _, err := os.Stat(config.DefaultConfigPath); err == nil {
		return config.DefaultConfigPath
	}
	return ""
}

func loadTuning(path string) (*config.ResolverConfig, error) {
	if path == "" {
		return config.DefaultResolverConfig(), nil
	}
	return config.LoadResolverConfig(path)
}

// frameSource is the Source a run consumes plus the session row metadata.
type frameSource struct {
	scenario.Source
	closer io.Closer
	label  string
	kind   string
}

func (f frameSource) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

func openSource(opts options, tickInterval float64) (frameSource, error) {
	if opts.ScenarioPath != "" {
		f, err := os.Open(opts.ScenarioPath)
		if err != nil {
			return frameSource{}, fmt.Errorf("open scenario: %w", err)
		}
		return frameSource{
			Source: scenario.NewReader(f),
			closer: f,
			label:  filepath.Base(opts.ScenarioPath),
			kind:   "replay",
		}, nil
	}

	behaviors, err := scenario.ParseBehaviors(opts.Synthetic)
	if err != nil {
		return frameSource{}, err
	}
	if opts.Ticks <= 0 {
		return frameSource{}, fmt.Errorf("ticks must be positive, got %d", opts.Ticks)
	}
	gen := scenario.NewGenerator(scenario.SyntheticConfig{
		Seed:         opts.Seed,
		Ticks:        opts.Ticks,
		Behaviors:    behaviors,
		TickInterval: tickInterval,
		RoundTicks:   opts.RoundTicks,
	})
	return frameSource{
		Source: gen,
		label:  fmt.Sprintf("synthetic seed=%d ticks=%d %s", opts.Seed, opts.Ticks, opts.Synthetic),
		kind:   "synthetic",
	}, nil
}

func run(ctx context.Context, opts options, reg *prometheus.Registry) error {
	log.Print(version.String())
	if opts.PlotDir != "" {
		if err := security.ValidateExportPath(opts.PlotDir); err != nil {
			return fmt.Errorf("invalid -plot: %w", err)
		}
	}

	cfgPath := resolveConfigPath(opts.ConfigPath)
	tuning, err := loadTuning(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfgPath != "" {
		log.Printf("loaded resolver config from %s", cfgPath)
	}

	database, err := db.OpenDB(opts.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitoring.NewMetrics(reg)

	overrides := scenario.NewOverrideTable()
	engine := resolver.NewEngine(resolver.ConfigFromTuning(tuning),
		resolver.WithSink(overrides),
		resolver.WithMetrics(metrics),
	)

	src, err := openSource(opts, tuning.GetTickInterval())
	if err != nil {
		return err
	}
	defer src.Close()

	// Bind before any server goroutine starts; a busy port must not leave
	// the HTTP server running against a closed database.
	var grpcLis net.Listener
	if opts.GRPCListen != "" {
		grpcLis, err = net.Listen("tcp", opts.GRPCListen)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		defer grpcLis.Close()
	}

	sess, err := database.CreateSession(src.label, src.kind, tuning)
	if err != nil {
		return err
	}
	log.Printf("session %s started (%s)", sess.ID, src.label)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	health := monitoring.NewHealth()

	if opts.Listen != "" {
		mux := api.NewServer(engine, database, overrides, tuning.GetHitTolerance()).ServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		database.AttachAdminRoutes(mux)

		server := &http.Server{
			Addr:              opts.Listen,
			Handler:           api.LoggingMiddleware(mux),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			return serveHTTP(gctx, server)
		})
	}

	if grpcLis != nil {
		g.Go(func() error {
			return health.Serve(gctx, grpcLis)
		})
	}

	if opts.Watch && cfgPath != "" {
		g.Go(func() error {
			err := config.Watch(gctx, cfgPath, func(c *config.ResolverConfig) {
				next := resolver.ConfigFromTuning(c)
				engine.UpdateConfig(func(cfg *resolver.Config) { *cfg = next })
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	var result scenario.Result
	g.Go(func() error {
		runner := &scenario.Runner{
			Engine:       engine,
			Recorder:     database.Recorder(sess.ID),
			AutoFeedback: true,
			HitTolerance: tuning.GetHitTolerance(),
			Pace:         opts.Pace,
			Clock:        timeutil.RealClock{},
		}
		if opts.Verbose {
			runner.OnPublished = func(p resolver.Published) {
				monitoring.EntityLogf(p.ID.String(), "tick=%d angle=%.1f ideal=%.1f conf=%.2f method=%s",
					p.Resolution.Tick, p.Resolution.Angle, p.Ideal, p.Resolution.Confidence, p.Resolution.Method)
			}
		}

		health.SetServing(true)
		res, err := runner.Run(gctx, src)
		result = res
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("run scenario: %w", err)
		}
		log.Printf("scenario finished: frames=%d published=%d hits=%d misses=%d rounds=%d",
			res.Frames, res.Published, res.Hits, res.Misses, res.Rounds)

		if opts.Hold && err == nil {
			log.Printf("holding; interrupt to exit")
			<-gctx.Done()
		} else {
			cancel()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	if err := database.EndSession(sess.ID); err != nil {
		log.Printf("failed to end session %s: %v", sess.ID, err)
	}

	series, err := report.LoadSession(database, sess.ID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	logSummary(series, tuning.GetHitTolerance())
	if opts.PlotDir != "" {
		written, err := report.Export(fsutil.OSFileSystem{}, opts.PlotDir, sess.ID, series, tuning.GetHitTolerance())
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		log.Printf("wrote %d report files to %s", len(written), opts.PlotDir)
	}
	log.Printf("session %s complete: %+v", sess.ID, result)
	return nil
}

func serveHTTP(ctx context.Context, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			log.Printf("HTTP server close error: %v", err)
		}
	}
	log.Printf("HTTP server stopped")
	return nil
}

func logSummary(series []report.EntitySeries, tolerance float64) {
	for _, es := range series {
		s := report.Summarize(es.Points, tolerance)
		monitoring.EntityLogf(es.ID.String(), "n=%d conf=%.2f spread=%.1f truth=%d mae=%.1f within=%.2f",
			s.Count, s.MeanConfidence, s.OffsetSpread, s.WithTruth, s.MeanAbsError, s.WithinTolerance)
	}
}

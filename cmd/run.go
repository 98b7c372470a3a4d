package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/whereabouts/internal/capture"
	"github.com/kozaktomas/whereabouts/internal/config"
	"github.com/kozaktomas/whereabouts/internal/facematch"
	"github.com/kozaktomas/whereabouts/internal/logger"
	"github.com/kozaktomas/whereabouts/internal/recognition"
	"github.com/kozaktomas/whereabouts/internal/render"
	"github.com/kozaktomas/whereabouts/internal/smoother"
	"github.com/kozaktomas/whereabouts/internal/web"
	"github.com/kozaktomas/whereabouts/internal/web/handlers"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run live recognition on a frame source",
	Long: `Run the recognition loop: read frames, detect and match faces, infer the
likely place of every recognized identity and smooth it over recent frames.

Frames come from a directory of images (--frames-dir) or from an HTTP
snapshot endpoint (--snapshot-url or CAMERA_SNAPSHOT_URL). Every processed
frame is logged; annotated frames can additionally be written as JPEG files,
appended to a JSON Lines file or streamed to a browser with --listen.

Type q and Enter, or press Ctrl+C, to stop.

Examples:
  # Replay a directory of frames once and write annotated copies
  whereabouts run --frames-dir ./frames --output-dir ./annotated

  # Poll a camera every 500ms and watch it in the browser
  whereabouts run --snapshot-url http://cam.local/snapshot.jpg --interval 500ms --listen

  # Share one location history between all identities
  SMOOTHING_SHARED=true whereabouts run --frames-dir ./frames --jsonl frames.jsonl`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("frames-dir", "", "Read frames from the images of this directory")
	runCmd.Flags().Bool("loop", false, "Restart --frames-dir from the first image when it ends")
	runCmd.Flags().String("snapshot-url", "", "Poll frames from this HTTP snapshot endpoint (defaults to CAMERA_SNAPSHOT_URL)")
	runCmd.Flags().Duration("interval", time.Second, "Minimum time between frames")
	runCmd.Flags().String("schedule", "", "Schedule file (defaults to MOBILITY_FILE)")
	runCmd.Flags().Float64("threshold", 0, "Minimum similarity for a match (defaults to MATCH_THRESHOLD)")
	runCmd.Flags().Int("window", 0, "Location smoothing window (defaults to SMOOTHING_WINDOW)")
	runCmd.Flags().String("output-dir", "", "Write annotated frames to this directory")
	runCmd.Flags().Bool("keep-all", false, "Keep every annotated frame instead of overwriting latest.jpg")
	runCmd.Flags().String("jsonl", "", "Append one JSON line per processed frame to this file")
	runCmd.Flags().Bool("listen", false, "Serve the web viewer and API while running")
}

func openSource(cmd *cobra.Command, cfg *config.Config) (capture.Source, error) {
	interval := mustGetDuration(cmd, "interval")

	if dir := mustGetString(cmd, "frames-dir"); dir != "" {
		return capture.NewDirSource(dir, capture.DirOptions{
			Interval: interval,
			Loop:     mustGetBool(cmd, "loop"),
		})
	}

	url := mustGetString(cmd, "snapshot-url")
	if url == "" {
		url = cfg.Camera.SnapshotURL
	}
	if url == "" {
		return nil, errors.New("no frame source: set --frames-dir, --snapshot-url or CAMERA_SNAPSHOT_URL")
	}
	return capture.NewSnapshotSource(url, cfg.Camera.Username, cfg.Camera.Password, interval), nil
}

// buildSinks assembles the configured sinks. The log sink is always present.
func buildSinks(cmd *cobra.Command, log *logger.Logger, hub *handlers.Hub) (render.Multi, error) {
	sinks := render.Multi{&render.LogSink{Logger: log}}

	if dir := mustGetString(cmd, "output-dir"); dir != "" {
		sink, err := render.NewImageSink(dir, mustGetBool(cmd, "keep-all"))
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}

	if path := mustGetString(cmd, "jsonl"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			sinks.Close()
			return nil, fmt.Errorf("opening jsonl output: %w", err)
		}
		sinks = append(sinks, render.NewJSONLSink(f))
	}

	if hub != nil {
		sinks = append(sinks, hub)
	}
	return sinks, nil
}

// watchQuit cancels when a line consisting of "q" is read from r.
// End of input leaves the run going.
func watchQuit(r io.Reader, cancel context.CancelFunc) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if strings.EqualFold(strings.TrimSpace(scanner.Text()), "q") {
			cancel()
			return
		}
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := loadConfig()
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	if t := mustGetFloat64(cmd, "threshold"); t > 0 {
		cfg.Matching.Threshold = t
	}
	if n := mustGetInt(cmd, "window"); n > 0 {
		cfg.Matching.SmoothingWindow = n
	}

	store, closer, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closer.Close()

	refs, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading enrollments: %w", err)
	}
	if len(refs) == 0 {
		log.Warn("no identities enrolled, every face will be Unknown")
	}
	warnDimensionMismatch(cfg, log, refs)

	schedule, inferencer, err := loadSchedule(cfg, mustGetString(cmd, "schedule"))
	if err != nil {
		return err
	}
	log.Info("schedule loaded", "entries", schedule.Len(), "identities", len(schedule.Identities()))

	if err := checkEmbeddingServer(ctx, cfg, log); err != nil {
		return err
	}

	src, err := openSource(cmd, cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	tracker := smoother.NewTracker(cfg.Matching.SmoothingWindow, cfg.Matching.SharedSmoothing)

	var (
		hub    *handlers.Hub
		server *web.Server
	)
	if mustGetBool(cmd, "listen") {
		hub = handlers.NewHub()
		server = web.NewServer(&cfg.Web, web.Deps{
			Store:      store,
			Inferencer: inferencer,
			Tracker:    tracker,
			Hub:        hub,
		}, log)
	}

	sinks, err := buildSinks(cmd, log, hub)
	if err != nil {
		return err
	}
	defer sinks.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go watchQuit(os.Stdin, cancel)

	if server != nil {
		go func() {
			if err := server.Start(); err != nil {
				log.Error("web server failed", "error", err)
				cancel()
			}
		}()
		fmt.Printf("Viewer available on http://%s\n", server.Addr())
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer shutdownCancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error("error during shutdown", "error", err)
			}
		}()
	}

	fmt.Println(recognition.QuitHint + " (q + Enter) or Ctrl+C")

	loop := &recognition.Loop{
		Detector:   newDetector(cfg),
		Matcher:    facematch.NewMatcher(refs, cfg.Matching.Threshold),
		Inferencer: inferencer,
		Tracker:    tracker,
		Sink:       sinks,
		Logger:     log,
	}
	stats, err := loop.Run(ctx, src)
	if err != nil {
		return err
	}

	fmt.Printf("\nProcessed %d frames: %d faces, %d recognized, %d detection errors\n",
		stats.Frames, stats.Faces, stats.Known, stats.DetectErrors)
	return nil
}

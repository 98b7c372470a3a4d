package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/whereabouts/internal/capture"
	"github.com/kozaktomas/whereabouts/internal/facematch"
	"github.com/kozaktomas/whereabouts/internal/recognition"
	"github.com/kozaktomas/whereabouts/internal/render"
)

var matchCmd = &cobra.Command{
	Use:   "match <image>",
	Short: "Recognize the faces in a single image",
	Long: `Detect every face in an image, match it against the enrolled identities
and infer the likely place of each recognized identity at the given time.

Examples:
  whereabouts match group.jpg
  whereabouts match group.jpg --output annotated.jpg
  whereabouts match group.jpg --at 2026-10-12T09:30:00+02:00 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().Float64("threshold", 0, "Minimum similarity for a match (defaults to MATCH_THRESHOLD)")
	matchCmd.Flags().String("schedule", "", "Schedule file (defaults to MOBILITY_FILE)")
	matchCmd.Flags().String("at", "", "Point in time for location inference (RFC 3339), defaults to now")
	matchCmd.Flags().String("output", "", "Write the annotated image to this path")
	matchCmd.Flags().Bool("json", false, "Output as JSON")
}

// matchFaceOutput extends a face annotation with relative coordinates.
type matchFaceOutput struct {
	recognition.FaceAnnotation
	BBoxRel []float64 `json:"bbox_rel,omitempty"`
}

type matchOutput struct {
	Image  string            `json:"image"`
	Width  int               `json:"width"`
	Height int               `json:"height"`
	Faces  []matchFaceOutput `json:"faces"`
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := loadConfig()
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	if t := mustGetFloat64(cmd, "threshold"); t > 0 {
		cfg.Matching.Threshold = t
	}
	at := time.Now()
	if raw := mustGetString(cmd, "at"); raw != "" {
		at, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("invalid --at %q: %w", raw, err)
		}
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
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
	warnDimensionMismatch(cfg, log, refs)
	_, inferencer, err := loadSchedule(cfg, mustGetString(cmd, "schedule"))
	if err != nil {
		return err
	}

	loop := &recognition.Loop{
		Detector:   newDetector(cfg),
		Matcher:    facematch.NewMatcher(refs, cfg.Matching.Threshold),
		Inferencer: inferencer,
		Logger:     log,
		Now:        func() time.Time { return at },
	}
	result := loop.ProcessFrame(ctx, &capture.Frame{Data: data, CapturedAt: at, Origin: path})
	if result.DetectError != "" {
		return fmt.Errorf("face detection failed: %s", result.DetectError)
	}

	if out := mustGetString(cmd, "output"); out != "" {
		jpg, err := render.EncodeJPEG(result)
		if err != nil {
			return fmt.Errorf("rendering annotated image: %w", err)
		}
		if err := os.WriteFile(out, jpg, 0o644); err != nil {
			return fmt.Errorf("writing annotated image: %w", err)
		}
		log.Info("annotated image written", "path", out)
	}

	output := matchOutput{Image: path, Width: result.Width, Height: result.Height, Faces: []matchFaceOutput{}}
	for _, f := range result.Faces {
		output.Faces = append(output.Faces, matchFaceOutput{
			FaceAnnotation: f,
			BBoxRel:        facematch.ConvertPixelBBoxToRelative(f.BBox, result.Width, result.Height),
		})
	}

	if mustGetBool(cmd, "json") {
		return outputJSON(output)
	}

	fmt.Printf("Found %d face(s) in %s (%dx%d)\n\n", len(output.Faces), path, output.Width, output.Height)
	if len(output.Faces) == 0 {
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tIDENTITY\tSIMILARITY\tLOCATION\tBBOX")
	fmt.Fprintln(w, "-\t--------\t----------\t--------\t----")
	for i, f := range output.Faces {
		fmt.Fprintf(w, "%d\t%s\t%.4f\t%s\t%s\n", i+1, f.Identity, f.Similarity, f.Location, formatBBox(f.BBox))
	}
	w.Flush()
	return nil
}

func formatBBox(bbox []float64) string {
	if len(bbox) != 4 {
		return "-"
	}
	return fmt.Sprintf("[%.0f, %.0f, %.0f, %.0f]", bbox[0], bbox[1], bbox[2], bbox[3])
}

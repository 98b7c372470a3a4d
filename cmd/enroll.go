package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/whereabouts/internal/enroll"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Build one mean face embedding per identity",
	Long: `Build the enrollment store from a directory of face photos.

The raw directory holds one subdirectory per identity; the subdirectory name
is the identity. For every photo the first detected face is used, and the
mean of those embeddings is stored as the identity's enrollment. Photos that
cannot be decoded or contain no face are skipped. Identities without a single
usable face are not enrolled.

Examples:
  # Enroll from RAW_FACES_DIR into EMBEDDINGS_DIR (or DATABASE_URL)
  whereabouts enroll

  # Enroll from a custom directory with 8 parallel requests
  whereabouts enroll --raw-dir ./faces --concurrency 8

  # Machine-readable summary
  whereabouts enroll --json`,
	Args: cobra.NoArgs,
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("raw-dir", "", "Directory with one photo folder per identity (defaults to RAW_FACES_DIR)")
	enrollCmd.Flags().Int("concurrency", 4, "Number of parallel face detection requests")
	enrollCmd.Flags().Bool("json", false, "Output as JSON")
}

func runEnroll(cmd *cobra.Command, args []string) error {
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

	rawDir := mustGetString(cmd, "raw-dir")
	if rawDir == "" {
		rawDir = cfg.Data.RawFacesDir
	}
	concurrency := mustGetInt(cmd, "concurrency")
	jsonOutput := mustGetBool(cmd, "json")

	total, err := enroll.CountImages(rawDir)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", rawDir, err)
	}
	if total == 0 {
		return fmt.Errorf("no images found in %s", rawDir)
	}

	if err := checkEmbeddingServer(ctx, cfg, log); err != nil {
		return err
	}

	store, closer, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closer.Close()

	builder := &enroll.Builder{
		Detector:    newDetector(cfg),
		Store:       store,
		Logger:      log,
		Concurrency: concurrency,
	}
	var bar *progressbar.ProgressBar
	if !jsonOutput {
		fmt.Printf("Enrolling %d images from %s\n", total, rawDir)
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription("Detecting faces"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
		builder.Progress = bar
	}

	report, err := builder.Build(ctx, rawDir)
	if bar != nil {
		_ = bar.Finish()
	}
	if report != nil {
		if jsonOutput {
			if jerr := outputJSON(report); jerr != nil {
				return jerr
			}
		} else {
			fmt.Println()
			printEnrollReport(report)
		}
	}
	if err != nil {
		return fmt.Errorf("enrollment failed: %w", err)
	}
	return nil
}

func printEnrollReport(report *enroll.Report) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "IDENTITY\tIMAGES\tUSED\tSKIPPED\tDIM\tSAVED")
	fmt.Fprintln(w, "--------\t------\t----\t-------\t---\t-----")
	for _, ir := range report.Identities {
		saved := "no"
		if ir.Saved {
			saved = "yes"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\n", ir.Identity, ir.Images, ir.Used, ir.Skipped, ir.Dim, saved)
	}
	w.Flush()

	fmt.Printf("\nEnrolled %d of %d identities\n", report.Saved(), len(report.Identities))
}

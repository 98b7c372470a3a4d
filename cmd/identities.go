package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/whereabouts/internal/constants"
	"github.com/kozaktomas/whereabouts/internal/database"
	"github.com/kozaktomas/whereabouts/internal/enrollment"
	"github.com/kozaktomas/whereabouts/internal/facematch"
)

var identitiesCmd = &cobra.Command{
	Use:   "identities",
	Short: "Inspect enrolled identities",
}

var identitiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled identities in matching order",
	Args:  cobra.NoArgs,
	RunE:  runIdentitiesList,
}

var identitiesAuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Report identities that are easy to confuse",
	Long: `Audit the enrollment store for identities that are easy to confuse.

For every enrolled identity the nearest other identity is looked up. Pairs
with a cosine similarity at or above --warn-at are flagged. Identity names
that differ only in case, diacritics or separators are reported as likely
duplicate enrollments.

Examples:
  whereabouts identities audit
  whereabouts identities audit --warn-at 0.4 --json`,
	Args: cobra.NoArgs,
	RunE: runIdentitiesAudit,
}

var identitiesRemoveCmd = &cobra.Command{
	Use:   "remove <identity>...",
	Short: "Remove enrolled identities",
	Long: `Remove identities from the enrollment store. Removing an identity that is
not enrolled is not an error.

Examples:
  whereabouts identities remove alice
  whereabouts identities remove alice bob`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIdentitiesRemove,
}

func init() {
	rootCmd.AddCommand(identitiesCmd)
	identitiesCmd.AddCommand(identitiesRemoveCmd)
	identitiesCmd.AddCommand(identitiesListCmd)
	identitiesCmd.AddCommand(identitiesAuditCmd)

	identitiesListCmd.Flags().Bool("json", false, "Output as JSON")

	identitiesAuditCmd.Flags().Float64("warn-at", constants.AuditSimilarityWarning, "Similarity at which a pair is flagged")
	identitiesAuditCmd.Flags().Bool("json", false, "Output as JSON")
}

type identityOutput struct {
	Identity string `json:"identity"`
	Dim      int    `json:"dim"`
}

type auditOutput struct {
	Identity   string  `json:"identity"`
	Nearest    string  `json:"nearest,omitempty"`
	Similarity float64 `json:"similarity"`
	Ambiguous  bool    `json:"ambiguous"`
}

type auditReport struct {
	Pairs      []auditOutput       `json:"pairs"`
	Duplicates map[string][]string `json:"duplicates,omitempty"`
	Skipped    []string            `json:"skipped,omitempty"`
}

func loadReferences(cmd *cobra.Command) ([]facematch.Reference, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := loadConfig()
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	defer log.Sync()

	store, closer, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	refs, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading enrollments: %w", err)
	}
	return refs, nil
}

func runIdentitiesRemove(cmd *cobra.Command, args []string) error {
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

	store, closer, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closer.Close()

	return removeIdentities(ctx, store, args)
}

// removeIdentities deletes every identity from store, stopping at the first failure.
func removeIdentities(ctx context.Context, store enrollment.Store, identities []string) error {
	deleter, ok := store.(enrollment.Deleter)
	if !ok {
		return fmt.Errorf("enrollment store %T does not support removal", store)
	}
	for _, identity := range identities {
		if err := deleter.Delete(ctx, identity); err != nil {
			return fmt.Errorf("removing %s: %w", identity, err)
		}
		fmt.Printf("Removed %s\n", identity)
	}
	return nil
}

func runIdentitiesList(cmd *cobra.Command, args []string) error {
	refs, err := loadReferences(cmd)
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "json") {
		out := make([]identityOutput, len(refs))
		for i, ref := range refs {
			out[i] = identityOutput{Identity: ref.Identity, Dim: len(ref.Embedding)}
		}
		return outputJSON(out)
	}

	if len(refs) == 0 {
		fmt.Println("No identities enrolled")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tIDENTITY\tDIM")
	fmt.Fprintln(w, "-\t--------\t---")
	for i, ref := range refs {
		fmt.Fprintf(w, "%d\t%s\t%d\n", i+1, ref.Identity, len(ref.Embedding))
	}
	w.Flush()
	return nil
}

func runIdentitiesAudit(cmd *cobra.Command, args []string) error {
	refs, err := loadReferences(cmd)
	if err != nil {
		return err
	}
	warnAt := mustGetFloat64(cmd, "warn-at")

	index := database.NewIdentityIndex(refs)
	names := make([]string, len(refs))
	for i, ref := range refs {
		names[i] = ref.Identity
	}

	report := auditReport{
		Duplicates: facematch.IdentityCollisions(names),
		Skipped:    index.Skipped(),
	}
	for _, e := range index.Audit(warnAt) {
		report.Pairs = append(report.Pairs, auditOutput{
			Identity:   e.Identity,
			Nearest:    e.Nearest,
			Similarity: e.Similarity,
			Ambiguous:  e.Ambiguous,
		})
	}

	if mustGetBool(cmd, "json") {
		return outputJSON(report)
	}

	printAuditReport(report, warnAt)
	return nil
}

func printAuditReport(report auditReport, warnAt float64) {
	if len(report.Pairs) == 0 {
		fmt.Println("No identities enrolled")
		return
	}

	ambiguous := 0
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "IDENTITY\tNEAREST\tSIMILARITY\t")
	fmt.Fprintln(w, "--------\t-------\t----------\t")
	for _, p := range report.Pairs {
		flag := ""
		if p.Ambiguous {
			flag = "AMBIGUOUS"
			ambiguous++
		}
		nearest := p.Nearest
		if nearest == "" {
			nearest = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%.4f\t%s\n", p.Identity, nearest, p.Similarity, flag)
	}
	w.Flush()

	fmt.Printf("\n%d of %d identities have a neighbor at similarity >= %.2f\n", ambiguous, len(report.Pairs), warnAt)

	if len(report.Skipped) > 0 {
		fmt.Printf("Skipped (dimension mismatch): %v\n", report.Skipped)
	}

	if len(report.Duplicates) > 0 {
		keys := make([]string, 0, len(report.Duplicates))
		for k := range report.Duplicates {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Println("\nPossible duplicate enrollments:")
		for _, k := range keys {
			fmt.Printf("  %s: %v\n", k, report.Duplicates[k])
		}
	}
}

package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/whereabouts/internal/mobility"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Inspect the mobility schedule",
}

var scheduleShowCmd = &cobra.Command{
	Use:   "show [identity]",
	Short: "Validate the schedule and print its entries",
	Long: `Load the mobility schedule (CSV or YAML), validate every row and print the
entries. With an identity argument only that identity's entries are shown.

Examples:
  whereabouts schedule show
  whereabouts schedule show alice --file ./schedule.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScheduleShow,
}

var scheduleWhereCmd = &cobra.Command{
	Use:   "where <identity>",
	Short: "Infer where an identity is likely to be",
	Long: `Infer the most likely place of an identity from the mobility schedule.
Among the entries active at the given time, the one with the highest weight
wins; equal weights keep the earlier row.

Examples:
  whereabouts schedule where alice
  whereabouts schedule where alice --at 2026-10-12T09:30:00+02:00`,
	Args: cobra.ExactArgs(1),
	RunE: runScheduleWhere,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.AddCommand(scheduleShowCmd)
	scheduleCmd.AddCommand(scheduleWhereCmd)

	scheduleCmd.PersistentFlags().String("file", "", "Schedule file (defaults to MOBILITY_FILE)")

	scheduleShowCmd.Flags().Bool("json", false, "Output as JSON")

	scheduleWhereCmd.Flags().String("at", "", "Point in time (RFC 3339), defaults to now")
	scheduleWhereCmd.Flags().Bool("json", false, "Output as JSON")
}

type whereOutput struct {
	Identity   string           `json:"identity"`
	At         time.Time        `json:"at"`
	Location   *mobility.Entry  `json:"location"`
	Candidates []mobility.Entry `json:"candidates"`
}

func runScheduleShow(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	store, _, err := loadSchedule(cfg, mustGetString(cmd, "file"))
	if err != nil {
		return err
	}

	identities := store.Identities()
	if len(args) == 1 {
		identities = []string{args[0]}
	}

	var entries []mobility.Entry
	for _, id := range identities {
		entries = append(entries, store.Entries(id)...)
	}

	if mustGetBool(cmd, "json") {
		if entries == nil {
			entries = []mobility.Entry{}
		}
		return outputJSON(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No schedule entries found")
		return nil
	}
	printEntries(entries)
	fmt.Printf("\n%d entries for %d identities\n", len(entries), len(identities))
	return nil
}

func runScheduleWhere(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	_, inferencer, err := loadSchedule(cfg, mustGetString(cmd, "file"))
	if err != nil {
		return err
	}

	at := time.Now()
	if raw := mustGetString(cmd, "at"); raw != "" {
		at, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("invalid --at %q: %w", raw, err)
		}
	}

	identity := args[0]
	out := whereOutput{
		Identity:   identity,
		At:         at,
		Candidates: inferencer.Candidates(identity, at),
	}
	if e, ok := inferencer.Infer(identity, at); ok {
		out.Location = &e
	}

	if mustGetBool(cmd, "json") {
		if out.Candidates == nil {
			out.Candidates = []mobility.Entry{}
		}
		return outputJSON(out)
	}

	if out.Location == nil {
		fmt.Printf("%s: no schedule entry at %s\n", identity, at.Format(time.RFC3339))
		return nil
	}
	fmt.Printf("%s is likely at %s (%s) at %s\n", identity, out.Location.PlaceName, placeType(*out.Location), at.Format(time.RFC3339))
	if len(out.Candidates) > 1 {
		fmt.Println("\nActive entries:")
		printEntries(out.Candidates)
	}
	return nil
}

func printEntries(entries []mobility.Entry) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "IDENTITY\tPLACE\tTYPE\tDAYS\tWINDOW\tWEIGHT")
	fmt.Fprintln(w, "--------\t-----\t----\t----\t------\t------")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%g\n",
			e.Identity, e.PlaceName, placeType(e), strings.Join(e.Days, mobility.DaySeparator), e.Window(), e.Weight)
	}
	w.Flush()
}

func placeType(e mobility.Entry) string {
	if e.PlaceType == "" {
		return "-"
	}
	return e.PlaceType
}

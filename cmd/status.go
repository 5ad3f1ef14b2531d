package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jacklau/floatpack/internal/config"
	"github.com/jacklau/floatpack/internal/stats"
	"github.com/jacklau/floatpack/internal/store"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent runs and catalog totals",
	Long: `Display the most recent compress, decompress and bench runs, totals per
truncate count, and the catalog database size.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 20, "number of recent runs to list (0 = all)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cc, err := cfg.CodecConfig()
	if err != nil {
		return err
	}

	c, err := initComponents(cfg, cc, logger)
	if err != nil {
		return fmt.Errorf("initializing components: %w", err)
	}
	defer c.Close()

	out := cmd.OutOrStdout()

	runs, err := c.Store.ListRuns(statusLimit)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		fmt.Fprintln(out, "Run 'floatpack compress <in> <out>' or 'floatpack bench' to get started.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tDATA\tK\tRECORDS\tORIGINAL\tPACKED\tRATIO\tWHEN")
	fmt.Fprintln(w, "--\t----\t----\t-\t-------\t--------\t------\t-----\t----")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\t%.2fx\t%s\n",
			shortID(r.ID), r.Kind, runData(r), r.TruncateCount,
			humanize.Comma(r.RecordCount),
			humanize.IBytes(uint64(r.OriginalBytes)), humanize.IBytes(uint64(r.PackedBytes)),
			stats.Ratio(r.OriginalBytes, r.PackedBytes), humanize.Time(r.CreatedAt))
	}
	w.Flush()

	summary, err := c.Store.Summary()
	if err != nil {
		return fmt.Errorf("summarizing runs: %w", err)
	}
	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "K\tRUNS\tRECORDS\tORIGINAL\tPACKED\tSAVED\tMEAN REL ERROR")
	fmt.Fprintln(w, "-\t----\t-------\t--------\t------\t-----\t--------------")
	for _, s := range summary {
		relErr := "-"
		if s.MeanRelError > 0 {
			relErr = fmt.Sprintf("%.3g", s.MeanRelError)
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%.1f%%\t%s\n",
			s.TruncateCount, s.Runs, humanize.Comma(s.Records),
			humanize.IBytes(uint64(s.OriginalBytes)), humanize.IBytes(uint64(s.PackedBytes)),
			stats.Savings(s.OriginalBytes, s.PackedBytes), relErr)
	}
	w.Flush()

	fmt.Fprintln(out)
	dbSize, err := dbFileSize(cfg.Store.Path)
	if err != nil {
		fmt.Fprintf(out, "Database: %s (size unknown)\n", cfg.Store.Path)
	} else {
		fmt.Fprintf(out, "Database: %s (%s)\n", cfg.Store.Path, humanize.IBytes(uint64(dbSize)))
	}

	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// runData names the dataset of a bench run or the input file of any other run.
func runData(r store.Run) string {
	switch {
	case r.Dataset != "":
		return r.Dataset
	case r.Source != "":
		return r.Source
	default:
		return "-"
	}
}

// dbFileSize returns the size in bytes of the database file.
func dbFileSize(path string) (int64, error) {
	path, err := config.ExpandHome(path)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jacklau/floatpack/internal/bitpack"
	"github.com/jacklau/floatpack/internal/codec"
)

var (
	inspectLimit    int
	inspectRaw      bool
	inspectTruncate int
	inspectCount    int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show the header and leading records of a packed file",
	Long: `Inspect prints the codec parameters of a packed file, the fields of its
first records and the distribution of the zero-run field across all records.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().IntVar(&inspectLimit, "limit", 10, "number of records to print")
	inspectCmd.Flags().BoolVar(&inspectRaw, "raw", false, "input is a headerless payload")
	inspectCmd.Flags().IntVar(&inspectTruncate, "truncate", 12, "truncate count of a raw payload; overrides config")
	inspectCmd.Flags().IntVar(&inspectCount, "count", 0, "record count of a raw payload (0 = derive from length)")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cc, count, payload, err := readPacked(cmd, cfg, args[0], inspectRaw, inspectTruncate, inspectCount)
	if err != nil {
		return err
	}
	records, err := bitpack.Unpack(payload, count, cc)
	if err != nil {
		return fmt.Errorf("unpacking records: %w", err)
	}

	out := cmd.OutOrStdout()
	format := "container"
	if inspectRaw {
		format = "raw"
	}
	fmt.Fprintf(out, "File:           %s (%s)\n", args[0], format)
	fmt.Fprintf(out, "Truncate count: %d\n", cc.TruncateCount)
	fmt.Fprintf(out, "Record width:   %d bits (sign 1, exponent 8, mantissa %d, zero run 4)\n", cc.RecordWidth(), cc.StoredBits())
	fmt.Fprintf(out, "Byte aligned:   %s\n", yesNo(cc.ByteAligned()))
	fmt.Fprintf(out, "Records:        %s\n", humanize.Comma(int64(count)))
	fmt.Fprintf(out, "Payload:        %s\n", humanize.IBytes(uint64(len(payload))))
	fmt.Fprintf(out, "Padding:        %d bits\n", bitpack.PackedSize(count, cc)*8-count*cc.RecordWidth())
	fmt.Fprintln(out)

	printRecords(out, records[:max(0, min(inspectLimit, len(records)))], cc)
	fmt.Fprintln(out)
	printZeroRunHistogram(out, records)
	return nil
}

func printRecords(out io.Writer, records []codec.Record, cc codec.Config) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tSIGN\tEXPONENT\tSTORED\tZERO RUN\tVALUE")
	fmt.Fprintln(w, "-----\t----\t--------\t------\t--------\t-----")
	for i, r := range records {
		fmt.Fprintf(w, "%d\t%d\t%d\t%#x\t%d\t%g\n",
			i, r.Sign, r.Exponent, r.Stored, r.ZeroRun, codec.Decode(r, cc))
	}
	w.Flush()
}

func printZeroRunHistogram(out io.Writer, records []codec.Record) {
	var hist [codec.MaxZeroRun + 1]int
	for _, r := range records {
		hist[r.ZeroRun]++
	}

	fmt.Fprintln(out, "Zero run distribution:")
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for run, n := range hist {
		if n == 0 {
			continue
		}
		fmt.Fprintf(w, "  %d\t%s\t%.1f%%\n", run, humanize.Comma(int64(n)), 100*float64(n)/float64(len(records)))
	}
	w.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jacklau/floatpack/internal/container"
	"github.com/jacklau/floatpack/internal/floatio"
	"github.com/jacklau/floatpack/internal/stats"
	"github.com/jacklau/floatpack/internal/store"
)

var (
	compressTruncate   int
	compressRaw        bool
	compressWorkers    int
	compressNoProgress bool
)

var compressCmd = &cobra.Command{
	Use:   "compress <input.f32> <output.fpk>",
	Short: "Compress a raw little-endian float32 dump",
	Long: `Compress reads a raw dump of little-endian float32 values, truncates the
low mantissa bits of each value and writes the packed records.

By default the output is a container with a small header holding the
truncate count and record count. With --raw only the packed records are
written, matching the headerless 3-bytes-per-value layout when the truncate
count is 12.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompress,
}

func init() {
	compressCmd.Flags().IntVar(&compressTruncate, "truncate", 12, "number of mantissa LSBs to discard (0-16); overrides config")
	compressCmd.Flags().BoolVar(&compressRaw, "raw", false, "write packed records without a container header")
	compressCmd.Flags().IntVar(&compressWorkers, "workers", 0, "number of concurrent workers (0 = config or all CPUs)")
	compressCmd.Flags().BoolVar(&compressNoProgress, "no-progress", false, "disable the progress bar")
	rootCmd.AddCommand(compressCmd)
}

func runCompress(cmd *cobra.Command, args []string) error {
	inPath, outPath := args[0], args[1]
	logger := setupLogger()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cc, err := codecConfigFor(cmd, cfg, compressTruncate)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("workers") {
		cfg.Pipeline.Workers = compressWorkers
	}

	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	values, err := floatio.Read(in)
	in.Close()
	if err != nil {
		return err
	}

	c, err := initComponents(cfg, cc, logger)
	if err != nil {
		return fmt.Errorf("initializing components: %w", err)
	}
	defer c.Close()

	start := time.Now()
	stop := func() {}
	if cfg.Pipeline.Progress && !compressNoProgress {
		stop = trackProgress(cmd.Context(), c.Broker, cmd.ErrOrStderr(), "Compressing")
	}
	payload, err := c.Pipeline.Compress(cmd.Context(), values)
	stop()
	if err != nil {
		return fmt.Errorf("compressing: %w", err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	if compressRaw {
		_, err = out.Write(payload)
	} else {
		err = container.Write(out, container.Header{Config: cc, RecordCount: uint64(len(values))}, payload)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	elapsed := time.Since(start)

	packedBytes := int64(len(payload))
	if !compressRaw {
		packedBytes += container.HeaderSize
	}
	originalBytes := int64(len(values)) * 4

	logger.Info("compressed",
		"input", inPath,
		"output", outPath,
		"records", len(values),
		"truncate_count", cc.TruncateCount,
		"duration", elapsed,
	)

	c.recordRun(&store.Run{
		Kind:          store.KindCompress,
		Source:        inPath,
		Target:        outPath,
		TruncateCount: cc.TruncateCount,
		RecordCount:   int64(len(values)),
		OriginalBytes: originalBytes,
		PackedBytes:   packedBytes,
		Duration:      elapsed,
	}, nil)

	fmt.Fprintf(cmd.OutOrStdout(), "Compressed %d values (k=%d, %d-bit records): %s -> %s (%.2fx, %.1f%% saved)\n",
		len(values), cc.TruncateCount, cc.RecordWidth(),
		humanize.IBytes(uint64(originalBytes)), humanize.IBytes(uint64(packedBytes)),
		stats.Ratio(originalBytes, packedBytes), stats.Savings(originalBytes, packedBytes))
	return nil
}

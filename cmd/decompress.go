package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jacklau/floatpack/internal/codec"
	"github.com/jacklau/floatpack/internal/config"
	"github.com/jacklau/floatpack/internal/container"
	"github.com/jacklau/floatpack/internal/floatio"
	"github.com/jacklau/floatpack/internal/store"
)

var (
	decompressTruncate   int
	decompressRaw        bool
	decompressCount      int
	decompressNoProgress bool
)

var decompressCmd = &cobra.Command{
	Use:   "decompress <input.fpk> <output.f32>",
	Short: "Reconstruct a float32 dump from packed records",
	Long: `Decompress reads a container (or, with --raw, a headerless payload) and
writes the reconstructed values as a little-endian float32 dump. Discarded
mantissa bits come back as zeros.

Raw payloads carry no header, so the truncate count comes from --truncate or
the config file and the record count from --count or the payload length.`,
	Args: cobra.ExactArgs(2),
	RunE: runDecompress,
}

func init() {
	decompressCmd.Flags().IntVar(&decompressTruncate, "truncate", 12, "truncate count of a raw payload; overrides config")
	decompressCmd.Flags().BoolVar(&decompressRaw, "raw", false, "input is a headerless payload")
	decompressCmd.Flags().IntVar(&decompressCount, "count", 0, "record count of a raw payload (0 = derive from length)")
	decompressCmd.Flags().BoolVar(&decompressNoProgress, "no-progress", false, "disable the progress bar")
	rootCmd.AddCommand(decompressCmd)
}

// readPacked loads a container or raw payload and returns the codec config,
// record count and payload bytes.
func readPacked(cmd *cobra.Command, cfg *config.Config, path string, raw bool, truncate, count int) (codec.Config, int, []byte, error) {
	if !raw {
		f, err := os.Open(path)
		if err != nil {
			return codec.Config{}, 0, nil, fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()

		h, payload, err := container.Read(f)
		if err != nil {
			return codec.Config{}, 0, nil, fmt.Errorf("reading container: %w", err)
		}
		if tf := cmd.Flags().Lookup("truncate"); tf != nil && tf.Changed && truncate != h.Config.TruncateCount {
			return codec.Config{}, 0, nil, fmt.Errorf("--truncate %d conflicts with container truncate count %d", truncate, h.Config.TruncateCount)
		}
		return h.Config, int(h.RecordCount), payload, nil
	}

	cc, err := codecConfigFor(cmd, cfg, truncate)
	if err != nil {
		return codec.Config{}, 0, nil, err
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return codec.Config{}, 0, nil, fmt.Errorf("reading input: %w", err)
	}
	if count <= 0 {
		count = container.RawCount(len(payload), cc)
	}
	return cc, count, payload, nil
}

func runDecompress(cmd *cobra.Command, args []string) error {
	inPath, outPath := args[0], args[1]
	logger := setupLogger()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cc, count, payload, err := readPacked(cmd, cfg, inPath, decompressRaw, decompressTruncate, decompressCount)
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
	if cfg.Pipeline.Progress && !decompressNoProgress {
		stop = trackProgress(cmd.Context(), c.Broker, cmd.ErrOrStderr(), "Decompressing")
	}
	values, err := c.Pipeline.Decompress(cmd.Context(), payload, count)
	stop()
	if err != nil {
		return fmt.Errorf("decompressing: %w", err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	err = floatio.Write(out, values)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	packedBytes := int64(len(payload))
	if !decompressRaw {
		packedBytes += container.HeaderSize
	}
	originalBytes := int64(len(values)) * 4

	logger.Info("decompressed",
		"input", inPath,
		"output", outPath,
		"records", len(values),
		"truncate_count", cc.TruncateCount,
		"duration", elapsed,
	)

	c.recordRun(&store.Run{
		Kind:          store.KindDecompress,
		Source:        inPath,
		Target:        outPath,
		TruncateCount: cc.TruncateCount,
		RecordCount:   int64(len(values)),
		OriginalBytes: originalBytes,
		PackedBytes:   packedBytes,
		Duration:      elapsed,
	}, nil)

	fmt.Fprintf(cmd.OutOrStdout(), "Decompressed %d values (k=%d): %s -> %s\n",
		len(values), cc.TruncateCount, humanize.IBytes(uint64(packedBytes)), humanize.IBytes(uint64(originalBytes)))
	return nil
}

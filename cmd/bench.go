package cmd

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jacklau/floatpack/internal/codec"
	"github.com/jacklau/floatpack/internal/container"
	"github.com/jacklau/floatpack/internal/datagen"
	"github.com/jacklau/floatpack/internal/floatio"
	"github.com/jacklau/floatpack/internal/stats"
	"github.com/jacklau/floatpack/internal/store"
)

var (
	benchSamples  int
	benchSeed     uint64
	benchTruncate int
	benchDists    string
	benchDataDir  string
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure size, speed and error on synthetic datasets",
	Long: `Bench generates uniform, gaussian and exponential float32 datasets,
compresses and decompresses each one, and reports timings, sizes, error
metrics and a comparison of the statistical moments of the original and
reconstructed data. Every dataset is recorded in the catalog.`,
	Args: cobra.NoArgs,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().IntVar(&benchSamples, "samples", 0, "samples per dataset (0 = config)")
	benchCmd.Flags().Uint64Var(&benchSeed, "seed", 0, "random seed (0 = config)")
	benchCmd.Flags().IntVar(&benchTruncate, "truncate", 12, "number of mantissa LSBs to discard (0-16); overrides config")
	benchCmd.Flags().StringVar(&benchDists, "dist", "", "comma-separated distributions (default: config)")
	benchCmd.Flags().StringVar(&benchDataDir, "data-dir", "", "also write original dumps and containers to this directory")
	rootCmd.AddCommand(benchCmd)
}

// benchResult is the outcome of benchmarking one dataset.
type benchResult struct {
	Dist          datagen.Distribution
	OriginalBytes int64
	PackedBytes   int64
	Compress      time.Duration
	Decompress    time.Duration
	Errors        stats.ErrorMetrics
	Original      stats.Moments
	Reconstructed stats.Moments
}

func parseDistList(s string) ([]datagen.Distribution, error) {
	var out []datagen.Distribution
	for _, name := range strings.Split(s, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		d, err := datagen.Parse(name)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no distributions given")
	}
	return out, nil
}

func runBench(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cc, err := codecConfigFor(cmd, cfg, benchTruncate)
	if err != nil {
		return err
	}

	samples := cfg.Bench.Samples
	if benchSamples > 0 {
		samples = benchSamples
	}
	seed := cfg.Bench.Seed
	if benchSeed > 0 {
		seed = benchSeed
	}
	distList := strings.Join(cfg.Bench.Distributions, ",")
	if benchDists != "" {
		distList = benchDists
	}
	dists, err := parseDistList(distList)
	if err != nil {
		return err
	}

	if benchDataDir != "" {
		if err := os.MkdirAll(benchDataDir, 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	c, err := initComponents(cfg, cc, logger)
	if err != nil {
		return fmt.Errorf("initializing components: %w", err)
	}
	defer c.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	var results []benchResult

	for _, d := range dists {
		logger.Info("benchmarking dataset", "dist", d, "samples", samples, "truncate_count", cc.TruncateCount)

		values, err := datagen.Generate(d, samples, seed)
		if err != nil {
			return err
		}

		start := time.Now()
		payload, err := c.Pipeline.Compress(ctx, values)
		if err != nil {
			return fmt.Errorf("compressing %s: %w", d, err)
		}
		compressTime := time.Since(start)

		start = time.Now()
		recon, err := c.Pipeline.Decompress(ctx, payload, len(values))
		if err != nil {
			return fmt.Errorf("decompressing %s: %w", d, err)
		}
		decompressTime := time.Since(start)

		errs, err := stats.Errors(values, recon)
		if err != nil {
			return err
		}

		res := benchResult{
			Dist:          d,
			OriginalBytes: int64(len(values)) * 4,
			PackedBytes:   int64(len(payload)),
			Compress:      compressTime,
			Decompress:    decompressTime,
			Errors:        errs,
			Original:      stats.Describe(values),
			Reconstructed: stats.Describe(recon),
		}
		results = append(results, res)

		run := &store.Run{
			Kind:          store.KindBench,
			Dataset:       string(d),
			TruncateCount: cc.TruncateCount,
			RecordCount:   int64(len(values)),
			OriginalBytes: res.OriginalBytes,
			PackedBytes:   res.PackedBytes,
			Duration:      compressTime + decompressTime,
		}

		if benchDataDir != "" {
			run.Source, run.Target, err = writeBenchFiles(benchDataDir, d, values, payload, cc)
			if err != nil {
				return err
			}
		}

		c.recordRun(run, &store.Metrics{
			MSE:         errs.MSE,
			MAE:         errs.MAE,
			RelError:    errs.RelError,
			MaxAbsError: errs.MaxAbsError,
			OrigMean:    res.Original.Mean,
			ReconMean:   res.Reconstructed.Mean,
			OrigStdDev:  res.Original.StdDev,
			ReconStdDev: res.Reconstructed.StdDev,
		})

		printBenchResult(out, res)
	}

	printSizeComparison(out, results)
	return nil
}

func writeBenchFiles(dir string, d datagen.Distribution, values []float32, payload []byte, cc codec.Config) (string, string, error) {
	origPath := filepath.Join(dir, string(d)+"_original.bin")
	if err := os.WriteFile(origPath, floatio.Encode(values), 0o644); err != nil {
		return "", "", fmt.Errorf("writing %s: %w", origPath, err)
	}

	packedPath := filepath.Join(dir, string(d)+"_compressed.fpk")
	f, err := os.Create(packedPath)
	if err != nil {
		return "", "", fmt.Errorf("creating %s: %w", packedPath, err)
	}
	err = container.Write(f, container.Header{Config: cc, RecordCount: uint64(len(values))}, payload)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", "", fmt.Errorf("writing %s: %w", packedPath, err)
	}
	return origPath, packedPath, nil
}

func printBenchResult(out io.Writer, r benchResult) {
	fmt.Fprintf(out, "\n%s distribution\n", titleCase(string(r.Dist)))
	fmt.Fprintf(out, "  Compression time:   %v\n", r.Compress.Round(time.Microsecond))
	fmt.Fprintf(out, "  Decompression time: %v\n", r.Decompress.Round(time.Microsecond))
	fmt.Fprintln(out, "  Error metrics:")
	fmt.Fprintf(out, "    MSE:            %.10f\n", r.Errors.MSE)
	fmt.Fprintf(out, "    MAE:            %.10f\n", r.Errors.MAE)
	fmt.Fprintf(out, "    Relative error: %.6f\n", r.Errors.RelError)
	fmt.Fprintf(out, "    Max abs error:  %.10f\n", r.Errors.MaxAbsError)
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  PARAMETER\tORIGINAL\tRECONSTRUCTED\tDIFFERENCE")
	rows := []struct {
		name       string
		orig, reco float64
	}{
		{"Mean", r.Original.Mean, r.Reconstructed.Mean},
		{"Variance", r.Original.Variance, r.Reconstructed.Variance},
		{"Standard Deviation", r.Original.StdDev, r.Reconstructed.StdDev},
		{"Skewness", r.Original.Skewness, r.Reconstructed.Skewness},
		{"Kurtosis", r.Original.Kurtosis, r.Reconstructed.Kurtosis},
	}
	for _, row := range rows {
		fmt.Fprintf(w, "  %s\t%.6f\t%.6f\t%.6f\n", row.name, row.orig, row.reco, math.Abs(row.orig-row.reco))
	}
	w.Flush()
}

func printSizeComparison(out io.Writer, results []benchResult) {
	fmt.Fprintln(out, "\nFile size comparison:")
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  DATASET\tORIGINAL\tCOMPRESSED\tSAVINGS")
	for _, r := range results {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%.2f%%\n", r.Dist,
			humanize.IBytes(uint64(r.OriginalBytes)), humanize.IBytes(uint64(r.PackedBytes)),
			stats.Savings(r.OriginalBytes, r.PackedBytes))
	}
	w.Flush()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jacklau/floatpack/internal/codec"
	"github.com/jacklau/floatpack/internal/config"
	"github.com/jacklau/floatpack/internal/pipeline"
	"github.com/jacklau/floatpack/internal/pubsub"
	"github.com/jacklau/floatpack/internal/store"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "floatpack",
	Short: "Lossy bit-packing codec for float32 data",
	Long: `Floatpack discards low-order mantissa bits of float32 values and packs
sign, exponent, the remaining mantissa and a trailing-zero count into
fixed-width records. With the default truncate count of 12 every value
takes 3 bytes instead of 4.`,
	SilenceUsage: true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", fmt.Sprintf("config file (default %s)", defaultConfigPath()))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".floatpack/config.yaml"
	}
	return home + "/.floatpack/config.yaml"
}

func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// loadConfig reads the config file. A missing default config file is not an
// error: built-in defaults apply. An explicit --config must exist.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	cfg, err := config.Load(defaultConfigPath())
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

// codecConfigFor resolves the codec config, letting a --truncate flag on cmd
// override the config file.
func codecConfigFor(cmd *cobra.Command, cfg *config.Config, flagValue int) (codec.Config, error) {
	if f := cmd.Flags().Lookup("truncate"); f != nil && f.Changed {
		return codec.NewConfig(flagValue)
	}
	return cfg.CodecConfig()
}

// components holds initialized components for use by subcommands.
type components struct {
	Config   *config.Config
	Codec    codec.Config
	Store    *store.DB
	Broker   *pubsub.Broker[pipeline.Progress]
	Pipeline *pipeline.Pipeline
	Logger   *slog.Logger
}

// initComponents opens the catalog and builds a pipeline for cc.
func initComponents(cfg *config.Config, cc codec.Config, logger *slog.Logger) (*components, error) {
	c := &components{
		Config: cfg,
		Codec:  cc,
		Logger: logger,
	}

	dbPath, err := config.ExpandHome(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	c.Store = db

	c.Broker = pubsub.NewBroker[pipeline.Progress]()

	p, err := pipeline.New(pipeline.Deps{
		Config:       cc,
		Workers:      cfg.Pipeline.Workers,
		ChunkRecords: cfg.Pipeline.ChunkRecords,
		Broker:       c.Broker,
		Logger:       logger,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating pipeline: %w", err)
	}
	c.Pipeline = p

	return c, nil
}

// Close releases the catalog.
func (c *components) Close() error {
	return c.Store.Close()
}

// recordRun stores run in the catalog. Catalog failures never fail the
// command that produced the data.
func (c *components) recordRun(run *store.Run, metrics *store.Metrics) {
	if err := c.Store.RecordRun(run); err != nil {
		c.Logger.Warn("failed to record run", "error", err)
		return
	}
	if metrics == nil {
		return
	}
	metrics.RunID = run.ID
	if err := c.Store.RecordMetrics(metrics); err != nil {
		c.Logger.Warn("failed to record metrics", "run", run.ID, "error", err)
	}
}

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jacklau/floatpack/internal/codec"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactive setup for floatpack configuration",
	Long:  `Creates a default configuration file with guided prompts.`,
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Welcome to floatpack setup!")
	fmt.Fprintln(out, "This will create a configuration file for you.")
	fmt.Fprintln(out)

	configPath := cfgFile
	if configPath == "" {
		configPath = defaultConfigPath()
	}

	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintf(out, "Config file already exists at %s\n", configPath)
		fmt.Fprint(out, "Overwrite? [y/N]: ")
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	fmt.Fprintf(out, "Mantissa bits to truncate (%d-%d) [%d]: ",
		codec.MinTruncateCount, codec.MaxTruncateCount, codec.DefaultTruncateCount)
	truncate, err := promptInt(reader, codec.DefaultTruncateCount)
	if err != nil {
		return err
	}
	if _, err := codec.NewConfig(truncate); err != nil {
		return err
	}

	fmt.Fprint(out, "Worker count (0 = all CPUs) [0]: ")
	workers, err := promptInt(reader, 0)
	if err != nil {
		return err
	}
	if workers < 0 {
		return fmt.Errorf("worker count must be >= 0, got %d", workers)
	}

	fmt.Fprint(out, "Catalog database path [~/.floatpack/floatpack.db]: ")
	storePath, _ := reader.ReadString('\n')
	storePath = strings.TrimSpace(storePath)
	if storePath == "" {
		storePath = "~/.floatpack/floatpack.db"
	}

	content := buildConfigYAML(truncate, workers, storePath)

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Fprintf(out, "\nConfig written to %s\n", configPath)
	return nil
}

// promptInt reads one line and parses it as an integer. An empty line yields def.
func promptInt(r *bufio.Reader, def int) (int, error) {
	line, _ := r.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", line)
	}
	return n, nil
}

func buildConfigYAML(truncate, workers int, storePath string) string {
	var b strings.Builder

	b.WriteString("# floatpack configuration\n\n")

	b.WriteString("codec:\n")
	fmt.Fprintf(&b, "  truncate_count: %d\n", truncate)
	b.WriteString("\n")

	b.WriteString("pipeline:\n")
	fmt.Fprintf(&b, "  workers: %d\n", workers)
	b.WriteString("  chunk_records: 65536\n")
	b.WriteString("  progress: true\n")
	b.WriteString("\n")

	b.WriteString("bench:\n")
	b.WriteString("  samples: 100000\n")
	b.WriteString("  seed: 1\n")
	b.WriteString("  distributions: [gaussian, exponential, uniform]\n")
	b.WriteString("\n")

	b.WriteString("store:\n")
	fmt.Fprintf(&b, "  path: %s\n", storePath)

	return b.String()
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacklau/floatpack/internal/codec"
	"github.com/jacklau/floatpack/internal/container"
)

// version is set at build time via ldflags:
//
//	go build -ldflags="-X github.com/jacklau/floatpack/cmd.version=1.0.0"
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the floatpack version and container format",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), versionString())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// versionString names the build, the container format it writes and the
// default truncate count.
func versionString() string {
	return fmt.Sprintf("floatpack %s (container v%d, default truncate count %d)",
		version, container.Version, codec.DefaultTruncateCount)
}

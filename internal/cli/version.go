package cli

import (
	"fmt"
	"io"
	"runtime/debug"

	"occubench/internal/checks"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version, build and check catalogue information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(cmd.OutOrStdout())
	},
}

// printVersion reports the ldflags build stamp, then what the Go toolchain
// recorded about the module, then the check kinds this binary understands.
func printVersion(w io.Writer) {
	version, commit, date := BuildInfo()
	fmt.Fprintf(w, "occubench %s\n", version)
	fmt.Fprintf(w, "commit:  %s\nbuilt:   %s\n", commit, date)
	if info, ok := debug.ReadBuildInfo(); ok {
		fmt.Fprintf(w, "module:  %s\ngo:      %s\n", info.Main.Path, info.GoVersion)
	}
	fmt.Fprintf(w, "checks:  %d kinds\n", len(checks.List()))
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

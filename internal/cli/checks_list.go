package cli

import (
	"fmt"
	"io"

	"occubench/internal/checks"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var checksListQuiet bool
var checksCmd = &cobra.Command{
	Use:   "checks",
	Short: "List and describe check kinds",
	Long: `Describe the check kinds a checklist can refer to.

Each checklist entry names a kind and sets its options (see "occubench check --help").

Examples:
  # List all available check kinds
  occubench checks list
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var checksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available check kinds",
	Long: `List all check kinds registered in this build.

Kinds are sorted by ID.

Examples:
  occubench checks list

Output:
  A vertical list of kinds:
    ----------------------------------------
    CHECK: {ID}
    ----------------------------------------
    {TITLE}
    {DESCRIPTION}
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, k := range checks.List() {
			if checksListQuiet {
				fmt.Fprintln(cmd.OutOrStdout(), k.ID())
			} else {
				printKind(cmd.OutOrStdout(), k)
			}
		}
		return nil
	},
}

var checksShowCmd = &cobra.Command{
	Use:   "show [kind]",
	Short: "Show the options of a check kind",
	Long: `Show a check kind and the checklist options it reads.

Examples:
  occubench checks show lookup-values
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := checks.Lookup(args[0])
		if err != nil {
			return err
		}
		printKind(cmd.OutOrStdout(), k)
		return nil
	},
}

func printKind(w io.Writer, k checks.Kind) {
	bold := color.New(color.Bold)
	fmt.Fprintln(w, "----------------------------------------")
	bold.Fprintf(w, "CHECK: %s\n", k.ID())
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintln(w, k.Title())
	fmt.Fprintln(w, k.Description())

	if opts := k.Options(); len(opts) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Options:")
		for _, opt := range opts {
			def := opt.Default
			if def == "" {
				def = "\"\""
			}
			fmt.Fprintf(w, "  %s\n", opt.Name)
			fmt.Fprintf(w, "    Description: %s\n", opt.Description)
			fmt.Fprintf(w, "    Default:     %s\n", def)
		}
	}
	fmt.Fprintln(w)
}

func init() {
	rootCmd.AddCommand(checksCmd)
	checksCmd.AddCommand(checksListCmd)
	checksListCmd.Flags().BoolVarP(&checksListQuiet, "quiet", "q", false, "Only print check IDs")
	checksCmd.AddCommand(checksShowCmd)
}

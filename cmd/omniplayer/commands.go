package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/PizzaHomicide/omniplayer/internal/config"
	"github.com/PizzaHomicide/omniplayer/internal/source"
	"github.com/PizzaHomicide/omniplayer/internal/version"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newMatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "match <url>...",
		Short: "Print the backend that would play each URL",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, u := range args {
				fmt.Fprintf(w, "%s\t%s\n", describeMatch(absLocalPath(u)), u)
			}
			return w.Flush()
		},
	}
}

// describeMatch names the backend for rawURL.  Unmatched web URLs are probed by the file backend when played.
func describeMatch(rawURL string) string {
	kind := source.Match(rawURL)
	if kind == source.KindUnsupported && source.IsWebURL(rawURL) {
		return string(source.KindFile) + " (probe)"
	}
	return string(kind)
}

func newEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "List the environment variables that override the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name := color.New(color.FgCyan, color.Bold)
			for _, v := range config.SupportedEnvVars() {
				name.Fprintln(cmd.OutOrStdout(), v.Name)
				fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", v.Description)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetVersionInfo())
		},
	}
}

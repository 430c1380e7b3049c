package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var noColor bool

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "nimbus-docs",
		Short: "Upload endpoint descriptors, fill in a form, run the call.",
		Long: `nimbus-docs serves a small web UI: upload a JSON file describing
HTTP endpoints, get one form per endpoint, and run each call through a
server-side proxy that shows the raw JSON response.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	root.AddCommand(newServeCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newImportCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "nimbus-docs version %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "Built: %s\n", buildTime)
		},
	}
}

// methodLabel 按方法着色，与网页上的配色一致
func methodLabel(method string) string {
	var c *color.Color
	switch strings.ToLower(method) {
	case "get":
		c = color.New(color.FgGreen, color.Bold)
	case "post":
		c = color.New(color.FgBlue, color.Bold)
	case "put":
		c = color.New(color.FgYellow, color.Bold)
	case "delete":
		c = color.New(color.FgRed, color.Bold)
	default:
		c = color.New(color.Bold)
	}
	return c.Sprint(strings.ToUpper(method))
}

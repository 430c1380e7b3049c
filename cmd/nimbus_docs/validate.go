package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"nimbus-docs/internal/nimbus_docs/descriptor"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <descriptors.json>...",
		Short: "Check that descriptor files load and list their endpoints",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hasErrors := false
			for _, file := range args {
				descs, err := descriptor.LoadFile(file)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %v\n", color.RedString("Error in"), file, err)
					hasErrors = true
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d endpoints)\n", color.GreenString("Valid:"), file, len(descs))
				for i, d := range descs {
					fmt.Fprintf(cmd.OutOrStdout(), "  [%d] %s %s (%d fields)\n", i, methodLabel(d.Method), d.Endpoint, len(d.Fields))
				}
			}
			if hasErrors {
				return fmt.Errorf("validation failed")
			}
			return nil
		},
	}
}

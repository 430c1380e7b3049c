package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nimbus-docs/internal/middleware/logger"
	"nimbus-docs/internal/nimbus_docs/descriptor"
	"nimbus-docs/internal/nimbus_docs/processor"
	"nimbus-docs/internal/nimbus_docs/session"
	"nimbus-docs/internal/nimbus_docs/view"
)

func newRunCmd() *cobra.Command {
	var (
		index   int
		sets    []string
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "run <descriptors.json>",
		Short: "Run one endpoint from a descriptor file through the proxy",
		Long: `Run one endpoint from a descriptor file and print the JSON response.

Values are routed to the path, query or body bucket of the field they name.

Examples:
  nimbus-docs run apis.json --index 0 --set id=7
  nimbus-docs run apis.json -i 1 --set name=Ann --set age=3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			descs, err := descriptor.LoadFile(args[0])
			if err != nil {
				return err
			}
			ws := session.New(descs)
			d, err := ws.Descriptor(index)
			if err != nil {
				return fmt.Errorf("index %d: %w (file has %d endpoints)", index, err, len(descs))
			}
			for _, kv := range sets {
				name, value, err := parseSet(kv)
				if err != nil {
					return err
				}
				f, ok := d.FieldByName(name)
				if !ok {
					return fmt.Errorf("endpoint %d has no field %q", index, name)
				}
				if err := ws.SetValue(index, f.Role, name, value); err != nil {
					return err
				}
			}
			req, err := ws.RequestFor(index)
			if err != nil {
				return err
			}

			log := zap.NewNop()
			if verbose {
				if log, err = logger.NewLogger(true, "debug"); err != nil {
					return err
				}
			}
			proc := processor.NewProcessor(log, nil, nil)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", methodLabel(req.Method), processor.BuildURL(req.Endpoint, req.PathValues, req.QueryValues))
			res, err := proc.Run(cmd.Context(), req)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), color.RedString("Internal Server Error: %v", err))
				return fmt.Errorf("run failed")
			}
			fmt.Fprintf(out, "%s\n%s\n", color.New(color.Faint).Sprintf("upstream status %d", res.UpstreamStatus), view.FormatResponse(res.Body))
			return nil
		},
	}
	cmd.Flags().IntVarP(&index, "index", "i", 0, "index of the endpoint in the file")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field value as name=value (repeatable)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log the outbound request")
	return cmd
}

func parseSet(kv string) (string, string, error) {
	name, value, ok := strings.Cut(kv, "=")
	if !ok || name == "" {
		return "", "", fmt.Errorf("invalid --set %q, want name=value", kv)
	}
	return name, value, nil
}

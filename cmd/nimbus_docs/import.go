package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nimbus-docs/internal/nimbus_docs/descriptor"
	"nimbus-docs/internal/nimbus_docs/model"
)

func newImportCmd() *cobra.Command {
	var output, baseURL string
	cmd := &cobra.Command{
		Use:   "import <openapi.(json|yaml)>",
		Short: "Convert an OpenAPI 3 document into a descriptor file",
		Long: `Convert an OpenAPI 3 document into the descriptor format accepted by the UI.

Path and query parameters become "param" and "query" fields; properties of a
JSON request body become "body" fields.

Examples:
  nimbus-docs import openapi.yaml -o apis.json
  nimbus-docs import openapi.json --base-url http://localhost:3000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			descs, err := descriptor.OpenAPIFile(args[0], baseURL)
			if err != nil {
				return err
			}
			if descs == nil {
				descs = []model.EndpointDescriptor{}
			}
			data, err := json.MarshalIndent(descs, "", "  ")
			if err != nil {
				return err
			}
			data = append(data, '\n')

			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d endpoints to %s\n", len(descs), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "base URL (default: first server in the document)")
	return cmd
}

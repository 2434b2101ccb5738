package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomislavmiksik/phoenix-be/internal/openapi"
)

func newOpenAPICmd() *cobra.Command {
	var (
		outputFile string
		baseURL    string
	)

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Generate the OpenAPI specification",
		Long:  "Print the OpenAPI 3.1 document describing the Phoenix HTTP API.",
		Example: `  phoenix openapi
  phoenix openapi -o openapi.json --base-url https://api.example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			doc := openapi.Generate(openapi.Options{
				BaseURL:      baseURL,
				Version:      versionString(),
				APIKeyHeader: cfg.Auth.APIKeyHeader,
			})
			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal spec: %w", err)
			}
			data = append(data, '\n')

			if outputFile == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(outputFile, data, 0644); err != nil {
				return fmt.Errorf("write spec: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write spec to file instead of stdout")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Server URL to list in the document")

	return cmd
}

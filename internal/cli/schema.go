package cli

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/jaa/ytqueue/internal/config"
	"github.com/jaa/ytqueue/internal/exitcode"
	"github.com/spf13/cobra"
)

func newSchemaCommand(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := configSchema()
			if err != nil {
				return withExitCode(exitcode.RuntimeFailure, err)
			}
			fmt.Fprintln(app.IO.Out, string(payload))
			return nil
		},
	}
}

func configSchema() ([]byte, error) {
	reflector := &jsonschema.Reflector{
		FieldNameTag:               "yaml",
		RequiredFromJSONSchemaTags: true,
	}
	schema := reflector.Reflect(&config.Config{})
	schema.Title = "ytq configuration"
	payload, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	return payload, nil
}

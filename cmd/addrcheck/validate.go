package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/dukerupert/addressd/internal/address"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

func newValidateCmd(a *app) *cobra.Command {
	var (
		debug  bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "validate <address>",
		Short: "Validate one address and print the result",
		Example: `  addrcheck validate "1600 Pennsylvania Ave NW, Washington, DC 20500"
  addrcheck validate --output yaml --debug "12 Main Stret, Topeka KS"`,
		Args: cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			switch output {
			case outputJSON, outputYAML:
				return nil
			default:
				return fmt.Errorf("--output must be %s or %s, got %q", outputJSON, outputYAML, output)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			v, cleanup, err := a.newValidator(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			raw := strings.Join(args, " ")
			res, err := v.ValidateAddress(cmd.Context(), raw, address.Options{Debug: debug})
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), res, output)
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "include the reconciliation trace")
	cmd.Flags().StringVarP(&output, "output", "o", outputJSON, "output format: json or yaml")
	return cmd
}

// writeResult prints res in the requested format. YAML is produced from the
// JSON encoding so both formats share field names and omissions.
func writeResult(w io.Writer, res address.ValidationResult, format string) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	if format == outputYAML {
		data, err = yaml.JSONToYAML(data)
		if err != nil {
			return err
		}
	} else {
		data = append(data, '\n')
	}
	_, err = w.Write(data)
	return err
}

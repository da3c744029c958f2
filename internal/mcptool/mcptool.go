// Package mcptool exposes address validation as a Model Context Protocol
// tool so assistants can check addresses over stdio.
package mcptool

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dukerupert/addressd/internal/address"
)

// MetadataValidateAddress describes the validate_address tool.
var MetadataValidateAddress = &mcp.Tool{
	Name: "validate_address",
	Description: "Validate a free-form US postal address against authoritative ZIP data. " +
		"Returns status \"valid\" when city, state and ZIP agree, \"corrected\" with the " +
		"fields that were fixed, or \"unverifiable\" when no authoritative match exists. " +
		"The standardized form is in final.standardized.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"address"},
		"properties": map[string]interface{}{
			"address": map[string]interface{}{
				"type":        "string",
				"description": "Free-form address, e.g. \"123 Main St, Springfield, IL 62701\"",
			},
			"debug": map[string]interface{}{
				"type":        "boolean",
				"description": "Include the step-by-step reconciliation trace in the result.",
			},
		},
	},
}

// InputValidateAddress is the input for the validate_address tool.
type InputValidateAddress struct {
	Address string `json:"address"`
	Debug   bool   `json:"debug,omitempty"`
}

// ValidateAddress returns the tool handler backed by v.
func ValidateAddress(v address.Validator) mcp.ToolHandlerFor[InputValidateAddress, address.ValidationResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input InputValidateAddress) (*mcp.CallToolResult, address.ValidationResult, error) {
		res, err := v.ValidateAddress(ctx, input.Address, address.Options{Debug: input.Debug})
		if err != nil {
			return nil, address.ValidationResult{}, err
		}
		return nil, res, nil
	}
}

// NewServer returns an MCP server with the validate_address tool registered.
func NewServer(v address.Validator, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "addressd", Version: version}, nil)
	mcp.AddTool(server, MetadataValidateAddress, ValidateAddress(v))
	return server
}

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/meetgate/internal/tools/meeting_tools"
)

func newGenerateDocsCmd() *cobra.Command {
	var (
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools.
The documentation is rendered from the tool registry, so it always matches
the argument contract the server enforces.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runGenerateDocs(outputFile string) error {
	registry, err := meeting_tools.NewRegistry()
	if err != nil {
		return fmt.Errorf("failed to build tool registry: %w", err)
	}

	markdown := generateToolsMarkdown(registry.Tools())

	// Write to output
	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
	} else {
		fmt.Print(markdown)
	}

	return nil
}

func generateToolsMarkdown(tools []*meeting_tools.ToolSpec) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("This document provides a complete reference of all tools available when running meetgate as an MCP server.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")

	// Table of contents
	sb.WriteString("## Table of Contents\n\n")
	for _, tool := range tools {
		sb.WriteString(fmt.Sprintf("- [%s](#%s)\n", tool.Name, tool.Name))
	}
	sb.WriteString("\n")

	sb.WriteString("## Errors\n\n")
	sb.WriteString("Malformed calls (unknown tool, missing or invalid arguments) are rejected with a JSON-RPC error before Google Calendar is contacted. ")
	sb.WriteString("Failures while carrying out a well-formed call are returned as a tool result with `isError` set and a message of the form `<tool> failed: <reason>`.\n\n")

	sb.WriteString("## Meeting Tools\n\n")
	for _, tool := range tools {
		sb.WriteString(generateToolMarkdown(tool))
		sb.WriteString("\n")
	}

	return sb.String()
}

func generateToolMarkdown(tool *meeting_tools.ToolSpec) string {
	var sb strings.Builder

	// Tool name
	sb.WriteString(fmt.Sprintf("### %s\n\n", tool.Name))

	// Description
	if tool.Description != "" {
		sb.WriteString(fmt.Sprintf("%s\n\n", tool.Description))
	}

	if len(tool.Params) == 0 {
		sb.WriteString("**Arguments:** none\n")
		return sb.String()
	}

	// Arguments keep their declaration order, required ones first.
	sb.WriteString("**Arguments:**\n")
	for _, required := range []bool{true, false} {
		for _, p := range tool.Params {
			if p.Required != required {
				continue
			}
			requiredStr := "optional"
			if p.Required {
				requiredStr = "required"
			}
			sb.WriteString(fmt.Sprintf("- `%s` (%s, %s): ", p.Name, paramTypeName(p), requiredStr))
			if p.Description != "" {
				sb.WriteString(p.Description)
			} else {
				sb.WriteString(fmt.Sprintf("%s parameter", paramTypeName(p)))
			}
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\n")

	return sb.String()
}

func paramTypeName(p meeting_tools.Param) string {
	switch p.Type {
	case meeting_tools.TypeStringArray:
		return "string[]"
	case meeting_tools.TypeNumber:
		if p.Maximum != 0 {
			return fmt.Sprintf("number %g-%g", p.Minimum, p.Maximum)
		}
		return "number"
	default:
		return string(p.Type)
	}
}

// Package cmd implements the command-line interface for meetgate.
//
// This package provides the following commands:
//   - serve: Start the MCP server with the meeting tools over stdio
//   - auth: Authorize meetgate against a Google account and save the token file
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
package cmd

package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the meetgate application
var rootCmd = &cobra.Command{
	Use:   "meetgate",
	Short: "Google Meet tools for AI assistants over MCP",
	Long: `meetgate is a Model Context Protocol (MCP) server that lets AI assistants
list, inspect, create, update and delete Google Meet meetings on a Google
Calendar.

Authorize once with "meetgate auth", then run "meetgate serve".`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "meetgate version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}

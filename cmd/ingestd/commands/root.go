// Package commands implements the ingestd CLI.
package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ingestd",
	Short: "ingestd - serverless telemetry ingest daemon",
	Long: `ingestd accepts telemetry records over HTTP, assigns each one to a
time-bucketed segment, and writes it durably under a per-segment lease so
that concurrent handler instances never corrupt the same segment.

Use "ingestd [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: built-in defaults + INGEST_ env vars)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// Exit prints an error and exits with code 1.
func Exit(format string, args ...any) {
	PrintErr(format, args...)
	os.Exit(1)
}

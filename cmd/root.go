package cmd

import (
	"fmt"
	"os"

	"github.com/demodrop/engine/pkg/config"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "demodrop-engine",
	Short: "Demodrop playback and waveform engine",
	Long: `Demodrop Engine - the audio playback and waveform-visualization core
of the demodrop demo-sharing platform.

The engine resolves waveform peaks for uploaded tracks through a tiered
fallback chain (persistent cache, precomputed peaks, client-side analysis,
synthetic placeholder), tracks transcoding job progress, accepts chunked
uploads into object storage, and exposes the results over HTTP.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// NewRootCmd returns the root command (exported for testing)
func NewRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(initConfig)
}

// initConfig loads the configuration when a command needs it.
// Version and help commands run without config.
func initConfig() {
	cmd, _, _ := rootCmd.Find(os.Args[1:])
	if cmd != nil && (cmd.Name() == "version" || cmd.Name() == "help") {
		return
	}

	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing config: %v\n", err)
		os.Exit(1)
	}
}

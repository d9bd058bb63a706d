package config

import (
	"fmt"
	"os"

	"github.com/probeworks/oscarprobe/examples"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configFile string // --config flag value

	Cmd = &cobra.Command{
		Use:   "config",
		Short: "Generate a probe configuration file",
		Args:  cobra.NoArgs,
		RunE:  runGenerate,
	}
)

func init() {
	Cmd.Flags().StringVarP(&configFile, "config", "c", "probe.yaml", "output config file path")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	logger := log.With().Str("com", "generate").Logger()

	// Check if file exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("file already exists: %s", configFile)
	}

	// Load embedded template
	content, err := examples.ProbeConfig()
	if err != nil {
		return fmt.Errorf("load probe config template: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configFile, content, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	logger.Info().Str("file", configFile).Msg("generated probe configuration")
	return nil
}

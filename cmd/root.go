package cmd

import (
	"fmt"

	"github.com/probeworks/oscarprobe/cmd/generate"
	"github.com/probeworks/oscarprobe/cmd/probe"
	"github.com/probeworks/oscarprobe/config"
	"github.com/probeworks/oscarprobe/tools"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"

	showVersion bool
	debug       = tools.GetenvBool(config.EnvPrefix + "DEBUG")

	rootCmd = &cobra.Command{
		Use:   "oscarprobe",
		Short: "A legacy instant-messaging (OSCAR) protocol probe",
		Args:  cobra.NoArgs,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			SetLogLevel()
		},
		Run: func(cmd *cobra.Command, args []string) {
			if showVersion {
				fmt.Println(Version)
				return
			}
			cmd.Help()
		},
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("failed to execute")
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", debug, "Enable debug logging")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "Print version information")
	rootCmd.AddCommand(probe.Cmd)
	rootCmd.AddCommand(generate.Cmd)
}

// SetLogLevel sets the global log level based on debug flag.
// Call this after flags are parsed.
func SetLogLevel() {
	if debug {
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

package probe

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/probeworks/oscarprobe/oscar"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate and report the BOS redirect",
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := loadProbeConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := log.With().Str("com", "login-cmd").Logger()
	engine := oscar.New(cfg, logger)

	result, err := engine.Login(context.Background())
	if err != nil {
		return reportFailure(oscar.LoginFailure(err), err)
	}
	return printResult(result)
}

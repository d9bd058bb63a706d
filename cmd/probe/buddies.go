package probe

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/probeworks/oscarprobe/oscar"
)

var buddiesCmd = &cobra.Command{
	Use:   "buddies",
	Short: "Fetch the server-stored contact list",
	Args:  cobra.NoArgs,
	RunE:  runBuddies,
}

func runBuddies(cmd *cobra.Command, args []string) error {
	cfg, err := loadProbeConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := log.With().Str("com", "buddies-cmd").Logger()
	engine := oscar.New(cfg, logger)

	result, err := engine.ContactList(context.Background())
	if err != nil {
		return reportFailure(oscar.ContactListFailure(err), err)
	}
	return printResult(result)
}

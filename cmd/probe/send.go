package probe

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/probeworks/oscarprobe/oscar"
)

var (
	target  string
	message string

	sendCmd = &cobra.Command{
		Use:   "send",
		Short: "Send one instant message",
		Args:  cobra.NoArgs,
		RunE:  runSend,
	}
)

func init() {
	sendCmd.Flags().StringVarP(&target, "target", "t", "", "target screen name")
	sendCmd.Flags().StringVarP(&message, "message", "m", "", "message text")
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := loadProbeConfig()
	if err != nil {
		return err
	}
	if target != "" {
		cfg.Target = target
	}
	if message != "" {
		cfg.Message = message
	}
	if err := cfg.ValidateSend(); err != nil {
		return err
	}

	logger := log.With().Str("com", "send-cmd").Logger()
	engine := oscar.New(cfg, logger)

	result, err := engine.SendMessage(context.Background())
	if err != nil {
		return reportFailure(oscar.SendFailure(err), err)
	}
	return printResult(result)
}

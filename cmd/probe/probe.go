package probe

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/probeworks/oscarprobe/config"
	"github.com/probeworks/oscarprobe/oscar"
	"github.com/probeworks/oscarprobe/tools"
)

var (
	configFile = tools.GetenvDefault(config.EnvPrefix+"CONFIG", "")

	host       string
	port       int
	screenName string
	password   string
	timeout    time.Duration

	Cmd = &cobra.Command{
		Use:   "probe",
		Short: "Probe an OSCAR server",
		Args:  cobra.NoArgs,
	}
)

func init() {
	Cmd.PersistentFlags().StringVarP(&configFile, "config", "c", configFile, "path of config file")
	Cmd.PersistentFlags().StringVar(&host, "host", "", "authentication server host")
	Cmd.PersistentFlags().IntVar(&port, "port", 0, "authentication server port")
	Cmd.PersistentFlags().StringVarP(&screenName, "screenname", "s", "", "screen name")
	Cmd.PersistentFlags().StringVarP(&password, "password", "p", "", "password")
	Cmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "overall operation timeout")
	Cmd.AddCommand(loginCmd)
	Cmd.AddCommand(buddiesCmd)
	Cmd.AddCommand(sendCmd)
}

// loadProbeConfig merges the optional config file with flag overrides and
// applies defaults. Flags win over file values.
func loadProbeConfig() (*config.Probe, error) {
	cfg := &config.Probe{}
	if configFile != "" {
		loaded, err := config.LoadProbeConfig(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if host != "" {
		cfg.Host = host
	}
	if port != 0 {
		cfg.Port = port
	}
	if screenName != "" {
		cfg.ScreenName = screenName
	}
	if password != "" {
		cfg.Password = password
	}
	if timeout != 0 {
		cfg.Timeout = timeout
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// printResult writes a result to stdout as JSON.
func printResult(v interface{}) error {
	out, err := oscar.MarshalResult(v)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// reportFailure prints the failure-shaped result for err and decides the
// process outcome: server rejections and protocol violations are probe
// findings, transport failures are probe errors.
func reportFailure(result interface{}, err error) error {
	if printErr := printResult(result); printErr != nil {
		return printErr
	}
	var rejected *oscar.AuthRejectedError
	var violation *oscar.ProtocolViolationError
	if errors.As(err, &rejected) || errors.As(err, &violation) {
		log.Warn().Err(err).Msg("probe completed with failure result")
		return nil
	}
	return err
}

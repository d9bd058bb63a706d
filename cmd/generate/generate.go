package generate

import (
	"github.com/probeworks/oscarprobe/cmd/generate/config"
	"github.com/spf13/cobra"
)

var (
	Cmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate resources",
		Args:  cobra.NoArgs,
	}
)

func init() {
	Cmd.AddCommand(config.Cmd)
}

package main

import (
	"os"

	"github.com/spf13/cobra"

	servecmder "github.com/papercomputeco/linelens/cmd/linelens/serve"
	signcmder "github.com/papercomputeco/linelens/cmd/linelens/sign"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "linelens",
		Short:         "LINE bot that proofreads text in images",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(signcmder.NewSignCmd())

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

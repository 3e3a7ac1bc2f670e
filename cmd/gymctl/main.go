package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Spok95/gymflow/internal/config"
)

var Version = "dev"

func main() {
	config.LoadDotenv()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gymctl",
		Short:         "gymflow operator tool: migrations, exports, maintenance jobs",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(migrateCmd())
	root.AddCommand(exportCheckInsCmd())
	root.AddCommand(expireTrialsCmd())
	root.AddCommand(sendRemindersCmd())
	root.AddCommand(signCmd())
	return root
}

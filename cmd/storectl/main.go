// Command storectl runs administrative tasks against the storefront
// backends: schema migrations, platform admin claims and demo data.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "storectl",
		Short:         "Administer the storefront service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newMigrateCommand(),
		newSetAdminCommand(),
		newRevokeAdminCommand(),
		newGetClaimsCommand(),
		newSeedCommand(),
	)
	return root
}

package cmd

import (
	"fmt"

	"github.com/brk3/habitgrid/pkg/versioninfo"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `The "version" command displays the current version info for both client
and server if available.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		version(cmd)
	},
}

func version(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Client Version: %s (built %s)\n", versioninfo.Version, versioninfo.BuildDate)

	c, _, err := newClient()
	if err != nil {
		fmt.Fprintf(out, "Error creating client: %v\n", err)
		return
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()
	serverVersion, err := c.Version(ctx)
	if err != nil {
		fmt.Fprintf(out, "Error fetching server version: %v\n", err)
		return
	}
	fmt.Fprintf(out, "Server Version: %s (built %s)\n", serverVersion.Version, serverVersion.BuildDate)
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

package cmd

import (
	"fmt"

	"github.com/brk3/habitgrid/internal/server"
	"github.com/brk3/habitgrid/internal/storage/bolt"
	"github.com/spf13/cobra"
)

var (
	apikeyUser   string
	apikeyRemote bool
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage API keys",
}

var apikeyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an API key",
	Long: `The "apikey create" command mints a new API key. By default the key is written
straight into the server's database for --user, which must be run on the server host.
With --remote the running server mints a key for the currently authenticated user.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if apikeyRemote {
			return createRemoteAPIKey(cmd)
		}
		return createLocalAPIKey(cmd)
	},
}

func init() {
	apikeyCreateCmd.Flags().StringVar(&apikeyUser, "user", "anonymous", "user ID the key authenticates as")
	apikeyCreateCmd.Flags().BoolVar(&apikeyRemote, "remote", false, "ask the server to mint the key")
	apikeyCmd.AddCommand(apikeyCreateCmd)
	rootCmd.AddCommand(apikeyCmd)
}

func createLocalAPIKey(cmd *cobra.Command) error {
	st, err := bolt.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	key, keyHash, err := server.GenerateAPIKey()
	if err != nil {
		return err
	}
	if err := st.PutAPIKey(keyHash, apikeyUser); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), key)
	return nil
}

func createRemoteAPIKey(cmd *cobra.Command) error {
	c, _, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	key, err := c.CreateAPIKey(ctx)
	if err != nil {
		return fmt.Errorf("failed to create API key: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), key)
	return nil
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Request a fresh OpenSubtitles session token and cache it",
	Long: `Logs in to the OpenSubtitles XML-RPC API (anonymously unless
opensubtitles.username and opensubtitles.password are configured) and replaces
the cached session token used by subsequent downloads.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, client, err := newServices()
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Logging in to OpenSubtitles...")
		token, err := client.Login(cmd.Context())
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		if err := store.Save(token); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Login successful. Token cached at %s\n", store.Path())
		return nil
	},
}

func init() {
	RootCmd.AddCommand(loginCmd)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Invalidate and forget the cached OpenSubtitles session token",
	Long: `Asks OpenSubtitles to end the session of the cached token, then removes
the token from the cache. The cache is cleared even if the server call fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, client, err := newServices()
		if err != nil {
			return err
		}

		token, ok, err := store.Load()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "No cached token, nothing to do.")
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Attempting to log out from OpenSubtitles...")
		if err := client.Logout(cmd.Context(), token); err != nil {
			logger.WithError(err).Warn("Server-side logout failed, clearing the cached token anyway")
		}

		if err := store.Clear(); err != nil {
			return fmt.Errorf("logout failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logout successful.")
		return nil
	},
}

func init() {
	RootCmd.AddCommand(logoutCmd)
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/calchat/calchat/internal/google"
)

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize access to your Google Calendar",
		Long: `Run the Google OAuth consent flow in your browser and store the
resulting credentials locally. Subsequent commands reuse the stored
credentials and refresh them automatically.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(),
				os.Interrupt, syscall.SIGTERM)
			defer cancel()

			provider, err := newCredentialProvider(setupLogger(false))
			if err != nil {
				return err
			}

			if provider.IsLoggedIn() {
				fmt.Println("Already logged in, stored credentials are valid.")
				return nil
			}

			if _, err := provider.GetCredentials(ctx); err != nil {
				return fmt.Errorf("authorization failed: %w", err)
			}

			fmt.Printf("Login successful. Credentials saved to %s\n", google.DefaultTokenPath())
			return nil
		},
	}
	return cmd
}

func newLogoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored Google Calendar credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := newCredentialProvider(setupLogger(false))
			if err != nil {
				return err
			}

			if provider.Logout() {
				fmt.Println("Logged out, stored credentials removed.")
			} else {
				fmt.Println("No stored credentials.")
			}
			return nil
		},
	}
	return cmd
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether you are logged in to Google Calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := newCredentialProvider(setupLogger(false))
			if err != nil {
				return err
			}

			if provider.IsLoggedIn() {
				fmt.Printf("Logged in. Credentials stored at %s\n", google.DefaultTokenPath())
			} else {
				fmt.Println("Not logged in. Run 'calchat login' to authorize.")
			}
			return nil
		},
	}
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func whoamiCmd() *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sess, client, err := newEnv()
			if err != nil {
				return err
			}

			profile := sess.Profile()
			if profile == nil {
				fmt.Println("Not logged in.")
				return nil
			}

			if verify {
				// Ask the server; the stored token may have expired.
				p, err := client.Me(cmd.Context())
				if err != nil {
					return fmt.Errorf("session invalid: %w", err)
				}
				profile = &p
			}

			fmt.Printf("Login: %s\n", profile.Login)
			fmt.Printf("Name:  %s\n", profile.DisplayName())
			if profile.Email != "" {
				fmt.Printf("Email: %s\n", profile.Email)
			}
			if profile.IsAdmin {
				fmt.Println("Role:  admin")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "Validate the stored token against the server")

	return cmd
}

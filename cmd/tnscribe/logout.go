package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sess, _, err := newEnv()
			if err != nil {
				return err
			}

			sess.Logout()
			fmt.Println("Logged out.")
			return nil
		},
	}
}

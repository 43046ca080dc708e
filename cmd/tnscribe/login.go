package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func loginCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <login>",
		Short: "Authenticate against the portal and persist the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sess, client, err := newEnv()
			if err != nil {
				return err
			}

			if password == "" {
				password, err = readPassword("Password: ")
				if err != nil {
					return err
				}
			}

			profile, err := sess.Login(cmd.Context(), client, strings.TrimSpace(args[0]), password)
			if err != nil {
				return err
			}

			fmt.Printf("Logged in as %s", profile.DisplayName())
			if profile.IsAdmin {
				fmt.Print(" (admin)")
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")

	return cmd
}

// readPassword prompts without echo when stdin is a terminal, else reads
// one line (for scripted use).
func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}

	var line string
	if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return line, nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tn-portal/tnscribe/internal/api"
	"github.com/tn-portal/tnscribe/internal/render"
)

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrator operations (user management, server-side history)",
	}
	cmd.AddCommand(adminUsersCmd())
	cmd.AddCommand(adminAddUserCmd())
	cmd.AddCommand(adminHistoryCmd())
	return cmd
}

func adminUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List portal users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sess, client, err := newEnv()
			if err != nil {
				return err
			}
			if !sess.IsAdmin() {
				return fmt.Errorf("admin privileges required")
			}

			loader := api.NewLoader(client, sess)
			if err := loader.Refresh(cmd.Context()); err != nil {
				return err
			}
			fmt.Print(render.UsersTable(loader.Users()))
			return nil
		},
	}
}

func adminAddUserCmd() *cobra.Command {
	var user api.NewUser

	cmd := &cobra.Command{
		Use:   "adduser <login>",
		Short: "Create a portal user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sess, client, err := newEnv()
			if err != nil {
				return err
			}
			if !sess.IsAdmin() {
				return fmt.Errorf("admin privileges required")
			}

			user.Login = args[0]
			if user.Password == "" {
				user.Password, err = readPassword("New user password: ")
				if err != nil {
					return err
				}
			}

			if err := client.CreateUser(cmd.Context(), user); err != nil {
				return err
			}
			fmt.Printf("User %s created.\n", user.Login)
			return nil
		},
	}

	cmd.Flags().StringVar(&user.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&user.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&user.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&user.Password, "password", "", "Password (prompted when omitted)")

	return cmd
}

func adminHistoryCmd() *cobra.Command {
	var criteria api.FilterCriteria
	var show int64

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse server-side transcription history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sess, client, err := newEnv()
			if err != nil {
				return err
			}
			if !sess.IsAdmin() {
				return fmt.Errorf("admin privileges required")
			}

			if show > 0 {
				detail, err := client.TranscriptionDetail(cmd.Context(), show)
				if err != nil {
					return err
				}
				fmt.Printf("%s by %s at %s\n\n%s\n",
					detail.FileName, detail.UserLogin, render.Date(detail.TranscribedAt), detail.FullText)
				return nil
			}

			loader := api.NewLoader(client, sess)
			loader.Criteria = criteria
			if err := loader.Refresh(cmd.Context()); err != nil {
				return err
			}

			records := loader.Records()
			if len(records) == 0 {
				fmt.Println("No transcriptions match.")
				return nil
			}
			fmt.Print(render.RecordsTable(records))
			return nil
		},
	}

	cmd.Flags().StringVar(&criteria.User, "user", "", "Filter by user login")
	cmd.Flags().StringVar(&criteria.StartDate, "from", "", "Filter from date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&criteria.EndDate, "to", "", "Filter to date (YYYY-MM-DD)")
	cmd.Flags().Int64Var(&show, "show", 0, "Print the stored text of one transcription by id")

	return cmd
}

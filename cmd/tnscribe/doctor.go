package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tn-portal/tnscribe/internal/archive"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify config, session, archive, and server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, sess, client, err := newEnv()
			if err != nil {
				return err
			}

			fmt.Println("=== Config ===")
			fmt.Printf("  Server: %s\n", cfg.ServerURL)
			fmt.Printf("  State:  %s\n", cfg.StateDir)

			fmt.Println("\n=== Session ===")
			profile := sess.Profile()
			if profile == nil {
				fmt.Println("  Status: not logged in (run 'tnscribe login')")
			} else {
				fmt.Printf("  Login: %s\n", profile.Login)
				if _, err := client.Me(cmd.Context()); err != nil {
					fmt.Printf("  Status: STALE (%v)\n", err)
				} else {
					fmt.Println("  Status: OK (token accepted by server)")
				}
			}

			fmt.Println("\n=== Archive ===")
			fmt.Printf("  Path: %s\n", cfg.DBPath)
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				fmt.Println("  Status: NOT FOUND (created on first transcription)")
				return nil
			}

			db, err := archive.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open archive: %w", err)
			}
			defer db.Close()

			runs, err := db.RunCount()
			if err != nil {
				return fmt.Errorf("count runs: %w", err)
			}
			fmt.Printf("  Runs: %d\n", runs)

			if info, err := os.Stat(cfg.DBPath); err == nil {
				sizeMB := float64(info.Size()) / 1024 / 1024
				fmt.Printf("\n=== DB Size: %.1f MB ===\n", sizeMB)
			}

			return nil
		},
	}
}

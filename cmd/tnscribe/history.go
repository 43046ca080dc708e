package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tn-portal/tnscribe/internal/archive"
	"github.com/tn-portal/tnscribe/internal/render"
)

func historyCmd() *cobra.Command {
	var limit int
	var show string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List transcription runs archived on this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := newEnv()
			if err != nil {
				return err
			}

			db, err := archive.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open archive: %w", err)
			}
			defer db.Close()

			if show != "" {
				return showRun(db, show)
			}

			runs, err := db.Recent(limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("No archived runs yet.")
				return nil
			}
			fmt.Print(render.RunsTable(runs))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Max runs to list")
	cmd.Flags().StringVar(&show, "show", "", "Print the transcript of a run (id prefix)")

	return cmd
}

func showRun(db *archive.DB, idPrefix string) error {
	runs, err := db.Recent(200)
	if err != nil {
		return err
	}
	for _, run := range runs {
		if !strings.HasPrefix(run.ID, idPrefix) {
			continue
		}
		segments, err := db.Segments(run.ID)
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s, %d segments)\n\n", run.FileName, run.Language, run.ChunkCount)
		for _, seg := range segments {
			fmt.Println(render.ChunkLine(seg.Index, seg.Text))
		}
		return nil
	}
	return fmt.Errorf("no archived run with id %q", idPrefix)
}

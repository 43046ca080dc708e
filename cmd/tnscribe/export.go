package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/tn-portal/tnscribe/internal/archive"
)

func exportCmd() *cobra.Command {
	var out string
	var toClipboard bool
	var local bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the latest transcription as a text file",
		Long: `Downloads your most recent transcription from the portal. With
--local the text comes from the local archive instead, without a
network round trip.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, client, err := newEnv()
			if err != nil {
				return err
			}

			var filename string
			var data []byte

			if local {
				filename, data, err = localExport(cfg.DBPath)
				if err != nil {
					return err
				}
			} else {
				exp, err := client.ExportLatest(cmd.Context())
				if err != nil {
					return err
				}
				filename, data = exp.Filename, exp.Data
			}

			if toClipboard {
				if err := clipboard.WriteAll(string(data)); err != nil {
					return fmt.Errorf("copy to clipboard: %w", err)
				}
				fmt.Println("Copied transcription to clipboard.")
				return nil
			}

			if out != "" {
				filename = out
			}
			if err := os.WriteFile(filename, data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Printf("Exported to %s\n", filename)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output path (default: server-supplied filename)")
	cmd.Flags().BoolVar(&toClipboard, "copy", false, "Copy the text to the clipboard instead of writing a file")
	cmd.Flags().BoolVar(&local, "local", false, "Export the latest run from the local archive")

	return cmd
}

// localExport builds the export from the archive, naming the file the
// way the server does: <base>_<timestamp>.txt.
func localExport(dbPath string) (string, []byte, error) {
	db, err := archive.OpenDB(dbPath)
	if err != nil {
		return "", nil, fmt.Errorf("open archive: %w", err)
	}
	defer db.Close()

	run, err := db.Latest()
	if err != nil {
		return "", nil, err
	}
	if run == nil || strings.TrimSpace(run.FullText) == "" {
		return "", nil, fmt.Errorf("no archived transcription to export")
	}

	base := strings.TrimSuffix(run.FileName, filepath.Ext(run.FileName))
	if base == "" {
		base = "transcription"
	}
	filename := fmt.Sprintf("%s_%s.txt", base, time.Now().UTC().Format("20060102150405"))
	return filename, []byte(run.FullText), nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tn-portal/tnscribe/internal/api"
	"github.com/tn-portal/tnscribe/internal/archive"
	"github.com/tn-portal/tnscribe/internal/tui"
)

func transcribeCmd() *cobra.Command {
	var language string
	var noArchive bool

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Upload an audio file and stream its transcription live",
		Long: `Uploads an audio file and prints transcript segments as the server
produces them. Interactive terminals get a live view (Esc aborts);
piped output is TSV: index, text.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, client, err := newEnv()
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open audio: %w", err)
			}
			defer f.Close()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			fileName := filepath.Base(args[0])
			started := time.Now()

			stream, err := client.Transcribe(ctx, f, fileName, language)
			if err != nil {
				return err
			}
			defer stream.Close()

			var chunks []api.Chunk
			if term.IsTerminal(int(os.Stdout.Fd())) {
				chunks, _, err = tui.Run(stream, cancel, fileName)
			} else {
				chunks, err = drainStream(ctx, stream)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "Transcribed %d segments in %s.\n",
				len(chunks), time.Since(started).Round(time.Second))

			if noArchive || len(chunks) == 0 {
				return nil
			}
			return archiveRun(cfg.DBPath, fileName, language, chunks, time.Since(started))
		},
	}

	cmd.Flags().StringVar(&language, "language", api.DefaultLanguage, "Language hint (auto, fr, ar, en, ...)")
	cmd.Flags().BoolVar(&noArchive, "no-archive", false, "Skip recording the run in the local archive")

	return cmd
}

// drainStream pulls the whole stream for non-interactive output.
func drainStream(ctx context.Context, stream *api.TranscribeStream) ([]api.Chunk, error) {
	var chunks []api.Chunk
	for {
		chunk, err := stream.Next()
		if err == io.EOF {
			return chunks, nil
		}
		if err != nil {
			if errors.Is(err, api.ErrCancelled) && ctx.Err() != nil {
				fmt.Fprintln(os.Stderr, "Aborted.")
			}
			return chunks, err
		}
		chunks = append(chunks, chunk)
		fmt.Printf("%d\t%s\n", chunk.Index, chunk.Text)
	}
}

func archiveRun(dbPath, fileName, language string, chunks []api.Chunk, elapsed time.Duration) error {
	db, err := archive.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer db.Close()

	segments := make([]archive.Segment, len(chunks))
	for i, c := range chunks {
		segments[i] = archive.Segment{Index: c.Index, Text: c.Text}
	}

	id, err := db.Record(fileName, language, segments, elapsed)
	if err != nil {
		return fmt.Errorf("archive run: %w", err)
	}
	log.Debug().Str("run", id).Msg("run archived")
	return nil
}

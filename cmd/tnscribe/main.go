package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tn-portal/tnscribe/internal/api"
	"github.com/tn-portal/tnscribe/internal/config"
	"github.com/tn-portal/tnscribe/internal/session"
)

var version = "dev"

func main() {
	var debug bool

	rootCmd := &cobra.Command{
		Use:     "tnscribe",
		Short:   "Transcription portal client - stream audio transcriptions from the terminal",
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(transcribeCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(adminCmd())
	rootCmd.AddCommand(doctorCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newEnv loads config, restores the persisted session, and builds the
// portal client every command starts from.
func newEnv() (*config.Config, *session.Store, *api.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	sess := session.NewStore(cfg.StateDir)
	sess.Restore()

	return cfg, sess, api.NewClient(cfg.ServerURL, sess), nil
}

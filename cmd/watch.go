package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show the live state in a full-screen terminal view",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().String("log-file", "", "write logs to this file (stderr would tear the view)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := slog.New(slog.DiscardHandler)
	if path, _ := cmd.Flags().GetString("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		level := slog.LevelInfo
		if cfg.Verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	}

	eng, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}
	ctx, cancel := setupSignalContext(logger)
	defer cancel()
	if err := eng.Start(ctx); err != nil {
		return err
	}
	defer eng.Stop()

	return tui.Run(eng, eng.SelectDepot)
}

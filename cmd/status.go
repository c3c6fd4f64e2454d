package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/engine"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/journal"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current state once",
	Long: `Loads every snapshot file, replays the current journal to rebuild
location and ledgers, prints the resulting state and exits.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().Bool("json", false, "print the state as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	eng, stop, err := oneShotEngine()
	if err != nil {
		return err
	}
	defer stop()

	st := eng.State()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	printer := ui.New(cmd.OutOrStdout(), useColor(cmd))
	printer.State(st)
	return nil
}

// oneShotEngine starts an engine, replays the current journal into it and
// returns it with the function that stops it.
func oneShotEngine() (*engine.Engine, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.DiscardHandler)
	if cfg.Verbose {
		logger = newLogger(cfg)
	}
	eng, err := newEngine(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := eng.Start(context.Background()); err != nil {
		return nil, nil, err
	}

	path, err := journal.Current(cfg.JournalDir)
	switch {
	case errors.Is(err, journal.ErrNoJournal), errors.Is(err, fs.ErrNotExist):
	case err != nil:
		eng.Stop()
		return nil, nil, err
	default:
		if _, err := eng.Replay(path); err != nil {
			eng.Stop()
			return nil, nil, fmt.Errorf("replaying %s: %w", path, err)
		}
	}
	return eng, eng.Stop, nil
}

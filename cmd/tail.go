package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/config"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/journal"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/ui"
)

var tailCmd = &cobra.Command{
	Use:   "tail [journal-file]",
	Short: "Print journal events",
	Long: `Prints the events of a journal file, by default the most recently
written one in the journal directory.

With --follow (-f), keeps tailing every journal in the directory for new
events (like tail -f), including files the game creates later.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTail,
}

func init() {
	tailCmd.Flags().BoolP("follow", "f", false, "follow the journal directory for new events")
	tailCmd.Flags().Bool("all", false, "include event kinds the engine does not consume")
	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	printer := ui.New(cmd.OutOrStdout(), useColor(cmd))
	all, _ := cmd.Flags().GetBool("all")
	follow, _ := cmd.Flags().GetBool("follow")

	var kinds map[string]bool
	if !all {
		kinds = journal.RecognizedKinds()
	}
	show := func(evt journal.Event) {
		if kinds == nil || kinds[evt.Kind] {
			printer.Event(evt)
		}
	}

	path := ""
	if len(args) == 1 {
		path = args[0]
	} else {
		path, err = journal.Current(cfg.JournalDir)
		if err != nil && !follow {
			return err
		}
	}
	if path != "" {
		printer.Info(fmt.Sprintf("── %s ──", filepath.Base(path)))
		if _, err := journal.ReadAll(path, show); err != nil {
			return err
		}
	}

	if !follow {
		return nil
	}
	return tailFollow(cfg, kinds, show)
}

// tailFollow streams new events from every journal in the configured
// directory until interrupted.
func tailFollow(cfg config.Config, kinds map[string]bool, show func(journal.Event)) error {
	logger := newLogger(cfg)
	tailer := journal.NewTailer(journal.TailerConfig{
		Dir:          cfg.JournalDir,
		PollInterval: cfg.PollInterval,
		Kinds:        kinds,
		// Catch-up would reprint what ReadAll just showed.
		CatchupKinds: map[string]bool{},
		Logger:       logger,
	})

	ctx, cancel := setupSignalContext(logger)
	defer cancel()
	if err := tailer.Start(ctx); err != nil {
		return err
	}
	defer tailer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt := <-tailer.Events():
			show(evt)
		}
	}
}

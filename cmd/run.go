package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/config"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/engine"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/publish"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/state"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/telemetry"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the telemetry engine and log every state change",
	Long: `Starts the engine against the journal directory and logs one line per
changed state field. With --mqtt (or mqtt.enabled in the config file) the
status flags are also published to an MQTT broker. With --record every
change is also appended to a JSONL file.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().Bool("mqtt", false, "publish status flags to the configured MQTT broker")
	runCmd.Flags().String("mqtt-broker", "", "override mqtt.broker")
	runCmd.Flags().String("record", "", "append every state change to this JSONL file")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cmd, &cfg)
	logger := newLogger(cfg)

	var opts []engine.Option
	if cfg.MQTT.Enabled {
		broker, err := publish.NewMQTTBroker(publish.MQTTConfig{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			QoS:      byte(cfg.MQTT.QoS),
			Retain:   cfg.MQTT.Retain,
			Logger:   logger,
		})
		if err != nil {
			return err
		}
		defer broker.Close()
		opts = append(opts, engine.WithPublisher(publish.New(broker, publish.Config{
			TopicPrefix:   cfg.MQTT.TopicPrefix,
			RatePerSecond: cfg.MQTT.RatePerSecond,
			Burst:         cfg.MQTT.Burst,
			ChangesOnly:   cfg.MQTT.ChangesOnly,
			Logger:        logger,
		})))
	}

	eng, err := newEngine(cfg, logger, opts...)
	if err != nil {
		return err
	}
	cancelSub := eng.SubscribeAll(func(f state.Field, st *state.AggregatedState) {
		logger.Info("state changed", "field", string(f), "version", st.Version)
	})
	defer cancelSub()

	if path, _ := cmd.Flags().GetString("record"); path != "" {
		rec, err := telemetry.NewEmitter(path)
		if err != nil {
			return err
		}
		defer func() {
			if n := rec.Failures(); n > 0 {
				logger.Warn("telemetry: events not recorded", "count", n)
			}
			_ = rec.Close()
		}()
		defer rec.Attach(eng)()
	}

	ctx, cancel := setupSignalContext(logger)
	defer cancel()

	if err := eng.Start(ctx); err != nil {
		return err
	}
	defer eng.Stop()

	<-ctx.Done()
	return nil
}

// applyRunFlags applies run-specific flag values to the loaded config.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	if v, _ := cmd.Flags().GetBool("mqtt"); v {
		cfg.MQTT.Enabled = true
	}
	if v, _ := cmd.Flags().GetString("mqtt-broker"); v != "" {
		cfg.MQTT.Broker = v
	}
}

// newEngine maps configuration onto an engine.
func newEngine(cfg config.Config, logger *slog.Logger, opts ...engine.Option) (*engine.Engine, error) {
	eng, err := engine.New(engine.Config{
		JournalDir:       cfg.JournalDir,
		PollInterval:     cfg.PollInterval,
		CatchupWindow:    cfg.CatchupWindow,
		CatchupTailBytes: cfg.CatchupTailBytes,
		JumpTimeout:      cfg.JumpTimeout,
		Debounce:         cfg.Debounce,
		DedupeWindow:     cfg.Ledger.DedupeWindow,
	}, logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("building engine: %w", err)
	}
	return eng, nil
}

// setupSignalContext returns a context that is canceled on SIGINT or SIGTERM.
func setupSignalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("shutting down")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

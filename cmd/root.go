package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/moodhome/moodhome/internal/config"
	"github.com/moodhome/moodhome/internal/store"
)

// annotationStore marks commands that need the identity and profile store.
const annotationStore = "store"

var (
	// Cfg is the resolved configuration shared by subcommands
	Cfg *config.Config
	// DB is the global store connection, opened only for commands that need it
	DB store.Store
	// Logger is the process logger
	Logger *slog.Logger

	flagBroker      string
	flagPrefix      string
	flagStore       string
	flagLogLevel    string
	flagLogFormat   string
	flagMetricsAddr string
)

var rootCmd = &cobra.Command{
	Use:     "moodhome",
	Short:   "Smart home mood pipeline: face camera simulator, face resolver and mood aggregator",
	Version: config.Version, // This enables the --version flag
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		applyFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		Cfg = cfg

		Logger = config.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat, "moodhome-"+cmd.Name())
		slog.SetDefault(Logger)

		if _, ok := cmd.Annotations[annotationStore]; !ok {
			return nil
		}
		// Missing store configuration is fatal before anything subscribes.
		if err := cfg.RequireStore(); err != nil {
			return err
		}
		// Use the command's context (which will be cancellable) for the connection
		DB, err = store.Open(cmd.Context(), cfg.StoreOptions())
		if err != nil {
			return fmt.Errorf("failed to connect to store %s: %w", store.Redact(cfg.StoreURL), err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if DB != nil {
			// Use Background here because the main context might be cancelled already (due to Ctrl+C)
			// and we still need to close the connection.
			if err := DB.Close(context.Background()); err != nil && Logger != nil {
				Logger.Warn("failed to close store", "error", err)
			}
		}
	},
}

// applyFlags lets explicitly set persistent flags override the environment.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("broker") {
		cfg.BrokerURL = flagBroker
	}
	if flags.Changed("prefix") {
		cfg.TopicPrefix = flagPrefix
	}
	if flags.Changed("store") {
		cfg.StoreURL = flagStore
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = flagLogFormat
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = flagMetricsAddr
	}
}

func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// This tells Cobra not to print the version in the help text, which is cleaner.
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagBroker, "broker", "", "MQTT broker URL (env BROKER_URL, default tcp://localhost:1883)")
	pf.StringVar(&flagPrefix, "prefix", "", "Topic prefix (env TOPIC_PREFIX, default homeA)")
	pf.StringVar(&flagStore, "store", "", "Store URL, postgres:// or mongodb:// (env STORE_URL or MONGO_URL)")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (env LOG_LEVEL)")
	pf.StringVar(&flagLogFormat, "log-format", "", "Log format: text or json (env LOG_FORMAT)")
	pf.StringVar(&flagMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9100 (env METRICS_ADDR)")
}

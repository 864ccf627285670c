package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chinmay1088/mempool/api"
	"github.com/chinmay1088/mempool/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

const programName = "mempool"

var (
	version = "0.1.0"
)

var (
	globalFlags = struct {
		debug       bool
		jsonOutput  bool
		network     string
		baseURL     string
		timeout     time.Duration
		retries     int
		trace       bool
		metricsAddr string
	}{}
	configFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   programName,
	Short: "Query a mempool.space compatible Bitcoin explorer",
	Long: `mempool is a command-line client for the mempool.space REST API and
self-hosted instances of it. It reads fee estimates, blocks, transactions
and address histories, broadcasts raw transactions and scans BIP84 wallets
for activity.

Examples:
  mempool fees                          # Recommended fee rates
  mempool tip                           # Current chain tip
  mempool tx <txid>                     # Transaction details
  mempool address bc1q...               # Address balance and history
  mempool broadcast - < signed.hex      # Broadcast a raw transaction
  mempool scan --xpub zpub... --csv     # Scan a wallet and export it
  mempool --network signet fees         # Use the public signet instance`,
	SilenceUsage:      true,
	PersistentPreRunE: loadRuntime,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Interrupts cancel the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	// flush spans and stop the metrics listener even when the command failed
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Join(err, closeRuntime(shutdownCtx))
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "path to config file (default ~/.mempool/mempool.yaml)")
	rootCmd.PersistentFlags().
		BoolVar(&globalFlags.jsonOutput, "json", false, "print results as JSON")
	rootCmd.PersistentFlags().
		StringVarP(&globalFlags.network, "network", "n", "", "network: mainnet, testnet, testnet4, signet or regtest")
	rootCmd.PersistentFlags().
		StringVar(&globalFlags.baseURL, "url", "", "API base URL, overrides the network default")
	rootCmd.PersistentFlags().
		DurationVar(&globalFlags.timeout, "timeout", 0, "per-request timeout")
	rootCmd.PersistentFlags().
		IntVar(&globalFlags.retries, "retries", 0, "retries for failed requests")
	rootCmd.PersistentFlags().
		BoolVar(&globalFlags.trace, "trace", false, "record a span for every request")
	rootCmd.PersistentFlags().
		StringVar(&globalFlags.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while running")

	// Add subcommands
	rootCmd.AddCommand(feesCmd)
	rootCmd.AddCommand(mempoolCmd)
	rootCmd.AddCommand(tipCmd)
	rootCmd.AddCommand(blockCmd)
	rootCmd.AddCommand(blocksCmd)
	rootCmd.AddCommand(txCmd)
	rootCmd.AddCommand(txStatusCmd)
	rootCmd.AddCommand(outspendsCmd)
	rootCmd.AddCommand(broadcastCmd)
	rootCmd.AddCommand(addressCmd)
	rootCmd.AddCommand(utxoCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(networkCmd)
	rootCmd.AddCommand(versionCmd)
}

func slogPrintf(format string, v ...any) {
	slog.Debug(fmt.Sprintf(format, v...),
		"component", programName,
	)
}

func setupLogging() {
	logLevel := slog.LevelInfo
	addSource := false
	if globalFlags.debug {
		logLevel = slog.LevelDebug
		addSource = true
	}
	logger := slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			AddSource: addSource,
			Level:     logLevel,
		}),
	)
	slog.SetDefault(logger)
}

// loadRuntime configures logging, loads the config and builds the shared client
func loadRuntime(cmd *cobra.Command, args []string) error {
	setupLogging()
	if _, err := maxprocs.Set(maxprocs.Logger(slogPrintf)); err != nil {
		slog.Warn("failed to set GOMAXPROCS", "error", err)
	}
	if cmd == versionCmd {
		return nil
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command line flags
	flags := cmd.Flags()
	if flags.Changed("network") {
		cfg.Network = globalFlags.network
		// a network switch drops a base URL that came from the config file
		if !flags.Changed("url") {
			cfg.BaseURL = ""
		}
	}
	if flags.Changed("url") {
		cfg.BaseURL = globalFlags.baseURL
	}
	if flags.Changed("timeout") {
		cfg.Timeout = globalFlags.timeout
	}
	if flags.Changed("retries") {
		cfg.Retries = globalFlags.retries
	}
	if flags.Changed("trace") {
		cfg.Trace = globalFlags.trace
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = globalFlags.metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	cmd.SetContext(config.WithContext(cmd.Context(), cfg))
	return openRuntime(cmd.Context(), cfg)
}

// commandClient returns the client built for the running command
func commandClient(cmd *cobra.Command) (*api.Client, *config.Config, error) {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil || state.client == nil {
		return nil, nil, errors.New("no client configured")
	}
	return state.client, cfg, nil
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mempool v%s\n", version)
	},
}

package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"bookchain/internal/chain"
	"bookchain/internal/config"
	"bookchain/internal/logging"

	"github.com/spf13/cobra"
)

var (
	globalConfig *config.Config
	logger       = logging.Discard()
	closeLog     = func() error { return nil }

	metricsServer *http.Server

	// Persistent flag values
	rpcURL      string
	logLevel    string
	metricsAddr string
)

var rootCmd = &cobra.Command{
	Use:   "bookchain",
	Short: "bookchain - book on-chain spaces from the terminal",
	Long: `bookchain is a command-line client for the membership, listing and booking contracts.
It buys memberships, browses active listings, books a listing for a UTC day and tracks your bookings.`,
	Version:            "0.1.0",
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// Execute runs the root command. Interrupts cancel the command context.
func Execute(cfg *config.Config) error {
	globalConfig = cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// setup applies flag overrides, configures logging and starts the metrics endpoint
func setup(cmd *cobra.Command, args []string) error {
	if globalConfig == nil {
		globalConfig = config.Default()
	}
	if rpcURL != "" {
		globalConfig.RPCURL = rpcURL
	}
	if logLevel != "" {
		globalConfig.LogLevel = logLevel
	}

	logFile := globalConfig.LogFile
	if logFile == "" && cmd.Name() == "ui" {
		// the TUI owns the terminal
		dir, err := config.GetGlobalConfigDir()
		if err != nil {
			return err
		}
		logFile = filepath.Join(dir, "bookchain.log")
	}

	log, closeFn, err := logging.New(logging.Config{
		Level:  globalConfig.LogLevel,
		Format: globalConfig.LogFormat,
		File:   logFile,
	})
	if err != nil {
		return err
	}
	logger = log
	closeLog = closeFn

	if metricsAddr != "" {
		startMetricsServer(metricsAddr)
	}

	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("error stopping metrics server")
		}
	}
	return closeLog()
}

func startMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", chain.MetricsHandler())

	metricsServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.WithField("addr", addr).Info("serving metrics")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("metrics server failed")
		}
	}()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rpcURL, "rpc", "", "JSON-RPC endpoint (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")

	// Add all commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(walletCmd)
	rootCmd.AddCommand(membershipCmd)
	rootCmd.AddCommand(listingsCmd)
	rootCmd.AddCommand(bookCmd)
	rootCmd.AddCommand(bookingsCmd)
	rootCmd.AddCommand(accessCmd)
	rootCmd.AddCommand(uiCmd)
}

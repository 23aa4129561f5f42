// Package cli provides the command-line interface for kwforge.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/keywordforge/kwforge/internal/config"
	"github.com/keywordforge/kwforge/internal/logging"
	"github.com/keywordforge/kwforge/internal/pathutil"
	"github.com/keywordforge/kwforge/internal/version"
)

var (
	// Global flags
	cfgFile     string
	apiKey      string
	platformURL string
	projectID   string
	verbose     bool
	debug       bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "kwforge",
		Short: "KeywordForge CSV uploader and processing monitor",
		Long: `kwforge ` + version.Version + ` - Built: ` + version.BuildTime + `
Companion CLI for the KeywordForge dashboard.

Uploads keyword CSV exports to a dashboard project in resumable chunks
and tracks the server-side processing pipeline (upload, combine, queue,
import, persist, group) until the data is live.

Common usage:
  kwforge upload exports/*.csv --project 42
  kwforge status --project 42 --watch`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefaultLogger()
			if verbose || debug {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "KeywordForge API key (overrides config and environment)")
	rootCmd.PersistentFlags().StringVar(&platformURL, "platform-url", "", "Dashboard base URL (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&projectID, "project", "p", "", "Dashboard project ID")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output (same as --verbose)")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	return rootCmd
}

// Execute runs the CLI with a signal-cancelled root context.
func Execute() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived signal %v, cancelling...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.Execute()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newUploadCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newResetCmd())
	rootCmd.AddCommand(newConfigCmd())
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return logger
}

// GetContext returns the global CLI context. It is cancelled when the
// user presses Ctrl+C.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}

// loadConfig loads configuration from file and environment and applies
// command-line flag overrides. Flags win over everything else.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path != "" {
		var err error
		path, err = pathutil.Resolve(path)
		if err != nil {
			return nil, fmt.Errorf("bad config path %q: %w", cfgFile, err)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	if platformURL != "" {
		cfg.PlatformURL = platformURL
	}
	if projectID != "" {
		cfg.ProjectID = projectID
	}

	return cfg, nil
}

// requireProject validates the merged config and ensures a project ID
// is present, from flag or config.
func requireProject(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.ProjectID == "" {
		return config.ErrMissingProjectID
	}
	return nil
}

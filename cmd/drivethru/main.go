package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"drivethru/internal/config"
	"drivethru/internal/menu"
)

var (
	// Global flags
	configPath string
	menuPath   string
	verbose    bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "drivethru",
	Short: "drivethru - conversational drive-thru ordering agent",
	Long: `drivethru is a voice-style ordering agent for a fast-food drive-thru.

It grounds an LLM backend in the restaurant's menu: every customer turn is
fuzzy-matched against the catalog and the relevant items are injected into
the conversation, so the agent only ever offers what the kitchen can make.
Order changes go through a tool surface backed by a per-session ledger.

Run without arguments to start an interactive ordering session.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "drivethru.yaml", "path to the configuration file")
	rootCmd.PersistentFlags().StringVarP(&menuPath, "menu", "m", "", "path to the menu catalog (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(ordersCmd)
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if menuPath != "" {
		cfg.Menu.Path = menuPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadCatalog loads and validates the menu named by the config.
func loadCatalog(cfg *config.Config) (*menu.Menu, error) {
	m, err := menu.Load(cfg.Menu.Path)
	if err != nil {
		return nil, err
	}
	logger.Info("menu loaded",
		zap.String("path", cfg.Menu.Path),
		zap.Int("items", m.ItemCount()),
		zap.Strings("categories", m.Categories()))
	return m, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

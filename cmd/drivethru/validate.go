package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"drivethru/internal/menu"
)

var watchMenu bool

var validateCmd = &cobra.Command{
	Use:   "validate [menu.json]",
	Short: "Validate the menu catalog",
	Long: `Loads the menu file and reports whether it parses and validates.
The path defaults to the configured menu. With --watch, stays running and
re-validates on every change to the file, which is handy while editing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVarP(&watchMenu, "watch", "w", false, "re-validate whenever the menu file changes")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := cfg.Menu.Path
	if len(args) > 0 {
		path = args[0]
	}

	report := func(m *menu.Menu, err error) {
		if err != nil {
			fmt.Printf("INVALID: %v\n", err)
			return
		}
		fmt.Printf("OK: %d items in %d categories\n", m.ItemCount(), len(m.Categories()))
		for _, cat := range m.Categories() {
			fmt.Printf("  %s: %d items\n", cat, len(m.Category(cat)))
		}
	}

	m, err := menu.Load(path)
	report(m, err)
	if !watchMenu {
		return err
	}

	watcher, werr := menu.NewWatcher(path, report)
	if werr != nil {
		return werr
	}
	if werr := watcher.Start(); werr != nil {
		return werr
	}
	defer watcher.Stop()

	logger.Info("watching menu for changes", zap.String("path", path))
	fmt.Println("Watching for changes. Ctrl-C to stop.")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	return nil
}

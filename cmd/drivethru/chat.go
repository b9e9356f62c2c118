package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"drivethru/internal/llm"
	"drivethru/internal/session"
	"drivethru/internal/store"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive ordering session",
	Long: `Starts a drive-thru session on stdin/stdout. Each line you type is one
customer turn; the agent replies and updates the order through its tools.
Type 'quit' or press Ctrl-D to leave the window.`,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("no API key configured: set llm.api_key or DRIVETHRU_API_KEY")
	}

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	archive, err := store.OpenArchive(cfg.Orders.DatabasePath, logger)
	if err != nil {
		return err
	}
	defer archive.Close()

	backend := llm.NewOpenAIClientWithConfig(llm.OpenAIConfig{
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: cfg.GetLLMTimeout(),
	})

	manager := session.NewManager(cfg, catalog, backend, archive, logger)
	defer manager.Close()

	sess, err := manager.NewSession()
	if err != nil {
		return err
	}
	defer manager.EndSession(sess.ID())

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("Session %s. Drive up and order!\n\n", sess.ID())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		reply, err := sess.HandleTurn(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			fmt.Printf("[error] %v\n", err)
			continue
		}
		fmt.Println(reply)
	}

	fmt.Println("\nThanks for coming through!")
	return scanner.Err()
}

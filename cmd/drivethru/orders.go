package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"drivethru/internal/order"
	"drivethru/internal/store"
)

var ordersLimit int

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Inspect archived orders",
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived orders, newest first",
	RunE:  runOrdersList,
}

var ordersShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Show one archived order in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrdersShow,
}

func init() {
	ordersListCmd.Flags().IntVarP(&ordersLimit, "limit", "n", 20, "maximum orders to list")
	ordersCmd.AddCommand(ordersListCmd)
	ordersCmd.AddCommand(ordersShowCmd)
}

func openArchive() (*store.Archive, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return store.OpenArchive(cfg.Orders.DatabasePath, logger)
}

func runOrdersList(cmd *cobra.Command, args []string) error {
	archive, err := openArchive()
	if err != nil {
		return err
	}
	defer archive.Close()

	records, err := archive.List(ordersLimit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no archived orders")
		return nil
	}

	for _, rec := range records {
		fmt.Printf("%s  %s  %d items\n",
			rec.CompletedAt.Local().Format("2006-01-02 15:04:05"),
			rec.SessionID, rec.TotalUnits())
	}
	return nil
}

func runOrdersShow(cmd *cobra.Command, args []string) error {
	archive, err := openArchive()
	if err != nil {
		return err
	}
	defer archive.Close()

	rec, err := archive.Get(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Session:   %s\n", rec.SessionID)
	fmt.Printf("Completed: %s\n", rec.CompletedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("Items:     %d\n\n", rec.TotalUnits())
	for _, it := range rec.Items {
		printRecordItem(it)
	}
	return nil
}

func printRecordItem(it order.RecordItem) {
	fmt.Printf("  %dx %s (%s)", it.Quantity, it.ItemName, it.Category)
	if len(it.Modifiers) > 0 {
		fmt.Printf(" - %s", strings.Join(it.Modifiers, ", "))
	}
	fmt.Println()
}

package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/rl1809/stock-tracker/internal/adapter/storage"
	"github.com/rl1809/stock-tracker/internal/core/service"
	"github.com/rl1809/stock-tracker/internal/logger"
)

func main() {
	log, err := logger.New(os.Stdout, "info", logger.FormatConsole)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(context.Background(), service.NewInventoryService(storage.NewFileAdapter(""), log, os.Stdout)); err != nil {
		log.Error("inventory run failed", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, inventory *service.InventoryService) error {
	inventory.AddItem("apple", 10, nil)
	inventory.AddItem("banana", 8, nil)
	inventory.AddItem("oranges", 4, nil)

	inventory.RemoveItem("apple", 3)
	// "orange" is not "oranges": this logs a warning and changes nothing.
	inventory.RemoveItem("orange", 1)

	fmt.Println("Apple stock:", inventory.GetQuantity("apple"))
	fmt.Println("Low items:", inventory.CheckLowItems(service.DefaultLowThreshold))

	if err := inventory.SaveData(ctx, service.DefaultDataFile); err != nil {
		return err
	}
	if err := inventory.LoadData(ctx, service.DefaultDataFile); err != nil {
		return err
	}
	inventory.PrintData()

	fmt.Println("Inventory run finished.")
	return nil
}

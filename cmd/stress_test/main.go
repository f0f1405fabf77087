package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/rl1809/stock-tracker/internal/adapter/handler"
)

const (
	defaultTarget = "localhost:50051"
	initialStock  = 20
	totalRequests = 50
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	target := os.Getenv("GRPC_TARGET")
	if target == "" {
		target = defaultTarget
	}

	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("failed to connect %s: %v", target, err)
	}
	defer conn.Close()

	client := handler.NewInventoryClient(conn)
	itemID := "stress-" + uuid.NewString()

	// Stock the item one unit per request
	var wg sync.WaitGroup
	for i := 0; i < initialStock; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.AddItem(ctx, &handler.AddItemRequest{Item: itemID, Quantity: 1}); err != nil {
				log.Printf("add failed: %v", err)
			}
		}()
	}
	wg.Wait()

	stocked, err := client.GetQuantity(ctx, &handler.GetQuantityRequest{Item: itemID})
	if err != nil {
		log.Fatalf("failed to read stock: %v", err)
	}

	// Counters
	var successCount atomic.Int32
	var notFoundCount atomic.Int32
	var errorCount atomic.Int32

	// Spawn concurrent removals
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := client.RemoveItem(ctx, &handler.RemoveItemRequest{Item: itemID, Quantity: 1})
			switch status.Code(err) {
			case codes.OK:
				successCount.Add(1)
			case codes.NotFound:
				notFoundCount.Add(1)
			default:
				errorCount.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Results
	success := successCount.Load()
	notFound := notFoundCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Item:             %s\n", itemID)
	fmt.Printf("Initial Stock:    %d\n", stocked.Quantity)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Not In Stock:     %d\n", notFound)
	fmt.Printf("Errors:           %d\n", errorCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	// Assertions
	if stocked.Quantity == initialStock && success == int32(initialStock) && notFound == int32(totalRequests-initialStock) {
		fmt.Printf("PASS: Exactly %d removals succeeded, %d found nothing\n", initialStock, totalRequests-initialStock)
	} else {
		fmt.Printf("FAIL: Expected %d success/%d not found, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, notFound)
	}

	final, err := client.GetQuantity(ctx, &handler.GetQuantityRequest{Item: itemID})
	if err != nil {
		log.Fatalf("failed to read final stock: %v", err)
	}
	fmt.Printf("Final Stock: %d\n", final.Quantity)

	if final.Quantity == 0 {
		fmt.Println("PASS: Stock depleted to 0")
	} else {
		fmt.Printf("FAIL: Expected stock 0, got %d\n", final.Quantity)
	}
}

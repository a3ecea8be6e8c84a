package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/exousia/storefront/internal/config"
	"github.com/exousia/storefront/internal/paystack"
	"github.com/exousia/storefront/internal/pricing"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/verify-payment/main.go <reference>")
		fmt.Println("Example: go run cmd/verify-payment/main.go \"exousia_1700000000000_3f9a1c2b7d\"")
		os.Exit(1)
	}

	reference := os.Args[1]

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Create Paystack client
	client := paystack.NewClient(cfg.Paystack, logger)

	fmt.Printf("🔍 Looking up reference: %s\n\n", reference)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.VerifyTransaction(ctx, reference)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to verify transaction: %v\n", err)
		os.Exit(1)
	}

	md := resp.Data.ParseMetadata()
	fmt.Printf("Status:    %s\n", resp.Data.Status)
	fmt.Printf("Amount:    %s %s\n", pricing.FromMinorUnits(resp.Data.Amount).StringFixed(2), resp.Data.Currency)
	fmt.Printf("Customer:  %s\n", resp.Data.Customer.Email)
	fmt.Printf("Order ID:  %s\n", md.OrderID)
	if md.UserID != "" {
		fmt.Printf("User ID:   %s\n", md.UserID)
	} else {
		fmt.Printf("User ID:   (guest)\n")
	}
	if resp.Data.PaidAt != "" {
		fmt.Printf("Paid at:   %s\n", resp.Data.PaidAt)
	}
	if resp.Data.GatewayResponse != "" {
		fmt.Printf("Gateway:   %s\n", resp.Data.GatewayResponse)
	}

	if len(os.Args) > 2 && os.Args[2] == "--json" {
		out, _ := json.MarshalIndent(resp.Data, "", "  ")
		fmt.Printf("\n%s\n", out)
	}
}

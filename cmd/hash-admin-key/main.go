package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/hash-admin-key/main.go <api-key>")
		fmt.Println("Example: go run cmd/hash-admin-key/main.go \"ops-key-12345\"")
		os.Exit(1)
	}

	apiKey := os.Args[1]
	if len(apiKey) < 12 {
		fmt.Fprintln(os.Stderr, "API key must be at least 12 characters")
		os.Exit(1)
	}

	// Hash the API key
	apiKeyHash, err := bcrypt.GenerateFromPassword([]byte(apiKey), 10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash API key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Admin key hashed successfully!\n\n")
	fmt.Printf("Add this line to your .env:\n")
	fmt.Printf("ADMIN_API_KEY_HASH=%s\n", apiKeyHash)
	fmt.Printf("\n⚠️  IMPORTANT: Save the plain key securely! Only the hash is stored.\n")
	fmt.Printf("\nSend it on admin requests in the header:\n")
	fmt.Printf("X-Admin-Key: %s\n", apiKey)
}

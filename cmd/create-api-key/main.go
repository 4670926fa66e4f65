package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jafarshop/dropshipapi/internal/config"
	"github.com/jafarshop/dropshipapi/internal/domain"
	"github.com/jafarshop/dropshipapi/internal/repository/postgres"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run cmd/create-api-key/main.go <key-name> <api-key> [permissions]")
		fmt.Println("Example: go run cmd/create-api-key/main.go \"ops-dashboard\" \"ops-key-12345\" \"suppliers,orders\"")
		fmt.Println("Permissions default to \"*\" (full access) when omitted.")
		os.Exit(1)
	}

	keyName := os.Args[1]
	apiKey := os.Args[2]

	permissions := []string{"*"}
	if len(os.Args) > 3 {
		permissions = strings.Split(os.Args[3], ",")
		for i := range permissions {
			permissions[i] = strings.TrimSpace(permissions[i])
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// Hash the API key
	keyHash, err := bcrypt.GenerateFromPassword([]byte(apiKey), 10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash API key: %v\n", err)
		os.Exit(1)
	}

	// Create repositories
	repos := postgres.NewRepositories(db, logger)

	key := &domain.APIKey{
		Name:        keyName,
		KeyHash:     string(keyHash),
		Permissions: permissions,
		IsActive:    true,
	}

	if err := repos.APIKey.Create(context.Background(), key); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create API key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ API key created successfully!\n\n")
	fmt.Printf("Key ID: %s\n", key.ID.String())
	fmt.Printf("Key Name: %s\n", key.Name)
	fmt.Printf("Permissions: %s\n", strings.Join(permissions, ", "))
	fmt.Printf("API Key: %s\n", apiKey)
	fmt.Printf("\n⚠️  IMPORTANT: Save this API key securely! You won't be able to see it again.\n")
	fmt.Printf("\nUse this API key in the Authorization header:\n")
	fmt.Printf("Authorization: Bearer %s\n", apiKey)
}

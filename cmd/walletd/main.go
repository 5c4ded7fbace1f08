package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/simaogato/healthaid-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/healthaid-backend/internal/domain"
	"github.com/simaogato/healthaid-backend/internal/usecase/bootstrap"
)

// walletd provisions the durable state of one wallet instance: it connects
// to postgres, ensures the schema, and runs the one-time account
// initialization for the configured owner. There is no network surface;
// mutating calls reach the usecases through the host environment.
func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Skipping .env: %v", err)
	}

	// 1. Setup Database
	dbConnStr := os.Getenv("DB_CONN_STR")
	if dbConnStr == "" {
		// If explicit string is missing, build it from individual vars (Docker friendly)
		host := getenv("DB_HOST", "localhost")
		port := getenv("DB_PORT", "5432")
		user := getenv("DB_USER", "postgres")
		password := getenv("DB_PASSWORD", "postgres")
		dbname := getenv("DB_NAME", "healthaid")

		dbConnStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			host, port, user, password, dbname)
	}

	db, err := postgres.NewDB(dbConnStr)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	// 2. Initialize the account record (idempotent)
	params := bootstrap.Params{
		Owner:       requireAddr("OWNER_ADDRESS"),
		Address:     requireAddr("WALLET_ADDRESS"),
		RegistryRef: requireAddr("REGISTRY_ADDRESS"),
		AssetRef:    requireAddr("ASSET_ADDRESS"),
		VaultRef:    requireAddr("VAULT_ADDRESS"),
		OracleRef:   requireAddr("ORACLE_ADDRESS"),
		SwapRef:     requireAddr("SWAP_ADDRESS"),
	}

	accountRepo := postgres.NewAccountRepository(db)
	initializer := bootstrap.NewInitializer(accountRepo)

	account, err := initializer.Initialize(ctx, params)
	if err != nil {
		log.Fatalf("Failed to initialize account: %v", err)
	}

	log.Printf("Wallet instance %s ready for owner %s (available=%s invested=%s)",
		account.ID, account.Owner, account.AvailableBalance, account.InvestedAmount)
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func requireAddr(key string) domain.Address {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("Missing required environment variable %s", key)
	}
	return domain.Address(value)
}

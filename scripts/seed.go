package main

import (
	"context"
	"farmtrace/auth"
	"farmtrace/config"
	"farmtrace/db"
	"farmtrace/models"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	cfg := config.Load()
	cfg.Validate()

	// Open the snapshot store (an empty file gains the reference batches)
	store, err := db.Open(cfg.Storage.DataPath, 0)
	if err != nil {
		log.Fatalf("Failed to open snapshot store: %v", err)
	}
	defer store.Close()

	log.Println("🌱 Starting database seeding...")

	if err := seedUsers(store); err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}

	log.Println("✅ Database seeding completed successfully!")
}

func seedUsers(store *db.FileStore) error {
	ctx := context.Background()

	users := []struct {
		User     models.User
		Password string
	}{
		{
			User: models.User{
				// Matches the FarmerID on the reference batches.
				UserID:    "user-farmer-demo",
				Name:      "Demo Farmer",
				Email:     "farmer@farmtrace.dev",
				Role:      models.RoleFarmer,
				Location:  "Green Valley Farm",
				CreatedAt: time.Now(),
				LastLogin: time.Now(),
			},
			Password: "password",
		},
		{
			User: models.User{
				UserID:    "user-distributor-demo",
				Name:      "Demo Distributor",
				Email:     "distributor@farmtrace.dev",
				Role:      models.RoleDistributor,
				Location:  "Central Logistics Hub",
				CreatedAt: time.Now(),
				LastLogin: time.Now(),
			},
			Password: "password",
		},
		{
			User: models.User{
				UserID:    "user-retailer-demo",
				Name:      "Demo Retailer",
				Email:     "retailer@farmtrace.dev",
				Role:      models.RoleRetailer,
				Location:  "City Fresh Market",
				CreatedAt: time.Now(),
				LastLogin: time.Now(),
			},
			Password: "password",
		},
		{
			User: models.User{
				UserID:    "user-consumer-demo",
				Name:      "Demo Consumer",
				Email:     "consumer@farmtrace.dev",
				Role:      models.RoleConsumer,
				CreatedAt: time.Now(),
				LastLogin: time.Now(),
			},
			Password: "password",
		},
	}

	for _, userData := range users {
		// Create user
		if err := store.CreateUser(ctx, &userData.User); err != nil {
			return fmt.Errorf("failed to create user %s: %w", userData.User.Email, err)
		}

		// Hash and store password
		passwordHash, err := auth.HashPassword(userData.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", userData.User.Email, err)
		}

		if err := store.StorePasswordHash(ctx, userData.User.UserID, passwordHash); err != nil {
			return fmt.Errorf("failed to store password for %s: %w", userData.User.Email, err)
		}

		log.Printf("  ✓ Created user: %s (role: %s)", userData.User.Email, userData.User.Role)
	}

	return nil
}

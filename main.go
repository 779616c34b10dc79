// main.go
// FarmTrace Central API - Production Ready
// Farm-to-table produce tracking with role-gated persona endpoints,
// JWT authentication and a simulated traceability ledger

package main

import (
	"context"
	"farmtrace/auth"
	"farmtrace/chain"
	"farmtrace/classifier"
	"farmtrace/config"
	"farmtrace/db"
	"farmtrace/handlers"
	"farmtrace/middleware"
	"farmtrace/models"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

// Global instances
var (
	cfg                *config.Config
	store              *db.FileStore
	ledger             *chain.Ledger
	jwtManager         *auth.JWTManager
	authHandler        *handlers.AuthHandler
	farmerHandler      *handlers.FarmerHandler
	distributorHandler *handlers.DistributorHandler
	retailerHandler    *handlers.RetailerHandler
	consumerHandler    *handlers.ConsumerHandler
	ledgerHandler      *handlers.LedgerHandler
	alertsHandler      *handlers.AlertsHandler
	exportHandler      *handlers.ExportHandler
	rateLimiter        *middleware.RateLimiter
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	// Load configuration
	cfg = config.Load()
	cfg.Validate()

	log.Printf("🚀 Starting FarmTrace API Server")
	log.Printf("📍 Environment: %s", cfg.Server.Environment)
	log.Printf("🔧 Port: %s", cfg.Server.Port)

	// Open the snapshot store
	var err error
	store, err = db.Open(cfg.Storage.DataPath, cfg.Storage.SimulatedLatency)
	if err != nil {
		log.Fatalf("❌ Failed to open snapshot store: %v", err)
	}
	defer store.Close()
	log.Printf("💾 Snapshot store ready at %s (revision %d)", cfg.Storage.DataPath, store.Revision())

	// Initialize the simulated traceability ledger
	ledger = chain.New(cfg.Server.PublicURL)
	log.Printf("⛓️  Traceability ledger initialized")

	// Initialize JWT Manager
	jwtManager = auth.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.Expiration,
		cfg.JWT.RefreshTokenExpiration,
	)
	log.Printf("🔐 JWT Manager initialized (expiration: %v)", cfg.JWT.Expiration)

	// Initialize handlers
	imageClassifier := classifier.ForConfig(cfg.Classifier.APIKey)
	authHandler = handlers.NewAuthHandler(store, jwtManager)
	farmerHandler = handlers.NewFarmerHandler(store, ledger, imageClassifier)
	distributorHandler = handlers.NewDistributorHandler(store, ledger)
	retailerHandler = handlers.NewRetailerHandler(store, ledger)
	consumerHandler = handlers.NewConsumerHandler(store, ledger)
	ledgerHandler = handlers.NewLedgerHandler(ledger)
	alertsHandler = handlers.NewAlertsHandler(store)
	exportHandler = handlers.NewExportHandler(store)
	log.Printf("✅ Handlers initialized")

	// Initialize rate limiter
	rateLimiter = middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	rateLimiter.CleanupOldLimiters()
	log.Printf("🛡️  Rate limiter initialized (%d requests per %v)", cfg.RateLimit.Requests, cfg.RateLimit.Window)

	// Set up router
	mux := http.NewServeMux()

	// Public routes (no authentication required)
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/refresh", authHandler.RefreshToken)
	mux.HandleFunc("GET /api/ledger/blocks", ledgerHandler.Blocks)
	mux.HandleFunc("GET /api/consumer/products", consumerHandler.ListProducts)
	mux.HandleFunc("GET /api/consumer/products/{id}", consumerHandler.ProductDetail)
	mux.HandleFunc("GET /api/consumer/products/{id}/qr", consumerHandler.QRData)

	// Protected routes (authentication required)
	authMiddleware := middleware.AuthMiddleware(jwtManager, store)
	protected := func(h http.HandlerFunc, roles ...models.Role) http.Handler {
		if len(roles) == 0 {
			return authMiddleware(h)
		}
		return authMiddleware(middleware.RequireRole(roles...)(h))
	}

	mux.Handle("GET /api/me", protected(authHandler.Me))
	mux.Handle("PUT /api/me", protected(authHandler.UpdateProfile))
	mux.Handle("GET /api/alerts", protected(alertsHandler.List))
	mux.Handle("GET /api/audit", protected(handlers.AuditTrail, models.RoleRetailer))

	// Farmer endpoints
	mux.Handle("POST /api/farmer/batches", protected(farmerHandler.CreateBatch, models.RoleFarmer))
	mux.Handle("GET /api/farmer/batches", protected(farmerHandler.MyBatches, models.RoleFarmer))
	mux.Handle("GET /api/farmer/batches/{id}", protected(farmerHandler.BatchDetail, models.RoleFarmer))

	// Distributor endpoints
	mux.Handle("GET /api/distributor/batches/available", protected(distributorHandler.AvailableBatches, models.RoleDistributor))
	mux.Handle("POST /api/distributor/batches/{id}/pickup", protected(distributorHandler.Pickup, models.RoleDistributor))
	mux.Handle("PUT /api/distributor/batches/{id}/status", protected(distributorHandler.UpdateStatus, models.RoleDistributor))

	// Retailer endpoints
	mux.Handle("GET /api/retailer/batches/incoming", protected(retailerHandler.IncomingBatches, models.RoleRetailer))
	mux.Handle("POST /api/retailer/batches/{id}/accept", protected(retailerHandler.AcceptBatch, models.RoleRetailer))
	mux.Handle("PUT /api/retailer/batches/{id}/price", protected(retailerHandler.UpdatePrice, models.RoleRetailer))
	mux.Handle("PUT /api/retailer/batches/{id}/discount", protected(retailerHandler.ApplyDiscount, models.RoleRetailer))
	mux.Handle("GET /api/retailer/analytics", protected(retailerHandler.Analytics, models.RoleRetailer))
	mux.Handle("GET /api/retailer/stock", protected(retailerHandler.StockByCategory, models.RoleRetailer))
	mux.Handle("GET /api/retailer/export", protected(exportHandler.Batches, models.RoleRetailer))

	// Apply global middleware
	handler := middleware.CORSMiddleware(cfg.CORS.AllowedOrigins)(mux)
	handler = rateLimiter.Middleware()(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("✅ Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}

// Health check endpoint
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":%d,"version":"1.0.0"}`, time.Now().Unix())
}

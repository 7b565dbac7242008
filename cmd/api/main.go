package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lotwise-io/lotwisego/internal/allocation"
	"github.com/lotwise-io/lotwisego/internal/config"
	"github.com/lotwise-io/lotwisego/internal/database"
	"github.com/lotwise-io/lotwisego/internal/events"
	"github.com/lotwise-io/lotwisego/internal/handlers"
	"github.com/lotwise-io/lotwisego/internal/models"
	"github.com/lotwise-io/lotwisego/internal/services/erp"
	"github.com/lotwise-io/lotwisego/internal/store"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize database (Detects Embedded vs External automatically)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// Note: db.Close() is called manually in shutdown handler below

	// 3. Auto-Migrate Schema
	log.Println("🚀 Synchronizing database schema...")
	err = db.AutoMigrate(
		&models.UserAuth{},

		// Catalog
		&models.Product{},
		&models.Partner{},
		&models.DeliveryPlace{},
		&models.Warehouse{},

		// Lot tracking
		&models.LotMaster{},
		&models.Lot{},

		// Allocation engine
		&models.Reservation{},
		&models.ForecastDemand{},
		&models.AllocationSuggestion{},
		&models.SuggestionRun{},

		// Sales demand
		&models.SalesOrder{},
		&models.SalesOrderLine{},
	)
	if err != nil {
		log.Printf("⚠️ Migration warning: %v\n", err)
	} else {
		log.Println("✅ Schema synchronized successfully")
	}

	// 4. Event hub for allocation notifications
	hub := events.NewHub()
	go hub.Run()

	// 5. ERP acknowledgement gateway (local-only mode when ERP_URL is unset)
	gateway := erp.NewGateway(erp.Config{
		URL:      cfg.ERP.URL,
		Database: cfg.ERP.Database,
		Username: cfg.ERP.Username,
		Password: cfg.ERP.Password,
	})

	// 6. Allocation engine over the GORM store layer
	engineDB := store.New(db.DB)
	engine := handlers.Engine{
		Selector:  allocation.NewSelector(engineDB),
		Confirmer: allocation.NewConfirmer(engineDB, gateway, gateway, hub),
		Suggestor: allocation.NewSuggestor(engineDB),
		LotOps:    allocation.NewLotOps(engineDB),
	}

	// 7. Set up HTTP router
	router := handlers.NewRouter(db, cfg, hub, engine)

	// 8. Start server with graceful shutdown
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		log.Printf("🚀 Server starting on port %s\n", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sig := <-shutdown
	log.Printf("\n⚠️  Received signal: %v. Shutting down gracefully...\n", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// Close database (this also stops embedded PostgreSQL)
	log.Println("🛑 Closing database connection...")
	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}

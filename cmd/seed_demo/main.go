package main

import (
	"fmt"
	"log"
	"time"

	"github.com/lotwise-io/lotwisego/internal/config"
	"github.com/lotwise-io/lotwisego/internal/database"
	"github.com/lotwise-io/lotwisego/internal/models"
)

func main() {
	fmt.Println("🌱 LotWise Demo Data Seeder")
	fmt.Println("=" + string(make([]rune, 60)))

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("✅ Connected to database")
	fmt.Println()

	// Run migrations first
	fmt.Println("🔨 Running database migrations...")
	err = db.AutoMigrate(
		&models.Product{},
		&models.Partner{},
		&models.DeliveryPlace{},
		&models.Warehouse{},
		&models.LotMaster{},
		&models.Lot{},
		&models.Reservation{},
		&models.ForecastDemand{},
		&models.AllocationSuggestion{},
		&models.SuggestionRun{},
		&models.SalesOrder{},
		&models.SalesOrderLine{},
	)
	if err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	fmt.Println("✅ Migrations complete")
	fmt.Println()

	// Check if data already exists
	var productCount int64
	db.Model(&models.Product{}).Count(&productCount)
	if productCount > 0 {
		fmt.Printf("⚠️  Database already has %d products. Clear it first? (y/N): ", productCount)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("❌ Aborted. Database not modified.")
			return
		}

		// Clear existing data
		fmt.Println("🗑️  Clearing existing data...")
		db.Exec("TRUNCATE TABLE allocation_suggestions CASCADE")
		db.Exec("TRUNCATE TABLE suggestion_runs CASCADE")
		db.Exec("TRUNCATE TABLE forecast_demands CASCADE")
		db.Exec("TRUNCATE TABLE reservations CASCADE")
		db.Exec("TRUNCATE TABLE sales_order_lines CASCADE")
		db.Exec("TRUNCATE TABLE sales_orders CASCADE")
		db.Exec("TRUNCATE TABLE lots CASCADE")
		db.Exec("TRUNCATE TABLE lot_masters CASCADE")
		db.Exec("TRUNCATE TABLE delivery_places CASCADE")
		db.Exec("TRUNCATE TABLE partners CASCADE")
		db.Exec("TRUNCATE TABLE warehouses CASCADE")
		db.Exec("TRUNCATE TABLE products CASCADE")
		fmt.Println("✅ Data cleared")
	}

	fmt.Println()
	fmt.Println("📦 Creating demo data...")
	fmt.Println()

	// 1. Create Warehouses
	fmt.Println("🏭 Creating warehouses...")
	warehouses := []models.Warehouse{
		{ID: 1, Name: "Main Cold Store", Location: "Hamburg", IsActive: true},
		{ID: 2, Name: "Overflow Depot", Location: "Bremen", IsActive: true},
	}
	for _, wh := range warehouses {
		if err := db.Create(&wh).Error; err != nil {
			log.Printf("⚠️  Failed to create warehouse %s: %v", wh.Name, err)
		} else {
			fmt.Printf("   ✓ Created warehouse: %s (%s)\n", wh.Name, wh.Location)
		}
	}
	fmt.Printf("✅ Created %d warehouses\n\n", len(warehouses))

	// 2. Create Products
	fmt.Println("📦 Creating products...")
	products := []models.Product{
		{ID: 1, SKU: "APL-GALA", Barcode: "4001234500017", Name: "Gala Apples 10kg Crate", Unit: "crate", ShelfLifeDays: 45, IsActive: true},
		{ID: 2, SKU: "BER-STRAW", Barcode: "4001234500123", Name: "Strawberries 500g Punnet", Unit: "pcs", ShelfLifeDays: 5, IsActive: true},
		{ID: 3, SKU: "CHE-GOUDA", Barcode: "4001234500246", Name: "Gouda Wheel 4.5kg", Unit: "pcs", ShelfLifeDays: 90, IsActive: true},
		{ID: 4, SKU: "MLK-UHT-1L", Barcode: "4001234500369", Name: "UHT Milk 1L", Unit: "pcs", ShelfLifeDays: 180, IsActive: true},
		{ID: 5, SKU: "JAR-HONEY", Barcode: "4001234500482", Name: "Wildflower Honey 500g", Unit: "pcs", ShelfLifeDays: 0, IsActive: true},
	}
	for _, p := range products {
		if err := db.Create(&p).Error; err != nil {
			log.Printf("⚠️  Failed to create product %s: %v", p.Name, err)
		} else {
			fmt.Printf("   ✓ Created product: [%s] %s\n", p.SKU, p.Name)
		}
	}
	fmt.Printf("✅ Created %d products\n\n", len(products))

	// 3. Create Partners and delivery places
	fmt.Println("🤝 Creating partners...")
	partners := []models.Partner{
		{ID: 1, Name: "Nordfrucht GmbH", City: "Hamburg", IsSupplier: true},
		{ID: 2, Name: "Molkerei Weser eG", City: "Bremen", IsSupplier: true},
		{ID: 3, Name: "FrischMarkt Kette AG", City: "Hannover", IsCustomer: true},
		{ID: 4, Name: "Hotel Seeblick", City: "Kiel", IsCustomer: true},
	}
	for _, p := range partners {
		if err := db.Create(&p).Error; err != nil {
			log.Printf("⚠️  Failed to create partner %s: %v", p.Name, err)
		} else {
			fmt.Printf("   ✓ Created partner: %s\n", p.Name)
		}
	}

	places := []models.DeliveryPlace{
		{ID: 1, PartnerID: 3, Name: "FrischMarkt Filiale Mitte", City: "Hannover"},
		{ID: 2, PartnerID: 3, Name: "FrischMarkt Filiale Nord", City: "Hannover"},
		{ID: 3, PartnerID: 4, Name: "Hotel Seeblick Küche", City: "Kiel"},
	}
	for _, dp := range places {
		if err := db.Create(&dp).Error; err != nil {
			log.Printf("⚠️  Failed to create delivery place %s: %v", dp.Name, err)
		} else {
			fmt.Printf("   ✓ Created delivery place: %s\n", dp.Name)
		}
	}
	fmt.Printf("✅ Created %d partners, %d delivery places\n\n", len(partners), len(places))

	// 4. Create Lots
	fmt.Println("🏷️  Creating lots...")
	now := time.Now()
	supplier1, supplier2 := uint(1), uint(2)

	masters := []models.LotMaster{
		{ID: 1, LotNumber: "APL-2608-A", ProductID: 1},
		{ID: 2, LotNumber: "APL-2609-B", ProductID: 1},
		{ID: 3, LotNumber: "STR-2608-01", ProductID: 2},
		{ID: 4, LotNumber: "GOU-2607-11", ProductID: 3},
		{ID: 5, LotNumber: "MLK-2606-42", ProductID: 4},
		{ID: 6, LotNumber: "HON-2605-07", ProductID: 5},
	}
	for _, m := range masters {
		if err := db.Create(&m).Error; err != nil {
			log.Printf("⚠️  Failed to create lot master %s: %v", m.LotNumber, err)
		}
	}

	lots := []models.Lot{
		// Apples: two generations under separate masters, FEFO-relevant
		{ID: 1, LotMasterID: 1, ProductID: 1, WarehouseID: 1, SupplierID: &supplier1,
			ReceivedQty: 120, Status: models.LotStatusActive, Origin: models.LotOriginOrder,
			ExpiryDate: datePtr(now.AddDate(0, 0, 12)), ReceivedDate: now.AddDate(0, 0, -20)},
		{ID: 2, LotMasterID: 2, ProductID: 1, WarehouseID: 1, SupplierID: &supplier1,
			ReceivedQty: 200, Status: models.LotStatusActive, Origin: models.LotOriginOrder,
			ExpiryDate: datePtr(now.AddDate(0, 0, 35)), ReceivedDate: now.AddDate(0, 0, -5)},
		// Same business lot split over two warehouses
		{ID: 3, LotMasterID: 2, ProductID: 1, WarehouseID: 2, SupplierID: &supplier1,
			ReceivedQty: 80, Status: models.LotStatusActive, Origin: models.LotOriginOrder,
			ExpiryDate: datePtr(now.AddDate(0, 0, 35)), ReceivedDate: now.AddDate(0, 0, -5)},
		// Strawberries: short shelf life, partially consumed, 10 locked for QA
		{ID: 4, LotMasterID: 3, ProductID: 2, WarehouseID: 1, SupplierID: &supplier1,
			ReceivedQty: 300, ConsumedQty: 120, LockedQty: 10,
			Status: models.LotStatusActive, Origin: models.LotOriginOrder,
			ExpiryDate: datePtr(now.AddDate(0, 0, 3)), ReceivedDate: now.AddDate(0, 0, -2)},
		// Gouda: supplier sample, excluded from default selection
		{ID: 5, LotMasterID: 4, ProductID: 3, WarehouseID: 1, SupplierID: &supplier2,
			ReceivedQty: 2, Status: models.LotStatusActive, Origin: models.LotOriginSample,
			ExpiryDate: datePtr(now.AddDate(0, 0, 60)), ReceivedDate: now.AddDate(0, 0, -10)},
		// Milk: already expired, still on hand
		{ID: 6, LotMasterID: 5, ProductID: 4, WarehouseID: 2, SupplierID: &supplier2,
			ReceivedQty: 500, Status: models.LotStatusActive, Origin: models.LotOriginOrder,
			ExpiryDate: datePtr(now.AddDate(0, 0, -4)), ReceivedDate: now.AddDate(0, -2, 0)},
		// Honey: no expiry date at all
		{ID: 7, LotMasterID: 6, ProductID: 5, WarehouseID: 1, SupplierID: &supplier1,
			ReceivedQty: 150, Status: models.LotStatusActive, Origin: models.LotOriginAdhoc,
			ReceivedDate: now.AddDate(0, -3, 0)},
	}
	for _, l := range lots {
		if err := db.Create(&l).Error; err != nil {
			log.Printf("⚠️  Failed to create lot %d: %v", l.ID, err)
		} else {
			fmt.Printf("   ✓ Created lot %d (master %d): %.0f on hand\n", l.ID, l.LotMasterID, l.ReceivedQty-l.ConsumedQty)
		}
	}
	fmt.Printf("✅ Created %d lots under %d masters\n\n", len(lots), len(masters))

	// 5. Create a sales order with lines
	fmt.Println("🛒 Creating sales order...")
	order := models.SalesOrder{ID: 1, CustomerID: 3, Status: models.OrderStatusPending, Priority: "high"}
	if err := db.Create(&order).Error; err != nil {
		log.Printf("⚠️  Failed to create sales order: %v", err)
	}
	orderLines := []models.SalesOrderLine{
		{ID: 1, OrderID: 1, ProductID: 1, OrderedQty: 60},
		{ID: 2, OrderID: 1, ProductID: 2, OrderedQty: 100},
	}
	for _, ol := range orderLines {
		if err := db.Create(&ol).Error; err != nil {
			log.Printf("⚠️  Failed to create order line %d: %v", ol.ID, err)
		}
	}
	fmt.Printf("✅ Created order %s with %d lines\n\n", order.OrderNumber, len(orderLines))

	// 6. Create soft reservations against the apple lots
	fmt.Println("🔖 Creating reservations...")
	lot1, lot2 := uint(1), uint(2)
	reservations := []models.Reservation{
		// Order-backed soft hold on the oldest apple lot
		{ID: 1, LotID: &lot1, SourceType: models.SourceOrder, SourceID: 1,
			ReservedQty: 60, Status: models.ReservationActive},
		// Forecast hold competing for the newer lot; preemption candidate
		{ID: 2, LotID: &lot2, SourceType: models.SourceForecast, SourceID: 1,
			ReservedQty: 40, Status: models.ReservationActive},
		// Forecast hold not yet bound to any lot
		{ID: 3, SourceType: models.SourceForecast, SourceID: 2,
			ReservedQty: 25, Status: models.ReservationTemporary},
	}
	for _, r := range reservations {
		if err := db.Create(&r).Error; err != nil {
			log.Printf("⚠️  Failed to create reservation %d: %v", r.ID, err)
		}
	}
	fmt.Printf("✅ Created %d reservations\n\n", len(reservations))

	// 7. Create forecast demand for the suggestion generator
	fmt.Println("📈 Creating forecast demand...")
	period := now.Format("2006-01")
	demands := []models.ForecastDemand{
		{ID: 1, CustomerID: 3, DeliveryPlaceID: 1, ProductID: 1, Period: period,
			DemandDate: now.AddDate(0, 0, 7), Quantity: 90},
		{ID: 2, CustomerID: 3, DeliveryPlaceID: 1, ProductID: 1, Period: period,
			DemandDate: now.AddDate(0, 0, 14), Quantity: 150},
		{ID: 3, CustomerID: 3, DeliveryPlaceID: 2, ProductID: 2, Period: period,
			DemandDate: now.AddDate(0, 0, 2), Quantity: 120},
		{ID: 4, CustomerID: 4, DeliveryPlaceID: 3, ProductID: 5, Period: period,
			DemandDate: now.AddDate(0, 0, 10), Quantity: 30},
	}
	for _, d := range demands {
		if err := db.Create(&d).Error; err != nil {
			log.Printf("⚠️  Failed to create demand %d: %v", d.ID, err)
		}
	}
	fmt.Printf("✅ Created %d demand rows\n\n", len(demands))

	fmt.Println("=" + string(make([]rune, 60)))
	fmt.Println("🎉 Demo data seeded successfully!")
	fmt.Println()
	fmt.Println("Try:")
	fmt.Println("   GET  /api/candidates?product_id=1&policy=FEFO")
	fmt.Println("   POST /api/suggestions/regenerate {customer_id:3, delivery_place_id:1, product_id:1}")
	fmt.Println("   POST /api/reservations/1/confirm")
}

func datePtr(t time.Time) *time.Time {
	d := t.Truncate(24 * time.Hour)
	return &d
}

package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/dinehub/scheduling-engine/config"
	"github.com/dinehub/scheduling-engine/middlewares"
	"github.com/dinehub/scheduling-engine/models"
	"github.com/dinehub/scheduling-engine/repository"
	"github.com/dinehub/scheduling-engine/router"
	"github.com/dinehub/scheduling-engine/services"
	"github.com/dinehub/scheduling-engine/utils"
	"gorm.io/gorm"
)

func init() {
	// Load .env file di awal sebelum apapun
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}

	utils.InitLogger()
}

func main() {
	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	// Rate limiter global (50 request per detik per IP)
	rateLimiter := middlewares.NewRateLimiter(50, 1)

	// Sweep monitor menutup deadline yang lewat tanpa menunggu request
	store := repository.NewStore(db)
	availabilitySvc := services.NewAvailabilityService(store)
	detector := services.NewConflictDetector(availabilitySvc)
	waitlistSvc := services.NewWaitlistService(store, availabilitySvc, detector)
	orderSvc := services.NewOrderService(store, availabilitySvc, detector)

	monitor := services.NewSweepMonitor(orderSvc, waitlistSvc)
	monitor.Start()
	defer monitor.Stop()

	r := router.SetupRouter(db)
	r.Use(rateLimiter.RateLimit())

	r.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	utils.InfoLogger.Printf("Listening on port %s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.Restaurant{},
		&models.OperatingHours{},
		&models.Table{},
		&models.SlotLedger{},
		&models.Reservation{},
		&models.ScheduledOrder{},
		&models.OrderAlternative{},
		&models.WaitlistEntry{},
		&models.NotificationIntent{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}

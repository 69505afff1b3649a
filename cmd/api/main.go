package main

import (
	"context"
	"log"
	"os"

	_ "propertyflow-backend/api/swagger" // swagger docs

	"propertyflow-backend/internal/database"
	"propertyflow-backend/internal/handler"
	"propertyflow-backend/internal/line"
	"propertyflow-backend/internal/middleware"
	"propertyflow-backend/internal/render"
	"propertyflow-backend/internal/repository"
	"propertyflow-backend/internal/service"
	"propertyflow-backend/internal/storage"
	"propertyflow-backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           PropertyFlow API
// @version         1.0
// @description     Property and warehouse rental management: projects, units, tenants, billing, payments, receipts, lease contracts and LINE messaging.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := envOr("DB_HOST", "localhost")
	dbPort := envOr("DB_PORT", "5432")
	dbUser := envOr("DB_USER", "postgres")
	dbPassword := envOr("DB_PASSWORD", "postgres")
	dbName := envOr("DB_NAME", "postgres")
	dbSslMode := envOr("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Object storage (S3 or any S3-compatible endpoint such as MinIO)
	store, err := storage.NewS3Storage(storage.Config{
		Endpoint:  os.Getenv("S3_ENDPOINT"),
		Region:    os.Getenv("S3_REGION"),
		Bucket:    os.Getenv("S3_BUCKET"),
		AccessKey: os.Getenv("S3_ACCESS_KEY"),
		SecretKey: os.Getenv("S3_SECRET_KEY"),
		UseSSL:    os.Getenv("S3_USE_SSL") == "true",
	})
	if err != nil {
		log.Fatalf("Object storage init failed: %v", err)
	}

	// Headless Chrome renderer for invoice/receipt cards
	renderer := render.NewChromeRenderer()
	defer renderer.Close()

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	unitRepo := repository.NewUnitRepository(db)
	tenantRepo := repository.NewTenantRepository(db)
	meterRepo := repository.NewMeterReadingRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	contractRepo := repository.NewContractRepository(db)
	lineRepo := repository.NewLineRepository(db)

	authService := service.NewAuthService(userRepo)
	projectService := service.NewProjectService(projectRepo, store)
	unitService := service.NewUnitService(unitRepo, projectRepo)
	tenantService := service.NewTenantService(tenantRepo, unitRepo)
	meterService := service.NewMeterReadingService(meterRepo, unitRepo)
	invoiceService := service.NewInvoiceService(invoiceRepo, projectRepo, unitRepo, tenantRepo, meterRepo, txManager)
	paymentService := service.NewPaymentService(paymentRepo, invoiceRepo, receiptRepo, projectRepo, txManager, store, wsHub)
	receiptService := service.NewReceiptService(receiptRepo, invoiceRepo, paymentRepo, projectRepo, txManager)
	contractService := service.NewContractService(contractRepo, unitRepo, tenantRepo, store, envOr("PUBLIC_BASE_URL", "http://localhost:8080"))
	dashboardService := service.NewDashboardService(db)
	backfillService := service.NewBackfillService(db)

	// LINE messaging is optional; without credentials the related
	// endpoints report it as not configured.
	var lineService service.LineService
	messenger, err := line.NewClient(os.Getenv("LINE_CHANNEL_SECRET"), os.Getenv("LINE_CHANNEL_TOKEN"))
	if err != nil {
		log.Println("LINE messaging disabled:", err)
	} else {
		lineService = service.NewLineService(messenger, lineRepo, tenantRepo, invoiceRepo, paymentService, renderer, store)
	}

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(authService)
	projectHandler := handler.NewProjectHandler(projectService)
	unitHandler := handler.NewUnitHandler(unitService)
	tenantHandler := handler.NewTenantHandler(tenantService)
	meterHandler := handler.NewMeterReadingHandler(meterService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, lineService, renderer)
	paymentHandler := handler.NewPaymentHandler(paymentService, lineService)
	receiptHandler := handler.NewReceiptHandler(receiptService, renderer)
	contractHandler := handler.NewContractHandler(contractService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	backfillHandler := handler.NewBackfillHandler(backfillService)

	// Daily sweep flipping unpaid invoices past their due date to OVERDUE
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("10 0 * * *", func() {
		count, err := invoiceService.MarkOverdueInvoices(context.Background())
		if err != nil {
			log.Printf("overdue sweep failed: %v", err)
			return
		}
		if count > 0 {
			log.Printf("overdue sweep: %d invoice(s) marked OVERDUE", count)
		}
	}); err != nil {
		log.Fatalf("Failed to schedule overdue sweep: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	authHandler.RegisterRoutes(router.Group(""))
	projectHandler.RegisterRoutes(router.Group(""))
	unitHandler.RegisterRoutes(router.Group(""))
	tenantHandler.RegisterRoutes(router.Group(""))
	meterHandler.RegisterRoutes(router.Group(""))
	invoiceHandler.RegisterRoutes(router.Group(""))
	paymentHandler.RegisterRoutes(router.Group(""))
	receiptHandler.RegisterRoutes(router.Group(""))
	contractHandler.RegisterRoutes(router.Group(""))
	dashboardHandler.RegisterRoutes(router.Group(""))
	backfillHandler.RegisterRoutes(router.Group(""))
	if lineService != nil {
		handler.NewLineHandler(lineService).RegisterRoutes(router.Group(""))
	}

	port := envOr("PORT", "8080")
	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

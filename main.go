// main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/alsayerclinic/clinic-api/config"
	"github.com/alsayerclinic/clinic-api/endpoint"
	"github.com/alsayerclinic/clinic-api/middleware"
	"github.com/alsayerclinic/clinic-api/model"
	"github.com/alsayerclinic/clinic-api/service"
	"github.com/alsayerclinic/clinic-api/util"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load the configuration
	cfg := config.LoadConfig()

	db, err := config.ConnectMySQL()
	if err != nil {
		log.Fatalf("Error connecting to MySQL: %v", err)
	}
	if err := db.AutoMigrate(&model.Patient{}, &model.Payment{}, &model.IntegrationLog{}, &model.DailySummaryLog{}); err != nil {
		log.Fatalf("Error migrating database: %v", err)
	}
	util.SetIntegrationLoggerDB(db)

	// Redis backs the write-endpoint rate limiter; the limiter fails open
	// when it is unavailable.
	if _, err := config.ConnectRedis(); err != nil {
		log.Printf("Redis unavailable, rate limiting disabled: %v", err)
	}

	// Notification fan-out: Telegram chat plus one spreadsheet sync method,
	// resolved once at startup.
	telegram := service.NewTelegramNotifier(cfg)
	sheets, err := service.ResolveSheetsSync(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Error resolving spreadsheet sync: %v", err)
	}
	log.Printf("Spreadsheet sync method: %s", sheets.Method())

	dispatcher := service.NewDispatcher(telegram, sheets)
	dispatcher.Start()
	defer dispatcher.Stop()

	endpoint.SetEventPublisher(dispatcher)
	endpoint.SetSheetsSyncer(sheets)
	endpoint.SetSummaryNotifier(telegram)

	scheduler := service.NewSummaryScheduler(db, telegram, cfg.SummaryHour)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Error starting summary scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Set Gin mode from config
	gin.SetMode(cfg.GinMode)

	// Create a Gin router with default middleware
	router := gin.Default()
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DatabaseMiddleware(db))

	// Basic HTTP handler for root path
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Welcome to %s!", cfg.AppName),
		})
	})

	writeLimiter := middleware.RateLimiter(middleware.RateLimitConfig{})

	router.GET("/api/health", endpoint.Health)
	router.GET("/api/today-summary", endpoint.TodaySummary)

	router.GET("/api/patients", endpoint.ListPatients)
	router.GET("/api/patients/:id", endpoint.GetPatientInfo)
	router.POST("/api/patients", writeLimiter, endpoint.CreatePatient)
	router.PATCH("/api/patients/:id", writeLimiter, endpoint.UpdatePatient)
	router.DELETE("/api/patients/:id", writeLimiter, endpoint.DeletePatient)

	router.GET("/api/patients/:id/payments", endpoint.ListPayments)
	router.POST("/api/patients/:id/payments", writeLimiter, endpoint.CreatePayment)
	router.DELETE("/api/payments/:id", writeLimiter, endpoint.DeletePayment)

	router.POST("/api/sync-to-sheets", writeLimiter, endpoint.SyncToSheets)
	router.POST("/api/send-daily-summary", writeLimiter, endpoint.SendDailySummary)

	// Start server on specified port
	address := fmt.Sprintf(":%d", cfg.AppPort)
	if err := router.Run(address); err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}

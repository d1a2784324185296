package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config holds the application's configuration values.
type Config struct {
	AppName string `json:"appname"`
	AppEnv  string `json:"appenv"`
	AppPort uint16 `json:"appport"`
	GinMode string `json:"ginmode"`
	DBHost  string `json:"dbhost"`
	DBPort  uint16 `json:"dbport"`
	DBName  string `json:"dbname"`
	DBUser  string `json:"dbuser"`
	DBPass  string `json:"dbpass"`

	// Telegram bot credentials; leaving either empty disables chat notifications.
	TelegramBotToken string `json:"telegram_bot_token"`
	TelegramChatID   string `json:"telegram_chat_id"`

	// Google Sheets sync credentials. Exactly one sync method is resolved at
	// startup, by precedence: webhook URL, service-account key, OAuth token.
	SheetsWebhookURL        string `json:"sheets_webhook_url"`
	SheetsServiceAccountKey string `json:"sheets_service_account_key"`
	SheetsOAuthToken        string `json:"sheets_oauth_token"`
	SpreadsheetID           string `json:"spreadsheet_id"`

	// Local hour (0-23) at which the daily summary is sent.
	SummaryHour int `json:"summary_hour"`
}

var config *Config
var once sync.Once

// LoadConfig loads the environment variables from a .env file, and returns a singleton Config instance.
func LoadConfig() *Config {
	once.Do(func() {
		// A missing .env file is fine in test and containerized deployments;
		// the process environment is used as-is.
		if err := godotenv.Load(); err != nil {
			log.Printf("no .env file loaded: %v", err)
		}

		appPort, _ := strconv.ParseUint(os.Getenv("APPPORT"), 10, 16)
		dbPort, _ := strconv.ParseUint(os.Getenv("DBPORT"), 10, 16)

		summaryHour := 23
		if h, err := strconv.Atoi(os.Getenv("SUMMARYHOUR")); err == nil && h >= 0 && h <= 23 {
			summaryHour = h
		}

		// Initialize the Config struct with values from environment variables.
		config = &Config{
			AppName:                 os.Getenv("APPNAME"),
			AppEnv:                  os.Getenv("APPENV"),
			AppPort:                 uint16(appPort),
			GinMode:                 os.Getenv("GINMODE"),
			DBHost:                  os.Getenv("DBHOST"),
			DBPort:                  uint16(dbPort),
			DBName:                  os.Getenv("DBNAME"),
			DBUser:                  os.Getenv("DBUSER"),
			DBPass:                  os.Getenv("DBPASS"),
			TelegramBotToken:        os.Getenv("TELEGRAM_BOT_TOKEN"),
			TelegramChatID:          os.Getenv("TELEGRAM_CHAT_ID"),
			SheetsWebhookURL:        os.Getenv("SHEETS_WEBHOOK_URL"),
			SheetsServiceAccountKey: os.Getenv("SHEETS_SERVICE_ACCOUNT_KEY"),
			SheetsOAuthToken:        os.Getenv("SHEETS_OAUTH_TOKEN"),
			SpreadsheetID:           os.Getenv("SPREADSHEET_ID"),
			SummaryHour:             summaryHour,
		}
	})
	return config
}

// ConnectMySQL establishes a connection to a MySQL database using the configuration values.
// Under APPENV=test it returns an in-memory SQLite database instead, so the
// whole test suite runs without a MySQL server.
func ConnectMySQL() (*gorm.DB, error) {
	cfg := LoadConfig()

	if cfg.AppEnv == "test" {
		return gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	}

	// Build the Data Source Name (DSN) using the configuration values.
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)

	// Open a database connection.
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	return db, nil
}

package util

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/alsayerclinic/clinic-api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// IntegrationTarget identifies an outbound delivery target.
type IntegrationTarget string

const (
	TargetTelegram IntegrationTarget = "telegram"
	TargetSheets   IntegrationTarget = "sheets"
)

// IntegrationEvent represents one outbound delivery attempt to be logged.
type IntegrationEvent struct {
	Target    IntegrationTarget
	Action    string
	PatientID string
	OK        bool
	Message   string
	Details   map[string]interface{}
}

var integrationLogger *log.Logger
var integrationDB *gorm.DB

// SetIntegrationLoggerDB sets a gorm DB instance used by the integration logger.
// Call this during application startup (e.g. in main) after DB initialization.
func SetIntegrationLoggerDB(db *gorm.DB) {
	integrationDB = db
}

func init() {
	integrationLogger = log.New(os.Stdout, "[INTEGRATION] ", log.LstdFlags|log.Lmsgprefix)
}

// sanitizeLogValue removes newlines and other characters that could break log parsing
func sanitizeLogValue(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\t", " ")
	// Truncate very long values to prevent log flooding
	if len(value) > 200 {
		value = value[:200] + "..."
	}
	return value
}

// LogIntegrationEvent logs an outbound delivery attempt to stdout and,
// best-effort, to the integration_logs table. Delivery failures never reach
// API callers, so this is the only record of them.
func LogIntegrationEvent(event IntegrationEvent) {
	msg := fmt.Sprintf("Target=%s Action=%s PatientID=%s OK=%t Message=%s",
		sanitizeLogValue(string(event.Target)),
		sanitizeLogValue(event.Action),
		sanitizeLogValue(event.PatientID),
		event.OK,
		sanitizeLogValue(event.Message),
	)
	integrationLogger.Println(msg)

	if integrationDB == nil {
		return
	}

	var details datatypes.JSON
	if event.Details != nil {
		if b, err := json.Marshal(event.Details); err == nil {
			details = datatypes.JSON(b)
		}
	}

	entry := model.IntegrationLog{
		Target:    string(event.Target),
		Action:    sanitizeLogValue(event.Action),
		PatientID: sanitizeLogValue(event.PatientID),
		OK:        event.OK,
		Message:   sanitizeLogValue(event.Message),
		Details:   details,
	}

	// best-effort write; ignore errors but log them to stderr
	if err := integrationDB.Create(&entry).Error; err != nil {
		log.Printf("integration logger: failed to persist event: %v", err)
	}
}

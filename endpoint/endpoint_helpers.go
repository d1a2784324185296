package endpoint

import (
	"context"
	"fmt"

	"github.com/alsayerclinic/clinic-api/middleware"
	"github.com/alsayerclinic/clinic-api/model"
	"github.com/alsayerclinic/clinic-api/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Patient mutation actions reported to the notification fan-out.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// PatientEventPublisher receives domain events after a successful patient
// mutation. Delivery is the publisher's concern; handlers never wait on it.
type PatientEventPublisher interface {
	Publish(action string, patient model.Patient)
}

// SheetsSyncer pushes the full patient list to the configured spreadsheet.
type SheetsSyncer interface {
	SyncAll(ctx context.Context, patients []model.Patient) error
}

// SummaryNotifier sends the daily summary message to the chat target.
type SummaryNotifier interface {
	SendDailySummary(ctx context.Context, count, totalAmount int64) error
}

var eventPublisher PatientEventPublisher
var sheetsSyncer SheetsSyncer
var summaryNotifier SummaryNotifier

// SetEventPublisher wires the notification dispatcher into the handlers.
// Call during application startup; a nil publisher disables fan-out.
func SetEventPublisher(p PatientEventPublisher) {
	eventPublisher = p
}

// SetSheetsSyncer wires the spreadsheet sync strategy into the handlers.
func SetSheetsSyncer(s SheetsSyncer) {
	sheetsSyncer = s
}

// SetSummaryNotifier wires the chat notifier used by the manual summary trigger.
func SetSummaryNotifier(n SummaryNotifier) {
	summaryNotifier = n
}

func publishPatientEvent(action string, patient model.Patient) {
	if eventPublisher != nil {
		eventPublisher.Publish(action, patient)
	}
}

func requireDB(c *gin.Context) (*gorm.DB, bool) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return nil, false
	}
	return db, true
}

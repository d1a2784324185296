package endpoint

import (
	"fmt"
	"net/http"
	"time"

	"github.com/alsayerclinic/clinic-api/model"
	"github.com/alsayerclinic/clinic-api/util"
	"github.com/gin-gonic/gin"
)

// Health godoc
// @Summary      Liveness check
// @Tags         System
// @Produce      json
// @Success      200 {object} map[string]interface{} "Service is up"
// @Router       /api/health [get]
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// TodaySummary godoc
// @Summary      Today's intake summary
// @Description  Count and total charge of the records created during the current local day
// @Tags         Summary
// @Produce      json
// @Success      200 {object} util.APIResponse{data=object} "Summary retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/today-summary [get]
func TodaySummary(c *gin.Context) {
	db, ok := requireDB(c)
	if !ok {
		return
	}

	count, totalAmount, err := model.TodaysSummary(db)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to get today's summary",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Summary retrieved",
		Data: map[string]interface{}{"count": count, "totalAmount": totalAmount},
	})
}

// SyncToSheets godoc
// @Summary      Force a full spreadsheet resync
// @Description  Push every patient record to the configured spreadsheet target
// @Tags         Summary
// @Produce      json
// @Success      200 {object} util.APIResponse{data=object} "Patients synced"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/sync-to-sheets [post]
func SyncToSheets(c *gin.Context) {
	db, ok := requireDB(c)
	if !ok {
		return
	}

	if sheetsSyncer == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Spreadsheet sync is not configured",
			Err: fmt.Errorf("no sheets syncer"),
		})
		return
	}

	patients, err := fetchPatients(db)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve patients",
			Err: err,
		})
		return
	}

	if err := sheetsSyncer.SyncAll(c.Request.Context(), patients); err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to sync to spreadsheet",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  fmt.Sprintf("Synced %d patients to spreadsheet", len(patients)),
		Data: map[string]interface{}{"count": len(patients)},
	})
}

// SendDailySummary godoc
// @Summary      Send the daily summary now
// @Description  Manual trigger for the scheduled daily chat summary
// @Tags         Summary
// @Produce      json
// @Success      200 {object} util.APIResponse{data=object} "Summary sent"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/send-daily-summary [post]
func SendDailySummary(c *gin.Context) {
	db, ok := requireDB(c)
	if !ok {
		return
	}

	if summaryNotifier == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Chat notifications are not configured",
			Err: fmt.Errorf("no summary notifier"),
		})
		return
	}

	count, totalAmount, err := model.TodaysSummary(db)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to get today's summary",
			Err: err,
		})
		return
	}

	if err := summaryNotifier.SendDailySummary(c.Request.Context(), count, totalAmount); err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to send daily summary",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Daily summary sent",
		Data: map[string]interface{}{"count": count, "totalAmount": totalAmount},
	})
}

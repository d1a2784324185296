package endpoint

import (
	"fmt"

	"github.com/alsayerclinic/clinic-api/model"
	"github.com/alsayerclinic/clinic-api/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type createPaymentRequest struct {
	Amount int    `json:"amount" example:"4000"`
	Note   string `json:"note,omitempty" example:"First installment"`
}

// ListPayments godoc
// @Summary      List a patient's payments
// @Description  Get the payment ledger for a patient, newest first
// @Tags         Payment
// @Produce      json
// @Param        id path string true "Patient ID"
// @Success      200 {object} util.APIResponse{data=object} "Payments retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/patients/{id}/payments [get]
func ListPayments(c *gin.Context) {
	db, ok := requireDB(c)
	if !ok {
		return
	}

	var payments []model.Payment
	if err := db.Where("patient_id = ?", c.Param("id")).Order("created_at DESC").Find(&payments).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve payments",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Payments retrieved",
		Data: map[string]interface{}{"total": len(payments), "payments": payments},
	})
}

// CreatePayment godoc
// @Summary      Add a payment
// @Description  Append a ledger entry and refresh the patient's received total in one transaction
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Param        id path string true "Patient ID"
// @Param        request body createPaymentRequest true "Payment information"
// @Success      201 {object} util.APIResponse{data=model.Payment} "Payment created"
// @Failure      400 {object} util.APIResponse "Invalid amount"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/patients/{id}/payments [post]
func CreatePayment(c *gin.Context) {
	paymentRequest := createPaymentRequest{}
	if err := c.ShouldBindJSON(&paymentRequest); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}

	db, ok := requireDB(c)
	if !ok {
		return
	}

	patient, err := getPatientByID(c, db)
	if err != nil {
		return
	}

	if paymentRequest.Amount < 1 {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid payment amount",
			Err: fmt.Errorf("amount must be at least 1"),
		})
		return
	}

	payment := model.Payment{
		PatientID: patient.ID,
		Amount:    paymentRequest.Amount,
		Note:      paymentRequest.Note,
	}

	// Ledger insert and cached-total refresh commit or roll back together so
	// total_received never observably diverges from the ledger sum.
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		totalReceived, err := model.PatientTotalReceived(tx, patient.ID)
		if err != nil {
			return err
		}
		return tx.Model(&model.Patient{}).Where("id = ?", patient.ID).
			Update("total_received", totalReceived).Error
	})
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to create payment",
			Err: err,
		})
		return
	}

	publishRefreshedPatient(db, patient.ID)

	util.CallSuccessCreated(c, util.APISuccessParams{
		Msg:  "Payment created",
		Data: payment,
	})
}

// DeletePayment godoc
// @Summary      Remove a payment
// @Description  Delete a ledger entry and refresh the owning patient's received total in one transaction
// @Tags         Payment
// @Produce      json
// @Param        id path string true "Payment ID"
// @Success      204 "Payment deleted"
// @Failure      404 {object} util.APIResponse "Payment not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/payments/{id} [delete]
func DeletePayment(c *gin.Context) {
	db, ok := requireDB(c)
	if !ok {
		return
	}

	var payment model.Payment
	if err := db.Where("id = ?", c.Param("id")).First(&payment).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Payment not found",
			Err: err,
		})
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&payment).Error; err != nil {
			return err
		}
		totalReceived, err := model.PatientTotalReceived(tx, payment.PatientID)
		if err != nil {
			return err
		}
		return tx.Model(&model.Patient{}).Where("id = ?", payment.PatientID).
			Update("total_received", totalReceived).Error
	})
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to delete payment",
			Err: err,
		})
		return
	}

	publishRefreshedPatient(db, payment.PatientID)

	util.CallSuccessNoContent(c)
}

// publishRefreshedPatient re-reads the patient after a ledger mutation and
// reports it to the fan-out as an update, matching the record the caller sees.
func publishRefreshedPatient(db *gorm.DB, patientID string) {
	var refreshed model.Patient
	if err := db.Where("id = ?", patientID).First(&refreshed).Error; err != nil {
		return
	}
	publishPatientEvent(ActionUpdated, refreshed)
}

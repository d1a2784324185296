package endpoint

import (
	"fmt"

	"github.com/alsayerclinic/clinic-api/model"
	"github.com/alsayerclinic/clinic-api/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type createPatientRequest struct {
	PatientName   string `json:"patient_name" example:"Ali Hassan"`
	Age           int    `json:"age" example:"42"`
	Residence     string `json:"residence" example:"Basra"`
	Phone         string `json:"phone" example:"07701234567"`
	DoctorName    string `json:"doctor_name" example:"Dr. Kareem"`
	Diagnosis     string `json:"diagnosis,omitempty" example:"Lower back pain"`
	DoctorRequest string `json:"doctor_request,omitempty"`

	HasSurgery  bool   `json:"has_surgery"`
	SurgeryType string `json:"surgery_type,omitempty"`

	NeedsMedicalCare bool   `json:"needs_medical_care"`
	CareType         string `json:"care_type,omitempty" example:"sessions"`
	SessionType      string `json:"session_type,omitempty" example:"equipment"`
	SessionCount     int    `json:"session_count,omitempty" example:"10"`
	SessionPrice     int    `json:"session_price,omitempty" example:"5000"`

	NeedsMedicalAids bool   `json:"needs_medical_aids"`
	AidType          string `json:"aid_type,omitempty"`
	AidPrice         int    `json:"aid_price,omitempty"`

	HasDiet  bool   `json:"has_diet"`
	DietPlan string `json:"diet_plan,omitempty"`

	HasOtherServices  bool   `json:"has_other_services"`
	OtherServiceType  string `json:"other_service_type,omitempty"`
	OtherServicePrice int    `json:"other_service_price,omitempty"`

	Attachments       []string `json:"attachments,omitempty"`
	OverallAssessment string   `json:"overall_assessment,omitempty"`
	IsCompleted       bool     `json:"is_completed"`
}

// validateCreatePatient rejects a schema-invalid payload before persistence.
// The returned error names the offending field.
func validateCreatePatient(req createPatientRequest) error {
	if req.PatientName == "" {
		return fmt.Errorf("patient_name is required")
	}
	if req.Age < 0 || req.Age > 150 {
		return fmt.Errorf("age must be between 0 and 150")
	}
	if req.Residence == "" {
		return fmt.Errorf("residence is required")
	}
	if req.Phone == "" {
		return fmt.Errorf("phone is required")
	}
	if req.DoctorName == "" {
		return fmt.Errorf("doctor_name is required")
	}
	if req.CareType != "" && req.CareType != model.CareTypeHomeExercises && req.CareType != model.CareTypeSessions {
		return fmt.Errorf("care_type must be home_exercises or sessions")
	}
	if req.SessionType != "" && req.SessionType != model.SessionTypeEquipment && req.SessionType != model.SessionTypeExercises {
		return fmt.Errorf("session_type must be equipment or exercises")
	}
	if req.SessionCount < 0 {
		return fmt.Errorf("session_count must not be negative")
	}
	if req.SessionPrice < 0 {
		return fmt.Errorf("session_price must not be negative")
	}
	if req.AidPrice < 0 {
		return fmt.Errorf("aid_price must not be negative")
	}
	if req.OtherServicePrice < 0 {
		return fmt.Errorf("other_service_price must not be negative")
	}
	return nil
}

func buildPatientModel(req createPatientRequest) model.Patient {
	patient := model.Patient{
		PatientName:       util.NormalizeName(req.PatientName),
		Age:               req.Age,
		Residence:         req.Residence,
		Phone:             req.Phone,
		DoctorName:        req.DoctorName,
		Diagnosis:         req.Diagnosis,
		DoctorRequest:     req.DoctorRequest,
		HasSurgery:        req.HasSurgery,
		SurgeryType:       req.SurgeryType,
		NeedsMedicalCare:  req.NeedsMedicalCare,
		CareType:          req.CareType,
		SessionType:       req.SessionType,
		SessionCount:      req.SessionCount,
		SessionPrice:      req.SessionPrice,
		NeedsMedicalAids:  req.NeedsMedicalAids,
		AidType:           req.AidType,
		AidPrice:          req.AidPrice,
		HasDiet:           req.HasDiet,
		DietPlan:          req.DietPlan,
		HasOtherServices:  req.HasOtherServices,
		OtherServiceType:  req.OtherServiceType,
		OtherServicePrice: req.OtherServicePrice,
		Attachments:       req.Attachments,
		OverallAssessment: req.OverallAssessment,
		IsCompleted:       req.IsCompleted,
	}
	patient.TotalAmount = model.ComputeTotalAmount(patient.Billing())
	return patient
}

func fetchPatients(db *gorm.DB) ([]model.Patient, error) {
	var patients []model.Patient
	if err := db.Order("created_at DESC").Find(&patients).Error; err != nil {
		return nil, err
	}
	return patients, nil
}

func getPatientByID(c *gin.Context, db *gorm.DB) (model.Patient, error) {
	id := c.Param("id")
	if id == "" {
		err := fmt.Errorf("patient ID is required")
		util.CallUserError(c, util.APIErrorParams{Msg: "Missing patient ID", Err: err})
		return model.Patient{}, err
	}

	var patient model.Patient
	if err := db.Where("id = ?", id).First(&patient).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Patient not found",
			Err: err,
		})
		return model.Patient{}, err
	}

	return patient, nil
}

// ListPatients godoc
// @Summary      List all patients
// @Description  Get all patient records, newest first
// @Tags         Patient
// @Produce      json
// @Success      200 {object} util.APIResponse{data=object} "Patients retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/patients [get]
func ListPatients(c *gin.Context) {
	db, ok := requireDB(c)
	if !ok {
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

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patients retrieved",
		Data: map[string]interface{}{"total": len(patients), "patients": patients},
	})
}

// GetPatientInfo godoc
// @Summary      Get patient information
// @Description  Get one patient record by ID
// @Tags         Patient
// @Produce      json
// @Param        id path string true "Patient ID"
// @Success      200 {object} util.APIResponse{data=model.Patient} "Patient retrieved"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/patients/{id} [get]
func GetPatientInfo(c *gin.Context) {
	db, ok := requireDB(c)
	if !ok {
		return
	}

	patient, err := getPatientByID(c, db)
	if err != nil {
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patient retrieved",
		Data: patient,
	})
}

// CreatePatient godoc
// @Summary      Create a new patient
// @Description  Register a new intake record; the total charge is derived from the treatment selections
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Param        request body createPatientRequest true "Patient information"
// @Success      201 {object} util.APIResponse{data=model.Patient} "Patient created"
// @Failure      400 {object} util.APIResponse "Invalid payload"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/patients [post]
func CreatePatient(c *gin.Context) {
	patientRequest := createPatientRequest{}

	if err := c.ShouldBindJSON(&patientRequest); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}

	if err := validateCreatePatient(patientRequest); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid patient payload",
			Err: err,
		})
		return
	}

	db, ok := requireDB(c)
	if !ok {
		return
	}

	patient := buildPatientModel(patientRequest)
	if err := db.Create(&patient).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to create patient",
			Err: err,
		})
		return
	}
	patient.RefreshRemaining()

	publishPatientEvent(ActionCreated, patient)

	util.CallSuccessCreated(c, util.APISuccessParams{
		Msg:  "Patient created",
		Data: patient,
	})
}

// applyPatientUpdate merges the provided fields into the existing record.
// Pointer fields are only applied when present in the payload.
func applyPatientUpdate(existing *model.Patient, req model.UpdatePatientRequest) {
	if req.PatientName != nil {
		existing.PatientName = util.NormalizeName(*req.PatientName)
	}
	if req.Age != nil {
		existing.Age = *req.Age
	}
	if req.Residence != nil {
		existing.Residence = *req.Residence
	}
	if req.Phone != nil {
		existing.Phone = *req.Phone
	}
	if req.DoctorName != nil {
		existing.DoctorName = *req.DoctorName
	}
	if req.Diagnosis != nil {
		existing.Diagnosis = *req.Diagnosis
	}
	if req.DoctorRequest != nil {
		existing.DoctorRequest = *req.DoctorRequest
	}
	if req.HasSurgery != nil {
		existing.HasSurgery = *req.HasSurgery
	}
	if req.SurgeryType != nil {
		existing.SurgeryType = *req.SurgeryType
	}
	if req.NeedsMedicalCare != nil {
		existing.NeedsMedicalCare = *req.NeedsMedicalCare
	}
	if req.CareType != nil {
		existing.CareType = *req.CareType
	}
	if req.SessionType != nil {
		existing.SessionType = *req.SessionType
	}
	if req.SessionCount != nil {
		existing.SessionCount = *req.SessionCount
	}
	if req.SessionPrice != nil {
		existing.SessionPrice = *req.SessionPrice
	}
	if req.NeedsMedicalAids != nil {
		existing.NeedsMedicalAids = *req.NeedsMedicalAids
	}
	if req.AidType != nil {
		existing.AidType = *req.AidType
	}
	if req.AidPrice != nil {
		existing.AidPrice = *req.AidPrice
	}
	if req.HasDiet != nil {
		existing.HasDiet = *req.HasDiet
	}
	if req.DietPlan != nil {
		existing.DietPlan = *req.DietPlan
	}
	if req.HasOtherServices != nil {
		existing.HasOtherServices = *req.HasOtherServices
	}
	if req.OtherServiceType != nil {
		existing.OtherServiceType = *req.OtherServiceType
	}
	if req.OtherServicePrice != nil {
		existing.OtherServicePrice = *req.OtherServicePrice
	}
	if req.Attachments != nil {
		existing.Attachments = *req.Attachments
	}
	if req.OverallAssessment != nil {
		existing.OverallAssessment = *req.OverallAssessment
	}
	if req.IsCompleted != nil {
		existing.IsCompleted = *req.IsCompleted
	}
}

// validatePatientUpdate checks the merged record before persistence.
func validatePatientUpdate(patient model.Patient) error {
	if patient.PatientName == "" {
		return fmt.Errorf("patient_name must not be empty")
	}
	if patient.Age < 0 || patient.Age > 150 {
		return fmt.Errorf("age must be between 0 and 150")
	}
	if patient.SessionCount < 0 {
		return fmt.Errorf("session_count must not be negative")
	}
	if patient.SessionPrice < 0 {
		return fmt.Errorf("session_price must not be negative")
	}
	if patient.AidPrice < 0 {
		return fmt.Errorf("aid_price must not be negative")
	}
	if patient.OtherServicePrice < 0 {
		return fmt.Errorf("other_service_price must not be negative")
	}
	return nil
}

// UpdatePatient godoc
// @Summary      Update patient information
// @Description  Partially update an existing patient; the total charge is recomputed from the merged treatment selections
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Param        id path string true "Patient ID"
// @Param        request body model.UpdatePatientRequest true "Updated patient information"
// @Success      200 {object} util.APIResponse{data=model.Patient} "Patient updated"
// @Failure      400 {object} util.APIResponse "Invalid payload"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/patients/{id} [patch]
func UpdatePatient(c *gin.Context) {
	updateRequest := model.UpdatePatientRequest{}
	if err := c.ShouldBindJSON(&updateRequest); err != nil {
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

	existingPatient, err := getPatientByID(c, db)
	if err != nil {
		return
	}

	applyPatientUpdate(&existingPatient, updateRequest)
	if err := validatePatientUpdate(existingPatient); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid patient payload",
			Err: err,
		})
		return
	}

	// The cached charge follows the treatment selections; CreatedAt keeps
	// its loaded value so the record's creation time never changes.
	existingPatient.TotalAmount = model.ComputeTotalAmount(existingPatient.Billing())

	if err := db.Save(&existingPatient).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to update patient",
			Err: err,
		})
		return
	}
	existingPatient.RefreshRemaining()

	publishPatientEvent(ActionUpdated, existingPatient)

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patient updated",
		Data: existingPatient,
	})
}

// DeletePatient godoc
// @Summary      Delete a patient
// @Description  Delete a patient and its payment ledger in one transaction
// @Tags         Patient
// @Produce      json
// @Param        id path string true "Patient ID"
// @Success      204 "Patient deleted"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/patients/{id} [delete]
func DeletePatient(c *gin.Context) {
	db, ok := requireDB(c)
	if !ok {
		return
	}

	patient, err := getPatientByID(c, db)
	if err != nil {
		return
	}

	// The patient is the aggregate root: its ledger rows must not outlive it.
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("patient_id = ?", patient.ID).Delete(&model.Payment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&patient).Error
	})
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to delete patient",
			Err: err,
		})
		return
	}

	publishPatientEvent(ActionDeleted, patient)

	util.CallSuccessNoContent(c)
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Care type values for Patient.CareType.
const (
	CareTypeHomeExercises = "home_exercises"
	CareTypeSessions      = "sessions"
)

// Session type values for Patient.SessionType.
const (
	SessionTypeEquipment = "equipment"
	SessionTypeExercises = "exercises"
)

// Patient represents one intake/billing record.
// TotalAmount is derived from the treatment selections (see ComputeTotalAmount)
// and TotalReceived mirrors the sum of the patient's payment ledger; both are
// cached on the row, Remaining is derived at read time and never persisted.
type Patient struct {
	ID          string `json:"id" gorm:"type:varchar(36);primaryKey"`
	PatientName string `json:"patient_name" gorm:"type:varchar(191);not null"`
	Age         int    `json:"age" gorm:"not null"`
	Residence   string `json:"residence" gorm:"type:varchar(255);not null"`
	Phone       string `json:"phone" gorm:"type:varchar(45);not null"`
	DoctorName  string `json:"doctor_name" gorm:"type:varchar(191);not null"`

	Diagnosis     string `json:"diagnosis" gorm:"type:text"`
	DoctorRequest string `json:"doctor_request" gorm:"type:text"`

	HasSurgery  bool   `json:"has_surgery"`
	SurgeryType string `json:"surgery_type" gorm:"type:varchar(255)"`

	NeedsMedicalCare bool   `json:"needs_medical_care"`
	CareType         string `json:"care_type" gorm:"type:varchar(32)"`
	SessionType      string `json:"session_type" gorm:"type:varchar(32)"`
	SessionCount     int    `json:"session_count"`
	SessionPrice     int    `json:"session_price"`

	NeedsMedicalAids bool   `json:"needs_medical_aids"`
	AidType          string `json:"aid_type" gorm:"type:varchar(255)"`
	AidPrice         int    `json:"aid_price"`

	HasDiet  bool   `json:"has_diet"`
	DietPlan string `json:"diet_plan" gorm:"type:text"`

	HasOtherServices  bool   `json:"has_other_services"`
	OtherServiceType  string `json:"other_service_type" gorm:"type:varchar(255)"`
	OtherServicePrice int    `json:"other_service_price"`

	// Attachments are image data URIs in upload order.
	Attachments []string `json:"attachments" gorm:"serializer:json;type:text"`

	OverallAssessment string `json:"overall_assessment" gorm:"type:text"`

	TotalAmount   int  `json:"total_amount"`
	TotalReceived int  `json:"total_received"`
	IsCompleted   bool `json:"is_completed"`

	// Remaining = TotalAmount - TotalReceived, populated on read.
	Remaining int `json:"remaining" gorm:"-"`

	CreatedAt time.Time `json:"created_at"`

	Payments []Payment `json:"-" gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate assigns a server-generated id when none is set.
func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// AfterFind derives the remaining balance for API consumers.
func (p *Patient) AfterFind(tx *gorm.DB) error {
	p.Remaining = p.TotalAmount - p.TotalReceived
	return nil
}

// RefreshRemaining recomputes the derived balance after in-memory mutation of
// the cached totals.
func (p *Patient) RefreshRemaining() {
	p.Remaining = p.TotalAmount - p.TotalReceived
}

// UpdatePatientRequest carries a partial patient update. Pointer fields
// distinguish "absent" from a zero value so booleans and prices can be
// cleared explicitly.
// @Description Patient update payload, all fields optional
type UpdatePatientRequest struct {
	PatientName   *string `json:"patient_name,omitempty"`
	Age           *int    `json:"age,omitempty"`
	Residence     *string `json:"residence,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	DoctorName    *string `json:"doctor_name,omitempty"`
	Diagnosis     *string `json:"diagnosis,omitempty"`
	DoctorRequest *string `json:"doctor_request,omitempty"`

	HasSurgery  *bool   `json:"has_surgery,omitempty"`
	SurgeryType *string `json:"surgery_type,omitempty"`

	NeedsMedicalCare *bool   `json:"needs_medical_care,omitempty"`
	CareType         *string `json:"care_type,omitempty"`
	SessionType      *string `json:"session_type,omitempty"`
	SessionCount     *int    `json:"session_count,omitempty"`
	SessionPrice     *int    `json:"session_price,omitempty"`

	NeedsMedicalAids *bool   `json:"needs_medical_aids,omitempty"`
	AidType          *string `json:"aid_type,omitempty"`
	AidPrice         *int    `json:"aid_price,omitempty"`

	HasDiet  *bool   `json:"has_diet,omitempty"`
	DietPlan *string `json:"diet_plan,omitempty"`

	HasOtherServices  *bool   `json:"has_other_services,omitempty"`
	OtherServiceType  *string `json:"other_service_type,omitempty"`
	OtherServicePrice *int    `json:"other_service_price,omitempty"`

	Attachments       *[]string `json:"attachments,omitempty"`
	OverallAssessment *string   `json:"overall_assessment,omitempty"`
	IsCompleted       *bool     `json:"is_completed,omitempty"`
}

// TodaysSummary aggregates the records created during the current local
// calendar day, [startOfDay, startOfDay+24h). Null totals count as zero.
func TodaysSummary(db *gorm.DB) (count int64, totalAmount int64, err error) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	var patients []Patient
	if err := db.Where("created_at >= ? AND created_at < ?", startOfDay, endOfDay).Find(&patients).Error; err != nil {
		return 0, 0, err
	}

	for _, p := range patients {
		totalAmount += int64(p.TotalAmount)
	}
	return int64(len(patients)), totalAmount, nil
}

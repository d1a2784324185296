package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment is one ledger entry belonging to a patient. A payment cannot
// outlive its patient: deleting the patient cascades to its ledger.
type Payment struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	PatientID string    `json:"patient_id" gorm:"type:varchar(36);index;not null"`
	Amount    int       `json:"amount" gorm:"not null"`
	Note      string    `json:"note" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate assigns a server-generated id when none is set.
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// PatientTotalReceived re-sums the patient's ledger. Summing from source on
// every mutation keeps the cached total self-correcting: even when two
// mutations race, the last recompute lands on the true ledger sum.
func PatientTotalReceived(db *gorm.DB, patientID string) (int, error) {
	var total int64
	err := db.Model(&Payment{}).
		Where("patient_id = ?", patientID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// IntegrationLog represents a persisted outbound-delivery event. Chat and
// spreadsheet failures never surface to API callers, so this table is the
// only place they remain visible.
type IntegrationLog struct {
	gorm.Model
	Target    string         `json:"target" gorm:"column:target;type:varchar(32);index"`
	Action    string         `json:"action" gorm:"column:action;type:varchar(32)"`
	PatientID string         `json:"patient_id" gorm:"column:patient_id;type:varchar(36);index"`
	OK        bool           `json:"ok" gorm:"column:ok"`
	Message   string         `json:"message" gorm:"column:message;type:text"`
	Details   datatypes.JSON `json:"details" gorm:"column:details;type:json"`
}

// DailySummaryLog records each calendar date the daily summary message was
// sent. The unique index is the idempotency guard: a second send attempt for
// the same date fails the insert and is skipped.
type DailySummaryLog struct {
	gorm.Model
	Date        string `json:"date" gorm:"column:date;type:varchar(10);uniqueIndex"`
	Count       int64  `json:"count" gorm:"column:count"`
	TotalAmount int64  `json:"total_amount" gorm:"column:total_amount"`
}

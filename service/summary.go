package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/alsayerclinic/clinic-api/model"
	"github.com/alsayerclinic/clinic-api/util"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// SummaryScheduler sends the end-of-day chat summary once per calendar day.
// The daily_summary_logs table is the dedup guard: the per-date unique index
// rejects the insert when the summary was already sent, so a restart inside
// the send window cannot double-send.
type SummaryScheduler struct {
	db       *gorm.DB
	notifier *TelegramNotifier
	hour     int
	cron     *cron.Cron
}

func NewSummaryScheduler(db *gorm.DB, notifier *TelegramNotifier, hour int) *SummaryScheduler {
	return &SummaryScheduler{
		db:       db,
		notifier: notifier,
		hour:     hour,
	}
}

// Start registers the daily cron entry and begins scheduling.
func (s *SummaryScheduler) Start() error {
	s.cron = cron.New()
	spec := fmt.Sprintf("0 %d * * *", s.hour)
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("daily summary scheduler started, sending at %02d:00", s.hour)
	return nil
}

// Stop halts scheduling; a send already in progress finishes.
func (s *SummaryScheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// RunOnce sends today's summary unless it was already sent today.
func (s *SummaryScheduler) RunOnce() {
	if s.notifier == nil || !s.notifier.Enabled() {
		return
	}

	count, totalAmount, err := model.TodaysSummary(s.db)
	if err != nil {
		log.Printf("daily summary: failed to compute today's summary: %v", err)
		return
	}

	// Claim the date before sending; a failed insert only means "already
	// sent" when a row for the date actually exists. Any other failure is a
	// store error and must not masquerade as a completed send.
	entry := model.DailySummaryLog{
		Date:        time.Now().Format("2006-01-02"),
		Count:       count,
		TotalAmount: totalAmount,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		var existing model.DailySummaryLog
		if lookupErr := s.db.Where("date = ?", entry.Date).First(&existing).Error; lookupErr == nil {
			log.Printf("daily summary: already sent for %s, skipping", entry.Date)
		} else {
			log.Printf("daily summary: failed to claim %s: %v", entry.Date, err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err = s.notifier.SendDailySummary(ctx, count, totalAmount)
	util.LogIntegrationEvent(util.IntegrationEvent{
		Target:  util.TargetTelegram,
		Action:  "daily_summary",
		OK:      err == nil,
		Message: deliveryMessage(err),
		Details: map[string]interface{}{"count": count, "totalAmount": totalAmount},
	})
}

func deliveryMessage(err error) string {
	if err == nil {
		return "delivered"
	}
	return err.Error()
}

package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/alsayerclinic/clinic-api/model"
	"github.com/alsayerclinic/clinic-api/util"
	"github.com/sony/gobreaker"
)

// PatientEvent is one domain event emitted after a patient mutation.
type PatientEvent struct {
	Action  string
	Patient model.Patient
}

// Patient mutation actions carried by events.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

const (
	dispatchQueueSize  = 256
	dispatchAttempts   = 3
	dispatchBackoff    = 500 * time.Millisecond
	dispatchCallBudget = 30 * time.Second
)

// Dispatcher consumes patient events and delivers them, best-effort, to the
// chat and spreadsheet targets. Callers publish and move on: a slow or dead
// target never blocks an HTTP response, and delivery failures are only
// visible in the integration log.
type Dispatcher struct {
	telegram *TelegramNotifier
	sheets   SheetsSync

	events chan PatientEvent
	wg     sync.WaitGroup

	// Per-target delivery budget, covering all attempts and backoff for
	// that target on one event.
	callBudget time.Duration

	telegramBreaker *gobreaker.CircuitBreaker
	sheetsBreaker   *gobreaker.CircuitBreaker
}

// NewDispatcher wires the delivery targets behind per-target circuit
// breakers, so a flapping endpoint is skipped instead of retried on every
// event.
func NewDispatcher(telegram *TelegramNotifier, sheets SheetsSync) *Dispatcher {
	settings := func(name string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:    name,
			Timeout: 60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}
	}

	return &Dispatcher{
		telegram:        telegram,
		sheets:          sheets,
		events:          make(chan PatientEvent, dispatchQueueSize),
		callBudget:      dispatchCallBudget,
		telegramBreaker: gobreaker.NewCircuitBreaker(settings("telegram")),
		sheetsBreaker:   gobreaker.NewCircuitBreaker(settings("sheets")),
	}
}

// Start launches the delivery worker.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for event := range d.events {
			d.deliver(event)
		}
	}()
}

// Stop drains the queue and waits for in-flight deliveries.
func (d *Dispatcher) Stop() {
	close(d.events)
	d.wg.Wait()
}

// Publish enqueues an event without blocking. When the queue is full the
// event is dropped and logged; the primary mutation already committed.
func (d *Dispatcher) Publish(action string, patient model.Patient) {
	select {
	case d.events <- PatientEvent{Action: action, Patient: patient}:
	default:
		log.Printf("dispatcher: queue full, dropping %s event for patient %s", action, patient.ID)
		util.LogIntegrationEvent(util.IntegrationEvent{
			Target:    "dispatcher",
			Action:    action,
			PatientID: patient.ID,
			OK:        false,
			Message:   "event dropped: queue full",
		})
	}
}

func (d *Dispatcher) deliver(event PatientEvent) {
	// Each target gets its own budget so a slow target cannot eat into
	// the other target's retries.
	if d.telegram != nil && d.telegram.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), d.callBudget)
		err := d.withRetry(ctx, d.telegramBreaker, func() error {
			return d.telegram.NotifyPatient(ctx, event.Action, event.Patient)
		})
		cancel()
		logDelivery(util.TargetTelegram, event, err)
	}

	if d.sheets != nil && d.sheets.Method() != SyncDisabled {
		ctx, cancel := context.WithTimeout(context.Background(), d.callBudget)
		err := d.withRetry(ctx, d.sheetsBreaker, func() error {
			switch event.Action {
			case ActionDeleted:
				return d.sheets.DeletePatient(ctx, event.Patient.ID)
			case ActionCreated:
				return d.sheets.SyncPatient(ctx, event.Patient, "create")
			default:
				return d.sheets.SyncPatient(ctx, event.Patient, "update")
			}
		})
		cancel()
		logDelivery(util.TargetSheets, event, err)
	}
}

// withRetry runs fn through the circuit breaker, retrying with doubling
// backoff until the attempt budget or the context runs out.
func (d *Dispatcher) withRetry(ctx context.Context, breaker *gobreaker.CircuitBreaker, fn func() error) error {
	backoff := dispatchBackoff
	var err error
	for attempt := 0; attempt < dispatchAttempts; attempt++ {
		_, err = breaker.Execute(func() (interface{}, error) {
			return nil, fn()
		})
		if err == nil {
			return nil
		}
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return err
		}

		select {
		case <-ctx.Done():
			return err
		case <-time.After(backoff):
			backoff *= 2
		}
	}
	return err
}

func logDelivery(target util.IntegrationTarget, event PatientEvent, err error) {
	if err == nil {
		util.LogIntegrationEvent(util.IntegrationEvent{
			Target:    target,
			Action:    event.Action,
			PatientID: event.Patient.ID,
			OK:        true,
			Message:   "delivered",
		})
		return
	}
	util.LogIntegrationEvent(util.IntegrationEvent{
		Target:    target,
		Action:    event.Action,
		PatientID: event.Patient.ID,
		OK:        false,
		Message:   err.Error(),
	})
}

package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alsayerclinic/clinic-api/model"
)

func TestDispatcherDeliversToBothTargets(t *testing.T) {
	bot := newCapturingBotAPI(http.StatusOK)
	defer bot.server.Close()
	hook := newCapturingWebhook(http.StatusOK)
	defer hook.server.Close()

	d := NewDispatcher(testNotifier(bot.server.URL), NewWebhookSync(hook.server.URL))
	d.Start()

	d.Publish(ActionCreated, model.Patient{ID: "p1", PatientName: "Ali Hassan", Age: 42})
	d.Stop()

	if got := len(bot.sent()); got != 1 {
		t.Errorf("expected 1 chat message, got %d", got)
	}
	payloads := hook.received()
	if len(payloads) != 1 {
		t.Fatalf("expected 1 webhook payload, got %d", len(payloads))
	}
	if payloads[0]["action"] != "create" {
		t.Errorf("expected a create sync for a created patient, got %v", payloads[0]["action"])
	}
}

func TestDispatcherMapsActionsToSheetCalls(t *testing.T) {
	hook := newCapturingWebhook(http.StatusOK)
	defer hook.server.Close()

	// No telegram credentials: only the sheets leg runs.
	d := NewDispatcher(nil, NewWebhookSync(hook.server.URL))
	d.Start()

	d.Publish(ActionUpdated, model.Patient{ID: "p1"})
	d.Publish(ActionDeleted, model.Patient{ID: "p1"})
	d.Stop()

	payloads := hook.received()
	if len(payloads) != 2 {
		t.Fatalf("expected 2 webhook payloads, got %d", len(payloads))
	}
	if payloads[0]["action"] != "update" {
		t.Errorf("expected update action, got %v", payloads[0]["action"])
	}
	if payloads[1]["action"] != "delete" {
		t.Errorf("expected delete action, got %v", payloads[1]["action"])
	}
}

func TestDispatcherTargetFailureIsIsolated(t *testing.T) {
	bot := newCapturingBotAPI(http.StatusOK)
	defer bot.server.Close()
	hook := newCapturingWebhook(http.StatusInternalServerError)
	defer hook.server.Close()

	d := NewDispatcher(testNotifier(bot.server.URL), NewWebhookSync(hook.server.URL))
	d.Start()

	d.Publish(ActionCreated, model.Patient{ID: "p1", PatientName: "Ali Hassan"})
	d.Stop()

	// The sheets target failed every attempt; the chat message still went out.
	if got := len(bot.sent()); got != 1 {
		t.Errorf("expected 1 chat message despite sheets failure, got %d", got)
	}
	if got := len(hook.received()); got < 1 {
		t.Errorf("expected at least one sheets attempt, got %d", got)
	}
}

func TestDispatcherSlowTargetDoesNotStarveOther(t *testing.T) {
	// A telegram API that never answers within the delivery budget.
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer slow.Close()
	hook := newCapturingWebhook(http.StatusOK)
	defer hook.server.Close()

	d := NewDispatcher(testNotifier(slow.URL), NewWebhookSync(hook.server.URL))
	d.callBudget = 100 * time.Millisecond
	d.Start()

	d.Publish(ActionCreated, model.Patient{ID: "p1", PatientName: "Ali Hassan"})
	d.Stop()

	// The telegram leg burned its whole budget; the sheets leg still runs
	// on a fresh one.
	if got := len(hook.received()); got != 1 {
		t.Errorf("expected 1 webhook payload after slow telegram leg, got %d", got)
	}
}

func TestDispatcherSkipsDisabledTargets(t *testing.T) {
	d := NewDispatcher(nil, disabledSync{})
	d.Start()

	// Nothing to deliver to; Publish and Stop must not hang.
	d.Publish(ActionCreated, model.Patient{ID: "p1"})
	d.Stop()
}

func TestDispatcherPublishDropsWhenQueueFull(t *testing.T) {
	// Never started: the queue fills and further publishes are dropped
	// instead of blocking the caller.
	d := NewDispatcher(nil, disabledSync{})
	for i := 0; i < dispatchQueueSize+10; i++ {
		d.Publish(ActionCreated, model.Patient{ID: "p1"})
	}
	if len(d.events) != dispatchQueueSize {
		t.Errorf("expected queue at capacity %d, got %d", dispatchQueueSize, len(d.events))
	}
}

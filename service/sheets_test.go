package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alsayerclinic/clinic-api/config"
	"github.com/alsayerclinic/clinic-api/model"
)

// capturingWebhook records JSON payloads posted to it.
type capturingWebhook struct {
	server   *httptest.Server
	mu       sync.Mutex
	payloads []map[string]interface{}
	status   int
}

func newCapturingWebhook(status int) *capturingWebhook {
	hook := &capturingWebhook{status: status}
	hook.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		hook.mu.Lock()
		hook.payloads = append(hook.payloads, payload)
		hook.mu.Unlock()
		w.WriteHeader(hook.status)
	}))
	return hook
}

func (hook *capturingWebhook) received() []map[string]interface{} {
	hook.mu.Lock()
	defer hook.mu.Unlock()
	out := make([]map[string]interface{}, len(hook.payloads))
	copy(out, hook.payloads)
	return out
}

func TestResolveSheetsSyncPrecedence(t *testing.T) {
	ctx := context.Background()

	t.Run("webhook wins over everything", func(t *testing.T) {
		s, err := ResolveSheetsSync(ctx, &config.Config{
			SheetsWebhookURL: "https://script.google.com/macros/s/abc/exec",
			SheetsOAuthToken: "oauth-token",
			SpreadsheetID:    "sheet-1",
		})
		if err != nil {
			t.Fatalf("ResolveSheetsSync: %v", err)
		}
		if s.Method() != SyncWebhook {
			t.Errorf("expected webhook method, got %s", s.Method())
		}
	})

	t.Run("oauth token selects the API variant", func(t *testing.T) {
		s, err := ResolveSheetsSync(ctx, &config.Config{
			SheetsOAuthToken: "oauth-token",
			SpreadsheetID:    "sheet-1",
		})
		if err != nil {
			t.Fatalf("ResolveSheetsSync: %v", err)
		}
		if s.Method() != SyncOAuth {
			t.Errorf("expected oauth method, got %s", s.Method())
		}
	})

	t.Run("oauth without spreadsheet id fails", func(t *testing.T) {
		_, err := ResolveSheetsSync(ctx, &config.Config{SheetsOAuthToken: "oauth-token"})
		if err == nil {
			t.Error("expected error without a spreadsheet id")
		}
	})

	t.Run("malformed service account key fails", func(t *testing.T) {
		_, err := ResolveSheetsSync(ctx, &config.Config{
			SheetsServiceAccountKey: "{not valid json",
			SpreadsheetID:           "sheet-1",
		})
		if err == nil {
			t.Error("expected error for malformed key")
		}
	})

	t.Run("no credentials disables sync", func(t *testing.T) {
		s, err := ResolveSheetsSync(ctx, &config.Config{})
		if err != nil {
			t.Fatalf("ResolveSheetsSync: %v", err)
		}
		if s.Method() != SyncDisabled {
			t.Errorf("expected disabled method, got %s", s.Method())
		}
	})
}

func TestDisabledSyncDropsEverything(t *testing.T) {
	var s SheetsSync = disabledSync{}
	ctx := context.Background()

	if err := s.SyncPatient(ctx, model.Patient{}, "create"); err != nil {
		t.Errorf("SyncPatient: %v", err)
	}
	if err := s.DeletePatient(ctx, "p1"); err != nil {
		t.Errorf("DeletePatient: %v", err)
	}
	if err := s.SyncAll(ctx, nil); err != nil {
		t.Errorf("SyncAll: %v", err)
	}
}

func TestWebhookSyncPatientPayload(t *testing.T) {
	hook := newCapturingWebhook(http.StatusOK)
	defer hook.server.Close()

	s := NewWebhookSync(hook.server.URL)
	created := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)
	patient := model.Patient{
		ID:            "p1",
		PatientName:   "Ali Hassan",
		Age:           42,
		Residence:     "Basra",
		HasSurgery:    true,
		SurgeryType:   "knee",
		CareType:      model.CareTypeSessions,
		SessionCount:  10,
		SessionPrice:  5000,
		TotalAmount:   50000,
		TotalReceived: 20000,
		CreatedAt:     created,
	}

	if err := s.SyncPatient(context.Background(), patient, "create"); err != nil {
		t.Fatalf("SyncPatient: %v", err)
	}

	payloads := hook.received()
	if len(payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(payloads))
	}
	got := payloads[0]
	if got["action"] != "create" {
		t.Errorf("expected action create, got %v", got["action"])
	}
	if got["id"] != "p1" {
		t.Errorf("expected id p1, got %v", got["id"])
	}
	if got["hasSurgery"] != "نعم" {
		t.Errorf("expected hasSurgery نعم, got %v", got["hasSurgery"])
	}
	if got["careType"] != "جلسات علاجية" {
		t.Errorf("expected Arabic care type, got %v", got["careType"])
	}
	if got["remaining"] != float64(30000) {
		t.Errorf("expected remaining 30000, got %v", got["remaining"])
	}
	if got["createdAt"] != created.Format(time.RFC3339) {
		t.Errorf("expected RFC3339 createdAt, got %v", got["createdAt"])
	}
}

func TestWebhookSyncDeletePayload(t *testing.T) {
	hook := newCapturingWebhook(http.StatusOK)
	defer hook.server.Close()

	s := NewWebhookSync(hook.server.URL)
	if err := s.DeletePatient(context.Background(), "p1"); err != nil {
		t.Fatalf("DeletePatient: %v", err)
	}

	payloads := hook.received()
	if len(payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(payloads))
	}
	if payloads[0]["action"] != "delete" || payloads[0]["id"] != "p1" {
		t.Errorf("unexpected delete payload: %v", payloads[0])
	}
}

func TestWebhookSyncAllPayload(t *testing.T) {
	hook := newCapturingWebhook(http.StatusOK)
	defer hook.server.Close()

	s := NewWebhookSync(hook.server.URL)
	patients := []model.Patient{
		{ID: "p1", PatientName: "First"},
		{ID: "p2", PatientName: "Second"},
	}
	if err := s.SyncAll(context.Background(), patients); err != nil {
		t.Fatalf("SyncAll: %v", err)
	}

	payloads := hook.received()
	if len(payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(payloads))
	}
	got := payloads[0]
	if got["action"] != "sync_all" {
		t.Errorf("expected action sync_all, got %v", got["action"])
	}
	rows, ok := got["patients"].([]interface{})
	if !ok {
		t.Fatalf("expected patients array, got %T", got["patients"])
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(rows))
	}
}

func TestWebhookSyncReportsFailureStatus(t *testing.T) {
	hook := newCapturingWebhook(http.StatusInternalServerError)
	defer hook.server.Close()

	s := NewWebhookSync(hook.server.URL)
	if err := s.SyncPatient(context.Background(), model.Patient{ID: "p1"}, "update"); err == nil {
		t.Error("expected error on non-2xx webhook response")
	}
}

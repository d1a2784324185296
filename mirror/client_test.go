package mirror

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alsayerclinic/clinic-api/model"
)

func envelopeJSON(data interface{}) []byte {
	body, _ := json.Marshal(map[string]interface{}{
		"success": true,
		"error":   "",
		"msg":     "ok",
		"data":    data,
	})
	return body
}

func TestAPIClientListPatients(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/patients" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write(envelopeJSON(map[string]interface{}{
			"total": 2,
			"patients": []model.Patient{
				{ID: "p1", PatientName: "First"},
				{ID: "p2", PatientName: "Second"},
			},
		}))
	}))
	defer server.Close()

	client := NewAPIClient(server.URL)
	patients, err := client.ListPatients(context.Background())
	if err != nil {
		t.Fatalf("ListPatients: %v", err)
	}
	if len(patients) != 2 || patients[0].ID != "p1" {
		t.Errorf("unexpected patient list: %v", patients)
	}
}

func TestAPIClientCreatePatient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/patients" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var draft model.Patient
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			t.Errorf("decode draft: %v", err)
		}
		draft.ID = "server-assigned"
		w.WriteHeader(http.StatusCreated)
		w.Write(envelopeJSON(draft))
	}))
	defer server.Close()

	client := NewAPIClient(server.URL)
	created, err := client.CreatePatient(context.Background(), model.Patient{PatientName: "Ali"})
	if err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}
	if created.ID != "server-assigned" || created.PatientName != "Ali" {
		t.Errorf("unexpected created record: %+v", created)
	}
}

func TestAPIClientDeletePatientNoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/patients/p1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewAPIClient(server.URL)
	if err := client.DeletePatient(context.Background(), "p1"); err != nil {
		t.Errorf("DeletePatient: %v", err)
	}
}

func TestAPIClientSurfacesServerRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		body, _ := json.Marshal(map[string]interface{}{
			"success": false,
			"error":   "record not found",
			"msg":     "Patient not found",
			"data":    map[string]interface{}{},
		})
		w.Write(body)
	}))
	defer server.Close()

	client := NewAPIClient(server.URL)
	_, err := client.UpdatePatient(context.Background(), "no-such-id", model.UpdatePatientRequest{})
	if err == nil {
		t.Fatal("expected error from 404 response")
	}
}

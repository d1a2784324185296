package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alsayerclinic/clinic-api/config"
	"github.com/alsayerclinic/clinic-api/model"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SyncMethod names one of the closed set of spreadsheet sync variants.
type SyncMethod string

const (
	SyncWebhook        SyncMethod = "webhook"
	SyncServiceAccount SyncMethod = "service_account"
	SyncOAuth          SyncMethod = "oauth"
	SyncDisabled       SyncMethod = "disabled"
)

// Spreadsheet layout used by the API-backed sync variants.
const (
	sheetTitle = "المرضى"
	sheetRange = sheetTitle + "!A:U"
)

// SheetsSync mirrors patient records into the configured spreadsheet target.
// One variant is resolved at startup and used for the process lifetime.
type SheetsSync interface {
	Method() SyncMethod
	SyncPatient(ctx context.Context, patient model.Patient, action string) error
	DeletePatient(ctx context.Context, patientID string) error
	SyncAll(ctx context.Context, patients []model.Patient) error
}

// ResolveSheetsSync selects the sync variant from configuration, by fixed
// precedence: webhook URL, then service-account key, then OAuth token, else
// disabled. Credentials are turned into a token source here, once; no
// module-level token cache exists.
func ResolveSheetsSync(ctx context.Context, cfg *config.Config) (SheetsSync, error) {
	switch {
	case cfg.SheetsWebhookURL != "":
		return NewWebhookSync(cfg.SheetsWebhookURL), nil
	case cfg.SheetsServiceAccountKey != "":
		jwtCfg, err := google.JWTConfigFromJSON([]byte(cfg.SheetsServiceAccountKey), sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("parse service account key: %w", err)
		}
		return NewAPISync(ctx, jwtCfg.TokenSource(ctx), cfg.SpreadsheetID)
	case cfg.SheetsOAuthToken != "":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.SheetsOAuthToken})
		s, err := NewAPISync(ctx, ts, cfg.SpreadsheetID)
		if err != nil {
			return nil, err
		}
		s.method = SyncOAuth
		return s, nil
	default:
		return disabledSync{}, nil
	}
}

// disabledSync drops every sync request.
type disabledSync struct{}

func (disabledSync) Method() SyncMethod { return SyncDisabled }
func (disabledSync) SyncPatient(context.Context, model.Patient, string) error {
	return nil
}
func (disabledSync) DeletePatient(context.Context, string) error   { return nil }
func (disabledSync) SyncAll(context.Context, []model.Patient) error { return nil }

// WebhookSync posts row payloads to an Apps Script style webhook. This is the
// variant for deployments without Google Cloud credentials.
type WebhookSync struct {
	url    string
	client *http.Client
}

func NewWebhookSync(url string) *WebhookSync {
	return &WebhookSync{
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *WebhookSync) Method() SyncMethod { return SyncWebhook }

func (s *WebhookSync) SyncPatient(ctx context.Context, patient model.Patient, action string) error {
	return s.post(ctx, patientWebhookData(patient, action))
}

func (s *WebhookSync) DeletePatient(ctx context.Context, patientID string) error {
	return s.post(ctx, map[string]interface{}{
		"action": "delete",
		"id":     patientID,
	})
}

func (s *WebhookSync) SyncAll(ctx context.Context, patients []model.Patient) error {
	rows := make([]map[string]interface{}, 0, len(patients))
	for _, p := range patients {
		rows = append(rows, patientWebhookData(p, "create"))
	}
	return s.post(ctx, map[string]interface{}{
		"action":   "sync_all",
		"patients": rows,
	})
}

func (s *WebhookSync) post(ctx context.Context, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded with status %d", resp.StatusCode)
	}
	return nil
}

func yesNoArabic(v bool) string {
	if v {
		return "نعم"
	}
	return "لا"
}

func patientWebhookData(p model.Patient, action string) map[string]interface{} {
	remaining := p.TotalAmount - p.TotalReceived

	return map[string]interface{}{
		"action":            action,
		"id":                p.ID,
		"patientName":       p.PatientName,
		"age":               p.Age,
		"residence":         p.Residence,
		"phone":             p.Phone,
		"doctorName":        p.DoctorName,
		"diagnosis":         p.Diagnosis,
		"doctorRequest":     p.DoctorRequest,
		"hasSurgery":        yesNoArabic(p.HasSurgery),
		"surgeryType":       p.SurgeryType,
		"careType":          careTypeArabic(p.CareType),
		"sessionCount":      p.SessionCount,
		"sessionPrice":      p.SessionPrice,
		"aidType":           p.AidType,
		"aidPrice":          p.AidPrice,
		"dietPlan":          dietPlanDisplay(p),
		"otherServiceType":  otherServiceDisplay(p),
		"otherServicePrice": p.OtherServicePrice,
		"totalAmount":       p.TotalAmount,
		"totalReceived":     p.TotalReceived,
		"remaining":         remaining,
		"createdAt":         p.CreatedAt.Format(time.RFC3339),
	}
}

func dietPlanDisplay(p model.Patient) string {
	if p.HasDiet {
		return p.DietPlan
	}
	return ""
}

func otherServiceDisplay(p model.Patient) string {
	if p.HasOtherServices {
		return p.OtherServiceType
	}
	return ""
}

// APISync writes directly to a Google spreadsheet through the Sheets API.
// Both the service-account and OAuth variants use it; they differ only in
// the injected token source.
type APISync struct {
	method        SyncMethod
	spreadsheetID string
	svc           *sheets.Service
}

// NewAPISync builds the Sheets API client from an injectable token source.
// Token refresh and expiry live in the token source, not here.
func NewAPISync(ctx context.Context, ts oauth2.TokenSource, spreadsheetID string) (*APISync, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required for API sync")
	}
	svc, err := sheets.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	return &APISync{method: SyncServiceAccount, spreadsheetID: spreadsheetID, svc: svc}, nil
}

func (s *APISync) Method() SyncMethod { return s.method }

func patientToRow(p model.Patient) []interface{} {
	remaining := p.TotalAmount - p.TotalReceived

	return []interface{}{
		p.ID,
		p.PatientName,
		p.Age,
		p.Residence,
		p.Phone,
		p.DoctorName,
		p.Diagnosis,
		p.DoctorRequest,
		yesNoArabic(p.HasSurgery),
		p.SurgeryType,
		careTypeArabic(p.CareType),
		p.SessionCount,
		p.SessionPrice,
		p.AidType,
		p.AidPrice,
		dietPlanDisplay(p),
		otherServiceDisplay(p),
		p.OtherServicePrice,
		p.TotalAmount,
		p.TotalReceived,
		remaining,
	}
}

// findPatientRow scans column A for the patient id. Returns the 1-based row
// number, or 0 when not present. Row 1 is the header.
func (s *APISync) findPatientRow(ctx context.Context, patientID string) (int, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, sheetTitle+"!A:A").Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	for i := 1; i < len(resp.Values); i++ {
		if len(resp.Values[i]) > 0 && fmt.Sprint(resp.Values[i][0]) == patientID {
			return i + 1, nil
		}
	}
	return 0, nil
}

func (s *APISync) SyncPatient(ctx context.Context, patient model.Patient, action string) error {
	rowNum, err := s.findPatientRow(ctx, patient.ID)
	if err != nil {
		return err
	}

	values := &sheets.ValueRange{Values: [][]interface{}{patientToRow(patient)}}

	if rowNum > 0 {
		rng := fmt.Sprintf("%s!A%d:U%d", sheetTitle, rowNum, rowNum)
		_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, values).
			ValueInputOption("RAW").Context(ctx).Do()
		return err
	}

	_, err = s.svc.Spreadsheets.Values.Append(s.spreadsheetID, sheetRange, values).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (s *APISync) DeletePatient(ctx context.Context, patientID string) error {
	rowNum, err := s.findPatientRow(ctx, patientID)
	if err != nil {
		return err
	}
	if rowNum == 0 {
		return nil
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    0,
					Dimension:  "ROWS",
					StartIndex: int64(rowNum - 1),
					EndIndex:   int64(rowNum),
				},
			},
		}},
	}
	_, err = s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
	return err
}

func (s *APISync) SyncAll(ctx context.Context, patients []model.Patient) error {
	// Rewrite everything below the header.
	_, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, sheetTitle+"!A2:U", &sheets.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return err
	}

	if len(patients) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(patients))
	for _, p := range patients {
		rows = append(rows, patientToRow(p))
	}

	_, err = s.svc.Spreadsheets.Values.Append(s.spreadsheetID, sheetRange, &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

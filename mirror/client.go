package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alsayerclinic/clinic-api/model"
)

// APIClient is the HTTP implementation of PatientService, speaking the
// clinic API's response envelope.
type APIClient struct {
	baseURL string
	client  *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

type patientListData struct {
	Total    int             `json:"total"`
	Patients []model.Patient `json:"patients"`
}

func (c *APIClient) ListPatients(ctx context.Context) ([]model.Patient, error) {
	envelope, err := c.do(ctx, http.MethodGet, "/api/patients", nil)
	if err != nil {
		return nil, err
	}

	var data patientListData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("decode patient list: %w", err)
	}
	return data.Patients, nil
}

func (c *APIClient) CreatePatient(ctx context.Context, draft model.Patient) (model.Patient, error) {
	envelope, err := c.do(ctx, http.MethodPost, "/api/patients", draft)
	if err != nil {
		return model.Patient{}, err
	}

	var created model.Patient
	if err := json.Unmarshal(envelope.Data, &created); err != nil {
		return model.Patient{}, fmt.Errorf("decode created patient: %w", err)
	}
	return created, nil
}

func (c *APIClient) UpdatePatient(ctx context.Context, id string, update model.UpdatePatientRequest) (model.Patient, error) {
	envelope, err := c.do(ctx, http.MethodPatch, "/api/patients/"+id, update)
	if err != nil {
		return model.Patient{}, err
	}

	var updated model.Patient
	if err := json.Unmarshal(envelope.Data, &updated); err != nil {
		return model.Patient{}, fmt.Errorf("decode updated patient: %w", err)
	}
	return updated, nil
}

func (c *APIClient) DeletePatient(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/patients/"+id, nil)
	return err
}

func (c *APIClient) do(ctx context.Context, method, path string, payload interface{}) (*apiEnvelope, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return &apiEnvelope{Success: true}, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode response (%d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if envelope.Msg != "" {
			return nil, fmt.Errorf("server rejected request (%d): %s", resp.StatusCode, envelope.Msg)
		}
		return nil, fmt.Errorf("server rejected request (%d)", resp.StatusCode)
	}

	return &envelope, nil
}

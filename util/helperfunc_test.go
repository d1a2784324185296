package util

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func testContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rr := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rr)
	return c, rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestCallErrorNotFound(t *testing.T) {
	c, rr := testContext()
	CallErrorNotFound(c, APIErrorParams{Msg: "Patient not found", Err: errors.New("record not found")})

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
	resp := decodeResponse(t, rr)
	if resp.Success {
		t.Error("expected success=false")
	}
	if resp.Msg != "Patient not found" {
		t.Errorf("unexpected msg %q", resp.Msg)
	}
	if resp.Error != "record not found" {
		t.Errorf("unexpected error %q", resp.Error)
	}
}

func TestCallUserError(t *testing.T) {
	c, rr := testContext()
	CallUserError(c, APIErrorParams{Msg: "Invalid payload", Err: errors.New("age out of range")})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}

func TestCallServerError(t *testing.T) {
	c, rr := testContext()
	CallServerError(c, APIErrorParams{Msg: "boom", Err: errors.New("db down")})

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rr.Code)
	}
}

func TestCallSuccessOK(t *testing.T) {
	c, rr := testContext()
	CallSuccessOK(c, APISuccessParams{Msg: "done", Data: map[string]interface{}{"total": 1}})

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
	resp := decodeResponse(t, rr)
	if !resp.Success {
		t.Error("expected success=true")
	}
	if resp.Msg != "done" {
		t.Errorf("unexpected msg %q", resp.Msg)
	}
}

func TestCallSuccessCreated(t *testing.T) {
	c, rr := testContext()
	CallSuccessCreated(c, APISuccessParams{Msg: "created", Data: map[string]interface{}{"id": "p1"}})

	if rr.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rr.Code)
	}
}

func TestCallSuccessNoContent(t *testing.T) {
	c, rr := testContext()
	CallSuccessNoContent(c)

	if rr.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rr.Body.String())
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Ali Hassan", "Ali Hassan"},
		{"  Ali Hassan  ", "Ali Hassan"},
		{"Ali    Hassan", "Ali Hassan"},
		{" Ali \t Hassan ", "Ali Hassan"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.input); got != tt.expected {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

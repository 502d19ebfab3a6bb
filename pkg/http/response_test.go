package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "glec/pkg/errors"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return body
}

func TestWriteError_LocalizedEnvelope(t *testing.T) {
	tests := []struct {
		name       string
		lang       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "korean default",
			err:        apperrors.SlotNotAvailable(),
			wantStatus: http.StatusConflict,
			wantCode:   apperrors.CodeSlotNotAvailable,
			wantMsg:    "선택하신 시간은",
		},
		{
			name:       "english",
			lang:       "en-US",
			err:        apperrors.TokenExpired(),
			wantStatus: http.StatusGone,
			wantCode:   apperrors.CodeTokenExpired,
			wantMsg:    "expired",
		},
		{
			name:       "plain error hides cause",
			lang:       "en",
			err:        errors.New("mongo: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   apperrors.CodeInternal,
			wantMsg:    "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.lang != "" {
				req.Header.Set("Accept-Language", tt.lang)
			}
			rec := httptest.NewRecorder()

			if err := WriteError(rec, req, tt.err); err != nil {
				t.Fatalf("WriteError: %v", err)
			}

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			body := decodeEnvelope(t, rec)
			if body["success"] != false {
				t.Errorf("expected success=false, got %v", body["success"])
			}
			errObj, _ := body["error"].(map[string]any)
			if errObj["code"] != tt.wantCode {
				t.Errorf("expected code %s, got %v", tt.wantCode, errObj["code"])
			}
			if msg, _ := errObj["message"].(string); !strings.Contains(msg, tt.wantMsg) {
				t.Errorf("expected message containing %q, got %q", tt.wantMsg, msg)
			}
			if strings.Contains(rec.Body.String(), "connection refused") {
				t.Error("internal cause leaked into the response")
			}
		})
	}
}

func TestWriteSuccessAndCreated(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteCreated(rec, map[string]string{"booking_id": "b1"}); err != nil {
		t.Fatalf("WriteCreated: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	if body["success"] != true {
		t.Errorf("expected success=true, got %v", body["success"])
	}
	if data, _ := body["data"].(map[string]any); data["booking_id"] != "b1" {
		t.Errorf("expected booking_id b1, got %v", body["data"])
	}
	if _, ok := body["error"]; ok {
		t.Error("expected no error member on success")
	}
}

func TestWritePaginated(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WritePaginated(rec, []int{1, 2}, 7, 2, 4); err != nil {
		t.Fatalf("WritePaginated: %v", err)
	}

	data, _ := decodeEnvelope(t, rec)["data"].(map[string]any)
	if data["total_count"] != float64(7) || data["limit"] != float64(2) || data["offset"] != float64(4) {
		t.Errorf("unexpected pagination: %v", data)
	}
}

func TestExtractLimitOffset(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&offset=-3", nil)
	limit, offset, err := ExtractLimitOffset(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limit != 100 || offset != 0 {
		t.Errorf("expected clamped 100/0, got %d/%d", limit, offset)
	}

	_, _, err = ExtractLimitOffset(httptest.NewRequest(http.MethodGet, "/?limit=abc", nil))
	if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestExtractTime(t *testing.T) {
	got, err := ExtractTime(httptest.NewRequest(http.MethodGet, "/?from=2025-03-04T10:00:00Z", nil), "from")
	if err != nil || got == nil {
		t.Fatalf("expected a time, got %v, %v", got, err)
	}
	if got.Hour() != 10 {
		t.Errorf("expected hour 10, got %d", got.Hour())
	}

	got, err = ExtractTime(httptest.NewRequest(http.MethodGet, "/", nil), "from")
	if err != nil || got != nil {
		t.Errorf("expected nil for a missing parameter, got %v, %v", got, err)
	}

	if _, err = ExtractTime(httptest.NewRequest(http.MethodGet, "/?from=yesterday", nil), "from"); err == nil {
		t.Error("expected an error for an unparseable time")
	}
}

func TestDecodeJSON(t *testing.T) {
	var target struct {
		Token string `json:"token"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"token":"abc"}`))
	if err := DecodeJSON(req, &target); err != nil || target.Token != "abc" {
		t.Errorf("expected token abc, got %q, %v", target.Token, err)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"token":"abc","extra":1}`))
	if err := DecodeJSON(req, &target); err == nil {
		t.Error("expected unknown fields to be rejected")
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	if err := DecodeJSON(req, &target); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for an empty body, got %v", err)
	}
}

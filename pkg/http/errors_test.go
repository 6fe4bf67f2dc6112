package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	pkghttp "github.com/tberg/doorbell/pkg/http"
)

func TestWriteError_StatusAndBody(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter)
		wantStatus int
		wantCode   string
	}{
		{
			name:       "bad request",
			write:      func(w http.ResponseWriter) { pkghttp.WriteBadRequest(w, "nope") },
			wantStatus: http.StatusBadRequest,
			wantCode:   "bad_request",
		},
		{
			name:       "forbidden",
			write:      func(w http.ResponseWriter) { pkghttp.WriteForbidden(w, "nope") },
			wantStatus: http.StatusForbidden,
			wantCode:   "forbidden",
		},
		{
			name:       "not found",
			write:      func(w http.ResponseWriter) { pkghttp.WriteNotFound(w, "nope") },
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name:       "too many requests",
			write:      func(w http.ResponseWriter) { pkghttp.WriteTooManyRequests(w, "nope") },
			wantStatus: http.StatusTooManyRequests,
			wantCode:   "rate_limit_exceeded",
		},
		{
			name:       "internal error",
			write:      func(w http.ResponseWriter) { pkghttp.WriteInternalError(w, "nope") },
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content type = %q, want application/json", ct)
			}

			var resp pkghttp.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("body is not valid JSON: %v", err)
			}
			if resp.Error != tt.wantCode {
				t.Errorf("error code = %q, want %q", resp.Error, tt.wantCode)
			}
			if resp.Message != "nope" {
				t.Errorf("message = %q, want %q", resp.Message, "nope")
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	pkghttp.WriteJSON(rec, http.StatusOK, map[string]bool{"ok": true})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "{\"ok\":true}\n" {
		t.Errorf("body = %q, want {\"ok\":true}", got)
	}
}

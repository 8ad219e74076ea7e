package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAPIKeyAuth(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name       string
		configured string
		header     string
		wantStatus int
	}{
		{
			name:       "valid key",
			configured: "secret-key",
			header:     "Bearer secret-key",
			wantStatus: http.StatusOK,
		},
		{
			name:       "case-insensitive bearer scheme",
			configured: "secret-key",
			header:     "bearer secret-key",
			wantStatus: http.StatusOK,
		},
		{
			name:       "wrong key",
			configured: "secret-key",
			header:     "Bearer wrong-key",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing header",
			configured: "secret-key",
			header:     "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "bad format",
			configured: "secret-key",
			header:     "secret-key",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unconfigured key rejects everything",
			configured: "",
			header:     "Bearer anything",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := APIKeyAuth(tt.configured, logger)
			handler := mw(okHandler())

			req := httptest.NewRequest(http.MethodGet, "/api/export/cards", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

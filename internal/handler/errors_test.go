package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/studyshare/backend/internal/service"
)

func TestErrorResponder(t *testing.T) {
	cause := errors.New("disk full")

	tests := []struct {
		name        string
		isDev       bool
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "internal in production",
			err:         &service.Error{Kind: service.KindInternal, Message: "Failed to upload file", Err: cause},
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Internal Server Error",
		},
		{
			name:        "unclassified in production",
			err:         cause,
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Internal Server Error",
		},
		{
			name:        "internal in development",
			isDev:       true,
			err:         &service.Error{Kind: service.KindInternal, Message: "Failed to upload file", Err: cause},
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Failed to upload file: disk full",
		},
		{
			name:        "not found",
			err:         &service.Error{Kind: service.KindNotFound, Message: "File not found"},
			wantStatus:  http.StatusNotFound,
			wantMessage: "File not found",
		},
		{
			name:        "forbidden",
			err:         &service.Error{Kind: service.KindForbidden, Message: "You do not have permission to delete this file"},
			wantStatus:  http.StatusForbidden,
			wantMessage: "You do not have permission to delete this file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/files", nil)

			errorResponder{isDev: tt.isDev}.write(rec, req, tt.err)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			var body struct {
				Error string `json:"error"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body.Error != tt.wantMessage {
				t.Fatalf("expected %q, got %q", tt.wantMessage, body.Error)
			}
		})
	}
}

package errors_test

import (
	"net/http"
	"testing"

	uierrors "github.com/dalemusser/workhub/internal/app/features/errors"
	"github.com/dalemusser/workhub/internal/testutil"
	"github.com/go-chi/chi/v5"
)

func TestRouterErrors(t *testing.T) {
	h := uierrors.NewHandler()
	r := chi.NewRouter()
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)
	r.Get("/things", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantCode   string
	}{
		{"unknown path", http.MethodGet, "/nope", http.StatusNotFound, "NOT_FOUND"},
		{"wrong method", http.MethodPost, "/things", http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			r.ServeHTTP(rec, testutil.NewRequest(tt.method, tt.path))
			rec.AssertStatus(t, tt.wantStatus)
			if code := rec.ErrorCode(t); code != tt.wantCode {
				t.Errorf("error code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}

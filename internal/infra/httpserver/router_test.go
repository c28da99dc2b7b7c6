package httpserver

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	domai "github.com/bryanwahyu/rootcause/internal/domain/ai"
	domain "github.com/bryanwahyu/rootcause/internal/domain/analyses"
)

func TestWrapErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", fmt.Errorf("%w: analysis a-1", domain.ErrNotFound), http.StatusNotFound},
		{"denied", fmt.Errorf("%w: nope", domain.ErrDenied), http.StatusForbidden},
		{"invalid state", fmt.Errorf("%w: cannot submit", domain.ErrInvalidState), http.StatusConflict},
		{"stale write", domain.ErrStaleState, http.StatusConflict},
		{"validation", fmt.Errorf("%w: bad payload", domain.ErrValidation), http.StatusUnprocessableEntity},
		{"quota", domai.ErrQuotaExceeded, http.StatusTooManyRequests},
		{"external", fmt.Errorf("%w: provider down", domain.ErrExternalService), http.StatusBadGateway},
		{"unknown", fmt.Errorf("disk full"), http.StatusInternalServerError},
	}

	r := &Router{}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := r.wrap(func(w http.ResponseWriter, req *http.Request) error {
				if tc.err == nil {
					w.WriteHeader(http.StatusOK)
				}
				return tc.err
			})
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/analyses/a-1", nil))
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

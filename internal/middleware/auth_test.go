package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/rootcause/internal/domain/auth"
)

func actorEcho(t *testing.T, captured *auth.Actor) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a, ok := ActorFromContext(r.Context())
		if ok {
			*captured = a
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestActorAuth(t *testing.T) {
	var captured auth.Actor
	handler := ActorAuth("secret-token")(actorEcho(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/v1/analyses/a-1", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	req.Header.Set("X-Actor-Id", "emp-1")
	req.Header.Set("X-Actor-Role", "employee")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "emp-1", captured.ID)
	assert.Equal(t, auth.RoleEmployee, captured.Role)
}

func TestActorAuthRejects(t *testing.T) {
	handler := ActorAuth("secret-token")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	cases := []struct {
		name    string
		headers map[string]string
	}{
		{"no token", map[string]string{"X-Actor-Id": "emp-1", "X-Actor-Role": "EMPLOYEE"}},
		{"wrong token", map[string]string{"Authorization": "Bearer nope", "X-Actor-Id": "emp-1", "X-Actor-Role": "EMPLOYEE"}},
		{"missing actor", map[string]string{"Authorization": "Bearer secret-token", "X-Actor-Role": "EMPLOYEE"}},
		{"bad role", map[string]string{"Authorization": "Bearer secret-token", "X-Actor-Id": "emp-1", "X-Actor-Role": "ROOT"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/analyses/a-1", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestActorAuthSkipsHealth(t *testing.T) {
	reached := false
	handler := ActorAuth("secret-token")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.True(t, reached)
}

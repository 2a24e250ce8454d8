package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devops-thiago/otel-example-go/internal/repository/memory"
	"github.com/devops-thiago/otel-example-go/internal/service"
)

func newTestServer(pingErr error) *httptest.Server {
	svc := service.NewUserService(memory.NewMemoryRepository(), zap.NewNop())
	handler := NewHandler(svc, zap.NewNop())
	health := NewHealthHandler(func(context.Context) error { return pingErr }, zap.NewNop())
	return httptest.NewServer(NewRouter(handler, health))
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestCreateUser(t *testing.T) {
	srv := newTestServer(nil)
	defer srv.Close()

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/users", CreateUserRequest{
		Name:  "John Doe",
		Email: "john@example.com",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	user := decode[UserResponse](t, resp)
	require.Equal(t, int64(1), user.ID)
	require.Equal(t, "John Doe", user.Name)
	require.Equal(t, "john@example.com", user.Email)
	require.False(t, user.CreatedAt.IsZero())
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	srv := newTestServer(nil)
	defer srv.Close()

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/users", CreateUserRequest{Name: "John", Email: "john@example.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/users", CreateUserRequest{Name: "Johnny", Email: "john@example.com"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateUser_InvalidPayload(t *testing.T) {
	srv := newTestServer(nil)
	defer srv.Close()

	tests := []struct {
		name string
		body any
	}{
		{"missing name", map[string]string{"email": "john@example.com"}},
		{"bad email", map[string]string{"name": "John", "email": "not-an-email"}},
		{"empty body", map[string]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, srv.URL+"/api/users", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
			resp.Body.Close()
		})
	}
}

func TestGetUser_NotFound(t *testing.T) {
	srv := newTestServer(nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/users/42")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestGetUser_BadID(t *testing.T) {
	srv := newTestServer(nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/users/abc")
	require.NoError(t, err)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()
}

func TestListUsers(t *testing.T) {
	srv := newTestServer(nil)
	defer srv.Close()

	for _, email := range []string{"a@example.com", "b@example.com"} {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/users", CreateUserRequest{Name: "User", Email: email})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp, err := http.Get(srv.URL + "/api/users")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	list := decode[UserListResponse](t, resp)
	require.Equal(t, 2, list.Total)
	require.Len(t, list.Users, 2)
}

func TestUpdateUser(t *testing.T) {
	srv := newTestServer(nil)
	defer srv.Close()

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/users", CreateUserRequest{Name: "John", Email: "john@example.com"})
	created := decode[UserResponse](t, resp)

	bio := "Senior Software Engineer"
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/users/1", UpdateUserRequest{Bio: &bio})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	updated := decode[UserResponse](t, resp)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, "John", updated.Name)
	require.NotNil(t, updated.Bio)
	require.Equal(t, bio, *updated.Bio)
}

func TestUpdateUser_NotFound(t *testing.T) {
	srv := newTestServer(nil)
	defer srv.Close()

	name := "Ghost"
	resp := doJSON(t, http.MethodPut, srv.URL+"/api/users/99", UpdateUserRequest{Name: &name})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestDeleteUser(t *testing.T) {
	srv := newTestServer(nil)
	defer srv.Close()

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/users", CreateUserRequest{Name: "John", Email: "john@example.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/users/1", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestHealth(t *testing.T) {
	srv := newTestServer(nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[map[string]string](t, resp)
	require.Equal(t, "healthy", body["status"])
}

func TestReady(t *testing.T) {
	t.Run("database connected", func(t *testing.T) {
		srv := newTestServer(nil)
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/ready")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decode[map[string]string](t, resp)
		require.Equal(t, "ready", body["status"])
		require.Equal(t, "connected", body["database"])
	})

	t.Run("database disconnected", func(t *testing.T) {
		srv := newTestServer(errors.New("connection refused"))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/ready")
		require.NoError(t, err)
		require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		body := decode[map[string]string](t, resp)
		require.Equal(t, "not ready", body["status"])
		require.Equal(t, "disconnected", body["database"])
		require.Contains(t, body["error"], "connection refused")
	})
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[map[string]string](t, resp)
	require.Equal(t, "metrics_enabled", body["status"])
	require.Equal(t, "otlp", body["exporter"])
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/permguard/middleware"
	"github.com/upb/permguard/models"
	"github.com/upb/permguard/rbac"
	"github.com/upb/permguard/session"
	"go.uber.org/zap"
)

func TestHandleMe(t *testing.T) {
	h := NewUserHandler(nil, testStore(), zap.NewNop())

	t.Run("describes the caller", func(t *testing.T) {
		expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
		s := &session.Session{
			User:    &session.User{ID: "u1", Role: models.RoleModerator, Status: "ACTIVE"},
			Expires: expires,
		}
		req := httptest.NewRequest(http.MethodGet, "/me", nil).
			WithContext(middleware.WithSession(context.Background(), s))
		w := httptest.NewRecorder()

		h.HandleMe(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var response struct {
			Data MeResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "u1", response.Data.User.ID)
		assert.Equal(t, models.DefaultRolePermissions().PermissionsFor(models.RoleModerator), response.Data.Permissions)
		require.NotNil(t, response.Data.Expires)
		assert.True(t, expires.Equal(*response.Data.Expires))
	})

	t.Run("unknown role has no permissions", func(t *testing.T) {
		s := &session.Session{User: &session.User{ID: "u2", Role: "GUEST"}}
		req := httptest.NewRequest(http.MethodGet, "/me", nil).
			WithContext(middleware.WithSession(context.Background(), s))
		w := httptest.NewRecorder()

		h.HandleMe(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var response struct {
			Data MeResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, []rbac.Permission{}, response.Data.Permissions)
		assert.Nil(t, response.Data.Expires)
	})

	t.Run("no session", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.HandleMe(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHandleUpdateStatus_RequestErrors(t *testing.T) {
	h := NewUserHandler(nil, testStore(), zap.NewNop())
	r := chi.NewRouter()
	r.Post("/users/{id}/status", h.HandleUpdateStatus)

	tests := []struct {
		name   string
		id     string
		body   string
		status int
	}{
		{"malformed id", "abc", `{"status":"BANNED"}`, http.StatusBadRequest},
		{"unknown status", uuid.NewString(), `{"status":"DELETED"}`, http.StatusBadRequest},
		{"missing status", uuid.NewString(), `{}`, http.StatusBadRequest},
		{"empty body", uuid.NewString(), ``, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/users/"+tt.id+"/status", strings.NewReader(tt.body)))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/ascend-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/ascend-engine/internal/config"
	"github.com/comitanigiacomo/ascend-engine/internal/core/services"
)

const e2eUser = "climber-e2e"

type sessionResponse struct {
	ID         string `json:"id"`
	Discipline string `json:"discipline"`
	Grade      string `json:"grade"`
	Version    int    `json:"version"`
}

func setupTestDB(t *testing.T) (*sqlx.DB, config.Config) {
	t.Helper()

	cfg := config.Load()
	cfg.JWTSecret = "e2e-secret"
	cfg.RedisHost = ""

	db, err := sqlx.Connect("pgx", cfg.DatabaseURL())
	if err != nil {
		t.Skipf("Skipping e2e test (DB down): %v", err)
	}

	ctx := context.Background()
	require.NoError(t, repository.EnsureSchema(ctx, db))
	_, err = db.ExecContext(ctx, "DELETE FROM climb_sessions WHERE user_id = $1", e2eUser)
	require.NoError(t, err)

	return db, cfg
}

func TestEndToEnd_SessionLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db, cfg := setupTestDB(t)
	defer db.Close()

	router, worker := newServer(cfg, db, nil, time.Now())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	token, err := services.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL).GenerateToken(e2eUser)
	require.NoError(t, err)

	call := func(method, path string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	var created sessionResponse

	t.Run("1. Health", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("2. Create Session", func(t *testing.T) {
		w := call(http.MethodPost, "/api/v1/sessions", gin.H{
			"discipline": "BOULDER", "grade": "V5", "date": "2025-03-01", "sent": true, "notes": "board night",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, 1, created.Version)
	})

	t.Run("3. Patch Session", func(t *testing.T) {
		w := call(http.MethodPatch, "/api/v1/sessions/"+created.ID, gin.H{"grade": "V7", "version": created.Version})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var patched sessionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &patched))
		assert.Equal(t, "V7", patched.Grade)
		assert.Equal(t, 2, patched.Version)
	})

	t.Run("4. Stale Write Conflicts", func(t *testing.T) {
		w := call(http.MethodPatch, "/api/v1/sessions/"+created.ID, gin.H{"grade": "V8", "version": 1})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("5. Analytics Reflect The Patch", func(t *testing.T) {
		w := call(http.MethodGet, "/api/v1/sessions/stats/highest", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			HighestGrades map[string]*string `json:"highest_grades"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.NotNil(t, body.HighestGrades["BOULDER"])
		assert.Equal(t, "V7", *body.HighestGrades["BOULDER"])
		assert.Nil(t, body.HighestGrades["LEAD"])
	})

	t.Run("6. Delete Session", func(t *testing.T) {
		w := call(http.MethodDelete, "/api/v1/sessions/"+created.ID, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = call(http.MethodGet, "/api/v1/sessions/"+created.ID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("7. Sync Reports The Tombstone", func(t *testing.T) {
		w := call(http.MethodGet, "/api/v1/sessions/sync?since=2000-01-01T00:00:00Z", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), created.ID)
		assert.Contains(t, w.Body.String(), "deleted_at")
	})
}

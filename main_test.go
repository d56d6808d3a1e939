package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nurpratapkarki/realEstateWeb/v1/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	t.Run("healthy database", func(t *testing.T) {
		db := services.SetupSQLiteTestDB(t)

		w := httptest.NewRecorder()
		healthHandler(db, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var body healthStatus
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "healthy", body.Status)
		assert.Equal(t, "healthy", body.Dependencies["database"].Status)
		assert.NotContains(t, body.Dependencies, "redis")
	})

	t.Run("closed database", func(t *testing.T) {
		db := services.SetupSQLiteTestDB(t)
		sqlDB, err := db.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())

		w := httptest.NewRecorder()
		healthHandler(db, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var body healthStatus
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "unhealthy", body.Status)
		assert.NotEmpty(t, body.Dependencies["database"].Error)
	})
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.raw))
		})
	}
}

func TestParseHeaderList(t *testing.T) {
	assert.Empty(t, parseHeaderList(""))
	assert.Equal(t,
		map[string]string{"api-key": "secret", "tenant": "catalog"},
		parseHeaderList(" api-key = secret ,tenant=catalog,broken,=nokey"))
}

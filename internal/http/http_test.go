package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHealthHandler(t *testing.T) {
	server := NewServer(nil, "localhost", 8080, testLogger(), RouterDeps{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	server.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
}

func TestReadinessHandler_NoDatabase(t *testing.T) {
	server := NewServer(nil, "localhost", 8080, testLogger(), RouterDeps{})

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	server.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "not_ready", response.Status)
	assert.Equal(t, "error", response.Components["database"])
}

func TestCustomLoggerMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(CustomLoggerMiddleware(testLogger()))
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping?debug=1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "Empty",
			input: "",
			want:  nil,
		},
		{
			name:  "Single",
			input: "https://app.example.com",
			want:  []string{"https://app.example.com"},
		},
		{
			name:  "MultipleWithWhitespace",
			input: "https://a.example.com, https://b.example.com ,https://c.example.com",
			want:  []string{"https://a.example.com", "https://b.example.com", "https://c.example.com"},
		},
		{
			name:  "OnlyCommas",
			input: ",,,",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseOrigins(tt.input)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreateCORSMiddleware(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		assert.Nil(t, createCORSMiddleware(false, "https://app.example.com", testLogger()))
	})

	t.Run("EnabledWithoutOrigins", func(t *testing.T) {
		assert.Nil(t, createCORSMiddleware(true, "", testLogger()))
	})

	t.Run("Enabled", func(t *testing.T) {
		assert.NotNil(t, createCORSMiddleware(true, "https://app.example.com", testLogger()))
	})
}

func TestMetricsServer_NoProvider(t *testing.T) {
	server := NewMetricsServer("localhost", 8081, testLogger(), nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	server.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

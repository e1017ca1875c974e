package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"speech-rehearsal-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }
	down := func(ctx context.Context) error { return errors.New("dial tcp: connection refused") }

	tests := []struct {
		name     string
		checks   map[string]HealthCheck
		wantCode int
		wantData map[string]string
	}{
		{
			name:     "no dependencies",
			checks:   nil,
			wantCode: http.StatusOK,
			wantData: nil,
		},
		{
			name:     "all healthy",
			checks:   map[string]HealthCheck{"database": ok, "redis": ok},
			wantCode: http.StatusOK,
			wantData: map[string]string{"database": "ok", "redis": "ok"},
		},
		{
			name:     "redis down",
			checks:   map[string]HealthCheck{"database": ok, "redis": down},
			wantCode: http.StatusServiceUnavailable,
			wantData: map[string]string{"database": "ok", "redis": "dial tcp: connection refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			NewHealthController(tt.checks).RegisterRoutes(app)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)

			var body serverutils.BaseResponse[map[string]string]
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantCode == http.StatusOK, body.Success)
			assert.Equal(t, tt.wantData, body.Data)
		})
	}
}

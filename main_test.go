package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clientes/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(driver, dsn string) *config.Config {
	return &config.Config{
		App:      config.AppConfig{Port: ":0", Env: "test", LogLevel: "error"},
		Database: config.DatabaseConfig{Driver: driver, DSN: dsn},
		Auth:     config.AuthConfig{JWTSecret: "test_jwt_secret", TokenTTL: time.Hour, AllowSignup: true},
		Address: config.AddressConfig{
			ViaCEPBaseURL: "http://127.0.0.1:0",
			Timeout:       time.Second,
			CacheTTL:      time.Minute,
		},
		Customer: config.CustomerConfig{AllowOwnEmailOnEdit: true},
	}
}

func TestNewApp(t *testing.T) {
	for _, tc := range []struct{ driver, dsn string }{
		{"memory", ""},
		{"sqlite", "file:main_test?mode=memory&cache=shared"},
	} {
		t.Run(tc.driver, func(t *testing.T) {
			app, err := newApp(testConfig(tc.driver, tc.dsn), zap.NewNop())
			require.NoError(t, err)
			defer app.Shutdown()

			// --- Test Health Endpoint ---
			resp, err := app.fiber.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body), "\"status\":\"healthy\"")
			assert.Contains(t, string(body), "\"rabbitMQ\":\"disabled\"")
			assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

			// --- Test Unauthenticated Access ---
			resp, err = app.fiber.Test(httptest.NewRequest(http.MethodGet, "/api/v1/customers", nil), -1)
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestNewAppRejectsUnknownDriver(t *testing.T) {
	_, err := newApp(testConfig("mongo", "x"), zap.NewNop())
	assert.Error(t, err)
}

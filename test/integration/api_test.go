// Package integration provides end-to-end tests of the texts API. Each test
// drives a real container behind a TLS test server with the Go client, once
// per storage driver. The postgres and mysql runs are skipped when their test
// database is not reachable.
package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/textdrop/internal/app"
	"github.com/allisson/textdrop/internal/client"
	"github.com/allisson/textdrop/internal/config"
	"github.com/allisson/textdrop/internal/envelope"
	"github.com/allisson/textdrop/internal/testutil"
	"github.com/allisson/textdrop/internal/validation"
)

// integrationTestContext holds all dependencies and state for integration testing.
type integrationTestContext struct {
	container *app.Container
	db        *sql.DB
	server    *httptest.Server
	client    *client.Client
	driver    string
}

// setupIntegrationTest initializes a container for driver and serves it over TLS.
func setupIntegrationTest(t *testing.T, driver string) *integrationTestContext {
	t.Helper()

	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		ServerHost:              "localhost",
		ServerPort:              8080,
		ShutdownTimeout:         5 * time.Second,
		MaxRequestBytes:         8 << 20,
		LogLevel:                "error",
		ServerSecret:            "integration-server-secret",
		StorageDriver:           driver,
		StorageDir:              t.TempDir(),
		StorageAlgorithm:        "chacha20-poly1305",
		BlobBucketURL:           "mem://",
		MaxPayloadChars:         envelope.MaxEnvelopeLen,
		RateLimitEnabled:        true,
		RateLimitRequestsPerSec: 1000,
		RateLimitBurst:          1000,
		DBMaxOpenConnections:    10,
		DBMaxIdleConnections:    5,
		DBConnMaxLifetime:       time.Hour,
	}

	var db *sql.DB
	switch driver {
	case config.StorageDriverPostgres:
		testutil.SkipIfNoPostgres(t)
		db = testutil.SetupPostgresDB(t)
		cfg.DBConnectionString = testutil.GetPostgresTestDSN()
	case config.StorageDriverMySQL:
		testutil.SkipIfNoMySQL(t)
		db = testutil.SetupMySQLDB(t)
		cfg.DBConnectionString = testutil.GetMySQLTestDSN()
	}

	container := app.NewContainer(cfg)

	httpSrv, err := container.HTTPServer()
	require.NoError(t, err, "failed to get HTTP server")

	handler := httpSrv.GetHandler()
	require.NotNil(t, handler, "handler should not be nil after SetupRouter")

	testServer := httptest.NewTLSServer(handler)

	textClient, err := client.New(client.Config{
		BaseURL:    testServer.URL,
		HTTPClient: testServer.Client(),
		// Fewer iterations keep the suite fast; both sides use the same codec.
		Codec: &envelope.Codec{Iterations: 1000},
	})
	require.NoError(t, err, "failed to create client")

	return &integrationTestContext{
		container: container,
		db:        db,
		server:    testServer,
		client:    textClient,
		driver:    driver,
	}
}

// teardownIntegrationTest cleans up all resources.
func teardownIntegrationTest(t *testing.T, ctx *integrationTestContext) {
	t.Helper()

	if ctx.server != nil {
		ctx.server.Close()
	}

	if ctx.container != nil {
		if err := ctx.container.Shutdown(context.Background()); err != nil {
			t.Logf("Warning: container shutdown error: %v", err)
		}
	}

	if ctx.db != nil {
		testutil.TeardownDB(t, ctx.db)
	}
}

var drivers = []string{
	config.StorageDriverFilesystem,
	config.StorageDriverBlob,
	config.StorageDriverPostgres,
	config.StorageDriverMySQL,
}

// TestIntegration_Health_BasicChecks validates the health and readiness endpoints.
func TestIntegration_Health_BasicChecks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			ctx := setupIntegrationTest(t, driver)
			defer teardownIntegrationTest(t, ctx)

			for path, want := range map[string]string{"/health": "healthy", "/ready": "ready"} {
				resp, err := ctx.server.Client().Get(ctx.server.URL + path)
				require.NoError(t, err)
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				require.NoError(t, resp.Body.Close())

				assert.Equal(t, http.StatusOK, resp.StatusCode, path)
				assert.Contains(t, string(body), want, path)
				assert.Contains(t, resp.Header.Get("Cache-Control"), "no-store", path)
			}
		})
	}
}

// TestIntegration_Texts_CompleteFlow saves, overwrites and fetches texts end to end.
func TestIntegration_Texts_CompleteFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			ctx := setupIntegrationTest(t, driver)
			defer teardownIntegrationTest(t, ctx)
			bg := context.Background()

			const code = "integration-code"

			t.Run("01_Save", func(t *testing.T) {
				require.NoError(t, ctx.client.Save(bg, code, "hello, world"))
			})

			t.Run("02_Fetch", func(t *testing.T) {
				text, err := ctx.client.Fetch(bg, code)
				require.NoError(t, err)
				assert.Equal(t, "hello, world", text)
			})

			t.Run("03_FetchWithSurroundingWhitespace", func(t *testing.T) {
				text, err := ctx.client.Fetch(bg, "  "+code+"\n")
				require.NoError(t, err)
				assert.Equal(t, "hello, world", text)
			})

			t.Run("04_Overwrite", func(t *testing.T) {
				require.NoError(t, ctx.client.Save(bg, code, "second version"))
				text, err := ctx.client.Fetch(bg, code)
				require.NoError(t, err)
				assert.Equal(t, "second version", text)
			})

			t.Run("05_EmptyText", func(t *testing.T) {
				require.NoError(t, ctx.client.Save(bg, "empty-code", ""))
				text, err := ctx.client.Fetch(bg, "empty-code")
				require.NoError(t, err)
				assert.Equal(t, "", text)
			})

			t.Run("06_LargeText", func(t *testing.T) {
				large := strings.Repeat("a", validation.MaxPlaintextChars)
				require.NoError(t, ctx.client.Save(bg, "large-code", large))
				text, err := ctx.client.Fetch(bg, "large-code")
				require.NoError(t, err)
				assert.Equal(t, large, text)
			})

			t.Run("06b_LargeMultibyteText", func(t *testing.T) {
				large := strings.Repeat("€", validation.MaxPlaintextChars)
				require.NoError(t, ctx.client.Save(bg, "large-multibyte", large))
				text, err := ctx.client.Fetch(bg, "large-multibyte")
				require.NoError(t, err)
				assert.Equal(t, large, text)
			})

			t.Run("07_UnknownCode", func(t *testing.T) {
				_, err := ctx.client.Fetch(bg, "never-saved")
				assert.ErrorIs(t, err, client.ErrNotFound)
			})

			t.Run("08_InvalidCode", func(t *testing.T) {
				err := ctx.client.Save(bg, "bad/code", "x")
				assert.ErrorIs(t, err, validation.ErrInvalidFetchCode)
			})

			t.Run("09_RecordsAreOpaque", func(t *testing.T) {
				if ctx.db == nil {
					t.Skip("no database for this driver")
				}
				assert.Equal(t, 4, testutil.CountRecords(t, ctx.db))

				rows, err := ctx.db.Query("SELECT storage_key, record FROM records")
				require.NoError(t, err)
				defer func() { _ = rows.Close() }()

				for rows.Next() {
					var key string
					var record []byte
					require.NoError(t, rows.Scan(&key, &record))

					assert.Len(t, key, 64)
					_, err := hex.DecodeString(key)
					assert.NoError(t, err)
					assert.True(t, bytes.HasPrefix(record, []byte("x2:")))
					assert.NotContains(t, string(record), "second version")
					assert.NotContains(t, string(record), "e2e1:")
				}
				require.NoError(t, rows.Err())
			})
		})
	}
}

// TestIntegration_Texts_RawProtocol sends hand-built requests to the texts endpoint.
func TestIntegration_Texts_RawProtocol(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := setupIntegrationTest(t, config.StorageDriverFilesystem)
	defer teardownIntegrationTest(t, ctx)

	post := func(body string) (int, string) {
		resp, err := ctx.server.Client().Post(ctx.server.URL+"/v1/texts", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(b)
	}

	t.Run("unknown action", func(t *testing.T) {
		status, body := post(`{"action":"delete","code":"abc"}`)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body, `"ok":false`)
	})

	t.Run("not json", func(t *testing.T) {
		status, body := post(`action=save`)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body, "must be JSON")
	})

	t.Run("fetch of unknown code", func(t *testing.T) {
		status, body := post(`{"action":"fetch","code":"nothing-here"}`)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Contains(t, body, `"ok":false`)
	})

	t.Run("server stores what it is given", func(t *testing.T) {
		status, _ := post(`{"action":"save","code":"raw-code","text":"opaque payload"}`)
		require.Equal(t, http.StatusOK, status)

		status, body := post(`{"action":"fetch","code":"raw-code"}`)
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"ok":true,"text":"opaque payload"}`, body)
	})
}

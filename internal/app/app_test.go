package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"autobill/internal/config"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Security.RateLimit.Enabled = false
	cfg.Telemetry.TracingEnabled = false
	cfg.Telemetry.MetricsEnabled = true
	return cfg
}

func newTestApp(t *testing.T) *Application {
	t.Helper()
	app, err := New(testConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return app
}

func workbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func upload(t *testing.T, handler http.Handler, files map[string][]byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, data := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/billing/sessions", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func postJSON(handler http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestApplication_BillingWorkflow(t *testing.T) {
	app := newTestApp(t)
	router := app.Router

	ggsn := workbook(t, [][]interface{}{
		{"metro", "port", "max_in", "max_out", "util_time"},
		{"BGW", "P1", 10, 5, "2025-03-01 00:00:00"},
		{"BGW", "P1", 20, 5, "2025-03-01 01:00:00"},
		{"BGW", "P1", 30, 5, "2025-03-01 02:00:00"},
		{"BGW", "P1", 40, 5, "2025-03-02 00:00:00"},
		{"BGW", "P1", 50, 5, "2025-03-02 01:00:00"},
		{"", "P9", 70, 70, "2025-03-01 00:00:00"},
	})

	rec := upload(t, router, map[string][]byte{"GGSN_march.xlsx": ggsn})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		SessionID string `json:"session_id"`
		Kinds     []struct {
			Kind  string `json:"kind"`
			Rows  int    `json:"rows"`
			Links int    `json:"links"`
		} `json:"kinds"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Len(t, created.Kinds, 1)
	assert.Equal(t, "GGSN", created.Kinds[0].Kind)
	assert.Equal(t, 6, created.Kinds[0].Rows)
	assert.Equal(t, 1, created.Kinds[0].Links)

	base := "/api/billing/sessions/" + created.SessionID

	t.Run("links", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, base+"/links?kind=GGSN", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"link":"BGWP1"`)
		assert.Contains(t, rec.Body.String(), `"end":"2025-03-02T01:00:00Z"`)
	})

	t.Run("percentiles with a date window", func(t *testing.T) {
		rec := postJSON(router, base+"/percentiles",
			`{"kind":"GGSN","selections":[{"link":"BGWP1","start":"2025-03-01","end":"2025-03-01"}]}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Percentiles []struct {
				Link  string  `json:"link"`
				Value float64 `json:"percentile_95"`
			} `json:"percentiles"`
			Quality struct {
				NullLinkRows int `json:"null_link_rows"`
			} `json:"quality"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Percentiles, 1)
		assert.Equal(t, "BGWP1", resp.Percentiles[0].Link)
		assert.InDelta(t, 29, resp.Percentiles[0].Value, 1e-9)
		assert.Equal(t, 1, resp.Quality.NullLinkRows)
	})

	t.Run("missing data", func(t *testing.T) {
		rec := postJSON(router, base+"/percentiles", `{"kind":"IX"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Please upload the correct files.")
	})

	t.Run("export", func(t *testing.T) {
		rec := postJSON(router, base+"/export", `{"kind":"GGSN","file_name":"march"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "attachment; filename=march.xlsx", rec.Header().Get("Content-Disposition"))

		f, err := excelize.OpenReader(rec.Body)
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows("summary")
		require.NoError(t, err)
		assert.Equal(t, []string{"link", "percentile_95"}, rows[0])
		assert.Equal(t, "BGWP1", rows[1][0])
	})

	t.Run("metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "billing_rows_loaded_total")
		assert.Contains(t, rec.Body.String(), "billing_computations_total")
		assert.Contains(t, rec.Body.String(), "billing_exports_total")
	})

	t.Run("delete", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, base, nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, base+"/links?kind=GGSN", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestApplication_Routes(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{name: "health", method: http.MethodGet, path: "/api/health", expectedStatus: http.StatusOK},
		{name: "ready", method: http.MethodGet, path: "/api/health/ready", expectedStatus: http.StatusOK},
		{name: "version", method: http.MethodGet, path: "/api/version", expectedStatus: http.StatusOK},
		{name: "unknown route", method: http.MethodGet, path: "/api/nothing", expectedStatus: http.StatusNotFound},
		{name: "wrong method", method: http.MethodPut, path: "/api/billing/sessions", expectedStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			app.Router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestApplication_UploadWithoutUsableFiles(t *testing.T) {
	app := newTestApp(t)

	rec := upload(t, app.Router, map[string][]byte{"notes.xlsx": []byte("not a workbook")})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "notes.xlsx")
}

func TestApplication_StartStop(t *testing.T) {
	app := newTestApp(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	app.Start(ctx, cancel, ln)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + ln.Addr().String() + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, app.Stop(ctx))

	_, err = client.Get("http://" + ln.Addr().String() + "/api/health")
	assert.Error(t, err)
}

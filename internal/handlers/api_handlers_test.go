package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groundwater-platform/internal/aggregate"
	"groundwater-platform/internal/dataset"
	"groundwater-platform/internal/events"
	"groundwater-platform/internal/geo"
	"groundwater-platform/internal/models"
	"groundwater-platform/internal/services"
	"groundwater-platform/pkg/cache"
	"groundwater-platform/pkg/logging"
	"groundwater-platform/pkg/metrics"
)

// One collector per test binary; registering twice panics.
var testMetrics = metrics.NewCollector("handlers_test")

var testLogger = logging.NewStructuredLogger("handlers-test", "test", logging.ErrorLevel)

func rec(state, district string, total float64) models.Record {
	return models.Record{
		State:    state,
		District: district,
		Metrics: map[string]models.MetricValue{
			aggregate.ColTotalAvailability: {Num: &total},
		},
	}
}

type testEnv struct {
	router *mux.Router
	bus    *events.Bus
}

func newTestEnv(t *testing.T, geoData *geo.FeatureCollection) *testEnv {
	t.Helper()

	store := dataset.New()
	require.True(t, store.Replace(store.BeginLoad(), []models.Record{
		rec("Karnataka", "Mysuru", 20000),
		rec("Karnataka", "Hassan", 8000),
		rec("Kerala", "Idukki", 12000),
	}, "test.csv", 0))

	query := services.NewQueryService(store, cache.New(), time.Hour, time.Minute, testLogger, testMetrics)
	chatSvc := services.NewChatService(query, testLogger, testMetrics)
	uploads, err := services.NewUploadService(t.TempDir(), store, query, testLogger, testMetrics)
	require.NoError(t, err)

	bus := events.NewBus()
	handler := NewAPIHandler(query, chatSvc, uploads, geoData, bus, testLogger, testMetrics)

	router := mux.NewRouter()
	router.Use(RequestIDMiddleware)
	handler.RegisterRoutes(router)

	return &testEnv{router: router, bus: bus}
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) postJSON(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func TestGetStates(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.get(t, "/api/states")
	require.Equal(t, http.StatusOK, rr.Code)

	var states []services.StateSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &states))
	require.Len(t, states, 2)
	assert.Equal(t, "Karnataka", states[0].State)
	assert.Equal(t, 28000.0, states[0].TotalGroundWaterHam)
}

func TestGetStateAggregate(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.get(t, "/api/state/Kerala")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp services.StateAggregateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Kerala", resp.State)
	assert.Equal(t, 12000.0, resp.Aggregates[aggregate.ColTotalAvailability])
	assert.Equal(t, 1, resp.NumDistricts)
}

func TestGetStateAggregate_NotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.get(t, "/api/state/Atlantis")
	require.Equal(t, http.StatusNotFound, rr.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errResp))
	assert.Equal(t, "State Atlantis not found", errResp.Message)
}

func TestGetStateDistricts(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.get(t, "/api/state/Karnataka/districts")
	require.Equal(t, http.StatusOK, rr.Code)

	var rows []services.DistrictAggregate
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "Mysuru", rows[0].District)
}

func TestGetOverview(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.get(t, "/api/overview")
	require.Equal(t, http.StatusOK, rr.Code)

	var ov models.Overview
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ov))
	assert.Equal(t, 3, ov.TotalPoints)
	assert.Equal(t, 2, ov.MonitoredStates)
}

func TestGetGeoJSON_NotConfigured(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.get(t, "/api/geojson")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetGeoJSON(t *testing.T) {
	fc := &geo.FeatureCollection{
		Type: "FeatureCollection",
		Features: []geo.Feature{
			{
				Type:       "Feature",
				Properties: map[string]any{"ST_NM": "Karnataka"},
				Geometry:   json.RawMessage(`{"type":"Polygon","coordinates":[]}`),
			},
		},
	}
	env := newTestEnv(t, fc)

	rr := env.get(t, "/api/geojson")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "FeatureCollection")
	assert.Contains(t, rr.Body.String(), "Polygon")
}

func TestChat(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.postJSON(t, "/api/chat", ChatRequest{Query: "Show me Karnataka groundwater data"})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "state_aggregate", resp["intent"])
	assert.Equal(t, "Karnataka", resp["state"])
	assert.NotEmpty(t, resp["session_id"])
}

func TestChat_MissingQuery(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.postJSON(t, "/api/chat", ChatRequest{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestChat_InvalidBody(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSelect_MatchPublishesSelection(t *testing.T) {
	env := newTestEnv(t, nil)

	var published []events.Selection
	env.bus.Subscribe(func(sel events.Selection) { published = append(published, sel) })

	rr := env.postJSON(t, "/api/select", SelectRequest{Label: "Mysuru District"})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp SelectResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Matched)
	assert.Equal(t, "Karnataka", resp.State)
	assert.Equal(t, "district_substring", resp.Tier)

	require.Len(t, published, 1)
	assert.Equal(t, "Karnataka", published[0].State)
	assert.Equal(t, "Mysuru District", published[0].District)
}

func TestSelect_MissIsNotAnError(t *testing.T) {
	env := newTestEnv(t, nil)

	var publishCount int
	env.bus.Subscribe(func(events.Selection) { publishCount++ })

	rr := env.postJSON(t, "/api/select", SelectRequest{Label: "Mars"})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp SelectResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.Matched)
	assert.Equal(t, "none", resp.Tier)
	assert.Zero(t, publishCount)
}

func multipartUpload(t *testing.T, filename, content, mode string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	if mode != "" {
		require.NoError(t, w.WriteField("mode", mode))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUpload(t *testing.T) {
	env := newTestEnv(t, nil)

	csvText := "State,District,Total Ground Water Availability in the area (ham)_Fresh\nGoa,North Goa,3000\n"
	body, contentType := multipartUpload(t, "goa.csv", csvText, "append")

	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var result services.UploadResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, "append", result.Mode)
	assert.Equal(t, 1, result.File.Rows)
	assert.Equal(t, 4, result.TotalRecords)

	// The new state is queryable immediately.
	stateRR := env.get(t, "/api/state/Goa")
	assert.Equal(t, http.StatusOK, stateRR.Code)

	// And listed in the upload inventory.
	filesRR := env.get(t, "/api/files")
	require.Equal(t, http.StatusOK, filesRR.Code)
	var files []services.UploadedFile
	require.NoError(t, json.Unmarshal(filesRR.Body.Bytes(), &files))
	require.Len(t, files, 1)
	assert.Equal(t, "goa.csv", files[0].Filename)
}

func TestUpload_MissingFileField(t *testing.T) {
	env := newTestEnv(t, nil)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("mode", "replace"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.get(t, "/health")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "healthy")
}

func TestRequestIDMiddleware(t *testing.T) {
	var captured string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = r.Context().Value(logging.RequestIDKey).(string)
	})

	t.Run("generates an id", func(t *testing.T) {
		rr := httptest.NewRecorder()
		RequestIDMiddleware(inner).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, captured)
		assert.Equal(t, captured, rr.Header().Get("X-Request-ID"))
	})

	t.Run("honors the caller's id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-42")
		rr := httptest.NewRecorder()
		RequestIDMiddleware(inner).ServeHTTP(rr, req)
		assert.Equal(t, "req-42", captured)
		assert.Equal(t, "req-42", rr.Header().Get("X-Request-ID"))
	})
}

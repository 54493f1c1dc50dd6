package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"groundwater-platform/internal/events"
	"groundwater-platform/internal/geo"
	"groundwater-platform/internal/models"
	"groundwater-platform/internal/services"
	"groundwater-platform/pkg/logging"
	"groundwater-platform/pkg/metrics"
)

// maxUploadBytes bounds uploaded CSV size; the report exports are a few MB.
const maxUploadBytes = 32 << 20

// APIHandler handles the dashboard API endpoints.
type APIHandler struct {
	query   *services.QueryService
	chat    *services.ChatService
	uploads *services.UploadService
	geoData *geo.FeatureCollection
	bus     *events.Bus
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewAPIHandler creates the API handler. geoData may be nil when no boundary
// file is configured; /api/geojson then reports 404.
func NewAPIHandler(
	query *services.QueryService,
	chatService *services.ChatService,
	uploads *services.UploadService,
	geoData *geo.FeatureCollection,
	bus *events.Bus,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *APIHandler {
	return &APIHandler{
		query:   query,
		chat:    chatService,
		uploads: uploads,
		geoData: geoData,
		bus:     bus,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// GetStates handles GET /api/states.
func (h *APIHandler) GetStates(w http.ResponseWriter, r *http.Request) {
	defer h.observe("/api/states")()

	states := h.query.States(r.Context())
	h.metrics.RecordAPIRequest("/api/states", "GET", "200")
	h.sendJSON(w, states, http.StatusOK)
}

// GetStateAggregate handles GET /api/state/{name}.
func (h *APIHandler) GetStateAggregate(w http.ResponseWriter, r *http.Request) {
	defer h.observe("/api/state")()
	name := mux.Vars(r)["name"]

	resp, err := h.query.StateAggregate(r.Context(), name)
	if err != nil {
		h.respondQueryError(w, r, "/api/state", name, err)
		return
	}

	h.metrics.RecordAPIRequest("/api/state", "GET", "200")
	h.sendJSON(w, resp, http.StatusOK)
}

// GetStateDistricts handles GET /api/state/{name}/districts.
func (h *APIHandler) GetStateDistricts(w http.ResponseWriter, r *http.Request) {
	defer h.observe("/api/state/districts")()
	name := mux.Vars(r)["name"]

	rows, err := h.query.StateDistricts(r.Context(), name)
	if err != nil {
		h.respondQueryError(w, r, "/api/state/districts", name, err)
		return
	}

	h.metrics.RecordAPIRequest("/api/state/districts", "GET", "200")
	h.sendJSON(w, rows, http.StatusOK)
}

// GetOverview handles GET /api/overview.
func (h *APIHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	defer h.observe("/api/overview")()

	ov := h.query.Overview(r.Context())
	h.metrics.RecordAPIRequest("/api/overview", "GET", "200")
	h.sendJSON(w, ov, http.StatusOK)
}

// GetGeoJSON handles GET /api/geojson.
func (h *APIHandler) GetGeoJSON(w http.ResponseWriter, r *http.Request) {
	defer h.observe("/api/geojson")()

	if h.geoData == nil {
		h.sendError(w, r, "GeoJSON not available on server", http.StatusNotFound)
		return
	}
	h.metrics.RecordAPIRequest("/api/geojson", "GET", "200")
	h.sendJSON(w, h.geoData, http.StatusOK)
}

// ChatRequest is the POST /api/chat body.
type ChatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// Chat handles POST /api/chat.
func (h *APIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	defer h.observe("/api/chat")()

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, r, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		h.sendError(w, r, "query is required", http.StatusBadRequest)
		return
	}

	resp := h.chat.Answer(r.Context(), req.Query, req.SessionID)
	h.metrics.RecordAPIRequest("/api/chat", "POST", "200")
	h.sendJSON(w, resp, http.StatusOK)
}

// SelectRequest is the POST /api/select body: a free-text label from a map
// click plus the feature's state property when present.
type SelectRequest struct {
	Label string `json:"label"`
	State string `json:"state,omitempty"`
}

// SelectResponse reports the resolution outcome. A miss is not an error;
// matched=false tells the caller to keep its previous selection.
type SelectResponse struct {
	Matched bool   `json:"matched"`
	State   string `json:"state,omitempty"`
	Tier    string `json:"tier"`
}

// Select handles POST /api/select: resolve a map-click label and broadcast
// the selection to subscribed surfaces.
func (h *APIHandler) Select(w http.ResponseWriter, r *http.Request) {
	defer h.observe("/api/select")()

	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, r, "invalid request body", http.StatusBadRequest)
		return
	}

	res := h.query.Resolve(r.Context(), req.Label, req.State)
	if res.Matched {
		h.bus.Publish(events.Selection{State: res.State, District: req.Label})
	}

	h.metrics.RecordAPIRequest("/api/select", "POST", "200")
	h.sendJSON(w, SelectResponse{
		Matched: res.Matched,
		State:   res.State,
		Tier:    string(res.Tier),
	}, http.StatusOK)
}

// Upload handles POST /api/upload (multipart form, field "file", optional
// "mode" of replace|append).
func (h *APIHandler) Upload(w http.ResponseWriter, r *http.Request) {
	defer h.observe("/api/upload")()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.sendError(w, r, "invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.sendError(w, r, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.sendError(w, r, "failed to read upload", http.StatusBadRequest)
		return
	}

	result, err := h.uploads.Accept(r.Context(), header.Filename, content, r.FormValue("mode"))
	if err != nil {
		h.logger.Error(r.Context(), "[API_UPLOAD_ERROR] Upload rejected", logging.Fields{
			"filename": header.Filename,
		}, err)
		h.metrics.RecordAPIError("upload_error", "/api/upload")
		h.sendError(w, r, "failed to process uploaded csv", http.StatusUnprocessableEntity)
		return
	}

	h.metrics.RecordAPIRequest("/api/upload", "POST", "200")
	h.sendJSON(w, result, http.StatusOK)
}

// ListFiles handles GET /api/files.
func (h *APIHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	defer h.observe("/api/files")()

	h.metrics.RecordAPIRequest("/api/files", "GET", "200")
	h.sendJSON(w, h.uploads.List(), http.StatusOK)
}

// HealthCheck handles GET /health.
func (h *APIHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	h.sendJSON(w, status, http.StatusOK)
}

// respondQueryError maps service errors onto HTTP statuses.
func (h *APIHandler) respondQueryError(w http.ResponseWriter, r *http.Request, endpoint, name string, err error) {
	var notFound *models.NotFoundError
	if errors.As(err, &notFound) {
		h.sendError(w, r, "State "+name+" not found", http.StatusNotFound)
		return
	}
	h.logger.Error(r.Context(), "[API_QUERY_ERROR] Query failed", logging.Fields{
		"endpoint": endpoint,
		"name":     name,
	}, err)
	h.metrics.RecordAPIError("internal_error", endpoint)
	h.sendError(w, r, "failed to compute aggregation", http.StatusInternalServerError)
}

// observe returns a deferred duration observer for an endpoint.
func (h *APIHandler) observe(endpoint string) func() {
	start := time.Now()
	return func() {
		h.metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
}

// sendJSON sends a JSON response.
func (h *APIHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response.
func (h *APIHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}
	h.sendJSON(w, response, statusCode)
}

// RequestIDMiddleware attaches a request ID to every request context for log
// correlation.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

// RegisterRoutes registers all dashboard API routes.
func (h *APIHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/states", h.GetStates).Methods("GET")
	router.HandleFunc("/api/state/{name}", h.GetStateAggregate).Methods("GET")
	router.HandleFunc("/api/state/{name}/districts", h.GetStateDistricts).Methods("GET")
	router.HandleFunc("/api/overview", h.GetOverview).Methods("GET")
	router.HandleFunc("/api/geojson", h.GetGeoJSON).Methods("GET")
	router.HandleFunc("/api/chat", h.Chat).Methods("POST")
	router.HandleFunc("/api/select", h.Select).Methods("POST")
	router.HandleFunc("/api/upload", h.Upload).Methods("POST")
	router.HandleFunc("/api/files", h.ListFiles).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
}

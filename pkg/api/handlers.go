package api

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"route_finder/pkg/export"
	"route_finder/pkg/geo"
	"route_finder/pkg/routeerr"
	"route_finder/pkg/routing"
)

const maxBodyBytes = 4096

// OverlayPrefix is the URL path under which exported overlays are served.
const OverlayPrefix = "/api/v1/overlays/"

// Exporter writes a route to an overlay file and returns its path.
type Exporter interface {
	Export(route []geo.Coordinate) (string, error)
}

// Overlays holds one Exporter per format, all writing into Dir.
type Overlays struct {
	Dir       string
	Default   export.Format
	Exporters map[export.Format]Exporter
}

// NewOverlays creates KML and GeoJSON exporters writing into dir.
func NewOverlays(dir string, def export.Format, logger *zap.Logger) (*Overlays, error) {
	o := &Overlays{Dir: dir, Default: def, Exporters: make(map[export.Format]Exporter)}
	for _, f := range []export.Format{export.FormatKML, export.FormatGeoJSON} {
		e, err := export.New(dir, f, logger)
		if err != nil {
			return nil, err
		}
		o.Exporters[f] = e
	}
	return o, nil
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	router   routing.Router
	overlays *Overlays // nil disables overlay export
	stats    StatsResponse
	logger   *zap.Logger
}

// NewHandlers creates handlers with the given router.
func NewHandlers(router routing.Router, overlays *Overlays, stats StatsResponse, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		router:   router,
		overlays: overlays,
		stats:    stats,
		logger:   logger,
	}
}

// HandleRoute handles POST /api/v1/route.
func (h *Handlers) HandleRoute(w http.ResponseWriter, r *http.Request) {
	// Enforce Content-Type.
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, "invalid_request", "", "Content-Type must be application/json")
		return
	}

	// Parse request.
	var req RouteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "", "body is not valid JSON")
		return
	}

	start, ok := coordinateField(w, req.Start, "start")
	if !ok {
		return
	}
	end, ok := coordinateField(w, req.End, "end")
	if !ok {
		return
	}

	h.route(w, r, start, end, req.Format)
}

// HandleFindRoute handles POST /find_route with form fields start_point and
// end_point, each a textual coordinate pair such as "103.85, 1.29".
func (h *Handlers) HandleFindRoute(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "", "form body could not be parsed")
		return
	}

	start, ok := formCoordinate(w, r, "start_point")
	if !ok {
		return
	}
	end, ok := formCoordinate(w, r, "end_point")
	if !ok {
		return
	}

	h.route(w, r, start, end, r.PostForm.Get("format"))
}

func (h *Handlers) route(w http.ResponseWriter, r *http.Request, start, end geo.Coordinate, formatName string) {
	var exporter Exporter
	if h.overlays != nil {
		f := h.overlays.Default
		if formatName != "" {
			parsed, err := export.ParseFormat(formatName)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_format", "format", err.Error())
				return
			}
			f = parsed
		}
		exporter = h.overlays.Exporters[f]
	}

	result, err := h.router.Route(r.Context(), start, end)
	if err != nil {
		h.writeRouteError(w, err)
		return
	}

	resp := RouteResponse{
		Found:      result.Found(),
		StartNode:  pair(result.StartNode),
		EndNode:    pair(result.EndNode),
		Route:      make([][2]float64, len(result.Route)),
		DistanceKm: result.DistanceKm,
	}
	for i, c := range result.Route {
		resp.Route[i] = pair(c)
	}

	if exporter != nil {
		path, err := exporter.Export(result.Route)
		if err != nil {
			h.logger.Error("overlay export failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "export_failed", "", "")
			return
		}
		resp.OverlayPath = path
		resp.OverlayURL = OverlayPrefix + filepath.Base(path)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) writeRouteError(w http.ResponseWriter, err error) {
	switch kind := routeerr.KindOf(err); {
	case errors.Is(kind, routeerr.ErrInvalidCoordinate):
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "", routeerr.Detail(err))
	case errors.Is(kind, routeerr.ErrMalformedGraph):
		writeError(w, http.StatusBadRequest, "malformed_graph", "", routeerr.Detail(err))
	case errors.Is(kind, routeerr.ErrEmptyGraph):
		writeError(w, http.StatusUnprocessableEntity, "empty_graph", "", "")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request_timeout", "", "")
	default:
		h.logger.Error("route failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "", "")
	}
}

// HandleOverlay handles GET /api/v1/overlays/{name}.
func (h *Handlers) HandleOverlay(w http.ResponseWriter, r *http.Request) {
	if h.overlays == nil {
		writeError(w, http.StatusNotFound, "not_found", "", "")
		return
	}

	name := mux.Vars(r)["name"]
	if name == "" || name != filepath.Base(name) || !strings.HasPrefix(name, "shortest_path-") {
		writeError(w, http.StatusNotFound, "not_found", "", "")
		return
	}
	var contentType string
	switch filepath.Ext(name) {
	case export.FormatKML.Ext():
		contentType = export.FormatKML.ContentType()
	case export.FormatGeoJSON.Ext():
		contentType = export.FormatGeoJSON.ContentType()
	default:
		writeError(w, http.StatusNotFound, "not_found", "", "")
		return
	}

	w.Header().Set("Content-Type", contentType)
	http.ServeFile(w, r, filepath.Join(h.overlays.Dir, name))
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats)
}

func coordinateField(w http.ResponseWriter, c *CoordinateJSON, field string) (geo.Coordinate, bool) {
	if c == nil || c.Lon == nil || c.Lat == nil {
		writeError(w, http.StatusBadRequest, "missing_field", field, "lon and lat are required")
		return geo.Coordinate{}, false
	}
	coord := geo.Coordinate{Lon: *c.Lon, Lat: *c.Lat}
	if err := coord.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", field, routeerr.Detail(err))
		return geo.Coordinate{}, false
	}
	return coord, true
}

func formCoordinate(w http.ResponseWriter, r *http.Request, field string) (geo.Coordinate, bool) {
	text := strings.TrimSpace(r.PostForm.Get(field))
	if text == "" {
		writeError(w, http.StatusBadRequest, "missing_field", field, "")
		return geo.Coordinate{}, false
	}
	coord, err := geo.ParseCoordinate(text)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", field, err.Error())
		return geo.Coordinate{}, false
	}
	if err := coord.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", field, routeerr.Detail(err))
		return geo.Coordinate{}, false
	}
	return coord, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, field, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Field: field, Message: message})
}

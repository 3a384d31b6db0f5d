package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"tasnim.dev/vpc-topology/internal/metrics"
	"tasnim.dev/vpc-topology/internal/rulecache"
	"tasnim.dev/vpc-topology/internal/topology"
)

// maxBodyBytes bounds discovery documents posted to the API.
const maxBodyBytes = 16 << 20

type Handler struct {
	log     zerolog.Logger
	metrics *metrics.Metrics
	rules   *rulecache.Cache
	layout  topology.LayoutConfig
}

// NewHandler wires the API. m and rules may be nil; without a rule cache the
// security group endpoint answers 503.
func NewHandler(log zerolog.Logger, m *metrics.Metrics, rules *rulecache.Cache, layout topology.LayoutConfig) *Handler {
	return &Handler{log: log, metrics: m, rules: rules, layout: layout}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(h.accessLog)

	r.Get("/healthz", h.handleHealthz)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			r.Post("/topology", h.handleTopology)
			r.Post("/highlight", h.handleHighlight)

			r.Route("/classify", func(r chi.Router) {
				r.Post("/route", h.handleClassifyRoute)
				r.Post("/eni", h.handleClassifyENI)
			})

			r.Get("/security-groups/{id}/rules", h.handleSecurityGroupRules)
			r.Post("/refresh", h.handleRefresh)
		})
	})

	return r
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)

		h.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Int64("duration_ms", dur.Milliseconds()).
			Msg("http_request")

		h.metrics.ObserveHTTPRequest(r.Method, routePattern(r), status, dur)
	})
}

// routePattern keeps metric label cardinality bounded by using the matched
// chi pattern instead of the raw path.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, msg string, details map[string]any) {
	resp := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": msg,
		},
	}
	if details != nil {
		resp["error"].(map[string]any)["details"] = details
	}
	h.writeJSON(w, status, resp)
}

// decodeJSON reads a single JSON value. Unknown fields are allowed because
// discovery documents come from several producers.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return errors.New("unexpected extra data after JSON body")
		}
		return err
	}
	return nil
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// build runs the engine on a posted document and writes the error response
// itself when it fails.
func (h *Handler) build(w http.ResponseWriter, r *http.Request, resp *topology.Response) (*topology.Snapshot, bool) {
	opts := []topology.Option{
		topology.WithLayoutConfig(h.layout),
		topology.WithLogger(h.log.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()),
	}
	if r.URL.Query().Get("infer") == "false" {
		opts = append(opts, topology.WithoutTypeInference())
	}

	start := time.Now()
	snap, err := topology.Build(resp, opts...)
	var stats topology.Stats
	if snap != nil {
		stats = snap.Stats()
	}
	h.metrics.ObserveSnapshotBuild(stats, err, time.Since(start))

	if err != nil {
		if errors.Is(err, topology.ErrTopologyUnavailable) {
			h.writeError(w, http.StatusUnprocessableEntity, "topology_unavailable", "network or routing data missing", nil)
			return nil, false
		}
		h.log.Error().Err(err).Msg("snapshot build failed")
		h.writeError(w, http.StatusInternalServerError, "build_failed", "failed to build topology", nil)
		return nil, false
	}
	return snap, true
}

func (h *Handler) handleTopology(w http.ResponseWriter, r *http.Request) {
	var resp topology.Response
	if err := decodeJSON(w, r, &resp); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body", map[string]any{"error": err.Error()})
		return
	}

	snap, ok := h.build(w, r, &resp)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, snap.Output())
}

type highlightRequest struct {
	Response            *topology.Response `json:"response"`
	HoveredSubnetID     string             `json:"hoveredSubnetId"`
	HoveredRouteTableID string             `json:"hoveredRouteTableId"`
}

func (h *Handler) handleHighlight(w http.ResponseWriter, r *http.Request) {
	var req highlightRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body", map[string]any{"error": err.Error()})
		return
	}

	snap, ok := h.build(w, r, req.Response)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, snap.Highlight(req.HoveredSubnetID, req.HoveredRouteTableID))
}

func (h *Handler) handleClassifyRoute(w http.ResponseWriter, r *http.Request) {
	var raw topology.RawRoute
	if err := decodeJSON(w, r, &raw); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body", map[string]any{"error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, topology.ClassifyRoute(raw))
}

type classifyENIRequest struct {
	AttachmentType string `json:"attachmentType"`
	Description    string `json:"description"`
}

func (h *Handler) handleClassifyENI(w http.ResponseWriter, r *http.Request) {
	var req classifyENIRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body", map[string]any{"error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"resource": topology.ClassifyENI(req.AttachmentType, req.Description),
	})
}

func (h *Handler) handleSecurityGroupRules(w http.ResponseWriter, r *http.Request) {
	if h.rules == nil {
		h.writeError(w, http.StatusServiceUnavailable, "rules_unavailable", "no AWS session configured", nil)
		return
	}

	id := chi.URLParam(r, "id")
	if !strings.HasPrefix(id, "sg-") {
		h.writeError(w, http.StatusBadRequest, "invalid_id", "security group id must start with sg-", nil)
		return
	}

	rules, err := h.rules.Get(r.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Str("group_id", id).Msg("list security group rules failed")
		h.writeError(w, http.StatusBadGateway, "upstream_error", "failed to load security group rules", nil)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"groupId": id, "rules": rules})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if h.rules != nil {
		h.rules.Invalidate()
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"invalidated": h.rules != nil})
}

// Package httpapi serves the operation API as JSON over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/geometry-operators/internal/core/health"
	"github.com/mohammed-shakir/geometry-operators/internal/core/model"
	"github.com/mohammed-shakir/geometry-operators/internal/core/observability"
	"github.com/mohammed-shakir/geometry-operators/internal/core/operr"
	"github.com/mohammed-shakir/geometry-operators/internal/invalidation"
	"github.com/mohammed-shakir/geometry-operators/internal/spatialref"
)

const maxBodyBytes = 64 << 20

// Operations is what the handlers call to evaluate requests.
type Operations interface {
	Execute(ctx context.Context, req *model.Request) (model.Response, error)
	Stream(ctx context.Context, req *model.Request, compact bool, send func(model.Response) error) error
}

// SRStore keeps custom spatial reference definitions.
type SRStore interface {
	Put(ctx context.Context, wkid int, def string) error
}

// SRCache is told about re-registered identifiers.
type SRCache interface {
	Forget(wkid int)
}

// Notifier tells other instances that a definition changed.
type Notifier interface {
	Notify(ctx context.Context, op string, wkid int) error
}

type Deps struct {
	Ops    Operations
	Logger *slog.Logger
	// Registry and Cache are nil when the registry is disabled.
	Registry SRStore
	Cache    SRCache
	// Notify is nil when invalidation events are disabled.
	Notify  Notifier
	Ready   map[string]health.Checker
	Metrics http.Handler
	// FlushEvery is how many stream lines are written between flushes.
	FlushEvery int
}

func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.FlushEvery < 1 {
		d.FlushEvery = 1
	}
	h := &handlers{d: d}

	r := chi.NewRouter()
	r.Use(Recover(d.Logger))
	r.Use(Logging(d.Logger))
	r.Use(Metrics())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(d.Ready, 2*time.Second))
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}
	r.Post("/v1/operations", h.execute)
	r.Post("/v1/operations:stream", h.stream)
	r.Put("/v1/spatial-references/{wkid}", h.putSpatialRef)
	return r
}

func NewServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

type handlers struct {
	d Deps
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func errorOf(err error) errorBody {
	return errorBody{Error: errorDetail{Kind: operr.KindOf(err).String(), Message: err.Error()}}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, operr.HTTPStatus(err), errorOf(err))
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (*model.Request, error) {
	var req model.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return nil, operr.Invalid("request", "decode body: %v", err)
	}
	return &req, nil
}

func (h *handlers) execute(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	resp, err := h.d.Ops.Execute(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	observability.IncStreamMessage("http")
	writeJSON(w, http.StatusOK, resp)
}

// stream writes one JSON response per line. A failure after the first line
// becomes a final error line, since the status is already sent.
func (h *handlers) stream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	lines := 0

	err = h.d.Ops.Stream(r.Context(), req, false, func(resp model.Response) error {
		if lines == 0 {
			w.Header().Set("Content-Type", "application/x-ndjson")
			w.WriteHeader(http.StatusOK)
		}
		if err := enc.Encode(resp); err != nil {
			return err
		}
		lines++
		observability.IncStreamMessage("http")
		if flusher != nil && lines%h.d.FlushEvery == 0 {
			flusher.Flush()
		}
		return nil
	})
	switch {
	case err == nil && lines == 0:
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.WriteHeader(http.StatusOK)
	case err != nil && lines == 0:
		writeError(w, err)
		return
	case err != nil:
		if errors.Is(err, context.Canceled) {
			return
		}
		_ = enc.Encode(errorOf(err))
	}
	if flusher != nil {
		flusher.Flush()
	}
}

func (h *handlers) putSpatialRef(w http.ResponseWriter, r *http.Request) {
	if h.d.Registry == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: errorDetail{
			Kind: "unavailable", Message: "spatial reference registry is disabled",
		}})
		return
	}
	wkid, err := strconv.Atoi(chi.URLParam(r, "wkid"))
	if err != nil || wkid <= 0 {
		writeError(w, operr.Invalid("register", "wkid must be a positive integer"))
		return
	}
	if _, builtin := spatialref.CatalogDefinition(wkid); builtin {
		writeError(w, operr.Invalid("register", "wkid %d is built in", wkid))
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 64<<10))
	if err != nil {
		writeError(w, operr.Invalid("register", "read body: %v", err))
		return
	}
	def := strings.TrimSpace(string(body))
	if err := spatialref.Validate(def); err != nil {
		writeError(w, operr.Invalid("register", "wkid %d: %v", wkid, err))
		return
	}
	if err := h.d.Registry.Put(r.Context(), wkid, def); err != nil {
		h.d.Logger.ErrorContext(r.Context(), "registry put failed", "wkid", wkid, "err", err)
		writeError(w, err)
		return
	}
	if h.d.Cache != nil {
		h.d.Cache.Forget(wkid)
	}
	if h.d.Notify != nil {
		if err := h.d.Notify.Notify(r.Context(), invalidation.OpRegister, wkid); err != nil {
			h.d.Logger.WarnContext(r.Context(), "invalidation notify failed", "wkid", wkid, "err", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

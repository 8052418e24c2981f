// Package server exposes the projection engine over HTTP: one-shot
// projections, a live preview websocket, workbook exports and saved
// pro-forma lookups.
package server

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/BubDublin/solar-proforma/internal/observability"
	"github.com/BubDublin/solar-proforma/internal/projection"
	"github.com/BubDublin/solar-proforma/internal/reporting"
	"github.com/BubDublin/solar-proforma/internal/storage"
	"github.com/BubDublin/solar-proforma/internal/verification"
)

// RequestIDHeader carries the per-request ID, echoed back on every response.
const RequestIDHeader = "X-Request-ID"

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Options configures a Server.
type Options struct {
	Engine *projection.Engine

	// Stores are optional. Without them exports are not persisted and
	// the /api/proformas routes answer 503.
	ProFormas storage.ProFormaStore
	CashFlows storage.CashFlowStore

	Metrics *observability.Metrics // defaults to observability.DefaultMetrics
	Logger  *log.Logger
	Now     func() time.Time

	// PreviewReadTimeout is how long a preview connection may stay silent,
	// pongs included. Defaults to 60s.
	PreviewReadTimeout time.Duration
}

// Server handles the HTTP API.
type Server struct {
	engine    *projection.Engine
	generator *reporting.Generator
	verifier  *verification.StoreVerifier
	proformas storage.ProFormaStore
	cashflows storage.CashFlowStore
	metrics   *observability.Metrics
	logger    *log.Logger
	now       func() time.Time

	upgrader    websocket.Upgrader
	readTimeout time.Duration
}

// New creates a Server from opts.
func New(opts Options) *Server {
	s := &Server{
		engine:      opts.Engine,
		proformas:   opts.ProFormas,
		cashflows:   opts.CashFlows,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		now:         opts.Now,
		readTimeout: opts.PreviewReadTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}

	if s.metrics == nil {
		s.metrics = observability.DefaultMetrics
	}
	if s.logger == nil {
		s.logger = log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.readTimeout == 0 {
		s.readTimeout = 60 * time.Second
	}

	s.generator = reporting.NewGenerator(s.engine).WithClock(s.now)
	if s.proformas != nil {
		s.verifier = verification.NewStoreVerifier(s.engine, s.proformas, s.cashflows)
	}
	return s
}

// Handler returns the routed handler wrapped in request ID and logging middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", observability.Handler())

	mux.HandleFunc("POST /api/projections", s.handleProjection)
	mux.HandleFunc("GET /api/preview", s.handlePreview)
	mux.HandleFunc("POST /api/exports", s.handleExport)
	mux.HandleFunc("GET /api/incentives", s.handleIncentives)

	mux.HandleFunc("GET /api/proformas", s.handleListProFormas)
	mux.HandleFunc("GET /api/proformas/{id}", s.handleGetProForma)
	mux.HandleFunc("GET /api/proformas/{id}/summary", s.handleProFormaSummary)
	mux.HandleFunc("GET /api/proformas/{id}/verify", s.handleVerifyProForma)

	return s.withRequestID(mux)
}

type ctxKey struct{}

// RequestID returns the request ID stored in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, id))

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.metrics.RecordRequest(route, rec.status)
		s.logger.Printf("%s %s %s %d %v", id, r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// statusRecorder captures the response status. It keeps Hijack available
// for the websocket upgrade.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	w.wroteHeader = true
	return h.Hijack()
}

func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/ieltsgenai/prep-service/pkg/metrics"
	"github.com/ieltsgenai/prep-service/pkg/web"
)

// StartHTTPServer sobe o runtime local para desenvolvimento. O mesmo
// router do Lambda atende aqui; só muda o adaptador de borda.
func StartHTTPServer(router *web.Router, port int, provider metrics.Provider) error {
	r := mux.NewRouter()
	r.Use(observabilityMiddleware(provider))
	r.PathPrefix("/").Handler(newHTTPAdapter(router))

	addr := fmt.Sprintf(":%d", port)
	log.Info().Msgf("Servidor HTTP ouvindo em %s", addr)

	return http.ListenAndServe(addr, r)
}

type httpAdapter struct {
	router *web.Router
}

func newHTTPAdapter(router *web.Router) *httpAdapter {
	return &httpAdapter{router: router}
}

func (h *httpAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	headers := make(map[string]string, len(r.Header))
	for k, v := range r.Header {
		if len(v) > 0 {
			headers[httpHeaderKey(k)] = v[0]
		}
	}

	query := make(map[string]string)
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}

	sourceIP := r.RemoteAddr
	if host, _, splitErr := net.SplitHostPort(r.RemoteAddr); splitErr == nil {
		sourceIP = host
	}

	resp := h.router.Dispatch(r.Context(), &web.Request{
		Method:   r.Method,
		Path:     r.URL.Path,
		Headers:  headers,
		Query:    query,
		Body:     body,
		SourceIP: sourceIP,
	})

	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}

func httpHeaderKey(k string) string {
	// web.Request espera chaves minúsculas
	b := []byte(k)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// --- Middleware de observabilidade (mesma linha de log do Lambda) ---

type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode  int
	startTime   time.Time
	wroteHeader bool
}

func (rw *responseWriterWrapper) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.Header().Set(HeaderLatency, fmt.Sprintf("%d", time.Since(rw.startTime).Milliseconds()))
	rw.ResponseWriter.WriteHeader(code)
	rw.wroteHeader = true
}

func (rw *responseWriterWrapper) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func observabilityMiddleware(provider metrics.Provider) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			corrID := r.Header.Get(HeaderCorrelationID)
			if corrID == "" {
				corrID = uuid.NewString()
			}
			w.Header().Set(HeaderCorrelationID, corrID)

			logger := log.With().Str("correlation_id", corrID).Logger()
			ctx := logger.WithContext(r.Context())
			ctx = context.WithValue(ctx, ContextKeyCorrID, corrID)

			wrapper := &responseWriterWrapper{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				startTime:      start,
			}

			next.ServeHTTP(wrapper, r.WithContext(ctx))

			latency := time.Since(start)
			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", wrapper.statusCode).
				Int64("latency_ms", latency.Milliseconds()).
				Msg("request completed")
			_ = provider.Histogram(metrics.MetricRequestLatencyMS, float64(latency.Milliseconds()),
				[]string{"method:" + r.Method, fmt.Sprintf("status:%d", wrapper.statusCode)})
		})
	}
}

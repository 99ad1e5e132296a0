// Package httpapi serves answers over a small JSON HTTP API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"asknehru/internal/domain"
	"asknehru/internal/metrics"
)

const maxBodyBytes = 64 << 10

// Service is the subset of the answer service the API needs.
type Service interface {
	Answer(ctx context.Context, query string) domain.Answer
	Search(query string) []domain.SearchResult
	Stats() domain.Stats
}

type Router struct {
	svc     Service
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewRouter builds the API. m may be nil, in which case /metrics is not served.
func NewRouter(svc Service, m *metrics.Metrics, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{svc: svc, metrics: m, log: logger}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/search", rt.search)
	mux.HandleFunc("/ask", rt.ask)
	mux.HandleFunc("/passages", rt.passages)

	var h http.Handler = mux
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
		h = rt.metrics.Middleware(h, "/healthz", "/search", "/ask", "/passages", "/metrics")
	}
	return requestIDMiddleware(rt.accessLogMiddleware(h))
}

type queryRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// Reference is one supporting excerpt in a /search response.
type Reference struct {
	Text      string `json:"text"`
	Relevance string `json:"relevance"`
}

// SearchResponse is the shape the web client expects from /search.
type SearchResponse struct {
	Summary    string      `json:"summary"`
	References []Reference `json:"references"`
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "chunks": rt.svc.Stats().Chunks})
}

func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeQuery(w, r)
	if !ok {
		return
	}
	ans := rt.svc.Answer(r.Context(), req.Query)
	resp := SearchResponse{Summary: ans.Content, References: make([]Reference, 0, len(ans.RelatedResults))}
	for _, res := range ans.RelatedResults {
		resp.References = append(resp.References, Reference{Text: res.Response, Relevance: formatRelevance(res.Score)})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeQuery(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rt.svc.Answer(r.Context(), req.Query))
}

// passages returns the raw ranked results without summarizing them.
func (rt *Router) passages(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeQuery(w, r)
	if !ok {
		return
	}
	results := rt.svc.Search(req.Query)
	if req.Limit > 0 && len(results) > req.Limit {
		results = results[:req.Limit]
	}
	if results == nil {
		results = []domain.SearchResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func decodeQuery(w http.ResponseWriter, r *http.Request) (queryRequest, bool) {
	var req queryRequest
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return req, false
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return req, false
		}
		writeError(w, http.StatusBadRequest, "invalid json")
		return req, false
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return req, false
	}
	return req, true
}

func formatRelevance(score float64) string {
	return fmt.Sprintf("%.1f", score)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Serve runs the API on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      3 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("api listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	return nil
}

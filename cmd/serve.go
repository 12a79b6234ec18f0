package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-warehouse/internal/pipeline"
	"github.com/sells-group/lead-warehouse/internal/relay"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook ingest server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initWarehouse(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		jobs := relay.NewJobStore(env.store.Pool())
		router := newRouter(env.pipeline, jobs, cfg.Server.APIKey)

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}

		go gracefulShutdown(ctx, srv, 15*time.Second)

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

// gracefulShutdown waits for ctx cancellation, then drains in-flight requests
// under a fresh deadline. Shutdown must not run on the already-canceled
// signal context or the drain aborts immediately.
func gracefulShutdown(ctx context.Context, srv *http.Server, grace time.Duration) {
	<-ctx.Done()
	zap.L().Info("shutting down server")
	drainCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		zap.L().Warn("server shutdown incomplete", zap.Error(err))
	}
}

// ingester is the pipeline surface the webhook handler needs.
type ingester interface {
	Ingest(ctx context.Context, provider, slug string, body []byte, identityHint string) pipeline.Result
}

// jobGetter is the relay surface the status endpoint needs.
type jobGetter interface {
	Get(ctx context.Context, id string) (*relay.Job, error)
}

func newRouter(p ingester, jobs jobGetter, apiKey string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(requireAPIKey(apiKey))

		r.Post("/webhook/{slug}", func(w http.ResponseWriter, req *http.Request) {
			slug := chi.URLParam(req, "slug")
			body, err := io.ReadAll(io.LimitReader(req.Body, 4<<20))
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "unreadable request body"})
				return
			}

			provider := req.Header.Get("X-Provider")
			if provider == "" {
				provider = "webhook"
			}
			hint := req.URL.Query().Get("identity")

			res := p.Ingest(req.Context(), provider, slug, body, hint)
			status := http.StatusOK
			if !res.Success {
				status = http.StatusUnprocessableEntity
			}
			writeJSON(w, status, res)
		})

		r.Get("/relay/jobs/{id}", func(w http.ResponseWriter, req *http.Request) {
			job, err := jobs.Get(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				zap.L().Error("relay job lookup failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "lookup failed"})
				return
			}
			if job == nil {
				writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "job not found"})
				return
			}
			writeJSON(w, http.StatusOK, job)
		})
	})

	return r
}

// requireAPIKey rejects requests without the configured key. An empty
// configured key disables the check, for local runs.
func requireAPIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if key != "" && req.Header.Get("X-API-Key") != key {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "invalid api key"})
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

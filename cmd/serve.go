package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/assessor-cli/internal/comps"
	"github.com/sells-group/assessor-cli/internal/config"
	"github.com/sells-group/assessor-cli/internal/model"
	"github.com/sells-group/assessor-cli/internal/reconcile"
	"github.com/sells-group/assessor-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the valuation HTTP API",
	Long:  "Exposes comparable discovery, reconciliation, and audit-trail queries over HTTP for the records UI.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := newRouter(env, cfg.Server, cfg.Discovery.DefaultCount)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("serve: listening", zap.Int("port", port))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

// newRouter builds the HTTP surface against an already-wired env. Separate
// from the command so handlers can be exercised without binding a socket.
func newRouter(env *env, srvCfg config.ServerConfig, defaultCount int) http.Handler {
	discovery := comps.NewEngine(env.Store)
	reconciler := reconcile.NewEngine(env.Store, env.Updater)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: srvCfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST"},
	}))
	r.Use(rateLimit(rate.Limit(srvCfg.RequestsPerSec), srvCfg.Burst))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/properties/{id}/comparables", func(w http.ResponseWriter, req *http.Request) {
		count := defaultCount
		if c := req.URL.Query().Get("count"); c != "" {
			if n, err := strconv.Atoi(c); err == nil && n > 0 {
				count = n
			}
		}
		candidates, err := discovery.FindComparables(req.Context(), chi.URLParam(req, "id"), count)
		if err != nil {
			writeError(w, err)
			return
		}
		if candidates == nil {
			candidates = []model.ComparableCandidate{}
		}
		writeJSON(w, http.StatusOK, candidates)
	})

	r.Post("/analyses/{id}/reconcile", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Finalize        bool    `json:"finalize"`
			ApplyToProperty bool    `json:"apply_to_property"`
			UserID          *string `json:"user_id"`
		}
		if req.Body != nil {
			_ = json.NewDecoder(req.Body).Decode(&body)
		}
		result, err := reconciler.Reconcile(req.Context(), chi.URLParam(req, "id"), reconcile.Options{
			Finalize:        body.Finalize,
			ApplyToProperty: body.ApplyToProperty,
			UserID:          body.UserID,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	r.Get("/lineage/entity/{id}", func(w http.ResponseWriter, req *http.Request) {
		var records []model.LineageRecord
		var err error
		if field := req.URL.Query().Get("field"); field != "" {
			records, err = env.Ledger.ByEntityAndField(req.Context(), chi.URLParam(req, "id"), field)
		} else {
			records, err = env.Ledger.ByEntity(req.Context(), chi.URLParam(req, "id"))
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
	})

	r.Get("/lineage/source/{source}", func(w http.ResponseWriter, req *http.Request) {
		src := model.ChangeSource(chi.URLParam(req, "source"))
		if !model.ValidSource(src) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown source"})
			return
		}
		records, err := env.Ledger.BySource(req.Context(), src, queryLimit(req))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
	})

	r.Get("/lineage/user/{id}", func(w http.ResponseWriter, req *http.Request) {
		records, err := env.Ledger.ByUser(req.Context(), chi.URLParam(req, "id"), queryLimit(req))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
	})

	return r
}

func rateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(limit, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !limiter.Allow() {
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func queryLimit(req *http.Request) int {
	if l := req.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			return n
		}
	}
	return 100
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps core errors to HTTP statuses: absence and empty results
// are business outcomes, conflicts are retryable, everything else is a 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, reconcile.ErrNoParticipatingEntries):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "no participating entries"})
	case errors.Is(err, store.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "conflicting update, retry"})
	default:
		zap.L().Error("serve: request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

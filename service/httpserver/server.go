package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"click-war/internal/logger"
	"click-war/service/clicks"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 5 * time.Second

// Config controls how the HTTP service listener behaves.
type Config struct {
	Addr string
}

// Run starts the HTTP service listener until the provided context is canceled.
func Run(ctx context.Context, cfg Config, svc *clicks.Service, log *logger.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if svc == nil {
		return fmt.Errorf("clicks service is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{Addr: addr, Handler: NewRouter(svc, log)}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		} else {
			errCh <- nil
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		log.Info().Msg("http server stopped")
		return nil

	case err := <-errCh:
		return err
	}
}

// NewRouter builds the HTTP routes over svc.
func NewRouter(svc *clicks.Service, log *logger.Logger) http.Handler {
	h := &handler{svc: svc}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "click-war service online")
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/scores", h.getScores)
	r.Delete("/scores", h.resetScores)
	r.Post("/click/{team}", h.click)
	return r
}

// requestLogger attaches a logger carrying the request id to each request
// context.
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLog := log.With("request_id", middleware.GetReqID(r.Context())).
				With("route", r.Method+" "+r.URL.Path)
			next.ServeHTTP(w, r.WithContext(reqLog.WithContext(r.Context())))
		})
	}
}

type handler struct {
	svc *clicks.Service
}

func (h *handler) getScores(w http.ResponseWriter, r *http.Request) {
	scores, err := h.svc.Scores(r.Context())
	if err != nil {
		h.fail(w, r, http.StatusBadGateway, "failed to load scores", err)
		return
	}
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.fail(w, r, http.StatusBadGateway, "failed to load stats", err)
		return
	}
	leader, _ := scores.Leader()
	respondJSON(w, http.StatusOK, map[string]any{
		"scores": scores,
		"stats":  stats,
		"leader": leader,
	})
}

func (h *handler) click(w http.ResponseWriter, r *http.Request) {
	team := chi.URLParam(r, "team")
	score, err := h.svc.Click(r.Context(), team)
	if err != nil {
		if errors.Is(err, clicks.ErrInvalidTeam) {
			respondJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.fail(w, r, http.StatusBadGateway, "failed to record click", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"team":  strings.TrimSpace(team),
		"score": score,
	})
}

func (h *handler) resetScores(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reset(r.Context()); err != nil {
		h.fail(w, r, http.StatusBadGateway, "failed to reset scores", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	logger.FromContext(r.Context()).Error().Err(err).Int("status", status).Msg(msg)
	respondJSONError(w, status, fmt.Sprintf("%s: %v", msg, err))
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondJSONError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Sternrassler/feedloader/pkg/loader"
	"github.com/Sternrassler/feedloader/pkg/logging"
	"github.com/Sternrassler/feedloader/pkg/metrics"
	"github.com/Sternrassler/feedloader/pkg/pagination"
)

const (
	// maxNotifications bounds the notification log kept by the server.
	maxNotifications = 100

	shutdownTimeout = 10 * time.Second
)

func newServeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the list over HTTP",
		Long:  "Loads the first page and exposes the list, load triggers, notifications and metrics over HTTP.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.Addr, "addr", opts.Addr, "listen address")
	return cmd
}

func runServe(ctx context.Context, opts *options) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(opts.LogLevel),
		Pretty: opts.Pretty,
		Output: os.Stderr,
	})
	logger := logging.NewLogger("feed-serve")

	fetcher, cleanup, err := opts.buildFetcher(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to set up page source")
		return err
	}
	defer cleanup()

	l := loader.New(fetcher, opts.loaderConfig())
	srv := newServer(ctx, l, opts.RefreshTimeout)
	defer srv.close()

	l.Load(ctx, false, srv.onComplete)

	httpServer := &http.Server{
		Addr:              opts.Addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().
			Str("addr", opts.Addr).
			Str("source", opts.Source).
			Msg("Starting feed server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info().Msg("Shutting down feed server")
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("Server failed")
		return err
	}
	return nil
}

// notification is a loader notification as reported over HTTP. IDs are ULIDs
// and sort in arrival order.
type notification struct {
	ID       string    `json:"id"`
	Message  string    `json:"message"`
	Terminal bool      `json:"terminal"`
	Time     time.Time `json:"time"`
}

// server is the HTTP presenter. Loads it starts are bound to its base
// context rather than to the request that triggered them.
type server struct {
	ctx       context.Context
	loader    *loader.Loader
	refresher *loader.Refresher
	logger    zerolog.Logger

	mu            sync.Mutex
	notifications []notification
}

func newServer(ctx context.Context, l *loader.Loader, refreshTimeout time.Duration) *server {
	s := &server{
		ctx:    ctx,
		loader: l,
		logger: log.With().Str("component", "feed-serve").Logger(),
	}
	s.refresher = loader.NewRefresher(l, refreshTimeout, func() {
		s.logger.Warn().Msg("Refresh ended by watchdog")
	})
	l.SetNotifier(s)
	return s
}

func (s *server) close() {
	s.refresher.Stop()
	s.loader.SetNotifier(nil)
}

// Notify implements loader.Notifier. The fetch goroutine and the refresh
// watchdog both notify, so IDs are minted under s.mu to keep the log sorted.
func (s *server) Notify(message string, terminal bool) {
	s.mu.Lock()
	n := notification{
		ID:       ulid.Make().String(),
		Message:  message,
		Terminal: terminal,
		Time:     time.Now().UTC(),
	}
	s.notifications = append(s.notifications, n)
	if over := len(s.notifications) - maxNotifications; over > 0 {
		s.notifications = append(s.notifications[:0], s.notifications[over:]...)
	}
	s.mu.Unlock()

	s.logger.Info().
		Str("id", n.ID).
		Str("message", message).
		Bool("terminal", terminal).
		Msg("Notification")
}

// notificationsSince returns notifications with an ID after since, oldest first.
func (s *server) notificationsSince(since string) []notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if n.ID > since {
			out = append(out, n)
		}
	}
	return out
}

func (s *server) onComplete(success bool) {
	s.logger.Debug().Bool("success", success).Int("records", s.loader.Len()).Msg("Load completed")
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("GET /records", s.recordsHandler)
	mux.HandleFunc("POST /refresh", s.refreshHandler)
	mux.HandleFunc("POST /more", s.moreHandler)
	mux.HandleFunc("POST /prefetch", s.prefetchHandler)
	mux.HandleFunc("GET /notifications", s.notificationsHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

type recordsResponse struct {
	Records    []pagination.Record `json:"records"`
	Count      int                 `json:"count"`
	Loading    bool                `json:"loading"`
	Refreshing bool                `json:"refreshing"`
	ReachedEnd bool                `json:"reached_end"`
	Message    string              `json:"message,omitempty"`
}

func (s *server) recordsHandler(w http.ResponseWriter, r *http.Request) {
	state := s.loader.Snapshot()
	resp := recordsResponse{
		Records:    state.Records,
		Count:      len(state.Records),
		Loading:    state.Loading,
		Refreshing: s.refresher.IsRefreshing(),
		ReachedEnd: state.ReachedEnd,
	}
	if resp.Count == 1 {
		resp.Message = loader.EmptyListMessage
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type loadResponse struct {
	Started bool `json:"started"`
}

func (s *server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	started := s.refresher.BeginRefresh(s.ctx, s.onComplete)
	s.writeJSON(w, http.StatusAccepted, loadResponse{Started: started})
}

func (s *server) moreHandler(w http.ResponseWriter, r *http.Request) {
	started := s.loader.Load(s.ctx, false, s.onComplete)
	s.writeJSON(w, http.StatusAccepted, loadResponse{Started: started})
}

type prefetchResponse struct {
	Prefetch bool `json:"prefetch"`
	Started  bool `json:"started"`
}

// prefetchHandler is called by clients as they render row index. It starts
// the next page load when the row is the prefetch trigger, so it only
// answers POST.
func (s *server) prefetchHandler(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil {
		http.Error(w, "index must be an integer", http.StatusBadRequest)
		return
	}

	resp := prefetchResponse{Prefetch: s.loader.ShouldPrefetch(index)}
	if resp.Prefetch {
		resp.Started = s.loader.Load(s.ctx, false, s.onComplete)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *server) notificationsHandler(w http.ResponseWriter, r *http.Request) {
	since := r.URL.Query().Get("since")
	if since != "" {
		if _, err := ulid.ParseStrict(since); err != nil {
			http.Error(w, "since must be a notification id", http.StatusBadRequest)
			return
		}
	}
	s.writeJSON(w, http.StatusOK, s.notificationsSince(since))
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write response")
	}
}

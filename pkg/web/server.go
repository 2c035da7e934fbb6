package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ritzau/gridlights/pkg/logging"
	"github.com/ritzau/gridlights/pkg/pubsub"
	"github.com/ritzau/gridlights/pkg/sim"
)

//go:embed static/*
var staticFiles embed.FS

// maxDimension bounds resize requests; anything larger is a client bug
const maxDimension = 1 << 15

// ResizeRequest is the body of POST /api/resize
type ResizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ConfigResponse is returned by GET /api/config
type ConfigResponse struct {
	Options sim.Options `json:"options"`
	Running bool        `json:"running"`
}

// Server represents the web server
type Server struct {
	router    *mux.Router
	loop      *sim.Loop
	publisher *pubsub.SSEPublisher
}

// NewServer creates a web server that renders loop in the browser. It
// registers listeners on loop, so create it before the loop starts.
func NewServer(loop *sim.Loop) *Server {
	ssePublisher := pubsub.NewSSEPublisher()

	// A new tab needs the current lines and the latest frame, nothing older
	ssePublisher.ConfigureTopic(pubsub.TopicGrid, pubsub.TopicConfig{BufferSize: 1})
	ssePublisher.ConfigureTopic(pubsub.TopicFrames, pubsub.TopicConfig{BufferSize: 1})
	ssePublisher.ConfigureTopic(pubsub.TopicStatus, pubsub.TopicConfig{BufferSize: 1})

	s := &Server{
		router:    mux.NewRouter(),
		loop:      loop,
		publisher: ssePublisher,
	}

	loop.OnRebuild(s.publishLines)
	loop.OnFrame(s.publishFrame)
	s.publishLines(loop.Lines())

	s.setupRoutes()
	return s
}

func (s *Server) publishLines(lines sim.GridLines) {
	if err := s.publisher.Publish(pubsub.TopicGrid, pubsub.EventLines, lines); err != nil {
		logging.Warn("failed to publish grid", "version", lines.Version, "error", err)
	}
}

func (s *Server) publishFrame(frame sim.Frame, _ sim.TickStats) {
	// The latest frame is always available from /api/frame, so there is no
	// need to encode frames nobody is watching
	if s.publisher.Subscribers(pubsub.TopicFrames) == 0 {
		return
	}
	if err := s.publisher.Publish(pubsub.TopicFrames, pubsub.EventFrame, frame); err != nil {
		logging.Warn("failed to publish frame", "frame", frame.Frame, "error", err)
	}
}

func (s *Server) publishStatus() pubsub.Status {
	status := pubsub.Status{Running: s.loop.Running(), Frame: s.loop.Latest().Frame}
	if err := s.publisher.Publish(pubsub.TopicStatus, pubsub.EventStatus, status); err != nil {
		logging.Warn("failed to publish status", "error", err)
	}
	return status
}

func (s *Server) setupRoutes() {
	s.router.Use(logging.RequestIDMiddleware)

	// SSE subscription endpoints
	s.router.HandleFunc("/api/subscribe/grid", s.handleSubscribe(pubsub.TopicGrid)).Methods("GET")
	s.router.HandleFunc("/api/subscribe/frames", s.handleSubscribe(pubsub.TopicFrames)).Methods("GET")
	s.router.HandleFunc("/api/subscribe/status", s.handleSubscribe(pubsub.TopicStatus)).Methods("GET")

	s.router.HandleFunc("/api/config", s.handleConfig).Methods("GET")
	s.router.HandleFunc("/api/grid", s.handleGrid).Methods("GET")
	s.router.HandleFunc("/api/frame", s.handleFrame).Methods("GET")
	s.router.HandleFunc("/api/resize", s.handleResize).Methods("POST")
	s.router.HandleFunc("/api/start", s.handleStart).Methods("POST")
	s.router.HandleFunc("/api/stop", s.handleStop).Methods("POST")

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logging.Fatal("embedded static files missing", "error", err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

// Handler returns the router with middleware applied
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleSubscribe(topic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		flusher, _ := w.(http.Flusher)

		// Send initial comment to establish connection (Safari compatibility)
		fmt.Fprintf(w, ": connected\n\n")
		if flusher != nil {
			flusher.Flush()
		}

		sub, err := s.publisher.Subscribe(r.Context(), topic)
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		defer sub.Close()

		for {
			select {
			case <-r.Context().Done():
				return
			case event, ok := <-sub.Events():
				if !ok {
					return
				}
				if err := pubsub.WriteSSE(w, event); err != nil {
					logging.DebugContext(r.Context(), "event stream write failed", "topic", topic, "error", err)
					return
				}
				if flusher != nil {
					flusher.Flush()
				}
			}
		}
	}
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ConfigResponse{Options: s.loop.Options(), Running: s.loop.Running()})
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.loop.Lines())
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.loop.Latest())
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req ResizeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid resize request: %v", err), http.StatusBadRequest)
		return
	}
	if !validDimension(req.Width) || !validDimension(req.Height) {
		http.Error(w, fmt.Sprintf("invalid size %vx%v", req.Width, req.Height), http.StatusBadRequest)
		return
	}

	s.loop.Resize(req.Width, req.Height)
	logging.DebugContext(r.Context(), "resize requested", "width", req.Width, "height", req.Height)
	writeJSON(w, http.StatusAccepted, req)
}

func validDimension(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= maxDimension
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.loop.Start()
	writeJSON(w, http.StatusOK, s.publishStatus())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.loop.Stop()
	writeJSON(w, http.StatusOK, s.publishStatus())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to encode response", "error", err)
	}
}

// Start serves on port until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		// Event streams never finish on their own
		s.publisher.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warn("web server shutdown", "error", err)
		}
	}()

	logging.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}

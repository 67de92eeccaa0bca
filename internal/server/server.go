// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/jeranaias/voicechat/internal/audio"
	"github.com/jeranaias/voicechat/internal/logger"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is the reference backend's development address.
	DefaultAddr = "127.0.0.1:8000"

	// MaxQueryLength is the maximum length for a text query.
	MaxQueryLength = 100000

	// MaxUploadSize is the maximum accepted audio upload.
	MaxUploadSize = 32 * 1024 * 1024

	// ReplyClipLength is the length of synthesized reply clips.
	ReplyClipLength = 400 * time.Millisecond

	// Version is the server version.
	Version = "0.1.0"
)

// ============================================================================
// SERVER STATS
// ============================================================================

// ServerStats tracks server usage statistics.
type ServerStats struct {
	TotalRequests int64     `json:"total_requests"`
	TextRequests  int64     `json:"text_requests"`
	AudioRequests int64     `json:"audio_requests"`
	ClipsServed   int64     `json:"clips_served"`
	StartTime     time.Time `json:"start_time"`
}

// NewServerStats creates a new ServerStats instance.
func NewServerStats() *ServerStats {
	return &ServerStats{StartTime: time.Now()}
}

// GetStats returns a copy of the current stats.
func (s *ServerStats) GetStats() ServerStats {
	return ServerStats{
		TotalRequests: atomic.LoadInt64(&s.TotalRequests),
		TextRequests:  atomic.LoadInt64(&s.TextRequests),
		AudioRequests: atomic.LoadInt64(&s.AudioRequests),
		ClipsServed:   atomic.LoadInt64(&s.ClipsServed),
		StartTime:     s.StartTime,
	}
}

// Uptime returns the server uptime duration.
func (s *ServerStats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// ============================================================================
// SERVER
// ============================================================================

// Config configures the mock backend.
type Config struct {
	// Addr is the listen address (default 127.0.0.1:8000).
	Addr string
	// APIKey, when set, is required in the x_api_key header.
	APIKey string
	// ReplyDelay simulates backend latency.
	ReplyDelay time.Duration
	// CORSOrigins lists browser origins allowed to call the API.
	CORSOrigins []string
	// Logger receives request logs (default: the shared logger).
	Logger *slog.Logger
}

// Server is a mock chat backend speaking the same HTTP contract as the
// real one. Replies echo the query; transcripts describe the uploaded clip.
type Server struct {
	cfg    Config
	router chi.Router
	server *http.Server
	stats  *ServerStats
	log    *slog.Logger

	mu    sync.RWMutex
	turns map[string]int
	clips map[string][]byte
}

// New creates a Server.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.L
	}

	s := &Server{
		cfg:   cfg,
		stats: NewServerStats(),
		log:   cfg.Logger,
		turns: make(map[string]int),
		clips: make(map[string][]byte),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RecoveryMiddleware(s.log))
	r.Use(LoggingMiddleware(s.log))
	r.Use(s.countRequests)
	if len(s.cfg.CORSOrigins) > 0 {
		r.Use(CORSMiddleware(s.cfg.CORSOrigins))
	}

	r.Get("/health", s.handleHealth)
	r.Get("/stats", s.handleStats)
	r.Get("/response_audio/{name}", s.handleResponseAudio)

	r.Route("/api", func(api chi.Router) {
		api.Use(APIKeyMiddleware(s.cfg.APIKey, s.log))
		api.Post("/chat", s.handleChat)
		api.Post("/chat/audio", s.handleChatAudio)
	})

	s.router = r
}

// Handler returns the routed handler, for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Stats returns the server statistics.
func (s *Server) Stats() ServerStats {
	return s.stats.GetStats()
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&s.stats.TotalRequests, 1)
		next.ServeHTTP(w, r)
	})
}

// nextTurn advances and returns the turn counter of a conversation.
func (s *Server) nextTurn(sessionID, userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sessionID + "\x00" + userID
	s.turns[key]++
	return s.turns[key]
}

func (s *Server) delay(ctx context.Context) {
	if s.cfg.ReplyDelay <= 0 {
		return
	}
	select {
	case <-time.After(s.cfg.ReplyDelay):
	case <-ctx.Done():
	}
}

// ============================================================================
// CHAT HANDLERS
// ============================================================================

// handleChat handles POST /api/chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt64(&s.stats.TextRequests, 1)

	q := r.URL.Query()
	query, sessionID, userID := q.Get("user_query"), q.Get("session_id"), q.Get("user_id")
	if missing := missingFields(map[string]string{
		"user_query": query, "session_id": sessionID, "user_id": userID,
	}); missing != "" {
		s.writeError(w, http.StatusUnprocessableEntity, "missing query parameter: "+missing)
		return
	}
	if len(query) > MaxQueryLength {
		s.writeError(w, http.StatusRequestEntityTooLarge, "query too long")
		return
	}

	s.delay(r.Context())
	turn := s.nextTurn(sessionID, userID)

	// The reference backend capitalizes this key on the text endpoint.
	s.writeJSON(w, http.StatusOK, map[string]string{
		"Message": fmt.Sprintf("**Echo** (turn %d): %s", turn, query),
	})
}

// handleChatAudio handles POST /api/chat/audio.
func (s *Server) handleChatAudio(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt64(&s.stats.AudioRequests, 1)

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	sessionID := firstNonEmpty(r.URL.Query().Get("session_id"), r.FormValue("session_id"))
	userID := firstNonEmpty(r.URL.Query().Get("user_id"), r.FormValue("user_id"))
	if missing := missingFields(map[string]string{"session_id": sessionID, "user_id": userID}); missing != "" {
		s.writeError(w, http.StatusUnprocessableEntity, "missing field: "+missing)
		return
	}

	file, _, err := r.FormFile("audio")
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "missing field: audio")
		return
	}
	defer file.Close()
	clip, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read audio")
		return
	}

	s.delay(r.Context())
	turn := s.nextTurn(sessionID, userID)

	transcript := describeClip(clip)
	name := uuid.NewString() + ".wav"
	s.mu.Lock()
	s.clips[name] = audio.Tone(660, ReplyClipLength)
	s.mu.Unlock()

	s.log.Debug("audio chat", "session_id", sessionID, "bytes", len(clip), "clip", name)
	s.writeJSON(w, http.StatusOK, map[string]string{
		"text":      transcript,
		"message":   fmt.Sprintf("**Echo** (turn %d): I heard %s", turn, transcript),
		"audio_url": "/response_audio/" + name,
	})
}

// handleResponseAudio handles GET /response_audio/{name}.
func (s *Server) handleResponseAudio(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	s.mu.RLock()
	clip, ok := s.clips[name]
	s.mu.RUnlock()
	if !ok {
		s.writeError(w, http.StatusNotFound, "no such clip")
		return
	}

	atomic.AddInt64(&s.stats.ClipsServed, 1)
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", fmt.Sprint(len(clip)))
	w.WriteHeader(http.StatusOK)
	w.Write(clip)
}

func describeClip(clip []byte) string {
	if d := audio.Duration(clip); d > 0 {
		return fmt.Sprintf("%.1f seconds of audio", d.Seconds())
	}
	return fmt.Sprintf("%d bytes of audio", len(clip))
}

// ============================================================================
// HEALTH / STATS HANDLERS
// ============================================================================

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: Version})
}

// StatsResponse represents the usage statistics response.
type StatsResponse struct {
	TotalRequests int64 `json:"total_requests"`
	TextRequests  int64 `json:"text_requests"`
	AudioRequests int64 `json:"audio_requests"`
	ClipsServed   int64 `json:"clips_served"`
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// handleStats handles GET /stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.stats.GetStats()
	s.writeJSON(w, http.StatusOK, StatsResponse{
		TotalRequests: stats.TotalRequests,
		TextRequests:  stats.TextRequests,
		AudioRequests: stats.AudioRequests,
		ClipsServed:   stats.ClipsServed,
		UptimeSeconds: int64(stats.Uptime().Seconds()),
	})
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.log.Info("mock backend listening", "addr", s.cfg.Addr, "version", Version, "auth", s.cfg.APIKey != "")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	stats := s.stats.GetStats()
	s.log.Info("mock backend shutting down",
		"requests", stats.TotalRequests,
		"clips_served", stats.ClipsServed,
	)
	return s.server.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("failed to encode response", "error", err)
	}
}

// writeError writes a JSON error response in the reference backend's
// {"detail": ...} shape.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"detail": message})
}

// missingFields returns the sorted, comma-separated names of empty fields.
func missingFields(fields map[string]string) string {
	var missing []string
	for _, name := range []string{"user_query", "session_id", "user_id"} {
		if v, ok := fields[name]; ok && v == "" {
			missing = append(missing, name)
		}
	}
	return strings.Join(missing, ", ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

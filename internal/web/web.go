// Package web exposes the hub's JSON API: briefing and reflection
// documents, the merged health summary, the merged calendar, and free
// slots.
package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"jarvis/internal/calendar"
	"jarvis/internal/config"
	"jarvis/internal/daily"
	"jarvis/internal/health"
	appLog "jarvis/internal/log"
	"jarvis/internal/source"
)

// Chatter is the conversational agent slice the API needs. Nil when no
// agent is configured.
type Chatter interface {
	Chat(ctx context.Context, message string) (string, error)
}

// Server provides the HTTP JSON API over the daily, health, and
// calendar aggregators.
type Server struct {
	cfg      *config.Config
	daily    *daily.Aggregator
	health   *health.Aggregator
	calendar *calendar.Aggregator
	agent    Chatter
	loc      *time.Location
	mux      *http.ServeMux

	// Briefing and reflection fan out to every source; a short TTL cache
	// keeps repeated UI polls from hammering the upstream APIs.
	docMu    sync.RWMutex
	docCache map[daily.Kind]*docCache
}

type docCache struct {
	doc       daily.Document
	updatedAt time.Time
}

const docCacheTTL = 60 * time.Second

// NewServer constructs the API server. agent may be nil; /api/chat then
// reports 503.
func NewServer(cfg *config.Config, d *daily.Aggregator, h *health.Aggregator, c *calendar.Aggregator, agent Chatter, loc *time.Location) *Server {
	if loc == nil {
		loc = time.Local
	}
	s := &Server{
		cfg:      cfg,
		daily:    d,
		health:   h,
		calendar: c,
		agent:    agent,
		loc:      loc,
		mux:      http.NewServeMux(),
		docCache: make(map[daily.Kind]*docCache),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/briefing", s.handleBriefing)
	s.mux.HandleFunc("/api/reflection", s.handleReflection)
	s.mux.HandleFunc("/api/health-summary", s.handleHealthSummary)
	s.mux.HandleFunc("/api/calendar", s.handleCalendar)
	s.mux.HandleFunc("/api/free-slots", s.handleFreeSlots)
	s.mux.HandleFunc("/api/chat", s.handleChat)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleBriefing(w http.ResponseWriter, r *http.Request) {
	s.serveDocument(w, r, daily.KindMorning)
}

func (s *Server) handleReflection(w http.ResponseWriter, r *http.Request) {
	s.serveDocument(w, r, daily.KindEvening)
}

// serveDocument builds (or returns the cached) document of the given
// kind for today.
func (s *Server) serveDocument(w http.ResponseWriter, r *http.Request, kind daily.Kind) {
	now := time.Now().In(s.loc)

	s.docMu.RLock()
	cached := s.docCache[kind]
	s.docMu.RUnlock()
	if cached != nil && now.Sub(cached.updatedAt) < docCacheTTL && cached.doc.Date == source.FormatDate(now) {
		writeJSON(w, http.StatusOK, cached.doc)
		return
	}

	var doc daily.Document
	switch kind {
	case daily.KindMorning:
		doc = s.daily.MorningBriefing(r.Context(), now)
	default:
		doc = s.daily.EveningReflection(r.Context(), now)
	}

	s.docMu.Lock()
	s.docCache[kind] = &docCache{doc: doc, updatedAt: time.Now()}
	s.docMu.Unlock()

	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleHealthSummary(w http.ResponseWriter, r *http.Request) {
	day, ok := s.parseDateParam(w, r)
	if !ok {
		return
	}

	summary, err := s.health.Summary(r.Context(), day)
	if err != nil {
		appLog.Error("api health summary failed", err)
		writeError(w, http.StatusInternalServerError, "failed to build health summary")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	day, ok := s.parseDateParam(w, r)
	if !ok {
		return
	}

	merged, err := s.calendar.MergedEvents(r.Context(), day)
	if err != nil {
		appLog.Error("api calendar failed", err)
		writeError(w, http.StatusInternalServerError, "failed to merge calendars")
		return
	}
	writeJSON(w, http.StatusOK, merged)
}

// freeSlotsResponse is the JSON response shape for /api/free-slots.
type freeSlotsResponse struct {
	Date   string              `json:"date"`
	Window [2]int              `json:"window"`
	Slots  []calendar.FreeSlot `json:"slots"`
}

func (s *Server) handleFreeSlots(w http.ResponseWriter, r *http.Request) {
	day, ok := s.parseDateParam(w, r)
	if !ok {
		return
	}

	window := s.workWindow()
	q := r.URL.Query()
	if v := q.Get("start_hour"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			window.StartHour = n
		}
	}
	if v := q.Get("end_hour"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			window.EndHour = n
		}
	}

	slots, err := s.calendar.FreeSlotsFor(r.Context(), day, window)
	if err != nil {
		appLog.Error("api free slots failed", err)
		writeError(w, http.StatusInternalServerError, "failed to compute free slots")
		return
	}
	writeJSON(w, http.StatusOK, freeSlotsResponse{
		Date:   day.Format("2006-01-02"),
		Window: [2]int{window.StartHour, window.EndHour},
		Slots:  slots,
	})
}

// chatRequest is the JSON request shape for /api/chat.
type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	if s.agent == nil {
		writeError(w, http.StatusServiceUnavailable, "agent not configured")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 64<<10))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req chatRequest
	if err := json.Unmarshal(body, &req); err != nil || req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := s.agent.Chat(r.Context(), req.Message)
	if err != nil {
		appLog.Error("api chat failed", err)
		writeError(w, http.StatusInternalServerError, "agent request failed")
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

// parseDateParam reads ?date=YYYY-MM-DD, defaulting to today in the
// display zone. On a malformed date it writes a 400 and reports false.
func (s *Server) parseDateParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	v := r.URL.Query().Get("date")
	if v == "" {
		return time.Now().In(s.loc), true
	}
	day, err := time.ParseInLocation("2006-01-02", v, s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return day, true
}

func (s *Server) workWindow() calendar.Window {
	if len(s.cfg.WorkHours) == 2 {
		return calendar.Window{StartHour: s.cfg.WorkHours[0], EndHour: s.cfg.WorkHours[1]}
	}
	return calendar.DefaultWindow
}

// StartServer serves the API on cfg.Listen until the listener fails.
func StartServer(_ context.Context, s *Server) error {
	appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
	return http.ListenAndServe(s.cfg.Listen, s.Handler())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

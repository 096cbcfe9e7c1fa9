// Package api serves the resolver's read-only HTTP surface: live engine
// snapshots, stored session statistics and timeline charts.
package api

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/facing.report/internal/db"
	"github.com/banshee-data/facing.report/internal/httputil"
	"github.com/banshee-data/facing.report/internal/report"
	"github.com/banshee-data/facing.report/internal/resolver"
	"github.com/banshee-data/facing.report/internal/version"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Overrides exposes the last yaw published per entity.
type Overrides interface {
	All() map[resolver.EntityID]float64
}

type Server struct {
	engine       *resolver.Engine
	db           *db.DB
	overrides    Overrides
	hitTolerance float64
}

// NewServer creates a server. db and overrides may be nil; the routes that
// need them then answer 503.
func NewServer(engine *resolver.Engine, database *db.DB, overrides Overrides, hitTolerance float64) *Server {
	return &Server{
		engine:       engine,
		db:           database,
		overrides:    overrides,
		hitTolerance: hitTolerance,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/version", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSONOK(w, version.Get())
	})
	mux.HandleFunc("GET /api/snapshot", s.showSnapshot)
	mux.HandleFunc("GET /api/sessions", s.listSessions)
	mux.HandleFunc("GET /api/sessions/{id}/accuracy", s.showAccuracy)
	mux.HandleFunc("GET /api/sessions/{id}/timeline", s.showTimeline)
	mux.HandleFunc("GET /charts/timeline", s.timelineChart)
	mux.HandleFunc("GET /charts/timeline.png", s.timelinePNG)
	return mux
}

type snapshotResponse struct {
	resolver.Snapshot
	Overrides map[resolver.EntityID]float64 `json:"overrides,omitempty"`
}

func (s *Server) showSnapshot(w http.ResponseWriter, r *http.Request) {
	resp := snapshotResponse{Snapshot: s.engine.Snapshot()}
	if s.overrides != nil {
		resp.Overrides = s.overrides.All()
	}
	httputil.WriteJSONOK(w, resp)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		httputil.ServiceUnavailable(w, "no database configured")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			httputil.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}
	sessions, err := s.db.ListSessions(limit)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if sessions == nil {
		sessions = []db.Session{}
	}
	httputil.WriteJSONOK(w, sessions)
}

type accuracyResponse struct {
	Session  *db.Session         `json:"session"`
	Entities []db.EntityAccuracy `json:"entities"`
	Methods  []db.MethodStat     `json:"methods"`
}

func (s *Server) showAccuracy(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r.PathValue("id"))
	if !ok {
		return
	}
	entities, err := s.db.AccuracyByEntity(sess.ID)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	methods, err := s.db.MethodStats(sess.ID)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if entities == nil {
		entities = []db.EntityAccuracy{}
	}
	if methods == nil {
		methods = []db.MethodStat{}
	}
	httputil.WriteJSONOK(w, accuracyResponse{Session: sess, Entities: entities, Methods: methods})
}

type timelineResponse struct {
	EntityID resolver.EntityID  `json:"entity_id"`
	Summary  report.Summary     `json:"summary"`
	Points   []db.TimelinePoint `json:"points"`
}

func (s *Server) showTimeline(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r.PathValue("id"))
	if !ok {
		return
	}
	rows, entity, ok := s.timeline(w, sess.ID, r.URL.Query().Get("entity"))
	if !ok {
		return
	}
	if rows == nil {
		rows = []db.TimelinePoint{}
	}
	httputil.WriteJSONOK(w, timelineResponse{
		EntityID: entity,
		Summary:  report.Summarize(report.PointsFromTimeline(rows), s.hitTolerance),
		Points:   rows,
	})
}

func (s *Server) timelineChart(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r.URL.Query().Get("session"))
	if !ok {
		return
	}
	rows, entity, ok := s.timeline(w, sess.ID, r.URL.Query().Get("entity"))
	if !ok {
		return
	}

	var buf bytes.Buffer
	title := fmt.Sprintf("%s entity %s", sess.Label, entity)
	if err := report.RenderTimeline(&buf, title, report.PointsFromTimeline(rows)); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render error: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) timelinePNG(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r.URL.Query().Get("session"))
	if !ok {
		return
	}
	rows, entity, ok := s.timeline(w, sess.ID, r.URL.Query().Get("entity"))
	if !ok {
		return
	}

	var buf bytes.Buffer
	title := fmt.Sprintf("%s entity %s", sess.Label, entity)
	if err := report.WritePNG(&buf, title, report.PointsFromTimeline(rows)); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render error: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}

// session resolves a session id, writing the error response on failure.
func (s *Server) session(w http.ResponseWriter, id string) (*db.Session, bool) {
	if s.db == nil {
		httputil.ServiceUnavailable(w, "no database configured")
		return nil, false
	}
	if id == "" {
		httputil.BadRequest(w, "session is required")
		return nil, false
	}
	sess, err := s.db.GetSession(id)
	if errors.Is(err, db.ErrSessionNotFound) {
		httputil.NotFound(w, "session not found")
		return nil, false
	}
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return nil, false
	}
	return sess, true
}

// timeline loads one entity's rows. An empty entity parameter selects the
// first entity with stored resolutions.
func (s *Server) timeline(w http.ResponseWriter, sessionID, entityParam string) ([]db.TimelinePoint, resolver.EntityID, bool) {
	var entity resolver.EntityID
	if entityParam == "" {
		ids, err := s.db.Entities(sessionID)
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return nil, 0, false
		}
		if len(ids) == 0 {
			httputil.NotFound(w, "session has no resolutions")
			return nil, 0, false
		}
		entity = ids[0]
	} else {
		n, err := strconv.Atoi(entityParam)
		if err != nil {
			httputil.BadRequest(w, "entity must be an integer")
			return nil, 0, false
		}
		entity = resolver.EntityID(n)
	}

	rows, err := s.db.Timeline(sessionID, entity)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return nil, 0, false
	}
	return rows, entity, true
}

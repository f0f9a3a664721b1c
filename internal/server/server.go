// Package server exposes editing sessions over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	pt "github.com/gofhir/profiletree"
	"github.com/gofhir/profiletree/element"
	"github.com/gofhir/profiletree/engine"
	"github.com/gofhir/profiletree/loader"
	"github.com/gofhir/profiletree/state"
	"github.com/gofhir/profiletree/walker"
)

// maxEventBody caps the size of an events request.
const maxEventBody = 1 << 20

// EditorFactory creates the editor of a new session.
type EditorFactory func(ctx context.Context) (*engine.Editor, error)

// Server holds the live editing sessions.
type Server struct {
	mu       sync.RWMutex
	sessions map[string]*engine.Editor

	newEditor EditorFactory
	metrics   *pt.Metrics
	logger    zerolog.Logger
}

// New creates a Server. metrics may be nil; it is reported by
// GET /api/metrics when the factory's editors share it.
func New(factory EditorFactory, metrics *pt.Metrics, logger zerolog.Logger) *Server {
	return &Server{
		sessions:  make(map[string]*engine.Editor),
		newEditor: factory,
		metrics:   metrics,
		logger:    logger,
	}
}

// Echo builds an echo instance serving the API under /api.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(Recovery(s.logger))
	e.Use(RequestID())
	e.Use(Logger(s.logger))

	s.RegisterRoutes(e.Group("/api"))
	return e
}

// RegisterRoutes binds the session routes to g.
func (s *Server) RegisterRoutes(g *echo.Group) {
	g.GET("/healthz", s.Health)
	g.GET("/metrics", s.Metrics)
	g.POST("/sessions", s.CreateSession)
	g.GET("/sessions/:id", s.GetSession)
	g.POST("/sessions/:id/events", s.PostEvents)
	g.POST("/sessions/:id/reload", s.ReloadSession)
	g.DELETE("/sessions/:id", s.DeleteSession)
}

// createRequest is the JSON body for session creation.
type createRequest struct {
	Key string `json:"key"`
}

// ViewResponse is the transport form of an editor view.
type ViewResponse struct {
	ID         string               `json:"id,omitempty"`
	Key        string               `json:"key"`
	Generation uint64               `json:"generation"`
	Loading    bool                 `json:"loading"`
	Error      string               `json:"error,omitempty"`
	Filter     walker.FilterOptions `json:"filter"`
	Rows       []state.RowView      `json:"rows"`
	Selected   *element.Node        `json:"selected,omitempty"`
	Issues     []pt.Issue           `json:"issues"`
}

func newViewResponse(id string, v engine.View) ViewResponse {
	resp := ViewResponse{
		ID:         id,
		Key:        v.Key,
		Generation: v.Generation,
		Loading:    v.Loading,
		Error:      v.Error,
		Filter:     v.Filter,
		Rows:       v.RowViews(),
		Issues:     []pt.Issue{},
	}
	if v.Selected != nil {
		sel := *v.Selected
		sel.Children = nil
		resp.Selected = &sel
	}
	if v.Report != nil && len(v.Report.Issues) > 0 {
		resp.Issues = v.Report.Issues
	}
	return resp
}

// Health handles GET /healthz.
func (s *Server) Health(c echo.Context) error {
	s.mu.RLock()
	n := len(s.sessions)
	s.mu.RUnlock()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": n,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(c echo.Context) error {
	if s.metrics == nil {
		return echo.NewHTTPError(http.StatusNotFound, "metrics not enabled")
	}
	return c.JSON(http.StatusOK, s.metrics.Snapshot())
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Key == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "key is required")
	}

	ctx := c.Request().Context()
	ed, err := s.newEditor(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := ed.Load(ctx, req.Key); err != nil {
		if errors.Is(err, loader.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		s.logger.Warn().Err(err).Str("key", req.Key).Msg("session created with failed load")
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = ed
	s.mu.Unlock()

	return c.JSON(http.StatusCreated, newViewResponse(id, ed.View()))
}

// GetSession handles GET /sessions/:id.
func (s *Server) GetSession(c echo.Context) error {
	id, ed, err := s.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newViewResponse(id, ed.View()))
}

// PostEvents handles POST /sessions/:id/events. The body is one event or
// an array of events.
func (s *Server) PostEvents(c echo.Context) error {
	id, ed, err := s.session(c)
	if err != nil {
		return err
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxEventBody))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	events, err := state.DecodeEvents(body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := ed.Dispatch(c.Request().Context(), events...); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return c.JSON(http.StatusOK, newViewResponse(id, ed.View()))
}

// ReloadSession handles POST /sessions/:id/reload.
func (s *Server) ReloadSession(c echo.Context) error {
	id, ed, err := s.session(c)
	if err != nil {
		return err
	}
	if err := ed.Reload(c.Request().Context()); err != nil {
		switch {
		case errors.Is(err, loader.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, engine.ErrStaleLoad):
		default:
			s.logger.Warn().Err(err).Str("session", id).Msg("reload failed")
		}
	}
	return c.JSON(http.StatusOK, newViewResponse(id, ed.View()))
}

// DeleteSession handles DELETE /sessions/:id.
func (s *Server) DeleteSession(c echo.Context) error {
	id := c.Param("id")
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) session(c echo.Context) (string, *engine.Editor, error) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", nil, echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	s.mu.RLock()
	ed, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return "", nil, echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return id, ed, nil
}

// ReloadKey reloads every session editing the profile stored under key.
// It is the change callback of a profile directory watcher.
func (s *Server) ReloadKey(ctx context.Context, key string) {
	s.mu.RLock()
	var targets []*engine.Editor
	for _, ed := range s.sessions {
		if ed.Key() == key {
			targets = append(targets, ed)
		}
	}
	s.mu.RUnlock()

	for _, ed := range targets {
		if err := ed.Reload(ctx); err != nil && !errors.Is(err, engine.ErrStaleLoad) {
			s.logger.Warn().Err(err).Str("key", key).Msg("reload after change failed")
		}
	}
	if len(targets) > 0 {
		s.logger.Info().Str("key", key).Int("sessions", len(targets)).Msg("reloaded changed profile")
	}
}

package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"rate_monitor/internal/models"
	health "rate_monitor/internal/modules/health/service"
	widget "rate_monitor/internal/modules/widget/service"
)

type Widget interface {
	MarketKind() models.MarketKind
	Periodicity() string
	SetMarketKind(ctx context.Context, raw string) error
	Instruments(ctx context.Context, kind, filter string) ([]models.Instrument, error)
	Selected() string
	Select(ctx context.Context, instrumentID string)
	Bars(ctx context.Context, req widget.BarsRequest) ([]models.Bar, error)
	Realtime() *models.RealtimeData
	Teardown()
}

type Session interface {
	Login(ctx context.Context) error
	Logout()
	LoggedIn() bool
}

type Stream interface {
	Latest() *models.RealtimeData
	Subscribe(fn func(*models.RealtimeData)) (unsubscribe func())
}

// Server, HTTP-обвязка виджета: каталог, выбор, график, цена и health.
type Server struct {
	Router *gin.Engine

	widget Widget
	sess   Session
	stream Stream
	state  *health.State
}

func NewServer(w Widget, sess Session, stream Stream, state *health.State) *Server {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger())
	r.Use(Tracing())

	s := &Server{
		Router: r,
		widget: w,
		sess:   sess,
		stream: stream,
		state:  state,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/livez", s.livez)
	s.Router.GET("/readyz", s.readyz)
	s.Router.GET("/healthz", s.healthz)

	api := s.Router.Group("/api", RateLimit(20, 50))
	api.GET("/kinds", s.kinds)
	api.GET("/instruments", s.instruments)
	api.GET("/selection", s.selection)
	api.PUT("/selection", s.selectInstrument)
	api.PUT("/market-kind", s.setMarketKind)
	api.GET("/bars", s.bars)
	api.GET("/realtime", s.realtime)
	api.DELETE("/realtime", s.teardown)
	api.POST("/session/login", s.login)
	api.POST("/session/logout", s.logout)

	s.Router.GET("/ws/realtime", s.realtimeWS)
}

func (s *Server) livez(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (s *Server) readyz(c *gin.Context) {
	if !s.state.Ready() {
		c.String(http.StatusServiceUnavailable, "not ready")
		return
	}
	c.String(http.StatusOK, "ready")
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, s.state.Snapshot())
}

func (s *Server) kinds(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"kinds":   models.MarketKinds,
		"current": s.widget.MarketKind(),
	})
}

func (s *Server) instruments(c *gin.Context) {
	list, err := s.widget.Instruments(c.Request.Context(), c.Query("kind"), c.Query("filter"))
	if err != nil {
		writeError(c, err)
		return
	}
	if list == nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "instruments unavailable"})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) selection(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"instrumentId": s.widget.Selected(),
		"marketKind":   s.widget.MarketKind(),
		"periodicity":  s.widget.Periodicity(),
	})
}

type selectRequest struct {
	InstrumentID string `json:"instrumentId"`
}

func (s *Server) selectInstrument(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.widget.Select(c.Request.Context(), req.InstrumentID)
	c.JSON(http.StatusOK, gin.H{"instrumentId": s.widget.Selected()})
}

type marketKindRequest struct {
	Kind string `json:"kind" binding:"required"`
}

func (s *Server) setMarketKind(c *gin.Context) {
	var req marketKindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.widget.SetMarketKind(c.Request.Context(), req.Kind); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"marketKind":   s.widget.MarketKind(),
		"instrumentId": s.widget.Selected(),
	})
}

// bars: ?start=&end= в формате 2006-01-02 или RFC3339, ?view=series отдаёт линии O/H/L/C.
func (s *Server) bars(c *gin.Context) {
	start, err := parseDate(c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start: " + err.Error()})
		return
	}
	end, err := parseDate(c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end: " + err.Error()})
		return
	}

	bars, err := s.widget.Bars(c.Request.Context(), widget.BarsRequest{
		Start:       start,
		End:         end,
		Periodicity: c.Query("periodicity"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	if c.Query("view") == "series" {
		c.JSON(http.StatusOK, models.ChartSeries(bars))
		return
	}
	c.JSON(http.StatusOK, bars)
}

// realtime отдаёт null, пока по выбранному инструменту не пришёл свежий тик.
func (s *Server) realtime(c *gin.Context) {
	c.JSON(http.StatusOK, s.widget.Realtime())
}

func (s *Server) teardown(c *gin.Context) {
	s.widget.Teardown()
	c.Status(http.StatusNoContent)
}

func (s *Server) login(c *gin.Context) {
	if err := s.sess.Login(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"loggedIn": s.sess.LoggedIn()})
}

func (s *Server) logout(c *gin.Context) {
	s.sess.Logout()
	c.JSON(http.StatusOK, gin.H{"loggedIn": s.sess.LoggedIn()})
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.Errorf("unsupported date %q", raw)
	}
	return t, nil
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrUnknownMarketKind), errors.Is(err, models.ErrInvalidRange):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrNoSelection):
		status = http.StatusConflict
	case errors.Is(err, models.ErrAuth), errors.Is(err, models.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, models.ErrRequest):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"profile-qa/internal/helper"
	"profile-qa/internal/models"
)

// Answerer runs the fetch/chunk/answer pipeline for one question.
type Answerer interface {
	Query(ctx context.Context, username, question string) (models.PromptResponse, error)
}

// Recorder persists answered questions.
type Recorder interface {
	StoreRecord(ctx context.Context, rec models.Record) error
}

type nopRecorder struct{}

func (nopRecorder) StoreRecord(context.Context, models.Record) error { return nil }

type askRequest struct {
	Username string `json:"username"`
	Question string `json:"question"`
}

type askResponse struct {
	Username   string `json:"username"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	AnswerHTML string `json:"answer_html,omitempty"`
}

type Server struct {
	echo     *echo.Echo
	answerer Answerer
	recorder Recorder
	metrics  *metrics
}

// New wires the HTTP routes. A nil recorder disables persistence; a nil
// registry gets a private one so tests can build several servers.
func New(answerer Answerer, recorder Recorder, reg *prometheus.Registry) *Server {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestLogger())
	e.HTTPErrorHandler = errorHandler

	s := &Server{echo: e, answerer: answerer, recorder: recorder, metrics: newMetrics(reg)}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	e.POST("/ask", s.ask)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(addr string) error {
	log.Info().Str("addr", addr).Msg("Listening")
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) ask(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || strings.TrimSpace(req.Question) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and question are required")
	}

	ctx := c.Request().Context()
	start := time.Now()
	resp, err := s.answerer.Query(ctx, req.Username, req.Question)
	s.metrics.duration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.questions.WithLabelValues("error").Inc()
		log.Error().Err(err).Str("username", req.Username).Msg("Failed to answer question")
		return err
	}
	s.metrics.questions.WithLabelValues(string(resp.State)).Inc()

	s.record(ctx, resp)

	out := askResponse{Username: resp.Username, Question: resp.Query, Answer: resp.Content}
	if c.QueryParam("format") == "html" {
		rendered, err := helper.MarkdownToHTML(resp.Content)
		if err != nil {
			return fmt.Errorf("render answer: %w", err)
		}
		out.AnswerHTML = rendered
	}
	return c.JSON(http.StatusOK, out)
}

// record is best-effort: a failed write is logged and counted, the answer is
// still returned.
func (s *Server) record(ctx context.Context, resp models.PromptResponse) {
	id, err := helper.GenerateUUID()
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate record id")
		s.metrics.recordFailures.Inc()
		return
	}
	rec := models.Record{
		RequestID: id,
		Username:  resp.Username,
		Question:  resp.Query,
		Answer:    resp.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.recorder.StoreRecord(context.WithoutCancel(ctx), rec); err != nil {
		log.Error().Err(err).Str("request_id", id).Str("username", rec.Username).Msg("Failed to store record")
		s.metrics.recordFailures.Inc()
	}
}

func errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}
	if !c.Response().Committed {
		if err := c.JSON(code, map[string]string{"detail": msg}); err != nil {
			log.Error().Err(err).Msg("Failed to write error response")
		}
	}
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.Str("method", v.Method).Str("uri", v.URI).Int("status", v.Status).Dur("latency", v.Latency).Msg("Request")
			return nil
		},
	})
}

// Package server 提供抠图 HTTP 接口：一次性去背景，以及可反复调整参数的会话
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/chaos-io/bgremover/config"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type Server struct {
	cfg    config.Config
	log    zerolog.Logger
	store  *Store
	cron   *cron.Cron
	engine *gin.Engine
}

func New(cfg config.Config, log zerolog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:   cfg,
		log:   log,
		store: NewStore(cfg.SessionTTL),
		cron:  cron.New(cron.WithLogger(cronLogger{log: log})),
	}
	if _, err := s.cron.AddFunc(cfg.SweepSpec, s.sweep); err != nil {
		return nil, fmt.Errorf("schedule session sweeper: %w", err)
	}
	s.engine = s.routes()
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))

	r.GET("/healthz", s.handleHealth)

	api := r.Group("/api")
	api.POST("/remove", s.handleRemove)
	api.POST("/sessions", s.handleCreateSession)
	api.POST("/sessions/:id/render", s.handleRender)
	api.GET("/sessions/:id/result", s.handleResult)
	api.GET("/sessions/:id/reveal", s.handleReveal)
	api.DELETE("/sessions/:id", s.handleDeleteSession)

	return r
}

func (s *Server) sweep() {
	if n := s.store.Sweep(); n > 0 {
		s.log.Info().Int("expired", n).Int("remaining", s.store.Len()).Msg("sessions swept")
	}
}

// Run 监听直到 ctx 结束，然后在 5 秒内优雅关闭
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.cron.Start()
	defer s.cron.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

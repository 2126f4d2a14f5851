package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ServerConfig HTTP 监听与超时；零值取默认
type ServerConfig struct {
	Addr              string
	ReadHeaderTimeout time.Duration // 默认 5s
	IdleTimeout       time.Duration // 默认 120s
	ShutdownTimeout   time.Duration // 默认 10s
}

// Server iotcare-data 的 HTTP 入口
type Server struct {
	httpServer *http.Server
	shutdown   time.Duration
	logger     *zap.Logger
}

func NewServer(cfg ServerConfig, handler http.Handler, logger *zap.Logger) *Server {
	orDefault := func(d, def time.Duration) time.Duration {
		if d <= 0 {
			return def
		}
		return d
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: orDefault(cfg.ReadHeaderTimeout, 5*time.Second),
			IdleTimeout:       orDefault(cfg.IdleTimeout, 120*time.Second),
		},
		shutdown: orDefault(cfg.ShutdownTimeout, 10*time.Second),
		logger:   logger,
	}
}

// Run 阻塞到 ctx 取消或监听失败；取消后在 ShutdownTimeout 内排空连接
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting iotcare-data HTTP server", zap.String("addr", s.httpServer.Addr))
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("Stopping iotcare-data HTTP server", zap.Duration("grace", s.shutdown))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

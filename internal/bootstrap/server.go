package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Domenick1991/travelbooking/config"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const shutdownTimeout = 5 * time.Second

type Servers struct {
	grpcServer *grpc.Server
	health     *health.Server
	httpServer *http.Server
	log        *zap.Logger
}

// Run starts the HTTP API and the gRPC health service and blocks until ctx is
// cancelled or a server fails.
func Run(ctx context.Context, cfg *config.Config, handler http.Handler, log *zap.Logger) error {
	s := newServers(cfg, handler, log)

	lis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
	}

	errCh := make(chan error, 2)
	go func() { errCh <- s.grpcServer.Serve(lis) }()
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	log.Info("servers started", zap.String("http", cfg.HTTP.Address), zap.String("grpc", cfg.GRPC.Address))

	select {
	case err := <-errCh:
		s.stop()
		return err
	case <-ctx.Done():
		return s.stop()
	}
}

func newServers(cfg *config.Config, handler http.Handler, log *zap.Logger) *Servers {
	grpcSrv := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	reflection.Register(grpcSrv)

	return &Servers{
		grpcServer: grpcSrv,
		health:     healthSrv,
		httpServer: &http.Server{
			Addr:              cfg.HTTP.Address,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

func (s *Servers) stop() error {
	s.health.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.grpcServer.GracefulStop()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	s.log.Info("servers stopped")
	return nil
}

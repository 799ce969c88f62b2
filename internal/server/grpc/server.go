// Package grpc exposes the Conduit services over gRPC. Requests pass through
// an explicit interceptor chain (request id and logging, metrics, error
// mapping, session guard) before reaching a handler.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/conduit/internal/api"
	"github.com/dmitrijs2005/conduit/internal/logging"
	"github.com/dmitrijs2005/conduit/internal/server/auth"
	"github.com/dmitrijs2005/conduit/internal/server/observability"
	"github.com/dmitrijs2005/conduit/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Services are the business services served by the API.
type Services struct {
	Auth      *services.AuthService
	Profiles  *services.ProfileService
	Articles  *services.ArticleService
	Favorites *services.FavoriteService
	Tags      *services.TagService
	Avatars   *services.AvatarService
}

type GRPCServer struct {
	address string
	svc     Services
	guard   *auth.Guard
	metrics *observability.Metrics
	health  *health.Server
	logger  logging.Logger
}

func NewGRPCServer(address string, svc Services, guard *auth.Guard, metrics *observability.Metrics, l logging.Logger) *GRPCServer {
	return &GRPCServer{
		address: address,
		svc:     svc,
		guard:   guard,
		metrics: metrics,
		health:  health.NewServer(),
		logger:  l.With("module", "grpc_server"),
	}
}

// newServer builds the grpc.Server with the interceptor chain. Order matters:
// the guard rejects unauthenticated calls before any handler runs, and
// errors are mapped to status codes before metrics and logs see them.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		s.requestLogInterceptor,
		s.metricsInterceptor,
		s.errorInterceptor,
		s.guardInterceptor,
	))

	srv.RegisterService(&serviceDesc, s)
	healthpb.RegisterHealthServer(srv, s.health)
	s.health.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_SERVING)

	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}

	<-stopped
	return nil
}

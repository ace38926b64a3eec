// Package grpc exposes the authentication and user services over gRPC.
package grpc

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/dmitrijs2005/authkit/internal/authpb"
	"github.com/dmitrijs2005/authkit/internal/logging"
	"github.com/dmitrijs2005/authkit/internal/server/models"
	"github.com/dmitrijs2005/authkit/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Authenticator is the session side of the API.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, userID int64) error
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

// UserManager is the user-management side of the API.
type UserManager interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.UserView, error)
	Get(ctx context.Context, id int64) (*models.UserView, error)
	List(ctx context.Context, skip, limit int) ([]models.UserView, error)
	Update(ctx context.Context, caller *models.User, id int64, in services.UpdateInput) (*models.UserView, error)
	Delete(ctx context.Context, caller *models.User, id int64) error
}

// RPCObserver records per-call metrics.
type RPCObserver interface {
	ObserveRPC(method, code string, d time.Duration)
}

type GRPCServer struct {
	address string
	auth    Authenticator
	users   UserManager
	metrics RPCObserver
	logger  logging.Logger
}

var _ authpb.AuthServiceServer = (*GRPCServer)(nil)

// NewGRPCServer builds a server listening on address. m may be nil.
func NewGRPCServer(address string, l logging.Logger, a Authenticator, u UserManager, m RPCObserver) (*GRPCServer, error) {
	if a == nil || u == nil {
		return nil, errors.New("grpc server: authenticator and user manager are required")
	}
	return &GRPCServer{
		address: address,
		auth:    a,
		users:   u,
		metrics: m,
		logger:  l.With("module", "grpc_server"),
	}, nil
}

func (s *GRPCServer) interceptors() []grpc.UnaryServerInterceptor {
	chain := []grpc.UnaryServerInterceptor{s.requestLogInterceptor}
	if s.metrics != nil {
		chain = append(chain, s.metricsInterceptor)
	}
	return append(chain, s.accessTokenInterceptor)
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.interceptors()...))

	authpb.RegisterAuthServiceServer(srv, s)

	hs := health.NewServer()
	hs.SetServingStatus(authpb.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	stopped := make(chan struct{})
	defer close(stopped)

	go func() {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Stopping gRPC server...")
			hs.Shutdown()
			srv.GracefulStop()
		case <-stopped:
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}

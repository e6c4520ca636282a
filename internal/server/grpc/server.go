package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/credvault/internal/logging"
	"github.com/dmitrijs2005/credvault/internal/server/models"
	"github.com/dmitrijs2005/credvault/internal/server/services"
	"github.com/dmitrijs2005/credvault/internal/server/validation"
	"github.com/dmitrijs2005/credvault/internal/vault"
	"google.golang.org/grpc"
)

type OwnerService interface {
	Register(ctx context.Context, r services.Registration) (*models.Owner, error)
	Login(ctx context.Context, username, password string) (string, error)
}

type VaultService interface {
	Add(ctx context.Context, ownerID string, r vault.Record) (vault.Record, error)
	Search(ctx context.Context, ownerID string, c vault.Category, f vault.Field, query string) ([]services.Result, error)
	List(ctx context.Context, ownerID string, c vault.Category) ([]services.Result, error)
	Update(ctx context.Context, ownerID string, c vault.Category, id string, p vault.Patch) (services.Result, error)
	Remove(ctx context.Context, ownerID string, c vault.Category, id string) error
}

type RecoveryService interface {
	IssueRecovery(ctx context.Context, email string) error
	VerifyRecovery(ctx context.Context, email, code string) (string, error)
}

type GRPCServer struct {
	address     string
	owners      OwnerService
	vaults      VaultService
	recovery    RecoveryService
	validator   *validation.Validator
	otpValidity time.Duration
	logger      logging.Logger
	jwtSecret   []byte
}

func NewGRPCServer(a string, l logging.Logger, owners OwnerService, vs VaultService, rs RecoveryService,
	v *validation.Validator, otpValidity time.Duration, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:     a,
		logger:      l.With("module", "grpc_server"),
		owners:      owners,
		vaults:      vs,
		recovery:    rs,
		validator:   v,
		otpValidity: otpValidity,
		jwtSecret:   []byte(secretKey),
	}
}

// NewServer returns a grpc.Server with the service and its interceptors
// registered, ready to Serve.
func (s *GRPCServer) NewServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	RegisterVaultServiceServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}

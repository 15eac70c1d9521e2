package grpc

import (
	"context"
	"errors"
	"net"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"urlguard/internal/api"
	"urlguard/internal/checker"
	"urlguard/internal/domain"
	"urlguard/internal/logging"
	"urlguard/internal/registry"
)

type Server struct {
	api.UnimplementedCheckerServer
	checker *checker.Checker
}

func NewServer(c *checker.Checker) *Server {
	return &Server{checker: c}
}

const maxURLLen = 2048

func validateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", status.Error(codes.InvalidArgument, "url is required")
	}
	if len(raw) > maxURLLen {
		return "", status.Error(codes.InvalidArgument, "url is too long")
	}
	return raw, nil
}

func (s *Server) Check(ctx context.Context, req *api.CheckRequest) (*api.CheckResponse, error) {
	raw, err := validateURL(req.URL)
	if err != nil {
		return nil, err
	}

	res, err := s.checker.Check(ctx, raw)
	if err != nil {
		return nil, toStatus(err)
	}

	return &api.CheckResponse{
		Raw:         res.Raw,
		Canonical:   res.Canonical.String(),
		Expressions: res.Expressions,
		Blocked:     res.Blocked,
		Allowlisted: res.Allowlisted,
		Matches:     res.Matches,
	}, nil
}

func (s *Server) Canonicalize(ctx context.Context, req *api.CanonicalizeRequest) (*api.CanonicalizeResponse, error) {
	raw, err := validateURL(req.URL)
	if err != nil {
		return nil, err
	}

	u, err := s.checker.Canonicalize(raw)
	if err != nil {
		return nil, toStatus(err)
	}
	return api.NewCanonicalizeResponse(u), nil
}

func (s *Server) Expressions(ctx context.Context, req *api.ExpressionsRequest) (*api.ExpressionsResponse, error) {
	raw, err := validateURL(req.URL)
	if err != nil {
		return nil, err
	}

	gen, err := s.checker.Expressions(raw)
	if err != nil {
		return nil, toStatus(err)
	}
	return api.NewExpressionsResponse(gen), nil
}

func toStatus(err error) error {
	var (
		pe  *domain.ParseError
		mhe *domain.MalformedHostError
	)
	switch {
	case errors.As(err, &pe), errors.As(err, &mhe):
		return status.Errorf(codes.InvalidArgument, "invalid url: %v", err)
	case errors.Is(err, registry.ErrNotReady):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Errorf(codes.Internal, "check failed: %v", err)
	}
}

// NewGRPCServer builds a server with the Checker and health services registered.
func NewGRPCServer(ctx context.Context, srv *Server, hs *health.Server) *grpc.Server {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(requestIDInterceptor(*logging.FromContext(ctx))))
	api.RegisterCheckerServer(s, srv)
	healthpb.RegisterHealthServer(s, hs)
	return s
}

// RunGRPCServer starts a gRPC server on the given address and
// shuts it down gracefully when the context is canceled.
func RunGRPCServer(ctx context.Context, addr string, srv *Server, hs *health.Server) error {
	if addr == "" {
		// Reasonable default if nothing is provided.
		addr = ":9090"
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	s := NewGRPCServer(ctx, srv, hs)

	// Stop the server once the context is done (SIGTERM, timeout, etc.).
	go func() {
		<-ctx.Done()
		hs.Shutdown()
		s.GracefulStop()
	}()

	logging.FromContext(ctx).Info().Str("addr", lis.Addr().String()).Msg("gRPC server listening")
	return s.Serve(lis)
}

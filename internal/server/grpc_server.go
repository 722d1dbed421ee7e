package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/oggyb/muzz-match/internal/auth"
	_ "github.com/oggyb/muzz-match/internal/codec" // json content-subtype
	"github.com/oggyb/muzz-match/internal/config"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/logger"
	"github.com/oggyb/muzz-match/internal/metrics"
)

// NewGRPCServer builds a gRPC server with logging, metrics and bearer-token
// interceptors and registers all provided services.
func NewGRPCServer(jwt *auth.JWTer, log *slog.Logger, registrars ...Registrar) *grpc.Server {
	if log == nil {
		log = logger.L()
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			observeInterceptor(log),
			authInterceptor(jwt),
		),
	)

	// register all services
	for _, r := range registrars {
		r.Register(grpcServer)
	}

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)

	return grpcServer
}

// StartGRPCServer listens on the configured address and serves until the
// server is stopped.
func StartGRPCServer(cfg *config.Config, grpcServer *grpc.Server) error {
	addr := fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	logger.Info("gRPC server listening", "addr", addr)
	return grpcServer.Serve(lis)
}

// authInterceptor resolves the requester from the "authorization" metadata.
func authInterceptor(jwt *auth.JWTer) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		var header string
		if vals := md.Get("authorization"); len(vals) > 0 {
			header = vals[0]
		}

		token, ok := auth.BearerToken(header)
		if !ok {
			return nil, svcErr.Map(svcErr.Unauthenticated("missing token"))
		}
		claims, err := jwt.Parse(token)
		if err != nil {
			return nil, svcErr.Map(svcErr.Unauthenticated("invalid token"))
		}
		return handler(auth.WithUserID(ctx, claims.UID), req)
	}
}

func observeInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		start := time.Now()
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("gRPC panic", "method", info.FullMethod, "panic", rec)
				err = status.Error(codes.Internal, "internal error")
			}
			code := status.Code(err)
			metrics.GRPCRequestsTotal.WithLabelValues(info.FullMethod, code.String()).Inc()
			log.Info("gRPC", "method", info.FullMethod, "code", code.String(), logger.Since(start))
		}()
		return handler(ctx, req)
	}
}

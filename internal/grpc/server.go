package grpc

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"catalog-service/internal/domain"
	"catalog-service/internal/store"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Server implements TitleLookupServer on top of a TitleStore.
type Server struct {
	store  store.TitleStore
	logger *slog.Logger
}

var _ TitleLookupServer = (*Server)(nil)

// NewServer creates the title lookup service.
func NewServer(titleStore store.TitleStore, logger *slog.Logger) *Server {
	return &Server{
		store:  titleStore,
		logger: logger,
	}
}

// toStatus maps a store failure to a gRPC status.
func toStatus(f *domain.Failure) error {
	switch f.Kind {
	case domain.FailureInvalidID, domain.FailureValidation:
		return status.Error(codes.InvalidArgument, f.Message)
	case domain.FailureNotFound:
		return status.Error(codes.NotFound, f.Message)
	default:
		return status.Error(codes.Internal, f.Message)
	}
}

// detailToStruct converts a title detail into a Struct with the same field
// names as the HTTP JSON representation.
func detailToStruct(d *domain.TitleDetail) (*structpb.Struct, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return structpb.NewStruct(fields)
}

// GetTitle implements TitleLookupServer.
func (s *Server) GetTitle(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	titleID := req.GetValue()
	s.logger.InfoContext(ctx, "gRPC GetTitle called", slog.String("titleID", titleID))

	if titleID == "" {
		s.logger.WarnContext(ctx, "gRPC GetTitle called with empty title id")
		return nil, status.Error(codes.InvalidArgument, "title id cannot be empty")
	}

	res := s.store.GetByID(ctx, titleID)
	if !res.Success {
		return nil, toStatus(res.Err)
	}
	out, err := detailToStruct(res.Data)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to convert title for gRPC", slog.String("titleID", titleID), slog.String("error", err.Error()))
		return nil, status.Error(codes.Internal, "failed to encode title")
	}
	return out, nil
}

// CheckTitleExists implements TitleLookupServer. A missing title is a
// false answer, not an error.
func (s *Server) CheckTitleExists(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	titleID := req.GetValue()
	s.logger.InfoContext(ctx, "gRPC CheckTitleExists called", slog.String("titleID", titleID))

	if titleID == "" {
		s.logger.WarnContext(ctx, "gRPC CheckTitleExists called with empty title id")
		return nil, status.Error(codes.InvalidArgument, "title id cannot be empty")
	}

	res := s.store.GetByID(ctx, titleID)
	switch res.Kind() {
	case "":
		return wrapperspb.Bool(true), nil
	case domain.FailureNotFound:
		return wrapperspb.Bool(false), nil
	default:
		return nil, toStatus(res.Err)
	}
}

// LoggingInterceptor logs every unary call with its code and duration.
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		level := slog.LevelInfo
		if code == codes.Internal || code == codes.Unknown {
			level = slog.LevelError
		}
		logger.LogAttrs(ctx, level, "gRPC request",
			slog.String("method", info.FullMethod),
			slog.String("code", code.String()),
			slog.Duration("duration", time.Since(start)),
		)
		return resp, err
	}
}

// Pinger reports whether the backing store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewGRPCServer builds a server exposing the title lookup, the standard health
// service and reflection. The returned health server starts out SERVING.
func NewGRPCServer(lookup TitleLookupServer, logger *slog.Logger) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(grpc.UnaryInterceptor(LoggingInterceptor(logger)))
	RegisterTitleLookupServer(srv, lookup)

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthSrv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, healthSrv)

	reflection.Register(srv)
	return srv, healthSrv
}

// WatchHealth pings the store every interval and mirrors the outcome in
// healthSrv until ctx is done.
func WatchHealth(ctx context.Context, healthSrv *health.Server, pinger Pinger, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	serving := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		pingCtx, cancel := context.WithTimeout(ctx, interval)
		err := pinger.Ping(pingCtx)
		cancel()

		next := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			next = healthpb.HealthCheckResponse_NOT_SERVING
		}
		if (err == nil) != serving {
			serving = err == nil
			if err != nil {
				logger.WarnContext(ctx, "Store ping failed, reporting NOT_SERVING", slog.String("error", err.Error()))
			} else {
				logger.InfoContext(ctx, "Store reachable again, reporting SERVING")
			}
		}
		healthSrv.SetServingStatus("", next)
		healthSrv.SetServingStatus(ServiceName, next)
	}
}

package reminder

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/lost-item-tracker/internal/domain/geo"
	"github.com/oshokin/lost-item-tracker/internal/logger"
	"github.com/oshokin/lost-item-tracker/internal/service/engine"
	"github.com/oshokin/lost-item-tracker/internal/service/home"
	"github.com/oshokin/lost-item-tracker/internal/service/position"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	Status() engine.Status
	SaveHome(ctx context.Context, home geo.Coordinate) error
	SaveHomeFromCurrent(ctx context.Context) (geo.Coordinate, error)
	ClearHome(ctx context.Context) error
	ReportFix(ctx context.Context, userID string, sample position.Sample) error
	Recheck(ctx context.Context) error
}

// Server implements the ReminderService gRPC API.
type Server struct {
	// service provides the business logic for reminder operations.
	service Service
}

var _ ReminderServiceServer = (*Server)(nil)

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// GetStatus returns the engine snapshot.
func (s *Server) GetStatus(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return ToStatusStruct(s.service.Status()), nil
}

// SaveHome stores an explicit coordinate, or the current fix when
// fromCurrent is true.
func (s *Server) SaveHome(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	var (
		saved geo.Coordinate
		err   error
	)

	if req.GetFields()[fieldFromCurrent].GetBoolValue() {
		saved, err = s.service.SaveHomeFromCurrent(ctx)
	} else {
		saved, err = coordinateFrom(req)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}

		err = s.service.SaveHome(ctx, saved)
	}

	if err != nil {
		return nil, toStatusError(ctx, "save home", err)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldHome: structpb.NewStructValue(coordinateStruct(saved)),
	}}, nil
}

// ClearHome removes the home location.
func (s *Server) ClearHome(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.service.ClearHome(ctx); err != nil {
		return nil, toStatusError(ctx, "clear home", err)
	}

	return new(emptypb.Empty), nil
}

// ReportFix hands a device sample to the position stream of the user.
func (s *Server) ReportFix(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	userID, sample, err := parseReportFix(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if sample.Err == nil {
		if _, err = geo.NewCoordinate(sample.Latitude, sample.Longitude); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
	}

	if err = s.service.ReportFix(ctx, userID, sample); err != nil {
		return nil, toStatusError(ctx, "report fix", err)
	}

	return new(emptypb.Empty), nil
}

// Recheck re-evaluates the latest fix and returns the resulting snapshot.
func (s *Server) Recheck(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.service.Recheck(ctx); err != nil {
		return nil, toStatusError(ctx, "recheck", err)
	}

	return ToStatusStruct(s.service.Status()), nil
}

// toStatusError maps domain errors to gRPC codes.
func toStatusError(ctx context.Context, op string, err error) error {
	code := codes.Internal

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	case errors.Is(err, geo.ErrInvalidCoordinate), errors.Is(err, home.ErrUserRequired):
		code = codes.InvalidArgument
	case errors.Is(err, engine.ErrNoCurrentLocation), errors.Is(err, position.ErrNotWatching):
		code = codes.FailedPrecondition
	case errors.Is(err, home.ErrStorageUnavailable), errors.Is(err, engine.ErrNotRunning):
		code = codes.Unavailable
	}

	if code == codes.Internal {
		logger.ErrorKV(ctx, "Request failed", "operation", op, "error", err)
	}

	return status.Errorf(code, "%s: %v", op, err)
}

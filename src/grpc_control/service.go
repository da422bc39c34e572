package grpc_control

import (
	"context"
	"encoding/json"
	"errors"

	"telemetry-viewer/src/helpers"
	"telemetry-viewer/src/interfaces"
	"telemetry-viewer/src/logger"
	"telemetry-viewer/src/models"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ControlService exposes the viewer session over gRPC. Replies carry the
// session status, or the display frame for GetFrame, as a Struct.
type ControlService struct {
	Control interfaces.IViewerControl
	Logger  *logger.Logger
}

// NewControlService creates a new instance of ControlService
func NewControlService(control interfaces.IViewerControl, log *logger.Logger) *ControlService {
	return &ControlService{
		Control: control,
		Logger:  log,
	}
}

// NewServer returns a gRPC server with the control service registered.
func NewServer(control interfaces.IViewerControl, log *logger.Logger, opts ...grpc.ServerOption) *grpc.Server {
	srv := grpc.NewServer(opts...)
	RegisterViewerControlServer(srv, NewControlService(control, log))
	return srv
}

// -----------------------------------------------------------------------------

func (s *ControlService) GetStatus(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	return s.status(ctx)
}

// -----------------------------------------------------------------------------

func (s *ControlService) Start(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	topic := ""
	if v, ok := req.GetFields()["topic"]; ok {
		topic = v.GetStringValue()
	}

	if err := s.Control.Start(ctx, topic); err != nil {
		return nil, s.fail("Start", err)
	}
	s.Logger.Info("gRPC: Start success (topic=%q)", topic)
	return s.status(ctx)
}

// -----------------------------------------------------------------------------

func (s *ControlService) Stop(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	return s.run(ctx, "Stop", s.Control.Stop)
}

func (s *ControlService) Pause(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	return s.run(ctx, "Pause", s.Control.Pause)
}

func (s *ControlService) Resume(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	return s.run(ctx, "Resume", s.Control.Resume)
}

func (s *ControlService) Clear(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	return s.run(ctx, "Clear", s.Control.Clear)
}

func (s *ControlService) Disconnect(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	return s.run(ctx, "Disconnect", s.Control.Disconnect)
}

// -----------------------------------------------------------------------------

// SetView accepts {"mode": "absolute"|"relative", "gain": n}; both optional
// but at least one is required.
func (s *ControlService) SetView(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	modeVal, hasMode := fields["mode"]
	gainVal, hasGain := fields["gain"]
	if !hasMode && !hasGain {
		return nil, status.Error(codes.InvalidArgument, "mode or gain is required")
	}

	var mode models.MViewMode
	if hasMode {
		mode = models.MViewMode(modeVal.GetStringValue())
		if !mode.Valid() {
			return nil, status.Errorf(codes.InvalidArgument, "unknown view mode %q", mode)
		}
	}

	if hasGain {
		g := gainVal.GetNumberValue()
		if g != float64(int(g)) {
			return nil, status.Errorf(codes.InvalidArgument, "gain must be an integer, got %v", g)
		}
		if err := s.Control.SetGain(ctx, int(g)); err != nil {
			return nil, s.fail("SetView", err)
		}
	}
	if hasMode {
		if err := s.Control.SetViewMode(ctx, mode); err != nil {
			return nil, s.fail("SetView", err)
		}
	}
	return s.status(ctx)
}

// -----------------------------------------------------------------------------

func (s *ControlService) GetFrame(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	frame, err := s.Control.Frame(ctx)
	if err != nil {
		return nil, s.fail("GetFrame", err)
	}
	return toStruct(frame)
}

// -----------------------------------------------------------------------------

// GetMessages accepts {"limit": n} and replies {"messages": [...]}, newest
// first.
func (s *ControlService) GetMessages(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit := 0
	if v, ok := req.GetFields()["limit"]; ok {
		n := v.GetNumberValue()
		if n < 0 || n != float64(int(n)) {
			return nil, status.Errorf(codes.InvalidArgument, "limit must be a non-negative integer, got %v", n)
		}
		limit = int(n)
	}

	msgs, err := s.Control.Messages(ctx, limit)
	if err != nil {
		return nil, s.fail("GetMessages", err)
	}
	if msgs == nil {
		msgs = []models.MMessage{}
	}
	return toStruct(map[string]interface{}{"messages": msgs})
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func (s *ControlService) run(ctx context.Context, name string, op func(context.Context) error) (*structpb.Struct, error) {
	if err := op(ctx); err != nil {
		return nil, s.fail(name, err)
	}
	s.Logger.Info("gRPC: %s success", name)
	return s.status(ctx)
}

func (s *ControlService) status(ctx context.Context) (*structpb.Struct, error) {
	st, err := s.Control.Status(ctx)
	if err != nil {
		return nil, s.fail("GetStatus", err)
	}
	return toStruct(st)
}

func (s *ControlService) fail(name string, err error) error {
	s.Logger.Error("gRPC: %s failed: %v", name, err)
	return status.Error(codeFor(err), err.Error())
}

// -----------------------------------------------------------------------------

// toStruct goes through JSON so field names match the REST API.
func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode reply: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode reply: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode reply: %v", err)
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func codeFor(err error) codes.Code {
	if errors.Is(err, context.DeadlineExceeded) {
		return codes.DeadlineExceeded
	}
	if errors.Is(err, context.Canceled) {
		return codes.Canceled
	}

	switch helpers.Kind(err) {
	case "invalid_argument":
		return codes.InvalidArgument
	case "invalid_state":
		return codes.FailedPrecondition
	case "aborted":
		return codes.Aborted
	case "presign", "transport":
		return codes.Unavailable
	case "subscription":
		return codes.PermissionDenied
	default:
		return codes.Internal
	}
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"telemetry-viewer/src/helpers"
	"telemetry-viewer/src/models"
)

var errUnknownCommand = errors.New("unknown command")

func isUnknownCommand(err error) bool {
	return errors.Is(err, errUnknownCommand)
}

// -----------------------------------------------------------------------------

// executeCommand maps a REST or websocket command onto the session.
func (s *ViewerServer) executeCommand(ctx context.Context, cmd models.MControlCommand) error {
	switch strings.ToLower(strings.TrimSpace(cmd.Command)) {
	case "start":
		return s.control.Start(ctx, cmd.Topic)
	case "stop":
		return s.control.Stop(ctx)
	case "pause":
		return s.control.Pause(ctx)
	case "resume":
		return s.control.Resume(ctx)
	case "clear":
		return s.control.Clear(ctx)
	case "disconnect":
		return s.control.Disconnect(ctx)
	case "view":
		return s.applyView(ctx, cmd)
	case "status":
		return nil
	default:
		return fmt.Errorf("%w: %q", errUnknownCommand, cmd.Command)
	}
}

// -----------------------------------------------------------------------------

// applyView checks the mode up front so a bad request changes nothing.
func (s *ViewerServer) applyView(ctx context.Context, cmd models.MControlCommand) error {
	if cmd.Mode == "" && cmd.Gain == nil {
		return fmt.Errorf("%w: mode or gain required", helpers.ErrInvalidViewMode)
	}
	if cmd.Mode != "" && !cmd.Mode.Valid() {
		return fmt.Errorf("%w: %q", helpers.ErrInvalidViewMode, cmd.Mode)
	}

	if cmd.Gain != nil {
		if err := s.control.SetGain(ctx, *cmd.Gain); err != nil {
			return err
		}
	}
	if cmd.Mode != "" {
		return s.control.SetViewMode(ctx, cmd.Mode)
	}
	return nil
}

// -----------------------------------------------------------------------------

// statusFor picks the HTTP status of a failed command.
func statusFor(err error) int {
	if isUnknownCommand(err) {
		return http.StatusBadRequest
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}

	switch helpers.Kind(err) {
	case "invalid_argument":
		return http.StatusBadRequest
	case "invalid_state", "aborted":
		return http.StatusConflict
	case "presign", "transport":
		return http.StatusBadGateway
	case "subscription":
		return http.StatusUnprocessableEntity
	case "storage":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

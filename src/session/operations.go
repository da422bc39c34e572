package session

import (
	"context"
	"fmt"
	"strings"

	"telemetry-viewer/src/helpers"
	"telemetry-viewer/src/models"
)

// -----------------------------------------------------------------------------
// Connection lifecycle
// -----------------------------------------------------------------------------

// Connect presigns a URL and opens a new transport handle. It returns once
// the handle is opening; EventOpen moves the session to connected.
func (s *Session) Connect(ctx context.Context) error {
	var gen uint64
	err := s.do(ctx, func() error {
		if s.phase != phaseIdle {
			return s.invalid("connect")
		}
		before := s.state()
		s.generation++
		gen = s.generation
		s.phase = phaseConnecting
		s.lastErr = ""
		s.record(before, "connect", "")
		return nil
	})
	if err != nil {
		return err
	}

	presigned, presignErr := s.authority.Presign(ctx, "")
	s.Metrics.Presign(presignErr)

	// The second half always runs so a cancelled caller cannot leave the
	// session stuck in connecting.
	return s.do(context.Background(), func() error {
		if s.generation != gen || s.phase != phaseConnecting {
			return helpers.ErrConnectAborted
		}

		if presignErr != nil {
			return s.failConnect("presign", presignErr)
		}

		s.clientID = presigned.ClientID
		done := make(chan struct{})
		handle, err := s.dialer.Dial(models.MDialRequest{
			URL:        presigned.URL,
			ClientID:   presigned.ClientID,
			Generation: gen,
		}, s.sinkFor(done))
		if err != nil {
			return s.failConnect("dial", err)
		}

		s.handle = handle
		s.handleDone = done
		s.Logger.Info("Opening connection as %s", presigned.ClientID)
		handle.Open()
		return nil
	})
}

func (s *Session) failConnect(event string, err error) error {
	before := s.state()
	s.phase = phaseError
	s.lastErr = err.Error()
	s.Logger.Error("Connect failed at %s: %v", event, err)
	s.record(before, event, s.lastErr)
	return err
}

// -----------------------------------------------------------------------------

// Disconnect closes the live handle, clears every series and returns the
// session to idle. It is valid from any state.
func (s *Session) Disconnect(ctx context.Context) error {
	return s.do(ctx, func() error {
		before := s.state()

		s.closeHandle()
		s.generation++
		s.phase = phaseIdle
		s.topic = ""
		s.subscribed = false
		s.paused = false
		s.lastErr = ""

		if s.pending != nil {
			s.pending.done <- helpers.ErrDisconnected
			s.pending = nil
		}

		s.registry.Clear()
		s.messages.Clear()
		s.Metrics.ActiveSeries.Set(0)
		s.record(before, "disconnect", "")
		s.clientID = ""
		s.publish()
		return nil
	})
}

// -----------------------------------------------------------------------------

// waitConnected blocks until the session leaves connecting.
func (s *Session) waitConnected(ctx context.Context) error {
	for {
		var (
			current phase
			changed chan struct{}
			lastErr string
		)
		err := s.do(ctx, func() error {
			current, changed, lastErr = s.phase, s.changed, s.lastErr
			return nil
		})
		if err != nil {
			return err
		}

		switch current {
		case phaseConnected:
			return nil
		case phaseError:
			return helpers.NewTransportError("connection failed", fmt.Errorf("%s", lastErr))
		case phaseIdle:
			return helpers.ErrConnectAborted
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopped:
			return helpers.ErrSessionClosed
		}
	}
}

// -----------------------------------------------------------------------------
// Subscription
// -----------------------------------------------------------------------------

// Subscribe asks the broker for topic and waits for the acknowledgement.
// Subscribing again to the active topic is a no-op that also lifts a pause.
func (s *Session) Subscribe(ctx context.Context, topic string) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return helpers.ErrInvalidTopic
	}

	return s.exec(ctx, func() (<-chan error, error) {
		if s.phase != phaseConnected || s.handle == nil {
			return nil, s.invalid("subscribe")
		}
		if s.subscribed {
			if s.topic != topic {
				return nil, fmt.Errorf("%w: %s", helpers.ErrTopicMismatch, s.topic)
			}
			if s.paused {
				before := s.state()
				s.paused = false
				s.record(before, "resume", topic)
			}
			return nil, nil
		}
		if s.pending != nil {
			return nil, helpers.ErrOperationPending
		}

		p := &pendingOp{kind: models.EventSubscribeAck, topic: topic, done: make(chan error, 1)}
		s.pending = p
		s.handle.Subscribe(topic)
		return p.done, nil
	})
}

// Unsubscribe drops the active subscription and waits for the acknowledgement.
func (s *Session) Unsubscribe(ctx context.Context) error {
	return s.exec(ctx, func() (<-chan error, error) {
		if s.phase != phaseConnected || !s.subscribed || s.handle == nil {
			return nil, s.invalid("unsubscribe")
		}
		if s.pending != nil {
			return nil, helpers.ErrOperationPending
		}

		p := &pendingOp{kind: models.EventUnsubscribeAck, topic: s.topic, done: make(chan error, 1)}
		s.pending = p
		s.handle.Unsubscribe(s.topic)
		return p.done, nil
	})
}

// -----------------------------------------------------------------------------

// Start connects when idle, waits for the connection and subscribes to
// topic, or to the configured topic when it is empty.
func (s *Session) Start(ctx context.Context, topic string) error {
	if strings.TrimSpace(topic) == "" {
		topic = s.Config.Viewer.Topic
	}

	st, err := s.Status(ctx)
	if err != nil {
		return err
	}
	if st.State == models.StateIdle {
		if err := s.Connect(ctx); err != nil {
			return err
		}
	}

	if err := s.waitConnected(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx, topic)
}

// Stop unsubscribes and keeps the connection open.
func (s *Session) Stop(ctx context.Context) error {
	return s.Unsubscribe(ctx)
}

// -----------------------------------------------------------------------------
// Pause and view settings
// -----------------------------------------------------------------------------

// Pause keeps the subscription but stops appending samples.
func (s *Session) Pause(ctx context.Context) error {
	return s.do(ctx, func() error {
		if s.phase != phaseConnected || !s.subscribed {
			return s.invalid("pause")
		}
		before := s.state()
		s.paused = true
		s.record(before, "pause", "")
		return nil
	})
}

func (s *Session) Resume(ctx context.Context) error {
	return s.do(ctx, func() error {
		if s.phase != phaseConnected || !s.subscribed {
			return s.invalid("resume")
		}
		before := s.state()
		s.paused = false
		s.record(before, "resume", "")
		return nil
	})
}

// Clear empties every series window and the message log. Labels are
// forgotten too.
func (s *Session) Clear(ctx context.Context) error {
	return s.do(ctx, func() error {
		s.registry.Clear()
		s.messages.Clear()
		s.Metrics.ActiveSeries.Set(0)
		s.publish()
		return nil
	})
}

func (s *Session) SetViewMode(ctx context.Context, mode models.MViewMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", helpers.ErrInvalidViewMode, mode)
	}
	return s.do(ctx, func() error {
		if s.mode != mode {
			s.mode = mode
			s.publish()
		}
		return nil
	})
}

func (s *Session) SetGain(ctx context.Context, gain int) error {
	if err := s.analyzer.Transform.ValidateGain(gain); err != nil {
		return err
	}
	return s.do(ctx, func() error {
		if s.gain != gain {
			s.gain = gain
			s.publish()
		}
		return nil
	})
}

// ApplyViewer takes the viewer section of a reloaded configuration. Only
// values that differ from the last applied section are taken, so settings
// changed at runtime survive edits to unrelated keys. Invalid values are
// rejected as a whole.
func (s *Session) ApplyViewer(ctx context.Context, v models.MViewerConfig) error {
	mode := models.MViewMode(v.DefaultMode)
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", helpers.ErrInvalidViewMode, mode)
	}
	if err := s.analyzer.Transform.ValidateGain(v.DefaultGain); err != nil {
		return err
	}
	if v.MaxPoints <= 0 {
		return fmt.Errorf("max points must be greater than 0, got %d", v.MaxPoints)
	}

	return s.do(ctx, func() error {
		prev := s.applied
		s.applied = v

		changed := false
		if v.DefaultMode != prev.DefaultMode {
			s.mode = mode
			changed = true
		}
		if v.DefaultGain != prev.DefaultGain {
			s.gain = v.DefaultGain
			changed = true
		}
		if v.MaxPoints != prev.MaxPoints {
			s.registry.SetMaxPoints(v.MaxPoints)
			changed = true
		}
		if !changed {
			return nil
		}

		s.Logger.Info("Applied reloaded view settings (mode=%s, gain=%d, max_points=%d)", s.mode, s.gain, v.MaxPoints)
		s.publish()
		return nil
	})
}

// -----------------------------------------------------------------------------
// Queries
// -----------------------------------------------------------------------------

func (s *Session) Status(ctx context.Context) (models.MSessionStatus, error) {
	var st models.MSessionStatus
	err := s.do(ctx, func() error {
		st = s.status()
		return nil
	})
	return st, err
}

// Messages returns up to limit logged messages, newest first. limit <= 0
// returns the whole log.
func (s *Session) Messages(ctx context.Context, limit int) ([]models.MMessage, error) {
	var msgs []models.MMessage
	err := s.do(ctx, func() error {
		msgs = s.messages.Recent(limit)
		return nil
	})
	return msgs, err
}

// Frame builds the current display frame from the raw windows.
func (s *Session) Frame(ctx context.Context) (models.MDisplayFrame, error) {
	var frame models.MDisplayFrame
	err := s.do(ctx, func() error {
		frame = s.frame()
		return nil
	})
	return frame, err
}

package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"telemetry-viewer/src/analysis"
	"telemetry-viewer/src/decoder"
	"telemetry-viewer/src/helpers"
	"telemetry-viewer/src/interfaces"
	"telemetry-viewer/src/logger"
	"telemetry-viewer/src/metrics"
	"telemetry-viewer/src/models"
	"telemetry-viewer/src/storage"
	"telemetry-viewer/src/utils"
)

// -----------------------------------------------------------------------------
// Session owns one viewer: at most one live transport handle, the series
// registry fed by it and the view settings applied when frames are built.
//
// Every field below the dependencies is owned by the dispatcher goroutine
// started with Run. Public methods hand closures to it and wait for the result.
// -----------------------------------------------------------------------------

type phase int

const (
	phaseIdle phase = iota
	phaseConnecting
	phaseConnected
	phaseError
)

type pendingOp struct {
	kind  models.MEventKind
	topic string
	done  chan error
}

var _ interfaces.IViewerControl = (*Session)(nil)

type Session struct {
	Config  *models.MConfig
	Logger  *logger.Logger
	Metrics *metrics.Metrics

	authority interfaces.IPresignAuthority
	dialer    interfaces.ITransportDialer
	journal   interfaces.IJournal
	exchanger interfaces.IDataExchanger
	decoder   *decoder.Decoder
	registry  *utils.SeriesRegistry
	messages  *utils.MessageLog
	analyzer  *analysis.AnalysisFacade

	commands chan func()
	events   chan models.MTransportEvent
	stopped  chan struct{}
	started  atomic.Bool

	// dispatcher state
	phase      phase
	generation uint64
	handle     interfaces.ITransport
	handleDone chan struct{}
	clientID   string
	topic      string
	subscribed bool
	paused     bool
	mode       models.MViewMode
	gain       int
	applied    models.MViewerConfig
	lastErr    string
	pending    *pendingOp
	changed    chan struct{}
	updatedAt  time.Time
}

// -----------------------------------------------------------------------------

func NewSession(
	cfg *models.MConfig,
	authority interfaces.IPresignAuthority,
	dialer interfaces.ITransportDialer,
	journal interfaces.IJournal,
	m *metrics.Metrics,
	log *logger.Logger,
) *Session {
	if log == nil {
		log = logger.NewLogger(cfg, "Session")
	}
	if journal == nil {
		journal = storage.NoopJournal{}
	}
	if m == nil {
		m = metrics.NewMetrics()
	}

	queueSize := cfg.Transport.EventQueueSize
	if queueSize <= 0 {
		queueSize = utils.DefaultEventQueueSize
	}

	mode := models.MViewMode(cfg.Viewer.DefaultMode)
	if !mode.Valid() {
		mode = models.ViewAbsolute
	}

	return &Session{
		Config:    cfg,
		Logger:    log,
		Metrics:   m,
		authority: authority,
		dialer:    dialer,
		journal:   journal,
		decoder:   decoder.NewDecoder(cfg.Viewer.MaxSeries),
		registry:  utils.NewSeriesRegistry(cfg.Viewer.MaxPoints),
		messages:  utils.NewMessageLog(cfg.Viewer.MessageLogSize),
		analyzer:  analysis.NewAnalysisFacade(cfg, log),
		commands:  make(chan func()),
		events:    make(chan models.MTransportEvent, queueSize),
		stopped:   make(chan struct{}),
		phase:     phaseIdle,
		mode:      mode,
		gain:      cfg.Viewer.DefaultGain,
		applied:   cfg.Viewer,
		changed:   make(chan struct{}),
		updatedAt: time.Now(),
	}
}

// SetExchanger registers where frames are pushed. Call it before Run.
func (s *Session) SetExchanger(ex interfaces.IDataExchanger) {
	s.exchanger = ex
}

// -----------------------------------------------------------------------------
// Dispatcher
// -----------------------------------------------------------------------------

// Run serializes commands and transport events until ctx is done. The live
// handle, if any, is closed on the way out.
func (s *Session) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("session dispatcher already running")
	}
	defer close(s.stopped)

	s.Logger.Info("Session dispatcher started")
	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			s.Logger.Info("Session dispatcher stopped")
			return nil
		case cmd := <-s.commands:
			cmd()
		case ev := <-s.events:
			s.handleEvent(ev)
		}
	}
}

// -----------------------------------------------------------------------------

// do runs fn on the dispatcher and returns its error.
func (s *Session) do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	cmd := func() { result <- fn() }

	select {
	case s.commands <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return helpers.ErrSessionClosed
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// exec runs fn on the dispatcher, then waits on the channel it returns (if
// any) for the acknowledgement of a transport operation.
func (s *Session) exec(ctx context.Context, fn func() (<-chan error, error)) error {
	var wait <-chan error
	err := s.do(ctx, func() error {
		w, err := fn()
		wait = w
		return err
	})
	if err != nil || wait == nil {
		return err
	}

	select {
	case err := <-wait:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return helpers.ErrSessionClosed
	}
}

// -----------------------------------------------------------------------------

// sinkFor builds the event sink of one handle. Messages never block the
// transport: when the queue is full they are counted and dropped. Control
// events wait for room unless the handle has been discarded.
func (s *Session) sinkFor(done <-chan struct{}) interfaces.EventSink {
	return func(ev models.MTransportEvent) {
		if ev.Kind == models.EventMessage {
			select {
			case s.events <- ev:
			case <-done:
			default:
				s.Metrics.Drop(metrics.DropQueueFull)
			}
			return
		}

		select {
		case s.events <- ev:
		case <-done:
		case <-s.stopped:
		}
	}
}

// -----------------------------------------------------------------------------
// State reporting
// -----------------------------------------------------------------------------

func (s *Session) state() models.MState {
	switch s.phase {
	case phaseConnecting:
		return models.StateConnecting
	case phaseError:
		return models.StateError
	case phaseConnected:
		switch {
		case s.subscribed && s.paused:
			return models.StatePaused
		case s.subscribed:
			return models.StateSubscribed
		default:
			return models.StateConnected
		}
	default:
		return models.StateIdle
	}
}

// record journals a change of reported state and wakes anyone waiting on it.
func (s *Session) record(before models.MState, event, detail string) {
	s.updatedAt = time.Now()
	after := s.state()
	if after == before {
		return
	}

	s.Logger.Info("Session %s -> %s (%s)", before, after, event)
	s.Metrics.Transition(string(after))
	s.journal.Record(models.MTransition{
		SessionID: s.sessionID(),
		From:      before,
		To:        after,
		Event:     event,
		Detail:    detail,
		CreatedAt: s.updatedAt,
	})

	close(s.changed)
	s.changed = make(chan struct{})
}

func (s *Session) sessionID() string {
	if s.clientID == "" {
		return "-"
	}
	return s.clientID
}

func (s *Session) invalid(op string) error {
	return fmt.Errorf("%w: %s while %s", helpers.ErrInvalidTransition, op, s.state())
}

func (s *Session) status() models.MSessionStatus {
	return models.MSessionStatus{
		State:         s.state(),
		ClientID:      s.clientID,
		Topic:         s.topic,
		Subscribed:    s.subscribed,
		Paused:        s.paused,
		Mode:          s.mode,
		Gain:          s.gain,
		Labels:        s.registry.Labels(),
		SeriesLengths: s.registry.Lengths(),
		MaxPoints:     s.registry.MaxPoints(),
		MessageCount:  s.messages.Len(),
		Messages:      s.messages.Recent(utils.DefaultMessageView),
		LastError:     s.lastErr,
		UpdatedAt:     s.updatedAt.UnixMilli(),
	}
}

// -----------------------------------------------------------------------------
// Frames
// -----------------------------------------------------------------------------

func (s *Session) frame() models.MDisplayFrame {
	start := time.Now()
	frame := s.analyzer.BuildFrame(s.registry.Snapshot(), s.mode, s.gain)
	s.Metrics.FrameBuildDuration.Observe(time.Since(start).Seconds())
	return frame
}

func (s *Session) publish() {
	if s.exchanger == nil {
		return
	}
	frame := s.frame()
	s.exchanger.Broadcast(&frame)
}

// -----------------------------------------------------------------------------
// Event handling
// -----------------------------------------------------------------------------

func (s *Session) handleEvent(ev models.MTransportEvent) {
	if s.handle == nil || ev.Generation != s.generation {
		if ev.Kind == models.EventMessage {
			s.Metrics.Drop(metrics.DropStale)
		}
		s.Logger.Debug("Ignoring %s from stale handle %d (current %d)", ev.Kind, ev.Generation, s.generation)
		return
	}

	switch ev.Kind {
	case models.EventOpen:
		if s.phase != phaseConnecting {
			return
		}
		before := s.state()
		s.phase = phaseConnected
		s.record(before, "open", "")

	case models.EventError:
		s.failTransport(ev.Err)

	case models.EventConnectionLost:
		detail := ""
		if ev.Err != nil {
			detail = ev.Err.Error()
		}
		s.Logger.Warning("Connection lost, transport is reconnecting: %s", detail)
		s.journal.Record(models.MTransition{
			SessionID: s.sessionID(),
			From:      s.state(),
			To:        s.state(),
			Event:     "connection_lost",
			Detail:    detail,
			CreatedAt: time.Now(),
		})

	case models.EventSubscribeAck:
		s.subscribeAck(ev)

	case models.EventUnsubscribeAck:
		s.unsubscribeAck(ev)

	case models.EventMessage:
		s.ingest(ev)
	}
}

// -----------------------------------------------------------------------------

func (s *Session) failTransport(cause error) {
	if cause == nil {
		cause = errors.New("unknown transport failure")
	}
	err := helpers.NewTransportError("connection failed", cause)

	before := s.state()
	s.phase = phaseError
	s.lastErr = err.Error()
	s.Logger.Error("Transport error: %v", cause)

	if s.pending != nil {
		s.pending.done <- err
		s.pending = nil
	}
	s.record(before, "error", s.lastErr)
}

// -----------------------------------------------------------------------------

func (s *Session) takePending(kind models.MEventKind, topic string) *pendingOp {
	p := s.pending
	if p == nil || p.kind != kind || p.topic != topic {
		s.Logger.Debug("Unexpected %s for %q", kind, topic)
		return nil
	}
	s.pending = nil
	return p
}

func (s *Session) subscribeAck(ev models.MTransportEvent) {
	p := s.takePending(models.EventSubscribeAck, ev.Topic)
	if p == nil {
		return
	}

	if ev.Err != nil {
		err := helpers.NewSubscriptionError(fmt.Sprintf("subscribe to %s failed", ev.Topic), ev.Err)
		s.lastErr = err.Error()
		s.updatedAt = time.Now()
		s.Logger.Error("%v", err)
		p.done <- err
		return
	}

	before := s.state()
	s.topic = ev.Topic
	s.subscribed = true
	s.paused = false
	s.lastErr = ""
	s.record(before, "subscribe", ev.Topic)
	p.done <- nil
}

func (s *Session) unsubscribeAck(ev models.MTransportEvent) {
	p := s.takePending(models.EventUnsubscribeAck, ev.Topic)
	if p == nil {
		return
	}

	if ev.Err != nil {
		err := helpers.NewSubscriptionError(fmt.Sprintf("unsubscribe from %s failed", ev.Topic), ev.Err)
		s.lastErr = err.Error()
		s.updatedAt = time.Now()
		s.Logger.Error("%v", err)
		p.done <- err
		return
	}

	before := s.state()
	s.topic = ""
	s.subscribed = false
	s.paused = false
	s.record(before, "unsubscribe", ev.Topic)
	p.done <- nil
}

// -----------------------------------------------------------------------------

func (s *Session) ingest(ev models.MTransportEvent) {
	s.Metrics.MessagesReceived.Inc()

	if s.phase != phaseConnected || !s.subscribed {
		s.Metrics.Drop(metrics.DropNotSubscribed)
		return
	}
	if s.paused {
		s.Metrics.Drop(metrics.DropPaused)
		return
	}

	// Logged before decoding so rejected payloads show up too
	s.messages.Add(models.MMessage{
		Topic:     ev.Topic,
		Payload:   string(ev.Payload),
		Timestamp: time.Now().UnixMilli(),
	})

	sample, err := s.decoder.Decode(ev.Payload)
	if err != nil {
		s.Metrics.Drop(metrics.DropDecode)
		s.Logger.Debug("Dropping message on %s: %v", ev.Topic, err)
		return
	}

	s.registry.Ingest(sample)
	s.Metrics.SamplesAppended.Inc()
	s.Metrics.ActiveSeries.Set(float64(s.registry.SeriesCount()))
	s.publish()
}

// -----------------------------------------------------------------------------

// closeHandle discards the live handle. done is closed first so a sink
// blocked on a full queue lets go before the transport tears down.
func (s *Session) closeHandle() {
	if s.handle == nil {
		return
	}
	close(s.handleDone)
	s.handle.Close()
	s.handle = nil
	s.handleDone = nil
}

func (s *Session) shutdown() {
	s.closeHandle()
	if s.pending != nil {
		s.pending.done <- helpers.ErrSessionClosed
		s.pending = nil
	}
}

package transport

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"telemetry-viewer/src/helpers"
	"telemetry-viewer/src/interfaces"
	"telemetry-viewer/src/logger"
	"telemetry-viewer/src/models"
	"telemetry-viewer/src/utils"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// subscribeFailure is the SUBACK return code for a rejected subscription.
const subscribeFailure = 0x80

// disconnectQuiesceMs is how long Disconnect waits for in-flight work.
const disconnectQuiesceMs = 250

// -----------------------------------------------------------------------------
// MQTTDialer opens MQTT-over-websocket handles with paho.
// -----------------------------------------------------------------------------

type MQTTDialer struct {
	Config *models.MConfig
	Logger *logger.Logger

	newClient func(*mqtt.ClientOptions) mqtt.Client
}

// -----------------------------------------------------------------------------

func NewMQTTDialer(cfg *models.MConfig, log *logger.Logger) *MQTTDialer {
	if log == nil {
		log = logger.NewLogger(cfg, "MQTT")
	}
	return &MQTTDialer{
		Config:    cfg,
		Logger:    log,
		newClient: mqtt.NewClient,
	}
}

// -----------------------------------------------------------------------------

// Dial builds one handle. Nothing touches the network until Open.
func (d *MQTTDialer) Dial(req models.MDialRequest, sink interfaces.EventSink) (interfaces.ITransport, error) {
	if req.URL == "" {
		return nil, helpers.NewTransportError("empty connection url", nil)
	}
	if sink == nil {
		return nil, helpers.NewTransportError("nil event sink", nil)
	}

	t := &MQTTTransport{
		generation:     req.Generation,
		clientID:       req.ClientID,
		qos:            d.Config.Transport.QoS,
		connectTimeout: d.connectTimeout(),
		sink:           sink,
		logger:         d.Logger,
	}

	opts := d.clientOptions(req)
	opts.OnConnect = t.onConnect
	opts.OnConnectionLost = t.onConnectionLost
	t.client = d.newClient(opts)

	return t, nil
}

// -----------------------------------------------------------------------------

func (d *MQTTDialer) connectTimeout() time.Duration {
	ms := d.Config.Transport.ConnectTimeoutMs
	if ms <= 0 {
		ms = utils.DefaultConnectTimeoutMs
	}
	return time.Duration(ms) * time.Millisecond
}

// -----------------------------------------------------------------------------

func (d *MQTTDialer) clientOptions(req models.MDialRequest) *mqtt.ClientOptions {
	tc := d.Config.Transport

	reconnect := time.Duration(tc.ReconnectPeriodMs) * time.Millisecond
	if reconnect <= 0 {
		reconnect = utils.DefaultReconnectPeriodMs * time.Millisecond
	}
	protocol := tc.ProtocolVersion
	if protocol == 0 {
		protocol = 4
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(req.URL)
	opts.SetClientID(req.ClientID)
	opts.SetProtocolVersion(protocol)
	opts.SetCleanSession(tc.Clean())
	opts.SetConnectTimeout(d.connectTimeout())
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	opts.SetMaxReconnectInterval(reconnect)
	opts.SetOrderMatters(true)
	return opts
}

// -----------------------------------------------------------------------------
// MQTTTransport is one paho client. Every callback goes through emit, which
// stops delivering once Close has run.
// -----------------------------------------------------------------------------

type MQTTTransport struct {
	client         mqtt.Client
	generation     uint64
	clientID       string
	qos            byte
	connectTimeout time.Duration
	logger         *logger.Logger

	mu     sync.Mutex
	sink   interfaces.EventSink
	closed bool
	active string // topic to restore after an automatic reconnect

	opened atomic.Bool
}

// -----------------------------------------------------------------------------

func (t *MQTTTransport) emit(ev models.MTransportEvent) {
	ev.Generation = t.generation

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.sink(ev)
}

// -----------------------------------------------------------------------------

func (t *MQTTTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// -----------------------------------------------------------------------------

// Open connects in the background. Success arrives through onConnect.
func (t *MQTTTransport) Open() {
	go func() {
		token := t.client.Connect()
		if !token.WaitTimeout(t.connectTimeout + time.Second) {
			t.emit(models.MTransportEvent{
				Kind: models.EventError,
				Err:  helpers.NewTransportError(fmt.Sprintf("connect timed out after %s", t.connectTimeout), nil),
			})
			return
		}
		if err := token.Error(); err != nil {
			t.emit(models.MTransportEvent{
				Kind: models.EventError,
				Err:  helpers.NewTransportError("connect failed", err),
			})
		}
	}()
}

// -----------------------------------------------------------------------------

func (t *MQTTTransport) onConnect(c mqtt.Client) {
	if t.opened.CompareAndSwap(false, true) {
		t.logger.Info("MQTT connection established (client %s)", t.clientID)
		t.emit(models.MTransportEvent{Kind: models.EventOpen})
		return
	}

	t.mu.Lock()
	topic := t.active
	t.mu.Unlock()

	t.logger.Info("MQTT reconnected (client %s)", t.clientID)
	if topic == "" || t.isClosed() {
		return
	}

	// Clean sessions lose subscriptions on the broker side
	go func() {
		token := t.client.Subscribe(topic, t.qos, t.onMessage)
		if err := t.wait(token, topic); err != nil {
			t.logger.Error("Failed to restore subscription to %s: %v", topic, err)
		}
	}()
}

// -----------------------------------------------------------------------------

func (t *MQTTTransport) onConnectionLost(c mqtt.Client, err error) {
	t.logger.Warning("MQTT connection lost, paho will reconnect: %v", err)
	t.emit(models.MTransportEvent{
		Kind: models.EventConnectionLost,
		Err:  helpers.NewTransportError("connection lost", err),
	})
}

// -----------------------------------------------------------------------------

func (t *MQTTTransport) onMessage(c mqtt.Client, msg mqtt.Message) {
	t.emit(models.MTransportEvent{
		Kind:    models.EventMessage,
		Topic:   msg.Topic(),
		Payload: msg.Payload(),
	})
}

// -----------------------------------------------------------------------------

func (t *MQTTTransport) Subscribe(topic string) {
	go func() {
		token := t.client.Subscribe(topic, t.qos, t.onMessage)
		err := t.wait(token, topic)
		if err == nil {
			t.mu.Lock()
			t.active = topic
			t.mu.Unlock()
		}
		t.emit(models.MTransportEvent{Kind: models.EventSubscribeAck, Topic: topic, Err: err})
	}()
}

// -----------------------------------------------------------------------------

func (t *MQTTTransport) Unsubscribe(topic string) {
	go func() {
		token := t.client.Unsubscribe(topic)
		err := t.wait(token, "")
		if err == nil {
			t.mu.Lock()
			if t.active == topic {
				t.active = ""
			}
			t.mu.Unlock()
		}
		t.emit(models.MTransportEvent{Kind: models.EventUnsubscribeAck, Topic: topic, Err: err})
	}()
}

// -----------------------------------------------------------------------------

// wait resolves a paho token. For subscriptions it also checks the SUBACK code.
func (t *MQTTTransport) wait(token mqtt.Token, topic string) error {
	if !token.WaitTimeout(t.connectTimeout) {
		return fmt.Errorf("no acknowledgement within %s", t.connectTimeout)
	}
	if err := token.Error(); err != nil {
		return err
	}
	if st, ok := token.(*mqtt.SubscribeToken); ok && topic != "" {
		if code, found := st.Result()[topic]; found && code == subscribeFailure {
			return fmt.Errorf("broker rejected subscription to %s", topic)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// Close stops event delivery first, then disconnects.
func (t *MQTTTransport) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.active = ""
	t.mu.Unlock()

	// Also cancels a connect still in progress
	t.client.Disconnect(disconnectQuiesceMs)
	t.logger.Debug("MQTT handle %d closed", t.generation)
}

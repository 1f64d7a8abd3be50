package engine

import (
	"log"
	"time"

	"fleetflow/config"
	"fleetflow/dispatch"
	"fleetflow/fleetstate"
	"fleetflow/messaging"
	"fleetflow/notify"
	"fleetflow/store"
)

type LogFunc func(format string, args ...any)

type Config struct {
	AppConfig  *config.Config
	ConfigPath string
	DB         *store.DB
	FleetState *fleetstate.Manager
	MsgClient  *messaging.Client
	Notifier   notify.Notifier
	LogFunc    LogFunc
}

// Engine wires the dispatcher, event bus, status cache, outbox and
// notifications together. Side effects of trip transitions all hang off
// bus subscriptions, so the dispatcher itself stays transactional and
// side-effect free.
type Engine struct {
	cfg          *config.Config
	configPath   string
	db           *store.DB
	fleetState   *fleetstate.Manager
	msgClient    *messaging.Client
	notifier     notify.Notifier
	dispatcher   *dispatch.Dispatcher
	Events       *EventBus
	logFn        LogFunc
	stopChan     chan struct{}
	msgConnected bool
}

func New(c Config) *Engine {
	logFn := c.LogFunc
	if logFn == nil {
		logFn = log.Printf
	}
	notifier := c.Notifier
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &Engine{
		cfg:        c.AppConfig,
		configPath: c.ConfigPath,
		db:         c.DB,
		fleetState: c.FleetState,
		msgClient:  c.MsgClient,
		notifier:   notifier,
		Events:     NewEventBus(),
		logFn:      logFn,
		stopChan:   make(chan struct{}),
	}
}

func (e *Engine) Start() {
	de := &dispatchEmitter{bus: e.Events}
	e.dispatcher = dispatch.NewDispatcher(e.db, de)

	e.wireEventHandlers()

	e.checkConnectionStatus()
	go e.connectionHealthLoop()

	e.logFn("engine: started")
}

func (e *Engine) Stop() {
	select {
	case e.stopChan <- struct{}{}:
	default:
	}
	e.logFn("engine: stopped")
}

// Accessors
func (e *Engine) DB() *store.DB                   { return e.db }
func (e *Engine) AppConfig() *config.Config       { return e.cfg }
func (e *Engine) ConfigPath() string              { return e.configPath }
func (e *Engine) Dispatcher() *dispatch.Dispatcher { return e.dispatcher }
func (e *Engine) FleetState() *fleetstate.Manager  { return e.fleetState }
func (e *Engine) MsgClient() *messaging.Client     { return e.msgClient }
func (e *Engine) Notifier() notify.Notifier        { return e.notifier }

func (e *Engine) checkConnectionStatus() {
	if e.msgClient == nil {
		return
	}
	if e.msgClient.IsConnected() {
		if !e.msgConnected {
			e.msgConnected = true
			e.Events.Emit(Event{Type: EventMessagingConnected, Payload: ConnectionEvent{Detail: "messaging connected"}})
		}
	} else {
		if e.msgConnected {
			e.msgConnected = false
			e.Events.Emit(Event{Type: EventMessagingDisconnected, Payload: ConnectionEvent{Detail: "messaging disconnected"}})
		}
	}
}

func (e *Engine) connectionHealthLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			e.checkConnectionStatus()
		}
	}
}

// ReconfigureMessaging reconnects messaging with current config.
func (e *Engine) ReconfigureMessaging() {
	if e.msgClient == nil {
		return
	}
	e.msgClient.Close()
	if err := e.msgClient.Connect(); err != nil {
		e.logFn("engine: messaging reconfigure error: %v", err)
	} else {
		e.logFn("engine: messaging reconfigured")
	}
	e.checkConnectionStatus()
}

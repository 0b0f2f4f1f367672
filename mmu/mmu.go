// Package mmu sequences filament operations on the unit. It owns the
// retry, park, cooldown and resume policy around the protocol layer and is
// driven by the host calling Tick from its main loop.
package mmu

import (
	"errors"
	"log"
	"time"

	"github.com/mastercactapus/gmmu/catalog"
	"github.com/mastercactapus/gmmu/coord"
	"github.com/mastercactapus/gmmu/logic"
	"github.com/mastercactapus/gmmu/macro"
)

var (
	// ErrReentrant is returned when the MMU is entered again from the
	// host's Idle while one of its operations is waiting.
	ErrReentrant = errors.New("mmu: operation in progress")

	// ErrNotReady is returned for operations requested while stopped.
	ErrNotReady = errors.New("mmu: not ready")
)

const (
	// NoTool is the internal marker for "no filament selected".
	NoTool uint8 = 99

	// ToolUnknown is reported by CurrentTool when no filament is selected.
	ToolUnknown uint8 = 0xff
)

// State is the connection state of the MMU.
type State int

const (
	Stopped State = iota
	Connecting
	Active
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Active:
		return "active"
	}
	return "stopped"
}

// SavedState records what was changed on the printer while paused for an
// error.
type SavedState uint8

const (
	ParkExtruder SavedState = 1 << iota
	Cooldown
	CooldownPending

	SavedNone SavedState = 0
)

// Config tunes the printer side of the operations. Zero values are
// replaced by defaults in New.
type Config struct {
	// ToolChangeRetries is the number of tool change attempts per
	// verification cycle. Must be at least 2.
	ToolChangeRetries int

	CutterEnabled bool

	// SpoolJoin is the initial spool join setting, used when Storage has
	// none.
	SpoolJoin bool

	// CooldownTimeout is how long the hotend stays hot while waiting for
	// the user.
	CooldownTimeout time.Duration

	// Park is the XY position the head is moved to on an error; ZLift is
	// added to the current Z first.
	Park       coord.Point
	ZLift      float64
	XYFeedrate float64
	ZFeedrate  float64

	// VerifyLength is how far past the filament sensor the filament is
	// pushed (and pulled back) to verify a load.
	VerifyLength   float64
	VerifyFeedrate float64

	UnloadAssistLength   float64
	UnloadAssistFeedrate float64
	FeedAssistLength     float64

	FSensorToNozzle float64
	LoadFeedrate    float64

	Ramming      *macro.Template
	LoadToNozzle *macro.Template

	Now func() time.Time
}

func (c *Config) setDefaults() {
	if c.ToolChangeRetries < 2 {
		c.ToolChangeRetries = 3
	}
	if c.CooldownTimeout == 0 {
		c.CooldownTimeout = 30 * time.Minute
	}
	if c.ZLift == 0 {
		c.ZLift = 20
	}
	if c.XYFeedrate == 0 {
		c.XYFeedrate = 50
	}
	if c.ZFeedrate == 0 {
		c.ZFeedrate = 15
	}
	if c.VerifyLength == 0 {
		c.VerifyLength = 50
	}
	if c.VerifyFeedrate == 0 {
		c.VerifyFeedrate = 50
	}
	if c.UnloadAssistLength == 0 {
		c.UnloadAssistLength = 80
	}
	if c.UnloadAssistFeedrate == 0 {
		c.UnloadAssistFeedrate = 80
	}
	if c.FeedAssistLength == 0 {
		c.FeedAssistLength = 350
	}
	if c.FSensorToNozzle == 0 {
		c.FSensorToNozzle = 60
	}
	if c.LoadFeedrate == 0 {
		c.LoadFeedrate = 20
	}
	if c.Ramming == nil {
		c.Ramming = macro.MustCompile("ramming", macro.DefaultRamming)
	}
	if c.LoadToNozzle == nil {
		c.LoadToNozzle = macro.MustCompile("load_to_nozzle", macro.DefaultLoadToNozzle)
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// MMU is the orchestrator. It is not safe for concurrent use: Tick and the
// operations must be called from the same goroutine.
type MMU struct {
	logic *logic.ProtocolLogic
	host  Host
	ui    UI
	store Storage
	cfg   Config

	state State

	extruder           uint8
	toolChangeExtruder uint8

	lastStatus      logic.StepStatus
	lastErrorCode   catalog.ErrorCode
	lastErrorSource ErrorSource
	lastButton      catalog.Buttons
	lastProgress    catalog.ProgressCode
	pendingOp       catalog.ButtonOperation
	printerOp       catalog.Buttons
	tuneRegister    uint8

	loadFilamentStarted   bool
	unloadFilamentStarted bool

	saved         SavedState
	resumePos     coord.Point
	resumeTemp    float64
	cooldownStart time.Time

	// depth is non-zero while Tick or an operation runs; ops counts the
	// operations only.
	depth       int
	ops         int
	holdRetries bool

	spoolJoin     bool
	runoutPending bool

	stats Stats
}

// New creates a stopped MMU.
func New(pl *logic.ProtocolLogic, h Host, ui UI, st Storage, cfg Config) *MMU {
	cfg.setDefaults()
	m := &MMU{
		logic:              pl,
		host:               h,
		ui:                 ui,
		store:              st,
		cfg:                cfg,
		extruder:           NoTool,
		toolChangeExtruder: NoTool,
		lastErrorCode:      catalog.OK,
		lastButton:         catalog.NoButton,
		printerOp:          catalog.NoButton,
		spoolJoin:          cfg.SpoolJoin,
	}
	m.loadStats()
	return m
}

func (m *MMU) now() time.Time { return m.cfg.Now() }

// Start opens communication with the unit.
func (m *MMU) Start() {
	if m.state != Stopped {
		return
	}
	log.Println("MMU: starting")
	m.extruder = NoTool
	m.toolChangeExtruder = NoTool
	m.logic.Start()
	m.state = Connecting
	m.writeSetting(keyEnabled, 1)
}

// Stop disables the MMU.
func (m *MMU) Stop() {
	m.StopKeepPowered()
	m.writeSetting(keyEnabled, 0)
}

// StopKeepPowered stops communication with the unit without disabling it.
func (m *MMU) StopKeepPowered() {
	if m.state != Stopped {
		log.Println("MMU: stopping")
	}
	m.state = Stopped
	m.runoutPending = false
	m.logic.Stop()
}

// State is the connection state.
func (m *MMU) State() State { return m.state }

// Enabled reports whether the MMU was last left running, as recorded in
// Storage. It is true when nothing was recorded.
func (m *MMU) Enabled() bool {
	m.store.BeginAccess()
	defer m.store.EndAccess()
	v, ok := m.store.ReadUint32(keyEnabled)
	return !ok || v != 0
}

// CurrentTool is the active slot, or ToolUnknown.
func (m *MMU) CurrentTool() uint8 {
	if m.extruder == NoTool {
		return ToolUnknown
	}
	return m.extruder
}

// TargetTool is the slot of the tool change in progress, or ToolUnknown.
func (m *MMU) TargetTool() uint8 {
	if m.toolChangeExtruder == NoTool {
		return ToolUnknown
	}
	return m.toolChangeExtruder
}

// Saved returns what is currently saved by an error pause.
func (m *MMU) Saved() SavedState { return m.saved }

// LastError is the last reported error and where it came from.
func (m *MMU) LastError() (catalog.ErrorCode, ErrorSource) {
	return m.lastErrorCode, m.lastErrorSource
}

// PrinterButton returns and clears the last Load/Eject choice made on an
// error screen.
func (m *MMU) PrinterButton() catalog.Buttons {
	b := m.printerOp
	m.printerOp = catalog.NoButton
	return b
}

// Tick advances the MMU by one protocol step and handles user input. It
// must be called regularly from the host's main loop.
func (m *MMU) Tick() error {
	if m.depth > 0 {
		return ErrReentrant
	}
	m.depth++
	defer func() { m.depth-- }()

	m.lastStatus = m.logicStep(true)
	m.checkUserInput()
	return nil
}

func (m *MMU) enter() func() {
	m.depth++
	m.ops++
	return func() {
		m.depth--
		m.ops--
	}
}

// waitForReady reports whether operations can be issued.
func (m *MMU) waitForReady() bool {
	return m.state != Stopped
}

func (m *MMU) logicStep(reportErrors bool) logic.StepStatus {
	m.checkUserInput()
	m.logic.SetFSensor(m.host.FilamentPresent())

	ss := m.logic.Step()
	switch ss {
	case logic.Finished:
		m.lastProgress = catalog.ProgressOK
		m.clearUnitError()
		m.checkFINDARunout()
	case logic.Processing:
		m.clearUnitError()
		m.onProgress(m.logic.Progress())
	case logic.ButtonPushed:
		m.lastButton = m.logic.PressedButton()
		m.logic.ClearButton()
		log.Printf("MMU: button %d pushed on the unit", m.lastButton)
		m.checkUserInput()
	case logic.Interrupted:
	case logic.CommunicationRecovered:
		log.Println("MMU: communication recovered")
		if m.lastErrorCode == catalog.MMUNotResponding || m.lastErrorCode == catalog.ProtocolError {
			m.lastErrorCode = catalog.OK
			m.ui.ClearError()
		}
	case logic.VersionMismatch:
		m.StopKeepPowered()
		if reportErrors {
			m.reportError(catalog.VersionMismatch, SourcePrinter)
		}
	default:
		if reportErrors {
			switch ss {
			case logic.CommandError:
				m.reportError(m.logic.Error(), SourceMMU)
			case logic.CommunicationTimeout:
				m.reportError(catalog.MMUNotResponding, SourcePrinter)
			case logic.ProtocolError:
				m.reportError(catalog.ProtocolError, SourcePrinter)
			case logic.PrinterError:
				m.reportError(m.logic.PrinterError(), SourcePrinter)
			}
		}
	}

	if m.state == Connecting && m.logic.State() == logic.Running {
		log.Printf("MMU: connected, firmware %s", m.logic.Version())
		m.state = Active
	}
	return ss
}

// clearUnitError dismisses an error raised by the unit once the unit moved
// on.
func (m *MMU) clearUnitError() {
	if m.lastErrorSource != SourceMMU || !m.lastErrorCode.IsError() || m.logic.Error().IsError() {
		return
	}
	m.lastErrorCode = catalog.OK
	m.ui.ClearError()
}

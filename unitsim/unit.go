// Package unitsim is an in-memory unit that speaks the wire protocol. It
// stands in for the hardware in tests and in the daemon's -sim mode.
package unitsim

import (
	"sync"

	"github.com/mastercactapus/gmmu/catalog"
	"github.com/mastercactapus/gmmu/protocol"
)

type cmdState int

const (
	cmdFinished cmdState = iota
	cmdRunning
	cmdError
)

// NoSlot is reported as the active slot when no filament is selected.
const NoSlot = 0xff

// Unit answers requests synchronously: every frame passed to Send queues
// its response, which Recv hands out.
type Unit struct {
	mu sync.Mutex

	out [][]byte

	version [3]uint8
	build   uint16
	regs    map[uint8]uint16

	finda   bool
	fsensor bool
	loaded  bool
	slot    uint8

	cmd       protocol.Request
	state     cmdState
	remaining int
	progress  catalog.ProgressCode
	errCode   catalog.ErrorCode
	button    catalog.Buttons

	failures map[protocol.RequestCode][]catalog.ErrorCode

	// CommandPolls is the number of queries a command keeps running for.
	CommandPolls int

	silent     bool
	rejectNext int

	requests []protocol.Request
}

// New creates a unit reporting firmware 3.0.3 with nothing loaded.
func New() *Unit {
	return &Unit{
		version:      [3]uint8{3, 0, 3},
		build:        900,
		regs:         map[uint8]uint16{protocol.RegExtraLoadDistance: 30, protocol.RegPulleySlowFeed: 20},
		slot:         NoSlot,
		cmd:          protocol.Request{Code: protocol.Reset},
		button:       catalog.NoButton,
		failures:     make(map[protocol.RequestCode][]catalog.ErrorCode),
		CommandPolls: 2,
	}
}

// SetVersion changes the firmware version reported by the unit.
func (u *Unit) SetVersion(major, minor, revision uint8) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.version = [3]uint8{major, minor, revision}
}

// SetSilent makes the unit drop every request, as if disconnected.
func (u *Unit) SetSilent(v bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.silent = v
}

// RejectNext makes the unit reject the next n commands.
func (u *Unit) RejectNext(n int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.rejectNext = n
}

// FailNext queues errors for the next commands with code c. Each attempt
// (including retries) consumes one.
func (u *Unit) FailNext(c protocol.RequestCode, ec ...catalog.ErrorCode) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.failures[c] = append(u.failures[c], ec...)
}

// SetFINDA overrides the FINDA sensor, e.g. to simulate a runout.
func (u *Unit) SetFINDA(v bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.finda = v
}

// PressButton simulates a button pushed on the unit itself.
func (u *Unit) PressButton(b catalog.Buttons) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.button = b
}

// ExternalReset simulates a reset of the unit behind the host's back.
func (u *Unit) ExternalReset() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.reset()
}

func (u *Unit) reset() {
	u.cmd = protocol.Request{Code: protocol.Reset}
	u.state = cmdFinished
	u.progress = catalog.ProgressOK
	u.errCode = catalog.OK
}

// Loaded reports whether filament reaches into the extruder.
func (u *Unit) Loaded() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.loaded
}

// FINDA is the state of the unit's filament sensor.
func (u *Unit) FINDA() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.finda
}

// FSensor is the printer's sensor state as last reported to the unit.
func (u *Unit) FSensor() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.fsensor
}

// Slot is the active slot or NoSlot.
func (u *Unit) Slot() uint8 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.slot
}

// Register returns the current value of a register.
func (u *Unit) Register(addr uint8) uint16 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.register(addr)
}

// Count is the number of requests received with code c.
func (u *Unit) Count(c protocol.RequestCode) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	var n int
	for _, rq := range u.requests {
		if rq.Code == c {
			n++
		}
	}
	return n
}

// Requests returns every request received so far.
func (u *Unit) Requests() []protocol.Request {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]protocol.Request(nil), u.requests...)
}

// Send implements logic.Transport.
func (u *Unit) Send(frame []byte) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.silent {
		return nil
	}
	rq, err := protocol.DecodeRequest(frame)
	if err != nil {
		// garbage is ignored by the firmware
		return nil
	}
	u.requests = append(u.requests, rq)
	rsp, ok := u.handle(rq)
	if ok {
		u.out = append(u.out, rsp.Encode())
	}
	return nil
}

// Recv implements logic.Transport.
func (u *Unit) Recv() ([]byte, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.out) == 0 {
		return nil, false
	}
	line := u.out[0]
	u.out = u.out[1:]
	return line, true
}

// Flush implements logic.Transport.
func (u *Unit) Flush() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.out = nil
}

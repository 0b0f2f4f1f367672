package logic

import (
	"testing"
	"time"

	"github.com/mastercactapus/gmmu/catalog"
	"github.com/mastercactapus/gmmu/protocol"
	"github.com/mastercactapus/gmmu/unitsim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }
func (c *fakeClock) Add(d time.Duration) { c.t = c.t.Add(d) }

const tick = 500 * time.Millisecond

func newTestLogic(t *testing.T, tr Transport, opt Options) (*ProtocolLogic, *fakeClock) {
	clk := &fakeClock{t: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	opt.Now = clk.Now
	pl, err := New(tr, opt)
	require.NoError(t, err)
	return pl, clk
}

func stepUntil(t *testing.T, pl *ProtocolLogic, clk *fakeClock, want StepStatus, max int) []StepStatus {
	var seen []StepStatus
	for i := 0; i < max; i++ {
		st := pl.Step()
		seen = append(seen, st)
		if st == want {
			return seen
		}
		clk.Add(tick)
	}
	t.Fatalf("no %s after %d steps: %v", want, max, seen)
	return seen
}

// stepUntilCommand steps until c is the command in progress. The first
// steps after the start sequence finish its idle query.
func stepUntilCommand(t *testing.T, pl *ProtocolLogic, c protocol.RequestCode) {
	for i := 0; i < 10 && pl.CommandInProgress() != c; i++ {
		pl.Step()
	}
	require.Equal(t, c, pl.CommandInProgress())
}

func started(t *testing.T, u *unitsim.Unit, opt Options) (*ProtocolLogic, *fakeClock) {
	pl, clk := newTestLogic(t, u, opt)
	pl.Start()
	stepUntil(t, pl, clk, Finished, 20)
	require.Equal(t, Running, pl.State())
	return pl, clk
}

func contains(list []StepStatus, st StepStatus) bool {
	for _, s := range list {
		if s == st {
			return true
		}
	}
	return false
}

func TestNew_Timeouts(t *testing.T) {
	_, err := New(unitsim.New(), Options{LinkTimeout: time.Second, Heartbeat: 2 * time.Second})
	assert.Error(t, err)

	_, err = New(unitsim.New(), Options{LinkTimeout: 2 * time.Second, DataTimeout: time.Second})
	assert.Error(t, err)

	pl, err := New(unitsim.New(), Options{})
	require.NoError(t, err)
	opt := pl.Options()
	assert.Equal(t, DefaultLinkTimeout, opt.LinkTimeout)
	assert.Equal(t, 3*DefaultLinkTimeout, opt.DataTimeout)
	assert.Equal(t, DefaultLinkTimeout/2, opt.Heartbeat)
	assert.Equal(t, Stopped, pl.State())
}

func TestProtocolLogic_StartSequence(t *testing.T) {
	u := unitsim.New()
	pl, _ := started(t, u, Options{InitRegisters: []RegisterWrite{{Address: protocol.RegExtraLoadDistance, Value: 42}}})

	assert.Equal(t, Version{Major: 3, Minor: 0, Revision: 3, Build: 900}, pl.Version())
	assert.Equal(t, uint8(42), pl.ExtraLoadDistance())
	assert.Equal(t, uint16(20), pl.PulleySlowFeedrate())
	assert.Equal(t, uint16(42), u.Register(protocol.RegExtraLoadDistance))
	assert.Equal(t, 4, u.Count(protocol.Version))
}

func TestProtocolLogic_VersionMismatch(t *testing.T) {
	u := unitsim.New()
	u.SetVersion(3, 0, 2)
	pl, clk := newTestLogic(t, u, Options{})
	pl.Start()
	stepUntil(t, pl, clk, VersionMismatch, 20)
	assert.Equal(t, Stopped, pl.State())

	u = unitsim.New()
	u.SetVersion(3, 0, 7)
	started(t, u, Options{})
}

func TestProtocolLogic_ToolChange(t *testing.T) {
	u := unitsim.New()
	pl, clk := started(t, u, Options{})

	pl.ToolChange(1)
	seen := stepUntil(t, pl, clk, Finished, 30)
	assert.True(t, contains(seen, Processing))
	assert.False(t, contains(seen, CommandError))
	assert.Equal(t, uint8(1), u.Slot())
	assert.Equal(t, catalog.OK, pl.Error())
	assert.Equal(t, 1, u.Count(protocol.Tool))

	assert.Equal(t, protocol.Unknown, pl.CommandInProgress())
	assert.True(t, pl.FINDA(), "FINDA is read before Finished")
}

func TestProtocolLogic_FINDAFreshAfterCommand(t *testing.T) {
	u := unitsim.New()
	pl, clk := started(t, u, Options{})

	pl.ToolChange(2)
	stepUntil(t, pl, clk, Finished, 30)
	require.True(t, pl.FINDA())

	pl.UnloadFilament()
	seen := stepUntil(t, pl, clk, Finished, 30)
	assert.False(t, u.FINDA())
	assert.False(t, pl.FINDA(), "no stale FINDA once the command is done")
	last := u.Requests()[len(u.Requests())-1]
	assert.Equal(t, protocol.Request{Code: protocol.Read, Value: protocol.RegFINDA}, last)
	assert.Equal(t, Finished, seen[len(seen)-1])
}

func TestProtocolLogic_CommandInProgress(t *testing.T) {
	u := unitsim.New()
	u.CommandPolls = 5
	pl, clk := started(t, u, Options{})

	pl.LoadFilament(2)
	stepUntilCommand(t, pl, protocol.Load)
	stepUntil(t, pl, clk, Finished, 40)
}

func TestProtocolLogic_Interrupted(t *testing.T) {
	u := unitsim.New()
	u.CommandPolls = 10
	pl, clk := started(t, u, Options{})

	pl.ToolChange(0)
	stepUntilCommand(t, pl, protocol.Tool)
	u.ExternalReset()
	stepUntil(t, pl, clk, Interrupted, 20)
	assert.Equal(t, protocol.Unknown, pl.CommandInProgress())
}

func TestProtocolLogic_CommandErrorRetry(t *testing.T) {
	u := unitsim.New()
	u.FailNext(protocol.Tool, catalog.FindaDidntSwitchOn)
	pl, clk := started(t, u, Options{})

	pl.ToolChange(3)
	stepUntil(t, pl, clk, CommandError, 30)
	assert.Equal(t, catalog.FindaDidntSwitchOn, pl.Error())

	pl.SetInAutoRetry(true)
	pl.ResetRetryAttempts()
	pl.Button(catalog.Middle)
	stepUntil(t, pl, clk, Finished, 30)

	assert.Equal(t, uint8(DefaultRetryAttempts-1), pl.RetryAttempts())
	assert.Equal(t, 1, u.Count(protocol.Button))
	assert.Equal(t, uint8(3), u.Slot())
}

func TestProtocolLogic_ButtonOutsideAutoRetry(t *testing.T) {
	u := unitsim.New()
	u.FailNext(protocol.Unload, catalog.FSensorDidntSwitchOff)
	pl, clk := started(t, u, Options{})

	pl.UnloadFilament()
	stepUntil(t, pl, clk, CommandError, 30)
	pl.Button(catalog.Right)
	stepUntil(t, pl, clk, Finished, 30)
	assert.Equal(t, uint8(DefaultRetryAttempts), pl.RetryAttempts())
}

func TestProtocolLogic_Rejected(t *testing.T) {
	u := unitsim.New()
	u.RejectNext(1)
	pl, clk := started(t, u, Options{})

	pl.Home(0)
	seen := stepUntil(t, pl, clk, Finished, 40)
	assert.True(t, contains(seen, CommandRejected))
	assert.Equal(t, 2, u.Count(protocol.Home))
}

func TestProtocolLogic_UnitButton(t *testing.T) {
	u := unitsim.New()
	pl, clk := started(t, u, Options{})

	u.PressButton(catalog.Left)
	stepUntil(t, pl, clk, ButtonPushed, 10)
	assert.Equal(t, catalog.Left, pl.PressedButton())
	pl.ClearButton()
	assert.Equal(t, catalog.NoButton, pl.PressedButton())
}

func TestProtocolLogic_Registers(t *testing.T) {
	u := unitsim.New()
	pl, clk := started(t, u, Options{IdleRegisters: []uint8{protocol.RegSelectorSlot}})

	pl.ReadRegister(protocol.RegPulleySlowFeed)
	stepUntil(t, pl, clk, Finished, 10)
	v, ok := pl.ReadValue()
	assert.True(t, ok)
	assert.Equal(t, uint16(20), v)

	pl.WriteRegister(protocol.RegPulleyAccel, 800)
	stepUntil(t, pl, clk, Finished, 10)
	_, ok = pl.ReadValue()
	assert.True(t, ok)
	assert.Equal(t, uint16(800), u.Register(protocol.RegPulleyAccel))

	pl.WriteRegister(protocol.RegFINDA, 1)
	stepUntil(t, pl, clk, Finished, 10)
	_, ok = pl.ReadValue()
	assert.False(t, ok, "read only register")

	// one full idle cycle reads the extra register
	for i := 0; i < 10; i++ {
		pl.Step()
		clk.Add(tick)
	}
	v, ok = pl.Register(protocol.RegSelectorSlot)
	assert.True(t, ok)
	assert.Equal(t, uint16(unitsim.NoSlot), v)
}

func TestProtocolLogic_FSensorUpdate(t *testing.T) {
	u := unitsim.New()
	pl, clk := started(t, u, Options{})

	pl.SetFSensor(true)
	for i := 0; i < 10; i++ {
		pl.Step()
		clk.Add(tick)
	}
	assert.True(t, u.FSensor())

	pl.SetFSensor(false)
	for i := 0; i < 10; i++ {
		pl.Step()
		clk.Add(tick)
	}
	assert.False(t, u.FSensor())
}

func TestProtocolLogic_AdoptRunningCommand(t *testing.T) {
	u := unitsim.New()
	u.CommandPolls = 6
	require.NoError(t, u.Send(protocol.Request{Code: protocol.Eject, Value: 1}.Encode()))
	u.Flush()

	pl, clk := started(t, u, Options{})
	stepUntilCommand(t, pl, protocol.Eject)
	stepUntil(t, pl, clk, Finished, 40)
}

func TestProtocolLogic_CommunicationTimeout(t *testing.T) {
	u := unitsim.New()
	pl, clk := started(t, u, Options{})

	u.SetSilent(true)
	seen := stepUntil(t, pl, clk, CommunicationTimeout, 400)
	assert.Equal(t, 1, countOf(seen, CommunicationTimeout), "earlier failures are filtered")
	assert.Equal(t, InitSequence, pl.State())

	u.SetSilent(false)
	stepUntil(t, pl, clk, CommunicationRecovered, 40)
	assert.Equal(t, Running, pl.State())
}

func TestProtocolLogic_TransientTimeoutHidden(t *testing.T) {
	u := unitsim.New()
	pl, clk := started(t, u, Options{MaxDropOuts: 3})

	u.SetSilent(true)
	// two link timeouts, each followed by a delayed restart
	var seen []StepStatus
	for pl.dropOut.Pending() < 2 {
		seen = append(seen, pl.Step())
		clk.Add(tick)
		require.True(t, len(seen) < 200)
	}
	u.SetSilent(false)
	seen = append(seen, stepUntil(t, pl, clk, Finished, 40)...)
	assert.False(t, contains(seen, CommunicationTimeout))
	assert.False(t, contains(seen, CommunicationRecovered))
	assert.Equal(t, 0, pl.dropOut.Pending())
}

func countOf(list []StepStatus, st StepStatus) int {
	var n int
	for _, s := range list {
		if s == st {
			n++
		}
	}
	return n
}

type garbageTransport struct{ pending int }

func (g *garbageTransport) Send([]byte) error { g.pending++; return nil }
func (g *garbageTransport) Flush() { g.pending = 0 }
func (g *garbageTransport) Recv() ([]byte, bool) {
	if g.pending == 0 {
		return nil, false
	}
	g.pending--
	return []byte("garbage\n"), true
}

func TestProtocolLogic_ProtocolError(t *testing.T) {
	pl, clk := newTestLogic(t, &garbageTransport{}, Options{MaxDropOuts: 2})
	pl.Start()

	seen := stepUntil(t, pl, clk, ProtocolError, 20)
	assert.Equal(t, 1, countOf(seen, ProtocolError))
	assert.Equal(t, InitSequence, pl.State())
}

func TestProtocolLogic_PrinterError(t *testing.T) {
	u := unitsim.New()
	pl, clk := started(t, u, Options{})

	pl.SetPrinterError(catalog.LoadToExtruderFailed)
	assert.True(t, pl.IsPrinterError())
	assert.Equal(t, PrinterError, pl.Step())
	clk.Add(tick)
	assert.Equal(t, PrinterError, pl.Step())

	pl.ClearPrinterError()
	assert.NotEqual(t, PrinterError, pl.Step())
}

func TestProtocolLogic_Stop(t *testing.T) {
	u := unitsim.New()
	pl, _ := started(t, u, Options{})
	pl.ToolChange(1)
	pl.Stop()
	assert.Equal(t, Stopped, pl.State())
	assert.Equal(t, Processing, pl.Step())
	assert.Equal(t, 0, u.Count(protocol.Tool))
}

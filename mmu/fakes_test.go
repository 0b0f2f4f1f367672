package mmu

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mastercactapus/gmmu/catalog"
	"github.com/mastercactapus/gmmu/coord"
	"github.com/mastercactapus/gmmu/gcode"
	"github.com/mastercactapus/gmmu/logic"
	"github.com/mastercactapus/gmmu/unitsim"
)

const idleStep = 100 * time.Millisecond

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

type fakeHost struct {
	t     *testing.T
	clock *fakeClock
	unit  *unitsim.Unit
	mmu   *MMU

	pos            coord.Point
	target, hotend float64
	targets        []float64

	printing, homed, leveling bool
	fsensorEnabled            bool
	colorChange               bool

	// present overrides the filament sensor, which otherwise follows the
	// unit.
	present func() bool
	// resetPin is nil when no reset pin is wired.
	resetPin func()
	// onIdle runs at the start of every Idle.
	onIdle func()

	queued   int
	moves    []float64
	parks    []coord.Point
	enqueued []gcode.Block
	stopped  bool

	idles    int
	tickErrs []error
}

func (h *fakeHost) Synchronize()          { h.queued = 0 }
func (h *fakeHost) MovesQueued() bool     { return h.queued > 0 }
func (h *fakeHost) Position() coord.Point { return h.pos }

func (h *fakeHost) MoveXY(x, y, feedrate float64) {
	h.pos.X, h.pos.Y = x, y
	h.parks = append(h.parks, h.pos)
}
func (h *fakeHost) MoveZ(z, feedrate float64) { h.pos.Z = z }

func (h *fakeHost) ExtruderMove(distance, feedrate float64) {
	require.True(h.t, feedrate > 0, "feedrate must be positive")
	h.moves = append(h.moves, distance)
	h.queued += 2
}

func (h *fakeHost) TargetHotend() float64 { return h.target }
func (h *fakeHost) SetTargetHotend(c float64) {
	h.target = c
	h.hotend = c
	h.targets = append(h.targets, c)
}
func (h *fakeHost) Hotend() float64 { return h.hotend }

func (h *fakeHost) Idle() {
	h.idles++
	if h.idles > 100000 {
		h.t.Fatal("operation did not finish")
	}
	if h.onIdle != nil {
		h.onIdle()
	}
	h.clock.t = h.clock.t.Add(idleStep)
	if h.queued > 0 {
		h.queued--
	}
	if h.mmu != nil {
		if err := h.mmu.Tick(); err != nil {
			h.tickErrs = append(h.tickErrs, err)
		}
	}
}

func (h *fakeHost) PrintActive() bool        { return h.printing }
func (h *fakeHost) LevelingActive() bool     { return h.leveling }
func (h *fakeHost) AxesHomed() bool          { return h.homed }
func (h *fakeHost) ColorChangePending() bool { return h.colorChange }
func (h *fakeHost) FSensorEnabled() bool     { return h.fsensorEnabled }
func (h *fakeHost) FilamentPresent() bool {
	if h.present != nil {
		return h.present()
	}
	return h.unit.Loaded()
}
func (h *fakeHost) PulseReset() bool {
	if h.resetPin == nil {
		return false
	}
	h.resetPin()
	return true
}

func (h *fakeHost) EnqueueFront(b gcode.Block) { h.enqueued = append(h.enqueued, b) }
func (h *fakeHost) StopPrint()                 { h.stopped = true }

type fakeUI struct {
	shown    catalog.ErrorCode
	errors   []catalog.ErrorCode
	sources  []ErrorSource
	cleared  int
	progress []string
	messages []string

	// answers are handed out one by one while an error is shown, after
	// delay calls to ButtonPressed.
	answers []catalog.ButtonOperation
	delay   int
}

func (u *fakeUI) ShowError(ec catalog.ErrorCode, src ErrorSource) {
	if ec == u.shown {
		return
	}
	u.shown = ec
	u.errors = append(u.errors, ec)
	u.sources = append(u.sources, src)
}

func (u *fakeUI) ClearError() {
	if u.shown != 0 {
		u.cleared++
	}
	u.shown = 0
}

func (u *fakeUI) ShowProgress(text string)      { u.progress = append(u.progress, text) }
func (u *fakeUI) FullScreenMessage(text string) { u.messages = append(u.messages, text) }

func (u *fakeUI) ButtonPressed() catalog.ButtonOperation {
	if u.shown == 0 || len(u.answers) == 0 {
		return catalog.NoOperation
	}
	if u.delay > 0 {
		u.delay--
		return catalog.NoOperation
	}
	op := u.answers[0]
	u.answers = u.answers[1:]
	return op
}

type fakeStore struct {
	values  map[string]uint32
	depth   int
	commits int
}

func newFakeStore() *fakeStore { return &fakeStore{values: make(map[string]uint32)} }

func (s *fakeStore) BeginAccess() { s.depth++ }
func (s *fakeStore) EndAccess()   { s.depth-- }
func (s *fakeStore) ReadUint32(key string) (uint32, bool) {
	v, ok := s.values[key]
	return v, ok
}
func (s *fakeStore) WriteUint32(key string, v uint32) {
	if s.depth == 0 {
		panic("write outside of access")
	}
	s.values[key] = v
}
func (s *fakeStore) Commit() error {
	s.commits++
	return nil
}

type rig struct {
	m     *MMU
	host  *fakeHost
	ui    *fakeUI
	unit  *unitsim.Unit
	store *fakeStore
	clock *fakeClock
}

func newRig(t *testing.T, cfg Config, st *fakeStore) *rig {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	u := unitsim.New()
	pl, err := logic.New(u, logic.Options{Now: clock.Now})
	require.NoError(t, err)

	if st == nil {
		st = newFakeStore()
	}
	h := &fakeHost{
		t:              t,
		clock:          clock,
		unit:           u,
		homed:          true,
		fsensorEnabled: true,
		target:         215,
		hotend:         215,
		pos:            coord.Point{X: 100, Y: 100, Z: 5},
	}
	ui := &fakeUI{}
	cfg.Now = clock.Now
	m := New(pl, h, ui, st, cfg)
	h.mmu = m
	return &rig{m: m, host: h, ui: ui, unit: u, store: st, clock: clock}
}

// tick runs n ticks of the main loop.
func (r *rig) tick(t *testing.T, n int) {
	for i := 0; i < n; i++ {
		require.NoError(t, r.m.Tick())
		r.clock.t = r.clock.t.Add(idleStep)
	}
}

func (r *rig) start(t *testing.T) {
	r.m.Start()
	for i := 0; i < 100 && r.m.State() != Active; i++ {
		r.tick(t, 1)
	}
	require.Equal(t, Active, r.m.State())
}

// commands returns the command codes the unit received, in order.
func (r *rig) commands() string {
	var s []byte
	for _, rq := range r.unit.Requests() {
		if rq.Code.IsCommand() {
			s = append(s, byte(rq.Code))
		}
	}
	return string(s)
}

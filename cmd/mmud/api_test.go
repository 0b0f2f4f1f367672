package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mastercactapus/gmmu/catalog"
	"github.com/mastercactapus/gmmu/config"
	"github.com/mastercactapus/gmmu/mmu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type daemon struct {
	r   *runner
	api *api
}

// newDaemon builds a simulated daemon. The runner loop is started only if
// run is set.
func newDaemon(t *testing.T, run bool) (*daemon, func()) {
	dir, err := os.MkdirTemp("", "mmud")
	require.NoError(t, err)

	cfg := &config.Config{
		MMU: config.MMUConfig{
			Sim:           true,
			LinkTimeoutMs: 200,
			HeartbeatMs:   20,
		},
		StatsFile: filepath.Join(dir, "stats.yaml"),
	}
	require.NoError(t, config.Validate(cfg))
	config.Normalize(cfg)

	r, closeLink, err := setup(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	if run {
		go r.run(ctx)
	}

	return &daemon{r: r, api: newAPI(r)}, func() {
		cancel()
		closeLink()
		os.RemoveAll(dir)
	}
}

func (d *daemon) call(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if method == "POST" && !strings.HasPrefix(target, "/api/gcode") {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	d.api.ServeHTTP(rec, req)
	return rec
}

func (d *daemon) status(t *testing.T) statusResponse {
	rec := d.call("GET", "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var st statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	return st
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	deadline := time.Now().Add(10 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func (d *daemon) submit(t *testing.T, gcode string) Job {
	rec := d.call("POST", "/api/gcode", gcode)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var j Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &j))
	assert.NotEmpty(t, j.ID)
	return j
}

func (d *daemon) wait(t *testing.T, id string) Job {
	var j Job
	waitFor(t, "job "+id, func() bool {
		j, _ = d.r.job(id)
		return j.State == JobDone || j.State == JobFailed
	})
	return j
}

func TestAPI_Stopped(t *testing.T) {
	d, cleanup := newDaemon(t, true)
	defer cleanup()

	st := d.status(t)
	assert.Equal(t, mmu.Stopped.String(), st.MMU.State)
	assert.Nil(t, st.Dialog)
	assert.True(t, st.Printer.Homed)

	j := d.wait(t, d.submit(t, "T1\n").ID)
	assert.Equal(t, JobFailed, j.State)
	assert.Contains(t, j.Error, mmu.ErrNotReady.Error())

	rec := d.call("POST", "/api/gcode", "G1 X1 #\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = d.call("POST", "/api/gcode", "; nothing\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = d.call("GET", "/api/jobs/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_Buttons(t *testing.T) {
	// without the loop nothing else consumes the answer
	d, cleanup := newDaemon(t, false)
	defer cleanup()

	rec := d.call("POST", "/api/button/bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = d.call("POST", "/api/button/retry", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	d.r.ui.ShowError(catalog.FindaDidntSwitchOn, mmu.SourceMMU)
	dlg, ok := d.r.ui.Dialog()
	require.True(t, ok)

	rec = d.call("POST", "/api/button/retry", "id=other")
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = d.call("POST", "/api/button/retry", "id="+dlg.ID)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, catalog.Retry, d.r.ui.ButtonPressed())
}

func TestAPI_PrinterAndSettings(t *testing.T) {
	d, cleanup := newDaemon(t, true)
	defer cleanup()

	rec := d.call("POST", "/api/printer", "printing=1&fsensor_enabled=false")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, d.r.p.PrintActive())
	assert.False(t, d.r.p.FSensorEnabled())

	rec = d.call("POST", "/api/printer", "homed=maybe&printing=0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, d.r.p.PrintActive(), "nothing applied on a bad request")

	rec = d.call("POST", "/api/spooljoin", "enabled=true")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	waitFor(t, "spool join in status", func() bool { return d.status(t).MMU.SpoolJoin })

	rec = d.call("POST", "/api/spooljoin", "enabled=")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = d.call("POST", "/api/stats/reset", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAPI_Queue(t *testing.T) {
	d, cleanup := newDaemon(t, false)
	defer cleanup()

	d.r.p.SetPrinting(true)
	d.r.p.Enqueue(mustBlock(t, "M600 A1"))
	d.r.p.Enqueue(mustBlock(t, "T2"))

	rec := d.call("GET", "/api/queue", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "M600 A1\nT2\n", rec.Body.String())
}

func TestAPI_ToolChange(t *testing.T) {
	d, cleanup := newDaemon(t, true)
	defer cleanup()

	d.r.do(d.r.m.Start)
	waitFor(t, "active", func() bool { return d.status(t).MMU.State == mmu.Active.String() })

	j := d.wait(t, d.submit(t, "T1\nM109 S0\n").ID)
	assert.Equal(t, JobDone, j.State, j.Error)
	assert.Equal(t, []string{"T1", "M109 S0"}, j.Lines)

	waitFor(t, "tool 1", func() bool { return d.status(t).MMU.Tool == 1 })
	assert.Equal(t, uint32(1), d.status(t).MMU.Stats.ToolChanges)
	assert.True(t, d.status(t).Printer.Filament)
}

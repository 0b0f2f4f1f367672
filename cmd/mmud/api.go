package main

import (
	"encoding/json"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mastercactapus/gmmu/catalog"
	"github.com/mastercactapus/gmmu/gcode"
	"github.com/mastercactapus/gmmu/host"
	"github.com/mastercactapus/gmmu/mmu"
)

type api struct {
	http.Handler
	r *runner
}

type statusResponse struct {
	MMU     mmu.Status    `json:"mmu"`
	Dialog  *host.Dialog  `json:"dialog"`
	Printer printerStatus `json:"printer"`
}

type printerStatus struct {
	Printing       bool    `json:"printing"`
	Homed          bool    `json:"homed"`
	FSensorEnabled bool    `json:"fsensor_enabled"`
	Filament       bool    `json:"filament"`
	Hotend         float64 `json:"hotend"`
	Target         float64 `json:"target"`
}

func newAPI(r *runner) *api {
	router := mux.NewRouter()
	a := &api{Handler: router, r: r}

	router.HandleFunc("/api/status", a.status).Methods("GET")
	router.HandleFunc("/api/gcode", a.gcode).Methods("POST")
	router.HandleFunc("/api/jobs/{id}", a.job).Methods("GET")
	router.HandleFunc("/api/queue", a.queue).Methods("GET")
	router.HandleFunc("/api/button/{op}", a.button).Methods("POST")
	router.HandleFunc("/api/stats/reset", a.resetStats).Methods("POST")
	router.HandleFunc("/api/spooljoin", a.spoolJoin).Methods("POST")
	router.HandleFunc("/api/printer", a.printer).Methods("POST")
	router.PathPrefix("/events/").Handler(r.ui)

	return a
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		log.Println("ERROR: encode:", err)
	}
}

func (a *api) status(w http.ResponseWriter, req *http.Request) {
	res := statusResponse{MMU: a.r.Status()}
	if d, ok := a.r.ui.Dialog(); ok {
		res.Dialog = &d
	}
	p := a.r.p
	res.Printer = printerStatus{
		Printing:       p.PrintActive(),
		Homed:          p.AxesHomed(),
		FSensorEnabled: p.FSensorEnabled(),
		Filament:       p.FilamentPresent(),
	}
	a.r.do(func() {
		res.Printer.Hotend = p.Hotend()
		res.Printer.Target = p.TargetHotend()
	})
	writeJSON(w, res)
}

func (a *api) gcode(w http.ResponseWriter, req *http.Request) {
	data, err := ioutil.ReadAll(req.Body)
	if err != nil {
		return
	}

	var lines []string
	for _, str := range strings.Split(string(data), "\n") {
		str = strings.TrimSpace(str)
		if str == "" {
			continue
		}
		lines = append(lines, str)
	}
	blocks, err := gcode.Parse(strings.Join(lines, "\n"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(blocks) == 0 {
		http.Error(w, "no commands", http.StatusBadRequest)
		return
	}

	j, ok := a.r.submit(lines, blocks)
	if !ok {
		http.Error(w, "job backlog is full", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, j)
}

func (a *api) job(w http.ResponseWriter, req *http.Request) {
	j, ok := a.r.job(mux.Vars(req)["id"])
	if !ok {
		http.NotFound(w, req)
		return
	}
	writeJSON(w, j)
}

func (a *api) queue(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	buf := gcode.NewBuffer(&gcode.BlocksReader{Blocks: a.r.p.Queue()})
	_, err := io.Copy(w, buf)
	if err != nil {
		log.Println("ERROR: write queue:", err)
	}
}

func (a *api) button(w http.ResponseWriter, req *http.Request) {
	op, ok := catalog.ParseButtonOperation(mux.Vars(req)["op"])
	if !ok {
		http.Error(w, "unknown operation", http.StatusBadRequest)
		return
	}
	err := a.r.ui.Answer(req.FormValue("id"), op)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) resetStats(w http.ResponseWriter, req *http.Request) {
	a.r.do(a.r.m.ResetStatistics)
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) spoolJoin(w http.ResponseWriter, req *http.Request) {
	v, err := strconv.ParseBool(req.FormValue("enabled"))
	if err != nil {
		http.Error(w, "enabled must be a boolean", http.StatusBadRequest)
		return
	}
	a.r.do(func() { a.r.m.SetSpoolJoin(v) })
	w.WriteHeader(http.StatusNoContent)
}

// printer changes the simulated printer's flags; omitted fields are left
// as they are.
func (a *api) printer(w http.ResponseWriter, req *http.Request) {
	p := a.r.p
	setters := []struct {
		name string
		fn   func(bool)
	}{
		{"printing", p.SetPrinting},
		{"homed", p.SetHomed},
		{"fsensor_enabled", p.SetFSensorEnabled},
		{"filament", p.SetFilament},
	}

	var apply []func()
	for _, s := range setters {
		str := req.FormValue(s.name)
		if str == "" {
			continue
		}
		v, err := strconv.ParseBool(str)
		if err != nil {
			http.Error(w, s.name+" must be a boolean", http.StatusBadRequest)
			return
		}
		fn := s.fn
		apply = append(apply, func() { fn(v) })
	}
	for _, fn := range apply {
		fn()
	}
	w.WriteHeader(http.StatusNoContent)
}

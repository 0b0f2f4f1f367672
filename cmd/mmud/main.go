package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/mastercactapus/gmmu/config"
	"github.com/mastercactapus/gmmu/host"
	"github.com/mastercactapus/gmmu/link"
	"github.com/mastercactapus/gmmu/logic"
	"github.com/mastercactapus/gmmu/mmu"
	"github.com/mastercactapus/gmmu/store"
	"github.com/mastercactapus/gmmu/unitsim"
)

func main() {
	log.SetFlags(log.Lshortfile)

	cfgPath := flag.String("config", "mmu.yaml", "Path to the YAML configuration.")
	addr := flag.String("addr", "", "Address to bind the HTTP server to (overrides http.addr).")
	sim := flag.Bool("sim", false, "Drive a simulated unit instead of the configured link.")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	switch {
	case err == nil:
	case *sim && errors.Is(err, fs.ErrNotExist):
		cfg = &config.Config{}
	default:
		log.Fatalf("config load failed: %v", err)
	}
	if *sim {
		cfg.MMU.Port = ""
		cfg.MMU.SPJS = nil
		cfg.MMU.Sim = true
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}

	r, closeLink, err := setup(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closeLink()
	r.p.Step = 5 * time.Millisecond

	go r.run(context.Background())
	if r.m.Enabled() {
		r.do(r.m.Start)
	}

	log.Println("Listening:", cfg.HTTP.Addr)
	err = http.ListenAndServe(cfg.HTTP.Addr, newAPI(r))
	if err != nil {
		log.Fatal(err)
	}
}

// setup wires the unit link, printer, UI and storage into a runner.
func setup(cfg *config.Config) (*runner, func(), error) {
	p := host.NewPrinter()

	t, closeLink, err := openLink(cfg.MMU, p)
	if err != nil {
		return nil, nil, err
	}

	opt, err := cfg.Logic()
	if err != nil {
		closeLink()
		return nil, nil, err
	}
	pl, err := logic.New(t, opt)
	if err != nil {
		closeLink()
		return nil, nil, err
	}

	st, err := store.Open(cfg.StatsFile)
	if err != nil {
		closeLink()
		return nil, nil, err
	}

	mc, err := cfg.Orchestrator()
	if err != nil {
		closeLink()
		return nil, nil, err
	}

	ui := host.NewUI()
	m := mmu.New(pl, p, ui, st, mc)
	return newRunner(m, p, ui), func() {
		ui.Close()
		closeLink()
	}, nil
}

func openLink(c config.MMUConfig, p *host.Printer) (logic.Transport, func(), error) {
	switch {
	case c.Sim:
		u := unitsim.New()
		p.Filament = u.Loaded
		p.Reset = u.ExternalReset
		log.Println("Using simulated unit")
		return u, func() {}, nil
	case c.SPJS != nil:
		sp := link.DialSPJS(c.SPJS.URL, c.SPJS.Port, c.SPJS.Baud)
		conn := link.NewConn(sp)
		log.Printf("Using SPJS %s port %s", c.SPJS.URL, c.SPJS.Port)
		return conn, func() { conn.Close() }, nil
	}

	conn, err := link.OpenSerial(c.Port, c.Baud)
	if err != nil {
		return nil, nil, err
	}
	log.Println("Using serial port", c.Port)
	return conn, func() { conn.Close() }, nil
}

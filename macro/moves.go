package macro

import (
	"fmt"

	"github.com/mastercactapus/gmmu/gcode"
)

// Move is a relative extruder move. A Move with Sync set carries no
// distance and waits for the queued moves to finish.
type Move struct {
	Distance float64

	// Feedrate in mm/s.
	Feedrate float64

	Sync bool
}

// Moves converts blocks into extruder moves. E is always relative and F
// (mm/min) is sticky, starting at defaultFeed. Only G0/G1, G4 and M400 are
// accepted; G1 moves without E are ignored.
func Moves(blocks []gcode.Block, defaultFeed float64) ([]Move, error) {
	feed := defaultFeed
	var res []Move
	for _, b := range blocks {
		if ok, f := b.Arg('F'); ok {
			if f <= 0 {
				return nil, fmt.Errorf("invalid feedrate in %q", b.String())
			}
			feed = f
		}
		switch {
		case b.Is('G', 0), b.Is('G', 1):
			ok, e := b.Arg('E')
			if !ok || e == 0 {
				continue
			}
			res = append(res, Move{Distance: e, Feedrate: feed / 60})
		case b.Is('G', 4), b.Is('M', 400):
			res = append(res, Move{Sync: true})
		default:
			if _, ok := b.Command(); ok {
				return nil, fmt.Errorf("unsupported command in %q", b.String())
			}
		}
	}
	return res, nil
}

package spooljoin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func runout() Inputs {
	return Inputs{
		AxesHomed:        true,
		Printing:         true,
		FSensorEnabled:   true,
		SpoolJoinEnabled: true,
		ToolKnown:        true,
	}
}

func TestDecide(t *testing.T) {
	in := runout()
	assert.Equal(t, AutoJoin, Decide(in))

	in.SpoolJoinEnabled = false
	assert.Equal(t, ManualChange, Decide(in))

	in = runout()
	in.ToolKnown = false
	assert.Equal(t, ManualChange, Decide(in))
}

func TestDecide_NoAction(t *testing.T) {
	data := []struct {
		name string
		mod  func(*Inputs)
	}{
		{"filament present", func(in *Inputs) { in.SensorPresent = true }},
		{"color change pending", func(in *Inputs) { in.ColorChangePending = true }},
		{"leveling", func(in *Inputs) { in.LevelingActive = true }},
		{"not homed", func(in *Inputs) { in.AxesHomed = false }},
		{"not printing", func(in *Inputs) { in.Printing = false }},
		{"fsensor disabled", func(in *Inputs) { in.FSensorEnabled = false }},
	}
	for _, d := range data {
		in := runout()
		d.mod(&in)
		assert.Equal(t, None, Decide(in), d.name)
	}
}

func TestNextSlot(t *testing.T) {
	assert.Equal(t, uint8(1), NextSlot(0))
	assert.Equal(t, uint8(4), NextSlot(3))
	assert.Equal(t, uint8(0), NextSlot(4))
	assert.Equal(t, uint8(0), NextSlot(99))
}

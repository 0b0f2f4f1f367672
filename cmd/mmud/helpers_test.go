package main

import (
	"testing"

	"github.com/mastercactapus/gmmu/gcode"
	"github.com/stretchr/testify/require"
)

func mustBlock(t *testing.T, s string) gcode.Block {
	b, err := gcode.ParseBlock(s)
	require.NoError(t, err)
	return b
}

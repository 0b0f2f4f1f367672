package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDropOutFilter(t *testing.T) {
	f := NewDropOutFilter(10)

	for i := 0; i < 9; i++ {
		assert.Equal(t, Processing, f.Record(CommunicationTimeout))
	}
	assert.Equal(t, 9, f.Pending())
	f.Reset()
	assert.Equal(t, 0, f.Pending())

	for i := 0; i < 9; i++ {
		assert.Equal(t, Processing, f.Record(CommunicationTimeout))
	}
	assert.Equal(t, CommunicationTimeout, f.Record(ProtocolError), "first cause is reported")
	assert.Equal(t, 0, f.Pending())
}

func TestDropOutFilter_Single(t *testing.T) {
	f := NewDropOutFilter(0)
	assert.Equal(t, ProtocolError, f.Record(ProtocolError))
	assert.Equal(t, CommunicationTimeout, f.Record(CommunicationTimeout))
}

package link

import (
	"bufio"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pipeRW struct {
	io.Reader
	io.Writer
}

func recvWithin(c *Conn, d time.Duration) ([]byte, bool) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if line, ok := c.Recv(); ok {
			return line, true
		}
		time.Sleep(time.Millisecond)
	}
	return nil, false
}

func TestConn(t *testing.T) {
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	c := NewConn(pipeRW{Reader: inR, Writer: outW})
	defer c.Close()

	_, ok := c.Recv()
	assert.False(t, ok)

	go inW.Write([]byte("Q0 P1*4c\n\nS0 A3*9f\n"))
	line, ok := recvWithin(c, time.Second)
	require.True(t, ok)
	assert.Equal(t, "Q0 P1*4c", string(line))
	line, ok = recvWithin(c, time.Second)
	require.True(t, ok)
	assert.Equal(t, "S0 A3*9f", string(line), "empty lines are skipped")

	go func() {
		assert.NoError(t, c.Send([]byte("Q0*e9\n")))
	}()
	sent, err := bufio.NewReader(outR).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "Q0*e9\n", sent)
}

func TestConn_Flush(t *testing.T) {
	inR, inW := io.Pipe()
	c := NewConn(pipeRW{Reader: inR, Writer: io.Discard})
	defer c.Close()

	_, err := inW.Write([]byte("a\nb\n"))
	require.NoError(t, err)
	// give the reader time to queue both lines
	time.Sleep(10 * time.Millisecond)
	c.Flush()
	_, ok := c.Recv()
	assert.False(t, ok)
}

func TestConn_Closed(t *testing.T) {
	inR, _ := io.Pipe()
	c := NewConn(pipeRW{Reader: inR, Writer: io.Discard})
	require.NoError(t, c.Close())
	assert.Equal(t, ErrClosed, c.Send([]byte("Q0*e9\n")))
	assert.NoError(t, c.Close())
}

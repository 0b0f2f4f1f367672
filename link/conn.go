// Package link moves protocol frames over a byte stream: a serial port, or
// a serial-port-json-server bridge.
package link

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"log"
	"sync"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("link closed")

const lineBuffer = 64

// Conn splits the incoming stream into lines and hands them out without
// blocking. It satisfies logic.Transport.
type Conn struct {
	rw io.ReadWriter

	lines   chan []byte
	closeCh chan struct{}
	once    sync.Once

	mx sync.Mutex
}

// NewConn starts reading lines from rw.
func NewConn(rw io.ReadWriter) *Conn {
	c := &Conn{
		rw:      rw,
		lines:   make(chan []byte, lineBuffer),
		closeCh: make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *Conn) readLoop() {
	scan := bufio.NewScanner(c.rw)
	for scan.Scan() {
		data := bytes.TrimSpace(scan.Bytes())
		if len(data) == 0 {
			continue
		}
		line := append([]byte(nil), data...)
		select {
		case c.lines <- line:
		case <-c.closeCh:
			return
		}
	}
	if err := scan.Err(); err != nil {
		select {
		case <-c.closeCh:
		default:
			log.Println("ERROR: read from port:", err)
		}
	}
}

// Send writes a single frame.
func (c *Conn) Send(frame []byte) error {
	select {
	case <-c.closeCh:
		return ErrClosed
	default:
	}
	c.mx.Lock()
	_, err := c.rw.Write(frame)
	c.mx.Unlock()
	return err
}

// Recv returns the next line if one is available.
func (c *Conn) Recv() ([]byte, bool) {
	select {
	case line := <-c.lines:
		return line, true
	default:
		return nil, false
	}
}

// Flush discards every line received so far.
func (c *Conn) Flush() {
	for {
		select {
		case <-c.lines:
		default:
			return
		}
	}
}

// Close stops the reader and closes the underlying ReadWriter, if it
// implements io.Closer.
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.closeCh)
		if closer, ok := c.rw.(io.Closer); ok {
			err = closer.Close()
		}
	})
	return err
}

package link

import (
	"fmt"

	"github.com/tarm/serial"
)

// DefaultBaud is the baud rate of the unit's UART.
const DefaultBaud = 115200

// OpenSerial opens the serial device name and wraps it in a Conn.
func OpenSerial(name string, baud int) (*Conn, error) {
	if baud == 0 {
		baud = DefaultBaud
	}
	port, err := serial.OpenPort(&serial.Config{Name: name, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return NewConn(port), nil
}

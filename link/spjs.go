package link

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// SPJS reaches the unit through a serial-port-json-server. It implements
// io.ReadWriter over the bridged port, reconnecting as needed.
type SPJS struct {
	url  string
	port string
	baud int

	outgoing chan message
	closeCh  chan struct{}

	pr *io.PipeReader
	pw *io.PipeWriter
}

type message struct {
	done    chan struct{}
	payload []byte
}

// DataFrame is data read from a port.
type DataFrame struct {
	Port string `json:"P"`
	Data string `json:"D"`
}

// ErrorMessage is reported by the server for failed commands.
type ErrorMessage struct {
	Error string
}

type sendJSON struct {
	Port string `json:"P"`
	Data []sendData
}
type sendData struct {
	Data string `json:"D"`
	ID   string `json:"Id"`
}

var lastID int64

func nextID() string {
	id := atomic.AddInt64(&lastID, 1)
	return "mmu_" + strconv.FormatInt(id, 36)
}

// DialSPJS connects to the server at url and opens port on it.
func DialSPJS(url, port string, baud int) *SPJS {
	if baud == 0 {
		baud = DefaultBaud
	}
	pr, pw := io.Pipe()
	sp := &SPJS{
		url:      url,
		port:     port,
		baud:     baud,
		outgoing: make(chan message, 100),
		closeCh:  make(chan struct{}),
		pr:       pr,
		pw:       pw,
	}
	go sp.loop()
	return sp
}

func (sp *SPJS) readLoop(ws *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			log.Println("ERROR: read:", err)
			return
		}
		if !bytes.HasPrefix(data, []byte("{")) {
			// ignore echo messages
			continue
		}
		var msg map[string]json.RawMessage
		err = json.Unmarshal(data, &msg)
		if err != nil {
			log.Println("ERROR: read:", err)
			continue
		}
		if msg["Error"] != nil {
			var e ErrorMessage
			if json.Unmarshal(data, &e) == nil {
				log.Println("ERROR: spjs:", e.Error)
			}
			continue
		}
		if msg["D"] == nil || msg["P"] == nil {
			continue
		}
		var frame DataFrame
		err = json.Unmarshal(data, &frame)
		if err != nil {
			log.Println("ERROR: parse:", err)
			continue
		}
		if frame.Port != sp.port {
			continue
		}
		_, err = sp.pw.Write([]byte(frame.Data))
		if err != nil {
			return
		}
	}
}

func (sp *SPJS) loop() {
	var nextUp message

reconnect:
	for {
		select {
		case <-sp.closeCh:
			return
		default:
		}
		log.Println("Connecting to", sp.url)
		ws, _, err := websocket.DefaultDialer.Dial(sp.url, nil)
		if err != nil {
			log.Println("ERROR: connect:", err)
			select {
			case <-sp.closeCh:
				return
			case <-time.After(3 * time.Second):
			}
			continue
		}
		log.Println("Connected.")
		ch := make(chan struct{})
		go sp.readLoop(ws, ch)

		open := "open " + sp.port + " " + strconv.Itoa(sp.baud) + " default"
		if err = ws.WriteMessage(websocket.TextMessage, []byte(open)); err != nil {
			log.Println("ERROR: send:", err)
			ws.Close()
			continue
		}

		for {
			if nextUp.done != nil {
				err = ws.WriteMessage(websocket.TextMessage, nextUp.payload)
				if err != nil {
					log.Println("ERROR: send:", err)
					ws.Close()
					continue reconnect
				}
				close(nextUp.done)
				nextUp.done = nil
			}

			select {
			case <-sp.closeCh:
				ws.Close()
				return
			case <-ch:
				ws.Close()
				continue reconnect
			case nextUp = <-sp.outgoing:
			}
		}
	}
}

// Read reads data received from the bridged port.
func (sp *SPJS) Read(p []byte) (int, error) {
	return sp.pr.Read(p)
}

// Write sends p to the bridged port. It returns once the message was
// handed to the server.
func (sp *SPJS) Write(p []byte) (int, error) {
	data, err := json.Marshal(sendJSON{Port: sp.port, Data: []sendData{{Data: string(p), ID: nextID()}}})
	if err != nil {
		return 0, err
	}
	ch := make(chan struct{})
	select {
	case sp.outgoing <- message{done: ch, payload: append([]byte("sendjson "), data...)}:
	case <-sp.closeCh:
		return 0, ErrClosed
	}
	select {
	case <-ch:
		return len(p), nil
	case <-sp.closeCh:
		return 0, ErrClosed
	}
}

// Close disconnects from the server.
func (sp *SPJS) Close() error {
	select {
	case <-sp.closeCh:
		return nil
	default:
	}
	close(sp.closeCh)
	return sp.pw.Close()
}

package host

import (
	"encoding/json"
	"errors"
	"io/ioutil"
	"log"
	"net/http"
	"sync"

	sse "github.com/alexandrevicenzi/go-sse"
	uuid "github.com/satori/go.uuid"

	"github.com/mastercactapus/gmmu/catalog"
	"github.com/mastercactapus/gmmu/mmu"
)

// Event channels published by UI.
const (
	ChannelError    = "/events/error"
	ChannelProgress = "/events/progress"
	ChannelMessage  = "/events/message"
	ChannelStatus   = "/events/status"
)

var (
	ErrNoDialog    = errors.New("no error is shown")
	ErrStaleDialog = errors.New("dialog was replaced")
	ErrNoOperation = errors.New("no operation selected")
)

// Dialog is an error screen as sent to clients.
type Dialog struct {
	ID          string   `json:"id"`
	Code        uint16   `json:"code"`
	Error       string   `json:"error"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Source      string   `json:"source"`
	Buttons     []string `json:"buttons"`

	ec  catalog.ErrorCode
	src mmu.ErrorSource
}

// UI is an mmu.UI that pushes dialogs, progress and messages to browser
// clients as server-sent events and takes their answers through Answer.
type UI struct {
	sse *sse.Server

	mx       sync.Mutex
	dialog   *Dialog
	progress string
	message  string
	pending  catalog.ButtonOperation
}

func NewUI() *UI {
	return &UI{
		sse: sse.NewServer(&sse.Options{
			Logger: log.New(ioutil.Discard, "", 0),
		}),
	}
}

// ServeHTTP serves the event stream; clients subscribe to one of the
// Channel paths.
func (ui *UI) ServeHTTP(w http.ResponseWriter, req *http.Request) { ui.sse.ServeHTTP(w, req) }

func (ui *UI) Close() { ui.sse.Shutdown() }

func (ui *UI) publish(channel string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("ERROR: marshal json: %+v", err)
		return
	}
	ui.sse.SendMessage(channel, sse.SimpleMessage(string(data)))
}

// PublishStatus sends an MMU status snapshot to subscribed clients.
func (ui *UI) PublishStatus(st mmu.Status) { ui.publish(ChannelStatus, st) }

func (ui *UI) ShowError(ec catalog.ErrorCode, src mmu.ErrorSource) {
	ui.mx.Lock()
	if ui.dialog != nil && ui.dialog.ec == ec && ui.dialog.src == src {
		ui.mx.Unlock()
		return
	}
	e := catalog.Lookup(ec)
	d := &Dialog{
		ID:          uuid.NewV4().String(),
		Code:        e.Code,
		Error:       ec.String(),
		Title:       e.Title,
		Description: e.Description,
		Source:      src.String(),
		ec:          ec,
		src:         src,
	}
	for _, op := range []catalog.ButtonOperation{e.Buttons.Middle, e.Buttons.Right} {
		if op != catalog.NoOperation {
			d.Buttons = append(d.Buttons, op.String())
		}
	}
	ui.dialog = d
	ui.pending = catalog.NoOperation
	ui.mx.Unlock()

	log.Printf("MMU: error %05d %s (%s)", e.Code, e.Title, src)
	ui.publish(ChannelError, d)
}

func (ui *UI) ClearError() {
	ui.mx.Lock()
	if ui.dialog == nil {
		ui.mx.Unlock()
		return
	}
	ui.dialog = nil
	ui.pending = catalog.NoOperation
	ui.mx.Unlock()

	ui.publish(ChannelError, nil)
}

func (ui *UI) ShowProgress(text string) {
	ui.mx.Lock()
	changed := ui.progress != text
	ui.progress = text
	ui.mx.Unlock()
	if changed {
		ui.publish(ChannelProgress, text)
	}
}

func (ui *UI) FullScreenMessage(text string) {
	ui.mx.Lock()
	ui.message = text
	ui.mx.Unlock()
	log.Println("MMU:", text)
	ui.publish(ChannelMessage, text)
}

// Dialog returns the error currently shown, if any.
func (ui *UI) Dialog() (Dialog, bool) {
	ui.mx.Lock()
	defer ui.mx.Unlock()
	if ui.dialog == nil {
		return Dialog{}, false
	}
	return *ui.dialog, true
}

// Answer records the user's choice for the dialog id. An empty id answers
// whatever dialog is shown.
func (ui *UI) Answer(id string, op catalog.ButtonOperation) error {
	if op == catalog.NoOperation {
		return ErrNoOperation
	}
	ui.mx.Lock()
	defer ui.mx.Unlock()
	if ui.dialog == nil {
		return ErrNoDialog
	}
	if id != "" && id != ui.dialog.ID {
		return ErrStaleDialog
	}
	ui.pending = op
	return nil
}

func (ui *UI) ButtonPressed() catalog.ButtonOperation {
	ui.mx.Lock()
	defer ui.mx.Unlock()
	op := ui.pending
	ui.pending = catalog.NoOperation
	return op
}

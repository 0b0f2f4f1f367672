package protocol

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrMalformed is returned when a frame cannot be parsed.
	ErrMalformed = errors.New("malformed frame")

	// ErrCRC is returned when the frame checksum does not match.
	ErrCRC = errors.New("crc mismatch")
)

// Request is a single message sent to the unit.
type Request struct {
	Code  RequestCode
	Value uint8

	// Value2 is only used by Write.
	Value2 uint16
}

// Response is a single message received from the unit.
//
// Request echoes the request the response belongs to. For a Query it is the
// command the unit is currently running (or has last finished).
type Response struct {
	Request Request
	Param   ParamCode
	Value   uint16
}

func (r Request) String() string {
	return string(r.body())
}

func (r Request) body() []byte {
	b := make([]byte, 0, 12)
	b = append(b, byte(r.Code))
	b = strconv.AppendUint(b, uint64(r.Value), 16)
	if r.Code == Write {
		b = append(b, ' ')
		b = strconv.AppendUint(b, uint64(r.Value2), 16)
	}
	return b
}

// Encode returns the wire frame for r, including checksum and newline.
func (r Request) Encode() []byte {
	return seal(r.body())
}

func (r Response) String() string {
	return string(r.body())
}

func (r Response) body() []byte {
	b := make([]byte, 0, 16)
	b = append(b, byte(r.Request.Code))
	b = strconv.AppendUint(b, uint64(r.Request.Value), 16)
	b = append(b, ' ', byte(r.Param))
	switch r.Param {
	case ParamProcessing, ParamError, ParamFinished, ParamButton:
		b = strconv.AppendUint(b, uint64(r.Value), 16)
	case ParamAccepted:
		if r.Request.Code == Read || r.Request.Code == Version {
			b = strconv.AppendUint(b, uint64(r.Value), 16)
		}
	}
	return b
}

// Encode returns the wire frame for r, including checksum and newline.
func (r Response) Encode() []byte {
	return seal(r.body())
}

func seal(body []byte) []byte {
	b := append(body, '*')
	b = strconv.AppendUint(b, uint64(crc8(body)), 16)
	return append(b, '\n')
}

// open verifies the checksum of a frame and returns its body.
func open(line []byte) (string, error) {
	line = bytes.TrimSpace(line)
	i := bytes.LastIndexByte(line, '*')
	if i < 2 {
		return "", ErrMalformed
	}
	body := line[:i]
	sum, err := strconv.ParseUint(string(line[i+1:]), 16, 8)
	if err != nil {
		return "", ErrMalformed
	}
	if uint8(sum) != crc8(body) {
		return "", ErrCRC
	}
	return string(body), nil
}

func parseRequestToken(s string) (Request, error) {
	var rq Request
	if len(s) < 2 {
		return rq, ErrMalformed
	}
	rq.Code = RequestCode(s[0])
	if !rq.Code.valid() {
		return rq, ErrMalformed
	}
	v, err := strconv.ParseUint(s[1:], 16, 8)
	if err != nil {
		return rq, ErrMalformed
	}
	rq.Value = uint8(v)
	return rq, nil
}

// DecodeRequest parses a single request frame.
func DecodeRequest(line []byte) (Request, error) {
	body, err := open(line)
	if err != nil {
		return Request{}, err
	}
	parts := strings.Fields(body)
	rq, err := parseRequestToken(parts[0])
	if err != nil {
		return rq, err
	}
	if rq.Code == Write {
		if len(parts) != 2 {
			return rq, ErrMalformed
		}
		v, err := strconv.ParseUint(parts[1], 16, 16)
		if err != nil {
			return rq, ErrMalformed
		}
		rq.Value2 = uint16(v)
	} else if len(parts) != 1 {
		return rq, ErrMalformed
	}
	return rq, nil
}

// DecodeResponse parses a single response frame.
func DecodeResponse(line []byte) (Response, error) {
	var rsp Response
	body, err := open(line)
	if err != nil {
		return rsp, err
	}
	parts := strings.Fields(body)
	if len(parts) != 2 || len(parts[1]) < 1 {
		return rsp, ErrMalformed
	}
	rsp.Request, err = parseRequestToken(parts[0])
	if err != nil {
		return rsp, err
	}
	rsp.Param = ParamCode(parts[1][0])
	if !rsp.Param.valid() {
		return rsp, ErrMalformed
	}
	if len(parts[1]) > 1 {
		v, err := strconv.ParseUint(parts[1][1:], 16, 16)
		if err != nil {
			return rsp, ErrMalformed
		}
		rsp.Value = uint16(v)
	}
	return rsp, nil
}

package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRC8(t *testing.T) {
	assert.Equal(t, uint8(0xf4), crc8([]byte("123456789")))
	assert.Equal(t, uint8(0), crc8(nil))
}

func TestRequest_Encode(t *testing.T) {
	frame := Request{Code: Tool, Value: 3}.Encode()
	assert.Equal(t, byte('\n'), frame[len(frame)-1])
	assert.Contains(t, string(frame), "T3*")

	frame = Request{Code: Write, Value: RegExtraLoadDistance, Value2: 30}.Encode()
	assert.Contains(t, string(frame), "Wb 1e*")

	rq, err := DecodeRequest(frame)
	require.NoError(t, err)
	assert.Equal(t, Request{Code: Write, Value: RegExtraLoadDistance, Value2: 30}, rq)
}

func TestDecodeResponse(t *testing.T) {
	rsp, err := DecodeResponse(Response{
		Request: Request{Code: Tool, Value: 1},
		Param:   ParamError,
		Value:   0x8004,
	}.Encode())
	require.NoError(t, err)
	assert.Equal(t, Tool, rsp.Request.Code)
	assert.Equal(t, uint8(1), rsp.Request.Value)
	assert.Equal(t, ParamError, rsp.Param)
	assert.Equal(t, uint16(0x8004), rsp.Value)

	// accepted without a value
	rsp, err = DecodeResponse(Response{Request: Request{Code: Button, Value: 1}, Param: ParamAccepted}.Encode())
	require.NoError(t, err)
	assert.Equal(t, ParamAccepted, rsp.Param)
	assert.Equal(t, uint16(0), rsp.Value)

	// register reads carry the value
	rsp, err = DecodeResponse(Response{Request: Request{Code: Read, Value: RegFINDA}, Param: ParamAccepted, Value: 1}.Encode())
	require.NoError(t, err)
	assert.Equal(t, uint16(1), rsp.Value)
}

func TestDecodeResponse_Errors(t *testing.T) {
	good := Response{Request: Request{Code: Query}, Param: ParamFinished}.Encode()

	bad := append([]byte(nil), good...)
	bad[0] = 'L'
	_, err := DecodeResponse(bad)
	assert.Equal(t, ErrCRC, err)

	_, err = DecodeResponse([]byte("garbage\n"))
	assert.Equal(t, ErrMalformed, err)

	_, err = DecodeResponse(seal([]byte("Z1 A")))
	assert.Equal(t, ErrMalformed, err)

	_, err = DecodeResponse(seal([]byte("T1 Q")))
	assert.Equal(t, ErrMalformed, err)

	_, err = DecodeResponse(seal([]byte("T1")))
	assert.Equal(t, ErrMalformed, err)
}

func TestRequestCode_IsCommand(t *testing.T) {
	assert.True(t, Tool.IsCommand())
	assert.True(t, Reset.IsCommand())
	assert.False(t, Query.IsCommand())
	assert.False(t, Button.IsCommand())
	assert.False(t, Read.IsCommand())
}

package wireproto

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadFrame_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte(`{"action":"list","args":{}}`)
	require.NoError(t, WriteFrame(&buf, payload))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestReadFrame_EmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, nil))
	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestReadFrame_NoDataIsEOF(t *testing.T) {
	_, err := ReadFrame(strings.NewReader(""))
	require.ErrorIs(t, err, io.EOF)
}

func TestReadFrame_NonDigitBeforeSpace(t *testing.T) {
	_, err := ReadFrame(strings.NewReader("12x 34"))
	var fe *FramingError
	require.True(t, errors.As(err, &fe))
}

func TestReadFrame_DeclaredLengthMismatch(t *testing.T) {
	_, err := ReadFrame(strings.NewReader("10 short"))
	var fe *FramingError
	require.True(t, errors.As(err, &fe))
}

func TestEncodeDecodeRequest_InjectsAddress(t *testing.T) {
	payload, err := EncodeRequest(ActionLoc, map[string]interface{}{"filename": "a.txt"}, "127.0.0.1:9001")
	require.NoError(t, err)

	action, args, err := DecodeRequest(payload)
	require.NoError(t, err)
	require.Equal(t, ActionLoc, action)
	require.Equal(t, "127.0.0.1:9001", AddressOf(args))
	require.Equal(t, "a.txt", args["filename"])
}

package broker

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeBinaryRoundTrip(t *testing.T) {
	payload, _ := json.Marshal(map[string]string{"text": "hello"})
	in := Envelope{
		ServerID: "server-1",
		Room:     "user_42",
		Event:    "receive_message",
		Payload:  payload,
	}

	raw, err := in.MarshalBinary()
	require.NoError(t, err)

	var out Envelope
	require.NoError(t, out.UnmarshalBinary(raw))
	assert.Equal(t, in, out)
}

func TestEnvelopeEmptyRoomMeansBroadcast(t *testing.T) {
	raw, err := Envelope{ServerID: "s", Event: "live_activity"}.MarshalBinary()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"room":""`)
}

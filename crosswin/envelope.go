package crosswin

import (
	"fmt"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Envelope kinds. syn and ack carry the handshake; msg carries routed
// application payloads.
const (
	kindSyn = "syn"
	kindAck = "ack"
	kindMsg = "msg"
)

// envelope is the wire record posted between contexts. It crosses the
// boundary as a JSON string, the way a real postMessage payload would.
type envelope struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Route   string `json:"route,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

func newEnvelope(kind, route string, payload any) *envelope {
	return &envelope{
		ID:      uuid.NewString(),
		Kind:    kind,
		Route:   route,
		Payload: payload,
	}
}

func (e *envelope) encode() (string, error) {
	out, err := json.MarshalToString(e)
	if err != nil {
		return "", fmt.Errorf("crosswin: encoding envelope: %w", err)
	}
	return out, nil
}

// decodeEnvelope parses incoming message data. Non-string data and strings
// that are not envelopes are rejected; the router ignores foreign traffic.
func decodeEnvelope(data any) (*envelope, bool) {
	raw, ok := data.(string)
	if !ok {
		return nil, false
	}
	var e envelope
	if err := json.UnmarshalFromString(raw, &e); err != nil {
		return nil, false
	}
	if e.Kind == "" {
		return nil, false
	}
	return &e, true
}

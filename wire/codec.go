package wire

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownType is returned by DecodeFrame for frame tags this client does
// not understand. Callers log and drop such frames without closing the channel.
var ErrUnknownType = errors.New("unknown frame type")

// ErrMalformedPayload is returned when a frame's data field does not parse
// into the payload type its tag requires.
var ErrMalformedPayload = errors.New("malformed frame payload")

// DecodeFrame parses a raw frame into its envelope. The payload is left raw;
// use DecodePayload to extract it.
func DecodeFrame(raw []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if f.Type == "" {
		return nil, fmt.Errorf("%w: missing type tag", ErrMalformedPayload)
	}
	return &f, nil
}

// DecodePayload unmarshals a frame's data into v according to its tag.
// Returns ErrUnknownType for tags with no payload mapping.
func DecodePayload(f *Frame, v any) error {
	if len(f.Data) == 0 {
		return fmt.Errorf("%w: empty data for %q", ErrMalformedPayload, f.Type)
	}
	if err := json.Unmarshal(f.Data, v); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrMalformedPayload, f.Type, err)
	}
	return nil
}

// EncodeFrame builds an outbound frame with the given payload.
func EncodeFrame(t MessageType, payload any) ([]byte, error) {
	f := Frame{Type: t}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		f.Data = data
	}
	return json.Marshal(f)
}

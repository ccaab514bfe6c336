package review

import (
	"encoding/json"
	"fmt"
)

// Reviewer -> server message types.
const (
	TypePing = "ping"
)

// Server -> reviewer message types.
const (
	TypeConnected   = "connected"
	TypePostHeld    = "post_held"
	TypePostDecided = "post_decided"
	TypePong        = "pong"
	TypeError       = "error"
)

// ConnectedMsg is sent once after the upgrade.
type ConnectedMsg struct {
	ConnectionID string `json:"connection_id"`
	Reviewers    int    `json:"reviewers"`
}

// ErrorMsg reports a malformed reviewer frame.
type ErrorMsg struct {
	Message string `json:"message"`
}

// parseType extracts the "type" discriminator of a reviewer frame.
func parseType(data []byte) (string, error) {
	var partial struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &partial); err != nil {
		return "", fmt.Errorf("review: failed to parse message: %w", err)
	}
	if partial.Type == "" {
		return "", fmt.Errorf("review: missing or empty \"type\" field")
	}
	return partial.Type, nil
}

// NewServerMessage encodes payload with the type field injected at the top
// level. A nil payload produces {"type": msgType}.
func NewServerMessage(msgType string, payload any) ([]byte, error) {
	m := map[string]any{}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("review: failed to marshal payload: %w", err)
		}
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("review: payload must encode as an object: %w", err)
		}
	}
	m["type"] = msgType

	out, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("review: failed to marshal server message: %w", err)
	}
	return out, nil
}

// ABOUTME: Remote control protocol message definitions
// ABOUTME: JSON command and status envelopes exchanged over the websocket
package remote

import "encoding/json"

// Message is the top-level wrapper for all protocol messages.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message types.
const (
	TypeHello   = "hello"
	TypeCommand = "command"
	TypeStatus  = "status"
	TypeError   = "error"
)

// Hello is the server's greeting after a connection is accepted.
type Hello struct {
	ServerID string `json:"server_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
}

// Command is a transport control request from a remote client.
type Command struct {
	Command string `json:"command"`

	// Pos is the normalized seek target for "seek".
	Pos *float64 `json:"pos,omitempty"`

	// Start and End are the normalized trim bounds for "trim".
	Start *float64 `json:"start,omitempty"`
	End   *float64 `json:"end,omitempty"`

	// Ratio is the playback speed for "speed".
	Ratio *float64 `json:"ratio,omitempty"`

	// Volume is the output volume in [0,1] for "volume".
	Volume *float64 `json:"volume,omitempty"`

	// Enabled is the loop flag for "loop".
	Enabled *bool `json:"enabled,omitempty"`

	// Path is the media path for "open".
	Path string `json:"path,omitempty"`
}

// Command names.
const (
	CmdPlay   = "play"
	CmdPause  = "pause"
	CmdSeek   = "seek"
	CmdLoop   = "loop"
	CmdTrim   = "trim"
	CmdSpeed  = "speed"
	CmdVolume = "volume"
	CmdOpen   = "open"
	CmdStatus = "status"
)

// ErrorPayload reports a rejected command back to the client.
type ErrorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

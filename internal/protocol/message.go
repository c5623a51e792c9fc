// Package protocol implements the line-delimited JSON boundary of the
// bridge: inbound commands on stdin, outbound events on stdout.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Inbound actions.
const (
	ActionSendMessage = "send_message"
	ActionPing        = "ping"
	ActionExit        = "exit"
)

// Event types.
const (
	EventLog              = "log"
	EventReady            = "ready"
	EventTerminalOutput   = "terminal_output"
	EventScreenClear      = "screen_clear"
	EventOutputUpdate     = "output_update"
	EventResponseComplete = "response_complete"
	EventResponseTimeout  = "response_timeout"
	EventResult           = "result"
	EventPong             = "pong"
	EventError            = "error"
)

// Command is one inbound JSON line.
type Command struct {
	Action    string `json:"action"`
	Message   string `json:"message,omitempty"`
	MessageID string `json:"message_id,omitempty"`
}

// ParseCommand decodes and validates one command line.
func ParseCommand(line []byte) (*Command, error) {
	var cmd Command
	if err := json.Unmarshal(line, &cmd); err != nil {
		return nil, fmt.Errorf("decode command: %w", err)
	}

	switch cmd.Action {
	case ActionSendMessage:
		if cmd.Message == "" {
			return nil, fmt.Errorf("send_message requires a message")
		}
	case ActionPing, ActionExit:
	case "":
		return nil, fmt.Errorf("missing action")
	default:
		return nil, fmt.Errorf("unknown action %q", cmd.Action)
	}

	return &cmd, nil
}

// Event is one outbound JSON line. Unused fields stay omitted, so every
// variant shares this shape.
type Event struct {
	Type      string  `json:"type"`
	Level     string  `json:"level,omitempty"`
	Message   string  `json:"message,omitempty"`
	Data      any     `json:"data,omitempty"`
	Output    string  `json:"output,omitempty"`
	MessageID string  `json:"message_id,omitempty"`
	IsRaw     bool    `json:"is_raw,omitempty"`
	Timestamp float64 `json:"timestamp,omitempty"`
}

// ProcessResult is the payload of a result event: the outcome of one
// logical send-and-stream request.
type ProcessResult struct {
	Status   string `json:"status"` // "completed", "timeout", or "error"
	Output   string `json:"output,omitempty"`
	Error    string `json:"error,omitempty"`
	Attempts int    `json:"attempts,omitempty"`
}

// Package agent executes commands sent by a test agent against bound elements.
package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/devicelab-dev/agent-bridge/pkg/core"
)

// Action names
const (
	ActionPing       = "ping"
	ActionTap        = "tap"
	ActionLongPress  = "longPress"
	ActionInputText  = "inputText"
	ActionScroll     = "scroll"
	ActionSwipe      = "swipe"
	ActionHierarchy  = "hierarchy"
	ActionLogs       = "logs"
	ActionDeviceInfo = "deviceInfo"
	ActionList       = "list"
)

// Defaults
const (
	DefaultScrollAmount    = 100.0
	DefaultLongPressMillis = 500.0
	DefaultLogLimit        = 100
)

// Command is one request from the agent.
type Command struct {
	ID        string   `json:"id,omitempty"`
	Action    string   `json:"action"`
	TestID    string   `json:"testID,omitempty"`
	Value     string   `json:"value,omitempty"`
	Direction string   `json:"direction,omitempty"`
	Amount    *float64 `json:"amount,omitempty"`
	Velocity  string   `json:"velocity,omitempty"`
}

// ParseCommand decodes a command message.
func ParseCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, core.ErrInvalidCommand.WithCause(err)
	}
	if strings.TrimSpace(cmd.Action) == "" {
		return cmd, core.ErrInvalidCommand.WithMessage("missing action")
	}
	return cmd, nil
}

// AmountOr returns the command amount, or def when absent or not positive.
func (c Command) AmountOr(def float64) float64 {
	if c.Amount == nil || *c.Amount <= 0 {
		return def
	}
	return *c.Amount
}

// Mutating reports whether the action changes UI state. Replays of mutating
// commands with the same id are answered from the dedupe cache.
func (c Command) Mutating() bool {
	switch c.Action {
	case ActionTap, ActionLongPress, ActionInputText, ActionScroll, ActionSwipe:
		return true
	default:
		return false
	}
}

// Response is the reply to one command. Payload keys are merged into the top
// level of the JSON object.
type Response struct {
	ID      string
	Status  core.Status
	Error   string
	Code    string
	Payload map[string]interface{}
}

// OK creates a success response with the given payload.
func OK(payload map[string]interface{}) Response {
	return Response{Status: core.StatusOK, Payload: payload}
}

// Fail creates an error response. ExecutionErrors contribute their code.
func Fail(err error) Response {
	resp := Response{Status: core.StatusError, Error: err.Error()}
	var execErr *core.ExecutionError
	if errors.As(err, &execErr) {
		resp.Code = execErr.Code
	}
	return resp
}

// MarshalJSON implements json.Marshaler.
func (r Response) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Payload)+4)
	for k, v := range r.Payload {
		out[k] = v
	}
	if r.ID != "" {
		out["id"] = r.ID
	}
	out["status"] = r.Status
	if r.Error != "" {
		out["error"] = r.Error
	}
	if r.Code != "" {
		out["code"] = r.Code
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Response) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = Response{}
	for key, value := range raw {
		var err error
		switch key {
		case "id":
			err = json.Unmarshal(value, &r.ID)
		case "status":
			err = json.Unmarshal(value, &r.Status)
		case "error":
			err = json.Unmarshal(value, &r.Error)
		case "code":
			err = json.Unmarshal(value, &r.Code)
		default:
			var v interface{}
			err = json.Unmarshal(value, &v)
			if r.Payload == nil {
				r.Payload = make(map[string]interface{})
			}
			r.Payload[key] = v
		}
		if err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
	}
	return nil
}

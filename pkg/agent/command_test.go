package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/agent-bridge/pkg/core"
)

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"id":"1","action":"scroll","testID":"feed","direction":"down","amount":250}`))
	require.NoError(t, err)
	assert.Equal(t, "1", cmd.ID)
	assert.Equal(t, ActionScroll, cmd.Action)
	assert.Equal(t, "feed", cmd.TestID)
	assert.Equal(t, "down", cmd.Direction)
	assert.Equal(t, 250.0, cmd.AmountOr(DefaultScrollAmount))
}

func TestParseCommand_Errors(t *testing.T) {
	_, err := ParseCommand([]byte(`{"action":`))
	assert.True(t, errors.Is(err, core.ErrInvalidCommand))

	cmd, err := ParseCommand([]byte(`{"id":"9"}`))
	assert.True(t, errors.Is(err, core.ErrInvalidCommand))
	assert.Equal(t, "9", cmd.ID)
}

func TestCommand_AmountOr(t *testing.T) {
	assert.Equal(t, 100.0, Command{}.AmountOr(100))
	assert.Equal(t, 100.0, Command{Amount: amount(0)}.AmountOr(100))
	assert.Equal(t, 100.0, Command{Amount: amount(-5)}.AmountOr(100))
	assert.Equal(t, 42.0, Command{Amount: amount(42)}.AmountOr(100))
}

func TestCommand_Mutating(t *testing.T) {
	for _, action := range []string{ActionTap, ActionLongPress, ActionInputText, ActionScroll, ActionSwipe} {
		assert.True(t, Command{Action: action}.Mutating(), action)
	}
	for _, action := range []string{ActionPing, ActionHierarchy, ActionLogs, ActionDeviceInfo, ActionList} {
		assert.False(t, Command{Action: action}.Mutating(), action)
	}
}

func TestResponse_MarshalMergesPayload(t *testing.T) {
	resp := OK(map[string]interface{}{"testIDs": []string{"a"}})
	resp.ID = "3"

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"3","status":"ok","testIDs":["a"]}`, string(data))
}

func TestResponse_MarshalError(t *testing.T) {
	resp := Fail(core.ErrNoScrollTarget)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"error","error":"no scroll target found","code":"no_scroll_target"}`, string(data))
}

func TestResponse_Unmarshal(t *testing.T) {
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(`{"id":"4","status":"error","error":"no node found","code":"no_node","extra":1}`), &resp))
	assert.Equal(t, "4", resp.ID)
	assert.Equal(t, core.StatusError, resp.Status)
	assert.Equal(t, "no node found", resp.Error)
	assert.Equal(t, "no_node", resp.Code)
	assert.Equal(t, 1.0, resp.Payload["extra"])

	assert.Error(t, json.Unmarshal([]byte(`{"status":5}`), &resp))
}

func TestFail_WrappedExecutionError(t *testing.T) {
	resp := Fail(fmt.Errorf("scroll: %w", core.ErrNoNode))
	assert.Equal(t, "no_node", resp.Code)
	assert.Equal(t, "scroll: no node found", resp.Error)

	resp = Fail(errors.New("plain"))
	assert.Empty(t, resp.Code)
}

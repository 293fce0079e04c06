package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/abacus/internal/logger"
	"github.com/ternarybob/abacus/pkg/keypad"
	"github.com/ternarybob/abacus/pkg/session"
)

func newTestServer(t *testing.T) (*Server, *session.Store) {
	t.Helper()
	store, err := session.NewStore("", 0)
	require.NoError(t, err)
	return NewServer(store, logger.Discard(), "test"), store
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func resultState(t *testing.T, result *mcp.CallToolResult) StateResult {
	t.Helper()
	require.False(t, result.IsError, resultText(t, result))
	var st StateResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &st))
	return st
}

func TestEvaluate(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		keys string
		want string
	}{
		{"0.1+0.2=", "0.3"},
		{"2/3=", "0.666666666666666"},
		{"5÷0=", "0"},
		{"2+3×4=", "20"},
		{"12+", "12"},
	}

	for _, tt := range tests {
		t.Run(tt.keys, func(t *testing.T) {
			result, err := s.handleEvaluate(ctx, call(map[string]any{"keys": tt.keys}))
			require.NoError(t, err)
			assert.False(t, result.IsError)
			assert.Equal(t, tt.want, resultText(t, result))
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	result, err := s.handleEvaluate(ctx, call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = s.handleEvaluate(ctx, call(map[string]any{"keys": "2^2"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "unknown key")

	result, err = s.handleEvaluate(ctx, call(map[string]any{"keys": strings.Repeat("9", keypad.MaxSequenceBytes+1)}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "too long")
}

func TestSessionTools_SaveFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sessions")
	store, err := session.NewStore(dir, 0)
	require.NoError(t, err)
	s := NewServer(store, logger.Discard(), "test")
	ctx := context.Background()

	created, err := s.handleSessionCreate(ctx, call(nil))
	require.NoError(t, err)
	id := resultState(t, created).ID

	// A plain file where the directory was makes every save fail
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, []byte("x"), 0o600))

	result, err := s.handleSessionPress(ctx, call(map[string]any{"id": id, "keys": "4"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "save session failed")

	result, err = s.handleSessionClear(ctx, call(map[string]any{"id": id}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestSessionTools(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()

	result, err := s.handleSessionCreate(ctx, call(nil))
	require.NoError(t, err)
	created := resultState(t, result)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "0", created.Display)
	assert.Equal(t, 1, store.Len())

	id := created.ID

	result, err = s.handleSessionPress(ctx, call(map[string]any{"id": id, "keys": "1.5×4"}))
	require.NoError(t, err)
	st := resultState(t, result)
	assert.Equal(t, "4", st.Display)
	assert.Equal(t, "multiply", st.Pending)

	result, err = s.handleSessionPress(ctx, call(map[string]any{"id": id, "keys": "="}))
	require.NoError(t, err)
	assert.Equal(t, "6", resultState(t, result).Display)

	result, err = s.handleSessionState(ctx, call(map[string]any{"id": id}))
	require.NoError(t, err)
	st = resultState(t, result)
	assert.Equal(t, "6", st.Accumulator)
	assert.True(t, st.JustCommitted)

	result, err = s.handleSessionClear(ctx, call(map[string]any{"id": id}))
	require.NoError(t, err)
	st = resultState(t, result)
	assert.Equal(t, "0", st.Display)
	assert.Equal(t, "none", st.Pending)

	result, err = s.handleSessionDelete(ctx, call(map[string]any{"id": id}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, 0, store.Len())

	result, err = s.handleSessionState(ctx, call(map[string]any{"id": id}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestSessionTools_MissingArguments(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	result, err := s.handleSessionPress(ctx, call(map[string]any{"keys": "1"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = s.handleSessionDelete(ctx, call(map[string]any{"id": "missing"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "not found")
}

func TestKeypadTool(t *testing.T) {
	s, _ := newTestServer(t)

	result, err := s.handleKeypad(context.Background(), call(nil))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "[AC] [+/-] [%] [÷]")
	assert.Contains(t, text, "[0      ] [.] [=]")
}

func TestHTTPHandler(t *testing.T) {
	s, _ := newTestServer(t)
	assert.NotNil(t, s.HTTPHandler())
}

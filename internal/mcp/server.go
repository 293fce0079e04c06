// Package mcp exposes the calculator as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/abacus/pkg/calc"
	"github.com/ternarybob/abacus/pkg/keypad"
	"github.com/ternarybob/abacus/pkg/session"
)

// Server wraps the session store to provide MCP tool access.
type Server struct {
	store  *session.Store
	logger arbor.ILogger
	server *server.MCPServer
}

// StateResult is the JSON body returned by the stateful tools.
type StateResult struct {
	ID            string `json:"id,omitempty"`
	Display       string `json:"display"`
	Accumulator   string `json:"accumulator"`
	Operand       string `json:"operand"`
	Pending       string `json:"pending"`
	JustCommitted bool   `json:"just_committed"`
}

// NewServer creates an MCP server backed by the given store.
func NewServer(store *session.Store, logger arbor.ILogger, version string) *Server {
	s := &Server{
		store:  store,
		logger: logger,
	}

	mcpServer := server.NewMCPServer(
		"abacus",
		version,
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)

	s.server = mcpServer
	return s
}

// registerTools registers all MCP tools with the server.
func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("evaluate",
			mcp.WithDescription("Press a sequence of calculator keys on a fresh calculator and return the display."),
			mcp.WithString("keys",
				mcp.Required(),
				mcp.Description("Key sequence (e.g., '12+3=', '0.1 + 0.2 =', '5 neg × 2 =')"),
			),
		),
		s.handleEvaluate,
	)

	mcpServer.AddTool(
		mcp.NewTool("session_create",
			mcp.WithDescription("Create a calculator session that keeps its state between calls."),
		),
		s.handleSessionCreate,
	)

	mcpServer.AddTool(
		mcp.NewTool("session_press",
			mcp.WithDescription("Press keys on an existing calculator session."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Session id returned by session_create"),
			),
			mcp.WithString("keys",
				mcp.Required(),
				mcp.Description("Key sequence to press"),
			),
		),
		s.handleSessionPress,
	)

	mcpServer.AddTool(
		mcp.NewTool("session_state",
			mcp.WithDescription("Get the current state of a calculator session."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Session id"),
			),
		),
		s.handleSessionState,
	)

	mcpServer.AddTool(
		mcp.NewTool("session_clear",
			mcp.WithDescription("Reset a calculator session to zero (AC)."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Session id"),
			),
		),
		s.handleSessionClear,
	)

	mcpServer.AddTool(
		mcp.NewTool("session_delete",
			mcp.WithDescription("Delete a calculator session."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Session id"),
			),
		),
		s.handleSessionDelete,
	)

	mcpServer.AddTool(
		mcp.NewTool("keypad",
			mcp.WithDescription("Show the calculator keypad layout and accepted key labels."),
		),
		s.handleKeypad,
	)
}

func (s *Server) handleEvaluate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keys := request.GetString("keys", "")
	if keys == "" {
		return mcp.NewToolResultError("keys parameter is required"), nil
	}

	inputs, err := keypad.ParseSequence(keys)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(calc.Display(calc.Apply(calc.Initial(), inputs...))), nil
}

func (s *Server) handleSessionCreate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.store.Create()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("create session failed: %v", err)), nil
	}

	s.logger.Info().Str("session_id", sess.ID()).Msg("MCP session created")
	return stateResult(sess.ID(), sess.State())
}

func (s *Server) handleSessionPress(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, failed := s.lookup(request)
	if failed != nil {
		return failed, nil
	}

	keys := request.GetString("keys", "")
	if keys == "" {
		return mcp.NewToolResultError("keys parameter is required"), nil
	}

	inputs, err := keypad.ParseSequence(keys)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	state, err := sess.Press(inputs...)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sess.ID()).Msg("Failed to save session")
		return mcp.NewToolResultError(fmt.Sprintf("save session failed: %v", err)), nil
	}
	return stateResult(sess.ID(), state)
}

func (s *Server) handleSessionState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, failed := s.lookup(request)
	if failed != nil {
		return failed, nil
	}
	return stateResult(sess.ID(), sess.State())
}

func (s *Server) handleSessionClear(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, failed := s.lookup(request)
	if failed != nil {
		return failed, nil
	}
	state, err := sess.Reset()
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sess.ID()).Msg("Failed to save session")
		return mcp.NewToolResultError(fmt.Sprintf("save session failed: %v", err)), nil
	}
	return stateResult(sess.ID(), state)
}

func (s *Server) handleSessionDelete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	if err := s.store.Delete(id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("session %q not found", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("delete session failed: %v", err)), nil
	}

	s.logger.Info().Str("session_id", id).Msg("MCP session deleted")
	return mcp.NewToolResultText(fmt.Sprintf("Session %s deleted.", id)), nil
}

func (s *Server) handleKeypad(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(keypad.Text(keypad.Layout()) + "\nAliases: * x (multiply), / (divide), neg (+/-), c clear (AC)\n"), nil
}

// lookup resolves the id argument. A non-nil result is the error to return.
func (s *Server) lookup(request mcp.CallToolRequest) (session.Session, *mcp.CallToolResult) {
	id := request.GetString("id", "")
	if id == "" {
		return nil, mcp.NewToolResultError("id parameter is required")
	}

	sess, err := s.store.Get(id)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("session %q not found", id))
	}
	return sess, nil
}

func stateResult(id string, st calc.State) (*mcp.CallToolResult, error) {
	result := StateResult{
		ID:            id,
		Display:       calc.Display(st),
		Accumulator:   st.Accumulator,
		Operand:       st.Operand,
		Pending:       st.Pending.String(),
		JustCommitted: st.JustCommitted,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal state failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// ServeStdio starts the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.server)
}

// HTTPHandler returns a streamable HTTP transport for mounting at /mcp.
func (s *Server) HTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.server)
}

package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/saveslot/internal/config"
	"github.com/hpungsan/saveslot/internal/errors"
	"github.com/hpungsan/saveslot/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{db: db, cfg: cfg}
}

// SessionListRequest represents the arguments for session_list.
type SessionListRequest struct {
	Profile string `json:"profile,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

// ProfileVerifyRequest represents the arguments for profile_verify.
type ProfileVerifyRequest struct {
	Profile string `json:"profile"`
}

// HandleProfileList handles the profile_list tool call.
func (h *Handlers) HandleProfileList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.ListProfiles(h.db, h.cfg)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleProfileVerify handles the profile_verify tool call.
func (h *Handlers) HandleProfileVerify(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ProfileVerifyRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Verify(h.cfg, ops.VerifyInput{Profile: input.Profile})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSessionList handles the session_list tool call.
func (h *Handlers) HandleSessionList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.History(h.db, ops.HistoryInput{
		Profile: input.Profile,
		Limit:   input.Limit,
		Offset:  input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCrashList handles the crash_list tool call.
func (h *Handlers) HandleCrashList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Crashes(h.cfg)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// INTERNAL errors carry no details so SQL errors and the like are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if slotErr, ok := errors.As(err); ok {
		message := slotErr.Message
		if err != error(slotErr) {
			// Keep the context added by wrapping
			message = err.Error()
		}
		errorObj := map[string]any{
			"code":    slotErr.Code,
			"message": message,
		}
		if slotErr.Code != errors.ErrInternal && slotErr.Details != nil {
			errorObj["details"] = slotErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}

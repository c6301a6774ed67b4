package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/saveslot/internal/config"
	"github.com/hpungsan/saveslot/internal/db"
	"github.com/hpungsan/saveslot/internal/errors"
)

// testSetup creates a temporary database, profile root and config for testing.
func testSetup(t *testing.T) (*sql.DB, *config.Config, func()) {
	t.Helper()

	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.ProfileRoot = t.TempDir()

	cleanup := func() {
		database.Close()
	}

	return database, cfg, cleanup
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func mkfile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestHandleProfileList(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()
	h := NewHandlers(database, cfg)

	// Missing saved-profiles root is an empty list, not an error
	output := parseOutput(t, mustCall(t, h.HandleProfileList, nil))
	if items := output["items"].([]any); len(items) != 0 {
		t.Errorf("items = %v, want empty", items)
	}

	for _, name := range []string{"Honour", "Default"} {
		if err := os.MkdirAll(cfg.ProfilePath(name), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	honour := "Honour"
	if err := db.InsertSession(database, &db.Session{ID: "01A", Profile: &honour, Strategy: "direct", Status: "normal", StartedAt: 1}); err != nil {
		t.Fatalf("InsertSession: %v", err)
	}

	output = parseOutput(t, mustCall(t, h.HandleProfileList, nil))
	items := output["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if first := items[0].(map[string]any); first["name"] != "Default" {
		t.Errorf("items[0].name = %v, want Default", first["name"])
	}
	if output["last_used"] != "Honour" {
		t.Errorf("last_used = %v, want Honour", output["last_used"])
	}
}

func TestHandleProfileVerify(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()
	h := NewHandlers(database, cfg)

	mkfile(t, filepath.Join(cfg.ProfilePath("Default"), "a.lsv"), "A")
	mkfile(t, filepath.Join(cfg.ActiveSlotPath(), "a.lsv"), "changed")

	tests := []struct {
		name      string
		args      map[string]any
		wantError string
	}{
		{name: "differs", args: map[string]any{"profile": "Default"}},
		{name: "unknown profile", args: map[string]any{"profile": "Ghost"}, wantError: "NOT_FOUND"},
		{name: "reserved name", args: map[string]any{"profile": "NoProfile"}, wantError: "INVALID_SELECTION"},
		{name: "missing profile arg", args: map[string]any{}, wantError: "INVALID_SELECTION"},
		{name: "wrong type", args: map[string]any{"profile": 42}, wantError: "INVALID_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := mustCall(t, h.HandleProfileVerify, tt.args)
			if tt.wantError != "" {
				if !result.IsError {
					t.Fatalf("expected error %s, got success", tt.wantError)
				}
				assertErrorCode(t, result, tt.wantError)
				return
			}
			output := parseOutput(t, result)
			if output["equal"] != false {
				t.Errorf("equal = %v, want false", output["equal"])
			}
			diffs := output["differences"].([]any)
			if len(diffs) != 1 {
				t.Fatalf("differences = %v, want one", diffs)
			}
			if d := diffs[0].(map[string]any); d["path"] != "a.lsv" || d["kind"] != "modified" {
				t.Errorf("difference = %v", d)
			}
		})
	}
}

func TestHandleSessionList(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()
	h := NewHandlers(database, cfg)

	for i, name := range []string{"Default", "Honour", "Default"} {
		name := name
		if err := db.InsertSession(database, &db.Session{
			ID:        fmt.Sprintf("01S%d", i),
			Profile:   &name,
			Strategy:  "direct",
			Status:    "normal",
			StartedAt: int64(i + 1),
		}); err != nil {
			t.Fatalf("InsertSession: %v", err)
		}
	}

	output := parseOutput(t, mustCall(t, h.HandleSessionList, map[string]any{"profile": "Default"}))
	items := output["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if first := items[0].(map[string]any); first["id"] != "01S2" {
		t.Errorf("items[0].id = %v, want newest first", first["id"])
	}

	output = parseOutput(t, mustCall(t, h.HandleSessionList, map[string]any{"limit": 1}))
	pagination := output["pagination"].(map[string]any)
	if pagination["has_more"] != true || pagination["total"] != float64(3) {
		t.Errorf("pagination = %v", pagination)
	}

	result := mustCall(t, h.HandleSessionList, map[string]any{"limit": "ten"})
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleCrashList(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()
	h := NewHandlers(database, cfg)

	if err := os.MkdirAll(filepath.Join(cfg.CrashPath(), "crash_20250101_120000"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	output := parseOutput(t, mustCall(t, h.HandleCrashList, nil))
	items := output["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	if output["crash_root"] != cfg.CrashPath() {
		t.Errorf("crash_root = %v", output["crash_root"])
	}
}

func TestServerRegistration(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	s := NewServer(database, cfg, "test")
	tools := s.ListTools()

	expectedTools := []string{"profile_list", "profile_verify", "session_list", "crash_list"}
	if len(tools) != len(expectedTools) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expectedTools))
	}
	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	cfg.DisabledTools = []string{"profile_verify", "profile_verify"}
	tools := NewServer(database, cfg, "test").ListTools()

	if len(tools) != 3 {
		t.Errorf("registered tool count = %d, want 3", len(tools))
	}
	if _, ok := tools["profile_verify"]; ok {
		t.Error("disabled tool 'profile_verify' should not be registered")
	}
}

func TestServerRegistration_WithDisabledTypes(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	cfg.DisabledTypes = []string{"profile"}
	cfg.DisabledTools = []string{"crash_list"}
	tools := NewServer(database, cfg, "test").ListTools()

	if len(tools) != 1 {
		t.Errorf("registered tool count = %d, want 1", len(tools))
	}
	if _, ok := tools["session_list"]; !ok {
		t.Error("session_list should stay registered")
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	cfg.DisabledTools = AllToolNames()
	tools := NewServer(database, cfg, "test").ListTools()

	if len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0 (all disabled)", len(tools))
	}
}

func TestValidateDisabledTools(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantLen int
	}{
		{"all valid", []string{"profile_list", "crash_list"}, 0},
		{"one unknown", []string{"profile_list", "save_delete"}, 1},
		{"all unknown", []string{"foo", "bar"}, 2},
		{"empty list", []string{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if unknown := ValidateDisabledTools(tt.input); len(unknown) != tt.wantLen {
				t.Errorf("ValidateDisabledTools() returned %d unknown, want %d", len(unknown), tt.wantLen)
			}
		})
	}
}

func TestValidateDisabledTypes(t *testing.T) {
	unknown := ValidateDisabledTypes([]string{"profile", "mod", "crash"})
	if len(unknown) != 1 || unknown[0] != "mod" {
		t.Errorf("ValidateDisabledTypes() = %v, want [mod]", unknown)
	}
}

func TestExpandTypesToTools(t *testing.T) {
	tools := ExpandTypesToTools([]string{"profile"})
	sort.Strings(tools)
	if strings.Join(tools, ",") != "profile_list,profile_verify" {
		t.Errorf("ExpandTypesToTools(profile) = %v", tools)
	}
	if ExpandTypesToTools(nil) != nil {
		t.Error("ExpandTypesToTools(nil) should be nil")
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != 4 {
		t.Errorf("AllToolNames() returned %d names, want 4", len(names))
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("AllToolNames() = %v, want sorted", names)
	}
	if unknown := ValidateDisabledTools(names); len(unknown) != 0 {
		t.Errorf("AllToolNames() returned invalid names: %v", unknown)
	}
	for _, name := range names {
		typ := GetTypeForTool(name)
		if len(ValidateDisabledTypes([]string{typ})) != 0 {
			t.Errorf("tool %s has unknown type %q", name, typ)
		}
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	err := errors.NewInternal(fmt.Errorf("sql error: open /tmp/secret.db: permission denied"))
	err.Details = map[string]any{"path": "/tmp/secret.db"}

	errObj := errorObject(t, errorResult(err))
	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if _, ok := errObj["details"]; ok {
		t.Fatal("expected INTERNAL errors to omit details")
	}
}

func TestErrorResult_WrappedErrorPreservesContext(t *testing.T) {
	wrapped := fmt.Errorf("save-back: %w", errors.NewIO("replace", os.ErrPermission, "/a", "/b"))

	errObj := errorObject(t, errorResult(wrapped))
	if errObj["code"] != string(errors.ErrIO) {
		t.Errorf("code=%v, want %v", errObj["code"], errors.ErrIO)
	}
	if msg := errObj["message"].(string); !strings.Contains(msg, "save-back") {
		t.Errorf("message should contain wrapper context, got: %s", msg)
	}
}

func TestErrorResult_PlainError(t *testing.T) {
	errObj := errorObject(t, errorResult(fmt.Errorf("boom")))
	if errObj["code"] != string(errors.ErrInternal) || errObj["message"] != "an internal error occurred" {
		t.Errorf("error object = %v", errObj)
	}
}

// Helper functions

type handlerFunc func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func mustCall(t *testing.T, h handlerFunc, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := h(context.Background(), makeRequest(args))
	if err != nil {
		t.Fatalf("handler returned transport error: %v", err)
	}
	return result
}

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

func errorObject(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if !result.IsError {
		t.Fatal("expected IsError=true")
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	return payload["error"].(map[string]any)
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()
	if code, _ := errorObject(t, result)["code"].(string); code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}
	return text.Text
}

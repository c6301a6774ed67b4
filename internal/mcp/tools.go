package mcp

import "github.com/mark3labs/mcp-go/mcp"

var profileListToolDef = mcp.NewTool("profile_list",
	mcp.WithDescription("List saved save-game profiles, sorted by name. The profile used by the most recent session is marked last_used."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var profileVerifyToolDef = mcp.NewTool("profile_verify",
	mcp.WithDescription("Compare a saved profile with the current active slot and report differing paths."),
	mcp.WithString("profile",
		mcp.Required(),
		mcp.Description("Profile name"),
	),
	mcp.WithReadOnlyHintAnnotation(true),
)

var sessionListToolDef = mcp.NewTool("session_list",
	mcp.WithDescription("List journaled game sessions, newest first."),
	mcp.WithString("profile",
		mcp.Description("Only sessions that ran this profile"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum items to return (default 20, max 100)"),
	),
	mcp.WithNumber("offset",
		mcp.Description("Items to skip"),
	),
	mcp.WithReadOnlyHintAnnotation(true),
)

var crashListToolDef = mcp.NewTool("crash_list",
	mcp.WithDescription("List crash archive entries, oldest first. One entry is written per abnormal game exit."),
	mcp.WithReadOnlyHintAnnotation(true),
)

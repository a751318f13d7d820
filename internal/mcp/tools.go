package mcp

import "github.com/mark3labs/mcp-go/mcp"

// discoverToolsTool defines the discover_tools MCP meta-tool.
var discoverToolsTool = mcp.NewTool("discover_tools",
	mcp.WithDescription("List the knowledge-store tools available through execute_tool. Returns name, category and description for each."),
	mcp.WithString("category",
		mcp.Description("Only return tools in this category"),
		mcp.Enum("crud", "search", "analytics"),
	),
	mcp.WithString("pattern",
		mcp.Description("Case-insensitive substring match on tool name or description"),
	),
)

// getToolSpecTool defines the get_tool_spec MCP meta-tool.
var getToolSpecTool = mcp.NewTool("get_tool_spec",
	mcp.WithDescription("Get the full specification of one tool: parameter schema, result schema and usage examples."),
	mcp.WithString("tool_name",
		mcp.Required(),
		mcp.Description("Name of the tool, as returned by discover_tools"),
	),
)

// executeToolTool defines the execute_tool MCP meta-tool.
var executeToolTool = mcp.NewTool("execute_tool",
	mcp.WithDescription("Execute a knowledge-store tool by name. Parameters are validated against the tool's schema before anything runs."),
	mcp.WithString("tool_name",
		mcp.Required(),
		mcp.Description("Name of the tool to execute"),
	),
	mcp.WithObject("parameters",
		mcp.Description("Tool parameters, matching the tool's parameter schema"),
	),
)

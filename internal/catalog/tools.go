package catalog

// toolDef is the raw, source-form definition of one tool. Parameter and
// result schemas are JSON Schema documents; parameter schemas are compiled at
// startup and enforced before any handler runs.
type toolDef struct {
	name        string
	category    string
	description string
	parameters  string
	result      string
	examples    string
}

const (
	categoryCRUD      = "crud"
	categorySearch    = "search"
	categoryAnalytics = "analytics"
)

var toolDefs = []toolDef{
	{
		name:        "add_entry",
		category:    categoryCRUD,
		description: "Add a new knowledge entry to the store (dedup-guarded by default)",
		parameters: `{
			"type": "object",
			"properties": {
				"problem_pattern": {"type": "string", "minLength": 1, "description": "What problem this solves"},
				"solution": {"type": "string", "minLength": 1, "description": "The solution/pattern"},
				"code_example": {"type": "string", "description": "Optional code snippet"},
				"tags": {"type": "array", "items": {"type": "string"}, "description": "Classification tags"},
				"pattern_type": {
					"type": "string",
					"enum": ["bugfix", "best_practice", "optimization", "setup", "architecture"],
					"default": "bugfix"
				},
				"quality_score": {"type": "number", "minimum": 0, "maximum": 1, "default": 0.5},
				"source_session": {"type": "string", "description": "Source session ID"},
				"source_type": {"type": "string", "enum": ["session", "direct", "seeded"], "default": "session"},
				"dedup_check": {"type": "boolean", "default": true, "description": "Refuse creation when a near-duplicate exists"},
				"dedup_threshold": {"type": "number", "minimum": 0, "maximum": 1, "default": 0.92},
				"dedup_top_k": {"type": "integer", "minimum": 1, "default": 5}
			},
			"required": ["problem_pattern", "solution"],
			"additionalProperties": false
		}`,
		result: `{
			"type": "object",
			"properties": {
				"created": {"type": "boolean"},
				"entry_id": {"type": "string"},
				"entry": {"type": "object"},
				"duplicate_of": {"type": "string", "description": "Existing entry id when the dedup guard fired"},
				"similarity_score": {"type": "number"}
			},
			"required": ["created"]
		}`,
		examples: `[
			{
				"problem_pattern": "pytest fixtures not found in conftest.py",
				"solution": "Ensure conftest.py is in the test root directory",
				"tags": ["pytest", "fixtures"],
				"pattern_type": "bugfix"
			}
		]`,
	},
	{
		name:        "get_entry",
		category:    categoryCRUD,
		description: "Retrieve a knowledge entry by ID",
		parameters: `{
			"type": "object",
			"properties": {
				"entry_id": {"type": "string", "minLength": 1, "description": "Entry UUID"}
			},
			"required": ["entry_id"],
			"additionalProperties": false
		}`,
		result: `{
			"type": "object",
			"properties": {"entry": {"type": "object"}},
			"required": ["entry"]
		}`,
		examples: `[{"entry_id": "550e8400-e29b-41d4-a716-446655440000"}]`,
	},
	{
		name:        "update_entry",
		category:    categoryCRUD,
		description: "Update mutable fields of an existing entry (partial, all-or-nothing)",
		parameters: `{
			"type": "object",
			"properties": {
				"entry_id": {"type": "string", "minLength": 1, "description": "Entry UUID"},
				"updates": {
					"type": "object",
					"minProperties": 1,
					"description": "Mutable fields to change (tags, pattern_type, quality_score, counters, status, superseded_by, last_applied_at)"
				}
			},
			"required": ["entry_id", "updates"],
			"additionalProperties": false
		}`,
		result: `{
			"type": "object",
			"properties": {"entry": {"type": "object"}},
			"required": ["entry"]
		}`,
		examples: `[
			{
				"entry_id": "550e8400-e29b-41d4-a716-446655440000",
				"updates": {"quality_score": 0.9, "status": "canonical"}
			}
		]`,
	},
	{
		name:        "delete_entry",
		category:    categoryCRUD,
		description: "Delete an entry by ID (prefer archiving via update_entry)",
		parameters: `{
			"type": "object",
			"properties": {
				"entry_id": {"type": "string", "minLength": 1, "description": "Entry UUID"}
			},
			"required": ["entry_id"],
			"additionalProperties": false
		}`,
		result: `{
			"type": "object",
			"properties": {
				"deleted": {"type": "boolean"},
				"entry_id": {"type": "string"}
			},
			"required": ["deleted"]
		}`,
		examples: `[{"entry_id": "550e8400-e29b-41d4-a716-446655440000"}]`,
	},
	{
		name:        "search",
		category:    categorySearch,
		description: "Semantic search for knowledge entries with optional metadata filters",
		parameters: `{
			"type": "object",
			"properties": {
				"query": {"type": "string", "minLength": 1, "description": "Search query text"},
				"limit": {"type": "integer", "minimum": 1, "default": 10},
				"min_similarity": {"type": "number", "minimum": 0, "maximum": 1, "default": 0},
				"filters": {
					"type": "object",
					"properties": {
						"status": {"type": "string", "enum": ["active", "canonical", "archived", "superseded"]},
						"pattern_type": {"type": "string", "enum": ["bugfix", "best_practice", "optimization", "setup", "architecture"]},
						"source_type": {"type": "string", "enum": ["session", "direct", "seeded"]},
						"tags": {"type": "array", "items": {"type": "string"}}
					},
					"additionalProperties": false
				}
			},
			"required": ["query"],
			"additionalProperties": false
		}`,
		result: `{
			"type": "object",
			"properties": {
				"results": {"type": "array"},
				"count": {"type": "integer"}
			},
			"required": ["results", "count"]
		}`,
		examples: `[
			{"query": "pytest async fixture", "limit": 5, "filters": {"status": "active"}}
		]`,
	},
	{
		name:        "find_similar",
		category:    categorySearch,
		description: "Find entries similar to a problem description (deduplication lookup)",
		parameters: `{
			"type": "object",
			"properties": {
				"text": {"type": "string", "minLength": 1, "description": "Problem description to match against stored entries"},
				"top_k": {"type": "integer", "minimum": 1, "default": 10},
				"min_similarity": {"type": "number", "minimum": 0, "maximum": 1, "default": 0.85}
			},
			"required": ["text"],
			"additionalProperties": false
		}`,
		result: `{
			"type": "object",
			"properties": {
				"results": {"type": "array"},
				"count": {"type": "integer"}
			},
			"required": ["results", "count"]
		}`,
		examples: `[
			{"text": "pytest fixtures not discovered when conftest lives in a subdirectory", "min_similarity": 0.9}
		]`,
	},
	{
		name:        "list_entries",
		category:    categorySearch,
		description: "List entries with optional filtering and cursor pagination",
		parameters: `{
			"type": "object",
			"properties": {
				"filters": {
					"type": "object",
					"properties": {
						"status": {"type": "string", "enum": ["active", "canonical", "archived", "superseded"]},
						"pattern_type": {"type": "string", "enum": ["bugfix", "best_practice", "optimization", "setup", "architecture"]},
						"source_type": {"type": "string", "enum": ["session", "direct", "seeded"]},
						"tags": {"type": "array", "items": {"type": "string"}}
					},
					"additionalProperties": false
				},
				"page_size": {"type": "integer", "minimum": 1, "default": 100},
				"cursor": {"type": "string", "description": "Opaque cursor from a previous page"}
			},
			"additionalProperties": false
		}`,
		result: `{
			"type": "object",
			"properties": {
				"entries": {"type": "array"},
				"count": {"type": "integer"},
				"next_cursor": {"type": "string"}
			},
			"required": ["entries", "count"]
		}`,
		examples: `[{"filters": {"status": "canonical"}, "page_size": 50}]`,
	},
	{
		name:        "get_stats",
		category:    categoryAnalytics,
		description: "Get collection statistics",
		parameters: `{
			"type": "object",
			"properties": {},
			"additionalProperties": false
		}`,
		result: `{
			"type": "object",
			"properties": {
				"total_entries": {"type": "integer"},
				"entries_by_status": {"type": "object"},
				"entries_by_type": {"type": "object"},
				"avg_quality_score": {"type": "number"},
				"top_tags": {"type": "array"}
			},
			"required": ["total_entries"]
		}`,
		examples: `[{}]`,
	},
}

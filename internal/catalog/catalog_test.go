package catalog

import (
	"errors"
	"testing"

	"github.com/ziadkadry99/knowstore/internal/knowledge"
)

func mustCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewRegistersAllTools(t *testing.T) {
	c := mustCatalog(t)

	want := []string{
		"add_entry", "get_entry", "update_entry", "delete_entry",
		"search", "find_similar", "list_entries", "get_stats",
	}
	if c.Len() != len(want) {
		t.Fatalf("Len = %d, want %d", c.Len(), len(want))
	}
	for _, name := range want {
		d, err := c.Lookup(name)
		if err != nil {
			t.Errorf("Lookup(%q): %v", name, err)
			continue
		}
		if d.ParameterSchema == nil || d.ResultSchema == nil {
			t.Errorf("%s: missing schema documents", name)
		}
		if d.Description == "" || d.Category == "" {
			t.Errorf("%s: missing description or category", name)
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	c := mustCatalog(t)
	_, err := c.Lookup("drop_table")
	if knowledge.KindOf(err) != knowledge.KindNotFound {
		t.Errorf("kind = %s, want not_found", knowledge.KindOf(err))
	}
}

func TestList(t *testing.T) {
	c := mustCatalog(t)

	all := c.List("", "")
	if len(all) != c.Len() {
		t.Errorf("List all = %d tools, want %d", len(all), c.Len())
	}

	crud := c.List("crud", "")
	if len(crud) != 4 {
		t.Errorf("List(crud) = %d tools, want 4", len(crud))
	}
	for _, s := range crud {
		if s.Category != "crud" {
			t.Errorf("List(crud) returned %s in category %s", s.Name, s.Category)
		}
	}

	similar := c.List("", "SIMILAR")
	if len(similar) != 1 || similar[0].Name != "find_similar" {
		t.Errorf("List(pattern=SIMILAR) = %+v", similar)
	}

	if got := c.List("analytics", "similar"); len(got) != 0 {
		t.Errorf("conjunctive filters matched %+v", got)
	}
}

func TestListStableOrder(t *testing.T) {
	c := mustCatalog(t)
	first := c.List("", "")
	second := c.List("", "")
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("order changed between calls at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
	if first[0].Name != "add_entry" {
		t.Errorf("first tool = %s, want add_entry", first[0].Name)
	}
}

func TestValidateOK(t *testing.T) {
	c := mustCatalog(t)
	add, _ := c.Lookup("add_entry")

	params := map[string]any{
		"problem_pattern": "N+1 queries from lazy-loaded relations",
		"solution":        "Eager-load with joinedload on the hot path",
		"tags":            []any{"sqlalchemy", "performance"},
		"pattern_type":    "optimization",
		"quality_score":   0.8,
	}
	if err := add.Validate(params); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidateNilParams(t *testing.T) {
	c := mustCatalog(t)

	stats, _ := c.Lookup("get_stats")
	if err := stats.Validate(nil); err != nil {
		t.Errorf("get_stats with nil params: %v", err)
	}

	get, _ := c.Lookup("get_entry")
	err := get.Validate(nil)
	if knowledge.KindOf(err) != knowledge.KindSchemaValidation {
		t.Fatalf("kind = %s, want schema_validation", knowledge.KindOf(err))
	}
}

func TestValidateMissingRequired(t *testing.T) {
	c := mustCatalog(t)
	add, _ := c.Lookup("add_entry")

	err := add.Validate(map[string]any{"problem_pattern": "orphaned goroutines on shutdown"})
	var ke *knowledge.Error
	if !errors.As(err, &ke) {
		t.Fatalf("expected *knowledge.Error, got %v", err)
	}
	if ke.Kind != knowledge.KindSchemaValidation {
		t.Errorf("kind = %s, want schema_validation", ke.Kind)
	}
	if ke.Field != "solution" {
		t.Errorf("field = %q, want solution", ke.Field)
	}
}

func TestValidateBadValues(t *testing.T) {
	c := mustCatalog(t)

	tests := []struct {
		name   string
		tool   string
		params map[string]any
	}{
		{
			"quality score above one",
			"add_entry",
			map[string]any{"problem_pattern": "p", "solution": "s", "quality_score": 1.5},
		},
		{
			"bad pattern type",
			"add_entry",
			map[string]any{"problem_pattern": "p", "solution": "s", "pattern_type": "hotfix"},
		},
		{
			"unknown top-level field",
			"add_entry",
			map[string]any{"problem_pattern": "p", "solution": "s", "shard": 3},
		},
		{
			"empty query",
			"search",
			map[string]any{"query": ""},
		},
		{
			"zero limit",
			"search",
			map[string]any{"query": "q", "limit": 0},
		},
		{
			"bad filter status",
			"list_entries",
			map[string]any{"filters": map[string]any{"status": "pending"}},
		},
		{
			"empty updates",
			"update_entry",
			map[string]any{"entry_id": "abc", "updates": map[string]any{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := c.Lookup(tt.tool)
			if err != nil {
				t.Fatalf("Lookup: %v", err)
			}
			if got := knowledge.KindOf(d.Validate(tt.params)); got != knowledge.KindSchemaValidation {
				t.Errorf("kind = %s, want schema_validation", got)
			}
		})
	}
}

func TestValidateNestedFieldPath(t *testing.T) {
	c := mustCatalog(t)
	search, _ := c.Lookup("search")

	err := search.Validate(map[string]any{
		"query":   "timeouts",
		"filters": map[string]any{"status": "pending"},
	})
	var ke *knowledge.Error
	if !errors.As(err, &ke) {
		t.Fatalf("expected *knowledge.Error, got %v", err)
	}
	if ke.Field != "filters.status" {
		t.Errorf("field = %q, want filters.status", ke.Field)
	}
}

// Package catalog holds the tool registry: one descriptor per executable
// tool, with parameter schemas compiled once at startup and enforced before
// dispatch. The catalog is immutable after New.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"

	"github.com/ziadkadry99/knowstore/internal/knowledge"
)

// Descriptor is the full, caller-facing specification of one tool.
type Descriptor struct {
	Name            string           `json:"name"`
	Category        string           `json:"category"`
	Description     string           `json:"description"`
	ParameterSchema map[string]any   `json:"parameter_schema"`
	ResultSchema    map[string]any   `json:"result_schema"`
	Examples        []map[string]any `json:"examples,omitempty"`

	compiled *jsonschema.Schema
}

// Summary is the discovery-time view of a tool: enough to decide whether to
// fetch the full descriptor.
type Summary struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// Catalog is the set of registered tools, in definition order.
type Catalog struct {
	tools map[string]*Descriptor
	order []string
}

func schemaURL(name string) string {
	return fmt.Sprintf("mem://tools/%s.schema.json", name)
}

// New builds the catalog from the built-in tool definitions, compiling every
// parameter schema. A failure here is a programming error in a definition, not
// a runtime condition.
func New() (*Catalog, error) {
	compiler := jsonschema.NewCompiler()
	for _, def := range toolDefs {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(def.parameters))
		if err != nil {
			return nil, fmt.Errorf("decode parameter schema for %s: %w", def.name, err)
		}
		if err := compiler.AddResource(schemaURL(def.name), doc); err != nil {
			return nil, fmt.Errorf("register parameter schema for %s: %w", def.name, err)
		}
	}

	c := &Catalog{tools: make(map[string]*Descriptor, len(toolDefs))}
	for _, def := range toolDefs {
		compiled, err := compiler.Compile(schemaURL(def.name))
		if err != nil {
			return nil, fmt.Errorf("compile parameter schema for %s: %w", def.name, err)
		}

		var params, result map[string]any
		if err := json.Unmarshal([]byte(def.parameters), &params); err != nil {
			return nil, fmt.Errorf("parameter schema for %s: %w", def.name, err)
		}
		if err := json.Unmarshal([]byte(def.result), &result); err != nil {
			return nil, fmt.Errorf("result schema for %s: %w", def.name, err)
		}
		var examples []map[string]any
		if def.examples != "" {
			if err := json.Unmarshal([]byte(def.examples), &examples); err != nil {
				return nil, fmt.Errorf("examples for %s: %w", def.name, err)
			}
		}

		c.tools[def.name] = &Descriptor{
			Name:            def.name,
			Category:        def.category,
			Description:     def.description,
			ParameterSchema: params,
			ResultSchema:    result,
			Examples:        examples,
			compiled:        compiled,
		}
		c.order = append(c.order, def.name)
	}
	return c, nil
}

// Lookup returns the descriptor for name, or a not_found error.
func (c *Catalog) Lookup(name string) (*Descriptor, error) {
	d, ok := c.tools[name]
	if !ok {
		return nil, knowledge.Errorf(knowledge.KindNotFound, "", "unknown tool %q", name)
	}
	return d, nil
}

// List returns tool summaries, optionally narrowed by exact category and by a
// case-insensitive substring match on name or description. Empty arguments
// match everything.
func (c *Catalog) List(category, pattern string) []Summary {
	pattern = strings.ToLower(pattern)
	out := make([]Summary, 0, len(c.order))
	for _, name := range c.order {
		d := c.tools[name]
		if category != "" && d.Category != category {
			continue
		}
		if pattern != "" &&
			!strings.Contains(strings.ToLower(d.Name), pattern) &&
			!strings.Contains(strings.ToLower(d.Description), pattern) {
			continue
		}
		out = append(out, Summary{Name: d.Name, Category: d.Category, Description: d.Description})
	}
	return out
}

// Len reports the number of registered tools.
func (c *Catalog) Len() int { return len(c.order) }

// Validate checks params against the tool's compiled parameter schema. A nil
// map is treated as an empty object. Violations come back as
// schema_validation errors carrying the offending field path.
func (d *Descriptor) Validate(params map[string]any) error {
	instance := normalize(params)
	if err := d.compiled.Validate(instance); err != nil {
		return asSchemaError(err)
	}
	return nil
}

// normalize rebuilds params as a plain any-tree so values produced by Go code
// (not just json.Unmarshal) validate the same way. Numeric params arrive as
// float64 from JSON already; other concrete types pass through a JSON
// round-trip.
func normalize(params map[string]any) any {
	if params == nil {
		return map[string]any{}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return params
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return params
	}
	return instance
}

// asSchemaError converts a jsonschema validation failure into the store's
// typed error, pointing Field at the most specific failing location.
func asSchemaError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return knowledge.Errorf(knowledge.KindSchemaValidation, "", "%v", err)
	}

	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}

	field := strings.Join(leaf.InstanceLocation, ".")
	if req, ok := leaf.ErrorKind.(*kind.Required); ok && len(req.Missing) > 0 {
		if field == "" {
			field = req.Missing[0]
		} else {
			field = field + "." + req.Missing[0]
		}
	}
	return knowledge.Errorf(knowledge.KindSchemaValidation, field, "%v", leaf)
}

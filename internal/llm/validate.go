package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiled caches validators by schema name.
var compiled sync.Map // map[string]*jsonschema.Schema

// validateResponse checks raw against schema, returning a KindInvalidResponse
// error on any failure.
func validateResponse(schema *Schema, raw json.RawMessage) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return invalidResponse(raw, "invalid JSON: %w", err)
	}

	v, err := validatorFor(schema)
	if err != nil {
		return invalidResponse(raw, "compile schema %q: %w", schema.Name, err)
	}
	if err := v.Validate(doc); err != nil {
		return invalidResponse(raw, "schema validation failed: %w", err)
	}
	return nil
}

func validatorFor(schema *Schema) (*jsonschema.Schema, error) {
	if v, ok := compiled.Load(schema.Name); ok {
		return v.(*jsonschema.Schema), nil
	}

	// The compiler wants decoded JSON values, not Go maps of arbitrary types.
	b, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	def, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	url := "schema://" + schema.Name + ".json"
	if err := c.AddResource(url, def); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	v, err := c.Compile(url)
	if err != nil {
		return nil, err
	}
	compiled.Store(schema.Name, v)
	return v, nil
}

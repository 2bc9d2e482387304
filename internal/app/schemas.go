package app

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Tool is a callable operation as advertised by tools/list.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// loadSchema reads schemas/<name>.json and compiles it. The raw bytes are
// what tools/list serves, so advertised and enforced schemas cannot drift.
func loadSchema(name string) (json.RawMessage, *jsonschema.Schema, error) {
	path := "schemas/" + name + ".json"
	raw, err := schemaFS.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(path, bytes.NewReader(raw)); err != nil {
		return nil, nil, fmt.Errorf("add schema %s: %w", path, err)
	}
	schema, err := compiler.Compile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("compile schema %s: %w", path, err)
	}
	return json.RawMessage(raw), schema, nil
}

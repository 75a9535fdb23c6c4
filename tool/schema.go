package tool

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

var reflector = &jsonschema.Reflector{
	DoNotReference:            true,
	ExpandedStruct:            true,
	AllowAdditionalProperties: false,
}

// SchemaFor generates the JSON schema for T. Struct fields are required
// unless tagged omitempty; descriptions and enums come from jsonschema tags.
func SchemaFor[T any]() (json.RawMessage, error) {
	var v T
	s := reflector.Reflect(&v)
	s.Version = ""
	s.ID = ""
	return json.Marshal(s)
}

// MustSchemaFor is like SchemaFor but panics on error.
func MustSchemaFor[T any]() json.RawMessage {
	data, err := SchemaFor[T]()
	if err != nil {
		panic(err)
	}
	return data
}

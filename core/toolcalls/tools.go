package toolcalls

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

// Tool describes one tool a session announces to its transport.
type Tool struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}

// NewTool reflects a parameter schema from a Go struct (or pointer to
// one), the same way structured output schemas are built.
func NewTool(name, description string, parameters any) Tool {
	reflector := jsonschema.Reflector{DoNotReference: true}

	var schema *jsonschema.Schema
	if parameters != nil {
		if reflect.TypeOf(parameters).Kind() == reflect.Ptr {
			schema = reflector.ReflectFromType(reflect.TypeOf(parameters).Elem())
		} else {
			schema = reflector.Reflect(parameters)
		}
	}

	return Tool{Name: name, Description: description, Parameters: schema}
}

// Definitions emits the transport-shaped tool list for a session update.
func Definitions(tools []Tool) []map[string]any {
	definitions := make([]map[string]any, 0, len(tools))
	for _, tool := range tools {
		definition := map[string]any{
			"type": "function",
			"name": tool.Name,
		}
		if tool.Description != "" {
			definition["description"] = tool.Description
		}
		if tool.Parameters != nil {
			definition["parameters"] = tool.Parameters
		}
		definitions = append(definitions, definition)
	}
	return definitions
}

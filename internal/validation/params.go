// Package validation checks datasource parameters against the parameter
// list declared by a datasource definition, using JSON Schema.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	ErrSchemaInvalid    = errors.New("validation: params schema invalid")
	ErrParamsValidation = errors.New("validation: params validation failed")
)

// Issue captures a single validation failure.
type Issue struct {
	Location string `json:"location"`
	Message  string `json:"message"`
}

// ParamsError lists every issue found in a params payload.
type ParamsError struct {
	Issues []Issue
	Cause  error
}

func (e *ParamsError) Error() string {
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return ErrParamsValidation.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := strings.TrimSpace(issue.Location)
		if location == "" {
			location = "#"
		} else if !strings.HasPrefix(location, "#") {
			location = "#" + location
		}
		if issue.Message == "" {
			parts = append(parts, location)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
	}
	return strings.Join(parts, "; ")
}

func (e *ParamsError) Unwrap() error {
	return ErrParamsValidation
}

// Issues extracts validation issues from an error.
func Issues(err error) []Issue {
	if err == nil {
		return nil
	}
	var paramsErr *ParamsError
	if errors.As(err, &paramsErr) && paramsErr != nil {
		return paramsErr.Issues
	}
	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) && validationErr != nil {
		return collectIssues(validationErr)
	}
	return []Issue{{Message: err.Error()}}
}

// ParamsSchema converts a definition's params list, e.g.
// [{"key":"sku","type":"string","required":true}], into a JSON schema.
// Unknown params are allowed. A nil schema means nothing to check.
func ParamsSchema(params []any) map[string]any {
	if len(params) == 0 {
		return nil
	}
	properties := map[string]any{}
	required := []any{}
	for _, entry := range params {
		param, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		key, _ := param["key"].(string)
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		prop := map[string]any{}
		if paramType, ok := param["type"].(string); ok {
			if jsonType := normalizeJSONType(paramType); jsonType != "" {
				prop["type"] = jsonType
			}
		}
		if flag, ok := param["required"].(bool); ok && flag {
			required = append(required, key)
			if prop["type"] == "string" {
				prop["minLength"] = 1
			}
		}
		properties[key] = prop
	}
	if len(properties) == 0 {
		return nil
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// ValidateParams checks payload against the schema derived from params.
func ValidateParams(params []any, payload map[string]any) error {
	schema := ParamsSchema(params)
	if schema == nil {
		return nil
	}
	compiled, err := compileSchema(schema)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	document, err := toJSONDocument(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrParamsValidation, err)
	}
	if err := compiled.Validate(document); err != nil {
		return &ParamsError{Issues: Issues(err), Cause: err}
	}
	return nil
}

func normalizeJSONType(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "string", "number", "integer", "boolean", "object", "array", "null":
		return strings.ToLower(strings.TrimSpace(value))
	default:
		return ""
	}
}

func compileSchema(schema map[string]any) (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("params.json", bytes.NewReader(encoded)); err != nil {
		return nil, err
	}
	return compiler.Compile("params.json")
}

// toJSONDocument round-trips payload so numbers reach the validator as
// json.Number, the representation jsonschema expects.
func toJSONDocument(payload map[string]any) (any, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(encoded))
}

func collectIssues(err *jsonschema.ValidationError) []Issue {
	if err == nil {
		return nil
	}
	issues := []Issue{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, Issue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}

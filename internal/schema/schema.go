// Package schema describes the JSON shape a model response must have and
// validates raw responses against it.
//
// A [Schema] is deliberately small: objects, arrays and the JSON scalar
// types, with required-field lists. It is rich enough to express the
// structured-output constraint sent to providers (Gemini response
// schemas, Ollama "format", a textual hint for OpenAI/Anthropic) and to
// reject a response before any of it reaches the caller.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Type is a JSON value type.
type Type string

const (
	TypeObject  Type = "object"
	TypeArray   Type = "array"
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
)

// Schema describes one JSON value.
type Schema struct {
	Type        Type               `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
}

// ErrMismatch is returned by Validate when the data does not satisfy the schema.
var ErrMismatch = errors.New("schema: response does not match schema")

// Violation describes one place where data diverges from the schema.
type Violation struct {
	Path   string
	Reason string
}

func (v Violation) String() string {
	return v.Path + ": " + v.Reason
}

// MismatchError lists every violation found during validation.
type MismatchError struct {
	Violations []Violation
}

func (e *MismatchError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("%s (%s)", ErrMismatch, strings.Join(parts, "; "))
}

// Unwrap lets errors.Is match ErrMismatch.
func (e *MismatchError) Unwrap() error { return ErrMismatch }

// Object is a shorthand for an object schema where every listed property
// is required.
func Object(description string, props map[string]*Schema) *Schema {
	required := make([]string, 0, len(props))
	for name := range props {
		required = append(required, name)
	}
	sort.Strings(required)
	return &Schema{
		Type:        TypeObject,
		Description: description,
		Properties:  props,
		Required:    required,
	}
}

// ArrayOf returns an array schema with the given item schema.
func ArrayOf(description string, items *Schema) *Schema {
	return &Schema{Type: TypeArray, Description: description, Items: items}
}

// String returns a string schema.
func String(description string) *Schema {
	return &Schema{Type: TypeString, Description: description}
}

// Number returns a number schema.
func Number(description string) *Schema {
	return &Schema{Type: TypeNumber, Description: description}
}

// JSON returns the schema encoded as a JSON Schema document.
func (s *Schema) JSON() json.RawMessage {
	b, err := json.Marshal(s)
	if err != nil {
		// Schema only holds strings, maps and slices.
		panic(fmt.Sprintf("schema: marshal: %v", err))
	}
	return b
}

// Validate decodes data and checks it against s. Validation is
// all-or-nothing: any violation makes the whole document invalid.
func (s *Schema) Validate(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", ErrMismatch, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON value", ErrMismatch)
	}

	var violations []Violation
	s.check("$", v, &violations)
	if len(violations) > 0 {
		return &MismatchError{Violations: violations}
	}
	return nil
}

func (s *Schema) check(path string, v any, out *[]Violation) {
	if v == nil {
		*out = append(*out, Violation{Path: path, Reason: "is null"})
		return
	}

	switch s.Type {
	case TypeObject:
		obj, ok := v.(map[string]any)
		if !ok {
			*out = append(*out, Violation{Path: path, Reason: "expected object"})
			return
		}
		for _, name := range s.Required {
			if _, present := obj[name]; !present {
				*out = append(*out, Violation{Path: path + "." + name, Reason: "required field missing"})
			}
		}
		for name, prop := range s.Properties {
			if val, present := obj[name]; present {
				prop.check(path+"."+name, val, out)
			}
		}
	case TypeArray:
		arr, ok := v.([]any)
		if !ok {
			*out = append(*out, Violation{Path: path, Reason: "expected array"})
			return
		}
		if s.Items == nil {
			return
		}
		for i, item := range arr {
			s.Items.check(fmt.Sprintf("%s[%d]", path, i), item, out)
		}
	case TypeString:
		if _, ok := v.(string); !ok {
			*out = append(*out, Violation{Path: path, Reason: "expected string"})
		}
	case TypeNumber:
		if _, ok := v.(json.Number); !ok {
			*out = append(*out, Violation{Path: path, Reason: "expected number"})
		}
	case TypeInteger:
		n, ok := v.(json.Number)
		if !ok {
			*out = append(*out, Violation{Path: path, Reason: "expected integer"})
			return
		}
		if _, err := n.Int64(); err != nil {
			*out = append(*out, Violation{Path: path, Reason: "expected integer"})
		}
	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			*out = append(*out, Violation{Path: path, Reason: "expected boolean"})
		}
	}
}

// Describe renders the schema as an indented outline for providers that
// can only be told about the shape in the prompt text.
func (s *Schema) Describe() string {
	var sb strings.Builder
	s.describe(&sb, "", 0)
	return sb.String()
}

func (s *Schema) describe(sb *strings.Builder, name string, depth int) {
	indent := strings.Repeat("  ", depth)
	sb.WriteString(indent)
	if name != "" {
		sb.WriteString(name)
		sb.WriteString(": ")
	}
	sb.WriteString(string(s.Type))
	if s.Type == TypeArray && s.Items != nil && s.Items.Type != TypeObject {
		sb.WriteString(" of ")
		sb.WriteString(string(s.Items.Type))
	}
	if s.Description != "" {
		sb.WriteString(" - ")
		sb.WriteString(s.Description)
	}
	sb.WriteString("\n")

	switch {
	case s.Type == TypeObject:
		names := make([]string, 0, len(s.Properties))
		for n := range s.Properties {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			s.Properties[n].describe(sb, n, depth+1)
		}
	case s.Type == TypeArray && s.Items != nil && s.Items.Type == TypeObject:
		s.Items.describe(sb, "items", depth+1)
	}
}

package schema

import (
	"errors"
	"strings"
	"testing"
)

func testSchema() *Schema {
	return Object("", map[string]*Schema{
		"summary": String("overview"),
		"score":   Number("score"),
		"factors": ArrayOf("factors", String("")),
		"steps": ArrayOf("steps", Object("", map[string]*Schema{
			"step":   Number(""),
			"action": String(""),
		})),
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantErr   bool
		wantInErr string
	}{
		{
			name: "valid document",
			data: `{"summary":"ok","score":12.5,"factors":["a","b"],"steps":[{"step":1,"action":"read"}]}`,
		},
		{
			name: "extra fields are tolerated",
			data: `{"summary":"ok","score":1,"factors":[],"steps":[],"extra":true}`,
		},
		{
			name:      "missing required field",
			data:      `{"summary":"ok","factors":[],"steps":[]}`,
			wantErr:   true,
			wantInErr: "$.score",
		},
		{
			name:      "wrong scalar type",
			data:      `{"summary":"ok","score":"high","factors":[],"steps":[]}`,
			wantErr:   true,
			wantInErr: "expected number",
		},
		{
			name:      "nested item missing field",
			data:      `{"summary":"ok","score":1,"factors":[],"steps":[{"step":1}]}`,
			wantErr:   true,
			wantInErr: "$.steps[0].action",
		},
		{
			name:      "array item wrong type",
			data:      `{"summary":"ok","score":1,"factors":[1],"steps":[]}`,
			wantErr:   true,
			wantInErr: "$.factors[0]",
		},
		{
			name:      "null value",
			data:      `{"summary":null,"score":1,"factors":[],"steps":[]}`,
			wantErr:   true,
			wantInErr: "is null",
		},
		{
			name:      "not JSON",
			data:      `Here is your forecast`,
			wantErr:   true,
			wantInErr: "invalid JSON",
		},
		{
			name:      "trailing data",
			data:      `{"summary":"ok","score":1,"factors":[],"steps":[]} {}`,
			wantErr:   true,
			wantInErr: "trailing data",
		},
		{
			name:      "top level array",
			data:      `[]`,
			wantErr:   true,
			wantInErr: "expected object",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := testSchema().Validate([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if !errors.Is(err, ErrMismatch) {
				t.Errorf("error should match ErrMismatch, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantInErr) {
				t.Errorf("error should contain %q, got %v", tt.wantInErr, err)
			}
		})
	}
}

func TestValidateInteger(t *testing.T) {
	s := &Schema{Type: TypeInteger}
	if err := s.Validate([]byte(`3`)); err != nil {
		t.Errorf("Validate(3) error = %v", err)
	}
	if err := s.Validate([]byte(`3.5`)); err == nil {
		t.Error("Validate(3.5) should fail for integer schema")
	}
}

func TestObjectRequiresAllProperties(t *testing.T) {
	s := Object("", map[string]*Schema{"b": String(""), "a": String("")})
	if len(s.Required) != 2 || s.Required[0] != "a" || s.Required[1] != "b" {
		t.Errorf("Required = %v, want [a b]", s.Required)
	}
}

func TestJSON(t *testing.T) {
	raw := string(testSchema().JSON())
	for _, want := range []string{`"type":"object"`, `"required"`, `"items"`} {
		if !strings.Contains(raw, want) {
			t.Errorf("JSON() missing %s in %s", want, raw)
		}
	}
}

func TestDescribe(t *testing.T) {
	out := testSchema().Describe()
	for _, want := range []string{"summary: string - overview", "factors: array of string", "items: object", "action: string"} {
		if !strings.Contains(out, want) {
			t.Errorf("Describe() missing %q in:\n%s", want, out)
		}
	}
}

package schema

import "testing"

func TestCompileAndValidate_Success(t *testing.T) {
	v, err := Compile([]byte(`{
		"type": "object",
		"properties": {"count": {"type": "integer"}},
		"required": ["count"]
	}`))
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}

	if err := v.Validate(map[string]any{"count": 5}); err != nil {
		t.Fatalf("expected valid value, got: %v", err)
	}
}

func TestValidate_RejectsNonConforming(t *testing.T) {
	v, err := Compile([]byte(`{
		"type": "object",
		"properties": {"count": {"type": "integer"}},
		"required": ["count"]
	}`))
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}

	if err := v.Validate(map[string]any{"count": "not a number"}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestCompile_YAMLSource(t *testing.T) {
	v, err := Compile([]byte("type: object\nproperties:\n  label:\n    type: string\n"))
	if err != nil {
		t.Fatalf("unexpected compile error from YAML source: %v", err)
	}
	if err := v.Validate(map[string]any{"label": "ok"}); err != nil {
		t.Fatalf("expected valid value: %v", err)
	}
}

func TestCompile_InvalidSchemaErrors(t *testing.T) {
	// Malformed source text (unparsable as YAML/JSON) must fail to compile.
	_, err := Compile([]byte("{unterminated"))
	if err == nil {
		t.Fatalf("expected an error compiling malformed source text")
	}
}

package tools

import (
	"errors"
	"testing"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	err := reg.Register(&ToolContract{
		Name:        "deploy_service",
		Description: "Deploy a service",
		Params: []ParamSpec{
			{Name: "service", Type: TypeString, Required: true, Validate: NonEmpty},
			{Name: "replicas", Type: TypeInteger, Default: 1, Validate: MinInt(1)},
			{Name: "dry_run", Type: TypeBoolean, Default: false},
			{Name: "tags", Type: TypeStringList},
			{Name: "manifest", Type: TypeObject},
		},
	})
	if err != nil {
		t.Fatalf("Failed to register contract: %v", err)
	}
	return reg
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	reg := testRegistry(t)
	err := reg.Register(&ToolContract{Name: "deploy_service"})
	var dup *DuplicateToolError
	if !errors.As(err, &dup) {
		t.Fatalf("Expected DuplicateToolError, got %v", err)
	}
}

func TestRegisterRejectsRequiredWithDefault(t *testing.T) {
	reg := NewRegistry()
	err := reg.Register(&ToolContract{
		Name: "bad_tool",
		Params: []ParamSpec{
			{Name: "p", Type: TypeString, Required: true, Default: "x"},
		},
	})
	if err == nil {
		t.Fatal("Expected error for required parameter with a default")
	}
}

func TestValidateFillsDefaults(t *testing.T) {
	reg := testRegistry(t)
	out, err := reg.Validate("deploy_service", map[string]any{"service": "api"})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if out["replicas"] != 1 {
		t.Errorf("Expected default replicas 1, got %v", out["replicas"])
	}
	if out["dry_run"] != false {
		t.Errorf("Expected default dry_run false, got %v", out["dry_run"])
	}
	if _, present := out["tags"]; present {
		t.Error("Optional parameter without default should stay absent")
	}
}

func TestValidateMissingRequired(t *testing.T) {
	reg := testRegistry(t)
	_, err := reg.Validate("deploy_service", map[string]any{})
	var missing *MissingParameterError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected MissingParameterError, got %v", err)
	}
	if missing.Param != "service" {
		t.Errorf("Expected missing param %q, got %q", "service", missing.Param)
	}
}

func TestValidateRejectsUndeclaredParams(t *testing.T) {
	reg := testRegistry(t)
	_, err := reg.Validate("deploy_service", map[string]any{
		"service": "api",
		"replcas": 3, // typo
	})
	var unexpected *UnexpectedParameterError
	if !errors.As(err, &unexpected) {
		t.Fatalf("Expected UnexpectedParameterError, got %v", err)
	}
	if unexpected.Param != "replcas" {
		t.Errorf("Expected param %q, got %q", "replcas", unexpected.Param)
	}
}

func TestValidateUnknownTool(t *testing.T) {
	reg := testRegistry(t)
	_, err := reg.Validate("no_such_tool", nil)
	var unknown *UnknownToolError
	if !errors.As(err, &unknown) {
		t.Fatalf("Expected UnknownToolError, got %v", err)
	}
}

func TestCoercion(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		name    string
		args    map[string]any
		wantErr bool
		check   func(t *testing.T, out map[string]any)
	}{
		{
			name: "json number to int",
			args: map[string]any{"service": "api", "replicas": float64(3)},
			check: func(t *testing.T, out map[string]any) {
				if out["replicas"] != 3 {
					t.Errorf("Expected 3, got %v", out["replicas"])
				}
			},
		},
		{
			name: "numeric string to int",
			args: map[string]any{"service": "api", "replicas": "5"},
			check: func(t *testing.T, out map[string]any) {
				if out["replicas"] != 5 {
					t.Errorf("Expected 5, got %v", out["replicas"])
				}
			},
		},
		{
			name:    "fractional number rejected",
			args:    map[string]any{"service": "api", "replicas": 1.5},
			wantErr: true,
		},
		{
			name: "string bool accepted",
			args: map[string]any{"service": "api", "dry_run": "true"},
			check: func(t *testing.T, out map[string]any) {
				if out["dry_run"] != true {
					t.Errorf("Expected true, got %v", out["dry_run"])
				}
			},
		},
		{
			name:    "non-bool rejected",
			args:    map[string]any{"service": "api", "dry_run": "maybe"},
			wantErr: true,
		},
		{
			name: "json array to string list",
			args: map[string]any{"service": "api", "tags": []any{"a", "b"}},
			check: func(t *testing.T, out map[string]any) {
				tags, ok := out["tags"].([]string)
				if !ok || len(tags) != 2 || tags[0] != "a" {
					t.Errorf("Expected [a b], got %v", out["tags"])
				}
			},
		},
		{
			name:    "mixed list rejected",
			args:    map[string]any{"service": "api", "tags": []any{"a", 2}},
			wantErr: true,
		},
		{
			name: "object accepts map",
			args: map[string]any{"service": "api", "manifest": map[string]any{"k": "v"}},
		},
		{
			name: "object accepts array",
			args: map[string]any{"service": "api", "manifest": []any{map[string]any{"k": "v"}}},
		},
		{
			name:    "object rejects scalar",
			args:    map[string]any{"service": "api", "manifest": "not-structured"},
			wantErr: true,
		},
		{
			name:    "string param rejects number",
			args:    map[string]any{"service": 42},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := reg.Validate("deploy_service", tt.args)
			if tt.wantErr {
				var mismatch *TypeMismatchError
				if !errors.As(err, &mismatch) {
					t.Fatalf("Expected TypeMismatchError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate failed: %v", err)
			}
			if tt.check != nil {
				tt.check(t, out)
			}
		})
	}
}

func TestConstraintViolations(t *testing.T) {
	reg := testRegistry(t)

	_, err := reg.Validate("deploy_service", map[string]any{"service": "  "})
	var constraint *ConstraintViolationError
	if !errors.As(err, &constraint) {
		t.Fatalf("Expected ConstraintViolationError for blank service, got %v", err)
	}

	_, err = reg.Validate("deploy_service", map[string]any{"service": "api", "replicas": 0})
	if !errors.As(err, &constraint) {
		t.Fatalf("Expected ConstraintViolationError for replicas 0, got %v", err)
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	reg := testRegistry(t)
	first, err := reg.Validate("deploy_service", map[string]any{
		"service":  "api",
		"replicas": "2",
		"dry_run":  "true",
		"tags":     []any{"x"},
	})
	if err != nil {
		t.Fatalf("First pass failed: %v", err)
	}
	second, err := reg.Validate("deploy_service", first)
	if err != nil {
		t.Fatalf("Second pass failed: %v", err)
	}
	if second["replicas"] != first["replicas"] || second["dry_run"] != first["dry_run"] {
		t.Error("Re-validating coerced output changed values")
	}
}

func TestValidateDoesNotMutateInput(t *testing.T) {
	reg := testRegistry(t)
	raw := map[string]any{"service": "api", "replicas": "7"}
	if _, err := reg.Validate("deploy_service", raw); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if raw["replicas"] != "7" {
		t.Errorf("Input map was mutated: %v", raw["replicas"])
	}
	if len(raw) != 2 {
		t.Errorf("Input map gained keys: %v", raw)
	}
}

func TestErrorKindMapping(t *testing.T) {
	tests := []struct {
		err  error
		kind string
	}{
		{&UnknownToolError{Tool: "x"}, "unknown_tool"},
		{&MissingParameterError{Tool: "x", Param: "p"}, "missing_parameter"},
		{&TypeMismatchError{Tool: "x", Param: "p"}, "type_mismatch"},
		{&ConstraintViolationError{Tool: "x", Param: "p"}, "constraint_violation"},
		{&UnexpectedParameterError{Tool: "x", Param: "p"}, "unexpected_parameter"},
		{&UnregisteredHandlerError{Tool: "x"}, "unregistered_handler"},
		{errors.New("boom"), "execution_error"},
	}
	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.kind {
			t.Errorf("ErrorKind(%v) = %q, want %q", tt.err, got, tt.kind)
		}
	}
	if IsValidationError(&UnregisteredHandlerError{Tool: "x"}) {
		t.Error("unregistered_handler should not count as a validation error")
	}
	if !IsValidationError(&MissingParameterError{Tool: "x", Param: "p"}) {
		t.Error("missing_parameter should count as a validation error")
	}
}

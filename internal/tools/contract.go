package tools

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
)

// ParamType is the closed set of parameter types a contract may declare.
type ParamType string

const (
	TypeString     ParamType = "string"
	TypeInteger    ParamType = "integer"
	TypeBoolean    ParamType = "boolean"
	TypeStringList ParamType = "string_list"
	TypeObject     ParamType = "object"
)

// ParamSpec declares a single parameter of a tool contract.
// Required parameters must not carry a default.
type ParamSpec struct {
	Name     string          `json:"name"`
	Type     ParamType       `json:"type"`
	Required bool            `json:"required"`
	Default  any             `json:"default,omitempty"`
	Validate func(any) error `json:"-"`
}

// ToolContract is the declarative schema of a tool: its identity, the
// parameters it accepts, and metadata used by the classifier and the
// route layer. Contracts are immutable after registration.
type ToolContract struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Endpoint    string      `json:"endpoint"`
	Method      string      `json:"method"`
	Params      []ParamSpec `json:"parameters"`
}

// Param returns the spec for the named parameter, if declared.
func (c *ToolContract) Param(name string) (*ParamSpec, bool) {
	for i := range c.Params {
		if c.Params[i].Name == name {
			return &c.Params[i], true
		}
	}
	return nil, false
}

// Registry holds all registered tool contracts. Registration happens once at
// startup; after that the registry is read-only and safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	contracts map[string]*ToolContract
	order     []string
}

// NewRegistry creates an empty contract registry.
func NewRegistry() *Registry {
	return &Registry{contracts: make(map[string]*ToolContract)}
}

// Register adds a contract. Duplicate names and malformed specs are
// configuration bugs, reported immediately so the process fails at boot.
func (r *Registry) Register(c *ToolContract) error {
	if c == nil || c.Name == "" {
		return fmt.Errorf("contract must have a name")
	}
	seen := make(map[string]bool, len(c.Params))
	for _, p := range c.Params {
		if seen[p.Name] {
			return fmt.Errorf("contract %q declares parameter %q twice", c.Name, p.Name)
		}
		seen[p.Name] = true
		if p.Required && p.Default != nil {
			return fmt.Errorf("contract %q: required parameter %q must not have a default", c.Name, p.Name)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.contracts[c.Name]; exists {
		return &DuplicateToolError{Tool: c.Name}
	}
	r.contracts[c.Name] = c
	r.order = append(r.order, c.Name)
	return nil
}

// Get retrieves a contract by tool name.
func (r *Registry) Get(name string) (*ToolContract, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contracts[name]
	if !ok {
		return nil, &UnknownToolError{Tool: name}
	}
	return c, nil
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of registered contracts.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.contracts)
}

// Validate checks rawArgs against the named tool's contract and returns a
// fresh, fully coerced argument map with defaults filled in for absent
// optional parameters. It never mutates rawArgs and has no side effects.
// Validating its own output again is a no-op.
func (r *Registry) Validate(name string, rawArgs map[string]any) (map[string]any, error) {
	c, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	// Strict mode: reject anything the contract does not declare.
	for key := range rawArgs {
		if _, ok := c.Param(key); !ok {
			return nil, &UnexpectedParameterError{Tool: name, Param: key}
		}
	}

	out := make(map[string]any, len(c.Params))
	for i := range c.Params {
		p := &c.Params[i]
		raw, present := rawArgs[p.Name]
		if !present || raw == nil {
			if p.Required {
				return nil, &MissingParameterError{Tool: name, Param: p.Name}
			}
			if p.Default != nil {
				out[p.Name] = p.Default
			}
			continue
		}

		coerced, err := coerce(p.Type, raw)
		if err != nil {
			return nil, &TypeMismatchError{
				Tool:     name,
				Param:    p.Name,
				Expected: p.Type,
				Received: describeValue(raw),
			}
		}
		if p.Validate != nil {
			if err := p.Validate(coerced); err != nil {
				return nil, &ConstraintViolationError{Tool: name, Param: p.Name, Reason: err.Error()}
			}
		}
		out[p.Name] = coerced
	}
	return out, nil
}

// coerce converts a raw value to the declared type. JSON payloads arrive as
// string/float64/bool/[]any/map[string]any, so those are the shapes handled;
// string forms like "true" and "42" are accepted for scripting convenience.
func coerce(t ParamType, v any) (any, error) {
	switch t {
	case TypeString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("not a string")
		}
		return s, nil

	case TypeInteger:
		switch n := v.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		case float64:
			if n != math.Trunc(n) {
				return nil, fmt.Errorf("not an integer")
			}
			return int(n), nil
		case string:
			parsed, err := strconv.Atoi(strings.TrimSpace(n))
			if err != nil {
				return nil, fmt.Errorf("not an integer")
			}
			return parsed, nil
		}
		return nil, fmt.Errorf("not an integer")

	case TypeBoolean:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			parsed, err := strconv.ParseBool(strings.TrimSpace(b))
			if err != nil {
				return nil, fmt.Errorf("not a boolean")
			}
			return parsed, nil
		}
		return nil, fmt.Errorf("not a boolean")

	case TypeStringList:
		switch list := v.(type) {
		case []string:
			out := make([]string, len(list))
			copy(out, list)
			return out, nil
		case []any:
			out := make([]string, 0, len(list))
			for _, item := range list {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("list element is not a string")
				}
				out = append(out, s)
			}
			return out, nil
		}
		return nil, fmt.Errorf("not a string list")

	case TypeObject:
		// Structured values: JSON objects and arrays both qualify.
		switch v.(type) {
		case map[string]any, []any:
			return v, nil
		}
		return nil, fmt.Errorf("not a structured value")
	}
	return nil, fmt.Errorf("unsupported type %q", t)
}

func describeValue(v any) string {
	switch v.(type) {
	case string:
		return fmt.Sprintf("string %q", v)
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T (%v)", v, v)
	}
}

// NonEmpty is a validation predicate requiring a non-blank string.
func NonEmpty(v any) error {
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return fmt.Errorf("must not be empty")
	}
	return nil
}

// PathLike rejects strings that cannot be a filesystem path, in particular
// anything embedding a NUL byte or an empty value.
func PathLike(v any) error {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("must not be empty")
	}
	if strings.ContainsRune(s, '\x00') {
		return fmt.Errorf("must be a valid path")
	}
	return nil
}

// OneOf returns a predicate requiring membership in the allowed set.
func OneOf(allowed ...string) func(any) error {
	return func(v any) error {
		s, ok := v.(string)
		if !ok {
			return nil
		}
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		return fmt.Errorf("must be one of: %s", strings.Join(allowed, ", "))
	}
}

// MinInt returns a predicate requiring an integer >= min.
func MinInt(min int) func(any) error {
	return func(v any) error {
		if n, ok := v.(int); ok && n < min {
			return fmt.Errorf("must be at least %d", min)
		}
		return nil
	}
}

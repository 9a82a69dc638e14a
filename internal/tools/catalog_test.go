package tools

import (
	"strings"
	"testing"
)

func TestBuiltinCatalogRegisters(t *testing.T) {
	reg := NewRegistry()
	if err := RegisterBuiltins(reg); err != nil {
		t.Fatalf("RegisterBuiltins failed: %v", err)
	}
	if reg.Count() != len(BuiltinContracts()) {
		t.Errorf("Expected %d contracts, got %d", len(BuiltinContracts()), reg.Count())
	}
}

func TestBuiltinContractsAreWellFormed(t *testing.T) {
	for _, c := range BuiltinContracts() {
		if c.Name == "" || c.Description == "" || c.Category == "" {
			t.Errorf("Contract %+v missing identity fields", c)
		}
		if c.Endpoint == "" || c.Method == "" {
			t.Errorf("Contract %q missing route metadata", c.Name)
		}
		if !strings.HasPrefix(c.Endpoint, "/") {
			t.Errorf("Contract %q endpoint %q must start with /", c.Name, c.Endpoint)
		}
		for _, p := range c.Params {
			if p.Required && p.Default != nil {
				t.Errorf("Contract %q: required param %q has a default", c.Name, p.Name)
			}
		}
	}
}

func TestBuiltinSignaturesTargetRegisteredTools(t *testing.T) {
	reg := NewRegistry()
	if err := RegisterBuiltins(reg); err != nil {
		t.Fatalf("RegisterBuiltins failed: %v", err)
	}
	for _, sig := range BuiltinSignatures() {
		if _, err := reg.Get(sig.Tool); err != nil {
			t.Errorf("Signature targets unregistered tool %q", sig.Tool)
		}
		if len(sig.Phrases) == 0 {
			t.Errorf("Signature for %q has no phrases", sig.Tool)
		}
	}
}

func TestBuiltinSuggestionsTargetRegisteredTools(t *testing.T) {
	reg := NewRegistry()
	if err := RegisterBuiltins(reg); err != nil {
		t.Fatalf("RegisterBuiltins failed: %v", err)
	}
	for tool, followups := range BuiltinSuggestions() {
		if _, err := reg.Get(tool); err != nil {
			t.Errorf("Suggestions declared for unregistered tool %q", tool)
		}
		for _, s := range followups {
			if _, err := reg.Get(s.Tool); err != nil {
				t.Errorf("Suggestion %q -> %q targets unregistered tool", tool, s.Tool)
			}
		}
	}
}

func TestEveryToolHasSignatureCoverage(t *testing.T) {
	covered := make(map[string]bool)
	for _, sig := range BuiltinSignatures() {
		covered[sig.Tool] = true
	}
	for _, c := range BuiltinContracts() {
		if !covered[c.Name] {
			t.Errorf("Tool %q has no intent signature", c.Name)
		}
	}
}

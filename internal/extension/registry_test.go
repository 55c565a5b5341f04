package extension

import "testing"

func TestForCommandMatchesSubstring(t *testing.T) {
	descs := ForCommand([]string{"/usr/local/bin/ruby-lsp"})
	if len(descs) != 2 {
		t.Fatalf("expected 2 extensions for ruby-lsp, got %d", len(descs))
	}
	if descs[0].ToolName != "ruby_discover_tests" {
		t.Errorf("unexpected first extension: %+v", descs[0])
	}
}

func TestForCommandNoMatch(t *testing.T) {
	descs := ForCommand([]string{"clangd"})
	if len(descs) != 0 {
		t.Fatalf("expected no extensions for clangd, got %d", len(descs))
	}
}

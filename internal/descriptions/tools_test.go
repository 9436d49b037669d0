package descriptions

import (
	"sort"
	"testing"
)

func TestGetToolDescription(t *testing.T) {
	for name, want := range ToolDescriptions {
		if got := GetToolDescription(name); got != want {
			t.Errorf("GetToolDescription(%q) returned a different description", name)
		}
		if got := GetToolDescription(name); got == "" {
			t.Errorf("GetToolDescription(%q) is empty", name)
		}
	}

	if got := GetToolDescription("pdf_read_file"); got != "Tool description not available" {
		t.Errorf("GetToolDescription(unknown) = %q", got)
	}
}

func TestGetAllToolNames(t *testing.T) {
	names := GetAllToolNames()
	if len(names) != len(ToolDescriptions) {
		t.Fatalf("GetAllToolNames() returned %d names, want %d", len(names), len(ToolDescriptions))
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("GetAllToolNames() = %v, want sorted", names)
	}
}

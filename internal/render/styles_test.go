package render

import "testing"

func TestGlamourStyle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{StyleTokyoNight, "tokyo-night"},
		{StyleDark, "dark"},
		{"/path/to/theme.json", "/path/to/theme.json"},
	}

	for _, tt := range tests {
		if got := glamourStyle(tt.in); got != tt.want {
			t.Errorf("glamourStyle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsBuiltinStyle(t *testing.T) {
	for _, name := range StyleNames() {
		if !IsBuiltinStyle(name) {
			t.Errorf("IsBuiltinStyle(%q) = false", name)
		}
	}
	if IsBuiltinStyle("/tmp/theme.json") {
		t.Error("a file path is not a built-in style")
	}
}

func TestAvailableStylesHaveDescriptions(t *testing.T) {
	for _, s := range AvailableStyles() {
		if s.Description == "" {
			t.Errorf("style %s has no description", s.Name)
		}
	}
}

func TestOptions_Basic(t *testing.T) {
	if DefaultOptions().Basic() {
		t.Error("default options should use glamour")
	}
	if !DefaultOptions().WithStyle(StyleBasic).Basic() {
		t.Error("basic style should report Basic()")
	}
}

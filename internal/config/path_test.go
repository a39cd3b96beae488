package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestExpandPath(t *testing.T) {
	t.Setenv("SNAPJOT_TEST_DIR", "/tmp/snapjot")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"absolute unchanged", "/var/lib/snapjot.db", "/var/lib/snapjot.db"},
		{"env var", "$SNAPJOT_TEST_DIR/data.db", "/tmp/snapjot/data.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandPath(tt.in); got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExpandPathTilde(t *testing.T) {
	got := ExpandPath("~/data.db")
	if strings.HasPrefix(got, "~") {
		t.Errorf("tilde was not expanded: %q", got)
	}
	if filepath.Base(got) != "data.db" {
		t.Errorf("filename lost in expansion: %q", got)
	}
}

func TestDefaultDataPath(t *testing.T) {
	got := DefaultDataPath("snapjot.db")
	if !strings.HasSuffix(got, filepath.Join("snapjot", "snapjot.db")) {
		t.Errorf("unexpected data path: %q", got)
	}
}

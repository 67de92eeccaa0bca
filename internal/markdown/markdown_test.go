// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"strings"
	"testing"
)

func TestPlain(t *testing.T) {
	in := "**bold** and `code`"
	if got := (Plain{}).Render(in); got != in {
		t.Errorf("Plain.Render = %q", got)
	}
}

func TestNew_PlainTheme(t *testing.T) {
	if _, ok := New("Plain", 80).(Plain); !ok {
		t.Error("plain theme should return Plain")
	}
}

func TestGlamour_Render(t *testing.T) {
	g, err := NewGlamour("notty", 40)
	if err != nil {
		t.Fatalf("NewGlamour: %v", err)
	}

	out := g.Render("# Title\n\nSome **bold** text.")
	if !strings.Contains(out, "Title") || !strings.Contains(out, "bold") {
		t.Errorf("rendered output lost content: %q", out)
	}
	if strings.HasPrefix(out, "\n") || strings.HasSuffix(out, "\n") {
		t.Errorf("output should be trimmed: %q", out)
	}
}

func TestNew_DarkTheme(t *testing.T) {
	r := New(ThemeDark, 0)
	if _, ok := r.(*Glamour); !ok {
		t.Fatalf("dark theme returned %T", r)
	}
	if out := r.Render("hello"); !strings.Contains(out, "hello") {
		t.Errorf("Render = %q", out)
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

// =============================================================================
// PARSER TESTS
// =============================================================================

func TestIsCommand(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"/play", true},
		{"  /play 2", true},
		{"hello", false},
		{"hello /play", false},
		{"", false},
		{"/", true},
	}
	for _, tc := range tests {
		if got := IsCommand(tc.input); got != tc.want {
			t.Errorf("IsCommand(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestSplitCommandLine(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"/play 2", []string{"/play", "2"}},
		{"  /play   2  ", []string{"/play", "2"}},
		{`/x "a b" c`, []string{"/x", "a b", "c"}},
		{`/x 'a "b"'`, []string{"/x", `a "b"`}},
		{`/x ""`, []string{"/x", ""}},
		{"", nil},
	}
	for _, tc := range tests {
		if got := splitCommandLine(tc.input); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("splitCommandLine(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestParse(t *testing.T) {
	reg := NewRegistry()

	res := reg.Parse("hello there")
	if res.IsCommand || res.Error != nil {
		t.Fatalf("chat text parsed as command: %+v", res)
	}

	res = reg.Parse("/p 3")
	if !res.IsCommand || res.Error != nil {
		t.Fatalf("Parse(/p 3) = %+v", res)
	}
	if res.Command.Action != ActionPlay || res.CommandName != "/p" {
		t.Errorf("command = %s (%q)", res.Command.Name, res.CommandName)
	}
	if n, ok := res.Int(0); !ok || n != 3 {
		t.Errorf("Int(0) = %d, %v", n, ok)
	}
	if _, ok := res.Int(1); ok {
		t.Error("Int(1) should be absent")
	}

	res = reg.Parse("/RESET-SESSION")
	if res.Error != nil || res.Command.Action != ActionResetSession {
		t.Errorf("case-insensitive lookup failed: %+v", res)
	}
}

func TestParse_Errors(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		input   string
		wantErr string
	}{
		{"/bogus", "unknown command: /bogus"},
		{"/play zero", "invalid value for argument 'n' (got: zero)"},
		{"/play 0", "invalid value"},
		{"/play 1 2", "too many arguments"},
		{"/quit now", "too many arguments"},
	}
	for _, tc := range tests {
		res := reg.Parse(tc.input)
		if res.Error == nil {
			t.Errorf("Parse(%q) succeeded", tc.input)
			continue
		}
		if !strings.Contains(res.Error.Error(), tc.wantErr) {
			t.Errorf("Parse(%q) error = %q, want %q", tc.input, res.Error, tc.wantErr)
		}
	}

	if res := reg.Parse("/bogus"); !errors.Is(res.Error, ErrUnknownCommand) {
		t.Errorf("unknown command error = %v", res.Error)
	}
	var verr *ValidationError
	if res := reg.Parse("/history x"); !errors.As(res.Error, &verr) || verr.Arg != "limit" {
		t.Errorf("history validation error = %v", res.Error)
	}
}

func TestValidateArgs_RequiredAndEnum(t *testing.T) {
	cmd := &Command{
		Name: "/mode",
		Args: []ArgDef{
			{Name: "mode", Required: true, Type: ArgTypeEnum, Values: []string{"text", "voice"}},
		},
	}
	if err := ValidateArgs(cmd, nil); err == nil || !strings.Contains(err.Error(), "required argument missing") {
		t.Errorf("missing arg error = %v", err)
	}
	if err := ValidateArgs(cmd, []string{"VOICE"}); err != nil {
		t.Errorf("enum match is case-insensitive, got %v", err)
	}
	if err := ValidateArgs(cmd, []string{"video"}); err == nil || !strings.Contains(err.Error(), "expected text, voice") {
		t.Errorf("enum error = %v", err)
	}
	if err := ValidateArgs(nil, []string{"x"}); err != nil {
		t.Errorf("nil command error = %v", err)
	}
}

// =============================================================================
// REGISTRY TESTS
// =============================================================================

func TestRegistry_Builtins(t *testing.T) {
	reg := NewRegistry()

	want := map[string]Action{
		"/help":          ActionHelp,
		"/?":             ActionHelp,
		"/quit":          ActionQuit,
		"/exit":          ActionQuit,
		"/record":        ActionRecord,
		"/stop":          ActionStop,
		"/send":          ActionStop,
		"/cancel":        ActionCancel,
		"/play":          ActionPlay,
		"/reset-session": ActionResetSession,
		"/new":           ActionResetSession,
		"/reset-user":    ActionResetUser,
		"/whoami":        ActionWhoami,
		"/history":       ActionHistory,
		"/dismiss":       ActionClearError,
	}
	for name, action := range want {
		cmd := reg.Get(name)
		if cmd == nil {
			t.Errorf("%s not registered", name)
			continue
		}
		if cmd.Action != action {
			t.Errorf("%s action = %v, want %v", name, cmd.Action, action)
		}
	}
	if reg.Get("/nope") != nil {
		t.Error("unexpected command /nope")
	}
}

func TestRegistry_Help(t *testing.T) {
	help := NewRegistry().Help()

	for _, s := range []string{"Voice:", "Conversation:", "General:", "/play [n]", "/reset-user"} {
		if !strings.Contains(help, s) {
			t.Errorf("help missing %q:\n%s", s, help)
		}
	}
	if strings.Contains(help, "/dismiss") {
		t.Error("hidden command listed in help")
	}
	if strings.Index(help, "Conversation:") > strings.Index(help, "Voice:") {
		t.Error("categories not sorted")
	}
}

// =============================================================================
// COMPLETION TESTS
// =============================================================================

func TestCompleter(t *testing.T) {
	c := NewCompleter(NewRegistry())

	if got, want := c.Names("/re"), []string{"/record", "/reset-session", "/reset-user"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names(/re) = %v, want %v", got, want)
	}

	comps := c.Complete("/h")
	if len(comps) != 3 {
		t.Fatalf("Complete(/h) = %+v", comps)
	}
	if comps[0].Value != "/help" || comps[1].Value != "/history" || comps[2].Value != "/h" || !comps[2].Alias {
		t.Errorf("Complete(/h) order = %+v", comps)
	}

	if got := c.Complete("hello"); got != nil {
		t.Errorf("non-command completions = %v", got)
	}
	if got := c.Complete("/play 1"); got != nil {
		t.Errorf("argument completions = %v", got)
	}

	for _, s := range c.Suggestions() {
		if s == "/dismiss" {
			t.Error("hidden command suggested")
		}
	}
	if len(c.Suggestions()) != 10 {
		t.Errorf("Suggestions() = %v", c.Suggestions())
	}
}

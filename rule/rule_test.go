package rule

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRuleMatch(t *testing.T) {
	cases := []struct {
		rule   string
		target string
		stem   string
		ok     bool
	}{
		{rule: "%.o", target: "main.o", stem: "main", ok: true},
		{rule: "%.o", target: "sub/util.o", stem: "sub/util", ok: true},
		{rule: "%.o", target: "main.c", ok: false},
		{rule: "%.o", target: ".o", stem: "", ok: true},
		{rule: "out/%.tab", target: "out/genes.tab", stem: "genes", ok: true},
		{rule: "out/%.tab", target: "genes.tab", ok: false},
		{rule: "all", target: "all", ok: true},
		{rule: "all", target: "allx", ok: false},
	}
	for i, c := range cases {
		r := &Rule{Target: c.rule}
		stem, ok := r.Match(c.target)
		if ok != c.ok || stem != c.stem {
			t.Fatalf("%d: got (%q, %v), want (%q, %v)", i, stem, ok, c.stem, c.ok)
		}
	}
}

func TestRuleDepsFor(t *testing.T) {
	r := &Rule{Target: "%.o", Deps: []string{"%.c", "%.h"}}
	got := r.DepsFor("util")
	want := []string{"util.c", "util.h"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSetMatchPrecedence(t *testing.T) {
	s := &Set{Rules: []*Rule{
		{Target: "%.o", Recipe: []string{"pattern"}},
		{Target: "special.o", Recipe: []string{"explicit"}},
	}}
	r, stem, ok := s.Match("special.o")
	if !ok {
		t.Fatalf("no match for special.o")
	}
	if r.Recipe[0] != "explicit" || stem != "" {
		t.Fatalf("got (%v, %q), want (explicit, \"\")", r.Recipe[0], stem)
	}
	r, stem, ok = s.Match("other.o")
	if !ok {
		t.Fatalf("no match for other.o")
	}
	if r.Recipe[0] != "pattern" || stem != "other" {
		t.Fatalf("got (%v, %q), want (pattern, \"other\")", r.Recipe[0], stem)
	}
}

func TestExpand(t *testing.T) {
	s := &Set{Vars: map[string]string{"CC": "gcc", "CFLAGS": "-O2"}}
	deps := []string{"main.c", "util.h"}
	cases := []struct {
		line string
		want string
	}{
		{line: "$(CC) $(CFLAGS) -c -o $@ $<", want: "gcc -O2 -c -o main.o main.c"},
		{line: "echo $^", want: "echo main.c util.h"},
		{line: "echo $*", want: "echo main"},
		{line: "echo $(NOPE)x", want: "echo x"},
		{line: "echo $$HOME", want: "echo $HOME"},
		{line: "no dollars", want: "no dollars"},
		{line: "trailing $", want: "trailing $"},
	}
	for i, c := range cases {
		got := s.Expand(c.line, "main.o", deps, "main")
		if got != c.want {
			t.Fatalf("%d: got %q, want %q", i, got, c.want)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plmake.yml")
	data := `
vars:
  CC: cc
rules:
  - target: app
    deps: [main.o]
    recipe: ["$(CC) -o $@ $^"]
  - target: "%.o"
    deps: ["%.c"]
    recipe: ["$(CC) -c -o $@ $<"]
`
	err := os.WriteFile(path, []byte(data), 0644)
	if err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(s.Rules))
	}
	if s.Vars["CC"] != "cc" {
		t.Fatalf("got %q, want cc", s.Vars["CC"])
	}
	if s.Rules[1].Target != "%.o" {
		t.Fatalf("got %q, want %%.o", s.Rules[1].Target)
	}
}

func TestLoadRejectsBadRules(t *testing.T) {
	cases := []struct {
		name string
		data string
		want string
	}{
		{
			name: "empty",
			data: "rules: []",
			want: "no rules",
		},
		{
			name: "empty target",
			data: "rules:\n  - deps: [x]",
			want: "empty target",
		},
		{
			name: "two stems",
			data: "rules:\n  - target: \"%/%.o\"",
			want: "more than one",
		},
		{
			name: "stem dep in explicit rule",
			data: "rules:\n  - target: app\n    deps: [\"%.o\"]",
			want: "stem in dep",
		},
	}
	for _, c := range cases {
		dir := t.TempDir()
		path := filepath.Join(dir, "plmake.yml")
		err := os.WriteFile(path, []byte(c.data), 0644)
		if err != nil {
			t.Fatal(err)
		}
		_, err = Load(path)
		if err == nil {
			t.Fatalf("%v: got nil, want error", c.name)
		}
		if !strings.Contains(err.Error(), c.want) {
			t.Fatalf("%v: got %q, want it to contain %q", c.name, err, c.want)
		}
	}
}

package progress

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestPrinterPlainOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinter(buf)
	p.Start("app")
	p.Done("app")
	p.Skip("main.o")
	p.Fail("util.o", errors.New("exit status 1"))
	got := buf.String()
	want := []string{
		"make app\n",
		"done app\n",
		"skip main.o (up to date)\n",
		"fail util.o: exit status 1\n",
	}
	if got != strings.Join(want, "") {
		t.Fatalf("got %q, want %q", got, strings.Join(want, ""))
	}
}

func TestPrinterQuiet(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinter(buf).Quiet()
	p.Start("app")
	p.Done("app")
	p.Skip("main.o")
	p.Fail("util.o", errors.New("exit status 1"))
	got := buf.String()
	want := "fail util.o: exit status 1\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/idilsaglam/kanban/internal/model"
)

func TestProgressBar(t *testing.T) {
	if got := ProgressBar(1, 4, 8); got != "██░░░░░░  25%" {
		t.Fatalf("unexpected bar %q", got)
	}
	if got := ProgressBar(0, 0, 1); !strings.HasSuffix(got, "  0%") || strings.Count(got, "░") != 5 {
		t.Fatalf("unexpected empty bar %q", got)
	}
}

func TestPanelPadsToWidestLine(t *testing.T) {
	SetTheme("mono")
	defer SetTheme("classic")

	var buf bytes.Buffer
	Panel(&buf, []string{"ab", C(fgRed, "abcd")})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %q", buf.String())
	}
	if lines[0] != "+------+" || lines[1] != "| ab   |" || lines[2] != "| abcd |" {
		t.Fatalf("unexpected panel:\n%s", buf.String())
	}
}

func TestThemePriorityColor(t *testing.T) {
	SetTheme("classic")
	th := Current()
	if th.PriorityColor(model.PriorityHigh) != fgRed || th.PriorityColor("") != fgYellow {
		t.Fatal("unexpected priority colors")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdefghij", 6); got != "abc..." {
		t.Fatalf("got %q", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
}

func TestOKAndFailPlainWhenNotTTY(t *testing.T) {
	SetTheme("mono")
	defer SetTheme("classic")
	var buf bytes.Buffer
	OK(&buf, "saved")
	Fail(&buf, "nope")
	if buf.String() != "✔ saved\n✖ nope\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

package readiness

import (
	"strings"
	"testing"
)

func TestScan_EmptyBuffer(t *testing.T) {
	d := NewResponseDetector()
	if got := d.Scan(""); got != StatusUnknown {
		t.Errorf("Scan(\"\") = %v, want %v", got, StatusUnknown)
	}
}

func TestScan_PromptSuffix(t *testing.T) {
	d := NewResponseDetector()
	if got := d.Scan("Welcome to the CLI\n> "); got != StatusReady {
		t.Errorf("Scan with trailing prompt = %v, want %v", got, StatusReady)
	}
}

func TestScan_ShortcutsHint(t *testing.T) {
	d := NewResponseDetector()
	buf := "some response text\n? for shortcuts\n"
	if got := d.Scan(buf); got != StatusReady {
		t.Errorf("Scan with shortcuts hint = %v, want %v", got, StatusReady)
	}
}

func TestScan_BusyOutput(t *testing.T) {
	d := NewResponseDetector()
	if got := d.Scan("Thinking...\nstill working on it"); got != StatusBusy {
		t.Errorf("Scan mid-response = %v, want %v", got, StatusBusy)
	}
}

func TestScan_ClearThenMarker(t *testing.T) {
	d := NewResponseDetector()
	buf := "old noise\x1b[2J\x1b[H? for shortcuts"
	if got := d.Scan(buf); got != StatusReady {
		t.Errorf("Scan clear+marker = %v, want %v", got, StatusReady)
	}
}

func TestScan_BypassNoticeOnlyAtStartup(t *testing.T) {
	sess := NewSessionDetector()
	resp := NewResponseDetector()

	buf := "launching...\nBypassing Permissions\n"
	if got := sess.Scan(buf); got != StatusReady {
		t.Errorf("session detector on bypass notice = %v, want %v", got, StatusReady)
	}
	if got := resp.Scan(buf); got != StatusBusy {
		t.Errorf("response detector on bypass notice = %v, want %v", got, StatusBusy)
	}
}

// Once ready is declared for a fixed tail, re-scanning the same tail must
// yield ready again.
func TestScan_IdempotentOnStableTail(t *testing.T) {
	d := NewSessionDetector()
	buf := "Welcome\n...? for shortcuts\n> "

	first := d.Scan(buf)
	if first != StatusReady {
		t.Fatalf("first Scan = %v, want %v", first, StatusReady)
	}
	for i := 0; i < 5; i++ {
		if got := d.Scan(buf); got != first {
			t.Fatalf("Scan #%d = %v, want %v", i+2, got, first)
		}
	}
}

func TestScan_MarkerOutsideTailIgnored(t *testing.T) {
	d := NewResponseDetector()

	// The marker sits more than tailSize bytes before the end, so it must
	// not influence the decision.
	buf := "? for shortcuts\n" + strings.Repeat("x", tailSize) + "more output"
	if got := d.Scan(buf); got != StatusBusy {
		t.Errorf("Scan with stale marker = %v, want %v", got, StatusBusy)
	}
}

func TestTail_Bounds(t *testing.T) {
	short := "abc"
	if got := Tail(short); got != short {
		t.Errorf("Tail(short) = %q, want %q", got, short)
	}

	long := strings.Repeat("a", tailSize) + "tail-end"
	got := Tail(long)
	if len(got) != tailSize {
		t.Errorf("len(Tail(long)) = %d, want %d", len(got), tailSize)
	}
	if !strings.HasSuffix(got, "tail-end") {
		t.Errorf("Tail(long) lost the trailing bytes: %q", got)
	}
}

func TestContainsClear(t *testing.T) {
	cases := []struct {
		name string
		data string
		want bool
	}{
		{"erase display", "x\x1b[2Jy", true},
		{"erase scrollback", "\x1b[3J", true},
		{"cursor home", "\x1b[H", true},
		{"full reset", "\x1bc", true},
		{"plain text", "no escapes here", false},
		{"unrelated escape", "\x1b[31mred\x1b[0m", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ContainsClear(tc.data); got != tc.want {
				t.Errorf("ContainsClear(%q) = %v, want %v", tc.data, got, tc.want)
			}
		})
	}
}

func TestStatus_String(t *testing.T) {
	if StatusReady.String() != "ready" || StatusBusy.String() != "busy" || StatusUnknown.String() != "unknown" {
		t.Error("Status.String returned unexpected names")
	}
}

// Package readiness infers whether the wrapped CLI is idle and accepting
// input, purely from recent raw terminal bytes. The CLI has no structured
// protocol, so pattern matching over a bounded tail of the output is the
// only readiness oracle available.
package readiness

import "strings"

// Status is the tri-state result of scanning an output tail.
type Status int

const (
	// StatusUnknown means not enough output has been seen to decide.
	StatusUnknown Status = iota
	// StatusBusy means the program is producing output or mid-response.
	StatusBusy
	// StatusReady means the program is idle at its prompt.
	StatusReady
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusBusy:
		return "busy"
	case StatusReady:
		return "ready"
	default:
		return "unknown"
	}
}

// tailSize bounds how much trailing output a scan considers. Older bytes
// cannot affect the decision, and a bounded window avoids false positives
// from coincidental matches earlier in the buffer.
const tailSize = 200

// promptSuffix is the literal the CLI prompt line ends with when idle.
const promptSuffix = "> "

// shortcutsHint is printed under the prompt whenever the CLI is idle.
const shortcutsHint = "? for shortcuts"

// bypassNotice is printed at startup when the CLI is launched with
// --dangerously-skip-permissions. Only meaningful for the initial
// session-ready check.
const bypassNotice = "Bypassing Permissions"

// clearSequences are the control sequences the CLI emits when it redraws
// its screen. No full VT100 interpretation is attempted; these literals are
// the only recognized forms.
var clearSequences = []string{
	"\x1b[2J", // erase display
	"\x1b[3J", // erase display + scrollback
	"\x1b[H",  // cursor home (redraw start)
	"\x1bc",   // full reset
}

// Detector scans output tails for a fixed marker set. It holds no mutable
// state: the same tail always yields the same status.
type Detector struct {
	markers []string
}

// NewSessionDetector returns the detector used once at startup to decide
// when the freshly launched CLI has finished booting.
func NewSessionDetector() *Detector {
	return &Detector{markers: []string{shortcutsHint, bypassNotice}}
}

// NewResponseDetector returns the narrower detector used after every sent
// message to decide when a response has finished.
func NewResponseDetector() *Detector {
	return &Detector{markers: []string{shortcutsHint}}
}

// Scan classifies the trailing portion of buffer.
//
// Ready is declared when either the tail contains a recognized screen-clear
// sequence followed by a marker, or the tail ends at the literal prompt /
// contains the shortcuts hint. Anything else with output is Busy; an empty
// buffer is Unknown.
func (d *Detector) Scan(buffer string) Status {
	if buffer == "" {
		return StatusUnknown
	}

	tail := Tail(buffer)

	// Screen clear followed by a marker: the CLI redrew its idle screen.
	if idx := lastClearIndex(tail); idx >= 0 {
		afterClear := tail[idx:]
		for _, m := range d.markers {
			if strings.Contains(afterClear, m) {
				return StatusReady
			}
		}
	}

	if strings.HasSuffix(tail, promptSuffix) {
		return StatusReady
	}
	for _, m := range d.markers {
		if strings.Contains(tail, m) {
			return StatusReady
		}
	}

	return StatusBusy
}

// Tail returns the trailing window of buffer a scan considers.
func Tail(buffer string) string {
	if len(buffer) <= tailSize {
		return buffer
	}
	return buffer[len(buffer)-tailSize:]
}

// ContainsClear reports whether data includes a recognized screen-clear
// control sequence.
func ContainsClear(data string) bool {
	for _, seq := range clearSequences {
		if strings.Contains(data, seq) {
			return true
		}
	}
	return false
}

// lastClearIndex returns the index just past the last recognized clear
// sequence in s, or -1 when none is present.
func lastClearIndex(s string) int {
	best := -1
	for _, seq := range clearSequences {
		if idx := strings.LastIndex(s, seq); idx >= 0 && idx+len(seq) > best {
			best = idx + len(seq)
		}
	}
	return best
}

package crawl

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownVerdict is returned when parsing an unrecognized verdict
// string.
var ErrUnknownVerdict = errors.New("unknown verdict")

// Verdict is a callback's decision about an item in flight. The
// handle-pre-response, handle-response, and handle-error hooks return
// verdict strings; the processor acts on the parsed value.
type Verdict int

const (
	// VerdictNormal continues with the default handling.
	VerdictNormal Verdict = iota

	// VerdictRetry puts the URL back in the frontier for another try.
	VerdictRetry

	// VerdictFinish marks the URL done without further processing.
	VerdictFinish

	// VerdictStop marks the URL and winds the whole crawl down
	// gracefully.
	VerdictStop
)

// String returns the wire form of the verdict.
func (v Verdict) String() string {
	switch v {
	case VerdictNormal:
		return "normal"
	case VerdictRetry:
		return "retry"
	case VerdictFinish:
		return "finish"
	case VerdictStop:
		return "stop"
	default:
		return "unknown"
	}
}

// ParseVerdict converts a callback's verdict string to a Verdict.
func ParseVerdict(s string) (Verdict, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return VerdictNormal, nil
	case "retry":
		return VerdictRetry, nil
	case "finish":
		return VerdictFinish, nil
	case "stop":
		return VerdictStop, nil
	default:
		return VerdictNormal, fmt.Errorf("%w: %q", ErrUnknownVerdict, s)
	}
}

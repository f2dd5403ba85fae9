package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"

	"github.com/skitterhq/skitter/internal/errs"
)

// ExitStatus is the process exit code vocabulary. The numbering is
// wget-compatible so scripts that branch on wget's codes keep working.
type ExitStatus int

const (
	// ExitOK means the crawl completed and every document was retrieved.
	ExitOK ExitStatus = 0

	// ExitGenericError covers failures with no slot of their own and
	// runs ended by an explicit stop.
	ExitGenericError ExitStatus = 1

	// ExitUsageError is reserved for the command-line layer: bad flags
	// or arguments rejected before a run starts. The classifier never
	// produces it.
	ExitUsageError ExitStatus = 2

	// ExitFileIOError means a local filesystem operation failed.
	ExitFileIOError ExitStatus = 3

	// ExitNetworkFailure covers socket-level failures and names that
	// did not resolve.
	ExitNetworkFailure ExitStatus = 4

	// ExitSSLVerification means a remote certificate chain could not be
	// verified.
	ExitSSLVerification ExitStatus = 5

	// ExitAuthenticationFailure means a server rejected the client's
	// credentials.
	ExitAuthenticationFailure ExitStatus = 6

	// ExitProtocolError means a remote endpoint violated the
	// application protocol.
	ExitProtocolError ExitStatus = 7

	// ExitServerError means a server answered with an error response.
	ExitServerError ExitStatus = 8
)

// String returns a human-readable name for the status.
func (s ExitStatus) String() string {
	switch s {
	case ExitOK:
		return "success"
	case ExitGenericError:
		return "generic error"
	case ExitUsageError:
		return "usage error"
	case ExitFileIOError:
		return "file i/o error"
	case ExitNetworkFailure:
		return "network failure"
	case ExitSSLVerification:
		return "ssl verification failure"
	case ExitAuthenticationFailure:
		return "authentication failure"
	case ExitProtocolError:
		return "protocol error"
	case ExitServerError:
		return "server error"
	default:
		return fmt.Sprintf("exit status %d", int(s))
	}
}

// UpdateExitCode merges next into current: zero never overrides, the
// first nonzero code sticks, and afterwards the numerically smaller
// nonzero code wins. The merge is commutative, so the final status does
// not depend on the order failures were observed in.
func UpdateExitCode(current, next ExitStatus) ExitStatus {
	if next == 0 {
		return current
	}
	if current == 0 || next < current {
		return next
	}
	return current
}

// codeRule classifies one family of run errors. Expected failures are
// ordinary crawl outcomes and log tersely; anything unexpected is a
// crash.
type codeRule struct {
	match    func(error) bool
	code     ExitStatus
	expected bool
}

// codeRules is evaluated top to bottom and the first match wins. The
// order mirrors errs.Categorize: specific crawl failures before
// cancellation, cancellation before raw transport failures, so a
// network error wrapping a canceled context counts as a stop rather
// than a failure.
var codeRules = []codeRule{
	{
		match: func(err error) bool {
			var e *errs.AuthenticationError
			return errors.As(err, &e)
		},
		code:     ExitAuthenticationFailure,
		expected: true,
	},
	{
		match: func(err error) bool {
			var e *errs.ServerError
			return errors.As(err, &e)
		},
		code:     ExitServerError,
		expected: true,
	},
	{
		match: func(err error) bool {
			var e *errs.ProtocolError
			return errors.As(err, &e)
		},
		code:     ExitProtocolError,
		expected: true,
	},
	{
		match: func(err error) bool {
			var e *errs.SSLVerificationError
			return errors.As(err, &e)
		},
		code:     ExitSSLVerification,
		expected: true,
	},
	{
		match: func(err error) bool {
			var e *errs.DNSNotFoundError
			return errors.As(err, &e)
		},
		code:     ExitNetworkFailure,
		expected: true,
	},
	{
		match: func(err error) bool {
			return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		code:     ExitGenericError,
		expected: true,
	},
	{
		match: func(err error) bool {
			var e *errs.NetworkError
			if errors.As(err, &e) {
				return true
			}
			var nerr net.Error
			return errors.As(err, &nerr)
		},
		code:     ExitNetworkFailure,
		expected: true,
	},
	{
		match: func(err error) bool {
			var (
				pathErr    *fs.PathError
				linkErr    *os.LinkError
				syscallErr *os.SyscallError
			)
			if errors.As(err, &pathErr) || errors.As(err, &linkErr) || errors.As(err, &syscallErr) {
				return true
			}
			return errors.Is(err, fs.ErrPermission) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrClosed)
		},
		code:     ExitFileIOError,
		expected: true,
	},
}

// Classify maps a run error to its exit status. The second return
// reports whether the failure is an expected crawl outcome; anything
// that falls off the end of the rule table is an unexpected crash.
func Classify(err error) (ExitStatus, bool) {
	if err == nil {
		return ExitOK, true
	}
	for _, rule := range codeRules {
		if rule.match(err) {
			return rule.code, rule.expected
		}
	}
	return ExitGenericError, false
}

// CategoryCode maps an observed error category to the exit code it
// contributes. Item-level failures are folded into the final status
// through this mapping even when the run itself ended cleanly.
func CategoryCode(c errs.Category) ExitStatus {
	switch c {
	case errs.CategoryNone:
		return ExitOK
	case errs.CategoryAuthentication:
		return ExitAuthenticationFailure
	case errs.CategoryServer:
		return ExitServerError
	case errs.CategoryProtocol:
		return ExitProtocolError
	case errs.CategorySSL:
		return ExitSSLVerification
	case errs.CategoryDNS, errs.CategoryNetwork:
		return ExitNetworkFailure
	case errs.CategoryFileIO:
		return ExitFileIOError
	case errs.CategoryCanceled:
		return ExitGenericError
	default:
		return ExitGenericError
	}
}

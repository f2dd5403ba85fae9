package errs

import (
	"fmt"
)

// Crawl failure types.
//
// Design decision: We use typed errors rather than sentinel values because
// callers need the failure context (host, status code, underlying cause)
// and the exit-code table needs errors.As() matching across package
// boundaries. Each type represents one category of failure; Categorize()
// performs the ordered classification.

// NetworkError indicates a socket-level failure while talking to a remote
// host or a DNS server: connection refused, unreachable network, timeout,
// or a malformed response that prevented the exchange from completing.
type NetworkError struct {
	// Op is the operation that failed, such as "dns query" or "connect".
	Op string
	// Host is the remote endpoint involved, if known.
	Host string
	// Timeout reports whether the failure was a deadline expiry.
	Timeout bool
	// Err is the underlying cause, if any.
	Err error
}

// Error returns a human-readable description of the network failure.
func (e *NetworkError) Error() string {
	msg := "network failure"
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Host != "" {
		msg += " " + e.Host
	}
	if e.Timeout {
		msg += " (timeout)"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *NetworkError) Unwrap() error { return e.Err }

// DNSNotFoundError indicates that name resolution completed but produced
// no addresses for any requested family: the name does not exist or has
// no usable records. It is deliberately distinct from NetworkError so
// callers can tell "the name is bad" from "the network is bad".
type DNSNotFoundError struct {
	// Host is the hostname that could not be resolved.
	Host string
}

// Error returns a human-readable description of the resolution failure.
func (e *DNSNotFoundError) Error() string {
	return fmt.Sprintf("dns: no addresses found for %q", e.Host)
}

// ServerError indicates the remote server answered with an error response,
// such as an HTTP 5xx status.
type ServerError struct {
	// StatusCode is the protocol status code reported by the server.
	StatusCode int
	// URL is the request URL that triggered the response.
	URL string
}

// Error returns a human-readable description of the server error.
func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: status %d for %s", e.StatusCode, e.URL)
}

// ProtocolError indicates the remote endpoint violated the application
// protocol: unparsable status lines, impossible redirects, or responses
// the client cannot interpret.
type ProtocolError struct {
	// Reason describes the violation.
	Reason string
	// URL is the request URL involved, if known.
	URL string
	// Err is the underlying cause, if any.
	Err error
}

// Error returns a human-readable description of the protocol violation.
func (e *ProtocolError) Error() string {
	msg := "protocol error: " + e.Reason
	if e.URL != "" {
		msg += " for " + e.URL
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *ProtocolError) Unwrap() error { return e.Err }

// AuthenticationError indicates the server rejected the client's
// credentials, such as an HTTP 401 or an FTP 530 reply.
type AuthenticationError struct {
	// URL is the request URL that was rejected.
	URL string
}

// Error returns a human-readable description of the rejection.
func (e *AuthenticationError) Error() string {
	return "authentication failed for " + e.URL
}

// SSLVerificationError indicates the remote certificate chain could not
// be verified.
type SSLVerificationError struct {
	// Host is the endpoint whose certificate failed verification.
	Host string
	// Err is the underlying x509/tls cause.
	Err error
}

// Error returns a human-readable description of the verification failure.
func (e *SSLVerificationError) Error() string {
	msg := "ssl verification failed"
	if e.Host != "" {
		msg += " for " + e.Host
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *SSLVerificationError) Unwrap() error { return e.Err }

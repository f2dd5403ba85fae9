package errs

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io/fs"
	"net"
	"os"
)

// Category identifies one class of crawl failure. Categories are the unit
// the statistics counters aggregate by and the unit the exit-code table
// maps to process exit codes.
type Category string

const (
	// CategoryNone is the zero category, returned for a nil error.
	CategoryNone Category = ""

	// CategoryAuthentication covers rejected credentials.
	CategoryAuthentication Category = "authentication-failure"

	// CategoryServer covers error responses issued by the remote server.
	CategoryServer Category = "server-error"

	// CategoryProtocol covers application-protocol violations.
	CategoryProtocol Category = "protocol-error"

	// CategorySSL covers certificate verification failures.
	CategorySSL Category = "ssl-verification-error"

	// CategoryDNS covers names that resolved to nothing.
	CategoryDNS Category = "dns-not-found"

	// CategoryNetwork covers socket-level failures and network timeouts.
	CategoryNetwork Category = "network-failure"

	// CategoryCanceled covers explicit stop requests and canceled runs.
	CategoryCanceled Category = "canceled"

	// CategoryFileIO covers local filesystem failures.
	CategoryFileIO Category = "file-io-error"

	// CategoryGeneric covers everything else.
	CategoryGeneric Category = "generic-error"
)

// String returns the category name.
func (c Category) String() string { return string(c) }

// Categorize classifies err into exactly one Category. The checks run in a
// fixed order so that more specific categories win: typed crawl errors
// first, then certificate failures, then resolution failures, then raw
// network failures, then local I/O, and finally the generic bucket.
// A nil error yields CategoryNone.
func Categorize(err error) Category {
	if err == nil {
		return CategoryNone
	}

	var (
		authErr   *AuthenticationError
		serverErr *ServerError
		protoErr  *ProtocolError
		sslErr    *SSLVerificationError
		dnsErr    *DNSNotFoundError
		netErr    *NetworkError
	)
	switch {
	case errors.As(err, &authErr):
		return CategoryAuthentication
	case errors.As(err, &serverErr):
		return CategoryServer
	case errors.As(err, &protoErr):
		return CategoryProtocol
	case errors.As(err, &sslErr):
		return CategorySSL
	case isCertificateError(err):
		return CategorySSL
	case errors.As(err, &dnsErr):
		return CategoryDNS
	}

	var sysDNSErr *net.DNSError
	if errors.As(err, &sysDNSErr) {
		if sysDNSErr.IsNotFound {
			return CategoryDNS
		}
		return CategoryNetwork
	}

	// Explicit cancellation outranks the network-shaped wrappers the
	// HTTP client puts around it.
	if errors.Is(err, context.Canceled) {
		return CategoryCanceled
	}

	var rawNetErr net.Error
	switch {
	case errors.As(err, &netErr):
		return CategoryNetwork
	case errors.As(err, &rawNetErr):
		return CategoryNetwork
	case errors.Is(err, os.ErrDeadlineExceeded):
		return CategoryNetwork
	case errors.Is(err, context.DeadlineExceeded):
		return CategoryCanceled
	}

	var (
		pathErr    *fs.PathError
		linkErr    *os.LinkError
		syscallErr *os.SyscallError
	)
	switch {
	case errors.As(err, &pathErr), errors.As(err, &linkErr), errors.As(err, &syscallErr):
		return CategoryFileIO
	case errors.Is(err, fs.ErrPermission), errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrClosed):
		return CategoryFileIO
	}

	return CategoryGeneric
}

// isCertificateError reports whether err is one of the certificate
// verification failures produced by crypto/tls and crypto/x509.
func isCertificateError(err error) bool {
	var (
		verifyErr   *tls.CertificateVerificationError
		unknownErr  x509.UnknownAuthorityError
		invalidErr  x509.CertificateInvalidError
		hostnameErr x509.HostnameError
	)
	return errors.As(err, &verifyErr) ||
		errors.As(err, &unknownErr) ||
		errors.As(err, &invalidErr) ||
		errors.As(err, &hostnameErr)
}

package fetch

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/skitterhq/skitter/internal/errs"
	"github.com/skitterhq/skitter/internal/model"
)

// FTPFetcher probes ftp URLs over the control channel: it connects,
// reads the welcome banner, and reports availability. Directory
// listings and file retrieval are not implemented; an ftp URL in the
// frontier is a reachability check.
type FTPFetcher struct {
	// dialer establishes the control connection.
	dialer *net.Dialer

	// timeout bounds the connect and the banner read.
	timeout time.Duration
}

// FTPOption configures an FTPFetcher.
type FTPOption func(*FTPFetcher)

// WithFTPTimeout sets the connect and banner-read timeout.
func WithFTPTimeout(timeout time.Duration) FTPOption {
	return func(f *FTPFetcher) {
		f.timeout = timeout
	}
}

// NewFTPFetcher creates an FTPFetcher.
func NewFTPFetcher(opts ...FTPOption) *FTPFetcher {
	f := &FTPFetcher{
		dialer:  &net.Dialer{},
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Schemes returns the URL schemes this fetcher serves.
func (f *FTPFetcher) Schemes() []string {
	return []string{"ftp"}
}

// Fetch connects to the server's control port and reads the welcome
// banner, including multi-line 220- continuations. A greeting other
// than 220 is a protocol error; connect and read failures are network
// errors. There is no body to skip, so pre is consulted on the banner
// response only for its abort decision.
func (f *FTPFetcher) Fetch(ctx context.Context, info *model.URLInfo, pre PreResponse) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	conn, err := f.dialer.DialContext(ctx, "tcp", info.HostPort())
	if err != nil {
		return nil, &errs.NetworkError{
			Op:      "dial",
			Host:    info.Host,
			Timeout: isTimeoutError(err),
			Err:     err,
		}
	}
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(f.timeout)); err != nil {
		return nil, &errs.NetworkError{Op: "deadline", Host: info.Host, Err: err}
	}

	reader := bufio.NewReader(conn)
	banner, err := reader.ReadString('\n')
	if err != nil {
		return nil, &errs.NetworkError{
			Op:      "read banner",
			Host:    info.Host,
			Timeout: isTimeoutError(err),
			Err:     err,
		}
	}

	if !strings.HasPrefix(banner, "220") {
		return nil, &errs.ProtocolError{
			Reason: "unexpected ftp greeting " + strings.TrimSpace(banner),
			URL:    info.Raw,
		}
	}

	// Collect multi-line banners: 220- lines continue until a 220 line
	// with a space ends the greeting.
	var fullBanner strings.Builder
	fullBanner.WriteString(strings.TrimSpace(banner))
	for strings.HasPrefix(banner, "220-") {
		banner, err = reader.ReadString('\n')
		if err != nil {
			break
		}
		fullBanner.WriteString("\n")
		fullBanner.WriteString(strings.TrimSpace(banner))
		if strings.HasPrefix(banner, "220 ") {
			break
		}
	}

	response := &Response{
		URL:    info.Raw,
		Banner: fullBanner.String(),
	}
	if pre != nil {
		if err := pre(ctx, response); err != nil && !errors.Is(err, ErrSkipBody) {
			return nil, err
		}
	}
	return response, nil
}

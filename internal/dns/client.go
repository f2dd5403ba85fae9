package dns

import (
	"context"
	"errors"
	"fmt"
	"net"

	mdns "github.com/miekg/dns"

	"github.com/skitterhq/skitter/internal/errs"
)

// resolvConfPath is where the system lists its nameservers.
const resolvConfPath = "/etc/resolv.conf"

// Transport performs one DNS exchange against one server. It exists so
// tests can script answers without a network.
type Transport interface {
	Exchange(ctx context.Context, msg *mdns.Msg, server string) (*mdns.Msg, error)
}

// clientTransport is the production Transport backed by miekg/dns.
type clientTransport struct {
	client *mdns.Client
}

// Exchange sends msg to server over UDP, honoring ctx.
func (t *clientTransport) Exchange(ctx context.Context, msg *mdns.Msg, server string) (*mdns.Msg, error) {
	resp, _, err := t.client.ExchangeContext(ctx, msg, server)
	return resp, err
}

// Client queries address records from a fixed server list. Servers are
// tried in order; the first one that answers settles the query. A
// definitive "no such records" answer is not an error, it is a nil
// result; the caller decides whether another family can still satisfy
// the resolution.
type Client struct {
	transport Transport
	servers   []string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTransport replaces the network transport, primarily for tests.
func WithTransport(t Transport) ClientOption {
	return func(c *Client) { c.transport = t }
}

// NewClient returns a Client querying the given servers ("host:port").
// An empty list falls back to the system's configured nameservers.
func NewClient(servers []string, opts ...ClientOption) *Client {
	if len(servers) == 0 {
		servers = DefaultServers()
	}
	c := &Client{
		transport: &clientTransport{client: new(mdns.Client)},
		servers:   servers,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultServers reads the system nameserver list, falling back to the
// local loopback resolver when the system configuration is unreadable.
func DefaultServers() []string {
	conf, err := mdns.ClientConfigFromFile(resolvConfPath)
	if err != nil || len(conf.Servers) == 0 {
		return []string{"127.0.0.1:53"}
	}
	servers := make([]string, 0, len(conf.Servers))
	for _, s := range conf.Servers {
		servers = append(servers, net.JoinHostPort(s, conf.Port))
	}
	return servers
}

// Query asks for host's addresses in the given family. It returns the
// extracted addresses plus the raw answer section. Both are nil when the
// name has no records in this family (NXDOMAIN or an empty answer); that
// outcome is not an error. Socket-level failures on every server, and
// server responses that signal the query could not be served, return a
// NetworkError.
func (c *Client) Query(ctx context.Context, host string, family Family) ([]AddressInfo, []mdns.RR, error) {
	qtype := mdns.TypeA
	if family == FamilyIPv6 {
		qtype = mdns.TypeAAAA
	}
	msg := new(mdns.Msg)
	msg.SetQuestion(mdns.Fqdn(host), qtype)
	msg.RecursionDesired = true

	var lastErr error
	for _, server := range c.servers {
		resp, err := c.transport.Exchange(ctx, msg, server)
		if err != nil {
			lastErr = err
			continue
		}
		switch resp.Rcode {
		case mdns.RcodeSuccess:
			return extractAddresses(resp, family), resp.Answer, nil
		case mdns.RcodeNameError:
			// NXDOMAIN: a definitive empty answer.
			return nil, nil, nil
		default:
			return nil, nil, &errs.NetworkError{
				Op:   "dns query",
				Host: host,
				Err:  fmt.Errorf("server %s answered %s", server, mdns.RcodeToString[resp.Rcode]),
			}
		}
	}
	return nil, nil, &errs.NetworkError{
		Op:      "dns query",
		Host:    host,
		Timeout: isTimeout(lastErr),
		Err:     lastErr,
	}
}

// extractAddresses pulls the family's address records out of the answer
// section. CNAME and other records stay in the raw record list only.
func extractAddresses(resp *mdns.Msg, family Family) []AddressInfo {
	var out []AddressInfo
	for _, rr := range resp.Answer {
		switch record := rr.(type) {
		case *mdns.A:
			if family == FamilyIPv4 {
				out = append(out, AddressInfo{IP: record.A.String(), Family: FamilyIPv4})
			}
		case *mdns.AAAA:
			if family == FamilyIPv6 {
				out = append(out, AddressInfo{IP: record.AAAA.String(), Family: FamilyIPv6})
			}
		}
	}
	return out
}

// isTimeout reports whether err is a deadline expiry.
func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

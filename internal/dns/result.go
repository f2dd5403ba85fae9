package dns

import (
	"math/rand/v2"
	"strings"
	"time"

	mdns "github.com/miekg/dns"
)

// AddressInfo is one resolved address. It is an immutable value; the
// orderable unit of a Result.
type AddressInfo struct {
	// IP is the literal address text.
	IP string
	// Family is the address family.
	Family Family
	// Zone is the IPv6 scope zone, if the system resolver reported one.
	Zone string
}

// String returns the address, with its scope zone when present.
func (a AddressInfo) String() string {
	if a.Zone != "" {
		return a.IP + "%" + a.Zone
	}
	return a.IP
}

// Result is the outcome of one resolution: an ordered address list plus
// the raw answer records kept for diagnostics. Rotate and Shuffle are
// the only sanctioned mutations after construction.
type Result struct {
	// Addresses is the ordered address list, best candidate first.
	Addresses []AddressInfo
	// Records holds the raw DNS answer records, when the query path
	// produced any.
	Records []mdns.RR
	// FetchedAt is when the resolution completed.
	FetchedAt time.Time
}

// Rotate moves the first address to the end, cycling through candidates
// across successive uses of a cached result.
func (r *Result) Rotate() {
	if len(r.Addresses) < 2 {
		return
	}
	first := r.Addresses[0]
	copy(r.Addresses, r.Addresses[1:])
	r.Addresses[len(r.Addresses)-1] = first
}

// Shuffle randomizes the address order.
func (r *Result) Shuffle() {
	rand.Shuffle(len(r.Addresses), func(i, j int) {
		r.Addresses[i], r.Addresses[j] = r.Addresses[j], r.Addresses[i]
	})
}

// Clone returns a copy whose address order mutates independently.
// The raw records are shared; they are never modified after construction.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	copied := &Result{
		Addresses: make([]AddressInfo, len(r.Addresses)),
		Records:   r.Records,
		FetchedAt: r.FetchedAt,
	}
	copy(copied.Addresses, r.Addresses)
	return copied
}

// First returns the first address of the given family.
func (r *Result) First(family Family) (AddressInfo, bool) {
	for _, addr := range r.Addresses {
		if addr.Family == family {
			return addr, true
		}
	}
	return AddressInfo{}, false
}

// Text renders the result in resolution-record form: a UTC timestamp
// line followed by one raw record per line. Useful when archiving what
// the crawl observed.
func (r *Result) Text() string {
	var b strings.Builder
	b.WriteString(r.FetchedAt.UTC().Format("20060102150405"))
	b.WriteString("\n")
	for _, rr := range r.Records {
		b.WriteString(rr.String())
		b.WriteString("\n")
	}
	return b.String()
}

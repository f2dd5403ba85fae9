package dns

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	mdns "github.com/miekg/dns"

	"github.com/skitterhq/skitter/internal/cache"
	"github.com/skitterhq/skitter/internal/errs"
	"github.com/skitterhq/skitter/internal/hook"
)

// Resolver cache defaults.
const (
	// DefaultCacheSize bounds the number of cached resolutions.
	DefaultCacheSize = 100
	// DefaultCacheTTL is how long a cached resolution stays live.
	DefaultCacheTTL = time.Hour
)

// SystemLookup is the slice of net.Resolver the fallback path needs.
// *net.Resolver satisfies it.
type SystemLookup interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// cacheKey identifies one cached resolution. The family preference is
// part of the key: an ipv4-only crawl must never be served addresses
// cached for an any-family crawl.
type cacheKey struct {
	host string
	pref FamilyPreference
}

// Resolver turns hostnames into address lists for the crawl.
//
// The resolution order is fixed: the resolve-hostname hook may first
// substitute the name, then the cache is consulted, then each family in
// the preference is queried in turn, then the system resolver gets one
// shot, and only then does the resolution fail. A family with no records
// is not fatal; a broken network path is, immediately.
//
// Design decision: Concurrent resolutions of the same host each query
// the network. Deduplicating in-flight lookups would change the observed
// DNS traffic, and cached results make the window small anyway.
type Resolver struct {
	reg     *hook.Registry
	client  *Client
	system  SystemLookup
	pref    FamilyPreference
	rotate  bool
	timeout time.Duration
	logger  *slog.Logger

	// mu serializes cache entry mutation: a cache hit snapshots the
	// entry and rotates the stored order in one step.
	mu    sync.Mutex
	cache *cache.FIFO[cacheKey, *Result]
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithFamilyPreference restricts which address families resolve.
func WithFamilyPreference(pref FamilyPreference) Option {
	return func(r *Resolver) { r.pref = pref }
}

// WithRotate cycles through a cached result's addresses on each hit and
// shuffles fresh results, spreading load across a host's addresses.
func WithRotate(rotate bool) Option {
	return func(r *Resolver) { r.rotate = rotate }
}

// WithCache sizes the resolution cache.
func WithCache(size int, ttl time.Duration) Option {
	return func(r *Resolver) { r.cache = cache.New[cacheKey, *Result](size, ttl) }
}

// WithoutCache disables resolution caching entirely.
func WithoutCache() Option {
	return func(r *Resolver) { r.cache = nil }
}

// WithSystemLookup replaces the system-resolver fallback. Passing nil
// disables the fallback.
func WithSystemLookup(lookup SystemLookup) Option {
	return func(r *Resolver) { r.system = lookup }
}

// WithTimeout bounds each full resolution.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Resolver) { r.timeout = timeout }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// NewResolver returns a Resolver querying through client. It registers
// the resolve-hostname hook and the resolve-result event on reg.
func NewResolver(reg *hook.Registry, client *Client, opts ...Option) (*Resolver, error) {
	r := &Resolver{
		reg:    reg,
		client: client,
		system: net.DefaultResolver,
		pref:   FamilyAny,
		cache:  cache.New[cacheKey, *Result](DefaultCacheSize, DefaultCacheTTL),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := reg.Hooks.Register(hook.ResolveHostname); err != nil {
		return nil, fmt.Errorf("register resolve-hostname: %w", err)
	}
	if err := reg.Events.Register(hook.ResolveResult); err != nil {
		return nil, fmt.Errorf("register resolve-result: %w", err)
	}
	return r, nil
}

// Resolve returns the addresses for host, consulting the hook, the
// cache, the configured DNS servers, and finally the system resolver.
// The returned Result is the caller's to reorder; cached state stays
// canonical.
func (r *Resolver) Resolve(ctx context.Context, host string) (*Result, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	host, err := r.overrideHost(ctx, host)
	if err != nil {
		return nil, err
	}

	key := cacheKey{host: host, pref: r.pref}
	if result, ok := r.fromCache(key); ok {
		r.logger.Debug("resolver cache hit", "host", host)
		return result, nil
	}

	result, err := r.lookup(ctx, host)
	if err != nil {
		return nil, err
	}
	r.store(key, result)

	if err := r.reg.Events.Notify(ctx, hook.ResolveResult, host, result); err != nil {
		return nil, err
	}
	r.logger.Debug("resolved hostname",
		"host", host,
		"addresses", len(result.Addresses))

	out := result.Clone()
	if r.rotate {
		out.Shuffle()
	}
	return out, nil
}

// overrideHost lets the resolve-hostname hook substitute the name.
func (r *Resolver) overrideHost(ctx context.Context, host string) (string, error) {
	if !r.reg.Hooks.IsConnected(hook.ResolveHostname) {
		return host, nil
	}
	value, err := r.reg.Hooks.Call(ctx, hook.ResolveHostname, host)
	if err != nil {
		return "", fmt.Errorf("resolve-hostname hook: %w", err)
	}
	override, ok := value.(string)
	if !ok || override == "" || override == host {
		return host, nil
	}
	r.logger.Debug("hostname overridden by hook", "host", host, "override", override)
	return override, nil
}

// fromCache snapshots a cached entry. In rotate mode the stored entry is
// rotated after the snapshot, so consecutive hits walk the address list.
func (r *Resolver) fromCache(key cacheKey) (*Result, bool) {
	if r.cache == nil {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cached, ok := r.cache.Get(key)
	if !ok {
		return nil, false
	}
	snapshot := cached.Clone()
	if r.rotate {
		cached.Rotate()
	}
	return snapshot, true
}

// store writes a fresh canonical result into the cache.
func (r *Resolver) store(key cacheKey, result *Result) {
	if r.cache == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Set(key, result)
}

// lookup runs the family query loop and the one-shot system fallback.
func (r *Resolver) lookup(ctx context.Context, host string) (*Result, error) {
	var (
		addresses []AddressInfo
		records   []mdns.RR
	)
	for _, family := range r.pref.Families() {
		addrs, rrs, err := r.client.Query(ctx, host, family)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, addrs...)
		records = append(records, rrs...)
	}

	if len(addresses) == 0 && r.system != nil {
		fallback, err := r.systemFallback(ctx, host)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, fallback...)
	}

	if len(addresses) == 0 {
		return nil, &errs.DNSNotFoundError{Host: host}
	}
	return &Result{
		Addresses: addresses,
		Records:   records,
		FetchedAt: time.Now(),
	}, nil
}

// systemFallback asks the system resolver once, filtered to the family
// preference. A missing-name answer is an empty result, not an error;
// anything else that goes wrong is a NetworkError.
func (r *Resolver) systemFallback(ctx context.Context, host string) ([]AddressInfo, error) {
	ipAddrs, err := r.system.LookupIPAddr(ctx, host)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return nil, nil
		}
		return nil, &errs.NetworkError{
			Op:      "system lookup",
			Host:    host,
			Timeout: isTimeout(err),
			Err:     err,
		}
	}

	var out []AddressInfo
	for _, addr := range ipAddrs {
		info := AddressInfo{Family: FamilyIPv6, IP: addr.IP.String(), Zone: addr.Zone}
		if v4 := addr.IP.To4(); v4 != nil {
			info = AddressInfo{Family: FamilyIPv4, IP: v4.String()}
		}
		if r.pref.Accepts(info.Family) {
			out = append(out, info)
		}
	}
	return out, nil
}

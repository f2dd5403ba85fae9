package urlfilter

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/skitterhq/skitter/internal/model"
)

// SchemeFilter passes URLs whose scheme is in its allow list.
type SchemeFilter struct {
	allowed map[string]bool
}

// NewSchemeFilter returns a SchemeFilter allowing the given schemes.
func NewSchemeFilter(schemes ...string) *SchemeFilter {
	allowed := make(map[string]bool, len(schemes))
	for _, s := range schemes {
		allowed[strings.ToLower(s)] = true
	}
	return &SchemeFilter{allowed: allowed}
}

// Name identifies the filter in logs.
func (f *SchemeFilter) Name() string { return "scheme" }

// Test reports whether the URL's scheme is allowed.
func (f *SchemeFilter) Test(info *model.URLInfo, _ *model.URLRecord) bool {
	return f.allowed[info.Scheme]
}

// HostFilter passes URLs on the listed hosts or their subdomains.
type HostFilter struct {
	hosts []string
}

// NewHostFilter returns a HostFilter for the given hosts. A URL passes
// when its host equals a listed host or is a subdomain of one.
func NewHostFilter(hosts ...string) *HostFilter {
	lowered := make([]string, 0, len(hosts))
	for _, h := range hosts {
		lowered = append(lowered, strings.ToLower(h))
	}
	return &HostFilter{hosts: lowered}
}

// Name identifies the filter in logs.
func (f *HostFilter) Name() string { return "host" }

// Test reports whether the URL's host matches the allow list.
func (f *HostFilter) Test(info *model.URLInfo, _ *model.URLRecord) bool {
	for _, h := range f.hosts {
		if info.Host == h || strings.HasSuffix(info.Host, "."+h) {
			return true
		}
	}
	return false
}

// LevelFilter passes URLs within the crawl depth limit. Page requisites
// track their own inline depth so a stylesheet's images still load at
// the page depth limit.
type LevelFilter struct {
	maxLevel       int
	maxInlineLevel int
}

// DefaultMaxInlineLevel is how many requisite hops past a page are
// followed.
const DefaultMaxInlineLevel = 5

// NewLevelFilter returns a LevelFilter capping page depth at maxLevel.
// A maxLevel of zero means unlimited page depth.
func NewLevelFilter(maxLevel int) *LevelFilter {
	return &LevelFilter{maxLevel: maxLevel, maxInlineLevel: DefaultMaxInlineLevel}
}

// Name identifies the filter in logs.
func (f *LevelFilter) Name() string { return "level" }

// Test reports whether the record is within depth limits.
func (f *LevelFilter) Test(_ *model.URLInfo, record *model.URLRecord) bool {
	if record.InlineLevel > 0 {
		return record.InlineLevel <= f.maxInlineLevel
	}
	if f.maxLevel == 0 {
		return true
	}
	return record.Level <= f.maxLevel
}

// RegexFilter passes URLs matching an accept pattern and not matching a
// reject pattern. Either pattern may be empty.
type RegexFilter struct {
	accept *regexp.Regexp
	reject *regexp.Regexp
}

// NewRegexFilter compiles accept and reject patterns. Empty strings
// disable the respective check.
func NewRegexFilter(accept, reject string) (*RegexFilter, error) {
	f := &RegexFilter{}
	var err error
	if accept != "" {
		if f.accept, err = regexp.Compile(accept); err != nil {
			return nil, fmt.Errorf("compile accept pattern: %w", err)
		}
	}
	if reject != "" {
		if f.reject, err = regexp.Compile(reject); err != nil {
			return nil, fmt.Errorf("compile reject pattern: %w", err)
		}
	}
	return f, nil
}

// Name identifies the filter in logs.
func (f *RegexFilter) Name() string { return "regex" }

// Test reports whether the URL string satisfies both patterns.
func (f *RegexFilter) Test(info *model.URLInfo, _ *model.URLRecord) bool {
	if f.accept != nil && !f.accept.MatchString(info.Raw) {
		return false
	}
	if f.reject != nil && f.reject.MatchString(info.Raw) {
		return false
	}
	return true
}

// GlobFilter matches shell-style patterns against the file name, the
// part of the path after the last slash. Directory URLs carry no file
// name and always pass, so recursion into them is never cut off by an
// accept list.
type GlobFilter struct {
	accept []string
	reject []string
}

// NewGlobFilter validates and stores the glob patterns. An empty
// accept list admits every file name not rejected.
func NewGlobFilter(accept, reject []string) (*GlobFilter, error) {
	for _, pattern := range append(append([]string{}, accept...), reject...) {
		if _, err := path.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
		}
	}
	return &GlobFilter{accept: accept, reject: reject}, nil
}

// Name identifies the filter in logs.
func (f *GlobFilter) Name() string { return "glob" }

// Test reports whether the URL's file name satisfies the glob lists.
func (f *GlobFilter) Test(info *model.URLInfo, _ *model.URLRecord) bool {
	name := info.Path[strings.LastIndexByte(info.Path, '/')+1:]
	if name == "" {
		return true
	}
	for _, pattern := range f.reject {
		if ok, _ := path.Match(pattern, name); ok {
			return false
		}
	}
	if len(f.accept) == 0 {
		return true
	}
	for _, pattern := range f.accept {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

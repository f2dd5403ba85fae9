package model

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

// URL parsing errors.
var (
	// ErrEmptyURL is returned when the URL string is empty.
	ErrEmptyURL = errors.New("url cannot be empty")
	// ErrUnsupportedScheme is returned for schemes other than http,
	// https, and ftp.
	ErrUnsupportedScheme = errors.New("unsupported scheme: expected http, https, or ftp")
	// ErrMissingHost is returned when the URL has no host component.
	ErrMissingHost = errors.New("url has no host")
	// ErrInvalidPort is returned when the port is outside 1-65535.
	ErrInvalidPort = errors.New("invalid port: must be between 1 and 65535")
)

// URLInfo is the parsed, normalized form of a crawl URL. Normalization
// lowercases the scheme and host, converts international hostnames to
// their ASCII form, strips the fragment, defaults an empty path to "/",
// and elides the port when it matches the scheme default. Two URLs that
// normalize identically are the same frontier entry.
type URLInfo struct {
	// Raw is the rebuilt normalized URL string.
	Raw string `json:"url"`

	// Scheme is the lowercase scheme: "http", "https", or "ftp".
	Scheme string `json:"scheme"`

	// Username is the userinfo name, if present.
	Username string `json:"username,omitempty"`

	// Password is the userinfo password, if present.
	Password string `json:"password,omitempty"`

	// Host is the lowercase ASCII hostname or address literal.
	Host string `json:"host"`

	// Port is the explicit or scheme-default port.
	Port int `json:"port"`

	// Path is the escaped path, at minimum "/".
	Path string `json:"path"`

	// Query is the raw query string without the leading "?".
	Query string `json:"query,omitempty"`
}

// schemeDefaultPorts maps supported schemes to their default ports.
var schemeDefaultPorts = map[string]int{
	"http":  80,
	"https": 443,
	"ftp":   21,
}

// ParseURL parses and normalizes an absolute crawl URL.
func ParseURL(raw string) (*URLInfo, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrEmptyURL
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", raw, err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	defaultPort, ok := schemeDefaultPorts[scheme]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, parsed.Scheme)
	}

	host, err := normalizeHost(parsed.Hostname())
	if err != nil {
		return nil, err
	}

	port := defaultPort
	if p := parsed.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPort, p)
		}
	}

	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}

	info := &URLInfo{
		Scheme: scheme,
		Host:   host,
		Port:   port,
		Path:   path,
		Query:  parsed.RawQuery,
	}
	if parsed.User != nil {
		info.Username = parsed.User.Username()
		info.Password, _ = parsed.User.Password()
	}
	info.Raw = info.build()
	return info, nil
}

// normalizeHost lowercases the hostname and converts international names
// to ASCII. Address literals pass through unchanged.
func normalizeHost(host string) (string, error) {
	if host == "" {
		return "", ErrMissingHost
	}
	host = strings.ToLower(host)
	if net.ParseIP(host) != nil {
		return host, nil
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("normalize host %q: %w", host, err)
	}
	return ascii, nil
}

// build reassembles the normalized URL string.
func (u *URLInfo) build() string {
	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")
	if u.Username != "" {
		b.WriteString(url.User(u.Username).String())
		if u.Password != "" {
			b.WriteString(":")
			b.WriteString(url.QueryEscape(u.Password))
		}
		b.WriteString("@")
	}
	if strings.Contains(u.Host, ":") {
		b.WriteString("[")
		b.WriteString(u.Host)
		b.WriteString("]")
	} else {
		b.WriteString(u.Host)
	}
	if !u.IsDefaultPort() {
		b.WriteString(":")
		b.WriteString(strconv.Itoa(u.Port))
	}
	b.WriteString(u.Path)
	if u.Query != "" {
		b.WriteString("?")
		b.WriteString(u.Query)
	}
	return b.String()
}

// String returns the normalized URL.
func (u *URLInfo) String() string { return u.Raw }

// IsDefaultPort reports whether the port is the scheme's default.
func (u *URLInfo) IsDefaultPort() bool {
	return u.Port == schemeDefaultPorts[u.Scheme]
}

// HostPort returns the host joined with the effective port, suitable for
// dialing.
func (u *URLInfo) HostPort() string {
	return net.JoinHostPort(u.Host, strconv.Itoa(u.Port))
}

// Clone returns an independent copy. Hooks receive clones so callback
// mutations never leak into engine state.
func (u *URLInfo) Clone() *URLInfo {
	if u == nil {
		return nil
	}
	copied := *u
	return &copied
}

package config

import "time"

// HostConfig holds host-specific configuration for a single crawled host.
// This allows customizing crawl behavior per site, for example a slower
// request pace for a fragile server or a login cookie for a members area.
type HostConfig struct {
	// Delay overrides the global crawl delay for this host.
	// If zero, the global CrawlDelay is used. Accepts duration strings
	// such as "500ms" or "2s".
	Delay time.Duration `yaml:"delay,omitempty"`

	// UserAgent overrides the global User-Agent header for this host.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Cookie is an HTTP cookie to send when crawling this host.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this host.
	Headers map[string]string `yaml:"headers,omitempty"`

	// MaxLevel overrides the global recursion depth for this host.
	// If zero, the global MaxLevel is used.
	MaxLevel int `yaml:"maxLevel,omitempty"`

	// IgnorePatterns are file name globs to skip during crawling,
	// for example "*.iso" or "print_*".
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns are file name globs to crawl. If specified, only
	// file names matching these patterns are fetched.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// File represents the structure of the .skitter configuration file.
type File struct {
	// Hosts maps host names to their host-specific configurations.
	// Keys are bare host names without a scheme (e.g., "example.com").
	Hosts map[string]HostConfig `yaml:"hosts,omitempty"`

	// Defaults contains default host configuration applied to all hosts
	// unless overridden in the host-specific configuration.
	Defaults HostConfig `yaml:"defaults,omitempty"`
}

// GetHostConfig returns the configuration for a specific host.
// It merges the host-specific configuration with defaults. The returned
// value owns its Headers map, so callers may modify it freely.
func (cf *File) GetHostConfig(host string) HostConfig {
	// Start with defaults
	result := cf.Defaults

	// The headers map would otherwise be shared with Defaults, and an
	// override below would write through into it
	if len(result.Headers) > 0 {
		headers := make(map[string]string, len(result.Headers))
		for k, v := range result.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	// Override with host-specific configuration if present
	if hostConfig, ok := cf.Hosts[host]; ok {
		if hostConfig.Delay != 0 {
			result.Delay = hostConfig.Delay
		}
		if hostConfig.UserAgent != "" {
			result.UserAgent = hostConfig.UserAgent
		}
		if hostConfig.Cookie != "" {
			result.Cookie = hostConfig.Cookie
		}
		if hostConfig.MaxLevel != 0 {
			result.MaxLevel = hostConfig.MaxLevel
		}
		if len(hostConfig.Headers) > 0 {
			if result.Headers == nil {
				result.Headers = make(map[string]string)
			}
			for k, v := range hostConfig.Headers {
				result.Headers[k] = v
			}
		}
		if len(hostConfig.IgnorePatterns) > 0 {
			result.IgnorePatterns = hostConfig.IgnorePatterns
		}
		if len(hostConfig.FollowPatterns) > 0 {
			result.FollowPatterns = hostConfig.FollowPatterns
		}
	}

	return result
}

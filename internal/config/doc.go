// Package config provides configuration structures and utilities for skitter.
// It defines the main options for recursive crawling, per-host overrides
// loaded from a .skitter YAML file, and report generation preferences.
package config

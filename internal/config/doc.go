// Package config holds runtime configuration for wplinks.
//
// A Config is built from CLI flags and validated once before analysis
// begins. Site-specific settings (base URL, related-posts field name,
// ignore-non-posts policy) come from a .wplinks YAML file or from
// positional command-line arguments.
package config

package config

import (
	"net/url"
	"strings"
)

// Site holds per-site analysis settings.
// A site either comes from the .wplinks config file or is synthesized from
// a positional command-line argument with global defaults.
type Site struct {
	// Name is the short site name used in file names and logs.
	// Defaults to the URL host when empty.
	Name string `yaml:"name,omitempty"`

	// URL is the site base URL (e.g. "https://example.com").
	URL string `yaml:"url"`

	// RelatedField overrides the global ACF field name for this site.
	RelatedField string `yaml:"relatedField,omitempty"`

	// IgnoreNonPosts overrides the global disambiguation policy.
	// nil means "use the global setting".
	IgnoreNonPosts *bool `yaml:"ignoreNonPosts,omitempty"`

	// PerPage overrides the global pagination page size.
	PerPage int `yaml:"perPage,omitempty"`
}

// File represents the structure of the .wplinks configuration file.
type File struct {
	// Sites lists the sites to analyze, in order.
	Sites []Site `yaml:"sites,omitempty"`

	// Defaults contains settings applied to every site unless overridden
	// in the site entry.
	Defaults Site `yaml:"defaults,omitempty"`
}

// Merged returns the site entry at index i with file defaults applied.
func (f *File) Merged(i int) Site {
	s := f.Sites[i]
	if s.RelatedField == "" {
		s.RelatedField = f.Defaults.RelatedField
	}
	if s.IgnoreNonPosts == nil {
		s.IgnoreNonPosts = f.Defaults.IgnoreNonPosts
	}
	if s.PerPage == 0 {
		s.PerPage = f.Defaults.PerPage
	}
	return s
}

// Validate checks that the site entry is usable.
func (s Site) Validate() error {
	if strings.TrimSpace(s.URL) == "" {
		return ErrEmptySiteURL
	}
	u, err := url.Parse(s.URL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidSiteURL
	}
	return nil
}

// DisplayName returns the site name, falling back to the URL host.
func (s Site) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	if u, err := url.Parse(s.URL); err == nil && u.Host != "" {
		return u.Host
	}
	return s.URL
}

// EffectiveRelatedField returns the site's field name or the global one.
func (s Site) EffectiveRelatedField(global string) string {
	if s.RelatedField != "" {
		return s.RelatedField
	}
	return global
}

// EffectiveIgnoreNonPosts returns the site's policy or the global one.
func (s Site) EffectiveIgnoreNonPosts(global bool) bool {
	if s.IgnoreNonPosts != nil {
		return *s.IgnoreNonPosts
	}
	return global
}

// EffectivePerPage returns the site's page size or the global one.
func (s Site) EffectivePerPage(global int) int {
	if s.PerPage > 0 {
		return s.PerPage
	}
	return global
}

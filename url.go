package interlinker

import (
	"net/url"
	"strings"
)

// ResolveURL builds the link target for a page slug. Absolute slugs are
// returned as-is, root-relative slugs resolve against the base host and
// anything else is appended to the base path.
func ResolveURL(baseURL, slug string) string {
	slug = strings.TrimSpace(slug)
	if parsed, err := url.Parse(slug); err == nil && parsed.IsAbs() {
		return slug
	}

	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || baseURL == "" {
		return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(slug, "/")
	}

	if strings.HasPrefix(slug, "/") {
		ref, err := url.Parse(slug)
		if err != nil {
			return base.String()
		}
		return base.ResolveReference(ref).String()
	}

	return base.JoinPath(slug).String()
}

// trimSlash normalises a link target for comparison
func trimSlash(u string) string {
	return strings.TrimRight(strings.TrimSpace(u), "/")
}

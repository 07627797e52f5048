package scraper

import (
	"fmt"
	"net/url"
	"strings"
)

// URLKey normalizes a URL into the identity used to group selector
// statistics. It lowercases the scheme and host, removes default
// ports, and drops the query string and fragment. The path is kept
// with any trailing slash trimmed, so https://Example.com/a/?x=1 and
// https://example.com/a key identically.
func URLKey(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url %q is not absolute", rawURL)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme == "http" {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.RawQuery = ""
	u.Fragment = ""
	u.User = nil

	path := strings.TrimSuffix(u.Path, "/")

	return u.Scheme + "://" + u.Host + path, nil
}

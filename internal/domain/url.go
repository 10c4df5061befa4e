package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// CleanURL validates an operator supplied partner URL and returns it in the
// form the page is fetched from: scheme and host lowercased, fragment
// dropped, path and query untouched.
func CleanURL(raw string) (string, error) {
	u, err := parseWebsiteURL(raw)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// NormalizeURL returns the unique key form of a partner website URL. On top
// of CleanURL it drops a trailing slash so /post and /post/ share one demo.
// Percent-encoding is kept as is. The key is never fetched.
func NormalizeURL(raw string) (string, error) {
	u, err := parseWebsiteURL(raw)
	if err != nil {
		return "", err
	}

	escaped := strings.TrimRight(u.EscapedPath(), "/")
	path, err := url.PathUnescape(escaped)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	u.Path = path
	u.RawPath = escaped

	return u.String(), nil
}

// UniqueURL is NormalizeURL for URLs that already passed validation.
func UniqueURL(websiteURL string) string {
	if k, err := NormalizeURL(websiteURL); err == nil {
		return k
	}
	return websiteURL
}

func parseWebsiteURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidURL)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	return u, nil
}

// Host returns the lowercase hostname (without port) of a website URL.
func Host(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

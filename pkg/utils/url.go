package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net"
	"net/url"
	"strings"
)

var errUnsupportedScheme = errors.New("unsupported url scheme")

// skipPatterns mark listing pages and static assets that are never articles.
var skipPatterns = []string{
	"/tag/", "/category/", "/author/", "/page/",
	"/search/", "/archive/", "/feed/", "/rss/",
	".jpg", ".png", ".gif", ".pdf", ".css", ".js",
}

// HashURL creates a SHA256 hash of a URL string.
// This is useful for creating consistent, safe keys for Redis.
func HashURL(rawURL string) string {
	h := sha256.New()
	h.Write([]byte(rawURL))
	return hex.EncodeToString(h.Sum(nil))
}

// ToAbsoluteURL converts a relative URL to an absolute URL given a base URL.
func ToAbsoluteURL(base *url.URL, relative string) (string, error) {
	relURL, err := url.Parse(strings.TrimSpace(relative))
	if err != nil {
		return "", err
	}
	return base.ResolveReference(relURL).String(), nil
}

// CanonicalURL normalizes an absolute http(s) URL into the form used as the
// deduplication key: lower-case scheme and host, no fragment, no default
// port, and "/" for an empty path.
func CanonicalURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", err
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errUnsupportedScheme
	}
	if u.Host == "" {
		return "", errors.New("url has no host")
	}

	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" && !isDefaultPort(u.Scheme, port) {
		host = net.JoinHostPort(host, port)
	}
	u.Host = host
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}

// ResolveCanonical resolves href against base and canonicalizes the result.
func ResolveCanonical(base *url.URL, href string) (string, error) {
	abs, err := ToAbsoluteURL(base, href)
	if err != nil {
		return "", err
	}
	return CanonicalURL(abs)
}

// IsArticleURL reports whether the URL could point at an article, rejecting
// tag/category/author/pagination listings and static assets.
func IsArticleURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, p := range skipPatterns {
		if strings.Contains(lower, p) {
			return false
		}
	}
	return true
}

func isDefaultPort(scheme, port string) bool {
	return (scheme == "http" && port == "80") || (scheme == "https" && port == "443")
}

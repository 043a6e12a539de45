// Package normalize cleans user supplied text before it reaches the store.
package normalize

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/idna"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// htmlTagPattern matches common HTML tags to detect if a string contains HTML.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote|table|pre|code)[\s>/]`)

// Text strips null bytes and surrounding whitespace.
func Text(s string) string {
	return strings.TrimSpace(sanitizeString(s))
}

// TagName canonicalizes a tag name: NFKC folded, trimmed, inner whitespace
// collapsed to single spaces. Case is preserved.
//
//	"  Sci Fi  " → "Sci Fi"
//	"ｆｕｌｌ　ｗｉｄｔｈ" → "full width"
func TagName(raw string) string {
	s := norm.NFKC.String(sanitizeString(raw))
	return strings.Join(strings.Fields(s), " ")
}

// Fold returns the Unicode case folded form used for case-insensitive matching.
//
//	"Émile" → "émile"
//	"STRASSE" and "Straße" → "strasse"
func Fold(s string) string {
	return cases.Fold().String(s)
}

// TagNames normalizes every name, dropping blanks and duplicates.
// Input order is kept.
func TagNames(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, r := range raw {
		n := TagName(r)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// URL lowercases the scheme and converts the host to its ASCII (punycode)
// form so the same page submitted twice dedupes. Empty input stays empty.
func URL(raw string) (string, error) {
	raw = Text(raw)
	if raw == "" {
		return "", nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}

	host, err := idna.Lookup.ToASCII(u.Hostname())
	if err != nil {
		return "", fmt.Errorf("normalize host: %w", err)
	}
	if port := u.Port(); port != "" {
		host += ":" + port
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = host
	return u.String(), nil
}

// DecodeBase64 decodes a selector argument sent as base64. Both the URL-safe
// and standard alphabets are accepted, padded or not.
func DecodeBase64(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, enc := range []*base64.Encoding{
		base64.URLEncoding, base64.RawURLEncoding,
		base64.StdEncoding, base64.RawStdEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return string(b), nil
		}
	}
	return "", fmt.Errorf("invalid base64 %q", s)
}

// Detail converts HTML detail text to Markdown.
// Input without HTML is returned trimmed but otherwise unchanged.
func Detail(s string) string {
	s = Text(s)
	if s == "" || !containsHTML(s) {
		return s
	}

	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(markdown)
}

func containsHTML(s string) bool {
	return htmlTagPattern.MatchString(strings.ToLower(s))
}

// sanitizeString removes null bytes, which sqlite and JSON both mishandle.
func sanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, s)
}

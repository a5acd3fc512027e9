// Package project implements Document Projection (spec.md §4.I): pure
// transformations from relational Entity Rows to denormalized search
// documents, including URL composition and link-type extraction.
package project

import "net/url"

// ExtractLinkType parses u and returns its leading subdomain segment,
// dropping a "www." prefix first (spec.md §4.I/§8):
//
//	https://www.google.com/search   -> "google"
//	https://subdomain.example.co.uk -> "subdomain"
//	http://github.com               -> "github"
//	ftp://testsite.org              -> "testsite"
//	not-a-url                       -> "", false
//
// This deliberately preserves the upstream quirk that
// www.example.com misclassifies as "example" while
// subdomain.example.co.uk classifies as "subdomain" (spec.md §9 Open
// Questions — locked behavior, not a bug to fix here).
func ExtractLinkType(u string) (string, bool) {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return "", false
	}
	host := parsed.Hostname()
	if host == "" {
		return "", false
	}
	host = trimWWW(host)
	seg := firstSegment(host)
	if seg == "" {
		return "", false
	}
	return seg, true
}

func trimWWW(host string) string {
	const prefix = "www."
	if len(host) > len(prefix) && host[:len(prefix)] == prefix {
		return host[len(prefix):]
	}
	return host
}

func firstSegment(host string) string {
	for i := 0; i < len(host); i++ {
		if host[i] == '.' {
			return host[:i]
		}
	}
	return host
}

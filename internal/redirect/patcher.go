// Package redirect rewrites the target URL inside an HTML meta-refresh
// document, preserving everything else byte for byte.
package redirect

import (
	"fmt"
	"regexp"
)

// Matches up to and including "url=" inside a refresh meta tag (group 1),
// then the URL itself (group 2). Only group 2 is replaced, so a document
// already pointing at the new URL comes back byte-identical.
var metaRefreshPattern = regexp.MustCompile(
	`(<meta[^>]*http-equiv=["']refresh["'][^>]*content=["'][^"']*url=)([^"'>\s]+)`)

// Fallback when the document has no refresh tag: any bare URL under a
// recognized tunnel subdomain.
var bareURLPattern = regexp.MustCompile(
	`https://[a-zA-Z0-9-]+\.(?:trycloudflare|cfargotunnel)\.com[^\s"'<>]*`)

// Patch points doc at newURL. A refresh meta tag wins over a bare tunnel
// URL; exactly one substitution either way. A document with neither is
// discarded and replaced by the minimal redirect document.
func Patch(doc, newURL string) string {
	if loc := metaRefreshPattern.FindStringSubmatchIndex(doc); loc != nil {
		start, end := loc[4], loc[5]
		return doc[:start] + newURL + doc[end:]
	}

	if loc := bareURLPattern.FindStringIndex(doc); loc != nil {
		return doc[:loc[0]] + newURL + doc[loc[1]:]
	}

	return Synthesize(newURL)
}

// Synthesize builds the minimal redirect document.
func Synthesize(url string) string {
	return fmt.Sprintf(
		`<html><head><meta http-equiv="refresh" content="0; url=%s"></head></html>`,
		url)
}

// Package mentions counts and highlights brand-name occurrences in
// model-generated text. Matching is case-insensitive literal substring
// matching: partial-word hits count, and brand names containing
// regexp-special characters are matched as plain text.
package mentions

import (
	"html"
	"regexp"
	"sort"
	"strings"
)

// Count returns the number of non-overlapping case-insensitive occurrences of
// each brand in text. Brands that are blank after trimming are skipped; the
// remaining brands are counted independently of one another, so overlapping
// brand names (e.g. "Coco" and "Cocoa") each get their own count.
func Count(text string, brands []string) map[string]int {
	counts := make(map[string]int)
	for _, brand := range brands {
		if strings.TrimSpace(brand) == "" {
			continue
		}
		counts[brand] = len(brandPattern(brand).FindAllStringIndex(text, -1))
	}
	return counts
}

// Highlight returns text with every brand occurrence wrapped in
// <mark class="brand-highlight">…</mark> and all other content HTML-escaped,
// so the output is safe to render as rich text. Matches are collected across
// all brands in a single pass over non-overlapping spans: the earliest match
// wins, and on a shared start position the longest brand wins, so no marker
// ever nests inside another.
func Highlight(text string, brands []string) string {
	spans := matchSpans(text, brands)
	if len(spans) == 0 {
		return html.EscapeString(text)
	}

	var sb strings.Builder
	pos := 0
	for _, s := range spans {
		sb.WriteString(html.EscapeString(text[pos:s.start]))
		sb.WriteString(`<mark class="brand-highlight">`)
		sb.WriteString(html.EscapeString(text[s.start:s.end]))
		sb.WriteString(`</mark>`)
		pos = s.end
	}
	sb.WriteString(html.EscapeString(text[pos:]))
	return sb.String()
}

type span struct {
	start, end int
}

// matchSpans collects all brand matches and reduces them to a sorted,
// non-overlapping set.
func matchSpans(text string, brands []string) []span {
	var all []span
	for _, brand := range brands {
		if strings.TrimSpace(brand) == "" {
			continue
		}
		for _, m := range brandPattern(brand).FindAllStringIndex(text, -1) {
			all = append(all, span{start: m[0], end: m[1]})
		}
	}
	if len(all) == 0 {
		return nil
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].start != all[j].start {
			return all[i].start < all[j].start
		}
		return all[i].end > all[j].end
	})

	kept := all[:1]
	for _, s := range all[1:] {
		if s.start >= kept[len(kept)-1].end {
			kept = append(kept, s)
		}
	}
	return kept
}

// brandPattern compiles a case-insensitive pattern that matches the brand as
// literal text. QuoteMeta keeps names like "C++" or "7-Up (diet)" from being
// interpreted as regexp syntax.
func brandPattern(brand string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + regexp.QuoteMeta(brand))
}

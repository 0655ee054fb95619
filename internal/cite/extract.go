// Package cite extracts proposal citations from raw document text.
//
// Each citation idiom has its own matcher producing (span, target) hits;
// hits are canonicalised and deduplicated before counting, so the same text
// span can never be counted once per idiom.
package cite

import (
	"regexp"
	"sort"
	"strconv"
)

var (
	// :pep:`NNN`
	simpleRoleRe = regexp.MustCompile(":pep:`(\\d+)`")
	// :pep:`label <NNN>` or :pep:`label <NNN#anchor>`; the anchor is dropped.
	labelRoleRe = regexp.MustCompile(":pep:`[^`]*<(\\d+)(?:#[^>]*)?>`")
	// Plain "PEP NNN", case-insensitive. RE2 has no lookbehind, so a
	// leading char class excludes backticked role bodies; \b after the
	// digits rejects numbers embedded in larger tokens ("PEP 123abc").
	plainRe = regexp.MustCompile("(?i)(^|[^`])\\bPEP\\s+(\\d+)\\b")
	// Canonical document URLs, in prose or hyperlink-target definition
	// lines. Leading zeros in the path segment are not significant.
	urlRe = regexp.MustCompile(`https://peps\.python\.org/pep-0*(\d+)`)
)

// hit is one raw match: the byte span of the numeric ID and its value.
type hit struct {
	start, end int
	id         int
}

// Extract returns a mapping from cited proposal ID to occurrence count for
// the given document text. It is a pure function: identical input always
// yields an identical mapping. Self-references are retained; malformed
// fragments are ignored.
func Extract(text string) map[int]int {
	var hits []hit
	hits = appendHits(hits, text, simpleRoleRe, 1)
	hits = appendHits(hits, text, labelRoleRe, 1)
	hits = appendHits(hits, text, plainRe, 2)
	hits = appendHits(hits, text, urlRe, 1)

	// Deterministic order, then drop hits whose span overlaps an already
	// accepted hit for the same target.
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].start != hits[j].start {
			return hits[i].start < hits[j].start
		}
		if hits[i].end != hits[j].end {
			return hits[i].end > hits[j].end
		}
		return hits[i].id < hits[j].id
	})

	counts := make(map[int]int)
	var accepted []hit
	for _, h := range hits {
		if overlapsSameTarget(accepted, h) {
			continue
		}
		accepted = append(accepted, h)
		counts[h.id]++
	}
	return counts
}

// appendHits runs re over text and appends one hit per match, using the
// given submatch group as the numeric ID span.
func appendHits(hits []hit, text string, re *regexp.Regexp, group int) []hit {
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		lo, hi := m[2*group], m[2*group+1]
		if lo < 0 {
			continue
		}
		id, err := strconv.Atoi(text[lo:hi])
		if err != nil {
			// Out-of-range number; not a usable citation.
			continue
		}
		hits = append(hits, hit{start: lo, end: hi, id: id})
	}
	return hits
}

func overlapsSameTarget(accepted []hit, h hit) bool {
	for _, a := range accepted {
		if a.id == h.id && a.start < h.end && h.start < a.end {
			return true
		}
	}
	return false
}

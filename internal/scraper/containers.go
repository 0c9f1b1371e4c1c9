package scraper

import (
	"ad-discovery-scraper/internal/config"
	"ad-discovery-scraper/internal/dom"
	"ad-discovery-scraper/internal/models"
)

// IsAdCandidate reports whether a node looks like a single ad card: it has
// media, enough text, and a sponsored marker, page name or platform link
func IsAdCandidate(n dom.Node) bool {
	if dom.FindFirst(n, "img") == nil && dom.FindFirst(n, "video") == nil {
		return false
	}
	text := dom.TrimmedText(n)
	if runeLen(text) <= MinContainerText {
		return false
	}
	return ContainsAny(text, SponsoredMarkers) ||
		dom.FindFirst(n, `[data-testid*="page"]`) != nil ||
		dom.FindFirst(n, `a[href*="facebook.com"]`) != nil
}

// FindCandidates collects ad candidates from a page in selector order.
// Each element appears once. A wrapper gives way to the candidates inside it
// when one of them names its advertiser, so a feed wrapper never stands in
// for its ads while a card whose header sits outside its creative block
// still yields a single candidate.
func FindCandidates(root dom.Node) []dom.Node {
	var candidates []dom.Node
	seen := make(map[any]bool)
	for _, selector := range CandidateSelectors {
		for _, n := range root.Find(selector) {
			key := n.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			if IsAdCandidate(n) {
				candidates = append(candidates, n)
			}
		}
	}
	return resolveNesting(candidates)
}

// advertiserReader only reads advertiser names, so it needs no indicators
var advertiserReader = NewContentExtractor(config.Indicators{})

func resolveNesting(candidates []dom.Node) []dom.Node {
	isCandidate := make(map[any]bool, len(candidates))
	named := make(map[any]bool, len(candidates))
	for _, c := range candidates {
		isCandidate[c.Key()] = true
		named[c.Key()] = advertiserReader.extractAdvertiser(c) != models.UnknownAdvertiser
	}

	kept := make([]dom.Node, 0, len(candidates))
	for _, c := range candidates {
		wrapsNamed := false
		dom.Walk(c, func(d dom.Node) bool {
			if key := d.Key(); isCandidate[key] && named[key] {
				wrapsNamed = true
			}
			return !wrapsNamed
		})
		if !wrapsNamed {
			kept = append(kept, c)
		}
	}

	// unnamed blocks inside a kept card belong to that card
	covered := make(map[any]bool)
	for _, c := range kept {
		dom.Walk(c, func(d dom.Node) bool {
			if key := d.Key(); isCandidate[key] {
				covered[key] = true
			}
			return true
		})
	}

	out := make([]dom.Node, 0, len(kept))
	for _, c := range kept {
		if !covered[c.Key()] {
			out = append(out, c)
		}
	}
	return out
}

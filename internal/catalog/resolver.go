package catalog

import "strings"

// Resolution is the outcome of mapping a free-text phrase to the catalog.
// Variant is nil when the phrase matched a product without narrowing it down.
type Resolution struct {
	Product *Product
	Variant *Variant
}

const fuzzyCutoff = 0.65

// Resolve maps a free-text query to a (product, variant?) pair. The matching
// ladder is evaluated in order and the first hit wins:
//
//  1. product name and variant matchToken both present in the query
//  2. exact product-name match
//  3. exact matchToken match, if the token is unique across the catalog
//  4. matchToken contained as a substring of the query
//  5. fuzzy similarity against the searchable strings, best single match
//
// A matchToken shared by several products returns ErrAmbiguousMatch so the
// caller can ask for clarification instead of guessing. Anything below the
// fuzzy cutoff returns ErrNoMatch.
func (idx *Index) Resolve(query string) (*Resolution, error) {
	q := normalizeToken(query)
	if q == "" {
		return nil, ErrNoMatch
	}

	// 1. name + token both present
	for i := range idx.products {
		p := &idx.products[i]
		name := normalizeToken(p.Name)
		if name == "" || !strings.Contains(q, name) {
			continue
		}
		for j := range p.Variants {
			v := &p.Variants[j]
			for _, token := range v.MatchTokens() {
				if strings.Contains(q, token) {
					return &Resolution{Product: p, Variant: v}, nil
				}
			}
		}
	}

	// 2. exact product name
	if p, ok := idx.byName[q]; ok {
		return &Resolution{Product: p}, nil
	}

	// 3. exact matchToken, unique across the catalog
	if matches := idx.byToken[q]; len(matches) == 1 {
		return &Resolution{Product: matches[0].Product, Variant: matches[0].Variant}, nil
	} else if len(matches) > 1 {
		return nil, ErrAmbiguousMatch
	}

	// 4. matchToken contained in the query
	var contained []TokenMatch
	seen := make(map[*Product]struct{})
	for i := range idx.products {
		p := &idx.products[i]
		for j := range p.Variants {
			v := &p.Variants[j]
			for _, token := range v.MatchTokens() {
				if strings.Contains(q, token) {
					if _, dup := seen[p]; !dup {
						seen[p] = struct{}{}
						contained = append(contained, TokenMatch{Product: p, Variant: v})
					}
				}
			}
		}
	}
	if len(contained) == 1 {
		return &Resolution{Product: contained[0].Product, Variant: contained[0].Variant}, nil
	}
	if len(contained) > 1 {
		return nil, ErrAmbiguousMatch
	}

	// 5. fuzzy fallback
	var best *searchEntry
	bestScore := 0.0
	for i := range idx.searchable {
		entry := &idx.searchable[i]
		score := similarity(q, entry.text)
		if score > bestScore {
			bestScore = score
			best = entry
		}
	}
	if best != nil && bestScore >= fuzzyCutoff {
		return &Resolution{Product: best.product, Variant: best.variant}, nil
	}

	return nil, ErrNoMatch
}

// similarity scores two strings in [0,1] as twice the length of their longest
// common subsequence over the combined length, which tracks the ratio used by
// difflib-style matchers closely enough for short catalog strings.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	lcs := prev[len(rb)]
	return 2 * float64(lcs) / float64(len(ra)+len(rb))
}

// Recommend returns up to max products whose recommendedFor keywords overlap
// the ordered product names, excluding products already in the order.
func Recommend(products []Product, orderedNames []string, max int) []Product {
	if max <= 0 || len(orderedNames) == 0 {
		return nil
	}

	ordered := make(map[string]struct{}, len(orderedNames))
	for _, name := range orderedNames {
		ordered[normalizeToken(name)] = struct{}{}
	}

	var recs []Product
	for _, p := range products {
		if _, taken := ordered[normalizeToken(p.Name)]; taken {
			continue
		}
		if !keywordOverlap(p.RecommendedFor, orderedNames) {
			continue
		}
		recs = append(recs, p)
		if len(recs) == max {
			break
		}
	}
	return recs
}

func keywordOverlap(keywords []string, orderedNames []string) bool {
	for _, kw := range keywords {
		kwNorm := normalizeToken(kw)
		if kwNorm == "" {
			continue
		}
		for _, name := range orderedNames {
			nameNorm := normalizeToken(name)
			if strings.Contains(kwNorm, nameNorm) || strings.Contains(nameNorm, kwNorm) {
				return true
			}
		}
	}
	return false
}

package catalog

import "strings"

// TokenMatch pairs a product with the variant that owns a match token.
type TokenMatch struct {
	Product *Product
	Variant *Variant
}

type searchEntry struct {
	text    string
	product *Product
	variant *Variant
}

// Index is a normalized, queryable view of a catalog snapshot. It is a pure
// function of its input and safe to rebuild on every inbound message.
type Index struct {
	products   []Product
	byName     map[string]*Product
	byToken    map[string][]TokenMatch
	searchable []searchEntry
}

// BuildIndex normalizes a catalog snapshot into the lookup structures used by
// the resolver: exact name lookup, matchToken lookup (ambiguity-tolerant) and
// a flat list of searchable strings for fuzzy fallback.
func BuildIndex(products []Product) *Index {
	idx := &Index{
		products: products,
		byName:   make(map[string]*Product, len(products)),
		byToken:  make(map[string][]TokenMatch),
	}

	for i := range idx.products {
		p := &idx.products[i]
		name := normalizeToken(p.Name)
		if name == "" {
			continue
		}
		idx.byName[name] = p
		idx.searchable = append(idx.searchable, searchEntry{text: name, product: p})

		for j := range p.Variants {
			v := &p.Variants[j]
			for _, token := range v.MatchTokens() {
				idx.byToken[token] = append(idx.byToken[token], TokenMatch{Product: p, Variant: v})
				idx.searchable = append(idx.searchable,
					searchEntry{text: token, product: p, variant: v},
					searchEntry{text: name + " " + token, product: p, variant: v},
				)
			}
		}
	}

	return idx
}

// Products returns the snapshot the index was built from.
func (idx *Index) Products() []Product {
	return idx.products
}

// ProductByName returns the product with the given name (case-insensitive).
func (idx *Index) ProductByName(name string) (*Product, bool) {
	p, ok := idx.byName[normalizeToken(name)]
	return p, ok
}

// TokenMatches returns every (product, variant) pair owning the given
// matchToken. A token shared across products yields multiple matches.
func (idx *Index) TokenMatches(token string) []TokenMatch {
	return idx.byToken[normalizeToken(token)]
}

// Images resolves the media for a (product, variant?) pair. Resolution order:
// images tagged with the variant id, then images whose label matches the
// variant's normalized label, then the product's general (variant-less)
// images. First non-empty list wins.
func (idx *Index) Images(p *Product, v *Variant) []ProductImage {
	if p == nil {
		return nil
	}

	if v != nil {
		var tagged []ProductImage
		for _, img := range v.Images {
			tagged = append(tagged, img)
		}
		for _, img := range p.Images {
			if img.VariantID != nil && *img.VariantID == v.ID {
				tagged = append(tagged, img)
			}
		}
		if len(tagged) > 0 {
			return tagged
		}

		var labeled []ProductImage
		label := v.MatchLabel()
		tokens := v.MatchTokens()
		for _, img := range p.Images {
			if imageLabelMatches(img.Label, label, tokens) {
				labeled = append(labeled, img)
			}
		}
		if len(labeled) > 0 {
			return labeled
		}
	}

	var general []ProductImage
	for _, img := range p.Images {
		if img.VariantID == nil {
			general = append(general, img)
		}
	}
	return general
}

func imageLabelMatches(label, variantLabel string, tokens []string) bool {
	norm := normalizeToken(label)
	if norm == "" {
		return false
	}
	if norm == variantLabel {
		return true
	}
	for _, token := range tokens {
		if norm == token || strings.Contains(norm, token) {
			return true
		}
	}
	return false
}

package catalog

import (
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Product is a sellable catalog entry with optional variants and media.
type Product struct {
	ID             uuid.UUID      `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Price          float64        `json:"price"`
	Stock          int            `json:"stock"`
	RecommendedFor []string       `json:"recommended_for,omitempty"`
	Variants       []Variant      `json:"variants,omitempty"`
	Images         []ProductImage `json:"images,omitempty"`
}

// Variant is a sub-selection of a product (e.g. a color or size) with its own
// price, stock and media.
type Variant struct {
	ID        uuid.UUID         `json:"id"`
	ProductID uuid.UUID         `json:"product_id"`
	SKU       string            `json:"sku,omitempty"`
	Options   map[string]string `json:"options"`
	Price     float64           `json:"price"`
	Stock     int               `json:"stock"`
	Images    []ProductImage    `json:"images,omitempty"`
}

// ProductImage is a media asset attached to a product, optionally scoped to a
// single variant.
type ProductImage struct {
	ID        uuid.UUID  `json:"id"`
	ProductID uuid.UUID  `json:"product_id"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	URL       string     `json:"url"`
	Label     string     `json:"label,omitempty"`
}

// CreateProductRequest carries the fields needed to insert a product.
type CreateProductRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Price          float64  `json:"price"`
	Stock          int      `json:"stock"`
	RecommendedFor []string `json:"recommended_for,omitempty"`
}

// Validate checks the request for required fields.
func (r *CreateProductRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if r.Price < 0 {
		return ErrNegativePrice
	}
	if r.Stock < 0 {
		return ErrNegativeStock
	}
	return nil
}

// CreateVariantRequest carries the fields needed to attach a variant.
type CreateVariantRequest struct {
	SKU     string            `json:"sku,omitempty"`
	Options map[string]string `json:"options"`
	Price   float64           `json:"price"`
	Stock   int               `json:"stock"`
}

// Validate checks the request for required fields.
func (r *CreateVariantRequest) Validate() error {
	if len(r.Options) == 0 {
		return errors.New("catalog: variant requires at least one option")
	}
	if r.Price < 0 {
		return ErrNegativePrice
	}
	if r.Stock < 0 {
		return ErrNegativeStock
	}
	return nil
}

// DisplayLabel renders the variant options as human-facing "key:value" pairs,
// preserving the original casing.
func (v *Variant) DisplayLabel() string {
	return joinOptions(v.Options, false)
}

// MatchLabel renders the variant options lowercased for comparisons against
// free text and image labels.
func (v *Variant) MatchLabel() string {
	return joinOptions(v.Options, true)
}

// MatchTokens returns the normalized option values used to compare the
// variant against free text.
func (v *Variant) MatchTokens() []string {
	tokens := make([]string, 0, len(v.Options))
	for _, value := range v.Options {
		token := normalizeToken(value)
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

func joinOptions(options map[string]string, lower bool) string {
	if len(options) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(options))
	for _, key := range sortedKeys(options) {
		pair := key + ":" + options[key]
		if lower {
			pair = strings.ToLower(pair)
		}
		pairs = append(pairs, pair)
	}
	return strings.Join(pairs, ",")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ProductRecord holds the normalized facts about the product a run is built
// around. Optional fields are left empty rather than rejected.
type ProductRecord struct {
	// Name is the product's display name. It is the only required field.
	Name string `json:"name" yaml:"name"`

	// Description is a free-text summary of the product.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Brand is the manufacturer or label, when known.
	Brand string `json:"brand,omitempty" yaml:"brand,omitempty"`

	// Features lists free-form feature phrases in source order.
	Features []string `json:"features,omitempty" yaml:"features,omitempty"`

	// Price is the numeric price parsed from a possibly decorated string
	// ("$49.99", "1,299.00"). Nil when absent or unparseable; never negative.
	Price *float64 `json:"price,omitempty" yaml:"price,omitempty"`

	// Currency is the ISO code detected from the price decoration, if any.
	Currency string `json:"currency,omitempty" yaml:"currency,omitempty"`

	// Ingredients lists key ingredients or materials.
	Ingredients []string `json:"ingredients,omitempty" yaml:"ingredients,omitempty"`

	// Benefits lists claimed benefits.
	Benefits []string `json:"benefits,omitempty" yaml:"benefits,omitempty"`

	// HowToUse describes usage instructions.
	HowToUse string `json:"how_to_use,omitempty" yaml:"how_to_use,omitempty"`

	// SideEffects describes known side effects or warnings.
	SideEffects string `json:"side_effects,omitempty" yaml:"side_effects,omitempty"`

	// Attributes keeps any other scalar facts from the input (e.g. concentration).
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// HasPrice reports whether a usable price is present.
func (p ProductRecord) HasPrice() bool {
	return p.Price != nil && *p.Price >= 0
}

// CompetitorProduct is a fabricated competing product. It has the same field
// set as ProductRecord plus a marker that it is synthetic.
type CompetitorProduct struct {
	ProductRecord `yaml:",inline"`

	// Synthetic is always true: the competitor is generated, not sourced.
	Synthetic bool `json:"synthetic" yaml:"synthetic"`
}

// Float returns a pointer to v. It is a convenience for building records.
func Float(v float64) *float64 {
	return &v
}

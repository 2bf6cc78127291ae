// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize validates raw product records and converts them into
// ProductRecord values. It is the only place that knows the loose shapes
// input files and model responses arrive in.
package normalize

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/content-engine/pkg/types"
)

// fieldAliases maps normalized raw keys onto ProductRecord fields.
var fieldAliases = map[string]string{
	"name":            "name",
	"product_name":    "name",
	"title":           "name",
	"description":     "description",
	"summary":         "description",
	"brand":           "brand",
	"manufacturer":    "brand",
	"features":        "features",
	"key_features":    "features",
	"price":           "price",
	"cost":            "price",
	"currency":        "currency",
	"ingredients":     "ingredients",
	"key_ingredients": "ingredients",
	"materials":       "ingredients",
	"benefits":        "benefits",
	"key_benefits":    "benefits",
	"how_to_use":      "how_to_use",
	"usage":           "how_to_use",
	"directions":      "how_to_use",
	"side_effects":    "side_effects",
	"warnings":        "side_effects",
	"synthetic":       "synthetic",
	"is_synthetic":    "synthetic",
}

// Product converts a raw record into a ProductRecord. The name is required;
// list fields accept arrays or comma-separated strings; a price that cannot
// be parsed is left absent. Fields of the wrong type fail with a validation
// error.
func Product(raw map[string]any) (types.ProductRecord, error) {
	if raw == nil {
		return types.ProductRecord{}, types.Validationf("product record is empty")
	}

	var p types.ProductRecord
	var priceRaw any
	var currencyRaw string

	filled := make(map[string]bool)
	for _, key := range recordKeys(raw) {
		value := raw[key]
		field, ok := fieldAliases[normalizeKey(key)]
		if !ok {
			if s, isScalar := scalarString(value); isScalar && s != "" {
				if p.Attributes == nil {
					p.Attributes = make(map[string]string)
				}
				p.Attributes[normalizeKey(key)] = s
			}
			continue
		}
		if filled[field] {
			continue
		}

		var err error
		switch field {
		case "name":
			p.Name, err = stringField(key, value)
		case "description":
			p.Description, err = stringField(key, value)
		case "brand":
			p.Brand, err = stringField(key, value)
		case "how_to_use":
			p.HowToUse, err = stringField(key, value)
		case "side_effects":
			p.SideEffects, err = stringField(key, value)
		case "currency":
			currencyRaw, err = stringField(key, value)
		case "features":
			p.Features, err = listField(key, value)
		case "ingredients":
			p.Ingredients, err = listField(key, value)
		case "benefits":
			p.Benefits, err = listField(key, value)
		case "price":
			priceRaw = value
		case "synthetic":
			// Set by Competitor; ignored for input records.
		}
		if err != nil {
			return types.ProductRecord{}, err
		}
		filled[field] = hasValue(p, field, priceRaw, currencyRaw)
	}

	if p.Name == "" {
		return types.ProductRecord{}, types.Validationf("required field %q is missing or empty", "name")
	}

	if priceRaw != nil {
		price, currency := ParsePrice(priceRaw)
		p.Price = price
		if currency != "" {
			p.Currency = currency
		}
	}
	if c := strings.ToUpper(strings.TrimSpace(currencyRaw)); c != "" {
		p.Currency = c
	}

	return p, nil
}

// Competitor converts a model-produced record with the same rules as Product
// and marks the result synthetic regardless of what the record says.
func Competitor(raw map[string]any) (types.CompetitorProduct, error) {
	p, err := Product(raw)
	if err != nil {
		return types.CompetitorProduct{}, err
	}
	return types.CompetitorProduct{ProductRecord: p, Synthetic: true}, nil
}

// normalizeKey lowercases a key and folds spaces and hyphens to underscores,
// so "Product Name", "product-name", and "product_name" match.
func normalizeKey(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.NewReplacer(" ", "_", "-", "_").Replace(k)
	return k
}

// recordKeys orders keys so canonical field names come before their
// aliases; within each group keys are sorted. The first non-empty value for
// a field wins.
func recordKeys(m map[string]any) []string {
	keys := sortedKeys(m)
	sort.SliceStable(keys, func(i, j int) bool {
		return isCanonical(keys[i]) && !isCanonical(keys[j])
	})
	return keys
}

func isCanonical(key string) bool {
	k := normalizeKey(key)
	return fieldAliases[k] == k
}

// hasValue reports whether field now holds a non-empty value.
func hasValue(p types.ProductRecord, field string, priceRaw any, currencyRaw string) bool {
	switch field {
	case "name":
		return p.Name != ""
	case "description":
		return p.Description != ""
	case "brand":
		return p.Brand != ""
	case "how_to_use":
		return p.HowToUse != ""
	case "side_effects":
		return p.SideEffects != ""
	case "currency":
		return currencyRaw != ""
	case "features":
		return len(p.Features) > 0
	case "ingredients":
		return len(p.Ingredients) > 0
	case "benefits":
		return len(p.Benefits) > 0
	case "price":
		if s, ok := priceRaw.(string); ok {
			return strings.TrimSpace(s) != ""
		}
		return priceRaw != nil
	default:
		return false
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stringField(key string, value any) (string, error) {
	if value == nil {
		return "", nil
	}
	s, ok := value.(string)
	if !ok {
		return "", types.Validationf("field %q must be a string, got %T", key, value)
	}
	return strings.TrimSpace(s), nil
}

// listField accepts a list of strings or a single comma-separated string.
// Empty entries are dropped.
func listField(key string, value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return splitList(v), nil
	case []string:
		return cleanList(v), nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := scalarString(item)
			if !ok {
				return nil, types.Validationf("field %q item %d must be a string, got %T", key, i, item)
			}
			out = append(out, s)
		}
		return cleanList(out), nil
	default:
		return nil, types.Validationf("field %q must be a list or comma-separated string, got %T", key, value)
	}
}

func splitList(s string) []string {
	return cleanList(strings.Split(s, ","))
}

func cleanList(items []string) []string {
	var out []string
	for _, item := range items {
		if t := strings.TrimSpace(item); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// scalarString renders strings and numbers as text. Other types report false.
func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// numberPattern finds the first number in a price string once currency
// tokens are removed. Separators are interpreted by parseAmount.
var numberPattern = regexp.MustCompile(`\d[\d.,]*\d|\d|\.\d+`)

// currencySymbols maps price decorations to ISO codes. Longer tokens are
// checked first.
var currencySymbols = []struct {
	token string
	code  string
}{
	{"US$", "USD"},
	{"Rs.", "INR"},
	{"Rs", "INR"},
	{"₹", "INR"},
	{"$", "USD"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "JPY"},
}

// isoPattern matches a trailing or leading three-letter currency code.
var isoPattern = regexp.MustCompile(`(?i)\b(USD|EUR|GBP|INR|JPY|CAD|AUD|CHF|CNY)\b`)

// ParsePrice extracts a non-negative price and an optional currency code
// from a number or a decorated string. It returns a nil price when nothing
// usable is found, including negative values, NaN, and infinities.
func ParsePrice(v any) (*float64, string) {
	switch t := v.(type) {
	case float64:
		return validPrice(t), ""
	case float32:
		return validPrice(float64(t)), ""
	case int:
		return validPrice(float64(t)), ""
	case int64:
		return validPrice(float64(t)), ""
	case string:
		return parsePriceString(t)
	default:
		return nil, ""
	}
}

func parsePriceString(s string) (*float64, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ""
	}

	currency := detectCurrency(s)
	bare := strings.TrimSpace(stripCurrency(s))

	if strings.HasPrefix(bare, "-") {
		return nil, currency
	}
	loc := numberPattern.FindStringIndex(bare)
	if loc == nil {
		return nil, currency
	}
	before := strings.TrimSpace(bare[:loc[0]])
	if strings.HasSuffix(before, "-") {
		return nil, currency
	}
	match := bare[loc[0]:loc[1]]
	if match[0] == '.' && loc[0] > 0 {
		if r, _ := utf8.DecodeLastRuneInString(bare[:loc[0]]); unicode.IsLetter(r) {
			return nil, currency
		}
	}

	f, ok := parseAmount(match)
	if !ok {
		return nil, currency
	}
	return validPrice(f), currency
}

// stripCurrency blanks out currency symbols and ISO codes so the dot in
// "Rs.499" is not read as a decimal point.
func stripCurrency(s string) string {
	s = isoPattern.ReplaceAllString(s, " ")
	for _, c := range currencySymbols {
		s = strings.ReplaceAll(s, c.token, " ")
	}
	return s
}

// parseAmount reads a number with optional grouping. When both separators
// appear, the last one is the decimal mark. A lone comma followed by exactly
// two digits is a decimal comma ("49,99"). Otherwise commas must group digits
// in threes. Formats that fit none of these report false.
func parseAmount(tok string) (float64, bool) {
	lastComma := strings.LastIndex(tok, ",")
	lastDot := strings.LastIndex(tok, ".")

	var intPart, frac, group string
	switch {
	case lastComma >= 0 && lastDot >= 0:
		dec := max(lastComma, lastDot)
		intPart, frac = tok[:dec], tok[dec+1:]
		group = ","
		if tok[dec] == ',' {
			group = "."
		}
	case lastComma >= 0:
		if strings.Count(tok, ",") == 1 && len(tok)-lastComma-1 == 2 {
			intPart, frac = tok[:lastComma], tok[lastComma+1:]
		} else {
			intPart, group = tok, ","
		}
	case strings.Count(tok, ".") > 1:
		intPart, group = tok, "."
	case lastDot >= 0:
		intPart, frac = tok[:lastDot], tok[lastDot+1:]
	default:
		intPart = tok
	}

	if strings.ContainsAny(frac, ".,") {
		return 0, false
	}
	if group != "" {
		var ok bool
		if intPart, ok = ungroup(intPart, group); !ok {
			return 0, false
		}
	}
	if strings.ContainsAny(intPart, ".,") {
		return 0, false
	}
	num := intPart
	if num == "" {
		num = "0"
	}
	if frac != "" {
		num += "." + frac
	}
	f, err := strconv.ParseFloat(num, 64)
	return f, err == nil
}

// ungroup removes thousands separators, requiring groups of three digits
// after the first.
func ungroup(s, sep string) (string, bool) {
	parts := strings.Split(s, sep)
	if len(parts) == 1 {
		return s, true
	}
	if len(parts[0]) == 0 || len(parts[0]) > 3 {
		return "", false
	}
	for _, p := range parts[1:] {
		if len(p) != 3 {
			return "", false
		}
	}
	return strings.Join(parts, ""), true
}

func detectCurrency(s string) string {
	if m := isoPattern.FindString(s); m != "" {
		return strings.ToUpper(m)
	}
	for _, c := range currencySymbols {
		if strings.Contains(s, c.token) {
			return c.code
		}
	}
	return ""
}

func validPrice(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return nil
	}
	return &f
}

// FormatPrice renders a price for display, e.g. "USD 49.99" or "49.99".
// An absent price renders as "n/a".
func FormatPrice(price *float64, currency string) string {
	if price == nil {
		return "n/a"
	}
	amount := strconv.FormatFloat(*price, 'f', 2, 64)
	if currency == "" {
		return amount
	}
	return fmt.Sprintf("%s %s", currency, amount)
}

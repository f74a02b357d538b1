package config

import (
	"fmt"
	"strconv"
	"strings"
)

// allSentinel values trigger expansion to the first granule's full
// product list once that granule is opened (§10); the expansion itself
// happens in the engine, since it needs a granule.Reader.
const (
	allSentinelUpper = "ALL"
	allSentinelLower = "all"
)

// ParseProductList parses an l3bprod expression: a list of product
// names separated by exactly one of ':', ',', or ' ' (mixing two
// delimiters is a configuration error, §10). Each name may carry a
// ";MIN" or "=MIN" minimum-value suffix, and a "/DENOM" ratio
// denominator.
func ParseProductList(expr string) (specs []ProductSpec, expandedAll bool, err error) {
	expr = strings.TrimSpace(expr)
	if expr == allSentinelUpper || expr == allSentinelLower {
		return nil, true, nil
	}

	sep, err := detectDelimiter(expr)
	if err != nil {
		return nil, false, err
	}

	var tokens []string
	if sep == "" {
		tokens = []string{expr}
	} else {
		tokens = strings.Split(expr, sep)
	}

	specs = make([]ProductSpec, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		spec, err := parseProductToken(tok)
		if err != nil {
			return nil, false, err
		}
		specs = append(specs, spec)
	}
	if len(specs) == 0 {
		return nil, false, fmt.Errorf("l3bprod expression %q produced no products", expr)
	}
	return specs, false, nil
}

func parseProductToken(tok string) (ProductSpec, error) {
	spec := ProductSpec{}

	if i := strings.IndexByte(tok, '/'); i >= 0 {
		spec.Denom = tok[i+1:]
		tok = tok[:i]
	}

	if i := strings.IndexAny(tok, ";="); i >= 0 {
		minStr := tok[i+1:]
		tok = tok[:i]
		min, err := strconv.ParseFloat(minStr, 64)
		if err != nil {
			return ProductSpec{}, fmt.Errorf("product %q: bad minimum %q: %w", tok, minStr, err)
		}
		spec.Min = &min
		spec.HasMin = true
	}

	spec.Name = tok
	return spec, nil
}

// detectDelimiter finds the single separator present in expr among
// ':', ',', and ' '. Mixing two distinct separators is rejected as a
// configuration error; using none (a single product) is fine.
func detectDelimiter(expr string) (string, error) {
	candidates := []string{":", ",", " "}
	var found []string
	for _, c := range candidates {
		if strings.Contains(expr, c) {
			found = append(found, c)
		}
	}
	switch len(found) {
	case 0:
		return "", nil
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("l3bprod expression %q mixes delimiters %v, must use exactly one", expr, found)
	}
}

// ExpandAll replaces an ExpandedAll product list with one ProductSpec
// per name in the reference product list, preserving order, called by
// the engine once the first granule has been opened (§10).
func ExpandAll(names []string) []ProductSpec {
	specs := make([]ProductSpec, len(names))
	for i, n := range names {
		specs[i] = ProductSpec{Name: n}
	}
	return specs
}

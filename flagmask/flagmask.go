// Package flagmask compiles a flaguse expression (SeaDAS-style
// comma-separated flag names, each optionally negated with a leading
// '~') against a granule's flag-name table into the pair of bitmasks the
// row-group loop tests l2_flags against.
//
// This grammar has no counterpart in the corpus's third-party stack —
// it is a small, domain-specific boolean expression over a name table,
// not a general expression language, so it is hand-written against the
// standard library rather than reached for a parser library (see
// DESIGN.md).
package flagmask

import (
	"fmt"
	"strings"
)

// Mask is the compiled result of a flaguse expression: a pixel passes
// when none of Reject's bits are set and all of Require's bits are set.
type Mask struct {
	Reject  uint32
	Require uint32
}

// Passes reports whether a pixel's l2_flags value satisfies the mask.
func (m Mask) Passes(flags uint32) bool {
	if flags&m.Reject != 0 {
		return false
	}
	return flags&m.Require == m.Require
}

// ErrUnknownFlag is returned when an expression names a flag absent from
// the granule's flag table.
type ErrUnknownFlag struct {
	Name string
}

func (e ErrUnknownFlag) Error() string {
	return fmt.Sprintf("flagmask: unknown flag %q", e.Name)
}

// Compile builds a Mask from a comma-separated expression such as
// "ATMFAIL,LAND,~HIGLINT,CLDICE" against flagNames, whose index is the
// l2_flags bit position.
func Compile(flagNames []string, expr string) (Mask, error) {
	index := make(map[string]uint, len(flagNames))
	for i, name := range flagNames {
		index[strings.ToUpper(strings.TrimSpace(name))] = uint(i)
	}

	var m Mask
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return m, nil
	}

	for _, tok := range strings.Split(expr, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		required := false
		if strings.HasPrefix(tok, "~") {
			required = true
			tok = tok[1:]
		}
		bit, ok := index[strings.ToUpper(tok)]
		if !ok {
			return Mask{}, ErrUnknownFlag{Name: tok}
		}
		if required {
			m.Require |= 1 << bit
		} else {
			m.Reject |= 1 << bit
		}
	}
	return m, nil
}

package granule

import (
	"fmt"

	"github.com/samber/lo"
)

// SchemaReport summarizes a cross-check of one granule's declared product
// list and flag list against the reference lists used for the whole run
// (all granules contributing to a single binning pass must agree).
type SchemaReport struct {
	MissingProducts []string
	ExtraProducts   []string
	MissingFlags    []string
	ExtraFlags      []string
	Consistent      bool
}

// CheckSchema compares a granule's product/flag names against the
// reference set established by the first granule opened in the run.
// Engine.Run aborts the run with ErrSemantic when a granule's report is
// not consistent (§7).
func CheckSchema(refProducts, refFlags, products, flags []string) SchemaReport {
	missingP := lo.Without(refProducts, products...)
	extraP := lo.Without(products, refProducts...)
	missingF := lo.Without(refFlags, flags...)
	extraF := lo.Without(flags, refFlags...)

	return SchemaReport{
		MissingProducts: missingP,
		ExtraProducts:   extraP,
		MissingFlags:    missingF,
		ExtraFlags:      extraF,
		Consistent:      len(missingP) == 0 && len(missingF) == 0,
	}
}

// Error renders a SchemaReport as a diagnostic error, or nil if the
// schema was consistent enough to proceed (extra attributes are
// tolerated; any product or flag of the reference set that is missing
// makes the report inconsistent).
func (r SchemaReport) Error() error {
	if r.Consistent {
		return nil
	}
	return fmt.Errorf("granule: schema mismatch: missing products %v, missing flags %v", r.MissingProducts, r.MissingFlags)
}

// DedupeFileList removes repeated granule paths from an input list,
// preserving first-seen order, and reports how many were dropped.
func DedupeFileList(paths []string) (unique []string, dropped int) {
	unique = lo.Uniq(paths)
	dropped = len(paths) - len(unique)
	return unique, dropped
}

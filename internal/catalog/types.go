// internal/catalog/types.go
//
// Core type definitions for the property catalog.
// Defines:
//   - PropertyRecord: one catalog row including the ground truth.
//   - RowError: a row rejected because its ground truth could not be parsed.
//   - Report: what a load actually did (source, counts, rejections).

package catalog

import "fmt"

// PropertyRecord is one property the player is asked to evaluate.
// The four investment metrics are the ground truth used for scoring and are
// never sent to the player before a submission.
type PropertyRecord struct {
	Address       string
	Notes         string
	PictureLink   string
	ContractPrice float64

	AfterRepairValue     float64 // ARV
	RepairCost           float64 // Repairs
	MaxAllowableOffer    float64 // MAO
	LowestAllowableOffer float64 // LAO
}

// RowError describes a rejected catalog row.
type RowError struct {
	Line   int    // 1-based line in the source
	Field  string // column that failed
	Value  string // raw value
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s=%q: %s", e.Line, e.Field, e.Value, e.Reason)
}

// Report summarizes a catalog load.
type Report struct {
	Source   string     // file path, or "embedded" for the built-in sample
	Loaded   int        // records kept
	Skipped  int        // blank-ish or short rows dropped silently
	Rejected []RowError // rows with unusable ground truth
	Fallback bool       // true when the source could not be read and the sample was used
	Cause    error      // why the fallback happened
}

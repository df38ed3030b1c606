// Package scan names the four fixed index-scan shapes the seed
// generator can choose from. It is split out from package planner so
// that the index store can implement scan-size estimation without
// importing the planner; the planner itself does not import the index
// store.
package scan

// Variant names one of the four fixed index-scan shapes.
type Variant int

const (
	// POSBoundO scans the POS index with object bound, subject free;
	// output is one column, sorted on the subject.
	POSBoundO Variant = iota
	// PSOBoundS scans the PSO index with subject bound, object free;
	// output is one column, sorted on the object.
	PSOBoundS
	// PSOFreeS scans the PSO index with both positions free; output is
	// (subject, object), sorted on the subject.
	PSOFreeS
	// POSFreeO scans the POS index with both positions free; output is
	// (object, subject), sorted on the object.
	POSFreeO
)

func (v Variant) String() string {
	switch v {
	case POSBoundO:
		return "POS_BOUND_O"
	case PSOBoundS:
		return "PSO_BOUND_S"
	case PSOFreeS:
		return "PSO_FREE_S"
	case POSFreeO:
		return "POS_FREE_O"
	default:
		return "UNKNOWN_SCAN_VARIANT"
	}
}

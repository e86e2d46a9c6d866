// Package datasets registers every extract layout with the core registry.
// Import this package for its side effects.
package datasets

// Each file registers its datasets in init().

// Group names used in listings.
const (
	GroupDeposits  = "Deposits"
	GroupReference = "Reference"
)

package models

import "strings"

// Breed identifies a genetic line (Cobb, Ross, ...). Values are normalized so
// that batches and target tables written with different casing or spacing
// still refer to the same line.
type Breed string

// NoBreed marks a batch without a registered genetic line.
const NoBreed Breed = ""

// NormalizeBreed trims, collapses inner whitespace and lower-cases a breed name.
func NormalizeBreed(name string) Breed {
	return Breed(strings.ToLower(strings.Join(strings.Fields(name), " ")))
}

// IsZero reports whether the breed is unset.
func (b Breed) IsZero() bool {
	return b == NoBreed
}

// TargetStatus describes how a batch's target series was resolved.
type TargetStatus string

const (
	// TargetsMatched means a non-empty target series exists for the batch's breed.
	TargetsMatched TargetStatus = "matched"
	// TargetsNoBreed means the batch has no breed, so no lookup was attempted.
	TargetsNoBreed TargetStatus = "no_breed"
	// TargetsMissing means the breed is known but no target rows exist for it.
	TargetsMissing TargetStatus = "missing"
)

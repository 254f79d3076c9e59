// Package genealogy holds the value types shared by the chronology and
// plausibility validators.
//
// Validators never decide whether a finding blocks an operation. They return a
// Result; the call site applies a Policy.
package genealogy

import (
	dErrors "lineage/pkg/domain-errors"
)

// Result is the outcome of a rule: OK when Reasons is empty, Invalid otherwise.
type Result struct {
	Reasons []string
}

// OK is the passing result.
func OK() Result { return Result{} }

// Invalid builds a failing result.
func Invalid(reasons ...string) Result {
	return Result{Reasons: reasons}
}

// Valid reports whether the rule passed.
func (r Result) Valid() bool { return len(r.Reasons) == 0 }

// Add appends a reason.
func (r *Result) Add(reason string) {
	r.Reasons = append(r.Reasons, reason)
}

// Merge combines results, keeping reason order.
func Merge(results ...Result) Result {
	var out Result
	for _, r := range results {
		out.Reasons = append(out.Reasons, r.Reasons...)
	}
	return out
}

// Policy says how a call site treats a failing Result.
type Policy int

const (
	// Blocking turns a failing result into a ValidationFailure.
	Blocking Policy = iota
	// Advisory lets the operation proceed; reasons are surfaced as warnings.
	Advisory
)

// Enforce applies policy to r. Under Advisory it never returns an error.
func Enforce(r Result, policy Policy) error {
	if r.Valid() || policy == Advisory {
		return nil
	}
	return dErrors.WithReasons(dErrors.CodeValidation, r.Reasons)
}

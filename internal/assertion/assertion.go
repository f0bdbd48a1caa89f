// Package assertion evaluates FHIRPath invariants declared in a map against
// the documents it emits.
package assertion

import (
	"fmt"

	"github.com/gofhir/fhirpath"

	"formmap/internal/diagnostic"
	"formmap/internal/mapping"
)

// Codes reported by this package.
const (
	CodeCompile  = "assertion_compile"
	CodeFailed   = "assertion_failed"
	CodeEvaluate = "assertion_eval"
)

// Check is one compiled assertion.
type Check struct {
	Key        string
	Expression string
	Human      string
	Warning    bool

	expr *fhirpath.Expression
}

// Set is an ordered, immutable list of compiled checks. Evaluate is safe
// for concurrent use.
type Set struct {
	checks []Check
}

// Compile compiles every assertion. Expressions that do not compile are
// MalformedMap; the set is nil when there are any.
func Compile(assertions []mapping.Assertion) (*Set, diagnostic.List) {
	var diags diagnostic.List

	s := &Set{checks: make([]Check, 0, len(assertions))}

	for i := range assertions {
		a := &assertions[i]

		expr, err := fhirpath.Compile(a.Expression)
		if err != nil {
			diags.Malformed(CodeCompile, a.Key, "assertion %q: %v", a.Key, err)
			continue
		}

		s.checks = append(s.checks, Check{
			Key:        a.Key,
			Expression: a.Expression,
			Human:      a.Human,
			Warning:    a.IsWarning(),
			expr:       expr,
		})
	}

	if diags.HasErrors() {
		return nil, diags
	}

	return s, nil
}

// Len returns the number of checks.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}

	return len(s.checks)
}

// Checks returns the compiled checks in declaration order.
func (s *Set) Checks() []Check {
	if s == nil {
		return nil
	}

	return s.checks
}

// Evaluate runs every check against a rendered document. A check passes
// when its result is empty, true, or a non-boolean non-empty collection.
// Failures and evaluation errors are AssertionFailed diagnostics with the
// check's severity.
func (s *Set) Evaluate(resource []byte) diagnostic.List {
	if s == nil {
		return nil
	}

	var diags diagnostic.List

	for i := range s.checks {
		c := &s.checks[i]

		result, err := c.expr.Evaluate(resource)
		if err != nil {
			c.report(&diags, CodeEvaluate, fmt.Sprintf("evaluate %q: %v", c.Expression, err))
			continue
		}

		if !passed(result) {
			msg := c.Human
			if msg == "" {
				msg = fmt.Sprintf("%q is not satisfied", c.Expression)
			}

			c.report(&diags, CodeFailed, msg)
		}
	}

	return diags
}

func (c *Check) report(diags *diagnostic.List, code, msg string) {
	if c.Warning {
		diags.AddWarning(diagnostic.KindAssertionFailed, code, "", c.Key, msg)
		return
	}

	diags.AddError(diagnostic.KindAssertionFailed, code, "", c.Key, msg)
}

func passed(result fhirpath.Collection) bool {
	// Empty: the invariant does not apply.
	if result.Empty() {
		return true
	}

	b, err := result.ToBoolean()
	if err != nil {
		return true
	}

	return b
}

package filter

import (
	"context"

	"github.com/s0up4200/airtabler/airtable"
)

// Filter decides whether a record matches
type Filter interface {
	// Evaluate reports whether record matches. Records that fail to
	// evaluate do not match.
	Evaluate(record airtable.Record) bool
}

// CompiledFilter represents a pre-compiled filter ready for evaluation
type CompiledFilter interface {
	Filter

	// Match is Evaluate with the evaluation error surfaced
	Match(record airtable.Record) (bool, error)

	// Expression returns the original filter expression
	Expression() string
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	// Compile parses and compiles a filter expression
	Compile(expression string) (CompiledFilter, error)
}

// CachingCompiler provides caching for compiled filters
type CachingCompiler interface {
	Compiler

	// Clear removes all cached filters
	Clear()

	// Size returns the number of cached filters
	Size() int
}

// Evaluator applies a filter to a list of records
type Evaluator interface {
	// Evaluate returns the matching records in their original order
	Evaluate(ctx context.Context, filter CompiledFilter, records []airtable.Record) ([]airtable.Record, error)
}

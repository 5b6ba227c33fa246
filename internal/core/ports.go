package core

import "context"

// =============================================================================
// Analyst Port
// =============================================================================

// Analyst is the capability contract every analysis worker implements.
// A failure is returned as an error; the engine isolates it to that analyst's
// execution record and never propagates it to sibling analysts.
type Analyst interface {
	// Analyze produces a recommendation for the input's subject.
	Analyze(ctx context.Context, input AnalystInput) (*Result, error)
}

// AnalystFunc adapts a function to the Analyst interface.
type AnalystFunc func(ctx context.Context, input AnalystInput) (*Result, error)

// Analyze implements Analyst.
func (f AnalystFunc) Analyze(ctx context.Context, input AnalystInput) (*Result, error) {
	return f(ctx, input)
}

// =============================================================================
// Data Provider Port
// =============================================================================

// DataProvider fetches a named external input for a subject. A fetch failure
// is recorded by the engine as a session warning, never a fatal error.
type DataProvider interface {
	Fetch(ctx context.Context, subjectID, kind string) (interface{}, error)
}

// DataProviderFunc adapts a function to the DataProvider interface.
type DataProviderFunc func(ctx context.Context, subjectID, kind string) (interface{}, error)

// Fetch implements DataProvider.
func (f DataProviderFunc) Fetch(ctx context.Context, subjectID, kind string) (interface{}, error) {
	return f(ctx, subjectID, kind)
}

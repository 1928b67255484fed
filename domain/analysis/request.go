// Package analysis defines the immutable request that travels from the
// panel window to the result window.
package analysis

// Kind identifies an analysis. Unknown strings are preserved so that a
// decoded request can still fall back to a raw sheet preview.
type Kind string

const (
	KindDescriptive Kind = "descriptive"
	KindCorrelation Kind = "correlation"
	KindReliability Kind = "reliability"
	KindFactor      Kind = "factor"
)

// Kinds lists the analyses that have a panel
var Kinds = []Kind{KindDescriptive, KindCorrelation, KindReliability, KindFactor}

// IsKnown reports whether k is one of the supported analyses
func (k Kind) IsKnown() bool {
	switch k {
	case KindDescriptive, KindCorrelation, KindReliability, KindFactor:
		return true
	}
	return false
}

// MinVariables is the selection size required before a request may be dispatched
func (k Kind) MinVariables() int {
	switch k {
	case KindDescriptive:
		return 1
	case KindCorrelation, KindReliability, KindFactor:
		return 2
	default:
		return 0
	}
}

// Ready reports whether n selected variables satisfy the kind's minimum
func (k Kind) Ready(n int) bool {
	return k.IsKnown() && n >= k.MinVariables()
}

// Request describes one analysis invocation. Build it with NewRequest;
// the zero value is not canonical.
type Request struct {
	FilePath  string
	Sheet     string
	Kind      Kind
	Variables []string
	Options   Options
}

// NewRequest builds a canonical request: variables deduplicated in
// insertion order (nil when empty) and options coerced to the variant
// matching kind.
func NewRequest(path, sheet string, kind Kind, variables []string, opts Options) Request {
	return Request{
		FilePath:  path,
		Sheet:     sheet,
		Kind:      kind,
		Variables: UniqueVariables(variables),
		Options:   normalizeOptions(kind, opts),
	}
}

// UniqueVariables drops duplicates keeping the first occurrence
func UniqueVariables(vars []string) []string {
	if len(vars) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(vars))
	out := make([]string, 0, len(vars))
	for _, v := range vars {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// HasSource reports whether both file path and sheet are present
func (r Request) HasSource() bool {
	return r.FilePath != "" && r.Sheet != ""
}

// Ready reports whether the variable selection meets the kind's minimum
func (r Request) Ready() bool {
	return r.Kind.Ready(len(r.Variables))
}

// SortOrder returns the descriptive sort order, or "" for other kinds
func (r Request) SortOrder() SortOrder {
	if o, ok := r.Options.(DescriptiveOptions); ok {
		return o.SortOrder
	}
	return ""
}

// Model returns the reliability model, or "" for other kinds
func (r Request) Model() Model {
	if o, ok := r.Options.(ReliabilityOptions); ok {
		return o.Model
	}
	return ""
}

// Correlation returns the correlation options, zero for other kinds
func (r Request) Correlation() CorrelationOptions {
	if o, ok := r.Options.(CorrelationOptions); ok {
		return o
	}
	return CorrelationOptions{}
}

// Factor returns the factor options, zero for other kinds
func (r Request) Factor() FactorOptions {
	if o, ok := r.Options.(FactorOptions); ok {
		return o
	}
	return FactorOptions{}
}

package analysis

// Options is the per-kind option variant carried by a Request
type Options interface {
	Kind() Kind
}

// SortOrder controls descriptive row order
type SortOrder string

const (
	SortDefault  SortOrder = "default"
	SortMeanAsc  SortOrder = "mean_asc"
	SortMeanDesc SortOrder = "mean_desc"
)

// Valid accepts the three documented orders plus "" (unset)
func (s SortOrder) Valid() bool {
	switch s {
	case "", SortDefault, SortMeanAsc, SortMeanDesc:
		return true
	}
	return false
}

// Model selects the reliability coefficient
type Model string

const (
	ModelAlpha Model = "alpha"
	ModelOmega Model = "omega"
)

// Valid accepts alpha, omega and "" (unset, treated as alpha)
func (m Model) Valid() bool {
	switch m {
	case "", ModelAlpha, ModelOmega:
		return true
	}
	return false
}

// CorrelationMethod is one of the coefficients offered by the correlation panel
type CorrelationMethod string

const (
	MethodPearson  CorrelationMethod = "pearson"
	MethodKendall  CorrelationMethod = "kendall"
	MethodSpearman CorrelationMethod = "spearman"
)

// Valid reports whether m is a known method
func (m CorrelationMethod) Valid() bool {
	switch m {
	case MethodPearson, MethodKendall, MethodSpearman:
		return true
	}
	return false
}

// Tailedness selects a one- or two-sided test
type Tailedness string

const (
	TwoSided Tailedness = "two_sided"
	OneSided Tailedness = "one_sided"
)

// Valid accepts both sides and "" (unset)
func (t Tailedness) Valid() bool {
	switch t {
	case "", TwoSided, OneSided:
		return true
	}
	return false
}

type DescriptiveOptions struct {
	SortOrder SortOrder
}

func (DescriptiveOptions) Kind() Kind { return KindDescriptive }

// CorrelationOptions are collected by the panel but not needed for dispatch
type CorrelationOptions struct {
	Methods    []CorrelationMethod
	Tailedness Tailedness
}

func (CorrelationOptions) Kind() Kind { return KindCorrelation }

type ReliabilityOptions struct {
	Model Model
}

func (ReliabilityOptions) Kind() Kind { return KindReliability }

// FactorOptions carry extraction settings; FactorCount is nil when the
// criterion decides the number of factors.
type FactorOptions struct {
	Extraction  string
	Rotation    string
	Criterion   string
	FactorCount *int
}

func (FactorOptions) Kind() Kind { return KindFactor }

// DefaultOptions returns the zero variant for kind, or nil for unknown kinds
func DefaultOptions(kind Kind) Options {
	switch kind {
	case KindDescriptive:
		return DescriptiveOptions{}
	case KindCorrelation:
		return CorrelationOptions{}
	case KindReliability:
		return ReliabilityOptions{}
	case KindFactor:
		return FactorOptions{}
	default:
		return nil
	}
}

// UniqueMethods drops duplicate methods keeping order; nil when empty
func UniqueMethods(methods []CorrelationMethod) []CorrelationMethod {
	if len(methods) == 0 {
		return nil
	}
	seen := make(map[CorrelationMethod]struct{}, len(methods))
	out := make([]CorrelationMethod, 0, len(methods))
	for _, m := range methods {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

func normalizeOptions(kind Kind, opts Options) Options {
	if opts == nil || opts.Kind() != kind {
		return DefaultOptions(kind)
	}
	if c, ok := opts.(CorrelationOptions); ok {
		c.Methods = UniqueMethods(c.Methods)
		return c
	}
	if f, ok := opts.(FactorOptions); ok && f.FactorCount != nil {
		n := *f.FactorCount
		f.FactorCount = &n
		return f
	}
	return opts
}

// IntPtr is a small helper for optional counts
func IntPtr(n int) *int { return &n }

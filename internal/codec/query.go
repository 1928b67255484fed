// Package codec maps analysis requests to window URLs and bus payloads
// and back. Decoding never fails: malformed input degrades to an empty
// variable selection, which the panel and loader treat as "not ready".
package codec

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"psycdata/domain/analysis"
	"psycdata/internal/errors"
)

// Query keys, in the order they are written
const (
	KeyPath       = "path"
	KeySheet      = "sheet"
	KeyAnalysis   = "analysis"
	KeyVars       = "vars"
	KeySort       = "sort"
	KeyModel      = "model"
	KeyMethods    = "methods"
	KeyTail       = "tail"
	KeyExtraction = "extraction"
	KeyRotation   = "rotation"
	KeyCriterion  = "criterion"
	KeyFactors    = "factors"
)

// Window routes served by the host
const (
	ResultPath = "/w/result"
	PanelPath  = "/w/panel"
	TablePath  = "/w/table"
)

type param struct {
	key, value string
}

// EncodeQuery serializes req into a query string without the leading '?'.
// Empty fields are omitted and option keys are written only for the
// request's own kind.
func EncodeQuery(req analysis.Request) string {
	params := make([]param, 0, 8)
	add := func(key, value string) {
		if value != "" {
			params = append(params, param{key, value})
		}
	}

	add(KeyPath, req.FilePath)
	add(KeySheet, req.Sheet)
	add(KeyAnalysis, string(req.Kind))
	add(KeyVars, EncodeVars(req.Variables))

	switch opts := req.Options.(type) {
	case analysis.DescriptiveOptions:
		add(KeySort, string(opts.SortOrder))
	case analysis.ReliabilityOptions:
		add(KeyModel, string(opts.Model))
	case analysis.CorrelationOptions:
		add(KeyMethods, joinMethods(opts.Methods))
		add(KeyTail, string(opts.Tailedness))
	case analysis.FactorOptions:
		add(KeyExtraction, opts.Extraction)
		add(KeyRotation, opts.Rotation)
		add(KeyCriterion, opts.Criterion)
		if opts.FactorCount != nil {
			add(KeyFactors, strconv.Itoa(*opts.FactorCount))
		}
	}

	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}
	return b.String()
}

// DecodeQuery is the inverse of EncodeQuery. A leading '?' is accepted.
// Unparseable input yields whatever fields could be recovered.
func DecodeQuery(qs string) analysis.Request {
	values, _ := url.ParseQuery(strings.TrimPrefix(qs, "?"))
	return FromValues(values)
}

// FromValues decodes a request from already parsed query values
func FromValues(values url.Values) analysis.Request {
	kind := analysis.Kind(values.Get(KeyAnalysis))

	var vars []string
	if res := ParseVars(values.Get(KeyVars)); res.OK {
		vars = res.Vars
	} else {
		// malformed or absent vars: fall back to an empty selection
		vars = nil
	}

	var opts analysis.Options
	switch kind {
	case analysis.KindDescriptive:
		opts = analysis.DescriptiveOptions{SortOrder: analysis.SortOrder(values.Get(KeySort))}
	case analysis.KindReliability:
		opts = analysis.ReliabilityOptions{Model: analysis.Model(values.Get(KeyModel))}
	case analysis.KindCorrelation:
		opts = analysis.CorrelationOptions{
			Methods:    splitMethods(values.Get(KeyMethods)),
			Tailedness: analysis.Tailedness(values.Get(KeyTail)),
		}
	case analysis.KindFactor:
		opts = analysis.FactorOptions{
			Extraction:  values.Get(KeyExtraction),
			Rotation:    values.Get(KeyRotation),
			Criterion:   values.Get(KeyCriterion),
			FactorCount: parseCount(values.Get(KeyFactors)),
		}
	}

	return analysis.NewRequest(values.Get(KeyPath), values.Get(KeySheet), kind, vars, opts)
}

// VarsResult is the outcome of parsing a vars parameter
type VarsResult struct {
	Vars []string
	OK   bool
	Err  error
}

// ParseVars decodes a JSON array of variable names. It never panics and
// reports failure through the result instead of an error return.
func ParseVars(raw string) VarsResult {
	if raw == "" {
		return VarsResult{Err: errors.ParseError("vars parameter missing", nil)}
	}
	var vars []string
	if err := json.Unmarshal([]byte(raw), &vars); err != nil {
		return VarsResult{Err: errors.ParseError("vars is not a JSON array of strings", err)}
	}
	return VarsResult{Vars: analysis.UniqueVariables(vars), OK: true}
}

// EncodeVars renders variables as a JSON array, or "" when there are none
func EncodeVars(vars []string) string {
	if len(vars) == 0 {
		return ""
	}
	data, err := json.Marshal(vars)
	if err != nil {
		return ""
	}
	return string(data)
}

// ResultURL is the navigation target for the result window
func ResultURL(base string, req analysis.Request) string {
	qs := EncodeQuery(req)
	if qs == "" {
		return strings.TrimRight(base, "/") + ResultPath
	}
	return strings.TrimRight(base, "/") + ResultPath + "?" + qs
}

// PanelURL is the navigation target for an analysis panel
func PanelURL(base, path, sheet string, kind analysis.Kind) string {
	q := make([]string, 0, 3)
	for _, p := range []param{{KeyAnalysis, string(kind)}, {KeyPath, path}, {KeySheet, sheet}} {
		if p.value != "" {
			q = append(q, p.key+"="+url.QueryEscape(p.value))
		}
	}
	target := strings.TrimRight(base, "/") + PanelPath
	if len(q) > 0 {
		target += "?" + strings.Join(q, "&")
	}
	return target
}

// TableURL is the navigation target for the table window
func TableURL(base string) string {
	return strings.TrimRight(base, "/") + TablePath
}

func joinMethods(methods []analysis.CorrelationMethod) string {
	parts := make([]string, len(methods))
	for i, m := range methods {
		parts[i] = string(m)
	}
	return strings.Join(parts, ",")
}

func splitMethods(raw string) []analysis.CorrelationMethod {
	if raw == "" {
		return nil
	}
	var methods []analysis.CorrelationMethod
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			methods = append(methods, analysis.CorrelationMethod(part))
		}
	}
	return methods
}

func parseCount(raw string) *int {
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}

package codec

import (
	"encoding/json"

	"psycdata/domain/analysis"
	"psycdata/internal/errors"
)

// Payload is the in-place refresh message published on "<label>:load".
// Its JSON form mirrors the query parameters.
type Payload struct {
	Path       string   `json:"path"`
	Sheet      string   `json:"sheet"`
	Analysis   string   `json:"analysis,omitempty"`
	Variables  []string `json:"variables,omitempty"`
	Sort       string   `json:"sort,omitempty"`
	Model      string   `json:"model,omitempty"`
	Methods    []string `json:"methods,omitempty"`
	Tail       string   `json:"tail,omitempty"`
	Extraction string   `json:"extraction,omitempty"`
	Rotation   string   `json:"rotation,omitempty"`
	Criterion  string   `json:"criterion,omitempty"`
	Factors    *int     `json:"factors,omitempty"`
}

// EncodePayload flattens req into a bus payload
func EncodePayload(req analysis.Request) Payload {
	p := Payload{
		Path:      req.FilePath,
		Sheet:     req.Sheet,
		Analysis:  string(req.Kind),
		Variables: req.Variables,
	}
	switch opts := req.Options.(type) {
	case analysis.DescriptiveOptions:
		p.Sort = string(opts.SortOrder)
	case analysis.ReliabilityOptions:
		p.Model = string(opts.Model)
	case analysis.CorrelationOptions:
		for _, m := range opts.Methods {
			p.Methods = append(p.Methods, string(m))
		}
		p.Tail = string(opts.Tailedness)
	case analysis.FactorOptions:
		p.Extraction = opts.Extraction
		p.Rotation = opts.Rotation
		p.Criterion = opts.Criterion
		if opts.FactorCount != nil {
			p.Factors = analysis.IntPtr(*opts.FactorCount)
		}
	}
	return p
}

// DecodePayload rebuilds a canonical request from p. Option fields that
// do not belong to p.Analysis are ignored.
func DecodePayload(p Payload) analysis.Request {
	kind := analysis.Kind(p.Analysis)

	var opts analysis.Options
	switch kind {
	case analysis.KindDescriptive:
		opts = analysis.DescriptiveOptions{SortOrder: analysis.SortOrder(p.Sort)}
	case analysis.KindReliability:
		opts = analysis.ReliabilityOptions{Model: analysis.Model(p.Model)}
	case analysis.KindCorrelation:
		var methods []analysis.CorrelationMethod
		for _, m := range p.Methods {
			methods = append(methods, analysis.CorrelationMethod(m))
		}
		opts = analysis.CorrelationOptions{Methods: methods, Tailedness: analysis.Tailedness(p.Tail)}
	case analysis.KindFactor:
		opts = analysis.FactorOptions{
			Extraction:  p.Extraction,
			Rotation:    p.Rotation,
			Criterion:   p.Criterion,
			FactorCount: p.Factors,
		}
	}

	return analysis.NewRequest(p.Path, p.Sheet, kind, p.Variables, opts)
}

// PayloadFromMap converts a loosely typed mapping, as received from a
// browser or over HTTP, into a Payload.
func PayloadFromMap(m map[string]interface{}) (Payload, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return Payload{}, errors.ParseError("payload is not serializable", err)
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, errors.ParseError("payload does not match the request shape", err)
	}
	return p, nil
}

// AsPayload accepts the shapes a bus subscriber may receive: a Payload,
// a pointer to one, a generic map or raw JSON.
func AsPayload(v interface{}) (Payload, bool) {
	switch t := v.(type) {
	case Payload:
		return t, true
	case *Payload:
		if t == nil {
			return Payload{}, false
		}
		return *t, true
	case map[string]interface{}:
		p, err := PayloadFromMap(t)
		return p, err == nil
	case json.RawMessage:
		var p Payload
		return p, json.Unmarshal(t, &p) == nil
	case []byte:
		var p Payload
		return p, json.Unmarshal(t, &p) == nil
	}
	return Payload{}, false
}

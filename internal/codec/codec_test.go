package codec

import (
	"encoding/json"
	"net/url"
	"testing"

	"psycdata/domain/analysis"
	"psycdata/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequests() []analysis.Request {
	return []analysis.Request{
		analysis.NewRequest("/data/survey.xlsx", "Sheet1", analysis.KindDescriptive,
			[]string{"age", "score"}, analysis.DescriptiveOptions{SortOrder: analysis.SortMeanDesc}),
		analysis.NewRequest("C:\\Users\\me\\調査 2024.xlsx", "回答 & メモ", analysis.KindDescriptive,
			[]string{"年齢", "a,b", "say \"hi\""}, nil),
		analysis.NewRequest("/d.xlsx", "S", analysis.KindCorrelation, []string{"x", "y", "z"},
			analysis.CorrelationOptions{
				Methods:    []analysis.CorrelationMethod{analysis.MethodPearson, analysis.MethodSpearman},
				Tailedness: analysis.OneSided,
			}),
		analysis.NewRequest("/d.xlsx", "S", analysis.KindReliability, []string{"q1", "q2"},
			analysis.ReliabilityOptions{Model: analysis.ModelOmega}),
		analysis.NewRequest("/d.xlsx", "S", analysis.KindReliability, []string{"q1", "q2"}, nil),
		analysis.NewRequest("/d.xlsx", "S", analysis.KindFactor, []string{"a", "b", "c"},
			analysis.FactorOptions{Extraction: "ml", Rotation: "varimax", Criterion: "kaiser", FactorCount: analysis.IntPtr(2)}),
		analysis.NewRequest("/d.xlsx", "S", analysis.Kind("cluster"), []string{"a"}, nil),
		analysis.NewRequest("/d.xlsx", "S", analysis.KindDescriptive, nil, nil),
		analysis.NewRequest("", "", "", nil, nil),
	}
}

func TestQueryRoundTrip(t *testing.T) {
	for _, req := range sampleRequests() {
		qs := EncodeQuery(req)
		assert.Equal(t, req, DecodeQuery(qs), "query %q", qs)
		assert.Equal(t, req, DecodeQuery("?"+qs))
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	for _, req := range sampleRequests() {
		p := EncodePayload(req)
		assert.Equal(t, req, DecodePayload(p))

		// through the wire shape a browser would send
		data, err := json.Marshal(p)
		require.NoError(t, err)
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &m))
		fromMap, err := PayloadFromMap(m)
		require.NoError(t, err)
		assert.Equal(t, req, DecodePayload(fromMap))
	}
}

func TestEncodeQueryKeyOrderAndOmission(t *testing.T) {
	req := analysis.NewRequest("/a b.xlsx", "Sheet1", analysis.KindDescriptive,
		[]string{"age", "score"}, analysis.DescriptiveOptions{SortOrder: analysis.SortMeanDesc})

	qs := EncodeQuery(req)
	assert.Equal(t,
		"path=%2Fa+b.xlsx&sheet=Sheet1&analysis=descriptive&vars="+url.QueryEscape(`["age","score"]`)+"&sort=mean_desc",
		qs)

	unsorted := analysis.NewRequest("/a.xlsx", "S", analysis.KindDescriptive, []string{"x"}, nil)
	assert.NotContains(t, EncodeQuery(unsorted), "sort=")

	// option keys never leak across kinds
	rel := analysis.NewRequest("/a.xlsx", "S", analysis.KindReliability, []string{"x", "y"},
		analysis.DescriptiveOptions{SortOrder: analysis.SortMeanAsc})
	assert.NotContains(t, EncodeQuery(rel), "sort=")
}

func TestDecodeQueryFallsBackOnMalformedVars(t *testing.T) {
	cases := []string{
		"path=%2Fd.xlsx&sheet=S&analysis=correlation&vars=not-json",
		"path=%2Fd.xlsx&sheet=S&analysis=correlation&vars=%5B1%2C2%5D",
		"path=%2Fd.xlsx&sheet=S&analysis=correlation&vars=%7B%7D",
		"path=%2Fd.xlsx&sheet=S&analysis=correlation",
		"path=%2Fd.xlsx&sheet=S&analysis=correlation&vars=%zz",
	}
	for _, qs := range cases {
		assert.NotPanics(t, func() {
			req := DecodeQuery(qs)
			assert.Empty(t, req.Variables, qs)
			assert.False(t, req.Ready())
		})
	}
}

func TestDecodeQueryIgnoresForeignOptionKeys(t *testing.T) {
	req := DecodeQuery("path=p&sheet=s&analysis=descriptive&model=omega&vars=%5B%22a%22%5D")
	assert.Equal(t, analysis.DescriptiveOptions{}, req.Options)
	assert.Equal(t, analysis.Model(""), req.Model())
}

func TestParseVars(t *testing.T) {
	ok := ParseVars(`["a","b","a"]`)
	assert.True(t, ok.OK)
	assert.Equal(t, []string{"a", "b"}, ok.Vars)
	assert.NoError(t, ok.Err)

	bad := ParseVars(`["a",`)
	assert.False(t, bad.OK)
	assert.Nil(t, bad.Vars)
	assert.Equal(t, errors.CodeParse, errors.GetCode(bad.Err))

	missing := ParseVars("")
	assert.False(t, missing.OK)
	assert.Equal(t, errors.CodeParse, errors.GetCode(missing.Err))
}

func TestWindowURLs(t *testing.T) {
	req := analysis.NewRequest("/d.xlsx", "S", analysis.KindDescriptive, []string{"a"}, nil)
	assert.Equal(t, "http://localhost:8080/w/result?"+EncodeQuery(req), ResultURL("http://localhost:8080/", req))
	assert.Equal(t, "/w/result", ResultURL("", analysis.Request{}))

	assert.Equal(t, "/w/panel?analysis=reliability&path=%2Fd.xlsx&sheet=Sheet+1",
		PanelURL("", "/d.xlsx", "Sheet 1", analysis.KindReliability))
	assert.Equal(t, "/w/table", TableURL(""))

	panel := DecodeQuery("analysis=reliability&path=%2Fd.xlsx&sheet=Sheet+1")
	assert.Equal(t, "Sheet 1", panel.Sheet)
	assert.Equal(t, analysis.KindReliability, panel.Kind)
}

func TestAsPayload(t *testing.T) {
	p := Payload{Path: "/d.xlsx", Sheet: "S", Analysis: "descriptive", Variables: []string{"a"}, Sort: "mean_asc"}

	got, ok := AsPayload(p)
	assert.True(t, ok)
	assert.Equal(t, p, got)

	got, ok = AsPayload(&p)
	assert.True(t, ok)
	assert.Equal(t, p, got)

	got, ok = AsPayload(map[string]interface{}{"path": "/d.xlsx", "sheet": "S", "analysis": "descriptive", "variables": []interface{}{"a"}, "sort": "mean_asc"})
	assert.True(t, ok)
	assert.Equal(t, p, got)

	got, ok = AsPayload([]byte(`{"path":"/d.xlsx","sheet":"S","analysis":"descriptive","variables":["a"],"sort":"mean_asc"}`))
	assert.True(t, ok)
	assert.Equal(t, p, got)

	_, ok = AsPayload(map[string]interface{}{"variables": "not-a-list"})
	assert.False(t, ok)

	_, ok = AsPayload(42)
	assert.False(t, ok)
}

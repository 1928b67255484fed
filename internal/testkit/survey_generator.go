package testkit

import (
	"fmt"
	"math"
	"math/rand"
)

// SurveyGeneratorConfig configures the synthetic questionnaire generator
type SurveyGeneratorConfig struct {
	Respondents int     `json:"respondents"`
	Items       int     `json:"items"`        // Likert items q1..qN
	ScalePoints int     `json:"scale_points"` // e.g. 5 for a 1-5 scale
	Loading     float64 `json:"loading"`      // how strongly items follow the latent trait
	MissingRate float64 `json:"missing_rate"` // share of blank item responses
	Seed        int64   `json:"seed"`
}

// DefaultSurveyConfig returns a small, internally consistent questionnaire
func DefaultSurveyConfig() SurveyGeneratorConfig {
	return SurveyGeneratorConfig{
		Respondents: 120,
		Items:       5,
		ScalePoints: 5,
		Loading:     0.8,
		MissingRate: 0.02,
		Seed:        42,
	}
}

// SurveyGenerator produces respondent rows with id, age, score and items
// driven by one latent trait, so item sets have a meaningful alpha.
type SurveyGenerator struct {
	config SurveyGeneratorConfig
	rng    *rand.Rand
}

// NewSurveyGenerator creates a generator; equal seeds give equal data
func NewSurveyGenerator(config SurveyGeneratorConfig) *SurveyGenerator {
	return &SurveyGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Headers lists the generated column names
func (g *SurveyGenerator) Headers() []string {
	headers := []string{"id", "age", "score"}
	for i := 1; i <= g.config.Items; i++ {
		headers = append(headers, fmt.Sprintf("q%d", i))
	}
	return headers
}

// Rows generates one row per respondent. Blank item responses are nil.
func (g *SurveyGenerator) Rows() [][]interface{} {
	rows := make([][]interface{}, 0, g.config.Respondents)
	mid := float64(g.config.ScalePoints+1) / 2
	noise := math.Sqrt(math.Max(0, 1-g.config.Loading*g.config.Loading))

	for r := 0; r < g.config.Respondents; r++ {
		trait := g.rng.NormFloat64()
		age := 18 + g.rng.Intn(50)
		score := math.Round((60+12*trait+4*g.rng.NormFloat64())*10) / 10

		row := []interface{}{fmt.Sprintf("R%04d", r+1), age, score}
		for i := 0; i < g.config.Items; i++ {
			if g.rng.Float64() < g.config.MissingRate {
				row = append(row, nil)
				continue
			}
			z := g.config.Loading*trait + noise*g.rng.NormFloat64()
			row = append(row, g.likert(mid+z*float64(g.config.ScalePoints)/4))
		}
		rows = append(rows, row)
	}
	return rows
}

func (g *SurveyGenerator) likert(v float64) int {
	n := int(math.Round(v))
	if n < 1 {
		return 1
	}
	if n > g.config.ScalePoints {
		return g.config.ScalePoints
	}
	return n
}

package grading

import (
	"fmt"
	"math"

	"github.com/trezcool/reportcard/core"
)

// ScoringPolicy decides how a subject's class and exam scores combine into its total.
type ScoringPolicy string

// GradeScheme decides which threshold table labels a subject total.
type GradeScheme string

// AggregationPolicy decides how subject totals combine into a student's aggregate.
type AggregationPolicy string

const (
	WeightedAverage ScoringPolicy = "weighted_average" // class*0.5 + exam*0.5
	SimpleSum       ScoringPolicy = "simple_sum"       // class + exam

	PassFailCredit GradeScheme = "pass_fail_credit"
	LetterGrade    GradeScheme = "letter_grade"

	Sum     AggregationPolicy = "sum"
	Average AggregationPolicy = "average"
)

const (
	DefaultMinScore = 0.0
	DefaultMaxScore = 100.0

	classWeight = 0.5
	examWeight  = 0.5
)

type threshold struct {
	min   float64
	label string
}

// inclusive lower bounds, checked in descending order; the last entry catches everything else
var gradeTables = map[GradeScheme][]threshold{
	PassFailCredit: {
		{75, "Pass"},
		{50, "Credit"},
		{math.Inf(-1), "Fail"},
	},
	LetterGrade: {
		{80, "A"},
		{70, "B"},
		{60, "C"},
		{50, "D"},
		{math.Inf(-1), "E"},
	},
}

func (sp ScoringPolicy) valid() bool {
	return sp == WeightedAverage || sp == SimpleSum
}

func (gs GradeScheme) valid() bool {
	_, ok := gradeTables[gs]
	return ok
}

func (ap AggregationPolicy) valid() bool {
	return ap == Sum || ap == Average
}

// Policy bundles the three explicit policy choices and the valid range of a component score.
type Policy struct {
	Scoring     ScoringPolicy     `json:"scoring" yaml:"scoring"`
	Grading     GradeScheme       `json:"grading" yaml:"grading"`
	Aggregation AggregationPolicy `json:"aggregation" yaml:"aggregation"`
	MinScore    float64           `json:"min_score" yaml:"min_score"`
	MaxScore    float64           `json:"max_score" yaml:"max_score"`
}

// DefaultPolicy is the policy of the web variant: weighted average, pass/credit/fail, summed aggregate.
func DefaultPolicy() Policy {
	return Policy{
		Scoring:     WeightedAverage,
		Grading:     PassFailCredit,
		Aggregation: Sum,
		MinScore:    DefaultMinScore,
		MaxScore:    DefaultMaxScore,
	}
}

// NewPolicy parses policy names, using the default score range.
func NewPolicy(scoring, scheme, aggregation string) (Policy, error) {
	p := Policy{
		Scoring:     ScoringPolicy(core.CleanString(scoring, true)),
		Grading:     GradeScheme(core.CleanString(scheme, true)),
		Aggregation: AggregationPolicy(core.CleanString(aggregation, true)),
		MinScore:    DefaultMinScore,
		MaxScore:    DefaultMaxScore,
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// PolicyFromConfig builds a validated Policy from the application configuration.
func PolicyFromConfig(conf core.GradingConfig) (Policy, error) {
	p, err := NewPolicy(conf.Scoring, conf.Grading, conf.Aggregation)
	if err != nil {
		return Policy{}, err
	}
	p.MinScore, p.MaxScore = conf.MinScore, conf.MaxScore
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate returns a *core.ConfigurationError for unset or unknown policies and for an invalid score range.
func (p Policy) Validate() error {
	if !p.Scoring.valid() {
		return core.NewConfigurationError("scoring policy", string(p.Scoring))
	}
	if !p.Grading.valid() {
		return core.NewConfigurationError("grade scheme", string(p.Grading))
	}
	if !p.Aggregation.valid() {
		return core.NewConfigurationError("aggregation policy", string(p.Aggregation))
	}
	if math.IsNaN(p.MinScore) || math.IsNaN(p.MaxScore) || math.IsInf(p.MinScore, 0) || math.IsInf(p.MaxScore, 0) ||
		p.MinScore >= p.MaxScore {
		return core.NewConfigurationError("score range", fmt.Sprintf("[%v, %v]", p.MinScore, p.MaxScore))
	}
	return nil
}

// ScaleMismatch reports the LetterGrade + SimpleSum combination: letter thresholds are built for a 0-100 total
// while a simple sum reaches twice the component maximum. The thresholds are applied unchanged.
func (p Policy) ScaleMismatch() bool {
	return p.Grading == LetterGrade && p.Scoring == SimpleSum
}

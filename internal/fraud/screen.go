// Package fraud provides rule-based anomaly screening for waste submissions.
// A flagged submission is accepted but routed to review; screening defers
// disposition to a human reviewer, it never auto-rejects.
package fraud

// Geo is the submission location used for geographic screening rules.
type Geo struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// Submission carries the fields the screening rules inspect.
type Submission struct {
	WeightKg    float64
	MoisturePct float64
	Geo         Geo
}

// Flag reason strings are part of the audit vocabulary and must be preserved
// verbatim.
const (
	ReasonWeightExceeded   = "weight exceeds maximum threshold for single submission"
	ReasonMoistureExceeded = "moisture level exceeds acceptable limit"
)

// Default screening thresholds.
const (
	DefaultMaxWeightKg    = 5000.0
	DefaultMaxMoisturePct = 35.0
)

// Rule checks one anomaly condition. It returns whether the submission is
// suspicious and the human-readable reason.
type Rule func(Submission) (bool, string)

// Screener evaluates submissions against an ordered rule set; the first
// matching rule wins. New rules (e.g. a duplicate-geo-in-window check) are
// added to the slice without changing call sites.
type Screener struct {
	rules []Rule
}

// Config holds the screening thresholds. Zero values fall back to defaults.
type Config struct {
	MaxWeightKg    float64
	MaxMoisturePct float64
}

// NewScreener creates a screener with the standard rule set.
func NewScreener(cfg Config) *Screener {
	maxWeight := cfg.MaxWeightKg
	if maxWeight <= 0 {
		maxWeight = DefaultMaxWeightKg
	}
	maxMoisture := cfg.MaxMoisturePct
	if maxMoisture <= 0 {
		maxMoisture = DefaultMaxMoisturePct
	}

	return &Screener{
		rules: []Rule{
			func(s Submission) (bool, string) {
				if s.WeightKg > maxWeight {
					return true, ReasonWeightExceeded
				}
				return false, ""
			},
			func(s Submission) (bool, string) {
				if s.MoisturePct > maxMoisture {
					return true, ReasonMoistureExceeded
				}
				return false, ""
			},
		},
	}
}

// AddRule appends an extra rule, evaluated after the standard set.
func (s *Screener) AddRule(r Rule) {
	s.rules = append(s.rules, r)
}

// Screen evaluates the rules in order and returns the first match. Pure; no
// side effects.
func (s *Screener) Screen(sub Submission) (bool, string) {
	for _, rule := range s.rules {
		if flagged, reason := rule(sub); flagged {
			return true, reason
		}
	}
	return false, ""
}
